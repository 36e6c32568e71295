package bytecode

import (
	"github.com/sapphire-lang/sapphire/op"
)

// Code represents a compiled unit. It is immutable after creation and safe
// for concurrent use.
type Code struct {
	name     string
	filename string
	source   string

	instructions []op.Code
	constants    []any
	names        []string
	localNames   []string

	// Exception regions; a nested region precedes the one enclosing it
	regions []ExceptionRegion

	// Maximum operand stack depth reached by any path
	maxStack int
}

// CodeParams contains parameters for creating a new Code.
type CodeParams struct {
	Name         string
	Filename     string
	Source       string
	Instructions []op.Code
	Constants    []any
	Names        []string
	LocalNames   []string
	Regions      []ExceptionRegion
	MaxStack     int
}

// NewCode creates a new immutable Code from the given parameters.
// Input slices are copied to ensure immutability.
func NewCode(params CodeParams) *Code {
	return &Code{
		name:         params.Name,
		filename:     params.Filename,
		source:       params.Source,
		instructions: copyInstructions(params.Instructions),
		constants:    copyAny(params.Constants),
		names:        copyStrings(params.Names),
		localNames:   copyStrings(params.LocalNames),
		regions:      copyRegions(params.Regions),
		maxStack:     params.MaxStack,
	}
}

// Name returns the name of this unit.
func (c *Code) Name() string {
	return c.name
}

// Filename returns the source filename, if known.
func (c *Code) Filename() string {
	return c.filename
}

// Source returns the source text the unit was compiled from, if known.
func (c *Code) Source() string {
	return c.source
}

// InstructionCount returns the number of words in the instruction stream.
func (c *Code) InstructionCount() int {
	return len(c.instructions)
}

// InstructionAt returns the word at the given offset.
func (c *Code) InstructionAt(index int) op.Code {
	return c.instructions[index]
}

// ConstantCount returns the number of constants.
func (c *Code) ConstantCount() int {
	return len(c.constants)
}

// ConstantAt returns the constant at the given index.
func (c *Code) ConstantAt(index int) any {
	return c.constants[index]
}

// NameCount returns the number of names (methods, constants, instance and
// global variables) referenced by this unit.
func (c *Code) NameCount() int {
	return len(c.names)
}

// NameAt returns the name at the given index.
func (c *Code) NameAt(index int) string {
	return c.names[index]
}

// LocalCount returns the number of local variable slots.
func (c *Code) LocalCount() int {
	return len(c.localNames)
}

// LocalNameAt returns the local variable name for a slot.
// Returns an empty string if the index is out of range.
func (c *Code) LocalNameAt(index int) string {
	if index < 0 || index >= len(c.localNames) {
		return ""
	}
	return c.localNames[index]
}

// RegionCount returns the number of exception regions.
func (c *Code) RegionCount() int {
	return len(c.regions)
}

// RegionAt returns the exception region at the given index. The returned
// value shares no memory with the Code.
func (c *Code) RegionAt(index int) ExceptionRegion {
	return c.regions[index].clone()
}

// MaxStack returns the deepest operand stack any path reaches.
func (c *Code) MaxStack() int {
	return c.maxStack
}

// Stats returns statistics about this unit.
func (c *Code) Stats() Stats {
	count := 0
	iter := NewInstructionIter(c)
	for {
		if _, ok := iter.Next(); !ok {
			break
		}
		count++
	}
	return Stats{
		Words:        len(c.instructions),
		Instructions: count,
		Constants:    len(c.constants),
		Names:        len(c.names),
		Locals:       len(c.localNames),
		Regions:      len(c.regions),
		MaxStack:     c.maxStack,
		SourceBytes:  len(c.source),
	}
}

// Stats contains statistics about a compiled unit.
type Stats struct {
	Words        int `json:"words"`
	Instructions int `json:"instructions"`
	Constants    int `json:"constants"`
	Names        int `json:"names"`
	Locals       int `json:"locals"`
	Regions      int `json:"regions"`
	MaxStack     int `json:"max_stack"`
	SourceBytes  int `json:"source_bytes"`
}

func copyStrings(src []string) []string {
	if src == nil {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}

func copyAny(src []any) []any {
	if src == nil {
		return nil
	}
	dst := make([]any, len(src))
	copy(dst, src)
	return dst
}

func copyInstructions(src []op.Code) []op.Code {
	if src == nil {
		return nil
	}
	dst := make([]op.Code, len(src))
	copy(dst, src)
	return dst
}

func copyRegions(src []ExceptionRegion) []ExceptionRegion {
	if src == nil {
		return nil
	}
	dst := make([]ExceptionRegion, len(src))
	for i, r := range src {
		dst[i] = r.clone()
	}
	return dst
}
