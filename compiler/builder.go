package compiler

import (
	"math"

	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/op"
)

const (
	// MaxArgs is the maximum number of arguments a send can carry.
	MaxArgs = 255

	// Placeholder is a temporary value written during compilation, which is
	// always replaced before compilation is complete.
	Placeholder = uint16(math.MaxUint16)
)

// Builder accumulates the instruction sequence for one compilation unit.
// The buffer only grows: instructions are never removed or reordered. A
// Builder is owned by a single compilation and is not safe for concurrent
// use.
type Builder struct {
	instructions []op.Code

	labels []labelState
	fixups []fixup

	constants  []any
	constIndex map[any]uint16
	names      []string
	nameIndex  map[string]uint16
	locals     *Locals

	regions []Region

	// Advisory stack bookkeeping
	depth      int
	maxDepth   int
	reachable  bool
	entryDepth map[Label]int

	finalized bool
}

// Region is an exception region whose boundaries are still labels.
type Region struct {
	Kind     op.UnwindKind
	Start    Label
	End      Label
	Entry    Label
	Handlers []RegionHandler
	Ensure   Label
}

// RegionHandler is one rescue clause of a Region.
type RegionHandler struct {
	Classes []string
	Entry   Label
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		constIndex: map[any]uint16{},
		nameIndex:  map[string]uint16{},
		locals:     NewLocals(),
		reachable:  true,
		entryDepth: map[Label]int{},
	}
}

// Emit appends one instruction and returns its offset.
func (b *Builder) Emit(opcode op.Code, operands ...uint16) int {
	if b.finalized {
		panic("compile error: emit after finalize")
	}
	inst := makeInstruction(opcode, operands...)
	pos := len(b.instructions)
	b.instructions = append(b.instructions, inst...)

	pops, pushes := op.StackEffect(opcode, inst[1:])
	b.depth += pushes - pops
	if b.depth > b.maxDepth {
		b.maxDepth = b.depth
	}
	if op.IsTerminal(opcode) {
		b.reachable = false
	}
	return pos
}

// Offset returns the offset the next instruction will be written at.
func (b *Builder) Offset() int {
	return len(b.instructions)
}

// Depth returns the operand stack depth at the current end of the buffer.
func (b *Builder) Depth() int {
	return b.depth
}

// MaxDepth returns the deepest stack seen so far.
func (b *Builder) MaxDepth() int {
	return b.maxDepth
}

// Constant adds a literal to the constant pool and returns its index.
// Equal literals share an entry.
func (b *Builder) Constant(v any) (uint16, error) {
	if idx, ok := b.constIndex[v]; ok {
		return idx, nil
	}
	if len(b.constants) >= math.MaxUint16 {
		return 0, errors.OperandOverflow("number of constants exceeded limits")
	}
	idx := uint16(len(b.constants))
	b.constants = append(b.constants, v)
	b.constIndex[v] = idx
	return idx, nil
}

// Name interns a method, constant or variable name and returns its index.
func (b *Builder) Name(name string) (uint16, error) {
	if idx, ok := b.nameIndex[name]; ok {
		return idx, nil
	}
	if len(b.names) >= math.MaxUint16 {
		return 0, errors.OperandOverflow("number of names exceeded limits")
	}
	idx := uint16(len(b.names))
	b.names = append(b.names, name)
	b.nameIndex[name] = idx
	return idx, nil
}

// Local returns the slot of a local variable, allocating one on first use.
func (b *Builder) Local(name string) (uint16, error) {
	return b.locals.Slot(name)
}

// AddRegion records an exception region. Nested regions are added as their
// compilation completes, so an inner region precedes the one enclosing it.
func (b *Builder) AddRegion(r Region) {
	b.regions = append(b.regions, r)
}

// Finalize resolves every label reference and returns the immutable code.
// Name, Filename and Source are taken from params; everything else comes
// from the builder. The builder cannot be used afterwards.
func (b *Builder) Finalize(params bytecode.CodeParams) (*bytecode.Code, error) {
	if b.finalized {
		panic("compile error: builder already finalized")
	}
	b.finalized = true
	if err := b.resolve(); err != nil {
		return nil, err
	}
	regions := make([]bytecode.ExceptionRegion, 0, len(b.regions))
	for _, r := range b.regions {
		region, err := b.resolveRegion(r)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	params.Instructions = b.instructions
	params.Constants = b.constants
	params.Names = b.names
	params.LocalNames = b.locals.Names()
	params.Regions = regions
	params.MaxStack = b.maxDepth
	return bytecode.NewCode(params), nil
}

func (b *Builder) resolveRegion(r Region) (bytecode.ExceptionRegion, error) {
	var out bytecode.ExceptionRegion
	var err error
	out.Kind = r.Kind
	if out.Start, err = b.offsetOf(r.Start); err != nil {
		return out, err
	}
	if out.End, err = b.offsetOf(r.End); err != nil {
		return out, err
	}
	if out.Entry, err = b.offsetOf(r.Entry); err != nil {
		return out, err
	}
	if out.Ensure, err = b.offsetOf(r.Ensure); err != nil {
		return out, err
	}
	for _, h := range r.Handlers {
		entry, err := b.offsetOf(h.Entry)
		if err != nil {
			return out, err
		}
		out.Handlers = append(out.Handlers, bytecode.Handler{
			Classes: h.Classes,
			Entry:   entry,
		})
	}
	return out, nil
}

func makeInstruction(opcode op.Code, operands ...uint16) []op.Code {
	opInfo := op.GetInfo(opcode)
	if opInfo.Name == "" {
		panic("compile error: unknown opcode")
	}
	if len(operands) != opInfo.OperandCount {
		panic("compile error: wrong operand count")
	}
	instruction := make([]op.Code, 1+opInfo.OperandCount)
	instruction[0] = opcode
	offset := 1
	for _, o := range operands {
		instruction[offset] = op.Code(o)
		offset++
	}
	return instruction
}
