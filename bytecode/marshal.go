package bytecode

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/sapphire-lang/sapphire/op"
	"github.com/sapphire-lang/sapphire/sexp"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal converts a Code object into a JSON representation.
func Marshal(code *Code) ([]byte, error) {
	state, err := stateFromCode(code)
	if err != nil {
		return nil, err
	}
	return json.Marshal(state)
}

// Unmarshal converts a JSON representation into a Code object.
func Unmarshal(data []byte) (*Code, error) {
	var state codeDef
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return codeFromState(&state)
}

// MarshalCBOR converts a Code object into canonical CBOR. Equal units
// always encode to identical bytes.
func MarshalCBOR(code *Code) ([]byte, error) {
	state, err := stateFromCode(code)
	if err != nil {
		return nil, err
	}
	return cborEncMode.Marshal(state)
}

// UnmarshalCBOR converts a CBOR representation into a Code object.
func UnmarshalCBOR(data []byte) (*Code, error) {
	var state codeDef
	if err := cbor.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("bytecode: unmarshal code: %w", err)
	}
	return codeFromState(&state)
}

// Serialization types

type constantDef struct {
	Type  string  `json:"type" cbor:"1,keyasint"`
	Int   int64   `json:"int,omitempty" cbor:"2,keyasint,omitempty"`
	Float float64 `json:"float,omitempty" cbor:"3,keyasint,omitempty"`
	Str   string  `json:"str,omitempty" cbor:"4,keyasint,omitempty"`
}

type handlerDef struct {
	Classes []string `json:"classes" cbor:"1,keyasint"`
	Entry   int      `json:"entry" cbor:"2,keyasint"`
}

type regionDef struct {
	Kind     string       `json:"kind" cbor:"1,keyasint"`
	Start    int          `json:"start" cbor:"2,keyasint"`
	End      int          `json:"end" cbor:"3,keyasint"`
	Entry    int          `json:"entry" cbor:"4,keyasint"`
	Handlers []handlerDef `json:"handlers,omitempty" cbor:"5,keyasint,omitempty"`
	Ensure   int          `json:"ensure" cbor:"6,keyasint"`
}

type codeDef struct {
	Name         string        `json:"name" cbor:"1,keyasint"`
	Filename     string        `json:"filename,omitempty" cbor:"2,keyasint,omitempty"`
	Source       string        `json:"source,omitempty" cbor:"3,keyasint,omitempty"`
	Instructions []op.Code     `json:"instructions" cbor:"4,keyasint"`
	Constants    []constantDef `json:"constants" cbor:"5,keyasint"`
	Names        []string      `json:"names" cbor:"6,keyasint"`
	LocalNames   []string      `json:"local_names,omitempty" cbor:"7,keyasint,omitempty"`
	Regions      []regionDef   `json:"regions,omitempty" cbor:"8,keyasint,omitempty"`
	MaxStack     int           `json:"max_stack" cbor:"9,keyasint"`
}

func stateFromCode(code *Code) (*codeDef, error) {
	constants := make([]constantDef, code.ConstantCount())
	for i := 0; i < code.ConstantCount(); i++ {
		def, err := marshalConstant(code.ConstantAt(i))
		if err != nil {
			return nil, err
		}
		constants[i] = def
	}

	regions := make([]regionDef, code.RegionCount())
	for i := 0; i < code.RegionCount(); i++ {
		r := code.RegionAt(i)
		handlers := make([]handlerDef, len(r.Handlers))
		for j, h := range r.Handlers {
			handlers[j] = handlerDef{Classes: h.Classes, Entry: h.Entry}
		}
		regions[i] = regionDef{
			Kind:     r.Kind.String(),
			Start:    r.Start,
			End:      r.End,
			Entry:    r.Entry,
			Handlers: handlers,
			Ensure:   r.Ensure,
		}
	}

	instructions := make([]op.Code, code.InstructionCount())
	for i := range instructions {
		instructions[i] = code.InstructionAt(i)
	}

	names := make([]string, code.NameCount())
	for i := range names {
		names[i] = code.NameAt(i)
	}

	locals := make([]string, code.LocalCount())
	for i := range locals {
		locals[i] = code.LocalNameAt(i)
	}

	return &codeDef{
		Name:         code.Name(),
		Filename:     code.Filename(),
		Source:       code.Source(),
		Instructions: instructions,
		Constants:    constants,
		Names:        names,
		LocalNames:   locals,
		Regions:      regions,
		MaxStack:     code.MaxStack(),
	}, nil
}

func codeFromState(def *codeDef) (*Code, error) {
	constants := make([]any, len(def.Constants))
	for i, c := range def.Constants {
		v, err := unmarshalConstant(c)
		if err != nil {
			return nil, err
		}
		constants[i] = v
	}

	regions := make([]ExceptionRegion, len(def.Regions))
	for i, r := range def.Regions {
		var kind op.UnwindKind
		switch r.Kind {
		case "rescue":
			kind = op.RescueUnwind
		case "ensure":
			kind = op.EnsureUnwind
		default:
			return nil, fmt.Errorf("unknown region kind: %q", r.Kind)
		}
		var handlers []Handler
		if len(r.Handlers) > 0 {
			handlers = make([]Handler, len(r.Handlers))
			for j, h := range r.Handlers {
				handlers[j] = Handler{Classes: h.Classes, Entry: h.Entry}
			}
		}
		regions[i] = ExceptionRegion{
			Kind:     kind,
			Start:    r.Start,
			End:      r.End,
			Entry:    r.Entry,
			Handlers: handlers,
			Ensure:   r.Ensure,
		}
	}

	return NewCode(CodeParams{
		Name:         def.Name,
		Filename:     def.Filename,
		Source:       def.Source,
		Instructions: def.Instructions,
		Constants:    constants,
		Names:        def.Names,
		LocalNames:   def.LocalNames,
		Regions:      regions,
		MaxStack:     def.MaxStack,
	}), nil
}

func marshalConstant(c any) (constantDef, error) {
	switch v := c.(type) {
	case int:
		return constantDef{Type: "int", Int: int64(v)}, nil
	case int64:
		return constantDef{Type: "int", Int: v}, nil
	case float64:
		return constantDef{Type: "float", Float: v}, nil
	case string:
		return constantDef{Type: "string", Str: v}, nil
	case sexp.Symbol:
		return constantDef{Type: "symbol", Str: string(v)}, nil
	default:
		return constantDef{}, fmt.Errorf("unknown constant type: %T", c)
	}
}

func unmarshalConstant(c constantDef) (any, error) {
	switch c.Type {
	case "int":
		return c.Int, nil
	case "float":
		return c.Float, nil
	case "string":
		return c.Str, nil
	case "symbol":
		return sexp.Symbol(c.Str), nil
	default:
		return nil, fmt.Errorf("unknown constant type: %q", c.Type)
	}
}
