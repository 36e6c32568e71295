package compiler

import (
	"math"

	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/op"
)

// Label is a symbolic jump target: an index into the builder's label arena.
// A label starts unset and is bound exactly once by SetLabel. Jumps may refer
// to it any number of times, before or after it is set.
type Label int

// NoLabel marks an absent label, such as the ensure entry of a rescue region.
const NoLabel Label = -1

const unset = -1

type labelState struct {
	offset int   // bound offset, or unset
	refs   []int // offsets of the instructions that jump to this label
}

// fixup is an operand word waiting for a label's offset.
type fixup struct {
	word  int
	label Label
}

// NewLabel returns a fresh unset label.
func (b *Builder) NewLabel() Label {
	b.labels = append(b.labels, labelState{offset: unset})
	return Label(len(b.labels) - 1)
}

// SetLabel binds the label to the current end of the instruction buffer.
// Setting a label twice is an internal error.
func (b *Builder) SetLabel(l Label) error {
	state := b.label(l)
	here := len(b.instructions)
	if state.offset != unset {
		return errors.LabelReuse(int(l), state.offset, here)
	}
	state.offset = here
	if !b.reachable {
		// Code after a terminal instruction is only entered through this
		// label, so resume at the depth its jumps arrive with.
		if depth, ok := b.entryDepth[l]; ok {
			b.depth = depth
		}
		b.reachable = true
	}
	return nil
}

// IsSet reports whether the label has been bound.
func (b *Builder) IsSet(l Label) bool {
	return b.label(l).offset != unset
}

// LabelCount returns the number of labels created so far.
func (b *Builder) LabelCount() int {
	return len(b.labels)
}

// UnsetLabels returns the labels that were created but never set, whether
// or not anything jumps to them.
func (b *Builder) UnsetLabels() []Label {
	var out []Label
	for i, state := range b.labels {
		if state.offset == unset {
			out = append(out, Label(i))
		}
	}
	return out
}

// EmitJump appends an instruction whose first operand is the offset of the
// given label. Remaining operands are written as given. The operand holds
// Placeholder until Finalize resolves it.
func (b *Builder) EmitJump(opcode op.Code, l Label, operands ...uint16) int {
	if !op.IsJump(opcode) {
		panic("compile error: " + op.GetInfo(opcode).Name + " is not a jump")
	}
	state := b.label(l)
	pos := b.Emit(opcode, append([]uint16{Placeholder}, operands...)...)
	state.refs = append(state.refs, pos)
	b.fixups = append(b.fixups, fixup{word: pos + 1, label: l})

	// Record the depth control arrives at the target with. A handler entry
	// starts at the depth the stack had when it was registered.
	if _, ok := b.entryDepth[l]; !ok {
		b.entryDepth[l] = b.depth
	}
	return pos
}

// resolve rewrites every jump operand with its label's offset.
func (b *Builder) resolve() error {
	for i, state := range b.labels {
		if state.offset == unset && len(state.refs) > 0 {
			return errors.UnresolvedLabel(i, state.refs)
		}
	}
	for _, f := range b.fixups {
		offset := b.labels[f.label].offset
		if offset > math.MaxUint16 {
			return errors.OperandOverflow("jump destination is too far away")
		}
		b.instructions[f.word] = op.Code(offset)
	}
	return nil
}

// offsetOf returns the bound offset of a label referenced by a region.
func (b *Builder) offsetOf(l Label) (int, error) {
	if l == NoLabel {
		return -1, nil
	}
	state := b.label(l)
	if state.offset == unset {
		return 0, errors.UnresolvedLabel(int(l), nil)
	}
	return state.offset, nil
}

func (b *Builder) label(l Label) *labelState {
	if l < 0 || int(l) >= len(b.labels) {
		panic("compile error: unknown label")
	}
	return &b.labels[l]
}
