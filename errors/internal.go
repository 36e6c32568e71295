package errors

import (
	"fmt"
	"strings"
)

// InternalError reports a broken compiler invariant. These never result from
// a well-formed AST; they indicate a defect in a compiler rule and are kept
// apart from CompileError so callers can report them differently.
type InternalError struct {
	Code    ErrorCode
	Message string
	Label   int   // label involved, or -1
	Offsets []int // instruction offsets involved
}

// Error implements the error interface.
func (e *InternalError) Error() string {
	var b strings.Builder
	b.WriteString("internal compiler error: ")
	b.WriteString(e.Message)
	if len(e.Offsets) > 0 {
		parts := make([]string, len(e.Offsets))
		for i, off := range e.Offsets {
			parts[i] = fmt.Sprintf("%d", off)
		}
		b.WriteString(" (offsets ")
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString(")")
	}
	return b.String()
}

// ToFormatted converts to the FormattedError type for display.
func (e *InternalError) ToFormatted() *FormattedError {
	return &FormattedError{
		Code:    e.Code,
		Kind:    "internal error",
		Message: e.Message,
		Note:    "this is a compiler defect, not a problem with the input",
	}
}

// UnresolvedLabel returns the error for a label that was referenced by the
// instructions at refs but never set.
func UnresolvedLabel(label int, refs []int) *InternalError {
	return &InternalError{
		Code:    E2001,
		Message: fmt.Sprintf("label %d referenced but never set", label),
		Label:   label,
		Offsets: refs,
	}
}

// LabelReuse returns the error for setting an already-set label.
func LabelReuse(label, first, second int) *InternalError {
	return &InternalError{
		Code:    E2002,
		Message: fmt.Sprintf("label %d already set at %d", label, first),
		Label:   label,
		Offsets: []int{first, second},
	}
}

// OperandOverflow returns the error for an operand that does not fit in an
// instruction word.
func OperandOverflow(msg string) *InternalError {
	return &InternalError{
		Code:    E2003,
		Message: msg,
		Label:   -1,
	}
}

// StackImbalance returns the error for an instruction reached with two
// different operand stack depths, or one that pops an empty stack.
func StackImbalance(msg string, offset int) *InternalError {
	return &InternalError{
		Code:    E2004,
		Message: msg,
		Label:   -1,
		Offsets: []int{offset},
	}
}

// InvalidInstruction returns the error for a stream that cannot be decoded
// at offset: an unknown opcode, missing operands, or a jump into the middle
// of an instruction.
func InvalidInstruction(msg string, offset int) *InternalError {
	return &InternalError{
		Code:    E2005,
		Message: msg,
		Label:   -1,
		Offsets: []int{offset},
	}
}
