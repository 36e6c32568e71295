package errors

// ErrorCode represents a unique identifier for error types.
// Codes are organized by category:
//   - E1xxx: Input errors (the AST handed to the compiler is not acceptable)
//   - E2xxx: Internal errors (a compiler rule broke one of its own invariants)
type ErrorCode string

const (
	// Input errors (E1xxx)
	E1001 ErrorCode = "E1001" // Unsupported node kind
	E1002 ErrorCode = "E1002" // Malformed node
	E1003 ErrorCode = "E1003" // Invalid s-expression syntax

	// Internal errors (E2xxx)
	E2001 ErrorCode = "E2001" // Unresolved label
	E2002 ErrorCode = "E2002" // Label set more than once
	E2003 ErrorCode = "E2003" // Operand out of range
	E2004 ErrorCode = "E2004" // Stack imbalance
	E2005 ErrorCode = "E2005" // Invalid instruction stream
)

// codeDescriptions maps error codes to their short descriptions.
var codeDescriptions = map[ErrorCode]string{
	E1001: "unsupported node kind",
	E1002: "malformed node",
	E1003: "invalid syntax",

	E2001: "unresolved label",
	E2002: "label set more than once",
	E2003: "operand out of range",
	E2004: "stack imbalance",
	E2005: "invalid instruction stream",
}

// Description returns the short description for an error code.
func (c ErrorCode) Description() string {
	if desc, ok := codeDescriptions[c]; ok {
		return desc
	}
	return ""
}

// IsInput returns true if this is an input (E1xxx) error code.
func (c ErrorCode) IsInput() bool {
	return len(c) == 5 && c[1] == '1'
}

// IsInternal returns true if this is an internal (E2xxx) error code.
func (c ErrorCode) IsInternal() bool {
	return len(c) == 5 && c[1] == '2'
}
