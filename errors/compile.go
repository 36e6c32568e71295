package errors

import (
	"fmt"
	"strings"
)

// CompileError reports an AST the compiler cannot accept. It covers unknown
// node kinds, nodes whose children do not match the shape their kind
// requires, and unreadable s-expression input.
type CompileError struct {
	Code     ErrorCode
	Kind     string // node kind tag, e.g. "resbody"
	Message  string
	Expected string // expected shape, for malformed nodes
	Node     string // s-expression rendering of the offending node
	Filename string
	Line     int
	Column   int
	Note     string
}

// Error implements the error interface.
func (e *CompileError) Error() string {
	var b strings.Builder
	b.WriteString("compile error: ")
	b.WriteString(e.Message)
	if e.Filename != "" || e.Line > 0 {
		b.WriteString("\n\nlocation: ")
		if e.Filename != "" {
			b.WriteString(e.Filename)
			b.WriteString(":")
		}
		fmt.Fprintf(&b, "%d:%d", e.Line, e.Column)
	}
	return b.String()
}

// FriendlyErrorMessage returns a human-friendly error message.
func (e *CompileError) FriendlyErrorMessage() string {
	return NewFormatter(false).Format(e.ToFormatted())
}

// ToFormatted converts to the FormattedError type for display.
func (e *CompileError) ToFormatted() *FormattedError {
	fe := &FormattedError{
		Code:     e.Code,
		Kind:     "error",
		Message:  e.Message,
		Filename: e.Filename,
		Line:     e.Line,
		Column:   e.Column,
		Note:     e.Note,
	}
	if e.Node != "" {
		fe.Context = e.Node
	}
	if e.Expected != "" {
		fe.Hint = "expected " + e.Expected
	}
	return fe
}

// UnsupportedNodeKind returns the error for a node kind the compiler has no
// rule for.
func UnsupportedNodeKind(kind, node string) *CompileError {
	return &CompileError{
		Code:    E1001,
		Kind:    kind,
		Message: fmt.Sprintf("unsupported node kind %q", kind),
		Node:    node,
	}
}

// MalformedNode returns the error for a node whose children do not match the
// shape its kind requires.
func MalformedNode(kind, expected, node string) *CompileError {
	return &CompileError{
		Code:     E1002,
		Kind:     kind,
		Message:  fmt.Sprintf("malformed %s node", kind),
		Expected: expected,
		Node:     node,
	}
}

// SyntaxError returns the error for unreadable s-expression text.
func SyntaxError(msg string, line, column int) *CompileError {
	return &CompileError{
		Code:    E1003,
		Message: msg,
		Line:    line,
		Column:  column,
	}
}
