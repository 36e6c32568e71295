// Package errors defines the error taxonomy shared by the Sapphire AST
// decoder and compiler.
package errors

import stderrors "errors"

// FriendlyError is an interface for errors that have a human friendly message
// in addition to a the lower level default error message.
type FriendlyError interface {
	Error() string
	FriendlyErrorMessage() string
}

// FormattableError is an interface for errors that can be formatted with
// the enhanced error formatter.
type FormattableError interface {
	Error() string
	ToFormatted() *FormattedError
}

// IsInputError returns true if err is, or wraps, a CompileError.
func IsInputError(err error) bool {
	var ce *CompileError
	return stderrors.As(err, &ce)
}

// IsInternal returns true if err is, or wraps, an InternalError.
func IsInternal(err error) bool {
	var ie *InternalError
	return stderrors.As(err, &ie)
}

// CodeOf returns the ErrorCode carried by err, or "" if it has none.
func CodeOf(err error) ErrorCode {
	var ce *CompileError
	if stderrors.As(err, &ce) {
		return ce.Code
	}
	var ie *InternalError
	if stderrors.As(err, &ie) {
		return ie.Code
	}
	return ""
}
