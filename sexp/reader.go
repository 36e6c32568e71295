package sexp

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sapphire-lang/sapphire/errors"
)

// Parse reads exactly one value from src.
func Parse(src string) (any, error) {
	values, err := ParseAll(src)
	if err != nil {
		return nil, err
	}
	if len(values) != 1 {
		return nil, errors.SyntaxError(fmt.Sprintf("expected one value, found %d", len(values)), 1, 1)
	}
	return values[0], nil
}

// ParseAll reads every top-level value in src.
func ParseAll(src string) ([]any, error) {
	r := &reader{src: src, line: 1, col: 1}
	var values []any
	for {
		r.skipSpace()
		if r.eof() {
			return values, nil
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
}

type reader struct {
	src  string
	pos  int
	line int
	col  int
}

func (r *reader) eof() bool {
	return r.pos >= len(r.src)
}

func (r *reader) peek() byte {
	if r.eof() {
		return 0
	}
	return r.src[r.pos]
}

func (r *reader) advance() byte {
	c := r.src[r.pos]
	r.pos++
	if c == '\n' {
		r.line++
		r.col = 1
	} else {
		r.col++
	}
	return c
}

func (r *reader) errorf(format string, args ...any) error {
	return errors.SyntaxError(fmt.Sprintf(format, args...), r.line, r.col)
}

func (r *reader) skipSpace() {
	for !r.eof() {
		switch c := r.peek(); {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			r.advance()
		case c == '#':
			for !r.eof() && r.peek() != '\n' {
				r.advance()
			}
		default:
			return
		}
	}
}

func isDelimiter(c byte) bool {
	switch c {
	case ',', '[', ']', ' ', '\t', '\n', '\r', '#':
		return true
	}
	return false
}

func (r *reader) value() (any, error) {
	r.skipSpace()
	if r.eof() {
		return nil, r.errorf("unexpected end of input")
	}
	c := r.peek()
	switch {
	case c == '[':
		return r.list()
	case c == ':':
		return r.symbol()
	case c == '"':
		return r.str()
	case c == '-' || (c >= '0' && c <= '9'):
		return r.number()
	case isIdentStart(c):
		word := r.word()
		switch word {
		case "nil":
			return nil, nil
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, r.errorf("unexpected identifier %q", word)
	}
	return nil, r.errorf("unexpected %q", string(c))
}

func (r *reader) word() string {
	start := r.pos
	for !r.eof() && !isDelimiter(r.peek()) {
		r.advance()
	}
	return r.src[start:r.pos]
}

func (r *reader) list() (any, error) {
	r.advance() // [
	items := List{}
	for {
		r.skipSpace()
		if r.eof() {
			return nil, r.errorf("unterminated list")
		}
		if r.peek() == ']' {
			r.advance()
			return items, nil
		}
		v, err := r.value()
		if err != nil {
			return nil, err
		}
		items = append(items, v)
		r.skipSpace()
		switch r.peek() {
		case ',':
			r.advance()
		case ']':
		default:
			if r.eof() {
				return nil, r.errorf("unterminated list")
			}
			return nil, r.errorf("expected ',' or ']', found %q", rune(r.peek()))
		}
	}
}

func (r *reader) symbol() (any, error) {
	r.advance() // :
	switch r.peek() {
	case '"':
		s, err := r.str()
		if err != nil {
			return nil, err
		}
		return Symbol(s.(string)), nil
	case '[':
		r.advance()
		if r.peek() != ']' {
			return nil, r.errorf("invalid symbol")
		}
		r.advance()
		if r.peek() == '=' {
			r.advance()
			return Symbol("[]="), nil
		}
		return Symbol("[]"), nil
	}
	name := r.word()
	if name == "" {
		return nil, r.errorf("empty symbol")
	}
	return Symbol(name), nil
}

func (r *reader) str() (any, error) {
	start := r.pos
	r.advance() // opening quote
	for {
		if r.eof() {
			return nil, r.errorf("unterminated string")
		}
		c := r.advance()
		if c == '\\' {
			if r.eof() {
				return nil, r.errorf("unterminated string")
			}
			r.advance()
			continue
		}
		if c == '"' {
			break
		}
	}
	s, err := strconv.Unquote(r.src[start:r.pos])
	if err != nil {
		return nil, r.errorf("invalid string literal: %v", err)
	}
	return s, nil
}

func (r *reader) number() (any, error) {
	line, col := r.line, r.col
	text := r.word()
	clean := strings.ReplaceAll(text, "_", "")
	if strings.ContainsAny(clean, ".eE") {
		f, err := strconv.ParseFloat(clean, 64)
		if err != nil {
			return nil, errors.SyntaxError(fmt.Sprintf("invalid number %q", text), line, col)
		}
		return f, nil
	}
	i, err := strconv.ParseInt(clean, 10, 64)
	if err != nil {
		return nil, errors.SyntaxError(fmt.Sprintf("invalid number %q", text), line, col)
	}
	return i, nil
}
