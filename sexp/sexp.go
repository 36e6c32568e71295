// Package sexp reads and prints the s-expression notation used to write
// Sapphire ASTs by hand:
//
//	[:or, [:call, nil, :a, [:arglist]], [:call, nil, :b, [:arglist]]]
//
// A value is one of List, Symbol, int64, float64, string, bool, or nil.
package sexp

import (
	"fmt"
	"strconv"
	"strings"
)

// Symbol is an interned name such as :a, :"||" or :[]=.
type Symbol string

// List is a bracketed sequence of values.
type List []any

// Tag returns the list's leading symbol, if any.
func (l List) Tag() (Symbol, bool) {
	if len(l) == 0 {
		return "", false
	}
	s, ok := l[0].(Symbol)
	return s, ok
}

var operatorSymbols = map[string]bool{
	"[]": true, "[]=": true, "+": true, "-": true, "*": true, "/": true,
	"%": true, "**": true, "==": true, "===": true, "!=": true, "<": true,
	">": true, "<=": true, ">=": true, "<=>": true, "<<": true, ">>": true,
	"!": true, "=~": true, "&": true, "|": true, "^": true, "~": true,
	"+@": true, "-@": true,
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// bare reports whether a symbol prints without quotes.
func bare(name string) bool {
	if operatorSymbols[name] {
		return true
	}
	if name == "$!" {
		return true
	}
	s := name
	switch {
	case strings.HasPrefix(s, "@@"):
		s = s[2:]
	case strings.HasPrefix(s, "@"), strings.HasPrefix(s, "$"):
		s = s[1:]
	}
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if isIdentChar(s[i]) {
			continue
		}
		if i == len(s)-1 && (s[i] == '?' || s[i] == '!' || s[i] == '=') {
			continue
		}
		return false
	}
	return true
}

// String returns the symbol in source form, e.g. :a or :"||".
func (s Symbol) String() string {
	if bare(string(s)) {
		return ":" + string(s)
	}
	return ":" + strconv.Quote(string(s))
}

// Format renders a value in s-expression notation.
func Format(v any) string {
	var b strings.Builder
	write(&b, v)
	return b.String()
}

func write(b *strings.Builder, v any) {
	switch v := v.(type) {
	case nil:
		b.WriteString("nil")
	case List:
		b.WriteString("[")
		for i, item := range v {
			if i > 0 {
				b.WriteString(", ")
			}
			write(b, item)
		}
		b.WriteString("]")
	case Symbol:
		b.WriteString(v.String())
	case string:
		b.WriteString(strconv.Quote(v))
	case int64:
		b.WriteString(strconv.FormatInt(v, 10))
	case float64:
		s := strconv.FormatFloat(v, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEn") {
			s += ".0"
		}
		b.WriteString(s)
	case bool:
		b.WriteString(strconv.FormatBool(v))
	default:
		fmt.Fprintf(b, "%v", v)
	}
}
