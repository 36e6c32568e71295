// Package ast defines the abstract syntax tree consumed by the Sapphire
// compiler.
//
// Every node kind is a concrete struct implementing Node. The set of kinds is
// closed: Kind enumerates them, and the compiler dispatches with a type
// switch over the concrete types. Nodes are immutable once built.
//
// Trees are usually produced by Decode from the s-expression notation in
// package sexp, which also validates each node's shape.
package ast

// Node represents a portion of the syntax tree.
type Node interface {
	// Kind returns the node's kind tag.
	Kind() Kind

	// String returns the node in s-expression notation.
	String() string
}

// Kind identifies the variant of a Node.
type Kind int

const (
	KindInvalid Kind = iota
	KindNil
	KindTrue
	KindFalse
	KindSelf
	KindLit
	KindStr
	KindLvar
	KindLasgn
	KindIvar
	KindIasgn
	KindGvar
	KindGasgn
	KindConst
	KindColon2
	KindCall
	KindAttrAsgn
	KindArglist
	KindArray
	KindHash
	KindBlock
	KindIf
	KindOr
	KindAnd
	KindOpAsgn1
	KindOpAsgn2
	KindOpAsgnAnd
	KindOpAsgnOr
	KindRescue
	KindResBody
	KindEnsure
)

var kindNames = [...]string{
	KindInvalid:   "invalid",
	KindNil:       "nil",
	KindTrue:      "true",
	KindFalse:     "false",
	KindSelf:      "self",
	KindLit:       "lit",
	KindStr:       "str",
	KindLvar:      "lvar",
	KindLasgn:     "lasgn",
	KindIvar:      "ivar",
	KindIasgn:     "iasgn",
	KindGvar:      "gvar",
	KindGasgn:     "gasgn",
	KindConst:     "const",
	KindColon2:    "colon2",
	KindCall:      "call",
	KindAttrAsgn:  "attrasgn",
	KindArglist:   "arglist",
	KindArray:     "array",
	KindHash:      "hash",
	KindBlock:     "block",
	KindIf:        "if",
	KindOr:        "or",
	KindAnd:       "and",
	KindOpAsgn1:   "op_asgn1",
	KindOpAsgn2:   "op_asgn2",
	KindOpAsgnAnd: "op_asgn_and",
	KindOpAsgnOr:  "op_asgn_or",
	KindRescue:    "rescue",
	KindResBody:   "resbody",
	KindEnsure:    "ensure",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, name := range kindNames {
		if Kind(k) != KindInvalid {
			m[name] = Kind(k)
		}
	}
	return m
}()

// String returns the kind's s-expression tag.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

// KindOf returns the Kind for an s-expression tag.
func KindOf(tag string) (Kind, bool) {
	k, ok := kindsByName[tag]
	return k, ok
}

// ExceptionVar is the global holding the exception being handled.
const ExceptionVar = "$!"
