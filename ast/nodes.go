package ast

import "github.com/sapphire-lang/sapphire/sexp"

// Nil is the literal nil.
type Nil struct{}

func (x *Nil) Kind() Kind     { return KindNil }
func (x *Nil) String() string { return format(x) }

// True is the literal true.
type True struct{}

func (x *True) Kind() Kind     { return KindTrue }
func (x *True) String() string { return format(x) }

// False is the literal false.
type False struct{}

func (x *False) Kind() Kind     { return KindFalse }
func (x *False) String() string { return format(x) }

// Self is the current receiver.
type Self struct{}

func (x *Self) Kind() Kind     { return KindSelf }
func (x *Self) String() string { return format(x) }

// Lit is a numeric or symbol literal. Value is an int64, float64 or
// sexp.Symbol.
type Lit struct {
	Value any
}

func (x *Lit) Kind() Kind     { return KindLit }
func (x *Lit) String() string { return format(x) }

// Str is a string literal.
type Str struct {
	Value string
}

func (x *Str) Kind() Kind     { return KindStr }
func (x *Str) String() string { return format(x) }

// LocalVar reads a local variable.
type LocalVar struct {
	Name string
}

func (x *LocalVar) Kind() Kind     { return KindLvar }
func (x *LocalVar) String() string { return format(x) }

// LocalAsgn assigns a local variable and evaluates to the assigned value.
type LocalAsgn struct {
	Name  string
	Value Node
}

func (x *LocalAsgn) Kind() Kind     { return KindLasgn }
func (x *LocalAsgn) String() string { return format(x) }

// InstanceVar reads an instance variable such as @b.
type InstanceVar struct {
	Name string
}

func (x *InstanceVar) Kind() Kind     { return KindIvar }
func (x *InstanceVar) String() string { return format(x) }

// InstanceAsgn assigns an instance variable.
type InstanceAsgn struct {
	Name  string
	Value Node
}

func (x *InstanceAsgn) Kind() Kind     { return KindIasgn }
func (x *InstanceAsgn) String() string { return format(x) }

// GlobalVar reads a global variable. The global $! denotes the exception
// currently being handled.
type GlobalVar struct {
	Name string
}

func (x *GlobalVar) Kind() Kind     { return KindGvar }
func (x *GlobalVar) String() string { return format(x) }

// IsException reports whether the node reads $!.
func (x *GlobalVar) IsException() bool { return x.Name == ExceptionVar }

// GlobalAsgn assigns a global variable.
type GlobalAsgn struct {
	Name  string
	Value Node
}

func (x *GlobalAsgn) Kind() Kind     { return KindGasgn }
func (x *GlobalAsgn) String() string { return format(x) }

// Const reads a constant from the lexical scope.
type Const struct {
	Name string
}

func (x *Const) Kind() Kind     { return KindConst }
func (x *Const) String() string { return format(x) }

// Colon2 reads a constant scoped under another expression, as in A::B.
type Colon2 struct {
	Scope Node
	Name  string
}

func (x *Colon2) Kind() Kind     { return KindColon2 }
func (x *Colon2) String() string { return format(x) }

// Call sends a message. A nil Receiver means an implicit self, which also
// allows private methods to be called.
type Call struct {
	Receiver Node
	Method   string
	Args     []Node
}

func (x *Call) Kind() Kind     { return KindCall }
func (x *Call) String() string { return format(x) }

// AttrAsgn calls an attribute or element writer such as x.y = 1.
type AttrAsgn struct {
	Receiver Node
	Method   string
	Args     []Node
}

func (x *AttrAsgn) Kind() Kind     { return KindAttrAsgn }
func (x *AttrAsgn) String() string { return format(x) }

// Array builds an array from its elements.
type Array struct {
	Elems []Node
}

func (x *Array) Kind() Kind     { return KindArray }
func (x *Array) String() string { return format(x) }

// Hash builds a hash from alternating keys and values.
type Hash struct {
	Pairs []Node
}

func (x *Hash) Kind() Kind     { return KindHash }
func (x *Hash) String() string { return format(x) }

// Block is a sequence of expressions evaluating to the last one.
type Block struct {
	Stmts []Node
}

func (x *Block) Kind() Kind     { return KindBlock }
func (x *Block) String() string { return format(x) }

// If is a conditional. Then and Else may be nil.
type If struct {
	Cond Node
	Then Node
	Else Node
}

func (x *If) Kind() Kind     { return KindIf }
func (x *If) String() string { return format(x) }

// Or is the short-circuit "or" / "||" operator.
type Or struct {
	Left  Node
	Right Node
}

func (x *Or) Kind() Kind     { return KindOr }
func (x *Or) String() string { return format(x) }

// And is the short-circuit "and" / "&&" operator.
type And struct {
	Left  Node
	Right Node
}

func (x *And) Kind() Kind     { return KindAnd }
func (x *And) String() string { return format(x) }

// OpAsgn1 is a compound assignment to an element: recv[args] op= value.
type OpAsgn1 struct {
	Receiver Node
	Args     []Node
	Op       string
	Value    Node
}

func (x *OpAsgn1) Kind() Kind     { return KindOpAsgn1 }
func (x *OpAsgn1) String() string { return format(x) }

// OpAsgn2 is a compound assignment to an attribute: recv.attr op= value.
// Setter is the writer name, e.g. "var="; the reader drops the "=".
type OpAsgn2 struct {
	Receiver Node
	Setter   string
	Op       string
	Value    Node
}

func (x *OpAsgn2) Kind() Kind     { return KindOpAsgn2 }
func (x *OpAsgn2) String() string { return format(x) }

// Getter returns the attribute reader name.
func (x *OpAsgn2) Getter() string {
	return x.Setter[:len(x.Setter)-1]
}

// OpAsgnAnd is target &&= value. Read is the target read; Write is the full
// assignment node evaluated only when Read is truthy.
type OpAsgnAnd struct {
	Read  Node
	Write Node
}

func (x *OpAsgnAnd) Kind() Kind     { return KindOpAsgnAnd }
func (x *OpAsgnAnd) String() string { return format(x) }

// OpAsgnOr is target ||= value. Write is evaluated only when Read is falsy.
type OpAsgnOr struct {
	Read  Node
	Write Node
}

func (x *OpAsgnOr) Kind() Kind     { return KindOpAsgnOr }
func (x *OpAsgnOr) String() string { return format(x) }

// Rescue protects Body with an ordered list of handler clauses. Else, when
// present, runs only if Body completes without raising. Body may be nil.
type Rescue struct {
	Body    Node
	Clauses []*ResBody
	Else    Node
}

func (x *Rescue) Kind() Kind     { return KindRescue }
func (x *Rescue) String() string { return format(x) }

// ResBody is one rescue clause. An empty Classes list matches StandardError.
// Capture, when present, is the assignment that stores the exception. Body
// may be nil.
type ResBody struct {
	Classes []Node
	Capture Node
	Body    Node
}

func (x *ResBody) Kind() Kind     { return KindResBody }
func (x *ResBody) String() string { return format(x) }

// Ensure runs Ensure on every exit from Body, discarding its value.
type Ensure struct {
	Body   Node
	Ensure Node
}

func (x *Ensure) Kind() Kind     { return KindEnsure }
func (x *Ensure) String() string { return format(x) }

func format(n Node) string {
	return sexp.Format(Encode(n))
}
