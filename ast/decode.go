package ast

import (
	"reflect"
	"strings"

	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/sexp"
)

// Shapes describes, for error messages, the children each kind requires.
var Shapes = map[Kind]string{
	KindNil:       "[:nil]",
	KindTrue:      "[:true]",
	KindFalse:     "[:false]",
	KindSelf:      "[:self]",
	KindLit:       "[:lit, integer|float|symbol]",
	KindStr:       "[:str, string]",
	KindLvar:      "[:lvar, name]",
	KindLasgn:     "[:lasgn, name, value]",
	KindIvar:      "[:ivar, name]",
	KindIasgn:     "[:iasgn, name, value]",
	KindGvar:      "[:gvar, name]",
	KindGasgn:     "[:gasgn, name, value]",
	KindConst:     "[:const, name]",
	KindColon2:    "[:colon2, scope, name]",
	KindCall:      "[:call, receiver|nil, name, [:arglist, ...]]",
	KindAttrAsgn:  "[:attrasgn, receiver, name=, [:arglist, ...]]",
	KindArglist:   "[:arglist, ...] inside a call",
	KindArray:     "[:array, ...]",
	KindHash:      "[:hash, key, value, ...]",
	KindBlock:     "[:block, ...]",
	KindIf:        "[:if, cond, then|nil, else|nil]",
	KindOr:        "[:or, left, right]",
	KindAnd:       "[:and, left, right]",
	KindOpAsgn1:   "[:op_asgn1, receiver, [:arglist, ...], operator, value]",
	KindOpAsgn2:   "[:op_asgn2, receiver, name=, operator, value]",
	KindOpAsgnAnd: "[:op_asgn_and, read, write of the same lvar|ivar|gvar|attribute]",
	KindOpAsgnOr:  "[:op_asgn_or, read, write of the same lvar|ivar|gvar|attribute]",
	KindRescue:    "[:rescue, body?, [:resbody, ...]+, else?]",
	KindResBody:   "[:resbody, [:array, class..., capture?], body|nil] inside a rescue",
	KindEnsure:    "[:ensure, body, ensure|nil]",
}

// Decode converts an s-expression value into a typed node, validating the
// shape of every node in the tree.
func Decode(v any) (Node, error) {
	return decodeRequired(v)
}

// Parse reads s-expression source and decodes it.
func Parse(src string) (Node, error) {
	v, err := sexp.Parse(src)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}

func malformed(kind Kind, v any) error {
	return errors.MalformedNode(kind.String(), Shapes[kind], sexp.Format(v))
}

func decodeRequired(v any) (Node, error) {
	list, ok := v.(sexp.List)
	if !ok {
		return nil, errors.MalformedNode("node", "a tagged list such as [:nil]", sexp.Format(v))
	}
	tag, ok := list.Tag()
	if !ok {
		return nil, errors.MalformedNode("node", "a tagged list such as [:nil]", sexp.Format(v))
	}
	kind, ok := KindOf(string(tag))
	if !ok {
		return nil, errors.UnsupportedNodeKind(string(tag), sexp.Format(v))
	}
	switch kind {
	case KindArglist, KindResBody:
		return nil, malformed(kind, v)
	case KindRescue:
		return decodeRescue(list)
	}
	return decodeList(kind, list)
}

func decodeOptional(v any) (Node, error) {
	if v == nil {
		return nil, nil
	}
	return decodeRequired(v)
}

func decodeAll(items []any) ([]Node, error) {
	nodes := make([]Node, 0, len(items))
	for _, item := range items {
		n, err := decodeRequired(item)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func symbolAt(list sexp.List, i int) (string, bool) {
	s, ok := list[i].(sexp.Symbol)
	return string(s), ok && s != ""
}

func decodeArglist(v any) ([]Node, bool, error) {
	list, ok := v.(sexp.List)
	if !ok {
		return nil, false, nil
	}
	if tag, ok := list.Tag(); !ok || tag != "arglist" {
		return nil, false, nil
	}
	args, err := decodeAll(list[1:])
	return args, true, err
}

// IsSetter reports whether name is an attribute or element writer such as
// "var=" or "[]=".
func IsSetter(name string) bool {
	return len(name) > 1 && strings.HasSuffix(name, "=") && name != "==" && name != "===" && name != "!="
}

func decodeList(kind Kind, list sexp.List) (Node, error) {
	n := len(list)
	bad := func() (Node, error) { return nil, malformed(kind, list) }

	switch kind {
	case KindNil, KindTrue, KindFalse, KindSelf:
		if n != 1 {
			return bad()
		}
		switch kind {
		case KindNil:
			return &Nil{}, nil
		case KindTrue:
			return &True{}, nil
		case KindFalse:
			return &False{}, nil
		}
		return &Self{}, nil

	case KindLit:
		if n != 2 {
			return bad()
		}
		switch list[1].(type) {
		case int64, float64, sexp.Symbol:
			return &Lit{Value: list[1]}, nil
		}
		return bad()

	case KindStr:
		if n != 2 {
			return bad()
		}
		s, ok := list[1].(string)
		if !ok {
			return bad()
		}
		return &Str{Value: s}, nil

	case KindLvar, KindIvar, KindGvar, KindConst:
		if n != 2 {
			return bad()
		}
		name, ok := symbolAt(list, 1)
		if !ok {
			return bad()
		}
		switch kind {
		case KindLvar:
			return &LocalVar{Name: name}, nil
		case KindIvar:
			return &InstanceVar{Name: name}, nil
		case KindGvar:
			return &GlobalVar{Name: name}, nil
		}
		return &Const{Name: name}, nil

	case KindLasgn, KindIasgn, KindGasgn:
		if n != 3 {
			return bad()
		}
		name, ok := symbolAt(list, 1)
		if !ok {
			return bad()
		}
		value, err := decodeRequired(list[2])
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindLasgn:
			return &LocalAsgn{Name: name, Value: value}, nil
		case KindIasgn:
			return &InstanceAsgn{Name: name, Value: value}, nil
		}
		return &GlobalAsgn{Name: name, Value: value}, nil

	case KindColon2:
		if n != 3 {
			return bad()
		}
		name, ok := symbolAt(list, 2)
		if !ok {
			return bad()
		}
		scope, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		return &Colon2{Scope: scope, Name: name}, nil

	case KindCall, KindAttrAsgn:
		if n != 4 {
			return bad()
		}
		name, ok := symbolAt(list, 2)
		if !ok || (kind == KindAttrAsgn && !IsSetter(name)) {
			return bad()
		}
		var recv Node
		var err error
		if kind == KindCall {
			recv, err = decodeOptional(list[1])
		} else {
			recv, err = decodeRequired(list[1])
		}
		if err != nil {
			return nil, err
		}
		args, ok, err := decodeArglist(list[3])
		if !ok {
			return bad()
		}
		if err != nil {
			return nil, err
		}
		if kind == KindCall {
			return &Call{Receiver: recv, Method: name, Args: args}, nil
		}
		return &AttrAsgn{Receiver: recv, Method: name, Args: args}, nil

	case KindArray, KindHash, KindBlock:
		if kind == KindHash && (n-1)%2 != 0 {
			return bad()
		}
		items, err := decodeAll(list[1:])
		if err != nil {
			return nil, err
		}
		switch kind {
		case KindArray:
			return &Array{Elems: items}, nil
		case KindHash:
			return &Hash{Pairs: items}, nil
		}
		return &Block{Stmts: items}, nil

	case KindIf:
		if n != 4 {
			return bad()
		}
		cond, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		then, err := decodeOptional(list[2])
		if err != nil {
			return nil, err
		}
		els, err := decodeOptional(list[3])
		if err != nil {
			return nil, err
		}
		return &If{Cond: cond, Then: then, Else: els}, nil

	case KindOr, KindAnd:
		if n != 3 {
			return bad()
		}
		left, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		right, err := decodeRequired(list[2])
		if err != nil {
			return nil, err
		}
		if kind == KindOr {
			return &Or{Left: left, Right: right}, nil
		}
		return &And{Left: left, Right: right}, nil

	case KindOpAsgn1:
		if n != 5 {
			return bad()
		}
		operator, ok := symbolAt(list, 3)
		if !ok {
			return bad()
		}
		recv, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		args, ok, err := decodeArglist(list[2])
		if !ok {
			return bad()
		}
		if err != nil {
			return nil, err
		}
		value, err := decodeRequired(list[4])
		if err != nil {
			return nil, err
		}
		return &OpAsgn1{Receiver: recv, Args: args, Op: operator, Value: value}, nil

	case KindOpAsgn2:
		if n != 5 {
			return bad()
		}
		setter, ok := symbolAt(list, 2)
		if !ok || !IsSetter(setter) {
			return bad()
		}
		operator, ok := symbolAt(list, 3)
		if !ok {
			return bad()
		}
		recv, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		value, err := decodeRequired(list[4])
		if err != nil {
			return nil, err
		}
		return &OpAsgn2{Receiver: recv, Setter: setter, Op: operator, Value: value}, nil

	case KindOpAsgnAnd, KindOpAsgnOr:
		if n != 3 {
			return bad()
		}
		read, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		write, err := decodeRequired(list[2])
		if err != nil {
			return nil, err
		}
		if !AsgnTargetsMatch(read, write) {
			return bad()
		}
		if kind == KindOpAsgnAnd {
			return &OpAsgnAnd{Read: read, Write: write}, nil
		}
		return &OpAsgnOr{Read: read, Write: write}, nil

	case KindEnsure:
		if n != 3 {
			return bad()
		}
		body, err := decodeRequired(list[1])
		if err != nil {
			return nil, err
		}
		ensure, err := decodeOptional(list[2])
		if err != nil {
			return nil, err
		}
		return &Ensure{Body: body, Ensure: ensure}, nil
	}
	return nil, errors.UnsupportedNodeKind(kind.String(), sexp.Format(list))
}

// AsgnTargetsMatch reports whether write assigns the target read reads:
// the same variable, or the writer of the same attribute on a structurally
// equal receiver with the new value as its only argument. This is the
// pairing op_asgn_and and op_asgn_or require.
func AsgnTargetsMatch(read, write Node) bool {
	switch r := read.(type) {
	case *LocalVar:
		w, ok := write.(*LocalAsgn)
		return ok && w.Name == r.Name
	case *InstanceVar:
		w, ok := write.(*InstanceAsgn)
		return ok && w.Name == r.Name
	case *GlobalVar:
		w, ok := write.(*GlobalAsgn)
		return ok && w.Name == r.Name
	case *Call:
		if len(r.Args) != 0 {
			return false
		}
		recv, setter, args, ok := AttrWriter(write)
		return ok && setter == r.Method+"=" && len(args) == 1 &&
			reflect.DeepEqual(Encode(r.Receiver), Encode(recv))
	}
	return false
}

// AttrWriter returns the parts of an attribute write, which arrives either
// as attrasgn or as a call to a setter.
func AttrWriter(n Node) (receiver Node, setter string, args []Node, ok bool) {
	switch w := n.(type) {
	case *AttrAsgn:
		return w.Receiver, w.Method, w.Args, true
	case *Call:
		if IsSetter(w.Method) {
			return w.Receiver, w.Method, w.Args, true
		}
	}
	return nil, "", nil, false
}

func isTagged(v any, tag string) bool {
	list, ok := v.(sexp.List)
	if !ok {
		return false
	}
	t, ok := list.Tag()
	return ok && string(t) == tag
}

func decodeRescue(list sexp.List) (Node, error) {
	items := list[1:]
	node := &Rescue{}
	i := 0
	if i < len(items) && !isTagged(items[i], "resbody") {
		body, err := decodeOptional(items[i])
		if err != nil {
			return nil, err
		}
		node.Body = body
		i++
	}
	for i < len(items) && isTagged(items[i], "resbody") {
		clause, err := decodeResBody(items[i].(sexp.List))
		if err != nil {
			return nil, err
		}
		node.Clauses = append(node.Clauses, clause)
		i++
	}
	if len(node.Clauses) == 0 {
		return nil, malformed(KindRescue, list)
	}
	if i < len(items) {
		els, err := decodeOptional(items[i])
		if err != nil {
			return nil, err
		}
		node.Else = els
		i++
	}
	if i != len(items) {
		return nil, malformed(KindRescue, list)
	}
	return node, nil
}

func decodeResBody(list sexp.List) (*ResBody, error) {
	if len(list) != 3 || !isTagged(list[1], "array") {
		return nil, malformed(KindResBody, list)
	}
	classes := list[1].(sexp.List)[1:]
	clause := &ResBody{}
	if len(classes) > 0 {
		last := classes[len(classes)-1]
		if isTagged(last, "lasgn") || isTagged(last, "iasgn") || isTagged(last, "gasgn") {
			capture, err := decodeRequired(last)
			if err != nil {
				return nil, err
			}
			clause.Capture = capture
			classes = classes[:len(classes)-1]
		}
	}
	nodes, err := decodeAll(classes)
	if err != nil {
		return nil, err
	}
	clause.Classes = nodes
	body, err := decodeOptional(list[2])
	if err != nil {
		return nil, err
	}
	clause.Body = body
	return clause, nil
}
