package ast

import "github.com/sapphire-lang/sapphire/sexp"

// Encode converts a node to its s-expression value. A nil node encodes as
// nil.
func Encode(node Node) any {
	if node == nil {
		return nil
	}
	tag := sexp.Symbol(node.Kind().String())
	switch n := node.(type) {
	case *Nil, *True, *False, *Self:
		return sexp.List{tag}
	case *Lit:
		return sexp.List{tag, n.Value}
	case *Str:
		return sexp.List{tag, n.Value}
	case *LocalVar:
		return sexp.List{tag, sexp.Symbol(n.Name)}
	case *InstanceVar:
		return sexp.List{tag, sexp.Symbol(n.Name)}
	case *GlobalVar:
		return sexp.List{tag, sexp.Symbol(n.Name)}
	case *Const:
		return sexp.List{tag, sexp.Symbol(n.Name)}
	case *LocalAsgn:
		return sexp.List{tag, sexp.Symbol(n.Name), Encode(n.Value)}
	case *InstanceAsgn:
		return sexp.List{tag, sexp.Symbol(n.Name), Encode(n.Value)}
	case *GlobalAsgn:
		return sexp.List{tag, sexp.Symbol(n.Name), Encode(n.Value)}
	case *Colon2:
		return sexp.List{tag, Encode(n.Scope), sexp.Symbol(n.Name)}
	case *Call:
		return sexp.List{tag, Encode(n.Receiver), sexp.Symbol(n.Method), encodeArglist(n.Args)}
	case *AttrAsgn:
		return sexp.List{tag, Encode(n.Receiver), sexp.Symbol(n.Method), encodeArglist(n.Args)}
	case *Array:
		return append(sexp.List{tag}, encodeAll(n.Elems)...)
	case *Hash:
		return append(sexp.List{tag}, encodeAll(n.Pairs)...)
	case *Block:
		return append(sexp.List{tag}, encodeAll(n.Stmts)...)
	case *If:
		return sexp.List{tag, Encode(n.Cond), Encode(n.Then), Encode(n.Else)}
	case *Or:
		return sexp.List{tag, Encode(n.Left), Encode(n.Right)}
	case *And:
		return sexp.List{tag, Encode(n.Left), Encode(n.Right)}
	case *OpAsgn1:
		return sexp.List{tag, Encode(n.Receiver), encodeArglist(n.Args), sexp.Symbol(n.Op), Encode(n.Value)}
	case *OpAsgn2:
		return sexp.List{tag, Encode(n.Receiver), sexp.Symbol(n.Setter), sexp.Symbol(n.Op), Encode(n.Value)}
	case *OpAsgnAnd:
		return sexp.List{tag, Encode(n.Read), Encode(n.Write)}
	case *OpAsgnOr:
		return sexp.List{tag, Encode(n.Read), Encode(n.Write)}
	case *Rescue:
		out := sexp.List{tag}
		if n.Body != nil {
			out = append(out, Encode(n.Body))
		}
		for _, clause := range n.Clauses {
			out = append(out, Encode(clause))
		}
		if n.Else != nil {
			out = append(out, Encode(n.Else))
		}
		return out
	case *ResBody:
		classes := append(sexp.List{sexp.Symbol("array")}, encodeAll(n.Classes)...)
		if n.Capture != nil {
			classes = append(classes, Encode(n.Capture))
		}
		return sexp.List{tag, classes, Encode(n.Body)}
	case *Ensure:
		return sexp.List{tag, Encode(n.Body), Encode(n.Ensure)}
	}
	return sexp.List{tag}
}

func encodeAll(nodes []Node) sexp.List {
	out := make(sexp.List, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, Encode(n))
	}
	return out
}

func encodeArglist(args []Node) sexp.List {
	return append(sexp.List{sexp.Symbol("arglist")}, encodeAll(args)...)
}
