package ast

// Visitor defines the interface for AST traversal. If Visit returns nil,
// children of the node are not visited. Otherwise, the returned Visitor
// is used to visit children.
type Visitor interface {
	Visit(node Node) (w Visitor)
}

// Children returns the non-nil child nodes of node in evaluation order.
func Children(node Node) []Node {
	var out []Node
	add := func(nodes ...Node) {
		for _, n := range nodes {
			if n != nil {
				out = append(out, n)
			}
		}
	}
	switch n := node.(type) {
	case *LocalAsgn:
		add(n.Value)
	case *InstanceAsgn:
		add(n.Value)
	case *GlobalAsgn:
		add(n.Value)
	case *Colon2:
		add(n.Scope)
	case *Call:
		add(n.Receiver)
		add(n.Args...)
	case *AttrAsgn:
		add(n.Receiver)
		add(n.Args...)
	case *Array:
		add(n.Elems...)
	case *Hash:
		add(n.Pairs...)
	case *Block:
		add(n.Stmts...)
	case *If:
		add(n.Cond, n.Then, n.Else)
	case *Or:
		add(n.Left, n.Right)
	case *And:
		add(n.Left, n.Right)
	case *OpAsgn1:
		add(n.Receiver)
		add(n.Args...)
		add(n.Value)
	case *OpAsgn2:
		add(n.Receiver, n.Value)
	case *OpAsgnAnd:
		add(n.Read, n.Write)
	case *OpAsgnOr:
		add(n.Read, n.Write)
	case *Rescue:
		add(n.Body)
		for _, c := range n.Clauses {
			if c != nil {
				out = append(out, c)
			}
		}
		add(n.Else)
	case *ResBody:
		add(n.Classes...)
		add(n.Capture, n.Body)
	case *Ensure:
		add(n.Body, n.Ensure)
	}
	return out
}

// Walk traverses an AST in depth-first order. It starts by calling
// v.Visit(node); if the returned visitor w is not nil, Walk is invoked
// recursively with visitor w for each of the non-nil children of node.
func Walk(v Visitor, node Node) {
	if v = v.Visit(node); v == nil {
		return
	}
	for _, child := range Children(node) {
		Walk(v, child)
	}
}

type inspector func(Node) bool

func (f inspector) Visit(node Node) Visitor {
	if f(node) {
		return f
	}
	return nil
}

// Inspect traverses an AST in depth-first order, calling f for each node.
// If f returns false, the node's children are skipped.
func Inspect(node Node, f func(Node) bool) {
	Walk(inspector(f), node)
}

// Count returns the number of nodes in the tree rooted at node.
func Count(node Node) int {
	if node == nil {
		return 0
	}
	count := 0
	Inspect(node, func(Node) bool {
		count++
		return true
	})
	return count
}
