package compiler

import (
	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/op"
)

func (c *Compiler) compileOr(node *ast.Or) error {
	return c.compileShortCircuit(node, node.Left, node.Right, op.GotoIfTrue)
}

func (c *Compiler) compileAnd(node *ast.And) error {
	return c.compileShortCircuit(node, node.Left, node.Right, op.GotoIfFalse)
}

// compileShortCircuit evaluates left and keeps it as the result when branch
// is taken. Otherwise the copy is dropped and right becomes the result.
//
//	left; DUP; branch skip; POP; right; skip:
func (c *Compiler) compileShortCircuit(node, left, right ast.Node, branch op.Code) error {
	if left == nil || right == nil {
		return malformed(node)
	}
	if err := c.compile(left); err != nil {
		return err
	}
	skip := c.newLabel()
	c.emit(op.Dup)
	c.emitJump(branch, skip)
	c.emit(op.Pop)
	if err := c.compile(right); err != nil {
		return err
	}
	c.setLabel(skip)
	return nil
}
