package compiler

import (
	"fmt"
	"math"

	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/op"
	"github.com/sapphire-lang/sapphire/sexp"
)

func (c *Compiler) compileLit(node *ast.Lit) error {
	switch node.Value.(type) {
	case int64, float64, sexp.Symbol:
	default:
		return malformed(node)
	}
	c.emit(op.PushLiteral, c.constant(node.Value))
	return nil
}

func (c *Compiler) compileLocalVar(node *ast.LocalVar) error {
	if node.Name == "" {
		return malformed(node)
	}
	c.emit(op.PushLocal, c.local(node.Name))
	return nil
}

func (c *Compiler) compileLocalAsgn(node *ast.LocalAsgn) error {
	if node.Name == "" || node.Value == nil {
		return malformed(node)
	}
	if err := c.compile(node.Value); err != nil {
		return err
	}
	c.emit(op.SetLocal, c.local(node.Name))
	return nil
}

// compileNamed emits a read of an instance variable, global or constant.
func (c *Compiler) compileNamed(node ast.Node, opcode op.Code, name string) error {
	if name == "" {
		return malformed(node)
	}
	c.emit(opcode, c.name(name))
	return nil
}

// compileNamedAsgn emits an instance variable or global assignment. The
// assigned value stays on the stack.
func (c *Compiler) compileNamedAsgn(node ast.Node, opcode op.Code, name string, value ast.Node) error {
	if name == "" || value == nil {
		return malformed(node)
	}
	if err := c.compile(value); err != nil {
		return err
	}
	c.emit(opcode, c.name(name))
	return nil
}

func (c *Compiler) compileColon2(node *ast.Colon2) error {
	if node.Scope == nil || node.Name == "" {
		return malformed(node)
	}
	if err := c.compile(node.Scope); err != nil {
		return err
	}
	c.emit(op.FindConst, c.name(node.Name))
	return nil
}

func (c *Compiler) compileCall(node *ast.Call) error {
	if node.Method == "" {
		return malformed(node)
	}
	if len(node.Args) > MaxArgs {
		return errors.MalformedNode("call",
			fmt.Sprintf("at most %d arguments (got %d)", MaxArgs, len(node.Args)),
			node.String())
	}
	return c.compileSend(node, node.Receiver, node.Method, node.Args)
}

func (c *Compiler) compileAttrAsgn(node *ast.AttrAsgn) error {
	if !ast.IsSetter(node.Method) {
		return malformed(node)
	}
	if len(node.Args) > MaxArgs {
		return errors.MalformedNode("attrasgn",
			fmt.Sprintf("at most %d arguments (got %d)", MaxArgs, len(node.Args)),
			node.String())
	}
	return c.compileSend(node, node.Receiver, node.Method, node.Args)
}

// compileSend pushes the receiver and arguments and sends the message. A
// nil receiver sends to self and may reach private methods.
func (c *Compiler) compileSend(node, receiver ast.Node, method string, args []ast.Node) error {
	private := receiver == nil
	if private {
		c.emit(op.PushSelf)
	} else if err := c.compile(receiver); err != nil {
		return err
	}
	if err := c.compileAll(node, args); err != nil {
		return err
	}
	c.emitSend(method, len(args), private)
	return nil
}

func (c *Compiler) compileArray(node *ast.Array) error {
	if len(node.Elems) > math.MaxUint16 {
		return errors.OperandOverflow("array literal has too many elements")
	}
	if err := c.compileAll(node, node.Elems); err != nil {
		return err
	}
	c.emit(op.MakeArray, uint16(len(node.Elems)))
	return nil
}

func (c *Compiler) compileHash(node *ast.Hash) error {
	if len(node.Pairs)%2 != 0 {
		return malformed(node)
	}
	if len(node.Pairs)/2 > math.MaxUint16 {
		return errors.OperandOverflow("hash literal has too many pairs")
	}
	if err := c.compileAll(node, node.Pairs); err != nil {
		return err
	}
	c.emit(op.MakeHash, uint16(len(node.Pairs)/2))
	return nil
}

func (c *Compiler) compileBlock(node *ast.Block) error {
	if len(node.Stmts) == 0 {
		c.emit(op.PushNil)
		return nil
	}
	last := len(node.Stmts) - 1
	for i, stmt := range node.Stmts {
		if stmt == nil {
			return malformed(node)
		}
		if err := c.compile(stmt); err != nil {
			return err
		}
		if i < last {
			c.emit(op.Pop)
		}
	}
	return nil
}

func (c *Compiler) compileIf(node *ast.If) error {
	if node.Cond == nil {
		return malformed(node)
	}
	if err := c.compile(node.Cond); err != nil {
		return err
	}
	elseLabel := c.newLabel()
	done := c.newLabel()
	c.emitJump(op.GotoIfFalse, elseLabel)
	if err := c.compileOptional(node.Then); err != nil {
		return err
	}
	c.emitJump(op.Goto, done)
	c.setLabel(elseLabel)
	if err := c.compileOptional(node.Else); err != nil {
		return err
	}
	c.setLabel(done)
	return nil
}
