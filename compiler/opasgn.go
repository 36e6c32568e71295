package compiler

import (
	"fmt"

	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/op"
)

const (
	elementReader = "[]"
	elementWriter = "[]="
)

// logicalBranch returns the branch that skips the write for a logical
// compound operator: ||= keeps a truthy value and &&= keeps a falsy one.
func logicalBranch(operator string) (op.Code, bool) {
	switch operator {
	case "||":
		return op.GotoIfTrue, true
	case "&&":
		return op.GotoIfFalse, true
	}
	return op.Invalid, false
}

// compileOpAsgn1 compiles recv[args] op= value. The receiver and the
// element read are emitted once. The index is pushed again for the write.
//
// Logical operators:
//
//	recv; DUP; args; SEND [] n; DUP; branch keep; POP;
//	args; value; SEND []= n+1; GOTO done; keep: SWAP; POP; done:
//
// Other operators always write:
//
//	recv; DUP; args; SEND [] n; value; SEND op 1; args;
//	SWAP | ROTATE n+1; SEND []= n+1
func (c *Compiler) compileOpAsgn1(node *ast.OpAsgn1) error {
	if node.Receiver == nil || node.Value == nil || node.Op == "" {
		return malformed(node)
	}
	argc := len(node.Args)
	if argc+1 > MaxArgs {
		return errors.MalformedNode("op_asgn1",
			fmt.Sprintf("at most %d index arguments (got %d)", MaxArgs-1, argc),
			node.String())
	}
	if err := c.compile(node.Receiver); err != nil {
		return err
	}
	c.emit(op.Dup)
	if err := c.compileAll(node, node.Args); err != nil {
		return err
	}
	c.emitSend(elementReader, argc, false)

	if branch, ok := logicalBranch(node.Op); ok {
		return c.compileConditionalWrite(branch, func() error {
			if err := c.compileAll(node, node.Args); err != nil {
				return err
			}
			if err := c.compile(node.Value); err != nil {
				return err
			}
			c.emitSend(elementWriter, argc+1, false)
			return nil
		})
	}

	if err := c.compile(node.Value); err != nil {
		return err
	}
	c.emitSend(node.Op, 1, false)
	if err := c.compileAll(node, node.Args); err != nil {
		return err
	}
	// The writer takes the index arguments first and the value last.
	switch {
	case argc == 1:
		c.emit(op.Swap)
	case argc > 1:
		c.emit(op.Rotate, uint16(argc+1))
	}
	c.emitSend(elementWriter, argc+1, false)
	return nil
}

// compileOpAsgn2 compiles recv.attr op= value using the attribute's reader
// and writer.
//
//	recv; DUP; SEND attr 0; DUP; branch keep; POP;
//	value; SEND attr= 1; GOTO done; keep: SWAP; POP; done:
//
// or, for other operators, recv; DUP; SEND attr 0; value; SEND op 1; SEND attr= 1.
func (c *Compiler) compileOpAsgn2(node *ast.OpAsgn2) error {
	if node.Receiver == nil || node.Value == nil || node.Op == "" || !ast.IsSetter(node.Setter) {
		return malformed(node)
	}
	if branch, ok := logicalBranch(node.Op); ok {
		return c.compileAttrLogical(node.Receiver, node.Setter, node.Value, branch)
	}
	if _, err := c.compileAttrRead(node.Receiver, node.Getter()); err != nil {
		return err
	}
	if err := c.compile(node.Value); err != nil {
		return err
	}
	c.emitSend(node.Op, 1, false)
	c.emitSend(node.Setter, 1, false)
	return nil
}

// compileAttrRead pushes the receiver, keeps a copy for the write and reads
// the attribute. A nil receiver is self and the sends are private.
func (c *Compiler) compileAttrRead(receiver ast.Node, getter string) (bool, error) {
	private := receiver == nil
	if private {
		c.emit(op.PushSelf)
	} else if err := c.compile(receiver); err != nil {
		return false, err
	}
	c.emit(op.Dup)
	c.emitSend(getter, 0, private)
	return private, nil
}

// compileAttrLogical compiles a logical compound assignment to an
// attribute, evaluating the receiver once.
func (c *Compiler) compileAttrLogical(receiver ast.Node, setter string, value ast.Node, branch op.Code) error {
	private, err := c.compileAttrRead(receiver, setter[:len(setter)-1])
	if err != nil {
		return err
	}
	return c.compileConditionalWrite(branch, func() error {
		if err := c.compile(value); err != nil {
			return err
		}
		c.emitSend(setter, 1, private)
		return nil
	})
}

// compileConditionalWrite finishes a logical element or attribute compound
// assignment. On entry the stack holds the receiver and the current value.
// Either path leaves a single value: the write's result, or the current
// value with the receiver dropped from beneath it.
func (c *Compiler) compileConditionalWrite(branch op.Code, write func() error) error {
	keep := c.newLabel()
	done := c.newLabel()
	c.emit(op.Dup)
	c.emitJump(branch, keep)
	c.emit(op.Pop)
	if err := write(); err != nil {
		return err
	}
	c.emitJump(op.Goto, done)
	c.setLabel(keep)
	c.emit(op.Swap)
	c.emit(op.Pop)
	c.setLabel(done)
	return nil
}

func (c *Compiler) compileOpAsgnOr(node *ast.OpAsgnOr) error {
	return c.compileOpAsgnLogical(node, node.Read, node.Write, op.GotoIfTrue)
}

func (c *Compiler) compileOpAsgnAnd(node *ast.OpAsgnAnd) error {
	return c.compileOpAsgnLogical(node, node.Read, node.Write, op.GotoIfFalse)
}

// compileOpAsgnLogical compiles target ||= value and target &&= value.
// For a variable the skip label is the single exit:
//
//	read; DUP; branch skip; POP; write; skip:
//
// An attribute target takes the op_asgn2 shape so its receiver is
// evaluated once.
func (c *Compiler) compileOpAsgnLogical(node, read, write ast.Node, branch op.Code) error {
	if !ast.AsgnTargetsMatch(read, write) {
		return malformed(node)
	}
	if call, ok := read.(*ast.Call); ok {
		_, setter, args, _ := ast.AttrWriter(write)
		if args[0] == nil {
			return malformed(node)
		}
		return c.compileAttrLogical(call.Receiver, setter, args[0], branch)
	}
	if err := c.compile(read); err != nil {
		return err
	}
	skip := c.newLabel()
	c.emit(op.Dup)
	c.emitJump(branch, skip)
	c.emit(op.Pop)
	if err := c.compile(write); err != nil {
		return err
	}
	c.setLabel(skip)
	return nil
}
