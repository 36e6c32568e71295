// Package compiler lowers a Sapphire AST into bytecode for the stack-based
// virtual machine.
//
// # Builder and Labels
//
// Each compilation owns one [Builder]. Rules append instructions through it
// and express control flow with [Label] values: a label is created before
// its target is known, jumps refer to it freely, and SetLabel binds it to
// the current end of the buffer. Finalize rewrites every jump operand with
// the bound offset. A label referenced but never set, or set twice, is an
// internal error rather than an input error.
//
// # Stack Discipline
//
// Every node compiled for its value leaves exactly one value on the operand
// stack, whichever branch runs. Statements in a block are popped between
// each other. The builder tracks the depth as it emits; [bytecode.Verify]
// proves it over the finalized stream when verification is enabled.
//
// # Rules
//
// Short-circuit operators and compound assignments duplicate the value they
// test so the skip path can leave it as the result:
//
//	a || b      a; DUP; GOTO_IF_TRUE skip; POP; b; skip:
//	a ||= 1     a; DUP; GOTO_IF_TRUE skip; POP; a = 1; skip:
//
// Exception regions register a handler with SETUP_UNWIND and record an
// [bytecode.ExceptionRegion] describing the protected range. Rescue clauses
// are tested in their literal order and converge on one bottom label with
// the protected body and the else body. Ensure bodies are compiled on both
// the normal and the unwinding exit and their value is discarded.
package compiler

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/op"
)

// Compiler is used to compile Sapphire AST into its corresponding bytecode.
// A Compiler may be reused for several units one after another but is not
// safe for concurrent use; give each goroutine its own.
type Compiler struct {
	cfg config

	// The builder for the unit being compiled
	b *Builder

	// Set on a compilation error
	failure error
}

// New creates and returns a new Compiler.
func New(opts ...Option) *Compiler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Compiler{cfg: cfg}
}

// Compile compiles the given AST node and returns immutable bytecode.
func Compile(node ast.Node, opts ...Option) (*bytecode.Code, error) {
	return New(opts...).Compile(node)
}

// Compile compiles one unit. The node is compiled for its value and the
// unit returns it. On any error no code is returned.
func (c *Compiler) Compile(node ast.Node) (*bytecode.Code, error) {
	c.b = NewBuilder()
	c.failure = nil

	if node == nil {
		return nil, errors.MalformedNode("unit", "a node to compile", "nil")
	}
	if err := c.compile(node); err != nil {
		return nil, err
	}
	// Check for failures that happened that aren't propagated up the call
	// stack. Some errors are difficult to propagate without bloating the code.
	if c.failure != nil {
		return nil, c.failure
	}
	c.emit(op.Ret)

	code, err := c.b.Finalize(bytecode.CodeParams{
		Name:     c.cfg.name,
		Filename: c.cfg.filename,
		Source:   c.cfg.source,
	})
	if err != nil {
		return nil, err
	}
	if c.cfg.verify {
		depth, err := bytecode.Verify(code)
		if err != nil {
			return nil, err
		}
		if depth != code.MaxStack() {
			return nil, errors.StackImbalance(
				fmt.Sprintf("builder computed max stack %d, verifier found %d", code.MaxStack(), depth),
				0)
		}
	}
	c.logCompiled(code)
	return code, nil
}

func (c *Compiler) logCompiled(code *bytecode.Code) {
	if c.cfg.logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	c.cfg.logger.Debug().
		Str("unit", code.Name()).
		Int("instructions", code.InstructionCount()).
		Int("labels", c.b.LabelCount()).
		Int("regions", code.RegionCount()).
		Int("max_stack", code.MaxStack()).
		Msg("compiled unit")
}

func (c *Compiler) compile(node ast.Node) error {
	switch node := node.(type) {
	case nil:
		return errors.MalformedNode("node", "a node", "nil")
	case *ast.Nil:
		c.emit(op.PushNil)
	case *ast.True:
		c.emit(op.PushTrue)
	case *ast.False:
		c.emit(op.PushFalse)
	case *ast.Self:
		c.emit(op.PushSelf)
	case *ast.Lit:
		return c.compileLit(node)
	case *ast.Str:
		c.emit(op.PushLiteral, c.constant(node.Value))
	case *ast.LocalVar:
		return c.compileLocalVar(node)
	case *ast.LocalAsgn:
		return c.compileLocalAsgn(node)
	case *ast.InstanceVar:
		return c.compileNamed(node, op.PushIvar, node.Name)
	case *ast.InstanceAsgn:
		return c.compileNamedAsgn(node, op.SetIvar, node.Name, node.Value)
	case *ast.GlobalVar:
		if node.IsException() {
			c.emit(op.PushException)
			return nil
		}
		return c.compileNamed(node, op.PushGlobal, node.Name)
	case *ast.GlobalAsgn:
		return c.compileNamedAsgn(node, op.SetGlobal, node.Name, node.Value)
	case *ast.Const:
		return c.compileNamed(node, op.PushConst, node.Name)
	case *ast.Colon2:
		return c.compileColon2(node)
	case *ast.Call:
		return c.compileCall(node)
	case *ast.AttrAsgn:
		return c.compileAttrAsgn(node)
	case *ast.Array:
		return c.compileArray(node)
	case *ast.Hash:
		return c.compileHash(node)
	case *ast.Block:
		return c.compileBlock(node)
	case *ast.If:
		return c.compileIf(node)
	case *ast.Or:
		return c.compileOr(node)
	case *ast.And:
		return c.compileAnd(node)
	case *ast.OpAsgn1:
		return c.compileOpAsgn1(node)
	case *ast.OpAsgn2:
		return c.compileOpAsgn2(node)
	case *ast.OpAsgnOr:
		return c.compileOpAsgnOr(node)
	case *ast.OpAsgnAnd:
		return c.compileOpAsgnAnd(node)
	case *ast.Rescue:
		return c.compileRescue(node)
	case *ast.Ensure:
		return c.compileEnsure(node)
	case *ast.ResBody:
		// Clauses are only compiled by their enclosing rescue.
		return malformed(node)
	default:
		return errors.UnsupportedNodeKind(node.Kind().String(), node.String())
	}
	return nil
}

// compileOptional compiles node, or pushes nil in its place when absent.
func (c *Compiler) compileOptional(node ast.Node) error {
	if node == nil {
		c.emit(op.PushNil)
		return nil
	}
	return c.compile(node)
}

// compileAll compiles each node for its value, left to right.
func (c *Compiler) compileAll(parent ast.Node, nodes []ast.Node) error {
	for _, n := range nodes {
		if n == nil {
			return malformed(parent)
		}
		if err := c.compile(n); err != nil {
			return err
		}
	}
	return nil
}

func malformed(node ast.Node) error {
	kind := node.Kind()
	return errors.MalformedNode(kind.String(), ast.Shapes[kind], node.String())
}

func (c *Compiler) emit(opcode op.Code, operands ...uint16) int {
	return c.b.Emit(opcode, operands...)
}

func (c *Compiler) emitJump(opcode op.Code, l Label, operands ...uint16) int {
	return c.b.EmitJump(opcode, l, operands...)
}

func (c *Compiler) emitSend(name string, argc int, private bool) {
	var flag uint16
	if private {
		flag = 1
	}
	c.emit(op.Send, c.name(name), uint16(argc), flag)
}

func (c *Compiler) newLabel() Label {
	return c.b.NewLabel()
}

func (c *Compiler) setLabel(l Label) {
	if err := c.b.SetLabel(l); err != nil && c.failure == nil {
		c.failure = err
	}
}

func (c *Compiler) constant(v any) uint16 {
	idx, err := c.b.Constant(v)
	if err != nil && c.failure == nil {
		c.failure = err
	}
	return idx
}

func (c *Compiler) name(name string) uint16 {
	idx, err := c.b.Name(name)
	if err != nil && c.failure == nil {
		c.failure = err
	}
	return idx
}

func (c *Compiler) local(name string) uint16 {
	idx, err := c.b.Local(name)
	if err != nil && c.failure == nil {
		c.failure = err
	}
	return idx
}
