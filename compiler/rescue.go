package compiler

import (
	"github.com/sapphire-lang/sapphire/ast"
	"github.com/sapphire-lang/sapphire/op"
)

// DefaultRescueClass is matched by a rescue clause that names no classes.
const DefaultRescueClass = "StandardError"

// compileRescue compiles a protected body with its ordered rescue clauses.
//
//	SETUP_UNWIND handler, rescue
//	body | PUSH_NIL
//	POP_UNWIND
//	[POP; else]
//	GOTO bottom
//	handler:
//	clause 1 ... clause n
//	RERAISE
//	bottom:
//
// Every path that completes reaches bottom with one value.
func (c *Compiler) compileRescue(node *ast.Rescue) error {
	if len(node.Clauses) == 0 {
		return malformed(node)
	}
	for _, clause := range node.Clauses {
		if clause == nil {
			return malformed(node)
		}
	}

	handler := c.newLabel()
	start := c.newLabel()
	end := c.newLabel()
	bottom := c.newLabel()

	c.emitJump(op.SetupUnwind, handler, uint16(op.RescueUnwind))
	c.setLabel(start)
	if err := c.compileOptional(node.Body); err != nil {
		return err
	}
	c.setLabel(end)
	c.emit(op.PopUnwind)
	if node.Else != nil {
		c.emit(op.Pop)
		if err := c.compile(node.Else); err != nil {
			return err
		}
	}
	c.emitJump(op.Goto, bottom)

	c.setLabel(handler)
	handlers := make([]RegionHandler, 0, len(node.Clauses))
	for _, clause := range node.Clauses {
		entry, err := c.compileResBody(clause, bottom)
		if err != nil {
			return err
		}
		handlers = append(handlers, RegionHandler{
			Classes: clauseClassNames(clause),
			Entry:   entry,
		})
	}
	// No clause matched.
	c.emit(op.Reraise)
	c.setLabel(bottom)

	c.b.AddRegion(Region{
		Kind:     op.RescueUnwind,
		Start:    start,
		End:      end,
		Entry:    handler,
		Handlers: handlers,
		Ensure:   NoLabel,
	})
	return nil
}

// compileResBody emits one clause of the dispatch chain and returns the
// label of its body. Control enters with the stack at the depth the region
// was registered at.
//
//	class; PUSH_EXCEPTION; SEND === 1; GOTO_IF_TRUE body   (per class)
//	GOTO next
//	body: [capture; POP]; body | PUSH_NIL; CLEAR_EXCEPTION; GOTO bottom
//	next:
func (c *Compiler) compileResBody(clause *ast.ResBody, bottom Label) (Label, error) {
	if clause.Capture != nil && !isCapture(clause.Capture) {
		return NoLabel, malformed(clause)
	}
	body := c.newLabel()
	next := c.newLabel()

	classes := clause.Classes
	if len(classes) == 0 {
		classes = []ast.Node{&ast.Const{Name: DefaultRescueClass}}
	}
	for _, class := range classes {
		if class == nil {
			return NoLabel, malformed(clause)
		}
		if err := c.compile(class); err != nil {
			return NoLabel, err
		}
		c.emit(op.PushException)
		c.emitSend("===", 1, false)
		c.emitJump(op.GotoIfTrue, body)
	}
	c.emitJump(op.Goto, next)

	c.setLabel(body)
	if clause.Capture != nil {
		if err := c.compile(clause.Capture); err != nil {
			return NoLabel, err
		}
		c.emit(op.Pop)
	}
	if err := c.compileOptional(clause.Body); err != nil {
		return NoLabel, err
	}
	c.emit(op.ClearException)
	c.emitJump(op.Goto, bottom)
	c.setLabel(next)
	return body, nil
}

// compileEnsure runs the ensure body on both exits of the protected body
// and discards its value.
//
//	SETUP_UNWIND handler, ensure
//	body
//	POP_UNWIND
//	ensure; POP
//	GOTO done
//	handler: ensure; POP; PUSH_EXCEPTION; RAISE_EXC
//	done:
func (c *Compiler) compileEnsure(node *ast.Ensure) error {
	if node.Body == nil {
		return malformed(node)
	}
	handler := c.newLabel()
	start := c.newLabel()
	end := c.newLabel()
	done := c.newLabel()

	c.emitJump(op.SetupUnwind, handler, uint16(op.EnsureUnwind))
	c.setLabel(start)
	if err := c.compile(node.Body); err != nil {
		return err
	}
	c.setLabel(end)
	c.emit(op.PopUnwind)
	if err := c.compileOptional(node.Ensure); err != nil {
		return err
	}
	c.emit(op.Pop)
	c.emitJump(op.Goto, done)

	c.setLabel(handler)
	if err := c.compileOptional(node.Ensure); err != nil {
		return err
	}
	c.emit(op.Pop)
	c.emit(op.PushException)
	c.emit(op.RaiseExc)
	c.setLabel(done)

	c.b.AddRegion(Region{
		Kind:   op.EnsureUnwind,
		Start:  start,
		End:    end,
		Entry:  handler,
		Ensure: handler,
	})
	return nil
}

func isCapture(node ast.Node) bool {
	switch node.(type) {
	case *ast.LocalAsgn, *ast.InstanceAsgn, *ast.GlobalAsgn:
		return true
	}
	return false
}

// clauseClassNames returns the display names of the classes a clause
// tests, for the region table.
func clauseClassNames(clause *ast.ResBody) []string {
	if len(clause.Classes) == 0 {
		return []string{DefaultRescueClass}
	}
	names := make([]string, len(clause.Classes))
	for i, class := range clause.Classes {
		names[i] = className(class)
	}
	return names
}

func className(node ast.Node) string {
	switch n := node.(type) {
	case *ast.Const:
		return n.Name
	case *ast.Colon2:
		return className(n.Scope) + "::" + n.Name
	}
	return node.String()
}
