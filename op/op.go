// Package op defines opcodes used by the Sapphire compiler and virtual machine.
package op

// Code is an integer opcode that indicates an operation to execute.
type Code uint16

const (
	Invalid Code = 0

	// Execution
	Nop Code = 1
	Ret Code = 2

	// Stack
	Pop    Code = 10
	Dup    Code = 11
	Swap   Code = 12
	Rotate Code = 13 // Move the value operand1-1 slots below TOS to the top

	// Push constants
	PushNil     Code = 20
	PushTrue    Code = 21
	PushFalse   Code = 22
	PushSelf    Code = 23
	PushLiteral Code = 24

	// Variables
	PushLocal  Code = 30
	SetLocal   Code = 31
	PushIvar   Code = 32
	SetIvar    Code = 33
	PushGlobal Code = 34
	SetGlobal  Code = 35
	PushConst  Code = 36
	FindConst  Code = 37 // Look up operand1 under the scope at TOS

	// Sends
	Send Code = 40 // operand1=name, operand2=argc, operand3=private

	// Build
	MakeArray Code = 50
	MakeHash  Code = 51

	// Jump
	Goto        Code = 60
	GotoIfTrue  Code = 61
	GotoIfFalse Code = 62

	// Exception handling
	SetupUnwind    Code = 70 // Register handler: operand1=handler offset, operand2=UnwindKind
	PopUnwind      Code = 71 // Unregister the innermost handler (protected body completed)
	PushException  Code = 72 // Push the exception currently being handled
	ClearException Code = 73 // Mark the current exception as handled
	Reraise        Code = 74 // Continue unwinding with the current exception
	RaiseExc       Code = 75 // Raise TOS as an exception
)

// UnwindKind is the second operand of SetupUnwind and tells the VM which kind
// of region the handler belongs to.
type UnwindKind uint16

const (
	RescueUnwind UnwindKind = 0
	EnsureUnwind UnwindKind = 1
)

// String returns "rescue" or "ensure".
func (k UnwindKind) String() string {
	switch k {
	case RescueUnwind:
		return "rescue"
	case EnsureUnwind:
		return "ensure"
	default:
		return ""
	}
}

// Info contains information about an opcode.
type Info struct {
	Code         Code
	Name         string
	OperandCount int
}

var infos = make([]Info, 256)

func init() {
	type opInfo struct {
		op    Code
		name  string
		count int
	}
	ops := []opInfo{
		{ClearException, "CLEAR_EXCEPTION", 0},
		{Dup, "DUP", 0},
		{FindConst, "FIND_CONST", 1},
		{Goto, "GOTO", 1},
		{GotoIfFalse, "GOTO_IF_FALSE", 1},
		{GotoIfTrue, "GOTO_IF_TRUE", 1},
		{MakeArray, "MAKE_ARRAY", 1},
		{MakeHash, "MAKE_HASH", 1},
		{Nop, "NOP", 0},
		{Pop, "POP", 0},
		{PopUnwind, "POP_UNWIND", 0},
		{PushConst, "PUSH_CONST", 1},
		{PushException, "PUSH_EXCEPTION", 0},
		{PushFalse, "PUSH_FALSE", 0},
		{PushGlobal, "PUSH_GLOBAL", 1},
		{PushIvar, "PUSH_IVAR", 1},
		{PushLiteral, "PUSH_LITERAL", 1},
		{PushLocal, "PUSH_LOCAL", 1},
		{PushNil, "PUSH_NIL", 0},
		{PushSelf, "PUSH_SELF", 0},
		{PushTrue, "PUSH_TRUE", 0},
		{RaiseExc, "RAISE_EXC", 0},
		{Reraise, "RERAISE", 0},
		{Ret, "RET", 0},
		{Rotate, "ROTATE", 1},
		{Send, "SEND", 3},
		{SetGlobal, "SET_GLOBAL", 1},
		{SetIvar, "SET_IVAR", 1},
		{SetLocal, "SET_LOCAL", 1},
		{SetupUnwind, "SETUP_UNWIND", 2},
		{Swap, "SWAP", 0},
	}
	for _, o := range ops {
		infos[o.op] = Info{
			Name:         o.name,
			Code:         o.op,
			OperandCount: o.count,
		}
	}
}

// GetInfo returns information about the given opcode.
func GetInfo(op Code) Info {
	if int(op) >= len(infos) {
		return Info{}
	}
	return infos[op]
}

// IsJump reports whether the first operand of the opcode is an instruction
// offset.
func IsJump(op Code) bool {
	switch op {
	case Goto, GotoIfTrue, GotoIfFalse, SetupUnwind:
		return true
	}
	return false
}

// IsTerminal reports whether execution never falls through to the next
// instruction.
func IsTerminal(op Code) bool {
	switch op {
	case Goto, Ret, Reraise, RaiseExc:
		return true
	}
	return false
}

// StackEffect returns how many values the instruction pops and pushes.
func StackEffect(op Code, operands []Code) (pops, pushes int) {
	switch op {
	case Nop, PopUnwind, ClearException, Goto, SetupUnwind, Reraise:
		return 0, 0
	case Pop, GotoIfTrue, GotoIfFalse, RaiseExc, Ret:
		return 1, 0
	case Dup:
		return 1, 2
	case Swap:
		return 2, 2
	case Rotate:
		n := int(operands[0])
		return n, n
	case PushNil, PushTrue, PushFalse, PushSelf, PushLiteral,
		PushLocal, PushIvar, PushGlobal, PushConst, PushException:
		return 0, 1
	case SetLocal, SetIvar, SetGlobal, FindConst:
		return 1, 1
	case Send:
		return 1 + int(operands[1]), 1
	case MakeArray:
		return int(operands[0]), 1
	case MakeHash:
		return 2 * int(operands[0]), 1
	}
	return 0, 0
}
