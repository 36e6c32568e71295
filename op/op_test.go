package op

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetInfo(t *testing.T) {
	info := GetInfo(Send)
	require.Equal(t, "SEND", info.Name)
	require.Equal(t, 3, info.OperandCount)
	require.Equal(t, Send, info.Code)
}

func TestGetInfoAllOpcodes(t *testing.T) {
	tests := []struct {
		code     Code
		name     string
		operands int
	}{
		{Nop, "NOP", 0},
		{Ret, "RET", 0},
		{Pop, "POP", 0},
		{Dup, "DUP", 0},
		{Swap, "SWAP", 0},
		{Rotate, "ROTATE", 1},
		{PushNil, "PUSH_NIL", 0},
		{PushTrue, "PUSH_TRUE", 0},
		{PushFalse, "PUSH_FALSE", 0},
		{PushSelf, "PUSH_SELF", 0},
		{PushLiteral, "PUSH_LITERAL", 1},
		{PushLocal, "PUSH_LOCAL", 1},
		{SetLocal, "SET_LOCAL", 1},
		{PushIvar, "PUSH_IVAR", 1},
		{SetIvar, "SET_IVAR", 1},
		{PushGlobal, "PUSH_GLOBAL", 1},
		{SetGlobal, "SET_GLOBAL", 1},
		{PushConst, "PUSH_CONST", 1},
		{FindConst, "FIND_CONST", 1},
		{Send, "SEND", 3},
		{MakeArray, "MAKE_ARRAY", 1},
		{MakeHash, "MAKE_HASH", 1},
		{Goto, "GOTO", 1},
		{GotoIfTrue, "GOTO_IF_TRUE", 1},
		{GotoIfFalse, "GOTO_IF_FALSE", 1},
		{SetupUnwind, "SETUP_UNWIND", 2},
		{PopUnwind, "POP_UNWIND", 0},
		{PushException, "PUSH_EXCEPTION", 0},
		{ClearException, "CLEAR_EXCEPTION", 0},
		{Reraise, "RERAISE", 0},
		{RaiseExc, "RAISE_EXC", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := GetInfo(tt.code)
			require.Equal(t, tt.name, info.Name)
			require.Equal(t, tt.operands, info.OperandCount)
			require.Equal(t, tt.code, info.Code)
		})
	}
}

func TestGetInfoUnknown(t *testing.T) {
	require.Equal(t, "", GetInfo(Invalid).Name)
	require.Equal(t, Info{}, GetInfo(Code(1000)))
}

func TestStackEffect(t *testing.T) {
	tests := []struct {
		name     string
		code     Code
		operands []Code
		pops     int
		pushes   int
	}{
		{"dup", Dup, nil, 1, 2},
		{"branch", GotoIfTrue, []Code{4}, 1, 0},
		{"send two args", Send, []Code{0, 2, 0}, 3, 1},
		{"send no args", Send, []Code{0, 0, 1}, 1, 1},
		{"array", MakeArray, []Code{3}, 3, 1},
		{"hash", MakeHash, []Code{2}, 4, 1},
		{"rotate", Rotate, []Code{3}, 3, 3},
		{"set local", SetLocal, []Code{0}, 1, 1},
		{"setup unwind", SetupUnwind, []Code{10, 0}, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pops, pushes := StackEffect(tt.code, tt.operands)
			require.Equal(t, tt.pops, pops)
			require.Equal(t, tt.pushes, pushes)
		})
	}
}

func TestJumpClassification(t *testing.T) {
	require.True(t, IsJump(Goto))
	require.True(t, IsJump(SetupUnwind))
	require.False(t, IsJump(Send))
	require.True(t, IsTerminal(Reraise))
	require.True(t, IsTerminal(Goto))
	require.False(t, IsTerminal(GotoIfFalse))
}

func TestUnwindKindString(t *testing.T) {
	require.Equal(t, "rescue", RescueUnwind.String())
	require.Equal(t, "ensure", EnsureUnwind.String())
}
