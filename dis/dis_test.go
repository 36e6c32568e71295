package dis

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/op"
	"github.com/sapphire-lang/sapphire/sexp"
	"github.com/stretchr/testify/require"
)

func disableColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

// sampleCode is `x = (42 || "kaboom")` with the assignment on the
// fallthrough path only:
//
//	 0 PUSH_LITERAL 0
//	 2 DUP
//	 3 GOTO_IF_TRUE 10
//	 5 POP
//	 6 PUSH_LITERAL 1
//	 8 SET_LOCAL 0
//	10 RET
func sampleCode() *bytecode.Code {
	return bytecode.NewCode(bytecode.CodeParams{
		Name: "sample",
		Instructions: []op.Code{
			op.PushLiteral, 0,
			op.Dup,
			op.GotoIfTrue, 10,
			op.Pop,
			op.PushLiteral, 1,
			op.SetLocal, 0,
			op.Ret,
		},
		Constants:  []any{int64(42), "kaboom"},
		LocalNames: []string{"x"},
		MaxStack:   2,
	})
}

func TestDisassemble(t *testing.T) {
	instructions, err := Disassemble(sampleCode())
	require.NoError(t, err)
	require.Len(t, instructions, 7)

	require.Equal(t, "PUSH_LITERAL", instructions[0].Name)
	require.Equal(t, int64(42), instructions[0].Constant)
	require.Equal(t, "42", instructions[0].Annotation)
	require.Equal(t, -1, instructions[0].Target)

	jump := instructions[2]
	require.Equal(t, 3, jump.Offset)
	require.Equal(t, op.GotoIfTrue, jump.Opcode)
	require.Equal(t, 10, jump.Target)
	require.Equal(t, "-> 10", jump.Annotation)

	require.Equal(t, "kaboom", instructions[4].Constant)
	require.Equal(t, "x", instructions[5].Annotation)
	require.Equal(t, "RET", instructions[6].Name)
	require.Empty(t, instructions[6].Operands)
}

func TestDisassembleSend(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{
		Instructions: []op.Code{
			op.PushSelf,
			op.Send, 0, 0, 1,
			op.PushLiteral, 0,
			op.Send, 1, 1, 0,
			op.Ret,
		},
		Constants: []any{sexp.Symbol("k")},
		Names:     []string{"fetch", "[]"},
	})
	instructions, err := Disassemble(code)
	require.NoError(t, err)
	require.Equal(t, ":fetch/0 private", instructions[1].Annotation)
	require.Equal(t, ":k", instructions[2].Annotation)
	require.Equal(t, ":[]/1", instructions[3].Annotation)
}

func TestDisassembleErrors(t *testing.T) {
	tests := []struct {
		name         string
		instructions []op.Code
		want         string
	}{
		{"unknown opcode", []op.Code{op.Code(250)}, "unknown opcode 250"},
		{"truncated", []op.Code{op.PushLiteral}, "truncated PUSH_LITERAL"},
		{"constant out of range", []op.Code{op.PushLiteral, 3, op.Ret}, "constant index out of range"},
		{"name out of range", []op.Code{op.PushIvar, 0, op.Ret}, "name index out of range"},
		{"local out of range", []op.Code{op.PushLocal, 0, op.Ret}, "local variable index out of range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := bytecode.NewCode(bytecode.CodeParams{Instructions: tt.instructions})
			_, err := Disassemble(code)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestListing(t *testing.T) {
	lines, err := Listing(sampleCode())
	require.NoError(t, err)
	require.Equal(t, []string{
		"PUSH_LITERAL 42",
		"DUP",
		"GOTO_IF_TRUE L1",
		"POP",
		`PUSH_LITERAL "kaboom"`,
		"SET_LOCAL x",
		"L1:",
		"RET",
	}, lines)
}

func TestListingUnwind(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{
		Instructions: []op.Code{
			op.SetupUnwind, 8, op.Code(op.EnsureUnwind),
			op.PushNil,
			op.PopUnwind,
			op.Goto, 11,
			op.Nop,
			op.PushException,
			op.RaiseExc,
			op.Nop,
			op.Ret,
		},
	})
	lines, err := Listing(code)
	require.NoError(t, err)
	require.Equal(t, []string{
		"SETUP_UNWIND L1, ensure",
		"PUSH_NIL",
		"POP_UNWIND",
		"GOTO L2",
		"NOP",
		"L1:",
		"PUSH_EXCEPTION",
		"RAISE_EXC",
		"NOP",
		"L2:",
		"RET",
	}, lines)
}

func TestListingTargetInsideInstruction(t *testing.T) {
	code := bytecode.NewCode(bytecode.CodeParams{
		Instructions: []op.Code{op.Goto, 1, op.Ret},
	})
	_, err := Listing(code)
	require.Error(t, err)
	require.Contains(t, err.Error(), "starts no instruction")
}

func TestPrint(t *testing.T) {
	disableColor(t)
	instructions, err := Disassemble(sampleCode())
	require.NoError(t, err)

	var buf bytes.Buffer
	Print(instructions, &buf)

	expected := strings.TrimSpace(`
+--------+--------------+----------+----------+
| OFFSET |    OPCODE    | OPERANDS |   INFO   |
+--------+--------------+----------+----------+
|      0 | PUSH_LITERAL |        0 | 42       |
|      2 | DUP          |          |          |
|      3 | GOTO_IF_TRUE |       10 | -> 10    |
|      5 | POP          |          |          |
|      6 | PUSH_LITERAL |        1 | "kaboom" |
|      8 | SET_LOCAL    |        0 | x        |
|     10 | RET          |          |          |
+--------+--------------+----------+----------+
`)
	require.Equal(t, expected+"\n", buf.String())
}

func TestPrintRegions(t *testing.T) {
	disableColor(t)
	code := bytecode.NewCode(bytecode.CodeParams{
		Instructions: []op.Code{op.PushNil, op.Ret},
		Regions: []bytecode.ExceptionRegion{
			{
				Kind:  op.RescueUnwind,
				Start: 3, End: 4, Entry: 6,
				Handlers: []bytecode.Handler{{Classes: []string{"A", "B::C"}, Entry: 8}},
				Ensure:   -1,
			},
			{
				Kind:  op.EnsureUnwind,
				Start: 0, End: 10, Entry: 12,
				Ensure: 12,
			},
		},
	})

	var buf bytes.Buffer
	PrintRegions(code, &buf)
	out := buf.String()
	require.Contains(t, out, "| REGION | RANGE | ENTRY | HANDLERS     |")
	require.Contains(t, out, "| rescue |   3-4 |     6 | A|B::C -> 8  |")
	require.Contains(t, out, "| ensure |  0-10 |    12 | ensure -> 12 |")
}

func TestPrintRegionsEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintRegions(sampleCode(), &buf)
	require.Empty(t, buf.String())
}
