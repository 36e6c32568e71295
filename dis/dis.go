// Package dis supports analysis of Sapphire bytecode by disassembling it.
// This works with the opcodes defined in the `op` package and uses the
// InstructionIter type from the `bytecode` package.
package dis

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/sapphire-lang/sapphire/bytecode"
	"github.com/sapphire-lang/sapphire/internal/table"
	"github.com/sapphire-lang/sapphire/op"
	"github.com/sapphire-lang/sapphire/sexp"
)

// Instruction represents a single bytecode instruction and its operands.
type Instruction struct {
	Offset     int
	Name       string
	Opcode     op.Code
	Operands   []op.Code
	Annotation string
	Constant   any
	Target     int // jump target, or -1
}

// Disassemble returns a parsed representation of the given bytecode.
func Disassemble(code *bytecode.Code) ([]Instruction, error) {
	var instructions []Instruction
	iter := bytecode.NewInstructionIter(code)
	for {
		offset := iter.Offset()
		val, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(val[0])
		if info.Name == "" {
			return nil, fmt.Errorf("unknown opcode %d at offset %d", val[0], offset)
		}
		if len(val)-1 != info.OperandCount {
			return nil, fmt.Errorf("truncated %s at offset %d", info.Name, offset)
		}
		instr := Instruction{
			Offset:   offset,
			Name:     info.Name,
			Opcode:   val[0],
			Operands: val[1:],
			Target:   -1,
		}
		if err := annotate(code, &instr); err != nil {
			return nil, err
		}
		instructions = append(instructions, instr)
	}
	return instructions, nil
}

func annotate(code *bytecode.Code, instr *Instruction) error {
	var err error
	switch instr.Opcode {
	case op.PushLiteral:
		instr.Constant, err = getConstantValue(code, int(instr.Operands[0]))
		if err != nil {
			return err
		}
		instr.Annotation = sexp.Format(instr.Constant)
	case op.PushLocal, op.SetLocal:
		instr.Annotation, err = getLocalVariableName(code, int(instr.Operands[0]))
	case op.PushIvar, op.SetIvar, op.PushGlobal, op.SetGlobal, op.PushConst, op.FindConst:
		instr.Annotation, err = getName(code, int(instr.Operands[0]))
	case op.Send:
		var name string
		name, err = getName(code, int(instr.Operands[0]))
		if err != nil {
			return err
		}
		instr.Annotation = fmt.Sprintf("%s/%d", sexp.Symbol(name), instr.Operands[1])
		if instr.Operands[2] != 0 {
			instr.Annotation += " private"
		}
	case op.Goto, op.GotoIfTrue, op.GotoIfFalse:
		instr.Target = int(instr.Operands[0])
		instr.Annotation = fmt.Sprintf("-> %d", instr.Target)
	case op.SetupUnwind:
		instr.Target = int(instr.Operands[0])
		instr.Annotation = fmt.Sprintf("-> %d (%s)", instr.Target, op.UnwindKind(instr.Operands[1]))
	}
	return err
}

// Listing renders the code one instruction per line with jump targets
// replaced by symbolic labels L1, L2, ... numbered in offset order. Each
// label is printed on its own line ("L1:") before its target.
func Listing(code *bytecode.Code) ([]string, error) {
	instructions, err := Disassemble(code)
	if err != nil {
		return nil, err
	}
	var targets []int
	seen := map[int]bool{}
	for _, instr := range instructions {
		if instr.Target >= 0 && !seen[instr.Target] {
			seen[instr.Target] = true
			targets = append(targets, instr.Target)
		}
	}
	sort.Ints(targets)
	labels := make(map[int]string, len(targets))
	for i, t := range targets {
		labels[t] = fmt.Sprintf("L%d", i+1)
	}

	var lines []string
	for _, instr := range instructions {
		if l, ok := labels[instr.Offset]; ok {
			lines = append(lines, l+":")
			delete(labels, instr.Offset)
		}
		lines = append(lines, listingLine(code, instr, targets))
	}
	// Targets that are not instruction boundaries.
	for _, t := range targets {
		if l, ok := labels[t]; ok {
			return nil, fmt.Errorf("%s targets offset %d, which starts no instruction", l, t)
		}
	}
	return lines, nil
}

func listingLine(code *bytecode.Code, instr Instruction, targets []int) string {
	label := func(offset int) string {
		return fmt.Sprintf("L%d", sort.SearchInts(targets, offset)+1)
	}
	var args []string
	switch instr.Opcode {
	case op.PushLiteral, op.PushLocal, op.SetLocal, op.PushIvar, op.SetIvar,
		op.PushGlobal, op.SetGlobal, op.PushConst, op.FindConst:
		args = append(args, instr.Annotation)
	case op.Send:
		name := code.NameAt(int(instr.Operands[0]))
		args = append(args,
			sexp.Symbol(name).String(),
			fmt.Sprintf("%d", instr.Operands[1]),
			fmt.Sprintf("%t", instr.Operands[2] != 0))
	case op.Goto, op.GotoIfTrue, op.GotoIfFalse:
		args = append(args, label(instr.Target))
	case op.SetupUnwind:
		args = append(args, label(instr.Target), op.UnwindKind(instr.Operands[1]).String())
	default:
		for _, o := range instr.Operands {
			args = append(args, fmt.Sprintf("%d", o))
		}
	}
	if len(args) == 0 {
		return instr.Name
	}
	return instr.Name + " " + strings.Join(args, ", ")
}

var (
	colorOpcode   = color.New(color.Bold)
	colorNumber   = color.New(color.FgYellow)
	colorString   = color.New(color.FgGreen)
	colorSymbol   = color.New(color.FgMagenta)
	colorInfo     = color.New(color.FgHiCyan)
	colorRegionHd = color.New(color.FgHiBlack)
)

// Print a string representation of the given instructions to the given
// writer. Colors follow color.NoColor.
func Print(instructions []Instruction, writer io.Writer) {
	var lines [][]string
	for _, instr := range instructions {
		var values []string
		values = append(values, fmt.Sprintf("%d", instr.Offset))
		values = append(values, colorOpcode.Sprint(instr.Name))
		values = append(values, formatOperands(instr.Operands))
		switch c := instr.Constant.(type) {
		case int64, float64:
			values = append(values, colorNumber.Sprint(instr.Annotation))
		case string:
			if len(c) > 80 {
				c = c[:77] + "..."
			}
			values = append(values, colorString.Sprintf("%q", c))
		case sexp.Symbol:
			values = append(values, colorSymbol.Sprint(instr.Annotation))
		default:
			if instr.Annotation != "" {
				values = append(values, colorInfo.Sprint(instr.Annotation))
			} else {
				values = append(values, "")
			}
		}
		lines = append(lines, values)
	}

	table.NewTable(writer).
		WithHeader([]string{"OFFSET", "OPCODE", "OPERANDS", "INFO"}).
		WithColumnAlignment([]table.Alignment{
			table.AlignRight,
			table.AlignLeft,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithHeaderAlignment([]table.Alignment{
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
			table.AlignCenter,
		}).
		WithRows(lines).
		Render()
}

// PrintRegions writes the exception region table of code, if it has any.
func PrintRegions(code *bytecode.Code, writer io.Writer) {
	if code.RegionCount() == 0 {
		return
	}
	var rows [][]string
	for i := 0; i < code.RegionCount(); i++ {
		r := code.RegionAt(i)
		var handlers []string
		for _, h := range r.Handlers {
			handlers = append(handlers, fmt.Sprintf("%s -> %d", strings.Join(h.Classes, "|"), h.Entry))
		}
		if r.HasEnsure() {
			handlers = append(handlers, fmt.Sprintf("ensure -> %d", r.Ensure))
		}
		rows = append(rows, []string{
			r.Kind.String(),
			fmt.Sprintf("%d-%d", r.Start, r.End),
			fmt.Sprintf("%d", r.Entry),
			strings.Join(handlers, ", "),
		})
	}
	table.NewTable(writer).
		WithHeader([]string{
			colorRegionHd.Sprint("REGION"),
			colorRegionHd.Sprint("RANGE"),
			colorRegionHd.Sprint("ENTRY"),
			colorRegionHd.Sprint("HANDLERS"),
		}).
		WithColumnAlignment([]table.Alignment{
			table.AlignLeft,
			table.AlignRight,
			table.AlignRight,
			table.AlignLeft,
		}).
		WithRows(rows).
		Render()
}

func formatOperands(ops []op.Code) string {
	var sb strings.Builder
	for i, op := range ops {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(fmt.Sprintf("%d", op))
	}
	return sb.String()
}

func getLocalVariableName(code *bytecode.Code, index int) (string, error) {
	if code.LocalCount() <= index {
		return "", fmt.Errorf("local variable index out of range: %d", index)
	}
	if name := code.LocalNameAt(index); name != "" {
		return name, nil
	}
	return fmt.Sprintf("local_%d", index), nil
}

func getConstantValue(code *bytecode.Code, index int) (any, error) {
	if code.ConstantCount() <= index {
		return nil, fmt.Errorf("constant index out of range: %d", index)
	}
	return code.ConstantAt(index), nil
}

func getName(code *bytecode.Code, index int) (string, error) {
	if code.NameCount() <= index {
		return "", fmt.Errorf("name index out of range: %d", index)
	}
	return code.NameAt(index), nil
}
