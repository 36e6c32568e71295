package bytecode

import (
	"fmt"

	"github.com/sapphire-lang/sapphire/errors"
	"github.com/sapphire-lang/sapphire/op"
)

// Verify checks the operand stack discipline of a finalized unit and returns
// the maximum depth reached.
//
// Every instruction reachable from offset 0 must be reached with one depth
// regardless of path. Handler entries named by SETUP_UNWIND start at the
// depth the stack had when the handler was registered. RET must see exactly
// one value, and no path may fall off the end of the stream.
func Verify(code *Code) (int, error) {
	n := code.InstructionCount()
	if n == 0 {
		return 0, nil
	}

	// Decode once so jump targets can be checked against boundaries.
	type decoded struct {
		opcode   op.Code
		operands []op.Code
		next     int
	}
	instrs := map[int]decoded{}
	iter := NewInstructionIter(code)
	for {
		offset := iter.Offset()
		instr, ok := iter.Next()
		if !ok {
			break
		}
		info := op.GetInfo(instr[0])
		if info.Name == "" {
			return 0, errors.InvalidInstruction(
				fmt.Sprintf("unknown opcode %d", instr[0]), offset)
		}
		if len(instr)-1 != info.OperandCount {
			return 0, errors.InvalidInstruction(
				fmt.Sprintf("%s is missing operands", info.Name), offset)
		}
		instrs[offset] = decoded{opcode: instr[0], operands: instr[1:], next: iter.Offset()}
	}

	depths := make(map[int]int, len(instrs))
	var work []int
	maxDepth := 0

	visit := func(from, target, depth int) error {
		if target >= n {
			return errors.InvalidInstruction("control falls off the end of the stream", from)
		}
		if _, ok := instrs[target]; !ok {
			return errors.InvalidInstruction(
				fmt.Sprintf("jump target %d is not an instruction boundary", target), from)
		}
		if seen, ok := depths[target]; ok {
			if seen != depth {
				return errors.StackImbalance(
					fmt.Sprintf("offset %d reached with stack depths %d and %d", target, seen, depth), target)
			}
			return nil
		}
		depths[target] = depth
		work = append(work, target)
		return nil
	}

	if err := visit(0, 0, 0); err != nil {
		return 0, err
	}
	for len(work) > 0 {
		offset := work[len(work)-1]
		work = work[:len(work)-1]
		instr := instrs[offset]
		depth := depths[offset]

		pops, pushes := op.StackEffect(instr.opcode, instr.operands)
		if depth < pops {
			return 0, errors.StackImbalance(
				fmt.Sprintf("%s pops %d values from a stack of depth %d",
					op.GetInfo(instr.opcode).Name, pops, depth), offset)
		}
		after := depth - pops + pushes
		if after > maxDepth {
			maxDepth = after
		}

		switch instr.opcode {
		case op.Ret:
			if depth != 1 {
				return 0, errors.StackImbalance(
					fmt.Sprintf("RET with stack depth %d", depth), offset)
			}
			continue
		case op.Reraise, op.RaiseExc:
			continue
		case op.Goto:
			if err := visit(offset, int(instr.operands[0]), after); err != nil {
				return 0, err
			}
			continue
		case op.GotoIfTrue, op.GotoIfFalse:
			if err := visit(offset, int(instr.operands[0]), after); err != nil {
				return 0, err
			}
		case op.SetupUnwind:
			if err := visit(offset, int(instr.operands[0]), depth); err != nil {
				return 0, err
			}
		}
		if err := visit(offset, instr.next, after); err != nil {
			return 0, err
		}
	}
	return maxDepth, nil
}
