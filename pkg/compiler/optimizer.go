package compiler

import (
	"fmt"

	"github.com/DomioKing653/Flare/pkg/vm"
)

// OptimizationLevel defines how aggressive optimization should be.
type OptimizationLevel int

const (
	OptNone OptimizationLevel = iota
	OptBasic
)

// Optimize applies the local peephole pass and renumbers every branch
// target. The pass repeats until the stream stops shrinking, so folding a
// triple that exposes another triple converges in one call and a second
// application produces an identical stream.
//
// The pass must never silently corrupt a jump; an unmappable target is an
// implementation bug and panics.
func Optimize(code []vm.Instruction) []vm.Instruction {
	for {
		folded, oldToNew := constantFolding(code)
		if len(folded) == len(code) {
			return code
		}
		code = fixJumpTargets(folded, oldToNew, len(code))
	}
}

// constantFolding rewrites [PushNumber(a), PushNumber(b), Add] into
// [PushNumber(a+b)], building a map that covers every original index. The
// second and third positions of a folded triple both map to the new single
// position.
func constantFolding(code []vm.Instruction) ([]vm.Instruction, map[int]int) {
	out := make([]vm.Instruction, 0, len(code))
	oldToNew := make(map[int]int, len(code))

	i := 0
	for i < len(code) {
		if i+2 < len(code) &&
			code[i].Op == vm.OpPushNumber &&
			code[i+1].Op == vm.OpPushNumber &&
			code[i+2].Op == vm.OpAdd {
			oldToNew[i] = len(out)
			oldToNew[i+1] = len(out)
			oldToNew[i+2] = len(out)
			out = append(out, vm.PushNumber(code[i].Num+code[i+1].Num))
			i += 3
			continue
		}
		oldToNew[i] = len(out)
		out = append(out, code[i])
		i++
	}
	return out, oldToNew
}

// fixJumpTargets renumbers Jump, JumpIfFalse and JumpIfTrue targets through
// the old→new index map. A target equal to the original length means "fall
// off the end" and maps to the new length; a target inside a folded region
// maps forward to the next surviving instruction.
func fixJumpTargets(code []vm.Instruction, oldToNew map[int]int, originalLen int) []vm.Instruction {
	remap := func(target int) int {
		if target == originalLen {
			return len(code)
		}
		if newTarget, ok := oldToNew[target]; ok {
			return newTarget
		}
		for probe := target + 1; probe <= originalLen; probe++ {
			if newTarget, ok := oldToNew[probe]; ok {
				return newTarget
			}
		}
		panic(fmt.Sprintf("optimizer invariant violated: no mapping for jump target %d", target))
	}

	for i, in := range code {
		switch in.Op {
		case vm.OpJump, vm.OpJumpIfFalse, vm.OpJumpIfTrue:
			code[i].Target = remap(in.Target)
		}
	}
	return code
}
