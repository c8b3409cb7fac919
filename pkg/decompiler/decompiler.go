// Package decompiler renders compiled bytecode back into a readable
// instruction listing.
package decompiler

import (
	"fmt"
	"strings"

	"github.com/DomioKing653/Flare/pkg/vm"
)

// Result holds a decoded instruction stream ready for display.
type Result struct {
	Instructions []vm.Instruction
}

// Decompile decodes a binary stream.
func Decompile(data []byte) (*Result, error) {
	instructions, err := vm.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decompilation failed: %w", err)
	}
	return &Result{Instructions: instructions}, nil
}

// FormatDisassembly renders one instruction per line with its index, the
// form jump targets refer to.
func (r *Result) FormatDisassembly() string {
	var sb strings.Builder
	for i, in := range r.Instructions {
		fmt.Fprintf(&sb, "%04d %s\n", i, in.String())
	}
	return sb.String()
}

// Disassemble is a convenience for an already decoded stream.
func Disassemble(instructions []vm.Instruction) string {
	r := &Result{Instructions: instructions}
	return r.FormatDisassembly()
}
