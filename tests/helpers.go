// Package tests contains end-to-end tests driving source text through the
// full pipeline: lex, parse, compile, optimize, encode, decode, run.
package tests

import (
	"bytes"
	"strings"
	"testing"

	"github.com/DomioKing653/Flare/pkg/compiler"
	"github.com/DomioKing653/Flare/pkg/parser"
	"github.com/DomioKing653/Flare/pkg/vm"
)

// compileSource compiles source text at the given optimization level.
func compileSource(t *testing.T, source string, level compiler.OptimizationLevel) ([]vm.Instruction, error) {
	t.Helper()
	tokens, err := parser.NewLexer(source).Tokenize()
	if err != nil {
		return nil, err
	}
	program, err := parser.NewParser(tokens).Parse()
	if err != nil {
		return nil, err
	}
	return compiler.NewCompilerWithOptLevel(level).Compile(program)
}

// runResult captures everything observable about one execution.
type runResult struct {
	stdout     string
	exited     bool
	exitStatus int
	err        error
}

// execute round-trips the stream through the codec, then runs it.
func execute(t *testing.T, instructions []vm.Instruction, stdin string) runResult {
	t.Helper()
	encoded, err := vm.Encode(instructions)
	if err != nil {
		return runResult{err: err}
	}
	decoded, err := vm.Decode(encoded)
	if err != nil {
		return runResult{err: err}
	}

	var out bytes.Buffer
	machine := vm.New(decoded,
		vm.WithStdout(&out),
		vm.WithStdin(strings.NewReader(stdin)),
		vm.WithMaxSteps(1_000_000),
	)
	err = machine.Run()
	return runResult{
		stdout:     out.String(),
		exited:     machine.Exited(),
		exitStatus: machine.ExitStatus(),
		err:        err,
	}
}

// buildAndRun is the common happy path: compile with optimization, execute,
// return observable behavior.
func buildAndRun(t *testing.T, source, stdin string) runResult {
	t.Helper()
	instructions, err := compileSource(t, source, compiler.OptBasic)
	if err != nil {
		return runResult{err: err}
	}
	return execute(t, instructions, stdin)
}
