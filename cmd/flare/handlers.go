package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"go.opentelemetry.io/otel/attribute"

	"github.com/DomioKing653/Flare/pkg/ast"
	"github.com/DomioKing653/Flare/pkg/compiler"
	"github.com/DomioKing653/Flare/pkg/decompiler"
	flareerrors "github.com/DomioKing653/Flare/pkg/errors"
	"github.com/DomioKing653/Flare/pkg/parser"
	"github.com/DomioKing653/Flare/pkg/tracing"
	"github.com/DomioKing653/Flare/pkg/vm"
)

// Pipeline stages, in failure-exit-code order.
const (
	stageLex     = "lex"
	stageParse   = "parse"
	stageCompile = "compile"
	stageEncode  = "encode"
	stageRuntime = "runtime"
)

var stageExitCodes = map[string]int{
	stageLex:     1,
	stageParse:   2,
	stageCompile: 3,
	stageEncode:  4,
	stageRuntime: 4,
}

// stageError wraps a pipeline failure with the stage it came from, so the
// CLI can exit with a distinct code per failing stage.
type stageError struct {
	stage string
	err   error
}

func (e *stageError) Error() string { return e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (e *stageError) ExitCode() int {
	if code, ok := stageExitCodes[e.stage]; ok {
		return code
	}
	return 1
}

// buildResult is everything a successful build produces.
type buildResult struct {
	tokens       []parser.Token
	program      *ast.Program
	instructions []vm.Instruction
	bytecode     []byte
}

// buildSource drives source text through the whole pipeline:
// lex → parse → compile(+optimize) → encode.
func buildSource(ctx context.Context, source string) (*buildResult, error) {
	result := &buildResult{}

	spanCtx, span := tracing.StartSpan(ctx, "build")
	defer span.End()

	_, lexSpan := tracing.StartSpan(spanCtx, "lex")
	tokens, err := parser.NewLexer(source).Tokenize()
	tracing.EndSpan(lexSpan, err)
	if err != nil {
		toolMetrics.RecordBuildError(stageLex)
		return nil, &stageError{stageLex, err}
	}
	result.tokens = tokens

	_, parseSpan := tracing.StartSpan(spanCtx, "parse")
	program, err := parser.NewParser(tokens).Parse()
	tracing.EndSpan(parseSpan, err)
	if err != nil {
		toolMetrics.RecordBuildError(stageParse)
		return nil, &stageError{stageParse, err}
	}
	result.program = program

	level := compiler.OptBasic
	if cfg.OptLevel == 0 {
		level = compiler.OptNone
	}
	_, compileSpan := tracing.StartSpan(spanCtx, "compile",
		attribute.Int("opt_level", cfg.OptLevel))
	instructions, err := compiler.NewCompilerWithOptLevel(level).Compile(program)
	tracing.EndSpan(compileSpan, err)
	if err != nil {
		toolMetrics.RecordBuildError(stageCompile)
		return nil, &stageError{stageCompile, err}
	}
	result.instructions = instructions

	_, encodeSpan := tracing.StartSpan(spanCtx, "encode")
	bytecode, err := vm.Encode(instructions)
	tracing.EndSpan(encodeSpan, err)
	if err != nil {
		toolMetrics.RecordBuildError(stageEncode)
		return nil, &stageError{stageEncode, err}
	}
	result.bytecode = bytecode

	return result, nil
}

// buildFile builds a source file and writes the bytecode.
func buildFile(ctx context.Context, srcPath, outPath string) (*buildResult, error) {
	source, err := os.ReadFile(srcPath)
	if err != nil {
		return nil, &stageError{stageLex, fmt.Errorf("failed to read file: %w", err)}
	}

	printInfo(fmt.Sprintf("Building %s -> %s", srcPath, outPath))
	start := time.Now()

	result, err := buildSource(ctx, string(source))
	if err != nil {
		return nil, err
	}

	if flagDebug {
		debugDump(result)
	}

	if err := os.WriteFile(outPath, result.bytecode, 0600); err != nil {
		return nil, &stageError{stageEncode, fmt.Errorf("failed to write output: %w", err)}
	}

	elapsed := time.Since(start)
	toolMetrics.RecordBuild(elapsed, len(result.instructions), len(result.bytecode))
	logger.Info("build finished", map[string]interface{}{
		"source":       srcPath,
		"output":       outPath,
		"instructions": len(result.instructions),
		"bytes":        len(result.bytecode),
		"elapsed":      elapsed.String(),
	})
	printSuccess(fmt.Sprintf("Finished in %.3f seconds", elapsed.Seconds()))
	return result, nil
}

// runInstructions executes a decoded stream on a fresh VM.
func runInstructions(ctx context.Context, instructions []vm.Instruction) error {
	_, span := tracing.StartSpan(ctx, "run",
		attribute.Int("instructions", len(instructions)))

	machine := vm.New(instructions)
	start := time.Now()
	err := machine.Run()
	toolMetrics.RecordRun(time.Since(start), len(instructions), err)
	tracing.EndSpan(span, err)
	if err != nil {
		return &stageError{stageRuntime, err}
	}
	if machine.Exited() {
		exitStatus = machine.ExitStatus()
	}
	return nil
}

// debugDump prints tokens, the AST and the instruction listing, mirroring
// the compiler's --debug build output.
func debugDump(result *buildResult) {
	for _, tok := range result.tokens {
		fmt.Printf("%s(%q)\n", tok.Kind, tok.Value)
	}
	fmt.Println(result.program.String())
	fmt.Print(decompiler.Disassemble(result.instructions))
}

// Helper functions for colored terminal output.

func printInfo(msg string) {
	color.New(color.FgCyan).Fprintln(os.Stderr, msg)
}

func printSuccess(msg string) {
	color.New(color.FgGreen, color.Bold).Fprintln(os.Stderr, msg)
}

func printWarning(msg string) {
	color.New(color.FgYellow).Fprintln(os.Stderr, msg)
}

func printError(err error) {
	var ce *flareerrors.CompileError
	if seErr, ok := err.(*stageError); ok {
		if inner, ok := seErr.err.(*flareerrors.CompileError); ok {
			ce = inner
		}
	}
	if ce != nil {
		fmt.Fprintln(os.Stderr, ce.FormatError(true))
		if ce.Code != "" {
			fmt.Fprintf(os.Stderr, "%sTry: flare explain %s for fix%s\n", flareerrors.Bold, ce.Code, flareerrors.Reset)
		}
		return
	}
	color.New(color.FgRed, color.Bold).Fprintf(os.Stderr, "Error: %v\n", err)
}
