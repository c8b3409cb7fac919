// Package repl provides an interactive compile-and-run loop for Flare.
package repl

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/DomioKing653/Flare/pkg/compiler"
	"github.com/DomioKing653/Flare/pkg/parser"
	"github.com/DomioKing653/Flare/pkg/vm"
)

// REPL provides an interactive programming environment. Each input line is
// compiled against a persistent context and executed against a persistent
// variable map, so definitions carry across lines.
type REPL struct {
	comp      *compiler.Compiler
	variables map[string]vm.Value
	reader    *bufio.Reader
	writer    io.Writer
	running   bool
	version   string
}

// New creates a new REPL instance.
func New(reader io.Reader, writer io.Writer, version string) *REPL {
	return &REPL{
		comp:      compiler.NewCompiler(),
		variables: make(map[string]vm.Value),
		reader:    bufio.NewReader(reader),
		writer:    writer,
		version:   version,
	}
}

// Start begins the REPL loop.
func (r *REPL) Start() error {
	r.running = true
	r.printWelcome()

	for r.running {
		fmt.Fprint(r.writer, ">> ")
		line, err := r.reader.ReadString('\n')
		if err == io.EOF {
			fmt.Fprintln(r.writer)
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ":") {
			r.handleCommand(line)
			continue
		}

		r.eval(line)
	}
	return nil
}

func (r *REPL) printWelcome() {
	fmt.Fprintf(r.writer, "Flare %s REPL\n", r.version)
	fmt.Fprintln(r.writer, "Type :help for commands, :quit to exit")
}

func (r *REPL) handleCommand(line string) {
	switch line {
	case ":quit", ":q":
		r.running = false
	case ":reset":
		r.comp = compiler.NewCompiler()
		r.variables = make(map[string]vm.Value)
		fmt.Fprintln(r.writer, "state cleared")
	case ":help":
		fmt.Fprintln(r.writer, "  :help   show this help")
		fmt.Fprintln(r.writer, "  :reset  clear variables and definitions")
		fmt.Fprintln(r.writer, "  :quit   exit the repl")
	default:
		fmt.Fprintf(r.writer, "unknown command %s\n", line)
	}
}

// eval compiles and runs one input line. Programs that call processExit
// report the status instead of terminating the REPL.
func (r *REPL) eval(line string) {
	tokens, err := parser.NewLexer(line).Tokenize()
	if err != nil {
		fmt.Fprintf(r.writer, "lex error: %v\n", err)
		return
	}
	program, err := parser.NewParser(tokens).Parse()
	if err != nil {
		fmt.Fprintf(r.writer, "parse error: %v\n", err)
		return
	}
	instructions, err := r.comp.CompileInteractive(program)
	if err != nil {
		fmt.Fprintf(r.writer, "compile error: %v\n", err)
		return
	}

	machine := vm.New(instructions,
		vm.WithStdout(r.writer),
		vm.WithStdin(r.reader),
		vm.WithVariables(r.variables),
	)
	if err := machine.Run(); err != nil {
		fmt.Fprintf(r.writer, "runtime error: %v\n", err)
		return
	}
	if machine.Exited() {
		fmt.Fprintf(r.writer, "program exited with status %d\n", machine.ExitStatus())
	}
}
