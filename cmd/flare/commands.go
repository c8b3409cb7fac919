package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/DomioKing653/Flare/pkg/decompiler"
	flareerrors "github.com/DomioKing653/Flare/pkg/errors"
	"github.com/DomioKing653/Flare/pkg/repl"
	"github.com/DomioKing653/Flare/pkg/vm"
)

var buildCmd = &cobra.Command{
	Use:   "build <source> <out>",
	Short: "Compile a Flare source file to bytecode",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := buildFile(cmd.Context(), args[0], args[1])
		return err
	},
}

var runCmd = &cobra.Command{
	Use:   "run <bytecode>",
	Short: "Execute a compiled bytecode file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return &stageError{stageRuntime, fmt.Errorf("failed to read file: %w", err)}
		}
		instructions, err := vm.Decode(data)
		if err != nil {
			return &stageError{stageRuntime, err}
		}
		return runInstructions(cmd.Context(), instructions)
	},
}

var execCmd = &cobra.Command{
	Use:   "exec <source> <out>",
	Short: "Compile a source file and run it immediately",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		result, err := buildFile(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return runInstructions(cmd.Context(), result.instructions)
	},
}

var disasmCmd = &cobra.Command{
	Use:   "disasm <bytecode>",
	Short: "Print the instruction listing of a bytecode file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		result, err := decompiler.Decompile(data)
		if err != nil {
			return err
		}
		printInfo(fmt.Sprintf("Instructions: %d", len(result.Instructions)))
		fmt.Print(result.FormatDisassembly())
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <code>",
	Short: "Explain a compile error code (e.g. E0004)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		text, ok := flareerrors.Explain(flareerrors.Code(args[0]))
		if !ok {
			return fmt.Errorf("no explanation for code %s", args[0])
		}
		fmt.Println(text)
		return nil
	},
}

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Start an interactive session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return repl.New(os.Stdin, os.Stdout, version).Start()
	},
}

var watchExec bool

var watchCmd = &cobra.Command{
	Use:   "watch <source> <out>",
	Short: "Rebuild on every source change",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		srcPath, outPath := args[0], args[1]

		rebuild := func() {
			result, err := buildFile(cmd.Context(), srcPath, outPath)
			if err != nil {
				printError(err)
				return
			}
			if watchExec {
				if err := runInstructions(cmd.Context(), result.instructions); err != nil {
					printError(err)
				}
			}
		}
		rebuild()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("failed to create watcher: %w", err)
		}
		defer watcher.Close()

		// Watch the file's directory (more reliable for editors that do
		// atomic saves).
		dir := filepath.Dir(srcPath)
		filename := filepath.Base(srcPath)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch directory: %w", err)
		}
		printInfo(fmt.Sprintf("Watching %s", srcPath))

		var debounceTimer *time.Timer
		debounceDelay := time.Duration(cfg.WatchDebounceMs) * time.Millisecond

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					if debounceTimer != nil {
						debounceTimer.Stop()
					}
					debounceTimer = time.AfterFunc(debounceDelay, func() {
						printWarning("File changed, rebuilding...")
						rebuild()
					})
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				printError(fmt.Errorf("watcher error: %w", err))
			}
		}
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchExec, "exec", false, "run the program after each rebuild")
}
