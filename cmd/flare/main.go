package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DomioKing653/Flare/pkg/config"
	"github.com/DomioKing653/Flare/pkg/logging"
	"github.com/DomioKing653/Flare/pkg/metrics"
	"github.com/DomioKing653/Flare/pkg/tracing"
)

const version = "0.3.0"

// Shared toolchain state, initialized once before any command runs.
var (
	cfg            *config.Config
	logger         *logging.Logger
	tracerProvider *tracing.TracerProvider
	toolMetrics    *metrics.Metrics
)

// Flag values; --opt-level and --log-level override the config file whenever
// given, --log-json, --trace and --metrics only when set to a non-zero value.
var (
	flagConfig   string
	flagOptLevel int
	flagDebug    bool
	flagLogLevel string
	flagLogJSON  bool
	flagTrace    bool
	flagMetrics  string
)

var rootCmd = &cobra.Command{
	Use:           "flare",
	Short:         "The Flare language toolchain",
	Long:          "Compile Flare source to bytecode and execute it on the Flare virtual machine.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		teardown()
	},
}

func setup(cmd *cobra.Command) error {
	var err error
	cfg, err = config.Load(flagConfig)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("opt-level") {
		cfg.OptLevel = flagOptLevel
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = flagLogLevel
	}
	if flagLogJSON {
		cfg.LogFormat = "json"
	}
	if flagTrace {
		cfg.TraceEnabled = true
	}
	if flagMetrics != "" {
		cfg.MetricsAddr = flagMetrics
	}

	format := logging.TextFormat
	if cfg.LogFormat == "json" {
		format = logging.JSONFormat
	}
	logger, err = logging.NewLogger(logging.LoggerConfig{
		MinLevel: logging.ParseLevel(cfg.LogLevel),
		Format:   format,
		FilePath: cfg.LogFile,
	})
	if err != nil {
		return err
	}

	tracerProvider, err = tracing.InitTracing(&tracing.Config{
		ServiceName:    "flare",
		ServiceVersion: version,
		ExporterType:   cfg.TraceExporter,
		OTLPEndpoint:   cfg.TraceEndpoint,
		SamplingRate:   cfg.TraceSampling,
		Enabled:        cfg.TraceEnabled,
	})
	if err != nil {
		return err
	}

	toolMetrics = metrics.NewMetrics(metrics.DefaultConfig())
	if cfg.MetricsAddr != "" {
		go func() {
			if err := toolMetrics.Serve(cfg.MetricsAddr); err != nil {
				logger.Error("metrics endpoint failed", map[string]interface{}{"error": err.Error()})
			}
		}()
	}
	return nil
}

func teardown() {
	if tracerProvider != nil {
		tracerProvider.Shutdown(context.Background())
	}
	if logger != nil {
		logger.Close()
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "path to flare.yaml")
	rootCmd.PersistentFlags().IntVar(&flagOptLevel, "opt-level", 1, "optimization level (0 disables)")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false, "dump tokens, AST and instructions")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flagLogJSON, "log-json", false, "log in JSON format")
	rootCmd.PersistentFlags().BoolVar(&flagTrace, "trace", false, "trace build and run phases")
	rootCmd.PersistentFlags().StringVar(&flagMetrics, "metrics", "", "serve Prometheus metrics on this address")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(execCmd)
	rootCmd.AddCommand(disasmCmd)
	rootCmd.AddCommand(explainCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		if se, ok := err.(*stageError); ok {
			os.Exit(se.ExitCode())
		}
		os.Exit(1)
	}
	// A program's processExit status becomes the CLI's exit status.
	if exitStatus != 0 {
		os.Exit(exitStatus)
	}
}

// exitStatus carries a VM ProcessExit status out of command handlers.
var exitStatus int

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the toolchain version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flare %s\n", version)
	},
}
