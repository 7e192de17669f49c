package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/actionlog"
	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
	"github.com/Th3phylosoph3r/aeon-fix/internal/console"
	"github.com/Th3phylosoph3r/aeon-fix/internal/extract"
	"github.com/Th3phylosoph3r/aeon-fix/internal/logging"
	"github.com/Th3phylosoph3r/aeon-fix/internal/logscan"
	"github.com/Th3phylosoph3r/aeon-fix/internal/memory"
	"github.com/Th3phylosoph3r/aeon-fix/internal/orchestrator"
	"github.com/Th3phylosoph3r/aeon-fix/internal/perception"
	"github.com/Th3phylosoph3r/aeon-fix/internal/safety"
	"github.com/Th3phylosoph3r/aeon-fix/internal/sysinfo"
	"github.com/Th3phylosoph3r/aeon-fix/internal/tactile"
)

var (
	verbose    bool
	configPath string
	modelFlag  string

	logger *zap.Logger
	cfg    *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "aeonfix",
	Short: "AeonFix - interactive LLM-assisted PC diagnostics",
	Long: `AeonFix is a local diagnostic assistant. It collects system
information and recent error logs, asks a local LLM for a diagnosis,
and walks you through the suggested commands one at a time. Every
command requires your explicit confirmation before it runs.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if logger, err = logging.New(verbose); err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
		if modelFlag != "" {
			cfg.LLM.Model = modelFlag
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractive(cmd.Context())
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Collect a system report and print the detected log patterns",
	RunE: func(cmd *cobra.Command, args []string) error {
		ui := console.New()
		o, store, err := buildOrchestrator(ui)
		if err != nil {
			return err
		}
		report := o.Report(cmd.Context())
		store.SetSystemInfo(report.Snapshot)
		printReport(ui, report)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate a proactive LLM health report",
	RunE: func(cmd *cobra.Command, args []string) error {
		ui := console.New()
		o, _, err := buildOrchestrator(ui)
		if err != nil {
			return err
		}
		o.StepwiseHealthReport(cmd.Context(), nil)
		return nil
	},
}

var runCmd = &cobra.Command{
	Use:   "run [command...]",
	Short: "Execute a single command with confirmation and remember it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ui := console.New()
		o, _, err := buildOrchestrator(ui)
		if err != nil {
			return err
		}
		o.DirectRun(cmd.Context(), joinArgs(args))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.aeonfix/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&modelFlag, "model", "m", "", "LLM model name")
	rootCmd.AddCommand(scanCmd, reportCmd, runCmd)
}

// buildOrchestrator wires the full dependency graph from config. The
// memory store is returned alongside so callers share the one
// write-through document instead of opening a second store on the same
// file.
func buildOrchestrator(ui *console.Console) (*orchestrator.Orchestrator, *memory.Store, error) {
	engine, err := perception.NewClient(cfg.LLM)
	if err != nil {
		return nil, nil, err
	}

	store := memory.NewStore(cfg.Memory, logger)
	audit := actionlog.New(cfg.ActionLog.Path, logger)
	classifier := safety.NewClassifier(cfg.Safety)
	executor := tactile.NewExecutor(cfg.Execution, classifier, ui, logger)
	executor.SetReporter(func(r tactile.Result) {
		audit.Append("command_execution", r.Succeeded, map[string]any{
			"command":   r.Command,
			"exit_code": r.ExitCode,
			"failure":   string(r.Failure),
			"shell":     r.UsedShell,
			"duration":  r.Duration.String(),
		})
	})

	return orchestrator.New(orchestrator.Deps{
		UI:        ui,
		Executor:  executor,
		Engine:    engine,
		Extractor: extract.New(),
		Memory:    store,
		Audit:     audit,
		SysInfo:   sysinfo.NewCollector(logger),
		Logs:      logscan.NewCollector(cfg.Analysis.MaxLogEntries, logger),
		Analyzer:  logscan.NewAnalyzer(cfg.Analysis.MinClusterSize, cfg.Analysis.MaxGapHours),
		Logger:    logger,
	}), store, nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if ctx.Err() != nil {
			fmt.Fprintln(os.Stderr, "\nInterrupted. Goodbye!")
			os.Exit(130)
		}
		os.Exit(1)
	}
}
