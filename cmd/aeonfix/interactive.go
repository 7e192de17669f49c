package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/console"
	"github.com/Th3phylosoph3r/aeon-fix/internal/orchestrator"
	"github.com/Th3phylosoph3r/aeon-fix/internal/perception"
)

// runInteractive is the default session: welcome, model selection,
// proactive health report, then the verb loop.
func runInteractive(ctx context.Context) error {
	ui := console.New()
	ui.Info("AeonFix - local PC diagnostic assistant")
	ui.Info("All suggested commands require your confirmation before running.")

	engine, err := perception.NewClient(cfg.LLM)
	if err != nil {
		return err
	}
	if err := selectModel(ctx, ui, engine); err != nil {
		return err
	}

	o, store, err := buildOrchestrator(ui)
	if err != nil {
		return err
	}
	sessionID := store.TouchSession()
	logger.Debug("session started", zap.String("session_id", sessionID))

	report := o.Report(ctx)
	store.SetSystemInfo(report.Snapshot)

	if ui.Confirm("Run a proactive health report first?", true) {
		o.StepwiseHealthReport(ctx, report)
	}

	ui.Info("You can now:")
	ui.Info("  - describe a problem to diagnose it")
	ui.Info("  - 'scan' to refresh the system report")
	ui.Info("  - 'report' to rerun the health report")
	ui.Info("  - 'run: <command>' to execute a single command")
	ui.Info("  - 'execute <tool>' to launch a Windows diagnostic tool")
	ui.Info("  - 'exit' to quit")

	for {
		if ctx.Err() != nil {
			return nil
		}
		input := ui.ReadLine("\nWhat would you like to do? ")
		lower := strings.ToLower(input)

		switch {
		case input == "":
			continue
		case lower == "exit" || lower == "quit":
			ui.Success("Exiting AeonFix. Goodbye!")
			return nil
		case lower == "scan":
			report = o.Report(ctx)
			store.SetSystemInfo(report.Snapshot)
			printReport(ui, report)
		case lower == "report":
			o.StepwiseHealthReport(ctx, report)
		case strings.HasPrefix(lower, "run:"):
			command := strings.TrimSpace(input[len("run:"):])
			if command == "" {
				ui.Error("No command specified.")
				continue
			}
			o.DirectRun(ctx, command)
		case strings.HasPrefix(lower, "execute "):
			o.LaunchTool(input[len("execute "):])
		default:
			// Anything else is a problem description.
			o.Diagnose(ctx, input, report)
		}
	}
}

// selectModel fills cfg.LLM.Model, prompting with a numbered list when
// the backend offers more than one.
func selectModel(ctx context.Context, ui *console.Console, engine perception.LLMClient) error {
	if cfg.LLM.Model != "" {
		return nil
	}
	models, err := engine.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("listing models (is the LLM backend running?): %w", err)
	}
	switch len(models) {
	case 0:
		return fmt.Errorf("no models available; pull one first")
	case 1:
		cfg.LLM.Model = models[0]
	default:
		cfg.LLM.Model = models[ui.Choose("Select a model:", models, 0)]
	}
	ui.Info("Using model %s", cfg.LLM.Model)
	return nil
}

func printReport(ui *console.Console, report *orchestrator.SystemReport) {
	ui.Info("Collected %d recent log entries.", len(report.Logs))
	patterns := perception.FormatPatterns(report.Patterns)
	ui.Markdown("**Log analysis patterns:**\n\n" + patterns)
	if len(report.Logs) > 0 {
		ui.Markdown(perception.FormatLogLines(report.Logs))
	}
}

func joinArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if strings.ContainsAny(a, " \t") {
			quoted[i] = `"` + a + `"`
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}
