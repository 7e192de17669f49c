package orchestrator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/extract"
	"github.com/Th3phylosoph3r/aeon-fix/internal/logscan"
	"github.com/Th3phylosoph3r/aeon-fix/internal/perception"
	"github.com/Th3phylosoph3r/aeon-fix/internal/sysinfo"
	"github.com/Th3phylosoph3r/aeon-fix/internal/tactile"
)

// SystemReport is the full picture handed to the decision engine.
type SystemReport struct {
	Timestamp time.Time         `json:"timestamp"`
	Snapshot  *sysinfo.Snapshot `json:"snapshot"`
	Logs      []logscan.Entry   `json:"recent_logs"`
	Patterns  *logscan.Patterns `json:"log_patterns"`
}

// Report collects system info and recent logs and analyzes them.
func (o *Orchestrator) Report(ctx context.Context) *SystemReport {
	o.ui.Info("Generating system report...")
	entries := o.logs.Collect(ctx)
	report := &SystemReport{
		Timestamp: time.Now(),
		Snapshot:  o.sys.Collect(ctx),
		Logs:      entries,
		Patterns:  o.analyzer.Analyze(entries),
	}
	o.audit.Append("system_report", true, map[string]any{"log_count": len(entries)})
	return report
}

// Diagnose runs the full problem workflow: report, initial engine
// analysis, extraction, and the interactive execution loop.
func (o *Orchestrator) Diagnose(ctx context.Context, problem string, report *SystemReport) *Outcome {
	if report == nil {
		report = o.Report(ctx)
	}

	o.store.AddIssue(problem, false)
	o.audit.Append("problem_analysis", true, map[string]any{
		"problem":   problem,
		"log_count": len(report.Logs),
	})

	var previous []perception.PreviousIssue
	for _, issue := range o.store.Document().PreviousIssues {
		previous = append(previous, perception.PreviousIssue{
			Timestamp:   issue.Timestamp,
			Description: issue.Description,
			Resolved:    issue.Resolved,
		})
	}

	prompt := perception.InitialAnalysisPrompt(problem, report.Snapshot, report.Logs, report.Patterns, previous)
	o.ui.Info("Asking the decision engine for an initial analysis... (this may take a moment)")

	response, err := o.engine.CompleteWithSystem(ctx, perception.SystemPrompt, prompt)
	if err != nil {
		o.ui.Error("Initial analysis failed: %v", err)
		o.audit.Append("llm_error", false, map[string]any{"error": err.Error()})
		return &Outcome{State: StateStopped, Reason: "analysis failure"}
	}
	o.ui.Markdown(response)

	items := o.extractor.Extract(response)
	for _, item := range items {
		if item.Kind == extract.KindInvalidCommand {
			o.ui.Warning("Suggested command %q is not valid on this platform; it will be skipped.", item.Value)
		}
	}
	return o.RunPlan(ctx, problem, response, items)
}

// DirectRun executes a single user-entered command with confirmation
// and remembers it, outside any plan.
func (o *Orchestrator) DirectRun(ctx context.Context, command string) {
	result, err := o.executor.Execute(ctx, tactile.Request{Text: command, RequireConfirmation: true})
	if err != nil {
		o.ui.Error("Execution failed: %v", err)
		return
	}
	attempt := attemptFrom(result)
	if attempt.Executed {
		o.store.AddCommand(command, attempt.Succeeded, attempt.ExitCode)
	}
	o.reportStep(command, result)
}

// stepwiseOrder fixes the sequence of health report sections.
var stepwiseOrder = []string{
	"Operating System Info",
	"Hardware Info",
	"Network Info",
	"Event Logs",
	"Log Patterns",
}

// StepwiseHealthReport summarizes each diagnostic area with the engine,
// stores the intermediate summaries, and synthesizes a final report.
func (o *Orchestrator) StepwiseHealthReport(ctx context.Context, report *SystemReport) {
	if report == nil {
		report = o.Report(ctx)
	}

	data := map[string]any{
		"Operating System Info": report.Snapshot.OS,
		"Hardware Info":         report.Snapshot.Hardware,
		"Network Info":          report.Snapshot.Network,
		"Event Logs":            report.Logs,
		"Log Patterns":          report.Patterns,
	}

	summaries := map[string]string{}
	for i, title := range stepwiseOrder {
		o.ui.Step("Stepwise diagnostic: "+title, "", i+1, len(stepwiseOrder))
		prompt := perception.StepSummaryPrompt(title, data[title])
		summary, err := o.engine.CompleteWithSystem(ctx,
			"You are a helpful PC diagnostic assistant. Summarize "+title+" for a health report.", prompt)
		if err != nil {
			o.ui.Warning("No summary returned for %s: %v", title, err)
			summary = "No summary returned."
		} else {
			o.ui.Markdown(summary)
		}
		summaries[title] = summary
		o.store.AddSummary(title, summary)
	}

	o.ui.Step("Final synthesis", "Aggregating all stepwise summaries.", 0, 0)
	final, err := o.engine.CompleteWithSystem(ctx,
		"You are a helpful PC diagnostic assistant. Synthesize all stepwise summaries into a final health report.",
		perception.FinalSynthesisPrompt(summaries, stepwiseOrder))
	if err != nil {
		o.ui.Warning("No final health report returned: %v", err)
		o.logger.Warn("final synthesis failed", zap.Error(err))
		return
	}
	o.ui.Markdown(final)
	o.store.AddSummary("Final Synthesis", final)
}

// HealthReport runs the single-shot proactive assessment.
func (o *Orchestrator) HealthReport(ctx context.Context, report *SystemReport) {
	if report == nil {
		report = o.Report(ctx)
	}
	o.ui.Info("Analyzing system status and logs for a proactive health report...")
	analysis, err := o.engine.CompleteWithSystem(ctx,
		"You are a helpful and cautious PC diagnostic assistant providing a proactive health report.",
		perception.HealthReportPrompt(report.Snapshot, report.Logs, report.Patterns))
	if err != nil {
		o.ui.Warning("No health report returned: %v", err)
		return
	}
	o.ui.Markdown(analysis)
}
