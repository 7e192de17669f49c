// Package orchestrator drives the interactive diagnostic session: it
// turns an engine analysis into a plan, walks it step by step under
// user confirmation, and re-plans between steps from the engine's
// verdicts.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/actionlog"
	"github.com/Th3phylosoph3r/aeon-fix/internal/extract"
	"github.com/Th3phylosoph3r/aeon-fix/internal/logscan"
	"github.com/Th3phylosoph3r/aeon-fix/internal/memory"
	"github.com/Th3phylosoph3r/aeon-fix/internal/perception"
	"github.com/Th3phylosoph3r/aeon-fix/internal/sysinfo"
	"github.com/Th3phylosoph3r/aeon-fix/internal/tactile"
)

// UI is the slice of the console the loop needs. It is an interface so
// session tests can script the operator's answers.
type UI interface {
	Info(format string, args ...any)
	Success(format string, args ...any)
	Warning(format string, args ...any)
	Error(format string, args ...any)
	Markdown(text string)
	Step(title, detail string, index, total int)
	Confirm(question string, defaultYes bool) bool
}

// Executor is the slice of tactile.Executor the loop needs.
type Executor interface {
	Execute(ctx context.Context, req tactile.Request) (*tactile.Result, error)
}

// knownBuiltins are tool names the existence pre-check skips: shell
// builtins and stock utilities that `where`/LookPath may not resolve
// even though the shell runs them fine.
var knownBuiltins = map[string]bool{
	"cmd": true, "powershell": true, "ren": true, "copy": true, "del": true,
	"dir": true, "move": true, "rd": true, "md": true, "echo": true,
	"set": true, "net": true, "chkdsk": true, "regsvr32": true, "sfc": true,
	"wmic": true, "tasklist": true, "ipconfig": true, "systeminfo": true,
	"driverquery": true, "where": true, "start": true, "msinfo32": true,
	"dxdiag": true, "devmgmt.msc": true, "eventvwr.msc": true,
	"services.msc": true, "taskmgr": true, "perfmon": true, "winver": true,
	"control": true, "mdsched.exe": true,
	"cd": true, "sh": true, "bash": true, "type": true, "source": true,
}

// Deps bundles the collaborators a session needs.
type Deps struct {
	UI        UI
	Executor  Executor
	Engine    perception.LLMClient
	Extractor *extract.Extractor
	Memory    *memory.Store
	Audit     *actionlog.Log
	SysInfo   *sysinfo.Collector
	Logs      *logscan.Collector
	Analyzer  *logscan.Analyzer
	Logger    *zap.Logger
}

// Orchestrator owns one diagnostic session.
type Orchestrator struct {
	ui        UI
	executor  Executor
	engine    perception.LLMClient
	extractor *extract.Extractor
	store     *memory.Store
	audit     *actionlog.Log
	sys       *sysinfo.Collector
	logs      *logscan.Collector
	analyzer  *logscan.Analyzer
	logger    *zap.Logger

	// lookPath and launch are swappable in tests.
	lookPath func(name string) bool
	launch   func(name string) error
}

func New(d Deps) *Orchestrator {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Orchestrator{
		ui:        d.UI,
		executor:  d.Executor,
		engine:    d.Engine,
		extractor: d.Extractor,
		store:     d.Memory,
		audit:     d.Audit,
		sys:       d.SysInfo,
		logs:      d.Logs,
		analyzer:  d.Analyzer,
		logger:    d.Logger,
		lookPath:  tactile.Available,
		launch:    startTool,
	}
}

// Outcome is what a finished session reports.
type Outcome struct {
	State   State
	Reason  string
	History []Attempt
}

// RunPlan executes the command items extracted from an engine analysis.
// problem is the user's original description; analysisText is the full
// engine response the items came from (used for purpose re-derivation).
func (o *Orchestrator) RunPlan(ctx context.Context, problem, analysisText string, items []extract.ActionItem) *Outcome {
	o.surfaceURLs(extract.URLs(items))

	commands := extract.Commands(items)
	if len(commands) == 0 {
		o.ui.Info("No executable commands were suggested in the analysis.")
		return &Outcome{State: StateCompleted, Reason: "nothing to execute"}
	}

	if !o.ui.Confirm("Proceed with executing the suggested commands one by one?", true) {
		o.ui.Warning("Command execution skipped.")
		return &Outcome{State: StateStopped, Reason: "user skipped execution"}
	}

	plan := NewSessionPlan(commands)
	state := StateRunning
	reason := ""

	for state == StateRunning {
		if plan.Done() {
			state = StateCompleted
			reason = "all planned steps processed"
			break
		}
		state, reason = o.runStep(ctx, plan, problem, analysisText)
	}

	outcome := &Outcome{State: state, Reason: reason, History: plan.History}
	o.printSummary(outcome)
	return outcome
}

// runStep processes the item under the cursor and returns the next
// loop state: StateRunning to keep going, or a terminal state.
func (o *Orchestrator) runStep(ctx context.Context, plan *SessionPlan, problem, analysisText string) (State, string) {
	item := plan.Current()
	command := item.Value
	purpose := resolvePurpose(item, analysisText)

	o.ui.Step(fmt.Sprintf("Executing step: %s", command), "Purpose: "+purpose,
		plan.Cursor+1, len(plan.Items))

	// Cycle guard. Re-running the same literal command means the plan
	// is looping, not converging.
	if plan.Seen(command) {
		o.ui.Warning("Command %q was already attempted in this session. Stopping to prevent a loop.", command)
		return StateStopped, "repeated command: " + command
	}

	if skip, stop := o.precheck(command); stop {
		return StateStopped, "pre-check declined"
	} else if skip {
		plan.Cursor++
		return StateRunning, ""
	}

	result, err := o.executor.Execute(ctx, tactile.Request{
		Text:                command,
		Explanation:         purpose,
		RequireConfirmation: true,
	})
	if err != nil {
		o.ui.Error("Execution infrastructure failed: %v", err)
		return StateStopped, "executor failure: " + err.Error()
	}

	attempt := attemptFrom(result)
	plan.MarkAttempted(attempt)

	if attempt.Executed {
		o.store.AddCommand(command, attempt.Succeeded, attempt.ExitCode)
	}

	if !attempt.Confirmed {
		o.ui.Warning("Execution of %q declined. Stopping the sequence.", command)
		return StateStopped, "user declined: " + command
	}

	o.reportStep(command, result)

	// A successful final step needs no further consultation.
	if attempt.Executed && attempt.Succeeded && plan.AtLastStep() {
		return StateCompleted, "final step succeeded"
	}

	return o.consult(ctx, plan, problem, attempt)
}

// precheck probes whether the command's executable exists. Returns
// skip=true to advance past the step without running it, stop=true to
// end the loop.
func (o *Orchestrator) precheck(command string) (skip, stop bool) {
	name := extract.FirstToken(command)
	if name == "" || knownBuiltins[strings.ToLower(name)] ||
		strings.ContainsAny(name, `/\`) {
		return false, false
	}
	if o.lookPath(name) {
		return false, false
	}

	o.ui.Warning("Executable %q was not found on PATH. It might be a typo or require installation.", name)
	if o.ui.Confirm("Attempt to run the command anyway?", false) {
		return false, false
	}
	o.audit.Append("command_skipped", false, map[string]any{
		"command": command,
		"reason":  "executable not found, user skipped",
	})
	o.ui.Info("Skipping this step.")
	return true, false
}

// consult runs the intermediate analysis round and applies the verdict.
func (o *Orchestrator) consult(ctx context.Context, plan *SessionPlan, problem string, attempt Attempt) (State, string) {
	o.ui.Info("Asking the decision engine to review the last step...")

	history := make([]string, 0, len(plan.History))
	for _, a := range plan.History {
		history = append(history, a.Command)
	}

	prompt := perception.IntermediatePrompt(problem, history, perception.StepOutcome{
		Command:   attempt.Command,
		Executed:  attempt.Executed,
		Confirmed: attempt.Confirmed,
		Succeeded: attempt.Succeeded,
		ExitCode:  attempt.ExitCode,
		Output:    attempt.Output,
		Error:     attempt.Error,
	}, plan.NextCommand())

	response, err := o.engine.CompleteWithSystem(ctx, perception.SystemPrompt, prompt)
	if err != nil {
		o.ui.Error("Consultation failed: %v. Stopping the sequence.", err)
		o.audit.Append("llm_error", false, map[string]any{"error": err.Error()})
		return StateStopped, "consultation failure"
	}
	o.ui.Markdown(response)

	switch perception.ParseVerdict(response) {
	case perception.VerdictProceed:
		o.ui.Info("Engine recommends proceeding with the original plan.")
		plan.Cursor++
		return StateRunning, ""

	case perception.VerdictSuggestNew:
		suggested := extract.Commands(o.extractor.Extract(response))
		if len(suggested) == 0 {
			o.ui.Warning("Engine said SUGGEST_NEW but provided no command. Stopping.")
			return StateStopped, "suggestion missing command"
		}
		item := suggested[0]
		o.ui.Warning("Engine suggests running %q instead of the next planned step.", item.Value)
		if !o.ui.Confirm(fmt.Sprintf("Execute the suggested new command %q?", item.Value), true) {
			return StateStopped, "user declined suggestion"
		}
		plan.InsertAfterCursor(item)
		return StateRunning, ""

	default:
		o.ui.Warning("Engine recommends stopping the automated sequence.")
		return StateStopped, "engine verdict: stop"
	}
}

func (o *Orchestrator) reportStep(command string, result *tactile.Result) {
	switch {
	case result.Succeeded:
		o.ui.Success("Command %q completed successfully.", command)
		if out := strings.TrimSpace(result.Stdout); out != "" {
			o.ui.Info("Output (truncated):\n%s", clip(out, 1000))
		}
	case result.Failure == tactile.FailureTimeout:
		o.ui.Error("Command %q timed out.", command)
	default:
		o.ui.Error("Command %q failed (exit code %d).", command, result.ExitCode)
		detail := strings.TrimSpace(result.Stderr)
		if detail == "" {
			detail = strings.TrimSpace(result.Stdout)
		}
		if detail != "" {
			o.ui.Info("Error output (truncated):\n%s", clip(detail, 1000))
		}
	}
}

// surfaceURLs offers the extracted links as a single up-front batch.
// URLs never enter the sequential loop.
func (o *Orchestrator) surfaceURLs(urls []string) {
	if len(urls) == 0 {
		return
	}
	for _, u := range urls {
		o.ui.Info("Suggested link: %s", u)
	}
	if !o.ui.Confirm(fmt.Sprintf("Open %d detected URL(s) in your browser?", len(urls)), true) {
		return
	}
	for _, u := range urls {
		if err := openBrowser(u); err != nil {
			o.ui.Error("Failed to open %s: %v", u, err)
			o.audit.Append("url_open_failed", false, map[string]any{"url": u, "error": err.Error()})
			continue
		}
		o.ui.Success("Opened %s", u)
		o.audit.Append("url_opened", true, map[string]any{"url": u})
	}
}

func (o *Orchestrator) printSummary(outcome *Outcome) {
	o.ui.Info("--- Session summary (%s: %s) ---", outcome.State, outcome.Reason)
	if len(outcome.History) == 0 {
		o.ui.Info("No commands were attempted.")
		return
	}
	for i, a := range outcome.History {
		status := "declined"
		switch {
		case a.Executed && a.Succeeded:
			status = "succeeded"
		case a.Executed:
			status = fmt.Sprintf("failed (exit %d)", a.ExitCode)
		case a.Confirmed:
			status = "did not run"
		}
		o.ui.Info("%d. %s - %s", i+1, a.Command, status)
	}
}

func attemptFrom(r *tactile.Result) Attempt {
	return Attempt{
		Command:   r.Command,
		Confirmed: r.Failure != tactile.FailureDeclined,
		Executed:  r.Failure == tactile.FailureNone || r.Failure == tactile.FailureTimeout,
		Succeeded: r.Succeeded,
		ExitCode:  r.ExitCode,
		Output:    r.Stdout,
		Error:     r.Stderr,
	}
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
