package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/actionlog"
	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
	"github.com/Th3phylosoph3r/aeon-fix/internal/extract"
	"github.com/Th3phylosoph3r/aeon-fix/internal/memory"
	"github.com/Th3phylosoph3r/aeon-fix/internal/tactile"
)

// scriptedUI answers Confirm calls from a queue and records output.
type scriptedUI struct {
	confirms []bool
	messages []string
}

func (u *scriptedUI) record(format string, args ...any) {
	u.messages = append(u.messages, fmt.Sprintf(format, args...))
}

func (u *scriptedUI) Info(format string, args ...any)    { u.record(format, args...) }
func (u *scriptedUI) Success(format string, args ...any) { u.record(format, args...) }
func (u *scriptedUI) Warning(format string, args ...any) { u.record(format, args...) }
func (u *scriptedUI) Error(format string, args ...any)   { u.record(format, args...) }
func (u *scriptedUI) Markdown(text string)               { u.messages = append(u.messages, text) }
func (u *scriptedUI) Step(title, detail string, _, _ int) {
	u.messages = append(u.messages, title, detail)
}

func (u *scriptedUI) Confirm(string, bool) bool {
	if len(u.confirms) == 0 {
		return true
	}
	answer := u.confirms[0]
	u.confirms = u.confirms[1:]
	return answer
}

// scriptedExecutor returns canned results per command and records the
// order of execution.
type scriptedExecutor struct {
	results  map[string]*tactile.Result
	executed []string
}

func (e *scriptedExecutor) Execute(_ context.Context, req tactile.Request) (*tactile.Result, error) {
	e.executed = append(e.executed, req.Text)
	if r, ok := e.results[req.Text]; ok {
		return r, nil
	}
	return &tactile.Result{Command: req.Text, Succeeded: true, ExitCode: 0}, nil
}

// scriptedEngine replies with queued responses.
type scriptedEngine struct {
	responses []string
	prompts   []string
}

func (e *scriptedEngine) Complete(ctx context.Context, prompt string) (string, error) {
	return e.CompleteWithSystem(ctx, "", prompt)
}

func (e *scriptedEngine) CompleteWithSystem(_ context.Context, _, prompt string) (string, error) {
	e.prompts = append(e.prompts, prompt)
	if len(e.responses) == 0 {
		return "", fmt.Errorf("engine unreachable")
	}
	r := e.responses[0]
	e.responses = e.responses[1:]
	return r, nil
}

func (e *scriptedEngine) ListModels(context.Context) ([]string, error) { return nil, nil }

func commandItems(values ...string) []extract.ActionItem {
	items := make([]extract.ActionItem, len(values))
	for i, v := range values {
		items[i] = extract.ActionItem{Kind: extract.KindCommand, Value: v, Context: "test step"}
	}
	return items
}

func testOrchestrator(t *testing.T, ui *scriptedUI, exec *scriptedExecutor, engine *scriptedEngine) *Orchestrator {
	t.Helper()
	dir := t.TempDir()
	o := New(Deps{
		UI:        ui,
		Executor:  exec,
		Engine:    engine,
		Extractor: extract.New(),
		Memory: memory.NewStore(config.MemoryConfig{
			Path: filepath.Join(dir, "memory.json"), MaxListItems: 20, MaxSummaries: 10,
		}, zap.NewNop()),
		Audit: actionlog.New(filepath.Join(dir, "actions.json"), zap.NewNop()),
	})
	o.lookPath = func(string) bool { return true }
	return o
}

func TestRunPlan_AllStepsSucceedCompletesWithoutFinalConsultation(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{}
	// One consultation after the first step only; the successful final
	// step must not trigger another round.
	engine := &scriptedEngine{responses: []string{"PROCEED. Keep going."}}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "slow pc", "", commandItems("step-a", "step-b"))

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, []string{"step-a", "step-b"}, exec.executed)
	assert.Len(t, engine.prompts, 1, "no consultation after the successful last step")
	require.Len(t, outcome.History, 2)
	assert.True(t, outcome.History[1].Succeeded)
}

func TestRunPlan_CycleGuardStopsSecondOccurrence(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{}
	engine := &scriptedEngine{responses: []string{"PROCEED.", "PROCEED."}}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a", "step-b", "step-a"))

	assert.Equal(t, StateStopped, outcome.State)
	assert.Contains(t, outcome.Reason, "repeated command")
	assert.Equal(t, []string{"step-a", "step-b"}, exec.executed,
		"the repeated command must not execute a second time")
}

func TestRunPlan_SuggestNewInsertsAfterCursor(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{results: map[string]*tactile.Result{
		"step-a": {Command: "step-a", Succeeded: false, ExitCode: 1, Stderr: "boom"},
	}}
	engine := &scriptedEngine{responses: []string{
		"SUGGEST_NEW. step-a failed, try this first. [[*** step-c ***]]",
		"PROCEED. Carry on.",
	}}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a", "step-b"))

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, []string{"step-a", "step-c", "step-b"}, exec.executed,
		"inserted command runs next, then the original plan resumes")
}

func TestRunPlan_SuggestNewDeclinedStops(t *testing.T) {
	ui := &scriptedUI{confirms: []bool{
		true,  // proceed with execution
		false, // decline the suggested command
	}}
	exec := &scriptedExecutor{results: map[string]*tactile.Result{
		"step-a": {Command: "step-a", Succeeded: false, ExitCode: 1},
	}}
	engine := &scriptedEngine{responses: []string{"SUGGEST_NEW. [[*** step-c ***]]"}}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a", "step-b"))

	assert.Equal(t, StateStopped, outcome.State)
	assert.Equal(t, []string{"step-a"}, exec.executed)
}

func TestRunPlan_SuggestNewWithoutCommandStops(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{results: map[string]*tactile.Result{
		"step-a": {Command: "step-a", Succeeded: false, ExitCode: 1},
	}}
	engine := &scriptedEngine{responses: []string{"SUGGEST_NEW. Hmm, something else."}}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a"))
	assert.Equal(t, StateStopped, outcome.State)
	assert.Contains(t, outcome.Reason, "suggestion missing command")
}

func TestRunPlan_UserDeclineStopsLoop(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{results: map[string]*tactile.Result{
		"step-a": {Command: "step-a", Failure: tactile.FailureDeclined, ExitCode: -1},
	}}
	engine := &scriptedEngine{}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a", "step-b"))

	assert.Equal(t, StateStopped, outcome.State)
	assert.Contains(t, outcome.Reason, "user declined")
	require.Len(t, outcome.History, 1)
	assert.False(t, outcome.History[0].Confirmed)
	assert.Empty(t, engine.prompts, "a declined step is never consulted on")
}

func TestRunPlan_ConsultationFailureStops(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{results: map[string]*tactile.Result{
		"step-a": {Command: "step-a", Succeeded: false, ExitCode: 1},
	}}
	engine := &scriptedEngine{} // empty queue: engine errors
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a"))
	assert.Equal(t, StateStopped, outcome.State)
	assert.Equal(t, "consultation failure", outcome.Reason)
}

func TestRunPlan_UnparseableVerdictStops(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{results: map[string]*tactile.Result{
		"step-a": {Command: "step-a", Succeeded: false, ExitCode: 1},
	}}
	engine := &scriptedEngine{responses: []string{"Well, it depends."}}
	o := testOrchestrator(t, ui, exec, engine)

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("step-a", "step-b"))
	assert.Equal(t, StateStopped, outcome.State)
	assert.Equal(t, []string{"step-a"}, exec.executed)
}

func TestRunPlan_PrecheckSkipAdvances(t *testing.T) {
	ui := &scriptedUI{confirms: []bool{
		true,  // proceed with execution
		false, // do not attempt the missing executable
	}}
	exec := &scriptedExecutor{}
	engine := &scriptedEngine{}
	o := testOrchestrator(t, ui, exec, engine)
	o.lookPath = func(name string) bool { return name != "not-installed" }

	outcome := o.RunPlan(context.Background(), "p", "",
		commandItems("not-installed --flag", "step-b"))

	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, []string{"step-b"}, exec.executed,
		"the missing executable is skipped, not run and not fatal")
}

func TestRunPlan_PrecheckSkipsKnownBuiltins(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{}
	engine := &scriptedEngine{}
	o := testOrchestrator(t, ui, exec, engine)
	o.lookPath = func(string) bool {
		t.Fatal("lookPath must not be called for a known builtin")
		return false
	}

	outcome := o.RunPlan(context.Background(), "p", "", commandItems("chkdsk C:"))
	assert.Equal(t, StateCompleted, outcome.State)
	assert.Equal(t, []string{"chkdsk C:"}, exec.executed)
}

func TestRunPlan_ExecutedCommandsReachMemory(t *testing.T) {
	ui := &scriptedUI{}
	exec := &scriptedExecutor{}
	engine := &scriptedEngine{responses: []string{"PROCEED."}}
	o := testOrchestrator(t, ui, exec, engine)

	o.RunPlan(context.Background(), "p", "", commandItems("step-a", "step-b"))

	history := o.store.Document().CommandHistory
	require.Len(t, history, 2)
	assert.Equal(t, "step-b", history[0].Command, "newest first")
}

func TestSessionPlan_InsertAfterCursor(t *testing.T) {
	plan := NewSessionPlan(commandItems("a", "b"))
	plan.InsertAfterCursor(extract.ActionItem{Kind: extract.KindCommand, Value: "c"})

	require.Len(t, plan.Items, 3)
	assert.Equal(t, "a", plan.Items[0].Value)
	assert.Equal(t, "c", plan.Items[1].Value)
	assert.Equal(t, "b", plan.Items[2].Value)
	assert.Equal(t, 1, plan.Cursor, "cursor lands on the inserted step")
}

func TestResolvePurpose(t *testing.T) {
	t.Run("item context wins", func(t *testing.T) {
		item := extract.ActionItem{Value: "sfc /scannow", Context: "Check system files"}
		assert.Equal(t, "Check system files", resolvePurpose(item, "irrelevant"))
	})

	t.Run("placeholder falls back to analysis text", func(t *testing.T) {
		item := extract.ActionItem{Value: "chkdsk C:", Context: "No context found."}
		analysis := "First inspect the logs. Then run chkdsk C: to examine the disk."
		assert.Equal(t, "Then run chkdsk C: to examine the disk.", resolvePurpose(item, analysis))
	})

	t.Run("nothing found yields placeholder", func(t *testing.T) {
		item := extract.ActionItem{Value: "driverquery", Context: ""}
		assert.Equal(t, noPurpose, resolvePurpose(item, "totally unrelated text"))
	})
}

func TestLaunchTool_KnownToolIsLaunchedAndRemembered(t *testing.T) {
	ui := &scriptedUI{}
	o := testOrchestrator(t, ui, &scriptedExecutor{}, &scriptedEngine{})
	var launched []string
	o.launch = func(name string) error {
		launched = append(launched, name)
		return nil
	}

	o.LaunchTool("  EventVwr.msc ")

	assert.Equal(t, []string{"eventvwr.msc"}, launched, "name lowercased and trimmed")
	history := o.store.Document().CommandHistory
	require.Len(t, history, 1)
	assert.Equal(t, "start eventvwr.msc", history[0].Command)
	assert.True(t, history[0].Success)
}

func TestLaunchTool_UnknownToolIsRejected(t *testing.T) {
	ui := &scriptedUI{}
	o := testOrchestrator(t, ui, &scriptedExecutor{}, &scriptedEngine{})
	o.launch = func(string) error {
		t.Fatal("unknown tool must not be launched")
		return nil
	}

	o.LaunchTool("format")

	assert.Empty(t, o.store.Document().CommandHistory)
	require.NotEmpty(t, ui.messages)
	assert.Contains(t, ui.messages[0], "Unknown or unsupported tool")
}

func TestLaunchTool_LaunchFailureIsNotRemembered(t *testing.T) {
	ui := &scriptedUI{}
	o := testOrchestrator(t, ui, &scriptedExecutor{}, &scriptedEngine{})
	o.launch = func(string) error { return fmt.Errorf("no display") }

	o.LaunchTool("taskmgr")

	assert.Empty(t, o.store.Document().CommandHistory)
}
