package perception

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
	"github.com/Th3phylosoph3r/aeon-fix/internal/logscan"
	"github.com/Th3phylosoph3r/aeon-fix/internal/sysinfo"
)

func configWithProvider(p string) config.LLMConfig {
	cfg := config.Default().LLM
	cfg.Provider = p
	return cfg
}

func TestFormatPatterns_Empty(t *testing.T) {
	text := FormatPatterns(&logscan.Patterns{})
	assert.Contains(t, text, "No specific error patterns")
}

func TestFormatPatterns_TopLimits(t *testing.T) {
	p := &logscan.Patterns{
		SuspiciousApps: []string{"Discord"},
		FrequentSources: []logscan.SourceStat{
			{Source: "a", Count: 9}, {Source: "b", Count: 8}, {Source: "c", Count: 7},
			{Source: "d", Count: 6}, {Source: "e", Count: 5}, {Source: "f", Count: 4},
		},
		ErrorClusters: []logscan.Cluster{
			{Start: "2026-08-30 10:00", End: "2026-08-30 11:00", Count: 12},
		},
	}
	text := FormatPatterns(p)
	assert.Contains(t, text, "Discord")
	assert.Contains(t, text, "e: 5 occurrences")
	assert.NotContains(t, text, "f: 4 occurrences", "only the top five sources are shown")
	assert.Contains(t, text, "12 errors between")
}

func TestIntermediatePrompt_ContainsVerdictContract(t *testing.T) {
	prompt := IntermediatePrompt("PC is slow", []string{"sfc /scannow"}, StepOutcome{
		Command:   "chkdsk C:",
		Executed:  true,
		Confirmed: true,
		Succeeded: false,
		ExitCode:  1,
		Error:     "access denied",
	}, "driverquery")

	for _, want := range []string{
		"`PROCEED`", "`SUGGEST_NEW`", "`STOP`",
		"[[*** new_command_here ***]]",
		"`chkdsk C:`",
		"`driverquery`",
		"access denied",
	} {
		assert.Contains(t, prompt, want)
	}
}

func TestIntermediatePrompt_LastStepSaysNone(t *testing.T) {
	prompt := IntermediatePrompt("p", nil, StepOutcome{Command: "sfc /scannow"}, "")
	assert.Contains(t, prompt, "None (this was the last planned step)")
}

func TestIntermediatePrompt_TruncatesOutput(t *testing.T) {
	long := strings.Repeat("x", 2000)
	prompt := IntermediatePrompt("p", nil, StepOutcome{Command: "c", Output: long}, "")
	assert.NotContains(t, prompt, long)
	assert.Contains(t, prompt, strings.Repeat("x", 500)+"...")
}

func TestInitialAnalysisPrompt_SpanRules(t *testing.T) {
	snap := &sysinfo.Snapshot{OS: map[string]string{"system": "linux"}}
	prompt := InitialAnalysisPrompt("boot is slow", snap, nil, &logscan.Patterns{},
		[]PreviousIssue{{Timestamp: "2026-08-29T10:00:00Z", Description: "disk errors", Resolved: true}})

	assert.Contains(t, prompt, "boot is slow")
	assert.Contains(t, prompt, "[[*** sfc /scannow ***]]")
	assert.Contains(t, prompt, "[[URL:")
	assert.Contains(t, prompt, "disk errors (Resolved: true)")
	assert.Contains(t, prompt, "OS: linux")
}

func TestFormatLogLines_CapsAtFifteen(t *testing.T) {
	entries := make([]logscan.Entry, 20)
	for i := range entries {
		entries[i] = logscan.Entry{Message: "m", Provider: "p"}
	}
	text := FormatLogLines(entries)
	assert.Equal(t, maxPromptLogLines, strings.Count(text, "\n- "))
}
