package perception

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Th3phylosoph3r/aeon-fix/internal/logscan"
	"github.com/Th3phylosoph3r/aeon-fix/internal/sysinfo"
)

// The prompts below are the contract with the decision engine: they
// teach it the command-span and URL-span syntax and the verdict tokens
// the rest of the assistant parses. Changing the wording here changes
// protocol behavior.

// PreviousIssue is a compact view of a remembered problem, embedded in
// the initial analysis prompt.
type PreviousIssue struct {
	Timestamp   string
	Description string
	Resolved    bool
}

// StepOutcome summarizes one executed step for the intermediate
// consultation round.
type StepOutcome struct {
	Command   string
	Executed  bool
	Confirmed bool
	Succeeded bool
	ExitCode  int
	Output    string
	Error     string
}

const maxPromptLogLines = 15

// SystemPrompt is the default system message for consultations.
const SystemPrompt = "You are a helpful and cautious PC diagnostic assistant."

// FormatPatterns renders a pattern report as the bullet list the
// prompts embed.
func FormatPatterns(p *logscan.Patterns) string {
	var b strings.Builder
	if len(p.SuspiciousApps) > 0 {
		fmt.Fprintf(&b, "- Suspicious applications mentioned: %s\n", strings.Join(p.SuspiciousApps, ", "))
	}
	if n := len(p.AppCrashes); n > 0 {
		fmt.Fprintf(&b, "- Application crash events detected: %d\n", n)
	}
	if n := len(p.ServiceFailures); n > 0 {
		fmt.Fprintf(&b, "- Service failure events detected: %d\n", n)
	}
	if n := len(p.DriverIssues); n > 0 {
		fmt.Fprintf(&b, "- Potential driver issue events detected: %d\n", n)
	}
	if n := len(p.PermissionErrors); n > 0 {
		fmt.Fprintf(&b, "- Permission error events detected: %d\n", n)
	}
	if n := len(p.DiskErrors); n > 0 {
		fmt.Fprintf(&b, "- Potential disk error events detected: %d\n", n)
	}
	if len(p.FrequentSources) > 0 {
		b.WriteString("- Most frequent error/warning sources:\n")
		for i, src := range p.FrequentSources {
			if i == 5 {
				break
			}
			fmt.Fprintf(&b, "  - %s: %d occurrences (Levels: %s)\n",
				src.Source, src.Count, strings.Join(src.Levels, ", "))
		}
	}
	if len(p.ErrorClusters) > 0 {
		b.WriteString("- Significant error clusters (time periods with high error counts):\n")
		for i, cluster := range p.ErrorClusters {
			if i == 3 {
				break
			}
			fmt.Fprintf(&b, "  - %d errors between %s and %s\n",
				cluster.Count, cluster.Start, cluster.End)
		}
	}
	if b.Len() == 0 {
		return "No specific error patterns detected in the analyzed logs."
	}
	return b.String()
}

// FormatLogLines renders the most recent entries as prompt bullets.
func FormatLogLines(entries []logscan.Entry) string {
	if len(entries) == 0 {
		return "**Recent System Logs:**\nNo recent system logs found or collected."
	}
	var b strings.Builder
	b.WriteString("**Recent System Logs (up to 15 most recent errors/warnings/critical):**\n")
	for i, e := range entries {
		if i == maxPromptLogLines {
			break
		}
		fmt.Fprintf(&b, "- [%s] Lvl: %s Src: %s ID: %s | %s\n",
			orNA(e.TimeCreated), orNA(e.Level), orNA(e.Provider), orNA(e.ID), orNA(e.Message))
	}
	return strings.TrimRight(b.String(), "\n")
}

func osLine(os map[string]string) string {
	name := firstOf(os, "OS Name", "system")
	version := firstOf(os, "OS Version", "version")
	arch := firstOf(os, "System Type", "architecture")
	return fmt.Sprintf("OS: %s %s (%s)", name, version, arch)
}

// InitialAnalysisPrompt asks the engine to diagnose the problem and
// propose a command sequence in span syntax.
func InitialAnalysisPrompt(problem string, snap *sysinfo.Snapshot, entries []logscan.Entry, patterns *logscan.Patterns, previous []PreviousIssue) string {
	var prevText strings.Builder
	if len(previous) > 0 {
		prevText.WriteString("**Previous Issues:**\n")
		for i, issue := range previous {
			if i == 3 {
				break
			}
			ts := issue.Timestamp
			if len(ts) > 16 {
				ts = ts[:16]
			}
			fmt.Fprintf(&prevText, "- %s: %s (Resolved: %t)\n", ts, issue.Description, issue.Resolved)
		}
	}

	cpuLine := ""
	if snap.Hardware.CPU.Name != "" {
		cpuLine = "CPU: " + snap.Hardware.CPU.Name
	}

	return fmt.Sprintf(`You are an expert PC troubleshooting assistant running locally on the user's machine.
Your goal is to diagnose the problem and provide clear, actionable steps, including specific commands the user can execute via this tool.

**User reported this problem:**
>>> %q

---
**System Information:**
%s
%s

---
**Log Analysis Patterns:**
%s

---
%s
---
%s
---

**Your Task:**
1. Thoroughly analyze the user's problem description in the context of the provided system info, log patterns, and recent logs.
2. Prioritize potential causes based on the evidence.
3. Provide a clear, structured diagnosis.
4. Suggest a *sequence* of specific, step-by-step commands to investigate or fix the issue. Start with less invasive checks.
5. For each step, explain *why* it is being suggested.
6. Format your response using Markdown.

---
**COMMAND AND ACTION FORMATTING RULES (VERY IMPORTANT!)**

A. **Executable Commands:** For commands that can be run directly in a terminal, use the format [[*** command ***]].
   Example: [[*** sfc /scannow ***]]
B. **Checking Command Existence:** Before suggesting a command that might not be built-in, suggest checking for it first.
   Example: [[*** where choco.exe ***]]
C. **File Paths with Spaces:** Enclose the full path in double quotes.
   Correct: [[*** ren "C:\Program Files (x86)\Bad App\config.old" "config.bak" ***]]
D. **URLs:** Use the format [[URL: https://example.com/page ]] for links the user should open. Never wrap URLs in the command format.
E. **GUI Actions / Information:** Do NOT use the command format for actions requiring the GUI or just providing info. Describe the action clearly.
F. **Sequence:** List commands in a logical troubleshooting order. The tool will execute them one by one and ask for intermediate analysis.
G. **Caution:** Before suggesting potentially disruptive commands, add a warning note about potential data loss or system impact.

Begin your analysis and provide your structured response now. Start with the diagnosis, then list the proposed command sequence.`,
		problem, osLine(snap.OS), cpuLine, FormatPatterns(patterns), FormatLogLines(entries), strings.TrimRight(prevText.String(), "\n"))
}

// IntermediatePrompt asks for a verdict after one executed step.
func IntermediatePrompt(problem string, history []string, outcome StepOutcome, nextPlanned string) string {
	var hist strings.Builder
	for _, cmd := range history {
		fmt.Fprintf(&hist, "- `%s`\n", cmd)
	}

	next := "None (this was the last planned step)"
	if nextPlanned != "" {
		next = "`" + nextPlanned + "`"
	}

	return fmt.Sprintf("Context: We are troubleshooting the problem: %q\n\n"+
		"History of commands executed in *this session* so far:\n%s\n"+
		"The *last* command attempted was:\n`%s`\n\n"+
		"Result:\n"+
		"- Executed: %t\n"+
		"- Confirmed by user: %t\n"+
		"- Success: %t\n"+
		"- Return Code: %d\n"+
		"- Output/Error (truncated to 500 chars):\n"+
		"Output: ```%s```\n"+
		"Error: ```%s```\n\n"+
		"Next *originally planned* command is: %s\n\n"+
		"**Your Task:**\n"+
		"1. Analyze the outcome of the last command. What does this result tell us in the context of the problem and history?\n"+
		"2. Based *only* on this outcome and the history, decide the best next step:\n"+
		"   a. **Proceed:** Continue with the next planned command. Is it still relevant and safe given the last result?\n"+
		"   b. **Suggest New:** The current plan seems flawed or a better step is indicated by the last result. Suggest the *single* next command to try using the format [[*** new_command_here ***]]. Explain why.\n"+
		"   c. **Stop/Ask:** The plan needs rethinking or requires manual user action. Recommend stopping the automated sequence.\n\n"+
		"Provide a *brief* explanation for your recommendation (1-2 sentences).\n"+
		"**Start your response clearly with ONE of the keywords:** `PROCEED`, `SUGGEST_NEW`, or `STOP`.",
		problem, hist.String(), outcome.Command,
		outcome.Executed, outcome.Confirmed, outcome.Succeeded, outcome.ExitCode,
		orEmpty(clip(outcome.Output, 500)), orEmpty(clip(outcome.Error, 500)), next)
}

// HealthReportPrompt asks for a proactive assessment before the user
// has described any problem.
func HealthReportPrompt(snap *sysinfo.Snapshot, entries []logscan.Entry, patterns *logscan.Patterns) string {
	cpuLine := ""
	if snap.Hardware.CPU.Name != "" {
		cpuLine = "CPU: " + snap.Hardware.CPU.Name
	}
	return fmt.Sprintf(`You are an expert PC troubleshooting assistant running locally on the user's machine.

The following is a summary of the current system and log status. The user has NOT yet described any specific problem. Based on the information below, provide:
- An overall health assessment of the system
- Any warnings or risks you detect
- Any urgent or notable errors
- Suggestions for what the user should check, even if no problem is reported
- Format your response using Markdown.

---
**System Information:**
%s
%s

---
**Log Analysis Patterns:**
%s

---
%s
---

**Your Task:**
1. Analyze the system and logs above and provide a health report and any proactive recommendations.
2. If you detect urgent errors, highlight them clearly.
3. If the system appears healthy, say so, but mention any minor warnings.
4. Do NOT ask the user for a problem description yet. Just report your findings.`,
		osLine(snap.OS), cpuLine, FormatPatterns(patterns), FormatLogLines(entries))
}

// StepSummaryPrompt asks for a short summary of one diagnostic data
// block during the stepwise health report.
func StepSummaryPrompt(title string, data any) string {
	switch v := data.(type) {
	case []logscan.Entry:
		return fmt.Sprintf("You are a PC diagnostic assistant. Here are recent system event logs. Summarize any critical errors, warnings, or notable patterns. Be concise and actionable.\n\nLogs:\n%s", FormatLogLines(v))
	case *logscan.Patterns:
		return fmt.Sprintf("You are a PC diagnostic assistant. Here are detected log patterns. Summarize their health significance and any urgent findings.\n\nPatterns:\n%s", FormatPatterns(v))
	default:
		blob, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			blob = []byte("(unavailable)")
		}
		return fmt.Sprintf("You are a PC diagnostic assistant. Here is %s data. Summarize any health risks or important findings.\n\nData:\n%s", title, blob)
	}
}

// FinalSynthesisPrompt aggregates the stepwise summaries.
func FinalSynthesisPrompt(summaries map[string]string, order []string) string {
	var b strings.Builder
	for _, step := range order {
		fmt.Fprintf(&b, "[%s]\n%s\n\n", step, summaries[step])
	}
	return fmt.Sprintf("You are a PC troubleshooting assistant. Here are stepwise health summaries from different diagnostic checks. Synthesize them into a single, holistic health report. Highlight urgent issues, cross-reference findings, and provide clear recommendations.\n\n%s\nRespond in Markdown.", b.String())
}

func clip(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

func orEmpty(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(empty)"
	}
	return s
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return "Unknown"
}
