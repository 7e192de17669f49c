// Package extract parses decision-engine text into typed action items.
// The engine is instructed to wrap executable suggestions in
// [[*** command ***]] spans and links in [[URL: https://... ]] spans;
// everything else in the response is prose and ignored here.
package extract

import (
	"regexp"
	"runtime"
	"sort"
	"strings"

	"github.com/google/shlex"
)

// Kind tags an extracted action item.
type Kind string

const (
	// KindCommand is an executable command suggestion.
	KindCommand Kind = "command"

	// KindURL is a link suggestion; URLs never enter the execution loop.
	KindURL Kind = "url"

	// KindInvalidCommand marks a command whose first token names a tool
	// from a foreign operating system (e.g. sudo on Windows).
	KindInvalidCommand Kind = "invalid_command"

	// KindError marks a span that matched but yielded no usable value.
	// These are retained for auditability rather than dropped.
	KindError Kind = "error"
)

// Placeholder values for degenerate extractions.
const (
	emptyCommandValue = "[EMPTY COMMAND]"
	noContextValue    = "No context found."
)

// contextLookback is how many characters before a span are searched for
// the explanatory sentence fragment.
const contextLookback = 200

// ActionItem is one typed, positioned unit extracted from engine text.
type ActionItem struct {
	Kind         Kind   `json:"kind"`
	Value        string `json:"value"`
	Context      string `json:"context"`
	SourceOffset int    `json:"source_offset"`
}

var (
	commandPattern = regexp.MustCompile(`\[\[\*\*\*\s*(.*?)\s*\*\*\*\]\]`)
	urlPattern     = regexp.MustCompile(`(?i)\[\[URL:\s*(https?://[^\s\]]+)\s*\]\]`)
	sentenceSplit  = regexp.MustCompile(`[.!?]\s+`)
)

// memoryDiagnostic is the canonical executable behind "memory diagnostic"
// suggestions.
const memoryDiagnostic = "mdsched.exe"

// Commands whose first token only exists on the other platform family.
// Suggestions using these are surfaced as InvalidCommand so the user sees
// them but the loop never tries to run them.
var (
	unixOnlyCommands = map[string]struct{}{
		"which": {}, "sudo": {}, "apt": {}, "yum": {}, "dnf": {}, "apt-get": {},
	}
	windowsOnlyCommands = map[string]struct{}{
		"wmic": {}, "systeminfo": {}, "ipconfig": {}, "driverquery": {},
		"sfc": {}, "dism": {}, "chkdsk": {}, "powercfg": {},
		"msinfo32": {}, "regsvr32": {},
	}
)

// Extractor turns engine response text into ordered action items.
type Extractor struct {
	goos string
}

// New returns an extractor for the current platform.
func New() *Extractor {
	return &Extractor{goos: runtime.GOOS}
}

// newForOS is used by tests to pin platform-dependent behavior.
func newForOS(goos string) *Extractor {
	return &Extractor{goos: goos}
}

// Extract returns every action item found in text, ordered by source
// offset. Each raw span match accounts for exactly one item: a span that
// trims to nothing becomes a KindError item instead of disappearing.
func (e *Extractor) Extract(text string) []ActionItem {
	var items []ActionItem

	// URL spans are located first and their ranges claimed, so a URL tag
	// that also happens to satisfy the command bracket pattern is
	// extracted exactly once, as a URL.
	type span struct{ start, end int }
	var claimed []span

	for _, m := range urlPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		value := strings.TrimSpace(text[m[2]:m[3]])
		claimed = append(claimed, span{start, end})
		items = append(items, ActionItem{
			Kind:         KindURL,
			Value:        value,
			Context:      e.contextBefore(text, start),
			SourceOffset: start,
		})
	}

	for _, m := range commandPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]

		overlaps := false
		for _, s := range claimed {
			if start < s.end && end > s.start {
				overlaps = true
				break
			}
		}
		if overlaps {
			continue
		}

		value := strings.TrimSpace(text[m[2]:m[3]])
		item := ActionItem{
			Kind:         KindCommand,
			Value:        value,
			Context:      e.contextBefore(text, start),
			SourceOffset: start,
		}

		switch {
		case value == "":
			item.Kind = KindError
			item.Value = emptyCommandValue
		case e.isForeignCommand(value):
			item.Kind = KindInvalidCommand
		case isMemoryDiagnostic(value):
			// The engine sometimes names the Windows memory diagnostic by
			// description; map it to the actual executable.
			item.Value = memoryDiagnostic
		}

		items = append(items, item)
	}

	sortByOffset(items)
	return items
}

// Commands returns only the executable command items, preserving order.
func Commands(items []ActionItem) []ActionItem {
	var out []ActionItem
	for _, it := range items {
		if it.Kind == KindCommand {
			out = append(out, it)
		}
	}
	return out
}

// URLs returns the URL values in order of appearance.
func URLs(items []ActionItem) []string {
	var out []string
	for _, it := range items {
		if it.Kind == KindURL {
			out = append(out, it.Value)
		}
	}
	return out
}

// FirstToken returns the command's first token, respecting quoting, so
// `"Display Driver Uninstaller.exe" -silent` yields the quoted name.
// Malformed quoting falls back to whitespace splitting.
func FirstToken(commandText string) string {
	if parts, err := shlex.Split(commandText); err == nil && len(parts) > 0 {
		return parts[0]
	}
	fields := strings.Fields(commandText)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

func (e *Extractor) isForeignCommand(value string) bool {
	first := strings.ToLower(FirstToken(value))
	if first == "" {
		return false
	}
	if e.goos == "windows" {
		_, ok := unixOnlyCommands[first]
		return ok
	}
	_, ok := windowsOnlyCommands[first]
	return ok
}

func isMemoryDiagnostic(value string) bool {
	lower := strings.ToLower(value)
	return strings.Contains(lower, "memory diagnostic") || strings.Contains(lower, "mdsched")
}

// contextBefore finds the nearest preceding sentence fragment within the
// lookback window, falling back to the raw window, then to a fixed marker.
func (e *Extractor) contextBefore(text string, offset int) string {
	start := offset - contextLookback
	if start < 0 {
		start = 0
	}
	window := strings.TrimSpace(text[start:offset])
	if window == "" {
		return noContextValue
	}

	fragments := sentenceSplit.Split(window, -1)
	last := strings.TrimSpace(fragments[len(fragments)-1])
	if last != "" {
		return last
	}
	return window
}

func sortByOffset(items []ActionItem) {
	// Items are appended URL-first, so command items can precede URLs in
	// the slice even when they appear later in the text.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].SourceOffset < items[j].SourceOffset
	})
}
