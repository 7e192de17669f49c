package perception

import "strings"

// Verdict is the decision engine's recommendation after reviewing the
// outcome of one executed step.
type Verdict string

const (
	// VerdictProceed continues with the existing plan.
	VerdictProceed Verdict = "PROCEED"
	// VerdictSuggestNew replaces the next planned step with a new
	// command carried in the same response.
	VerdictSuggestNew Verdict = "SUGGEST_NEW"
	// VerdictStop ends the automated sequence. This is also the
	// fallback for anything the parser cannot recognize.
	VerdictStop Verdict = "STOP"
)

// ParseVerdict reads the leading keyword of an engine response. The
// match is case-insensitive and ignores leading whitespace; a response
// that opens with none of the keywords maps to STOP.
func ParseVerdict(response string) Verdict {
	lower := strings.ToLower(strings.TrimSpace(response))
	switch {
	case strings.HasPrefix(lower, "proceed"):
		return VerdictProceed
	case strings.HasPrefix(lower, "suggest_new"):
		return VerdictSuggestNew
	default:
		return VerdictStop
	}
}
