package orchestrator

import (
	"strings"

	"github.com/Th3phylosoph3r/aeon-fix/internal/extract"
)

// noPurpose is shown when neither the item context nor the analysis
// text explains why a command was suggested.
const noPurpose = "No purpose provided by LLM."

var placeholderContexts = map[string]bool{
	"":                     true,
	"*":                    true,
	"no context found.":    true,
	"no context provided.": true,
}

// resolvePurpose finds the best explanation for a step: the item's own
// extraction context when it carries one, otherwise a sentence from the
// original analysis text that mentions the command.
func resolvePurpose(item extract.ActionItem, analysisText string) string {
	ctx := strings.TrimSpace(item.Context)
	if !placeholderContexts[strings.ToLower(ctx)] {
		return ctx
	}

	if s := sentenceMentioning(analysisText, item.Value); s != "" {
		return s
	}
	if tok := extract.FirstToken(item.Value); tok != "" && tok != item.Value {
		if s := sentenceMentioning(analysisText, tok); s != "" {
			return s
		}
	}
	return noPurpose
}

// sentenceMentioning returns the first sentence-like fragment of text
// containing needle, case-insensitively.
func sentenceMentioning(text, needle string) string {
	if text == "" || needle == "" {
		return ""
	}
	lowerNeedle := strings.ToLower(needle)
	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		idx := strings.Index(lower, lowerNeedle)
		if idx < 0 {
			continue
		}
		// Clip to the sentence around the mention.
		start := strings.LastIndexAny(lower[:idx], ".!?") + 1
		fragment := strings.TrimSpace(line[start:])
		fragment = strings.Trim(fragment, "*-• \t")
		if fragment != "" {
			return fragment
		}
	}
	return ""
}
