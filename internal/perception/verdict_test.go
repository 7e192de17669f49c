package perception

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     Verdict
	}{
		{"proceed", "PROCEED. The command worked, keep going.", VerdictProceed},
		{"proceed lowercase", "proceed with the plan", VerdictProceed},
		{"proceed leading whitespace", "\n  PROCEED. Fine.", VerdictProceed},
		{"suggest new", "SUGGEST_NEW. Try [[*** sfc /scannow ***]] first.", VerdictSuggestNew},
		{"stop", "STOP. Manual intervention required.", VerdictStop},
		{"unrecognized defaults to stop", "I think we should maybe proceed?", VerdictStop},
		{"empty defaults to stop", "", VerdictStop},
		{"keyword not at start defaults to stop", "We could PROCEED here.", VerdictStop},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseVerdict(tt.response))
		})
	}
}
