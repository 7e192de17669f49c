// Package safety classifies command text before it reaches the executor.
// Classification is purely lexical: a fixed denylist of destructive
// fragments, a fixed allowlist of diagnostic-only tools, and a permissive
// default for everything else.
package safety

import (
	"strings"

	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
)

// Class is the safety classification of a command.
type Class string

const (
	// ClassDangerous means a denylisted fragment was found. The executor
	// escalates the confirmation prompt for these.
	ClassDangerous Class = "dangerous"

	// ClassSafeDiagnostic means the first token is a known read-only
	// diagnostic tool.
	ClassSafeDiagnostic Class = "safe_diagnostic"

	// ClassUnclassified is the default for commands matching neither
	// list; it is treated as not dangerous.
	ClassUnclassified Class = "unclassified"
)

// Classifier decides whether a command needs the dangerous-command
// confirmation escalation. It is immutable after construction.
type Classifier struct {
	denyFragments []string
	safeCommands  map[string]struct{}
}

// NewClassifier builds a classifier from the safety configuration.
// The lists are copied; later changes to cfg do not affect verdicts.
func NewClassifier(cfg config.SafetyConfig) *Classifier {
	deny := make([]string, len(cfg.DangerousFragments))
	for i, f := range cfg.DangerousFragments {
		deny[i] = strings.ToLower(f)
	}
	safe := make(map[string]struct{}, len(cfg.SafeDiagnosticCommands))
	for _, c := range cfg.SafeDiagnosticCommands {
		safe[strings.ToLower(c)] = struct{}{}
	}
	return &Classifier{denyFragments: deny, safeCommands: safe}
}

// IsDangerous reports whether the command text should be treated as
// dangerous.
//
// The default for unrecognized commands is NOT dangerous. This is
// deliberately permissive: every sequenced command still passes the
// explicit confirmation gate, so the classifier only controls the extra
// warning, not whether the user is asked at all.
func (c *Classifier) IsDangerous(commandText string) bool {
	class, _ := c.Classify(commandText)
	return class == ClassDangerous
}

// Classify returns the command's class and, for dangerous commands, the
// denylist fragment that matched. A denylist hit wins unconditionally,
// regardless of surrounding context. An allowlisted first token yields
// ClassSafeDiagnostic, except chkdsk in repair mode (/f or /r), which
// loses its exemption and falls through to ClassUnclassified.
func (c *Classifier) Classify(commandText string) (Class, string) {
	lower := strings.ToLower(commandText)

	for _, frag := range c.denyFragments {
		if strings.Contains(lower, frag) {
			return ClassDangerous, frag
		}
	}

	fields := strings.Fields(lower)
	if len(fields) == 0 {
		return ClassUnclassified, ""
	}
	first := fields[0]

	if _, ok := c.safeCommands[first]; ok {
		if first == "chkdsk" && (strings.Contains(lower, "/f") || strings.Contains(lower, "/r")) {
			return ClassUnclassified, ""
		}
		return ClassSafeDiagnostic, ""
	}

	return ClassUnclassified, ""
}
