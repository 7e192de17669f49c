// Package logscan collects recent system log entries and finds the
// recurring failure patterns hiding in them.
package logscan

import "strings"

// Entry is one normalized system log record. Timestamps stay as strings
// because the upstream formats vary wildly; parsing happens where the
// precision is actually needed.
type Entry struct {
	TimeCreated string `json:"TimeCreated"`
	Provider    string `json:"ProviderName"`
	ID          string `json:"Id"`
	Level       string `json:"Level"`
	Message     string `json:"Message"`
	Source      string `json:"Source"`
}

// sourceKey prefers the provider name, falling back to the source field.
func (e Entry) sourceKey() string {
	if p := strings.ToLower(e.Provider); p != "" && p != "unknown" {
		return p
	}
	if s := strings.ToLower(e.Source); s != "" {
		return s
	}
	return "unknown"
}
