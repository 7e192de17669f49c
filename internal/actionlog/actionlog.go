// Package actionlog keeps an append-only audit trail of everything the
// assistant did, as a JSON array on disk.
package actionlog

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
)

// Record is one logged action.
type Record struct {
	Timestamp  string         `json:"timestamp"`
	ActionType string         `json:"action_type"`
	Success    bool           `json:"success"`
	Details    map[string]any `json:"details"`
}

// Log appends records to a JSON array file. A missing or corrupt file
// is treated as empty; the log never blocks the assistant.
type Log struct {
	path   string
	logger *zap.Logger
}

func New(path string, logger *zap.Logger) *Log {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Log{path: path, logger: logger}
}

// Append records an action. Failures are logged, not returned; the
// audit trail must never abort the operation it is auditing.
func (l *Log) Append(actionType string, success bool, details map[string]any) {
	record := Record{
		Timestamp:  time.Now().Format(time.RFC3339),
		ActionType: actionType,
		Success:    success,
		Details:    details,
	}

	records := l.Read()
	records = append(records, record)

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		l.logger.Error("encoding action log", zap.Error(err))
		return
	}
	if err := os.WriteFile(l.path, data, 0o644); err != nil {
		l.logger.Error("writing action log", zap.String("path", l.path), zap.Error(err))
	}
}

// Read returns all records currently on disk.
func (l *Log) Read() []Record {
	data, err := os.ReadFile(l.path)
	if err != nil {
		if !os.IsNotExist(err) {
			l.logger.Warn("reading action log", zap.Error(err))
		}
		return nil
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		l.logger.Warn("action log is corrupt, treating as empty",
			zap.String("path", l.path), zap.Error(err))
		return nil
	}
	return records
}

// Summarize renders a short per-type count, for the exit message.
func (l *Log) Summarize() string {
	records := l.Read()
	if len(records) == 0 {
		return "no actions recorded"
	}
	counts := map[string]int{}
	for _, r := range records {
		counts[r.ActionType]++
	}
	return fmt.Sprintf("%d actions recorded across %d types", len(records), len(counts))
}
