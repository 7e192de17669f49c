// Package memory persists what the assistant learned across sessions:
// past issues, executed commands, the latest system snapshot, and
// health report summaries. The document is plain JSON so users can
// inspect and edit it.
package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
)

// Issue is one remembered problem report.
type Issue struct {
	Timestamp   string `json:"timestamp"`
	Description string `json:"description"`
	Resolved    bool   `json:"resolved"`
}

// CommandRecord is one remembered command execution.
type CommandRecord struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	Success   bool   `json:"success"`
	ExitCode  int    `json:"exit_code"`
}

// Summary is one stored health report fragment.
type Summary struct {
	Step    string `json:"step"`
	Summary string `json:"summary"`
}

// Document is the full persisted memory. Bounded lists keep their
// newest entry first.
type Document struct {
	LastSession     string          `json:"last_session"`
	SessionID       string          `json:"session_id"`
	PreviousIssues  []Issue         `json:"previous_issues"`
	CommandHistory  []CommandRecord `json:"command_history"`
	SystemInfo      json.RawMessage `json:"system_info"`
	ReportSummaries []Summary       `json:"health_report_summaries"`
}

// Store reads and writes the memory document. Every mutation is
// written through immediately so an interrupted session loses nothing.
type Store struct {
	cfg    config.MemoryConfig
	logger *zap.Logger
	doc    *Document
}

// NewStore opens the store, loading the existing document if present.
// A missing or corrupt file starts a fresh document; it is never fatal.
func NewStore(cfg config.MemoryConfig, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Store{cfg: cfg, logger: logger}
	s.doc = s.load()
	return s
}

// Document returns the live document. Callers mutate through the Store
// methods, not directly.
func (s *Store) Document() *Document { return s.doc }

func (s *Store) load() *Document {
	doc := &Document{SystemInfo: json.RawMessage("{}")}
	data, err := os.ReadFile(s.cfg.Path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("reading memory file", zap.Error(err))
		}
		return doc
	}
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("memory file is corrupt, starting fresh",
			zap.String("path", s.cfg.Path), zap.Error(err))
		return &Document{SystemInfo: json.RawMessage("{}")}
	}
	return doc
}

// Save writes the document to disk.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding memory: %w", err)
	}
	if err := os.WriteFile(s.cfg.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing memory %s: %w", s.cfg.Path, err)
	}
	return nil
}

func (s *Store) save() {
	if err := s.Save(); err != nil {
		s.logger.Error("saving memory", zap.Error(err))
	}
}

// TouchSession records the current time as the last session start and
// assigns a fresh session ID, returned for correlation with the action
// log.
func (s *Store) TouchSession() string {
	s.doc.LastSession = time.Now().Format(time.RFC3339)
	s.doc.SessionID = uuid.NewString()
	s.save()
	return s.doc.SessionID
}

// AddIssue remembers a problem report, newest first.
func (s *Store) AddIssue(description string, resolved bool) {
	s.doc.PreviousIssues = prepend(s.doc.PreviousIssues, Issue{
		Timestamp:   time.Now().Format(time.RFC3339),
		Description: description,
		Resolved:    resolved,
	}, s.cfg.MaxListItems)
	s.save()
}

// AddCommand remembers an executed command, newest first.
func (s *Store) AddCommand(command string, success bool, exitCode int) {
	s.doc.CommandHistory = prepend(s.doc.CommandHistory, CommandRecord{
		Timestamp: time.Now().Format(time.RFC3339),
		Command:   command,
		Success:   success,
		ExitCode:  exitCode,
	}, s.cfg.MaxListItems)
	s.save()
}

// AddSummary stores a health report fragment, newest first.
func (s *Store) AddSummary(step, summary string) {
	s.doc.ReportSummaries = prepend(s.doc.ReportSummaries, Summary{
		Step:    step,
		Summary: summary,
	}, s.cfg.MaxSummaries)
	s.save()
}

// SetSystemInfo replaces the stored system snapshot.
func (s *Store) SetSystemInfo(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("encoding system info", zap.Error(err))
		return
	}
	s.doc.SystemInfo = data
	s.save()
}

// prepend inserts newest-first and trims the oldest entries past max.
func prepend[T any](list []T, item T, max int) []T {
	list = append([]T{item}, list...)
	if max > 0 && len(list) > max {
		list = list[:max]
	}
	return list
}
