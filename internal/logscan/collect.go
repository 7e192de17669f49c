package logscan

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// runner abstracts command execution so collectors can be tested
// without touching the host.
type runner func(ctx context.Context, name string, args ...string) (string, error)

func hostRunner(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	return string(out), err
}

// Collector gathers recent error-level system logs. On Linux it prefers
// journalctl and falls back to tailing the classic syslog files; on
// Windows it shells out to PowerShell's Get-WinEvent.
type Collector struct {
	maxEntries int
	logger     *zap.Logger
	goos       string
	run        runner
	hasJournal func() bool
}

// NewCollector builds a collector for the current platform.
func NewCollector(maxEntries int, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntries <= 0 {
		maxEntries = 50
	}
	return &Collector{
		maxEntries: maxEntries,
		logger:     logger,
		goos:       runtime.GOOS,
		run:        hostRunner,
		hasJournal: func() bool {
			_, err := exec.LookPath("journalctl")
			return err == nil
		},
	}
}

// Collect returns recent entries, newest first. A platform with no
// usable log source yields an empty slice, not an error.
func (c *Collector) Collect(ctx context.Context) []Entry {
	var entries []Entry
	switch c.goos {
	case "windows":
		entries = c.collectWindows(ctx)
	default:
		entries = c.collectLinux(ctx)
	}
	sortNewestFirst(entries)
	if len(entries) > c.maxEntries {
		entries = entries[:c.maxEntries]
	}
	return entries
}

func (c *Collector) collectWindows(ctx context.Context) []Entry {
	script := fmt.Sprintf(`$ErrorActionPreference = 'SilentlyContinue'
$logs = Get-WinEvent -LogName System, Application -FilterXPath "*[System[(Level=1 or Level=2 or Level=3)]]" -MaxEvents %d |
    Select-Object @{Name='TimeCreated'; Expression={$_.TimeCreated.ToString("o")}},
                  ProviderName, Id, LevelDisplayName, Message,
                  @{Name='Source'; Expression={$_.ProviderName}} |
    Sort-Object TimeCreated -Descending
$logs | ConvertTo-Json -Compress -Depth 5`, c.maxEntries)

	out, err := c.run(ctx, "powershell", "-NoProfile", "-Command", script)
	if err != nil || strings.TrimSpace(out) == "" {
		c.logger.Warn("Get-WinEvent produced no usable output", zap.Error(err))
		return nil
	}

	var raw []struct {
		TimeCreated      string          `json:"TimeCreated"`
		ProviderName     string          `json:"ProviderName"`
		ID               json.RawMessage `json:"Id"`
		LevelDisplayName string          `json:"LevelDisplayName"`
		Message          string          `json:"Message"`
		Source           string          `json:"Source"`
	}
	trimmed := strings.TrimSpace(out)
	// ConvertTo-Json emits a bare object when only one event matched.
	if strings.HasPrefix(trimmed, "{") {
		trimmed = "[" + trimmed + "]"
	}
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		c.logger.Warn("failed to parse Get-WinEvent JSON", zap.Error(err))
		return nil
	}

	entries := make([]Entry, 0, len(raw))
	for _, r := range raw {
		entries = append(entries, Entry{
			TimeCreated: r.TimeCreated,
			Provider:    r.ProviderName,
			ID:          strings.Trim(string(r.ID), `"`),
			Level:       r.LevelDisplayName,
			Message:     strings.TrimSpace(r.Message),
			Source:      r.Source,
		})
	}
	return entries
}

func (c *Collector) collectLinux(ctx context.Context) []Entry {
	if c.hasJournal() {
		if entries := c.collectJournalJSON(ctx); len(entries) > 0 {
			return entries
		}
		c.logger.Warn("journalctl JSON output unusable, trying plain text")
		if entries := c.collectJournalText(ctx); len(entries) > 0 {
			return entries
		}
	}
	c.logger.Warn("journalctl unavailable, tailing common log files")
	return c.collectSyslogFiles()
}

func (c *Collector) collectJournalJSON(ctx context.Context) []Entry {
	out, err := c.run(ctx, "journalctl",
		"-p", "0..3", "--no-pager", "-n", strconv.Itoa(c.maxEntries), "-o", "json")
	if err != nil || strings.TrimSpace(out) == "" {
		return nil
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		var rec map[string]any
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			c.logger.Debug("skipping malformed journalctl line",
				zap.String("line", truncate(line, 100)))
			continue
		}
		entries = append(entries, journalEntry(rec))
	}
	return entries
}

// journalEntry maps journald field names onto the shared Entry shape.
func journalEntry(rec map[string]any) Entry {
	created := "N/A"
	if ts := stringField(rec, "__REALTIME_TIMESTAMP"); ts != "" {
		if usec, err := strconv.ParseInt(ts, 10, 64); err == nil {
			created = time.UnixMicro(usec).Format(time.RFC3339)
		}
	}
	provider := stringField(rec, "SYSLOG_IDENTIFIER")
	if provider == "" {
		provider = stringField(rec, "_SYSTEMD_UNIT")
	}
	if provider == "" {
		provider = "unknown"
	}
	return Entry{
		TimeCreated: created,
		Provider:    provider,
		ID:          stringField(rec, "_PID"),
		Level:       stringField(rec, "PRIORITY"),
		Message:     strings.TrimSpace(stringField(rec, "MESSAGE")),
		Source:      stringField(rec, "_HOSTNAME"),
	}
}

func stringField(rec map[string]any, key string) string {
	switch v := rec[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func (c *Collector) collectJournalText(ctx context.Context) []Entry {
	out, err := c.run(ctx, "journalctl",
		"-p", "0..3", "--no-pager", "-n", strconv.Itoa(c.maxEntries))
	if err != nil || strings.TrimSpace(out) == "" {
		return nil
	}

	var entries []Entry
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		// "Mon DD HH:MM:SS host identifier: message"
		parts := strings.SplitN(line, " ", 5)
		if len(parts) < 5 {
			continue
		}
		entries = append(entries, Entry{
			TimeCreated: strings.Join(parts[0:3], " "),
			Provider:    parts[3],
			ID:          "N/A",
			Level:       "N/A",
			Message:     parts[4],
			Source:      parts[3],
		})
	}
	return entries
}

var syslogPaths = []string{"/var/log/syslog", "/var/log/messages"}

var syslogKeywords = []string{"error", "warning", "critical", "failed"}

func (c *Collector) collectSyslogFiles() []Entry {
	var entries []Entry
	for _, path := range syslogPaths {
		if len(entries) >= c.maxEntries {
			break
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
		for i := len(lines) - 1; i >= 0 && len(entries) < c.maxEntries; i-- {
			line := lines[i]
			lower := strings.ToLower(line)
			matched := false
			for _, kw := range syslogKeywords {
				if strings.Contains(lower, kw) {
					matched = true
					break
				}
			}
			if !matched {
				continue
			}
			entries = append(entries, Entry{
				TimeCreated: truncate(line, 15),
				Provider:    path[strings.LastIndex(path, "/")+1:],
				ID:          "N/A",
				Level:       "Warning/Error",
				Message:     line,
				Source:      path,
			})
		}
	}
	return entries
}

// sortNewestFirst orders entries by their parsed timestamp where
// possible; unparseable timestamps sort last.
func sortNewestFirst(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return parseWhen(entries[i].TimeCreated).After(parseWhen(entries[j].TimeCreated))
	})
}

func parseWhen(ts string) time.Time {
	if t, err := time.Parse(time.RFC3339, ts); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02T15:04:05", strings.SplitN(ts, ".", 2)[0]); err == nil {
		return t
	}
	if t, err := time.Parse("Jan 2 15:04:05", ts); err == nil {
		return t.AddDate(time.Now().Year(), 0, 0)
	}
	return time.Time{}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
