// Package config holds all AeonFix configuration. The configuration is
// loaded once at startup and treated as immutable afterwards; components
// receive the sub-config they need by value or pointer and never mutate it.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all AeonFix configuration.
type Config struct {
	// LLM decision engine configuration
	LLM LLMConfig `yaml:"llm"`

	// Command execution settings
	Execution ExecutionConfig `yaml:"execution"`

	// Command safety classification
	Safety SafetyConfig `yaml:"safety"`

	// Log collection and pattern analysis
	Analysis AnalysisConfig `yaml:"analysis"`

	// Persistent memory document
	Memory MemoryConfig `yaml:"memory"`

	// Append-only action log
	ActionLog ActionLogConfig `yaml:"action_log"`
}

// LLMConfig configures the decision engine client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // ollama, openai
	Host     string `yaml:"host"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	Timeout  string `yaml:"timeout"`
}

// MemoryConfig configures the persisted memory document.
type MemoryConfig struct {
	Path string `yaml:"path"`

	// MaxListItems caps bounded lists (previous issues, command history).
	MaxListItems int `yaml:"max_list_items"`

	// MaxSummaries caps the stored health report summaries.
	MaxSummaries int `yaml:"max_summaries"`
}

// ActionLogConfig configures the structured action log.
type ActionLogConfig struct {
	Path string `yaml:"path"`
}

// AnalysisConfig configures log collection and clustering.
type AnalysisConfig struct {
	// MaxLogEntries limits how many recent system log entries are collected.
	MaxLogEntries int `yaml:"max_log_entries"`

	// MinClusterSize is the minimum accumulated count for a temporal
	// cluster to be reported.
	MinClusterSize int `yaml:"min_cluster_size"`

	// MaxGapHours is the largest hour-bucket gap that still extends a
	// running cluster.
	MaxGapHours int `yaml:"max_gap_hours"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider: "ollama",
			Host:     "http://localhost:11434",
			Model:    "",
			Timeout:  "2m",
		},
		Execution: DefaultExecutionConfig(),
		Safety:    DefaultSafetyConfig(),
		Analysis: AnalysisConfig{
			MaxLogEntries:  50,
			MinClusterSize: 3,
			MaxGapHours:    1,
		},
		Memory: MemoryConfig{
			Path:         "assistant_memory.json",
			MaxListItems: 20,
			MaxSummaries: 10,
		},
		ActionLog: ActionLogConfig{
			Path: "aeonfix_actions.json",
		},
	}
}

// Load reads a YAML config file and merges it over the defaults.
// A missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	cfg.applyFloors()
	return cfg, nil
}

// DefaultPath returns the conventional config location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "aeonfix.yaml"
	}
	return filepath.Join(home, ".aeonfix", "config.yaml")
}

// LLMTimeout parses the configured LLM timeout, falling back to 2 minutes.
func (c *Config) LLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// applyFloors keeps user-supplied values within sane bounds.
func (c *Config) applyFloors() {
	if c.Analysis.MaxLogEntries <= 0 {
		c.Analysis.MaxLogEntries = 50
	}
	if c.Analysis.MinClusterSize <= 0 {
		c.Analysis.MinClusterSize = 3
	}
	if c.Analysis.MaxGapHours <= 0 {
		c.Analysis.MaxGapHours = 1
	}
	if c.Memory.MaxListItems <= 0 {
		c.Memory.MaxListItems = 20
	}
	if c.Memory.MaxSummaries <= 0 {
		c.Memory.MaxSummaries = 10
	}
	if c.Execution.DefaultTimeout == "" {
		c.Execution.DefaultTimeout = DefaultExecutionConfig().DefaultTimeout
	}
}
