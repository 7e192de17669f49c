package config

import "time"

// ExecutionConfig configures the command executor.
type ExecutionConfig struct {
	// DefaultTimeout is applied when a command has no explicit timeout.
	DefaultTimeout string `yaml:"default_timeout"`

	// MaxOutputBytes caps captured stdout/stderr per stream.
	MaxOutputBytes int64 `yaml:"max_output_bytes"`

	// AllowedEnvVars are environment variables passed to child processes.
	AllowedEnvVars []string `yaml:"allowed_env_vars"`

	// WorkingDirectory for launched commands. Empty means inherit.
	WorkingDirectory string `yaml:"working_directory"`
}

// DefaultExecutionConfig returns sensible executor defaults.
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		DefaultTimeout: "5m",
		MaxOutputBytes: 10 * 1024 * 1024,
		AllowedEnvVars: []string{"PATH", "HOME", "USER", "LANG", "LC_ALL", "TEMP", "TMP", "SYSTEMROOT", "COMSPEC"},
	}
}

// Timeout parses DefaultTimeout, falling back to 5 minutes.
func (c ExecutionConfig) Timeout() time.Duration {
	d, err := time.ParseDuration(c.DefaultTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Minute
	}
	return d
}
