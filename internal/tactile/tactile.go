// Package tactile runs diagnostic commands on the host and reports what
// happened in a form the rest of the assistant can reason about.
package tactile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Th3phylosoph3r/aeon-fix/internal/config"
	"github.com/Th3phylosoph3r/aeon-fix/internal/safety"
)

// FailureKind distinguishes why a command produced no useful result.
type FailureKind string

const (
	// FailureNone means the process started and exited on its own.
	FailureNone FailureKind = ""
	// FailureNotFound means the executable could not be located.
	FailureNotFound FailureKind = "executable_not_found"
	// FailureTimeout means the process was killed by the deadline.
	FailureTimeout FailureKind = "timeout"
	// FailureDeclined means the user refused the confirmation prompt.
	FailureDeclined FailureKind = "declined"
	// FailureError covers everything else that prevented execution.
	FailureError FailureKind = "execution_error"
)

// Request describes one command the assistant wants to run.
type Request struct {
	// Text is the command exactly as it appeared in the plan.
	Text string
	// Explanation is shown to the user alongside the confirmation prompt.
	Explanation string
	// RequireConfirmation forces the prompt even for safe commands.
	// Dangerous commands always prompt regardless.
	RequireConfirmation bool
	// Timeout overrides the executor default when positive.
	Timeout time.Duration
}

// Result captures everything observable about one execution attempt.
type Result struct {
	Command   string        `json:"command"`
	Succeeded bool          `json:"succeeded"`
	ExitCode  int           `json:"exit_code"`
	Stdout    string        `json:"stdout"`
	Stderr    string        `json:"stderr"`
	Failure   FailureKind   `json:"failure,omitempty"`
	Error     string        `json:"error,omitempty"`
	Truncated bool          `json:"truncated,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	UsedShell bool          `json:"used_shell"`
	Dangerous bool          `json:"dangerous"`
}

// Combined returns stdout and stderr joined for prompt building.
func (r *Result) Combined() string {
	if r.Stderr == "" {
		return r.Stdout
	}
	if r.Stdout == "" {
		return r.Stderr
	}
	return r.Stdout + "\n" + r.Stderr
}

// Confirmer asks the user whether a command may run. Dangerous commands
// get a default-no prompt; everything else defaults to yes.
type Confirmer interface {
	ConfirmCommand(command, explanation string, dangerous bool) bool
}

// AlwaysConfirm approves every command. Useful in tests.
type AlwaysConfirm struct{}

func (AlwaysConfirm) ConfirmCommand(string, string, bool) bool { return true }

// Executor runs host commands behind a safety gate.
type Executor struct {
	cfg        config.ExecutionConfig
	classifier *safety.Classifier
	confirmer  Confirmer
	logger     *zap.Logger
	goos       string

	// reporter receives every finished result, including declined and
	// failed attempts. Used for the action log.
	reporter func(Result)
}

// NewExecutor builds an executor for the current platform.
func NewExecutor(cfg config.ExecutionConfig, cls *safety.Classifier, confirm Confirmer, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		cfg:        cfg,
		classifier: cls,
		confirmer:  confirm,
		logger:     logger,
		goos:       runtime.GOOS,
	}
}

// newForOS pins the platform for tests.
func newForOS(goos string, cfg config.ExecutionConfig, cls *safety.Classifier, confirm Confirmer) *Executor {
	e := NewExecutor(cfg, cls, confirm, zap.NewNop())
	e.goos = goos
	return e
}

// SetReporter registers a callback invoked with every finished Result.
func (e *Executor) SetReporter(fn func(Result)) {
	e.reporter = fn
}

func (e *Executor) report(r Result) {
	if e.reporter != nil {
		e.reporter(r)
	}
}

// Available reports whether the named executable can be found on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Execute classifies, confirms, and runs one command. The returned error
// is reserved for infrastructure problems; command failures are described
// by the Result itself.
func (e *Executor) Execute(ctx context.Context, req Request) (*Result, error) {
	trimmed := strings.TrimSpace(req.Text)
	result := &Result{Command: trimmed, ExitCode: -1}
	if trimmed == "" {
		result.Failure = FailureError
		result.Error = "empty command"
		e.report(*result)
		return result, nil
	}

	class, frag := e.classifier.Classify(trimmed)
	dangerous := class == safety.ClassDangerous
	result.Dangerous = dangerous
	if dangerous {
		e.logger.Warn("command matched denylist",
			zap.String("command", trimmed),
			zap.String("fragment", frag))
	}

	if (req.RequireConfirmation || dangerous) && e.confirmer != nil &&
		!e.confirmer.ConfirmCommand(trimmed, req.Explanation, dangerous) {
		result.Failure = FailureDeclined
		e.logger.Info("command declined by user", zap.String("command", trimmed))
		e.report(*result)
		return result, nil
	}

	prog, args, useShell := e.resolve(trimmed)
	result.UsedShell = useShell

	timeout := e.cfg.Timeout()
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, prog, args...)
	cmd.Env = e.buildEnvironment()
	if e.cfg.WorkingDirectory != "" {
		cmd.Dir = e.cfg.WorkingDirectory
	}

	var stdoutBuf, stderrBuf bytes.Buffer
	stdoutLimited := &limitedWriter{w: &stdoutBuf, max: e.cfg.MaxOutputBytes}
	stderrLimited := &limitedWriter{w: &stderrBuf, max: e.cfg.MaxOutputBytes}
	cmd.Stdout = stdoutLimited
	cmd.Stderr = stderrLimited

	result.StartedAt = time.Now()
	e.logger.Debug("starting process",
		zap.String("program", prog),
		zap.Strings("args", args),
		zap.Bool("shell", useShell),
		zap.Duration("timeout", timeout))

	err := cmd.Run()
	result.Duration = time.Since(result.StartedAt)
	result.Stdout = strings.ToValidUTF8(stdoutBuf.String(), "�")
	result.Stderr = strings.ToValidUTF8(stderrBuf.String(), "�")
	result.Truncated = stdoutLimited.truncated || stderrLimited.truncated

	switch {
	case err == nil:
		result.ExitCode = 0
		result.Succeeded = true
	case execCtx.Err() == context.DeadlineExceeded:
		result.Failure = FailureTimeout
		result.Error = fmt.Sprintf("timed out after %s", timeout)
		e.logger.Warn("command killed by timeout",
			zap.String("command", trimmed),
			zap.Duration("timeout", timeout))
	case isNotFound(err):
		result.Failure = FailureNotFound
		result.Error = err.Error()
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// The command ran to completion; a non-zero exit is a
			// diagnostic finding, not an infrastructure failure.
			result.ExitCode = exitErr.ExitCode()
		} else {
			result.Failure = FailureError
			result.Error = err.Error()
		}
	}

	e.logger.Info("command finished",
		zap.String("command", trimmed),
		zap.Int("exit_code", result.ExitCode),
		zap.Bool("succeeded", result.Succeeded),
		zap.String("failure", string(result.Failure)),
		zap.Duration("duration", result.Duration))

	e.report(*result)
	return result, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, exec.ErrNotFound) {
		return true
	}
	var execErr *exec.Error
	return errors.As(err, &execErr) && errors.Is(execErr.Err, exec.ErrNotFound)
}

// buildEnvironment passes through only the allowed variables.
func (e *Executor) buildEnvironment() []string {
	env := make([]string, 0, len(e.cfg.AllowedEnvVars))
	for _, key := range e.cfg.AllowedEnvVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
		}
	}
	return env
}

// limitedWriter caps total bytes written, discarding the rest so a
// runaway command cannot exhaust memory.
type limitedWriter struct {
	w         io.Writer
	max       int64
	written   int64
	truncated bool
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	if lw.written >= lw.max {
		lw.truncated = true
		return n, nil
	}
	if remaining := lw.max - lw.written; int64(n) > remaining {
		lw.truncated = true
		written, err := lw.w.Write(p[:remaining])
		lw.written += int64(written)
		return n, err
	}
	written, err := lw.w.Write(p)
	lw.written += int64(written)
	return written, err
}
