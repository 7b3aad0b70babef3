package encoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/lyzr/compressor/common/logger"
)

const (
	stderrLogCap = 8 << 10
	waitDelay    = 5 * time.Second
)

// Runner lets us stub external commands in tests.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs binaries as child processes bound to ctx. When ctx ends the
// process is killed and Wait gives up after a short grace period.
type ExecRunner struct {
	log *logger.Logger
}

// NewExecRunner creates a runner that logs every invocation
func NewExecRunner(log *logger.Logger) *ExecRunner {
	return &ExecRunner{log: log}
}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Kill()
	}
	cmd.WaitDelay = waitDelay

	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	dur := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%s interrupted: %w", name, ctxErr)
		}
		r.log.Warn("exec failed",
			"cmd", name,
			"args", strings.Join(args, " "),
			"duration_ms", dur.Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), stderrLogCap),
		)
		return out.Bytes(), errb.Bytes(), &ToolError{Tool: name, Stderr: truncate(errb.String(), stderrLogCap), Err: err}
	}

	r.log.Debug("exec ok",
		"cmd", name,
		"args", strings.Join(args, " "),
		"duration_ms", dur.Milliseconds(),
		"stdout_bytes", out.Len(),
		"stderr_bytes", errb.Len(),
	)
	return out.Bytes(), errb.Bytes(), nil
}

// ToolError is a failed external tool invocation
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, lastLine(e.Stderr))
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

var transientMarkers = []string{
	"resource temporarily unavailable",
	"cannot allocate memory",
	"too many open files",
	"out of memory",
}

// Transient reports whether the failure looks like temporary resource exhaustion
func (e *ToolError) Transient() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) || errors.Is(e.Err, context.Canceled) {
		return false
	}
	if isTransientErrno(e.Err) {
		return true
	}
	text := strings.ToLower(e.Stderr + " " + e.Err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}

// IsTransient reports whether any error in err's chain is a transient failure
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return toolErr.Transient()
	}
	return isTransientErrno(err)
}

func isTransientErrno(err error) bool {
	return errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.ENOMEM) || errors.Is(err, syscall.EMFILE)
}

// Available reports whether a binary can be resolved on PATH
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// ToolVersion runs the binary with its version flag and returns the first output line
func ToolVersion(ctx context.Context, r Runner, name string, versionArgs ...string) (string, error) {
	stdout, _, err := r.Run(ctx, name, versionArgs...)
	if err != nil {
		return "", err
	}
	return firstLine(string(stdout)), nil
}

// fileSize returns the size of path in bytes
func fileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return s
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
