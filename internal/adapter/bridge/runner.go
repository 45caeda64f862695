package bridge

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os/exec"
	"strings"
	"time"

	"github.com/droidkeep/droidkeep/internal/domain"
)

// DefaultCommandTimeout bounds every short-lived bridge invocation.
// The long-running backup subprocess does not go through the Runner.
const DefaultCommandTimeout = 30 * time.Second

// Logger is the slice of the application logger the bridge adapters need.
type Logger interface {
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
}

// Runner invokes the adb binary for short request/response commands,
// applying a per-call timeout and mapping failures onto the bridge
// error taxonomy.
type Runner struct {
	binary  string
	timeout time.Duration
	logger  Logger
}

func NewRunner(binary string, timeout time.Duration, logger Logger) *Runner {
	if binary == "" {
		binary = "adb"
	}
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &Runner{binary: binary, timeout: timeout, logger: logger}
}

// Binary returns the configured bridge binary path.
func (r *Runner) Binary() string { return r.binary }

// Run executes `<binary> [-s <device>] <args...>`. When raw is false,
// stdout and stderr come back whitespace-trimmed; raw preserves exact
// bytes for dumps where whitespace matters.
func (r *Runner) Run(ctx context.Context, device domain.DeviceID, raw bool, args ...string) (string, string, error) {
	cctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	full := make([]string, 0, len(args)+2)
	if device != "" {
		full = append(full, "-s", string(device))
	}
	full = append(full, args...)

	cmd := exec.CommandContext(cctx, r.binary, full...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	outStr, errStr := stdout.String(), stderr.String()
	if !raw {
		outStr = strings.TrimSpace(outStr)
		errStr = strings.TrimSpace(errStr)
	}

	if err != nil {
		return outStr, errStr, r.classify(cctx, err, errStr)
	}
	return outStr, errStr, nil
}

func (r *Runner) classify(ctx context.Context, err error, stderr string) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		r.logger.Warnf("Bridge command timed out after %s", r.timeout)
		return &Error{Kind: KindTimeout, Err: err}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		r.logger.Warnf("Bridge binary %s not found; install adb or set bridge.binary", r.binary)
		return &Error{Kind: KindBridgeNotFound, Err: err}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &Error{Kind: KindNonZeroExit, Stderr: strings.TrimSpace(stderr), Err: err}
	}
	return &Error{Kind: KindUnexpected, Err: err}
}
