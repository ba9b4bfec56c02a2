// Package host starts the agent host so it picks up newly queued inbox
// messages.
//
// The launcher does not wait for the host to finish. It watches the child
// for a short grace period, reports what it saw, and returns; a host that
// is still running carries on in its own session after the bridge exits.
package host

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"github.com/tinyland-inc/chibi-xmpp/pkg/logger"
)

// Outcome describes what was observed during the grace period.
type Outcome struct {
	PID      int
	Exited   bool // false when the host was still running at the deadline
	ExitCode int
	Err      error // non-nil when the host exited unsuccessfully
}

type Launcher struct {
	binaryPath string
	prompt     string
	grace      time.Duration
}

func NewLauncher(binaryPath, prompt string, grace time.Duration) *Launcher {
	return &Launcher{
		binaryPath: binaryPath,
		prompt:     prompt,
		grace:      grace,
	}
}

// Args returns the host command line for a context.
func (l *Launcher) Args(contextName string) []string {
	return []string{"-c", contextName, l.prompt}
}

// Notify starts the host for contextName. Only a failure to start is
// returned as an error; the host's own exit status is reported in Outcome.
func (l *Launcher) Notify(ctx context.Context, contextName string) (Outcome, error) {
	cmd := exec.Command(l.binaryPath, l.Args(contextName)...)
	detach(cmd)

	if err := cmd.Start(); err != nil {
		return Outcome{}, fmt.Errorf("starting host %s: %w", l.binaryPath, err)
	}

	out := Outcome{PID: cmd.Process.Pid}
	logger.InfoCF("host", "Host started", map[string]any{
		"binary":  l.binaryPath,
		"context": contextName,
		"pid":     out.PID,
	})

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(l.grace)
	defer timer.Stop()

	select {
	case err := <-done:
		out.Exited = true
		out.ExitCode = cmd.ProcessState.ExitCode()
		if err != nil {
			out.Err = err
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				logger.WarnCF("host", "Host exited with error", map[string]any{
					"context":   contextName,
					"exit_code": out.ExitCode,
				})
			} else {
				logger.WarnCF("host", "Waiting for host failed", map[string]any{
					"context": contextName,
					"error":   err.Error(),
				})
			}
		}
	case <-timer.C:
		logger.DebugCF("host", "Host still running, leaving it to finish", map[string]any{
			"context": contextName,
			"pid":     out.PID,
		})
	case <-ctx.Done():
		logger.DebugCF("host", "Stopped watching host", map[string]any{
			"context": contextName,
			"reason":  ctx.Err().Error(),
		})
	}

	return out, nil
}
