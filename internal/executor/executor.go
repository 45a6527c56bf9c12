// Package executor runs remote commands under a shell with a hard deadline and
// turns each run into exactly one CommandResult.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/config"
	"github.com/eminbuyuk/lxmon/internal/models"
)

// waitDelay bounds how long Wait keeps reading output after the process was
// killed, for descendants that escaped the kill while holding the pipes.
const waitDelay = 2 * time.Second

// Executor runs commands. It is safe for concurrent use.
type Executor struct {
	shell     string
	timeout   time.Duration
	maxOutput int
	logger    *zap.Logger
	metrics   *agentmetrics.Metrics
}

// New creates an Executor from the commands section of cfg.
func New(cfg *config.Config, logger *zap.Logger, metrics *agentmetrics.Metrics) *Executor {
	return &Executor{
		shell:     cfg.Commands.Shell,
		timeout:   cfg.Commands.Timeout.Duration,
		maxOutput: cfg.Commands.MaxOutputBytes,
		logger:    logger.Named("executor"),
		metrics:   metrics,
	}
}

// Execute runs cmd.Command through the shell and waits for it, killing the
// whole process tree once the timeout elapses. It never returns an error:
// failures are encoded in the result's exit code and stderr.
func (e *Executor) Execute(ctx context.Context, cmd models.PendingCommand) models.CommandResult {
	e.logger.Info("Executing command",
		zap.Int64("command_id", cmd.ID),
		zap.String("command", cmd.Command))

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	stdout := newCappedBuffer(e.maxOutput)
	stderr := newCappedBuffer(e.maxOutput)

	c := exec.CommandContext(runCtx, e.shell, shellArgs(e.shell, cmd.Command)...)
	c.Stdout = stdout
	c.Stderr = stderr
	c.WaitDelay = waitDelay
	tree := configureProcess(c)
	defer tree.release()

	var killed atomic.Bool
	kill := c.Cancel
	c.Cancel = func() error {
		killed.Store(true)
		return kill()
	}

	start := time.Now()
	err := c.Start()
	if err == nil {
		if aerr := tree.attach(c); aerr != nil {
			e.logger.Warn("Command descendants will not be killed on timeout",
				zap.Int64("command_id", cmd.ID),
				zap.Error(aerr))
		}
		err = c.Wait()
	}
	elapsed := time.Since(start)

	timedOut := killed.Load() && errors.Is(runCtx.Err(), context.DeadlineExceeded)
	exitCode, outcome := classify(c, err, timedOut)
	switch outcome {
	case agentmetrics.OutcomeTimeout:
		stderr.appendLine(fmt.Sprintf("command timed out after %s", e.timeout))
	case agentmetrics.OutcomeStartErr:
		stderr.appendLine(err.Error())
	}

	e.metrics.CommandsTotal.WithLabelValues(outcome).Inc()
	e.metrics.CommandDuration.Observe(elapsed.Seconds())

	e.logger.Info("Command finished",
		zap.Int64("command_id", cmd.ID),
		zap.Int("exit_code", exitCode),
		zap.String("outcome", outcome),
		zap.Duration("duration", elapsed))

	return models.CommandResult{
		CommandID:       cmd.ID,
		ExitCode:        exitCode,
		Stdout:          stdout.String(),
		Stderr:          stderr.String(),
		DurationSeconds: elapsed.Seconds(),
		Timestamp:       time.Now().UTC(),
	}
}

// classify maps the outcome of a run to an exit code. Normal exits keep their
// status; anything that ended without one (start failure, signal, timeout)
// reports 1. timedOut means the deadline kill was delivered.
func classify(c *exec.Cmd, err error, timedOut bool) (int, string) {
	if err != nil && timedOut {
		return 1, agentmetrics.OutcomeTimeout
	}

	if err == nil || errors.Is(err, exec.ErrWaitDelay) {
		if c.ProcessState != nil && c.ProcessState.ExitCode() > 0 {
			return c.ProcessState.ExitCode(), agentmetrics.OutcomeFailure
		}
		return 0, agentmetrics.OutcomeSuccess
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if code := exitErr.ExitCode(); code > 0 {
			return code, agentmetrics.OutcomeFailure
		}
		return 1, agentmetrics.OutcomeFailure
	}

	return 1, agentmetrics.OutcomeStartErr
}
