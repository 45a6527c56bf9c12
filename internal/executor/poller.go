package executor

import (
	"context"

	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// CommandAPI is the part of the collector client the poller needs.
type CommandAPI interface {
	PollCommands(ctx context.Context, hostname string) ([]models.PendingCommand, error)
	SubmitResult(ctx context.Context, hostname string, res models.CommandResult) error
}

// Poller fetches pending commands and reports their results.
type Poller struct {
	api      CommandAPI
	hostname string
	logger   *zap.Logger
}

// NewPoller creates a Poller acting for hostname.
func NewPoller(api CommandAPI, hostname string, logger *zap.Logger) *Poller {
	return &Poller{
		api:      api,
		hostname: hostname,
		logger:   logger.Named("poller"),
	}
}

// Poll returns the commands queued for this host. Any failure is logged and
// yields no commands; the next tick polls again.
func (p *Poller) Poll(ctx context.Context) []models.PendingCommand {
	cmds, err := p.api.PollCommands(ctx, p.hostname)
	if err != nil {
		p.logger.Warn("Command poll failed", zap.Error(err))
		return nil
	}
	if len(cmds) > 0 {
		p.logger.Info("Found pending commands", zap.Int("count", len(cmds)))
	}
	return cmds
}

// Report sends one result. If every attempt fails the result is dropped; the
// command is never run again.
func (p *Poller) Report(ctx context.Context, res models.CommandResult) {
	if err := p.api.SubmitResult(ctx, p.hostname, res); err != nil {
		p.logger.Error("Dropping command result",
			zap.Int64("command_id", res.CommandID),
			zap.Error(err))
		return
	}
	p.logger.Debug("Command result sent",
		zap.Int64("command_id", res.CommandID),
		zap.Int("exit_code", res.ExitCode))
}
