package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/eminbuyuk/lxmon/internal/models"
)

// Collector API paths.
const (
	PathRegister      = "/api/agent/register"
	PathMetrics       = "/api/agent/metrics"
	PathCommands      = "/api/agent/commands"
	PathCommandResult = "/api/agent/command-result"
)

// Register announces this agent to the collector.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	_, err := c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   PathRegister,
		Body:   reg,
	})
	return err
}

// SubmitMetrics sends one batch. The batch is accepted or retried as a whole.
func (c *Client) SubmitMetrics(ctx context.Context, batch models.MetricsSubmission) error {
	_, err := c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   PathMetrics,
		Body:   batch,
	})
	return err
}

// PollCommands fetches the commands queued for hostname. A response that does
// not decode is reported as an error but is not retried.
func (c *Client) PollCommands(ctx context.Context, hostname string) ([]models.PendingCommand, error) {
	data, err := c.Send(ctx, Request{
		Method: http.MethodGet,
		Path:   PathCommands,
		Query:  url.Values{"hostname": {hostname}},
		Auth:   true,
	})
	if err != nil {
		return nil, err
	}

	var cmds []models.PendingCommand
	if err := json.Unmarshal(data, &cmds); err != nil {
		return nil, fmt.Errorf("decode commands: %w", err)
	}
	return cmds, nil
}

// SubmitResult reports the outcome of one executed command.
func (c *Client) SubmitResult(ctx context.Context, hostname string, res models.CommandResult) error {
	_, err := c.Send(ctx, Request{
		Method: http.MethodPost,
		Path:   PathCommandResult,
		Query:  url.Values{"hostname": {hostname}},
		Body:   res,
		Auth:   true,
	})
	return err
}
