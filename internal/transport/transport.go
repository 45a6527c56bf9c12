// Package transport implements the retrying HTTP client used for every call to
// the collector. A call is attempted up to retry.max_attempts times with a fixed
// retry.delay between attempts; network errors and non-2xx statuses count as
// failed attempts.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/config"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 4 << 20

// ErrExhausted matches every error returned after all attempts failed.
var ErrExhausted = errors.New("retries exhausted")

// ExhaustedError reports a call that failed on every attempt.
type ExhaustedError struct {
	Method   string
	Path     string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s %s: %d attempts failed: %v", e.Method, e.Path, e.Attempts, e.Last)
}

// Is makes errors.Is(err, ErrExhausted) hold.
func (e *ExhaustedError) Is(target error) bool {
	return target == ErrExhausted
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// StatusError is a failed attempt caused by a non-2xx response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, e.Body)
}

// Request describes one collector call.
type Request struct {
	Method string
	Path   string
	Query  url.Values

	// Body is marshalled to JSON once, before the first attempt. Nil sends no body.
	Body interface{}

	// Auth attaches the X-API-Key header.
	Auth bool
}

// Client sends requests to the collector. It holds no per-call state and is
// safe for concurrent use.
type Client struct {
	client  *http.Client
	cfg     *config.Config
	logger  *zap.Logger
	metrics *agentmetrics.Metrics
}

// New creates a Client for the collector configured in cfg.
func New(cfg *config.Config, logger *zap.Logger, metrics *agentmetrics.Metrics) *Client {
	return &Client{
		client: &http.Client{
			Timeout: cfg.Server.RequestTimeout.Duration,
		},
		cfg:     cfg,
		logger:  logger.Named("transport"),
		metrics: metrics,
	}
}

// Send performs req with retries and returns the body of the first successful
// response. When every attempt fails the error is an *ExhaustedError. A body
// that cannot be marshalled fails immediately without any attempt.
func (c *Client) Send(ctx context.Context, req Request) ([]byte, error) {
	var payload []byte
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s body: %w", req.Path, err)
		}
		payload = data
	}

	maxAttempts := c.cfg.Retry.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(c.cfg.Retry.Delay.Duration), uint64(maxAttempts-1)),
		ctx,
	)

	var (
		attempt int
		body    []byte
		lastErr error
	)
	err := backoff.Retry(func() error {
		attempt++
		data, err := c.do(ctx, req, payload)
		if err != nil {
			lastErr = err
			c.metrics.TransportAttemptFailures.WithLabelValues(req.Path).Inc()
			c.logger.Warn("Request failed",
				zap.String("method", req.Method),
				zap.String("path", req.Path),
				zap.Int("attempt", attempt),
				zap.Int("max_attempts", maxAttempts),
				zap.Error(err))
			return err
		}
		body = data
		return nil
	}, policy)
	if err == nil {
		return body, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.Path, ctxErr)
	}
	c.metrics.TransportExhausted.WithLabelValues(req.Path).Inc()
	return nil, &ExhaustedError{
		Method:   req.Method,
		Path:     req.Path,
		Attempts: attempt,
		Last:     lastErr,
	}
}

// do performs a single attempt.
func (c *Client) do(ctx context.Context, req Request, payload []byte) ([]byte, error) {
	target := strings.TrimRight(c.cfg.Server.URL, "/") + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.Auth {
		httpReq.Header.Set("X-API-Key", c.cfg.Server.APIKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: snippet(data)}
	}
	if len(data) > maxResponseBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", maxResponseBytes)
	}
	return data, nil
}

// snippet trims an error body for logging.
func snippet(b []byte) string {
	const limit = 256
	s := strings.TrimSpace(string(b))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
