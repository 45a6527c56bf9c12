//go:build !windows

// Package service provides Windows Service integration. On other platforms
// the agent runs in the foreground and is supervised by systemd or a shell.
package service

import (
	"context"

	"go.uber.org/zap"
)

// Name is the service name used on every platform.
const Name = "lxmon-agent"

// AgentService runs the agent directly on non-Windows platforms.
type AgentService struct {
	logger *zap.Logger
	runFn  func(ctx context.Context) error
}

// New creates a foreground wrapper.
func New(logger *zap.Logger, runFn func(ctx context.Context) error) *AgentService {
	return &AgentService{
		logger: logger,
		runFn:  runFn,
	}
}

// IsWindowsService always returns false on non-Windows platforms.
func IsWindowsService() bool {
	return false
}

// Run executes the agent until it returns on its own.
func (s *AgentService) Run() error {
	return s.runFn(context.Background())
}
