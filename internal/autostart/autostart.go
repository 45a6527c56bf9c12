// Package autostart installs the agent as a boot-time service.
package autostart

import (
	"errors"
	"time"
)

// ErrUnsupported is returned on platforms without an installer.
var ErrUnsupported = errors.New("service installation is not supported on this platform")

// InstallOptions describes the service being installed.
type InstallOptions struct {
	// ExecPath is the absolute path of the agent binary.
	ExecPath string

	// ConfigPath is passed to the agent with --config.
	ConfigPath string

	// StopTimeout is how long the service manager waits for the agent to
	// drain before killing it.
	StopTimeout time.Duration
}

// Manager provides platform-specific autostart installation.
type Manager interface {
	IsInstalled() (bool, error)
	Install(opts InstallOptions) error
	Uninstall() error
	ServiceName() string
}

// DrainBudget estimates the longest graceful shutdown: one command running to
// its timeout followed by a result send that uses every retry.
func DrainBudget(commandTimeout, requestTimeout, retryDelay time.Duration, attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	send := time.Duration(attempts)*requestTimeout + time.Duration(attempts-1)*retryDelay
	return commandTimeout + send
}
