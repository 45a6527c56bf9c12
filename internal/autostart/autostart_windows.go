//go:build windows

package autostart

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows/svc"
	"golang.org/x/sys/windows/svc/mgr"

	"github.com/eminbuyuk/lxmon/internal/service"
)

const (
	serviceName    = service.Name
	serviceDisplay = "lxmon Monitoring Agent"
	serviceDesc    = "Ships host metrics to the lxmon collector and runs remote commands"

	restartDelay = 10 * time.Second
	pollInterval = 500 * time.Millisecond
)

// windowsManager implements Manager for Windows using the Service Control Manager.
type windowsManager struct {
	stopTimeout time.Duration
}

// New returns a Manager that uses the Windows Service Control Manager.
func New() Manager {
	return &windowsManager{stopTimeout: 30 * time.Second}
}

// ServiceName returns the Windows service name.
func (w *windowsManager) ServiceName() string { return serviceName }

// IsInstalled checks whether the service is registered in the SCM.
func (w *windowsManager) IsInstalled() (bool, error) {
	m, err := mgr.Connect()
	if err != nil {
		return false, fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		return false, nil
	}
	s.Close()
	return true, nil
}

// Install creates the service with restart-on-failure and starts it.
func (w *windowsManager) Install(opts InstallOptions) error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.CreateService(serviceName, opts.ExecPath, mgr.Config{
		DisplayName: serviceDisplay,
		Description: serviceDesc,
		StartType:   mgr.StartAutomatic,
	}, "run", "--config", opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("creating service: %w", err)
	}
	defer s.Close()

	actions := []mgr.RecoveryAction{
		{Type: mgr.ServiceRestart, Delay: restartDelay},
		{Type: mgr.ServiceRestart, Delay: restartDelay},
		{Type: mgr.ServiceRestart, Delay: restartDelay},
	}
	if err := s.SetRecoveryActions(actions, uint32((24 * time.Hour).Seconds())); err != nil {
		return fmt.Errorf("setting recovery actions: %w", err)
	}

	if err := s.Start(); err != nil {
		return fmt.Errorf("starting service: %w", err)
	}
	return nil
}

// Uninstall stops the service, waits for it to drain and deletes it.
func (w *windowsManager) Uninstall() error {
	m, err := mgr.Connect()
	if err != nil {
		return fmt.Errorf("connecting to SCM: %w", err)
	}
	defer m.Disconnect()

	s, err := m.OpenService(serviceName)
	if err != nil {
		return fmt.Errorf("opening service: %w", err)
	}
	defer s.Close()

	// Ignore errors; the service may already be stopped.
	if status, err := s.Control(svc.Stop); err == nil {
		deadline := time.Now().Add(w.stopTimeout)
		for status.State != svc.Stopped && time.Now().Before(deadline) {
			time.Sleep(pollInterval)
			if status, err = s.Query(); err != nil {
				break
			}
		}
	}

	if err := s.Delete(); err != nil {
		return fmt.Errorf("deleting service: %w", err)
	}
	return nil
}
