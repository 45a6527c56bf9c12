//go:build linux

package autostart

import (
	"fmt"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

const (
	serviceName     = "lxmon-agent"
	defaultUnitPath = "/etc/systemd/system/lxmon-agent.service"
)

// unitTemplate is the systemd unit file written during installation.
// KillMode=mixed delivers SIGTERM to the agent only, so running commands are
// not killed by systemd while the agent drains them.
const unitTemplate = `[Unit]
Description=lxmon Monitoring Agent
After=network-online.target
Wants=network-online.target

[Service]
Type=simple
ExecStart={execPath} run --config {configPath}
Restart=always
RestartSec=10
KillMode=mixed
TimeoutStopSec={stopTimeout}
StandardOutput=journal
StandardError=journal
SyslogIdentifier=lxmon-agent

[Install]
WantedBy=multi-user.target
`

// linuxManager implements Manager for Linux using systemd.
type linuxManager struct {
	unitPath string
	run      func(name string, args ...string) error
}

// New returns a Manager that uses systemd for service management.
func New() Manager {
	return &linuxManager{
		unitPath: defaultUnitPath,
		run: func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		},
	}
}

// ServiceName returns the systemd service name.
func (l *linuxManager) ServiceName() string { return serviceName }

// IsInstalled checks whether the systemd unit file exists.
func (l *linuxManager) IsInstalled() (bool, error) {
	_, err := os.Stat(l.unitPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking unit file: %w", err)
	}
	return true, nil
}

// Install writes the systemd unit file, reloads the daemon, enables and starts the service.
func (l *linuxManager) Install(opts InstallOptions) error {
	if err := os.WriteFile(l.unitPath, []byte(renderUnit(opts)), 0644); err != nil {
		return fmt.Errorf("writing unit file: %w", err)
	}

	commands := [][]string{
		{"systemctl", "daemon-reload"},
		{"systemctl", "enable", serviceName},
		{"systemctl", "start", serviceName},
	}
	for _, args := range commands {
		if err := l.run(args[0], args[1:]...); err != nil {
			return fmt.Errorf("running %s: %w", strings.Join(args, " "), err)
		}
	}

	return nil
}

// Uninstall stops, disables, and removes the systemd service.
func (l *linuxManager) Uninstall() error {
	// Best-effort stop and disable; the service may already be inactive.
	_ = l.run("systemctl", "stop", serviceName)
	_ = l.run("systemctl", "disable", serviceName)

	if err := os.Remove(l.unitPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing unit file: %w", err)
	}

	_ = l.run("systemctl", "daemon-reload")
	return nil
}

func renderUnit(opts InstallOptions) string {
	stop := "infinity"
	if opts.StopTimeout > 0 {
		stop = strconv.Itoa(int(math.Ceil(opts.StopTimeout.Seconds()))) + "s"
	}
	return strings.NewReplacer(
		"{execPath}", opts.ExecPath,
		"{configPath}", opts.ConfigPath,
		"{stopTimeout}", stop,
	).Replace(unitTemplate)
}
