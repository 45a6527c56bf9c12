//go:build linux

package autostart

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*linuxManager, *[]string) {
	t.Helper()
	var calls []string
	m := &linuxManager{
		unitPath: filepath.Join(t.TempDir(), "lxmon-agent.service"),
		run: func(name string, args ...string) error {
			calls = append(calls, name+" "+strings.Join(args, " "))
			return nil
		},
	}
	return m, &calls
}

func TestRenderUnit(t *testing.T) {
	unit := renderUnit(InstallOptions{
		ExecPath:    "/usr/local/bin/lxmon-agent",
		ConfigPath:  "/etc/lxmon/agent.yaml",
		StopTimeout: 395500 * time.Millisecond,
	})

	assert.Contains(t, unit, "ExecStart=/usr/local/bin/lxmon-agent run --config /etc/lxmon/agent.yaml\n")
	assert.Contains(t, unit, "TimeoutStopSec=396s\n")
	assert.Contains(t, unit, "KillMode=mixed\n")
	assert.NotContains(t, unit, "{")
}

func TestRenderUnit_NoStopTimeout(t *testing.T) {
	unit := renderUnit(InstallOptions{ExecPath: "/bin/agent", ConfigPath: "/c.yaml"})
	assert.Contains(t, unit, "TimeoutStopSec=infinity\n")
}

func TestInstallUninstall(t *testing.T) {
	m, calls := newTestManager(t)

	installed, err := m.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)

	require.NoError(t, m.Install(InstallOptions{ExecPath: "/bin/agent", ConfigPath: "/c.yaml"}))
	installed, err = m.IsInstalled()
	require.NoError(t, err)
	assert.True(t, installed)
	assert.Equal(t, []string{
		"systemctl daemon-reload",
		"systemctl enable lxmon-agent",
		"systemctl start lxmon-agent",
	}, *calls)

	require.NoError(t, m.Uninstall())
	_, err = os.Stat(m.unitPath)
	assert.True(t, os.IsNotExist(err))
}

func TestInstall_SystemctlFailure(t *testing.T) {
	m, _ := newTestManager(t)
	m.run = func(name string, args ...string) error {
		if len(args) > 0 && args[0] == "start" {
			return errors.New("exit status 1")
		}
		return nil
	}

	err := m.Install(InstallOptions{ExecPath: "/bin/agent"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "systemctl start lxmon-agent")
}
