//go:build !windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	return []string{
		filepath.Join(home, ".lxmon", "agent.yaml"),
		"/etc/lxmon/agent.yaml",
	}
}

func defaultShell() string { return "bash" }

// SystemPath is where a service installation keeps its config.
func SystemPath() string { return "/etc/lxmon/agent.yaml" }
