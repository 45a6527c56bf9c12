//go:build windows

package config

import (
	"os"
	"path/filepath"
)

func configSearchPaths() []string {
	local := os.Getenv("LOCALAPPDATA")
	programData := os.Getenv("ProgramData")
	return []string{
		filepath.Join(local, "lxmon", "agent.yaml"),
		filepath.Join(programData, "lxmon", "agent.yaml"),
	}
}

func defaultShell() string { return "cmd" }

// SystemPath is where a service installation keeps its config.
func SystemPath() string {
	return filepath.Join(os.Getenv("ProgramData"), "lxmon", "agent.yaml")
}
