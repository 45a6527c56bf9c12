package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/eminbuyuk/lxmon/internal/autostart"
	"github.com/eminbuyuk/lxmon/internal/config"
)

func newServiceCmd(flags *rootFlags) *cobra.Command {
	svc := &cobra.Command{
		Use:   "service",
		Short: "Manage the agent's boot-time service",
	}

	install := &cobra.Command{
		Use:   "install",
		Short: "Install and start the agent as a system service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return installService(cmd, flags, autostart.New())
		},
	}
	install.Flags().StringVar(&flags.serverURL, "server-url", "", "Collector base URL")
	install.Flags().StringVar(&flags.apiKey, "api-key", "", "Collector API key")

	uninstall := &cobra.Command{
		Use:   "uninstall",
		Short: "Stop and remove the agent's system service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			m := autostart.New()
			if err := m.Uninstall(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed service %s\n", m.ServiceName())
			return nil
		},
	}

	svc.AddCommand(install, uninstall)
	return svc
}

func installService(cmd *cobra.Command, flags *rootFlags, m autostart.Manager) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return err
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locating agent binary: %w", err)
	}
	if exe, err = filepath.EvalSymlinks(exe); err != nil {
		return fmt.Errorf("resolving agent binary: %w", err)
	}

	configPath := config.SystemPath()
	if cmd.Flags().Changed("config") {
		configPath = flags.configPath
	}
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// The hostname stays unset so a cloned machine picks up its own.
		persisted := *cfg
		persisted.Hostname = ""
		if err := config.WriteConfig(&persisted, configPath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote config %s\n", configPath)
	}

	opts := autostart.InstallOptions{
		ExecPath:   exe,
		ConfigPath: configPath,
		StopTimeout: autostart.DrainBudget(
			cfg.Commands.Timeout.Duration,
			cfg.Server.RequestTimeout.Duration,
			cfg.Retry.Delay.Duration,
			cfg.Retry.MaxAttempts,
		),
	}
	if err := m.Install(opts); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Installed service %s\n", m.ServiceName())
	return nil
}
