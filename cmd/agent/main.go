// Package main is the entry point for the lxmon monitoring agent.
// It loads configuration, wires collectors, the collector client and the
// command executor into the scheduler, and runs either as a Windows service
// or as a foreground process stopped by SIGINT/SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eminbuyuk/lxmon/internal/agentmetrics"
	"github.com/eminbuyuk/lxmon/internal/collector"
	"github.com/eminbuyuk/lxmon/internal/config"
	"github.com/eminbuyuk/lxmon/internal/executor"
	"github.com/eminbuyuk/lxmon/internal/logging"
	"github.com/eminbuyuk/lxmon/internal/scheduler"
	"github.com/eminbuyuk/lxmon/internal/service"
	"github.com/eminbuyuk/lxmon/internal/transport"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	configPath string
	serverURL  string
	apiKey     string
	debug      bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootFlags{})
}

func newRootCmdWith(flags *rootFlags) *cobra.Command {
	root := &cobra.Command{
		Use:           "lxmon-agent",
		Short:         "Host monitoring agent: ships metrics and runs remote commands",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to configuration file (default: search standard locations)")

	run := &cobra.Command{
		Use:   "run",
		Short: "Run the agent in the foreground (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommand(cmd, flags)
		},
	}
	for _, c := range []*cobra.Command{root, run} {
		c.Flags().StringVar(&flags.serverURL, "server-url", "", "Collector base URL")
		c.Flags().StringVar(&flags.apiKey, "api-key", "", "Collector API key")
		c.Flags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")
	}

	root.AddCommand(run, newVersionCmd(), newServiceCmd(flags))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the agent version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lxmon-agent %s\n", version)
		},
	}
}

// loadConfig builds the validated configuration from every layer.
func loadConfig(cmd *cobra.Command, flags *rootFlags) (*config.Config, error) {
	cli := config.CLIOverrides{
		URL:    flags.serverURL,
		APIKey: flags.apiKey,
		Debug:  flags.debug,
	}

	var (
		cfg *config.Config
		err error
	)
	if cmd.Flags().Changed("config") {
		cfg, err = config.LoadLayered(cli, embeddedConfig, flags.configPath)
	} else {
		cfg, err = config.LoadLayered(cli, embeddedConfig)
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveHostname(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runCommand(cmd *cobra.Command, flags *rootFlags) error {
	cfg, err := loadConfig(cmd, flags)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg)
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Sync()

	logger.Info("Starting lxmon agent",
		zap.String("version", version),
		zap.String("server", cfg.Server.URL),
		zap.String("hostname", cfg.Hostname))

	if service.IsWindowsService() {
		logger.Info("Running as Windows service")
		svc := service.New(logger, func(ctx context.Context) error {
			return runAgent(ctx, cfg, logger)
		})
		if err := svc.Run(); err != nil {
			logger.Error("Service failed", zap.Error(err))
			return err
		}
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown requested, draining")
	}()

	if err := runAgent(ctx, cfg, logger); err != nil {
		logger.Error("Agent failed", zap.Error(err))
		return err
	}
	logger.Info("Agent stopped")
	return nil
}

// runAgent wires all components and blocks until the scheduler has drained.
func runAgent(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	metrics := agentmetrics.New()

	if cfg.Metrics.Listen != "" {
		srv := agentmetrics.NewServer(cfg.Metrics.Listen, metrics, logger)
		srv.Start()
		defer func() {
			if err := srv.Shutdown(); err != nil {
				logger.Warn("Metrics listener shutdown failed", zap.Error(err))
			}
		}()
	}

	client := transport.New(cfg, logger, metrics)

	registry := collector.NewRegistry(logger, metrics)
	for _, c := range collector.Defaults(logger) {
		registry.Register(c)
	}
	active := registry.Collectors()
	names := make([]string, 0, len(active))
	for _, c := range active {
		names = append(names, c.Name())
	}
	logger.Info("Collectors registered", zap.Strings("collectors", names))

	sched := scheduler.New(
		cfg,
		registry,
		client,
		executor.New(cfg, logger, metrics),
		scheduler.HostIdentity{
			OSInfo:  collector.HostInfo,
			LocalIP: collector.LocalIP,
		},
		logger,
		metrics,
	)
	return sched.Run(ctx)
}
