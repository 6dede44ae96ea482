package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"LLMChatbot/internal/backend"
	"LLMChatbot/internal/config"
	"LLMChatbot/internal/telemetry"

	"github.com/spf13/cobra"
)

type app struct {
	cfg     config.Config
	logger  *slog.Logger
	client  *backend.Client
	cleanup []func()
}

func (a *app) close() {
	for i := len(a.cleanup) - 1; i >= 0; i-- {
		a.cleanup[i]()
	}
}

func main() {
	var (
		configPath string
		overrides  config.Config
		a          = &app{}
	)

	root := &cobra.Command{
		Use:          "chatwidget",
		Short:        "Chat widget relaying host input to a chat-completion API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("api-key") {
				cfg.Credential = overrides.Credential
			}
			if flags.Changed("model") {
				cfg.Model = overrides.Model
			}
			if flags.Changed("endpoint") {
				cfg.Endpoint = overrides.Endpoint
			}
			if flags.Changed("timeout") {
				cfg.Timeout = overrides.Timeout
			}
			if flags.Changed("log-dir") {
				cfg.LogDir = overrides.LogDir
			}
			if flags.Changed("debug") {
				cfg.Debug = overrides.Debug
			}
			if flags.Changed("listen") {
				cfg.ListenAddr = overrides.ListenAddr
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			a.cfg = cfg
			return a.init(cmd.Context())
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to a TOML config file")
	pf.StringVar(&overrides.Credential, "api-key", "", "Bearer credential for the completion API (default $"+config.CredentialEnv+")")
	pf.StringVar(&overrides.Model, "model", config.DefaultModel, "Model identifier sent with every request")
	pf.StringVar(&overrides.Endpoint, "endpoint", config.DefaultEndpoint, "Chat completions endpoint")
	pf.DurationVar(&overrides.Timeout, "timeout", config.DefaultTimeout, "Upper bound for a single completion request")
	pf.StringVar(&overrides.LogDir, "log-dir", config.DefaultLogDir, "Directory for logs, traces and metrics")
	pf.BoolVar(&overrides.Debug, "debug", false, "Enable debug logging")

	serve := newServeCommand(a)
	serve.Flags().StringVar(&overrides.ListenAddr, "listen", config.DefaultListenAddr, "Address the host bridge listens on")

	root.AddCommand(newChatCommand(a), serve)

	err := root.ExecuteContext(context.Background())
	a.close()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func (a *app) init(ctx context.Context) error {
	logger, closeLog, err := telemetry.InitLogger(a.cfg.LogDir, a.cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.logger = logger
	a.cleanup = append(a.cleanup, func() {
		if err := closeLog(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to close log: %v\n", err)
		}
	})

	tracer, meter, shutdown, err := telemetry.InitTelemetry(ctx, a.cfg.LogDir)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	a.cleanup = append(a.cleanup, shutdown)

	if a.cfg.Debug {
		logger.Info("Debug mode enabled")
	}

	a.client = backend.NewClient(a.cfg.Endpoint, a.cfg.Model,
		backend.WithLogger(logger),
		backend.WithTracer(tracer),
		backend.WithMeter(meter),
	)
	logger.Info("completion client ready",
		"endpoint", a.cfg.Endpoint,
		"model", a.client.Model(),
		"timeout", a.cfg.Timeout.String(),
		"credential_set", a.cfg.Credential != "",
	)
	return nil
}
