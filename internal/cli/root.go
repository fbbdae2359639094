// Package cli implements the bunqledger command line
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/alexbotov/bunqledger/internal/config"
	"github.com/alexbotov/bunqledger/internal/credstore"
	"github.com/alexbotov/bunqledger/internal/ledger"
	"github.com/alexbotov/bunqledger/internal/logging"
	"github.com/alexbotov/bunqledger/internal/metrics"
	"github.com/alexbotov/bunqledger/pkg/bunq"
)

// app holds state shared by all commands
type app struct {
	configPath string
	logLevel   string
	apiURL     string

	cfg *config.Config
	log *zap.Logger
}

// Execute runs the command line and returns the process exit code
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := NewRootCommand(os.Stdout, os.Stderr)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, color.New(color.FgRed).Sprint("Error: ")+err.Error())
		return 1
	}
	return 0
}

// NewRootCommand builds the command tree writing to out and errOut
func NewRootCommand(out, errOut io.Writer) *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "bunqledger",
		Short:         "Read accounts and payments from the bunq API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "path to a TOML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&a.apiURL, "api-url", "", "bunq API base URL")

	root.AddCommand(
		newAccountsCommand(a),
		newPaymentsCommand(a),
		newResetCommand(a),
		newSandboxCommand(a),
		newVersionCommand(),
	)
	return root
}

// setup loads configuration and applies command line overrides
func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.apiURL != "" {
		cfg.API.URL = a.apiURL
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	return nil
}

// service opens the credential store and builds the ledger service. The
// returned function releases the store.
func (a *app) service(ctx context.Context) (*ledger.Service, func(), error) {
	store, err := credstore.Open(ctx, a.cfg.Store)
	if err != nil {
		return nil, nil, err
	}

	clientCfg := &bunq.ClientConfig{
		BaseURL:   a.cfg.API.URL,
		UserAgent: a.cfg.API.UserAgent,
		Timeout:   a.cfg.API.Timeout.Get(),
		PageSize:  a.cfg.API.PageSize,
		Logger:    a.log.Named("bunq"),
	}
	if a.cfg.Metrics.Enabled {
		recorder := metrics.New()
		clientCfg.Observer = recorder
		go func() {
			if err := recorder.Serve(ctx, a.cfg.Metrics.Addr, a.log); err != nil {
				a.log.Error("metrics server stopped", zap.Error(err))
			}
		}()
	}

	svc := ledger.New(bunq.NewClient(clientCfg), store,
		ledger.WithAPIKey(a.cfg.API.Key),
		ledger.WithLogger(a.log),
		ledger.WithHandshakeOptions(
			bunq.WithDeviceDescription(a.cfg.API.DeviceDescription),
			bunq.WithPermittedIPs(a.cfg.API.PermittedIPs),
		),
	)

	cleanup := func() {
		if err := store.Close(); err != nil {
			a.log.Warn("failed to close credential store", zap.Error(err))
		}
	}
	return svc, cleanup, nil
}
