// Package main provides funnelctl, an operator CLI working directly on the funnel document store.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/config"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/messaging"
	"github.com/lexlab-ai/funnel/internal/providers/natsbus"
	"github.com/lexlab-ai/funnel/internal/store"
)

var (
	version = "dev"

	// Global flags
	configFile string
	envPath    string
	outputFlag string

	globalApp *app
)

// app holds the services shared by all subcommands
type app struct {
	cfg      *config.CLIConfig
	clock    adapter.Clock
	store    store.Store
	leads    leads.Service
	activity *activity.Log
}

func newApp(ctx context.Context) (*app, error) {
	config.ChdirRepoRoot()
	cfg, err := config.LoadCLIConfig(configFile, envPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if err := logger.Initialize(logger.Config{
		Debug:       cfg.Debug,
		SentryDSN:   cfg.SentryDSN,
		Environment: cfg.Environment,
		Tags: map[string]string{
			"service": "funnelctl",
		},
	}); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN(), cfg.Debug)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(db); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	// Writes are announced so running API instances refresh their streams
	var notifier messaging.Notifier = messaging.NewLocalNotifier()
	if cfg.NATS.URL != "" {
		notifier, err = natsbus.NewNotifier(natsbus.Config{
			URL:            cfg.NATS.URL,
			SubjectPrefix:  cfg.NATS.SubjectPrefix,
			MaxReconnects:  cfg.NATS.MaxReconnects,
			ReconnectWait:  cfg.NATS.ReconnectWait,
			ConnectionName: cfg.NATS.ConnectionName,
			MaxRetries:     cfg.NATS.MaxRetries,
		}, adapter.NewNatsConnector())
		if err != nil {
			logger.WarnCtx(ctx, "NATS unavailable, changes will not be announced", zap.Error(err))
			notifier = messaging.NewLocalNotifier()
		}
	}

	clock := adapter.NewClock()
	s := store.NewGormStore(db, store.NewBroker(1, notifier))
	log := activity.NewLog(s)

	return &app{
		cfg:      cfg,
		clock:    clock,
		store:    s,
		leads:    leads.NewService(s, log, clock),
		activity: log,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		logger.Error(err, zap.String("message", "Failed to close store"))
	}
	logger.Flush(2 * time.Second)
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "funnelctl",
		Short: "Operator CLI for the funnel lead pipeline",
		Long: `funnelctl inspects and edits the lead pipeline directly in the document store.

Every write goes through the lead service, so stage history and the activity
log are kept exactly as the dashboard keeps them.`,
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			globalApp = a
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if globalApp != nil {
				globalApp.close()
			}
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&envPath, "env", "config/", "Path to environment files")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "table", "Output format: table, json")

	// Register subcommands
	rootCmd.AddCommand(newSeedCmd())
	rootCmd.AddCommand(newLeadsCmd())
	rootCmd.AddCommand(newActivityCmd())
	rootCmd.AddCommand(newSummaryCmd())

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
