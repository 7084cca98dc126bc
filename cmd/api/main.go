package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/lexlab-ai/funnel/internal/activity"
	"github.com/lexlab-ai/funnel/internal/adapter"
	"github.com/lexlab-ai/funnel/internal/api/rest"
	"github.com/lexlab-ai/funnel/internal/api/server"
	"github.com/lexlab-ai/funnel/internal/config"
	"github.com/lexlab-ai/funnel/internal/intake"
	"github.com/lexlab-ai/funnel/internal/leads"
	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/messaging"
	"github.com/lexlab-ai/funnel/internal/providers/natsbus"
	"github.com/lexlab-ai/funnel/internal/ratelimit"
	"github.com/lexlab-ai/funnel/internal/session"
	"github.com/lexlab-ai/funnel/internal/store"
	"github.com/lexlab-ai/funnel/internal/traction"
)

var (
	configFile = flag.String("config", "", "Path to configuration file")
	envPath    = flag.String("env", "config/", "Path to environment files")
)

func main() {
	flag.Parse()

	// Load configuration
	config.ChdirRepoRoot()
	cfg, err := config.LoadAPIConfig(*configFile, *envPath)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize logger with sentry integration
	err = logger.Initialize(logger.Config{
		Debug:           cfg.Debug,
		SentryDSN:       cfg.SentryDSN,
		Environment:     cfg.Environment,
		BreadcrumbLevel: zapcore.InfoLevel,
		Tags: map[string]string{
			"service": "funnel-api",
		},
	})
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Flush(2 * time.Second)
	logger.InfoCtx(ctx, "Starting funnel API")

	clock := adapter.NewClock()

	// Connect to database
	db, err := store.Open(cfg.Database.Driver, cfg.Database.DSN(), cfg.Debug)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err), zap.String("driver", cfg.Database.Driver))
	}
	if cfg.Database.Driver == config.DriverPostgres {
		if err := store.ConfigureConnectionPool(db, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns, cfg.Database.ConnMaxLifetime, cfg.Database.ConnMaxIdleTime); err != nil {
			logger.Fatal("Failed to configure connection pool", zap.Error(err))
		}
	}
	if err := store.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.InfoCtx(ctx, "Connected to database", zap.String("driver", cfg.Database.Driver))

	// Change notifications between instances
	var notifier messaging.Notifier
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
			logger.Fatal("Failed to connect to NATS", zap.Error(err), zap.String("url", cfg.NATS.URL))
		}
		logger.InfoCtx(ctx, "Connected to NATS", zap.String("url", cfg.NATS.URL))
	} else {
		logger.WarnCtx(ctx, "NATS not configured, live updates are limited to this instance")
		notifier = messaging.NewLocalNotifier()
	}

	broker := store.NewBroker(cfg.Subscriptions.Workers, notifier)
	if err := broker.Start(ctx); err != nil {
		logger.Fatal("Failed to listen for changes", zap.Error(err))
	}
	// Closing the store also stops the broker and the notifier
	dataStore := store.NewGormStore(db, broker)
	defer dataStore.Close()

	// Sessions and login throttling
	var redisClient adapter.RedisClient
	sessionStore := session.NewMemoryStore(clock)
	if cfg.Redis.Addr != "" {
		redisClient = adapter.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer redisClient.Close()
		sessionStore = session.NewRedisStore(redisClient, cfg.Auth.SessionKeyPrefix, clock)
		logger.InfoCtx(ctx, "Using Redis session store", zap.String("addr", cfg.Redis.Addr))
	} else {
		logger.WarnCtx(ctx, "Redis not configured, sessions are kept in memory")
	}

	limiter, err := ratelimit.NewLimiter(ratelimit.Config{
		PerMinute: cfg.Auth.LoginAttempts,
		KeyPrefix: cfg.Auth.SessionKeyPrefix + "login:",
	}, redisClient, clock)
	if err != nil {
		logger.Fatal("Failed to create login limiter", zap.Error(err))
	}

	sessions, err := session.NewManager(session.Config{
		AdminEmail: cfg.Auth.AdminEmail,
		AdminPIN:   cfg.Auth.AdminPIN,
		Secret:     cfg.Auth.JWTSecret,
		TTL:        cfg.Auth.SessionTTL,
	}, sessionStore, limiter, clock)
	if err != nil {
		logger.Fatal("Failed to create session manager", zap.Error(err))
	}

	// Services
	activityLog := activity.NewLog(dataStore)
	leadService := leads.NewService(dataStore, activityLog, clock)
	intakeService := intake.NewService(dataStore, leadService, clock)
	boardService := traction.NewService(dataStore)

	srv := server.New(server.Config{
		Debug:          cfg.Debug,
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		ReadTimeout:    time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:    time.Duration(cfg.Server.IdleTimeout) * time.Second,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, rest.Dependencies{
		Leads:    leadService,
		Activity: activityLog,
		Intake:   intakeService,
		Board:    boardService,
		Sessions: sessions,
		Clock:    clock,
		Cookie: rest.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Domain: cfg.Auth.CookieDomain,
			Secure: cfg.Auth.CookieSecure,
		},
		Heartbeat: cfg.Subscriptions.HeartbeatInterval,
		SeedDelay: cfg.Seed.Delay,
	})

	// Start server in a goroutine
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.InfoCtx(ctx, "Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		logger.ErrorCtx(ctx, err, zap.String("component", "server"))
	}
	cancel()

	// Create shutdown context with timeout (don't use canceled ctx)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.ErrorCtx(shutdownCtx, err, zap.String("message", "Server forced to shutdown"))
	}

	logger.Info("API server stopped")
}
