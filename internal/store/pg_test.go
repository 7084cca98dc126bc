package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"gorm.io/gorm"

	"github.com/lexlab-ai/funnel/internal/logger"
	"github.com/lexlab-ai/funnel/internal/store"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the postgres database shared by the postgres suite.
// When neither TEST_DB_HOST nor docker is available the suite is skipped.
func TestMain(m *testing.M) {
	if err := logger.Initialize(logger.Config{Debug: false}); err != nil {
		panic(err)
	}

	ctx := context.Background()
	dsn, err := postgresDSN(ctx)
	if err != nil {
		fmt.Printf("PostgreSQL unavailable, skipping postgres suite: %v\n", err)
	} else {
		testDB, err = store.Open("postgres", dsn, false)
		if err == nil {
			err = store.Migrate(testDB)
		}
		if err != nil {
			fmt.Printf("Failed to prepare database: %v\n", err)
			terminateContainer(ctx)
			os.Exit(1)
		}
	}

	code := m.Run()

	terminateContainer(ctx)
	os.Exit(code)
}

// postgresDSN returns an external database from TEST_DB_* or starts a container
func postgresDSN(ctx context.Context) (string, error) {
	if dbHost := os.Getenv("TEST_DB_HOST"); dbHost != "" {
		dbPort := envOr("TEST_DB_PORT", "5432")
		dbName := envOr("TEST_DB_NAME", "test_db")
		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, envOr("TEST_DB_USER", "postgres"), envOr("TEST_DB_PASSWORD", "postgres"), dbName), nil
	}

	container, err := startPostgres(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}
	pgContainer = container

	fmt.Printf("Started PostgreSQL container\n")
	return pgContainer.ConnectionString(ctx, "sslmode=disable")
}

// startPostgres runs the postgres container. testcontainers panics when no
// docker host can be found, which is reported as an error instead.
func startPostgres(ctx context.Context) (container *postgres.PostgresContainer, err error) {
	err = recoverPanic(func() error {
		var runErr error
		container, runErr = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		return runErr
	})
	if err != nil {
		return nil, err
	}
	return container, nil
}

// recoverPanic runs fn and converts a panic into an error
func recoverPanic(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("recovered from panic: %v", r)
		}
	}()
	return fn()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func terminateContainer(ctx context.Context) {
	if pgContainer == nil {
		return
	}
	if err := pgContainer.Terminate(ctx); err != nil {
		fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
	}
}

// newPGStore empties the documents table. Subscriptions query from pool
// workers, so tests share the real connection pool instead of a rolled back transaction.
func newPGStore(t *testing.T) (store.Store, *store.Broker) {
	require.NoError(t, testDB.Exec("DELETE FROM documents").Error)

	broker := store.NewBroker(4, nil)
	t.Cleanup(broker.Close)
	return store.NewGormStore(testDB, broker), broker
}

func TestRecoverPanic(t *testing.T) {
	err := recoverPanic(func() error {
		panic("rootless Docker not found")
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "rootless Docker not found")

	require.NoError(t, recoverPanic(func() error { return nil }))

	sentinel := fmt.Errorf("boom")
	require.ErrorIs(t, recoverPanic(func() error { return sentinel }), sentinel)
}

// TestPostgreSQLStore runs all store tests against PostgreSQL
func TestPostgreSQLStore(t *testing.T) {
	if testDB == nil {
		t.Skip("PostgreSQL not available")
	}

	runStoreTests(t, newPGStore)
}
