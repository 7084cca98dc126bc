package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadAPIConfig(t *testing.T) {
	tests := []struct {
		name        string
		configFile  string
		expectError bool
		validate    func(*testing.T, *APIConfig)
	}{
		{
			name: "valid config file",
			configFile: `
debug: true
sentry_dsn: "https://sentry.example.com"
server:
  host: 127.0.0.1
  port: 9090
  allowed_origins: ["https://lexlab.ai"]
database:
  driver: postgres
  host: localhost
  port: 5433
  user: funnel
  password: secret
  dbname: funnel
  sslmode: require
nats:
  url: "nats://localhost:4222"
  subject_prefix: "crm.changes"
redis:
  addr: "localhost:6379"
  db: 2
auth:
  admin_email: admin@lexlab.ai
  admin_pin: "4321"
  jwt_secret: top-secret
  session_ttl: 2h
  login_attempts: 3
subscriptions:
  workers: 4
  heartbeat_interval: 15s
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.True(t, cfg.Debug)
				assert.Equal(t, "https://sentry.example.com", cfg.SentryDSN)
				assert.Equal(t, "127.0.0.1", cfg.Server.Host)
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, []string{"https://lexlab.ai"}, cfg.Server.AllowedOrigins)
				assert.Equal(t, DriverPostgres, cfg.Database.Driver)
				assert.Equal(t, 5433, cfg.Database.Port)
				assert.Equal(t, "require", cfg.Database.SSLMode)
				assert.Equal(t, "nats://localhost:4222", cfg.NATS.URL)
				assert.Equal(t, "crm.changes", cfg.NATS.SubjectPrefix)
				assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
				assert.Equal(t, 2, cfg.Redis.DB)
				assert.Equal(t, "admin@lexlab.ai", cfg.Auth.AdminEmail)
				assert.Equal(t, "4321", cfg.Auth.AdminPIN)
				assert.Equal(t, 2*time.Hour, cfg.Auth.SessionTTL)
				assert.Equal(t, 3, cfg.Auth.LoginAttempts)
				assert.Equal(t, 4, cfg.Subscriptions.Workers)
				assert.Equal(t, 15*time.Second, cfg.Subscriptions.HeartbeatInterval)
			},
		},
		{
			name: "config with defaults",
			configFile: `
database:
  host: localhost
  dbname: funnel
auth:
  jwt_secret: top-secret
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.False(t, cfg.Debug)
				assert.Equal(t, "0.0.0.0", cfg.Server.Host)
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 0, cfg.Server.WriteTimeout)
				assert.Equal(t, DriverPostgres, cfg.Database.Driver)
				assert.Equal(t, 5432, cfg.Database.Port)
				assert.Equal(t, "disable", cfg.Database.SSLMode)
				assert.Equal(t, "funnel.changes", cfg.NATS.SubjectPrefix)
				assert.Equal(t, 10, cfg.NATS.MaxReconnects)
				assert.Equal(t, "2s", cfg.NATS.ReconnectWait.String())
				assert.Equal(t, uint64(3), cfg.NATS.MaxRetries)
				assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
				assert.Equal(t, 5, cfg.Auth.LoginAttempts)
				assert.Equal(t, "funnel_session", cfg.Auth.CookieName)
				assert.Equal(t, 8, cfg.Subscriptions.Workers)
				assert.Equal(t, 30*time.Second, cfg.Subscriptions.HeartbeatInterval)
				assert.Equal(t, 500*time.Millisecond, cfg.Seed.Delay)
			},
		},
		{
			name: "sqlite driver",
			configFile: `
database:
  driver: sqlite
  path: /tmp/funnel.db
auth:
  jwt_secret: top-secret
`,
			validate: func(t *testing.T, cfg *APIConfig) {
				assert.Equal(t, DriverSQLite, cfg.Database.Driver)
				assert.Equal(t, "/tmp/funnel.db", cfg.Database.DSN())
			},
		},
		{
			name: "missing jwt secret",
			configFile: `
database:
  host: localhost
  dbname: funnel
`,
			expectError: true,
		},
		{
			name: "unsupported driver",
			configFile: `
database:
  driver: mysql
auth:
  jwt_secret: top-secret
`,
			expectError: true,
		},
		{
			name: "invalid port",
			configFile: `
database:
  host: localhost
  port: invalid
auth:
  jwt_secret: top-secret
`,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadAPIConfig(writeConfig(t, tt.configFile), t.TempDir())

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, cfg)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, cfg)
			tt.validate(t, cfg)
		})
	}
}

func TestLoadCLIConfig(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  path: ":memory:"
seed:
  delay: 0s
`)

	cfg, err := LoadCLIConfig(path, t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, "funnelctl", cfg.NATS.ConnectionName)
	assert.Equal(t, time.Duration(0), cfg.Seed.Delay)
}

func TestLoadCLIConfig_MissingFile(t *testing.T) {
	// Defaults select postgres, which needs a host
	cfg, err := LoadCLIConfig(filepath.Join(t.TempDir(), "nonexistent.yaml"), t.TempDir())
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "database.host")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	tests := []struct {
		name     string
		config   DatabaseConfig
		expected string
	}{
		{
			name: "postgres",
			config: DatabaseConfig{
				Driver:   DriverPostgres,
				Host:     "localhost",
				Port:     5432,
				User:     "funnel",
				Password: "p@ssw0rd!",
				DBName:   "funnel",
				SSLMode:  "disable",
			},
			expected: "host=localhost port=5432 user=funnel password=p@ssw0rd! dbname=funnel sslmode=disable",
		},
		{
			name: "sqlite",
			config: DatabaseConfig{
				Driver: DriverSQLite,
				Path:   "data/funnel.db",
			},
			expected: "data/funnel.db",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.DSN())
		})
	}
}

func TestDatabaseConfig_Validate(t *testing.T) {
	assert.NoError(t, (&DatabaseConfig{Driver: DriverPostgres, Host: "db", DBName: "funnel"}).Validate())
	assert.NoError(t, (&DatabaseConfig{Driver: DriverSQLite, Path: "funnel.db"}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: DriverPostgres, DBName: "funnel"}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: DriverPostgres, Host: "db"}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: DriverSQLite}).Validate())
	assert.Error(t, (&DatabaseConfig{Driver: "mongo"}).Validate())
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	// Register the keys so the values written by the env file are restored after the test
	for _, key := range []string{
		"FUNNEL_DEBUG",
		"FUNNEL_DATABASE_HOST",
		"FUNNEL_DATABASE_PORT",
		"FUNNEL_DATABASE_DBNAME",
		"FUNNEL_AUTH_ADMIN_PIN",
		"FUNNEL_AUTH_JWT_SECRET",
	} {
		t.Setenv(key, "")
	}

	envDir := filepath.Join(t.TempDir(), "env")
	require.NoError(t, os.MkdirAll(envDir, 0750))

	envContent := `FUNNEL_DEBUG=true
FUNNEL_DATABASE_HOST=env-host
FUNNEL_DATABASE_PORT=6543
FUNNEL_DATABASE_DBNAME=env-db
FUNNEL_AUTH_JWT_SECRET=env-secret
`
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env"), []byte(envContent), 0600))

	// The service specific local file wins over the shared one
	require.NoError(t, os.WriteFile(filepath.Join(envDir, ".env.api.local"), []byte("FUNNEL_AUTH_ADMIN_PIN=9999\n"), 0600))

	configPath := writeConfig(t, `
debug: false
database:
  host: file-host
  port: 5432
  dbname: file-db
auth:
  admin_pin: "1234"
`)

	cfg, err := LoadAPIConfig(configPath, envDir)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.Equal(t, "env-db", cfg.Database.DBName)
	assert.Equal(t, "env-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "9999", cfg.Auth.AdminPIN)
}
