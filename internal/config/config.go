package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// DriverPostgres stores documents in a jsonb table
	DriverPostgres = "postgres"
	// DriverSQLite stores documents in an embedded database file
	DriverSQLite = "sqlite"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug       bool   `mapstructure:"debug"`
	SentryDSN   string `mapstructure:"sentry_dsn"`
	Environment string `mapstructure:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"` // postgres or sqlite
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	Path            string        `mapstructure:"path"` // sqlite file, ":memory:" for a throwaway database
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// NATSConfig holds the change notification connection. An empty URL keeps notifications in process.
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	MaxRetries     uint64        `mapstructure:"max_retries"`
}

// RedisConfig holds the session store connection. An empty address keeps sessions in memory.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	ReadTimeout    int      `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout   int      `mapstructure:"write_timeout"` // in seconds, 0 keeps event streams open
	IdleTimeout    int      `mapstructure:"idle_timeout"`  // in seconds
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuthConfig holds the admin credentials and session settings
type AuthConfig struct {
	AdminEmail       string        `mapstructure:"admin_email"`
	AdminPIN         string        `mapstructure:"admin_pin"`
	JWTSecret        string        `mapstructure:"jwt_secret"`
	SessionTTL       time.Duration `mapstructure:"session_ttl"`
	LoginAttempts    int           `mapstructure:"login_attempts"` // per client per minute
	CookieName       string        `mapstructure:"cookie_name"`
	CookieSecure     bool          `mapstructure:"cookie_secure"`
	CookieDomain     string        `mapstructure:"cookie_domain"`
	SessionKeyPrefix string        `mapstructure:"session_key_prefix"`
}

// SubscriptionConfig holds the live update settings
type SubscriptionConfig struct {
	Workers           int           `mapstructure:"workers"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// SeedConfig holds the sample data loader settings
type SeedConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// APIConfig holds configuration for the API server
type APIConfig struct {
	BaseConfig    `mapstructure:",squash"`
	Server        ServerConfig       `mapstructure:"server"`
	Database      DatabaseConfig     `mapstructure:"database"`
	NATS          NATSConfig         `mapstructure:"nats"`
	Redis         RedisConfig        `mapstructure:"redis"`
	Auth          AuthConfig         `mapstructure:"auth"`
	Subscriptions SubscriptionConfig `mapstructure:"subscriptions"`
	Seed          SeedConfig         `mapstructure:"seed"`
}

// CLIConfig holds configuration for funnelctl
type CLIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	NATS       NATSConfig     `mapstructure:"nats"`
	Seed       SeedConfig     `mapstructure:"seed"`
}

func setDatabaseDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.path", "funnel.db")
	v.SetDefault("nats.subject_prefix", "funnel.changes")
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.max_retries", 3)
	v.SetDefault("seed.delay", "500ms")
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	setDatabaseDefaults(v)
	v.SetDefault("debug", false)
	v.SetDefault("environment", "development")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("nats.connection_name", "funnel-api")
	v.SetDefault("auth.session_ttl", "24h")
	v.SetDefault("auth.login_attempts", 5)
	v.SetDefault("auth.cookie_name", "funnel_session")
	v.SetDefault("auth.session_key_prefix", "funnel:session:")
	v.SetDefault("subscriptions.workers", 8)
	v.SetDefault("subscriptions.heartbeat_interval", "30s")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Database.Validate(); err != nil {
		return nil, err
	}
	if config.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}

	return &config, nil
}

// LoadCLIConfig loads configuration for funnelctl
func LoadCLIConfig(configFile string, envPath string) (*CLIConfig, error) {
	v := configureViper("funnelctl", configFile, envPath)

	setDatabaseDefaults(v)
	v.SetDefault("nats.connection_name", "funnelctl")

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config CLIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Database.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// readConfig reads the config file. A missing file is not an error: environment variables are used instead.
func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	if err == nil {
		return nil
	}

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to read config: %w", err)
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("FUNNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// Viper only maps env vars onto struct fields for keys it knows about when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"environment",
		// Database
		"database.driver",
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.path",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.subject_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.max_retries",
		// Redis
		"redis.addr",
		"redis.password",
		"redis.db",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		"server.allowed_origins",
		// Auth
		"auth.admin_email",
		"auth.admin_pin",
		"auth.jwt_secret",
		"auth.session_ttl",
		"auth.login_attempts",
		"auth.cookie_name",
		"auth.cookie_secure",
		"auth.cookie_domain",
		"auth.session_key_prefix",
		// Subscriptions
		"subscriptions.workers",
		"subscriptions.heartbeat_interval",
		// Seed
		"seed.delay",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		_ = godotenv.Overload(filepath.Join(envPath, envFile)) // later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// Validate checks the driver specific settings
func (c *DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverPostgres:
		if c.Host == "" {
			return errors.New("database.host is required for postgres")
		}
		if c.DBName == "" {
			return errors.New("database.dbname is required for postgres")
		}
	case DriverSQLite:
		if c.Path == "" {
			return errors.New("database.path is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Driver)
	}
	return nil
}

// DSN returns the database connection string for the configured driver
func (c *DatabaseConfig) DSN() string {
	if c.Driver == DriverSQLite {
		return c.Path
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
