package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	ErrMissingEnvironmentVariables = errors.New("missing required environment variables")
	ErrUnknownStorageDriver        = errors.New("unknown storage driver")
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds application configuration loaded from files and environment variables.
type Config struct {
	Env              string  `mapstructure:"env"` // current application environment (local, dev, production etc)
	TelegramAPIToken string  `mapstructure:"-"`   // Telegram API token loaded from environment
	Storage          Storage `mapstructure:"storage"`
	DB               DB      `mapstructure:"database"`
	Quiz             Quiz    `mapstructure:"quiz"`
	HTTP             HTTP    `mapstructure:"http"`
}

// Storage selects the key-value backend for the error book.
type Storage struct {
	Driver     string `mapstructure:"driver"`      // memory, postgres or sqlite
	SQLitePath string `mapstructure:"sqlite_path"` // SQLite DSN, used by the sqlite driver
}

// DB contains database-related configuration parameters.
type DB struct {
	URL             string        `mapstructure:"-"`                 // database connection string loaded from environment
	MaxConnections  int           `mapstructure:"max_connections"`   // maximum number of open connections in the pool
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"` // maximum lifetime of a single connection
}

// Quiz tunes quiz sessions.
type Quiz struct {
	CompletionDelay time.Duration `mapstructure:"completion_delay"` // pause before offering to save misses
	WorkspaceTTL    time.Duration `mapstructure:"workspace_ttl"`    // idle time before a chat's session is dropped
}

// HTTP configures the JSON API server.
type HTTP struct {
	Addr        string   `mapstructure:"addr"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DSN returns the database connection string if it is configured.
func (db DB) DSN() (string, error) {
	if db.URL == "" {
		return "", ErrMissingEnvironmentVariables
	}
	return db.URL, nil
}

// Option adjusts what Load requires.
type Option func(*options)

type options struct {
	requireTelegram bool
	paths           []string
}

// WithTelegram makes TELEGRAM_API_TOKEN mandatory.
func WithTelegram() Option {
	return func(o *options) { o.requireTelegram = true }
}

// WithConfigPath adds a directory searched for config.yaml.
func WithConfigPath(path string) Option {
	return func(o *options) { o.paths = append(o.paths, path) }
}

// Load reads configuration from .env, config files and environment variables.
func Load(opts ...Option) (*Config, error) {
	o := options{paths: []string{"./config"}}
	for _, opt := range opts {
		opt(&o)
	}

	// A missing .env file is fine; the environment may already be set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range o.paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("env", "local")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.sqlite_path", "")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_conn_lifetime", "30s")
	v.SetDefault("quiz.completion_delay", "1s")
	v.SetDefault("quiz.workspace_ttl", "24h")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origins", []string{"*"})

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // map nested keys to ENV style names
	v.AutomaticEnv()

	_ = v.BindEnv("telegram_api_token", "TELEGRAM_API_TOKEN")
	_ = v.BindEnv("database_url", "DATABASE_URL")
	_ = v.BindEnv("env", "APP_ENV")
	_ = v.BindEnv("http.addr", "HTTP_ADDR")
	_ = v.BindEnv("storage.driver", "STORAGE_DRIVER")
	_ = v.BindEnv("storage.sqlite_path", "SQLITE_PATH")

	if err := v.ReadInConfig(); err != nil {
		var fileLookupErr viper.ConfigFileNotFoundError
		if !errors.As(err, &fileLookupErr) {
			return nil, fmt.Errorf("error loading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	cfg.TelegramAPIToken = v.GetString("telegram_api_token")
	if o.requireTelegram && cfg.TelegramAPIToken == "" {
		return nil, fmt.Errorf("TELEGRAM_API_TOKEN: %w", ErrMissingEnvironmentVariables)
	}

	cfg.DB.URL = v.GetString("database_url")

	switch cfg.Storage.Driver {
	case DriverMemory, DriverSQLite:
	case DriverPostgres:
		if cfg.DB.URL == "" {
			return nil, fmt.Errorf("DATABASE_URL: %w", ErrMissingEnvironmentVariables)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStorageDriver, cfg.Storage.Driver)
	}

	return &cfg, nil
}
