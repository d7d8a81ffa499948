package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendFile     = "file"
)

type Config struct {
	Env          string
	LogLevel     string
	Port         string
	DBType       string
	MongoURI     string
	MongoDB      string
	PostgresDSN  string
	SQLitePath   string
	DataDir      string
	StoreTimeout time.Duration
	Location     *time.Location
}

var (
	cfg    *Config
	cfgErr error
	once   sync.Once
)

// Load reads .env (when present) and the process environment once.
func Load() (*Config, error) {
	once.Do(func() {
		_ = godotenv.Load()
		cfg, cfgErr = LoadFrom(os.Getenv)
	})
	return cfg, cfgErr
}

// LoadFrom builds a Config from an arbitrary lookup function.
func LoadFrom(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return fallback
	}

	timeout, err := time.ParseDuration(get("STORE_TIMEOUT", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid STORE_TIMEOUT: %w", err)
	}
	loc, err := loadLocation(get("TIMEZONE", "Local"))
	if err != nil {
		return nil, err
	}

	c := &Config{
		Env:          get("APP_ENV", "development"),
		LogLevel:     get("LOG_LEVEL", "info"),
		Port:         get("PORT", "8000"),
		DBType:       get("STORAGE_BACKEND", BackendMongo),
		MongoURI:     get("DATABASE_URL", ""),
		MongoDB:      get("DATABASE_NAME", "snusquit"),
		PostgresDSN:  get("POSTGRES_DSN", ""),
		SQLitePath:   get("SQLITE_PATH", "data/snusquit.db"),
		DataDir:      get("DATA_DIR", "data"),
		StoreTimeout: timeout,
		Location:     loc,
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

func (c *Config) Validate() error {
	switch c.DBType {
	case BackendMongo:
		// An empty DATABASE_URL runs the API without a store.
	case BackendPostgres:
		if c.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required when STORAGE_BACKEND=postgres")
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required when STORAGE_BACKEND=sqlite")
		}
	case BackendFile:
		if c.DataDir == "" {
			return errors.New("DATA_DIR is required when STORAGE_BACKEND=file")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: mongo, postgres, sqlite, file (got %q)", c.DBType)
	}
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if p, err := strconv.Atoi(c.Port); err != nil || p <= 0 || p > 65535 {
		return fmt.Errorf("PORT must be a TCP port number (got %q)", c.Port)
	}
	if c.StoreTimeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return "0.0.0.0:" + c.Port
}

func loadLocation(name string) (*time.Location, error) {
	if name == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}
