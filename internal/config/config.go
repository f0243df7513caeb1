package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultAppName         = "Coinvest"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultStorageDriver   = StorageSQLite
	defaultAPITimeout      = 15 * time.Second
	defaultMiningPoll      = 60 * time.Second
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultLoginRateLimit  = 5
	configFileEnvVar       = "CONFIG_FILE"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StorageRedis    = "redis"
	StoragePostgres = "postgres"
)

// Config captures application runtime configuration. Values come from an
// optional YAML file first and are then overridden by environment variables.
type Config struct {
	AppName            string        `yaml:"app_name"`
	AppEnv             string        `yaml:"app_env"`
	Port               string        `yaml:"port"`
	LogLevel           string        `yaml:"log_level"`
	APIBaseURL         string        `yaml:"api_base_url"`
	APITimeout         time.Duration `yaml:"api_timeout"`
	StorageDriver      string        `yaml:"storage_driver"`
	DataDir            string        `yaml:"data_dir"`
	DatabaseURL        string        `yaml:"database_url"`
	RedisURL           string        `yaml:"redis_url"`
	SecureStoreKey     string        `yaml:"secure_store_key"`
	MiningPollInterval time.Duration `yaml:"mining_poll_interval"`
	ShutdownPeriod     time.Duration `yaml:"shutdown_timeout"`
	IdempotencyTTL     time.Duration `yaml:"idempotency_ttl"`
	LoginRateLimit     int           `yaml:"login_rate_limit"`
}

// Default returns the configuration used before any file or environment is applied.
func Default() Config {
	return Config{
		AppName:            defaultAppName,
		AppEnv:             defaultAppEnv,
		Port:               defaultPort,
		LogLevel:           defaultLogLevel,
		APITimeout:         defaultAPITimeout,
		StorageDriver:      defaultStorageDriver,
		DataDir:            defaultDataDir(),
		MiningPollInterval: defaultMiningPoll,
		ShutdownPeriod:     defaultShutdownDelay,
		IdempotencyTTL:     defaultIdempotencyTTL,
		LoginRateLimit:     defaultLoginRateLimit,
	}
}

// Load reads configuration values from CONFIG_FILE (if set) and the environment.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv(configFileEnvVar); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.AppName = getEnv("APP_NAME", c.AppName)
	c.AppEnv = getEnv("APP_ENV", c.AppEnv)
	c.Port = getEnv("PORT", c.Port)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.APIBaseURL = strings.TrimRight(getEnv("API_BASE_URL", c.APIBaseURL), "/")
	c.StorageDriver = strings.ToLower(getEnv("STORAGE_DRIVER", c.StorageDriver))
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.RedisURL = getEnv("REDIS_URL", c.RedisURL)
	c.SecureStoreKey = getEnv("SECURE_STORE_KEY", c.SecureStoreKey)

	var err error
	if c.APITimeout, err = getDuration("API_TIMEOUT", c.APITimeout); err != nil {
		return err
	}
	if c.MiningPollInterval, err = getDuration("MINING_POLL_INTERVAL", c.MiningPollInterval); err != nil {
		return err
	}
	if c.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", c.IdempotencyTTL); err != nil {
		return err
	}

	if v := os.Getenv(shutdownSecondsEnvVar); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", shutdownSecondsEnvVar, err)
		}
		c.ShutdownPeriod = time.Duration(seconds) * time.Second
	} else if c.ShutdownPeriod, err = getDuration(shutdownDurationEnvVar, c.ShutdownPeriod); err != nil {
		return err
	}

	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid LOGIN_RATE_LIMIT: %w", err)
		}
		c.LoginRateLimit = n
	}

	return nil
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("API_BASE_URL must be set")
	}
	if c.APITimeout <= 0 {
		return fmt.Errorf("API_TIMEOUT must be positive")
	}
	if c.MiningPollInterval < 0 {
		return fmt.Errorf("MINING_POLL_INTERVAL must not be negative")
	}

	switch c.StorageDriver {
	case StorageMemory:
	case StorageSQLite:
		if c.DataDir == "" {
			return fmt.Errorf("DATA_DIR must be set for the sqlite storage driver")
		}
	case StorageRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL must be set for the redis storage driver")
		}
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set for the postgres storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	return nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// SQLitePath is the on-device database file used by the sqlite driver.
func (c Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "coinvest.db")
}

// DeviceKeyPath is where a generated secure-store key is kept when
// SECURE_STORE_KEY is not provided.
func (c Config) DeviceKeyPath() string {
	return filepath.Join(c.DataDir, "device.key")
}

// IsDev reports whether the app runs in a local development environment.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local":
		return true
	default:
		return false
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".coinvest"
	}
	return filepath.Join(home, ".coinvest")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
