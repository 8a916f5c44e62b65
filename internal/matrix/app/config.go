package app

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/matrixstore/internal/matrix/service"
	"github.com/aussiebroadwan/matrixstore/pkg/httpx"
	"github.com/aussiebroadwan/matrixstore/pkg/jwtx"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Issuer          string `yaml:"issuer"`            // Issuer claim stamped into tokens (default: matrixstore)
	Algorithm       string `yaml:"algorithm"`         // EdDSA or HS256 (default: EdDSA)
	NumKeys         int    `yaml:"num_keys"`          // Ephemeral EdDSA keys to generate (default: 3, max: 10)
	SigningKeyFile  string `yaml:"signing_key_file"`  // Optional: persist one EdDSA key so tokens survive restarts
	TokenSecretFile string `yaml:"token_secret_file"` // HS256 shared secret, created on first start (default: ./token_secret)
	PepperFile      string `yaml:"pepper_file"`       // Password pepper, created on first start (default: ./pepper)

	DBDriver          string        `yaml:"db_driver"`             // sqlite or postgres (default: sqlite)
	DatabaseFile      string        `yaml:"database_file"`         // SQLite path (default: ./matrix.db)
	DatabaseURL       string        `yaml:"database_url"`          // Postgres URL, required for the postgres driver
	DBMaxOpenConns    int           `yaml:"db_max_open_conns"`     // Connection pool size (default: 10)
	DBMaxIdleConns    int           `yaml:"db_max_idle_conns"`     // Idle connections kept (default: 5)
	DBConnMaxIdleTime time.Duration `yaml:"db_conn_max_idle_time"` // Idle connection lifetime (default: 5m)
	DBTimeout         time.Duration `yaml:"db_timeout"`            // Per-operation store timeout (default: 5s)

	AllocationStrategy  string        `yaml:"allocation_strategy"`   // legacy or atomic (default: atomic)
	ResavePolicy        string        `yaml:"resave_policy"`         // append or replace (default: append)
	PoolMonitorInterval time.Duration `yaml:"pool_monitor_interval"` // Pool stats sampling (default: 30s)

	Env                 string        `yaml:"env"`                   // dev, staging, prod (default: dev)
	LogLevel            string        `yaml:"log_level"`             // debug, info, warn, error (default: info)
	LogFormat           string        `yaml:"log_format"`            // json or text (default: json)
	Port                int           `yaml:"port"`                  // HTTP port (default: 8080)
	ShutdownGracePeriod time.Duration `yaml:"shutdown_grace_period"` // Graceful shutdown timeout (default: 10s)

	RateLimits httpx.RateLimits `yaml:"rate_limits"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() Config {
	return Config{
		Issuer:              "matrixstore",
		Algorithm:           jwtx.AlgorithmEdDSA,
		NumKeys:             3,
		TokenSecretFile:     "token_secret",
		PepperFile:          "pepper",
		DBDriver:            DriverSQLite,
		DatabaseFile:        "matrix.db",
		DBMaxOpenConns:      10,
		DBMaxIdleConns:      5,
		DBConnMaxIdleTime:   5 * time.Minute,
		DBTimeout:           5 * time.Second,
		AllocationStrategy:  string(service.StrategyAtomic),
		ResavePolicy:        string(service.PolicyAppend),
		PoolMonitorInterval: 30 * time.Second,
		Env:                 "dev",
		LogLevel:            "info",
		LogFormat:           "json",
		Port:                8080,
		ShutdownGracePeriod: 10 * time.Second,
		RateLimits:          httpx.DefaultRateLimits(),
	}
}

// LoadConfig layers the optional YAML file named by MATRIX_CONFIG_FILE over
// the defaults, then environment variables over both.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()

	if path := os.Getenv("MATRIX_CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	raw, err := os.ReadFile(path) // #nosec G304
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Issuer = getEnvOrDefault("MATRIX_ISSUER", c.Issuer)
	c.Algorithm = getEnvOrDefault("MATRIX_ALGORITHM", c.Algorithm)
	c.NumKeys = getEnvIntOrDefault("MATRIX_NUM_KEYS", c.NumKeys)
	c.SigningKeyFile = getEnvOrDefault("MATRIX_SIGNING_KEY_FILE", c.SigningKeyFile)
	c.TokenSecretFile = getEnvOrDefault("MATRIX_TOKEN_SECRET_FILE", c.TokenSecretFile)
	c.PepperFile = getEnvOrDefault("MATRIX_PEPPER_FILE", c.PepperFile)

	c.DBDriver = getEnvOrDefault("MATRIX_DB_DRIVER", c.DBDriver)
	c.DatabaseFile = getEnvOrDefault("MATRIX_DATABASE_FILE", c.DatabaseFile)
	c.DatabaseURL = getEnvOrDefault("MATRIX_DATABASE_URL", c.DatabaseURL)
	c.DBMaxOpenConns = getEnvIntOrDefault("MATRIX_DB_MAX_OPEN_CONNS", c.DBMaxOpenConns)
	c.DBMaxIdleConns = getEnvIntOrDefault("MATRIX_DB_MAX_IDLE_CONNS", c.DBMaxIdleConns)
	c.DBTimeout = getEnvDurationOrDefault("MATRIX_DB_TIMEOUT", c.DBTimeout)

	c.AllocationStrategy = getEnvOrDefault("MATRIX_ALLOCATION_STRATEGY", c.AllocationStrategy)
	c.ResavePolicy = getEnvOrDefault("MATRIX_RESAVE_POLICY", c.ResavePolicy)
	c.PoolMonitorInterval = getEnvDurationOrDefault("POOL_MONITOR_INTERVAL", c.PoolMonitorInterval)

	c.Env = getEnvOrDefault("ENV", c.Env)
	c.LogLevel = getEnvOrDefault("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnvOrDefault("LOG_FORMAT", c.LogFormat)
	c.Port = getEnvIntOrDefault("PORT", c.Port)
	c.ShutdownGracePeriod = getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", c.ShutdownGracePeriod)

	c.RateLimits = c.RateLimits.FromEnv()
}

// Validate rejects configurations the service cannot start with.
func (c Config) Validate() error {
	var errs []error

	if c.Issuer == "" {
		errs = append(errs, errors.New("issuer must not be empty"))
	}
	switch c.Algorithm {
	case jwtx.AlgorithmEdDSA:
	case jwtx.AlgorithmHS256:
		if c.TokenSecretFile == "" {
			errs = append(errs, errors.New("HS256 requires a token secret file"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported algorithm %q (want EdDSA or HS256)", c.Algorithm))
	}

	switch c.DBDriver {
	case DriverSQLite:
		if c.DatabaseFile == "" {
			errs = append(errs, errors.New("sqlite driver requires a database file"))
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("postgres driver requires MATRIX_DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db driver %q (want sqlite or postgres)", c.DBDriver))
	}

	if _, err := service.ParseAllocationStrategy(c.AllocationStrategy); err != nil {
		errs = append(errs, err)
	}
	if _, err := service.ParseResavePolicy(c.ResavePolicy); err != nil {
		errs = append(errs, err)
	}

	if c.PepperFile == "" {
		errs = append(errs, errors.New("pepper file must not be empty"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if c.ShutdownGracePeriod <= 0 {
		errs = append(errs, errors.New("shutdown grace period must be positive"))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
