// internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/sirupsen/logrus"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config is read from the environment (and .env through godotenv/autoload in main).
type Config struct {
	Port           string   `env:"PORT" env-default:"8080" env-description:"HTTP listen port"`
	Env            string   `env:"APP_ENV" env-default:"development" env-description:"development or production"`
	LogLevel       string   `env:"LOG_LEVEL" env-default:"info" env-description:"logrus level"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" env-separator:"," env-description:"CORS origins used in production"`

	Store         StoreConfig
	Redis         RedisConfig
	Auth          AuthConfig
	LookupTimeout time.Duration `env:"LOOKUP_TIMEOUT" env-default:"3s" env-description:"deadline applied to one profile lookup"`
}

type StoreConfig struct {
	Driver   string `env:"STORE_DRIVER" env-default:"postgres" env-description:"postgres or memory"`
	Fixture  string `env:"STORE_FIXTURE" env-description:"JSON fixture loaded by the memory driver"`
	User     string `env:"POSTGRES_USER" env-default:"postgres"`
	Password string `env:"POSTGRES_PASSWORD"`
	Host     string `env:"PG_HOST" env-default:"localhost"`
	Port     string `env:"PG_PORT" env-default:"5432"`
	Database string `env:"PG_DATABASE" env-default:"postgres"`
	MaxConns int32  `env:"PG_MAX_CONNS" env-default:"10"`
}

// DSN renders the postgres connection string.
func (s StoreConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		s.User,
		s.Password,
		s.Host,
		s.Port,
		s.Database,
	)
}

type RedisConfig struct {
	Addr       string `env:"REDIS_ADDR" env-description:"empty disables profile-view events"`
	DB         int    `env:"REDIS_DB" env-default:"0"`
	ViewQueue  string `env:"PROFILE_VIEW_QUEUE" env-default:"friendgraph_profile_views"`
	BatchSize  int    `env:"VIEWLOG_BATCH_SIZE" env-default:"20"`
	FlushDelay int    `env:"VIEWLOG_FLUSH_MS" env-default:"500"`
}

type AuthConfig struct {
	// TokenExpire is "never", "0", empty, or a time.ParseDuration string.
	TokenExpire string `env:"TOKEN_EXPIRE_TIME" env-default:"72h"`

	// Raw ed25519 key files. When unset a key pair is generated per process and
	// sessions do not survive a restart.
	KeyPath    string `env:"AUTH_KEY_PATH" env-description:"raw ed25519 private key file"`
	PubKeyPath string `env:"AUTH_PUB_KEY_PATH" env-description:"raw ed25519 public key file"`
}

// HasKeyFiles reports whether persistent signing keys are configured.
func (a AuthConfig) HasKeyFiles() bool {
	return a.KeyPath != "" && a.PubKeyPath != ""
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values cleanenv cannot express as tags.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres:
	case DriverMemory:
		if c.Store.Fixture == "" {
			return fmt.Errorf("STORE_FIXTURE is required when STORE_DRIVER=%s", DriverMemory)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.Store.Driver)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if c.LookupTimeout <= 0 {
		return fmt.Errorf("LOOKUP_TIMEOUT must be positive, got %s", c.LookupTimeout)
	}
	if (c.Auth.KeyPath == "") != (c.Auth.PubKeyPath == "") {
		return fmt.Errorf("AUTH_KEY_PATH and AUTH_PUB_KEY_PATH must be set together")
	}
	if c.IsProduction() && len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS is required in production")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	env := strings.ToLower(c.Env)
	return env == "production" || env == "prod"
}

// Usage describes every variable, for -h output.
func Usage() string {
	help, err := cleanenv.GetDescription(&Config{}, nil)
	if err != nil {
		return err.Error()
	}
	return help
}

// NewLogger builds the process logger the way the service expects it.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if c.IsProduction() {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}
