package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultSQLitePath is used when database.url is empty.
const DefaultSQLitePath = "plans.db"

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	WriteRateLimit  int           `yaml:"write_rate_limit"` // admin writes per minute per caller; 0 disables, needs redis
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type DatabaseConfig struct {
	URL       string        `yaml:"url"`
	MaxConns  int32         `yaml:"max_conns"`
	OpTimeout time.Duration `yaml:"op_timeout"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// Enabled reports whether a cache backend is configured.
func (c RedisConfig) Enabled() bool { return strings.TrimSpace(c.URL) != "" }

type AMQPConfig struct {
	URL            string        `yaml:"url"`
	Exchange       string        `yaml:"exchange"`
	Workers        int           `yaml:"workers"` // > 0 publishes from a background pool
	PublishTimeout time.Duration `yaml:"publish_timeout"`
}

type BreakerConfig struct {
	Enabled          bool          `yaml:"enabled"`
	FailureThreshold uint32        `yaml:"failure_threshold"`
	OpenTimeout      time.Duration `yaml:"open_timeout"`
	Interval         time.Duration `yaml:"interval"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Admin    AdminConfig    `yaml:"admin"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Breaker  BreakerConfig  `yaml:"breaker"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies .env and environment
// overrides, then fills defaults. A missing file is not an error when the
// environment alone is enough to start.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; real environment variables win over it.
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"DATABASE_URL", &cfg.Database.URL},
		{"REDIS_URL", &cfg.Redis.URL},
		{"REDIS_PASSWORD", &cfg.Redis.Password},
		{"AMQP_URL", &cfg.AMQP.URL},
		{"ADMIN_API_KEY", &cfg.Admin.APIKey},
		{"ADMIN_JWT_SECRET", &cfg.Admin.JWTSecret},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"HTTP_ADDR", &cfg.HTTP.Addr},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok {
			*o.dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.ReadTimeout <= 0 {
		cfg.HTTP.ReadTimeout = 10 * time.Second
	}
	if cfg.HTTP.WriteTimeout <= 0 {
		cfg.HTTP.WriteTimeout = 10 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = DefaultSQLitePath
	}
	if cfg.Database.MaxConns <= 0 {
		cfg.Database.MaxConns = 10
	}
	if cfg.Database.OpTimeout <= 0 {
		cfg.Database.OpTimeout = 5 * time.Second
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.AMQP.Exchange == "" {
		cfg.AMQP.Exchange = "plancatalog.events"
	}
	if cfg.AMQP.PublishTimeout <= 0 {
		cfg.AMQP.PublishTimeout = 5 * time.Second
	}
	if cfg.Breaker.FailureThreshold == 0 {
		cfg.Breaker.FailureThreshold = 5
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		cfg.Breaker.OpenTimeout = 30 * time.Second
	}
	if cfg.Breaker.Interval <= 0 {
		cfg.Breaker.Interval = time.Minute
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Database.OpTimeout > time.Minute {
		return errors.New("database.op_timeout must not exceed 1m")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
