package config

import (
	"fmt"
	"strings"

	pkgconfig "github.com/dheerajsingh9334/mern-Blog/pkg/config"
	"github.com/dheerajsingh9334/mern-Blog/pkg/logger"
)

type Config struct {
	Service  ServiceConfig  `mapstructure:"service"`
	Database DatabaseConfig `mapstructure:"database"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      logger.Config  `mapstructure:"log"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoadConfig reads configs/{APP_ENV}/payment.yaml (or $CONFIG_PATH) with
// PAYMENT_* environment overrides.
func LoadConfig() (*Config, error) {
	loaded, err := pkgconfig.Load("payment", pkgconfig.WithDefaults(defaults))
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := loaded.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Service.Currency = strings.ToLower(cfg.Service.Currency)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings the service cannot start without.
func (c *Config) Validate() error {
	if len(c.Service.Currency) != 3 {
		return fmt.Errorf("service.currency must be an ISO-4217 code, got %q", c.Service.Currency)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database.driver %q", c.Database.Driver)
	}
	switch c.Service.Lock.Backend {
	case "local":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("service.lock.backend is redis but redis is disabled")
		}
	default:
		return fmt.Errorf("unsupported service.lock.backend %q", c.Service.Lock.Backend)
	}
	if c.Service.Replay.MaxAttempts <= 0 {
		return fmt.Errorf("service.replay.max_attempts must be positive")
	}
	return nil
}

var defaults = map[string]interface{}{
	"service.name":                  "payment",
	"service.environment":           "development",
	"service.currency":              "usd",
	"service.replay.interval":       "1m",
	"service.replay.batch_size":     100,
	"service.replay.max_attempts":   8,
	"service.payout.minimum_amount": 1,
	"service.payout.rail_timeout":   "15s",
	"service.lock.backend":          "local",
	"service.lock.timeout":          "5s",
	"service.lock.ttl":              "30s",
	"database.driver":               "postgres",
	"database.port":                 5432,
	"database.sslmode":              "disable",
	"database.path":                 "payment.db",
	"database.max_open_conns":       25,
	"database.max_idle_conns":       5,
	"database.conn_max_lifetime":    "30m",
	"database.conn_max_idle_time":   "5m",
	"database.slow_threshold":       "200ms",
	"server.http.port":              8080,
	"server.grpc.port":              9090,
	"log.level":                     "info",
	"log.format":                    "json",
	"log.output":                    "stdout",
	"redis.addr":                    "localhost:6379",
}
