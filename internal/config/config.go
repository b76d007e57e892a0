// Package config loads and validates the quotad configuration file.
package config

import (
	"time"
)

// Config is the complete daemon configuration.
type Config struct {
	Server   ServerConfig  `mapstructure:"server"`
	Redis    RedisConfig   `mapstructure:"redis"`
	Upstream string        `mapstructure:"upstream"`
	Logging  LoggingConfig `mapstructure:"logging"`
	Metrics  MetricsConfig `mapstructure:"metrics"`
	Quotas   []QuotaRule   `mapstructure:"quotas"`
}

// ServerConfig contains HTTP listener configuration.
type ServerConfig struct {
	Listen          string        `mapstructure:"listen"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// RedisConfig contains counter store configuration.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level"`
	// Development switches to the human-readable console encoder.
	Development bool `mapstructure:"development"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// QuotaRule declares the quota for one operation. A limit of 0 or an
// absent field leaves that window unconstrained.
type QuotaRule struct {
	Operation string `mapstructure:"operation"`
	PerMinute int64  `mapstructure:"per_minute"`
	PerHour   int64  `mapstructure:"per_hour"`
	PerDay    int64  `mapstructure:"per_day"`
}
