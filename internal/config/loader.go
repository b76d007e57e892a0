package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/quotaflow/quotad/pkg/throttle"
)

// Load reads configuration from the given file (optional) plus QUOTAD_*
// environment variables, on top of built-in defaults.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.listen", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "throttle:")
	v.SetDefault("redis.timeout", "5s")
	v.SetDefault("logging.level", "info")
	v.SetDefault("metrics.enabled", true)

	v.SetEnvPrefix("QUOTAD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// BuildRegistry turns the configured quota rules into a frozen registry.
// Malformed rules (empty operation, negative limits) are logged and
// skipped rather than aborting startup: one bad rule must not take
// throttling down for every other operation.
func BuildRegistry(rules []QuotaRule, logger *zap.Logger) *throttle.Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	reg := throttle.NewRegistry()
	for _, rule := range rules {
		quota := throttle.QuotaSpec{
			PerMinute: rule.PerMinute,
			PerHour:   rule.PerHour,
			PerDay:    rule.PerDay,
		}
		if err := reg.Register(throttle.OperationID(rule.Operation), quota); err != nil {
			logger.Warn("skipping malformed quota rule",
				zap.String("operation", rule.Operation),
				zap.Error(err))
			continue
		}
	}
	reg.Freeze()
	return reg
}
