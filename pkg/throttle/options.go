package throttle

import (
	"time"

	"go.uber.org/zap"
)

// StoreOption configures a RedisStore.
type StoreOption func(*RedisStore)

// WithPrefix sets the key prefix prepended to every counter key
// (default "throttle:"). Use it to keep several applications apart in a
// shared Redis.
func WithPrefix(prefix string) StoreOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// WithTimeout sets the per-call deadline for Redis operations
// (default 5s). Keep it short: a slow store call delays the request it
// guards, and a timeout is treated as a store failure.
func WithTimeout(timeout time.Duration) StoreOption {
	return func(s *RedisStore) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithRecorder injects a metrics backend. The default is a no-op.
func WithRecorder(r MetricsRecorder) StoreOption {
	return func(s *RedisStore) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithLogger injects a logger for store-side warnings such as script
// reloads. The default discards everything.
func WithLogger(logger *zap.Logger) StoreOption {
	return func(s *RedisStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}
