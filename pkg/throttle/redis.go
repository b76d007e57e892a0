package throttle

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

//go:embed windows.lua
var windowsScript string

const defaultPrefix = "throttle:"
const defaultTimeout = 5 * time.Second

// RedisStore is a CounterStore backed by a shared Redis instance. The
// window evaluation runs as a Lua script inside Redis, so the
// increment-check-expire sequence is atomic across every process sharing
// the store. The script body is loaded once at construction; each
// Evaluate sends only its SHA1 handle plus one key and four arguments.
type RedisStore struct {
	client    *redis.Client
	scriptSHA string
	prefix    string
	timeout   time.Duration
	recorder  MetricsRecorder
	logger    *zap.Logger
}

// NewRedisStore connects to Redis, loads the window evaluator script and
// returns a ready store. It fails fast if the store is unreachable so a
// misconfigured deployment is caught at startup, not per request.
func NewRedisStore(client *redis.Client, opts ...StoreOption) (*RedisStore, error) {
	s := &RedisStore{
		client:   client,
		prefix:   defaultPrefix,
		timeout:  defaultTimeout,
		recorder: &NoOpRecorder{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("throttle: redis ping: %w", err)
	}

	sha, err := client.ScriptLoad(ctx, windowsScript).Result()
	if err != nil {
		return nil, fmt.Errorf("throttle: load window script: %w", err)
	}
	s.scriptSHA = sha

	return s, nil
}

// Evaluate runs the window evaluator for one request. It performs exactly
// one round trip in the common case. If Redis has forgotten the cached
// script (restart, SCRIPT FLUSH), the script is reloaded and the call
// retried once; a second failure is returned to the caller.
func (s *RedisStore) Evaluate(ctx context.Context, key string, quota QuotaSpec, now int64) (Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	verdict, err := s.eval(ctx, key, quota, now)
	s.recorder.Observe(MetricLatency, time.Since(start).Seconds(), nil)

	outcome := "error"
	if err == nil {
		outcome = verdict.String()
	}
	s.recorder.Add(MetricEvaluations, 1, map[string]string{"outcome": outcome})

	return verdict, err
}

func (s *RedisStore) eval(ctx context.Context, key string, quota QuotaSpec, now int64) (Verdict, error) {
	limits := quota.limits()
	fullKey := s.prefix + key

	result, err := s.client.EvalSha(ctx, s.scriptSHA, []string{fullKey},
		limits[0], // ARGV[1] per-minute
		limits[1], // ARGV[2] per-hour
		limits[2], // ARGV[3] per-day
		now,       // ARGV[4] unix seconds
	).Result()

	if err != nil && redis.HasErrorPrefix(err, "NOSCRIPT") {
		s.logger.Warn("window script missing from redis, reloading",
			zap.String("sha", s.scriptSHA))
		// SCRIPT LOAD of the same body yields the same SHA1, so the cached
		// handle stays valid and concurrent evaluations need no coordination.
		if _, loadErr := s.client.ScriptLoad(ctx, windowsScript).Result(); loadErr != nil {
			return VerdictAllow, fmt.Errorf("throttle: reload window script: %w", loadErr)
		}
		result, err = s.client.EvalSha(ctx, s.scriptSHA, []string{fullKey},
			limits[0], limits[1], limits[2], now,
		).Result()
	}
	if err != nil {
		return VerdictAllow, fmt.Errorf("throttle: evaluate %q: %w", key, err)
	}

	throttled, ok := result.(int64)
	if !ok {
		return VerdictAllow, fmt.Errorf("throttle: unexpected script result %T", result)
	}
	if throttled != 0 {
		return VerdictDeny, nil
	}
	return VerdictAllow, nil
}
