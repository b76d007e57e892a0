package throttle

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func newTestClient(t *testing.T) *redis.Client {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Skipping integration test: Redis not available (%v)", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestRedisStore_Integration(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewRedisStore(client)
	if err != nil {
		t.Fatalf("Failed to create RedisStore: %v", err)
	}

	t.Run("MinuteBudget", func(t *testing.T) {
		key := fmt.Sprintf("it_%d:GetThing", time.Now().UnixNano())
		quota := QuotaSpec{PerMinute: 2}
		now := time.Now().Unix()

		for i := 1; i <= 2; i++ {
			v, err := store.Evaluate(ctx, key, quota, now)
			if err != nil {
				t.Fatalf("Redis error: %v", err)
			}
			if v != VerdictAllow {
				t.Fatalf("Request %d should be allowed", i)
			}
		}

		v, err := store.Evaluate(ctx, key, quota, now)
		if err != nil {
			t.Fatal(err)
		}
		if v != VerdictDeny {
			t.Error("Third request in the same minute should be denied")
		}

		// 61 seconds later falls into a new bucket.
		v, err = store.Evaluate(ctx, key, quota, now+61)
		if err != nil {
			t.Fatal(err)
		}
		if v != VerdictAllow {
			t.Error("Request in the next minute bucket should be allowed")
		}
	})

	t.Run("BucketKeyAndExpiry", func(t *testing.T) {
		key := fmt.Sprintf("exp_%d:GetThing", time.Now().UnixNano())
		now := time.Now().Unix()

		if _, err := store.Evaluate(ctx, key, QuotaSpec{PerMinute: 5}, now); err != nil {
			t.Fatal(err)
		}

		bucketKey := fmt.Sprintf("throttle:%s:m:60:%d", key, now/60)
		val, err := client.Get(ctx, bucketKey).Int64()
		if err != nil {
			t.Fatalf("Expected bucket key %s to exist: %v", bucketKey, err)
		}
		if val != 1 {
			t.Errorf("Expected counter 1, got %d", val)
		}

		ttl, err := client.TTL(ctx, bucketKey).Result()
		if err != nil {
			t.Fatal(err)
		}
		if ttl <= 0 || ttl > 60*time.Second {
			t.Errorf("Expected TTL in (0, 60s], got %v", ttl)
		}
	})

	t.Run("ShortCircuitStillCountsEarlierWindows", func(t *testing.T) {
		key := fmt.Sprintf("sc_%d:GetThing", time.Now().UnixNano())
		quota := QuotaSpec{PerMinute: 1, PerHour: 100}
		now := time.Now().Unix()

		store.Evaluate(ctx, key, quota, now)
		v, err := store.Evaluate(ctx, key, quota, now)
		if err != nil {
			t.Fatal(err)
		}
		if v != VerdictDeny {
			t.Fatal("Second request should exceed the per-minute budget")
		}

		hourKey := fmt.Sprintf("throttle:%s:h:3600:%d", key, now/3600)
		val, _ := client.Get(ctx, hourKey).Int64()
		if val != 1 {
			t.Errorf("Hour counter should be 1 after short-circuit, got %d", val)
		}
	})

	t.Run("ZeroLimitTouchesNoCounter", func(t *testing.T) {
		key := fmt.Sprintf("zero_%d:GetThing", time.Now().UnixNano())
		now := time.Now().Unix()

		v, err := store.Evaluate(ctx, key, QuotaSpec{PerHour: 3}, now)
		if err != nil {
			t.Fatal(err)
		}
		if v != VerdictAllow {
			t.Error("Request should be allowed under the hour budget")
		}

		minuteKey := fmt.Sprintf("throttle:%s:m:60:%d", key, now/60)
		if exists, _ := client.Exists(ctx, minuteKey).Result(); exists != 0 {
			t.Error("Unconstrained minute window must not create a counter")
		}
	})

	t.Run("DistributedState", func(t *testing.T) {
		key := fmt.Sprintf("dist_%d:GetThing", time.Now().UnixNano())
		quota := QuotaSpec{PerMinute: 1}
		now := time.Now().Unix()

		// Instance A consumes the budget.
		storeA, _ := NewRedisStore(client)
		storeA.Evaluate(ctx, key, quota, now)

		// Instance B observes the same counter.
		storeB, _ := NewRedisStore(client)
		v, err := storeB.Evaluate(ctx, key, quota, now)
		if err != nil {
			t.Fatal(err)
		}
		if v != VerdictDeny {
			t.Error("Instance B should see the request counted by instance A")
		}
	})
}

func TestRedisStore_ScriptFlushRecovery(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	store, err := NewRedisStore(client)
	if err != nil {
		t.Fatalf("Failed to create RedisStore: %v", err)
	}

	// Simulate a restarted store that lost its script cache.
	if err := client.ScriptFlush(ctx).Err(); err != nil {
		t.Fatal(err)
	}

	key := fmt.Sprintf("noscript_%d:GetThing", time.Now().UnixNano())
	v, err := store.Evaluate(ctx, key, QuotaSpec{PerMinute: 5}, time.Now().Unix())
	if err != nil {
		t.Fatalf("Expected transparent script reload, got error: %v", err)
	}
	if v != VerdictAllow {
		t.Error("First request after reload should be allowed")
	}
}

func TestRedisStore_WithPrefix(t *testing.T) {
	client := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	prefix := "custom_app:"
	store, err := NewRedisStore(client, WithPrefix(prefix))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	key := fmt.Sprintf("pfx_%d:GetThing", time.Now().UnixNano())
	now := time.Now().Unix()
	if _, err := store.Evaluate(ctx, key, QuotaSpec{PerMinute: 5}, now); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}

	expectedKey := fmt.Sprintf("%s%s:m:60:%d", prefix, key, now/60)
	exists, err := client.Exists(ctx, expectedKey).Result()
	if err != nil {
		t.Fatalf("Redis Exists failed: %v", err)
	}
	if exists == 0 {
		t.Errorf("Expected key %s to exist, but it does not", expectedKey)
	}
}

func TestRedisStore_ContextCancellation(t *testing.T) {
	client := newTestClient(t)

	store, err := NewRedisStore(client)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = store.Evaluate(ctx, "cancel:GetThing", QuotaSpec{PerMinute: 5}, time.Now().Unix())
	if err == nil {
		t.Fatal("Expected an error due to cancelled context, but got nil")
	}
}
