// Package throttle provides per-caller, per-operation request throttling
// with fixed per-minute, per-hour and per-day windows.
//
// The primary entry points are the Registry, which holds quota
// configuration, and Throttle.Middleware, which applies it:
//
//	reg := throttle.NewRegistry()
//	reg.Register("GET /things", throttle.QuotaSpec{PerMinute: 100, PerDay: 5000})
//	reg.Freeze()
//
//	store, _ := throttle.NewRedisStore(client)
//	th := throttle.New(reg, store, logger)
//	handler = th.Middleware(handler)
//
// # Overview
//
// This package implements fixed-window counting:
//
//   - Every (caller, operation, window, time bucket) gets its own counter.
//   - A request increments the counter for each constrained window and is
//     denied as soon as one counter exceeds its budget.
//   - Bucket boundaries align to wall-clock multiples of the window, so a
//     minute bucket covers one calendar minute of Unix time.
//
// Fixed windows keep the check O(1) and allocation-free inside the store.
// The tradeoff is burst behavior at a boundary: a caller can fit up to
// twice the nominal budget into a short interval straddling two buckets.
//
// # Core Types
//
// QuotaSpec defines the policy: up to three window budgets, where 0 means
// the window is unconstrained (never "zero requests allowed").
//
// OperationID defines "what" is being throttled; the caller address
// supplies the "who". The counter key is their concatenation.
//
// # Backends
//
// Two CounterStore implementations share the same Evaluate API:
//
//   - MemoryStore: an in-process store backed by a Go map. Useful for
//     unit tests, local development, and single-instance deployments.
//     Its state is not shared across replicas.
//
//   - RedisStore: a distributed store backed by Redis. The whole
//     increment-check-expire sequence runs as a Lua script inside Redis,
//     which makes it atomic across all application instances sharing the
//     store.
//
// # Failure Policy
//
// The middleware fails open. If the store is unreachable, times out, or
// returns a protocol error, the request is allowed through and the
// failure is logged; availability of the API outranks strict quota
// enforcement during a store outage. The worst case of any store failure
// is one unthrottled request, never a crashed or hung request pipeline.
//
// RedisStore uses EVALSHA with a script handle loaded at construction.
// If Redis loses its script cache (restart, SCRIPT FLUSH), the store
// reloads the script and retries the evaluation once, transparently.
//
// # Storage Details
//
// Counter keys have the form
//
//	{prefix}{caller}:{operation}:{tag}:{duration}:{bucket}
//
// where tag is m, h or d, duration is the window length in seconds and
// bucket is floor(now / duration). Each key expires duration seconds
// after its last increment, so stale buckets clean themselves up and
// store memory is bounded by active windows; there is no explicit delete
// path.
package throttle
