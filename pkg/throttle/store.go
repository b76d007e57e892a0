package throttle

import "context"

// CounterStore evaluates one request against the caller's windowed
// counters. Implementations must make the whole increment-check-expire
// sequence atomic with respect to concurrent callers sharing the same
// key; a fetch-then-increment sequence would let two in-flight requests
// both observe "under limit" and both pass.
//
// now is the request's Unix timestamp in seconds; it determines which
// time bucket each window's counter lands in.
type CounterStore interface {
	Evaluate(ctx context.Context, key string, quota QuotaSpec, now int64) (Verdict, error)
}
