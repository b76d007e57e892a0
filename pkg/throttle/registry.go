package throttle

import (
	"errors"
	"fmt"
)

var (
	// ErrNegativeLimit is returned when a quota declares a negative window
	// budget. Negative limits are a programming error and are rejected at
	// registration rather than misbehaving at request time.
	ErrNegativeLimit = errors.New("throttle: negative window limit")

	// ErrRegistryFrozen is returned by Register after Freeze has been called.
	ErrRegistryFrozen = errors.New("throttle: registry is frozen")
)

// Registry maps operations to their configured quotas.
//
// It is populated once, single-threaded, during startup and then frozen.
// After Freeze, Lookup is safe for unsynchronized concurrent use: the map
// is never written again, so the hot path takes no locks.
type Registry struct {
	quotas map[OperationID]QuotaSpec
	frozen bool
}

// NewRegistry returns an empty, unfrozen registry.
func NewRegistry() *Registry {
	return &Registry{quotas: make(map[OperationID]QuotaSpec)}
}

// Register inserts or replaces the quota for an operation. It rejects
// negative limits and registration after Freeze.
func (r *Registry) Register(op OperationID, quota QuotaSpec) error {
	if r.frozen {
		return ErrRegistryFrozen
	}
	if op == "" {
		return errors.New("throttle: empty operation id")
	}
	if quota.PerMinute < 0 || quota.PerHour < 0 || quota.PerDay < 0 {
		return fmt.Errorf("%w for operation %q", ErrNegativeLimit, op)
	}
	r.quotas[op] = quota
	return nil
}

// Freeze ends the registration phase. Further Register calls fail.
func (r *Registry) Freeze() {
	r.frozen = true
}

// Lookup returns the quota for an operation. The second result is false
// when the operation is unthrottled; that is the common case and costs
// one map read.
func (r *Registry) Lookup(op OperationID) (QuotaSpec, bool) {
	q, ok := r.quotas[op]
	return q, ok
}

// Len returns the number of registered operations.
func (r *Registry) Len() int {
	return len(r.quotas)
}
