package core

import "time"

const (
	// MaxTransitionAttempts bounds the CAS retry loop in the lifecycle
	// service. Exhaustion surfaces ErrConflict so the actor re-examines the
	// order.
	MaxTransitionAttempts = 3

	// StoreRetryAttempts bounds transient-failure retries at the entity
	// store boundary before ErrStoreUnavailable is surfaced.
	StoreRetryAttempts = 3
	StoreRetryBackoff  = 200 * time.Millisecond

	// MetricsRefreshTimeout caps the fire-and-forget refresh triggered after
	// a successful transition.
	MetricsRefreshTimeout = 10 * time.Second

	MetricsCacheTTL = 5 * time.Minute

	PublishTimeout = 5 * time.Second

	MinItemQuantity = 1
	MaxOrderItems   = 20
)
