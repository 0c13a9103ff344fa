package cache

import (
	"context"
	"time"
)

// Cache is a tiered, pressure-aware cache: a fast bounded hot tier in
// front of an authoritative cold tier. All methods are safe for
// concurrent use by multiple goroutines.
//
// Foreground operations never block on background maintenance; they may
// race with a concurrent sweep or trim, in which case a Get simply falls
// through to the cold tier.
type Cache[V any] interface {
	// Get returns the value for key and a presence flag.
	// Lookup order: hot tier, then cold tier (decoding the stored bytes
	// and promoting into the hot tier when admission allows).
	// An empty key is a no-op miss.
	Get(key string) (V, bool)

	// GetOrLoad returns the value for key, loading it via Options.Loader
	// on miss. Concurrent loads for the same key are coalesced.
	// If no Loader was configured, returns ErrNoLoader.
	GetOrLoad(ctx context.Context, key string) (V, error)

	// Put stores key→v using the cache's DefaultTTL (if any).
	// The cold tier is always written; the hot tier only when the
	// admission gate allows. Encode failures degrade to a skipped write,
	// never an error. Empty keys and nil values are no-ops.
	Put(key string, v V)

	// PutWithTTL stores key→v with a per-key TTL (relative duration).
	// A non-positive ttl disables expiration for this entry.
	PutWithTTL(key string, v V, ttl time.Duration)

	// Remove deletes key from both tiers and reports whether it was
	// present in either. Removing an absent key is a safe no-op.
	Remove(key string) bool

	// Clear empties both tiers and resets the stats counters.
	Clear()

	// Stats returns a point-in-time snapshot of the cache counters.
	// Counters are independently atomic, not jointly transactional, so a
	// snapshot may mix instants; see Stats.
	Stats() Stats

	// Start launches background maintenance (expired-entry sweep and
	// pressure-triggered trim) at the given interval. A non-positive
	// interval uses Options.MaintenanceInterval. No-op if already running.
	Start(interval time.Duration)

	// Shutdown stops maintenance (bounded by Options.StopTimeout),
	// drops the hot tier, and closes the cold store. Durable cold data
	// is NOT wiped; use Clear first if that is wanted.
	Shutdown() error
}
