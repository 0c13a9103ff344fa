// Package cold implements the authoritative tier of the cache: a
// high-capacity, byte-keyed store that is always written on Put and never
// evicts on its own. Expiry metadata travels in a small record envelope
// (see envelope.go) so a TTL sweep can run without invoking the value
// codec.
//
// Two backends are provided: an in-memory store (tests, ephemeral
// deployments) and a bbolt-backed store (durable). Both are safe for
// concurrent use; the cache treats that as an external guarantee.
package cold

import "errors"

// ErrFull is returned by Put when inserting a NEW key would exceed the
// store's configured capacity. The store never silently evicts to make
// room; updates to existing keys always succeed.
var ErrFull = errors.New("cold: store is full")

// Record is a stored value plus the metadata needed to evaluate expiry
// without decoding the payload.
type Record struct {
	// ExpiresAt is an absolute UnixNano deadline. Zero means no TTL.
	ExpiresAt int64
	// Payload is the codec-encoded value.
	Payload []byte
}

// Expired reports whether the record's deadline has passed at now
// (UnixNano). Records without a deadline never expire.
func (r Record) Expired(now int64) bool {
	return r.ExpiresAt != 0 && now > r.ExpiresAt
}

// Store is the cold-tier contract. Per-key operations are atomic within
// the store's own guarantee; there is no cross-key ordering.
type Store interface {
	// Get returns the record for key, if present.
	Get(key string) (Record, bool, error)

	// Put inserts or replaces the record for key. It fails with ErrFull
	// rather than evicting when a new key would exceed capacity.
	Put(key string, rec Record) error

	// Remove deletes key if present and reports whether it existed.
	Remove(key string) (bool, error)

	// Clear removes all records.
	Clear() error

	// Len returns the number of stored records.
	Len() (int, error)

	// SweepExpired removes every record whose deadline has passed at now
	// (UnixNano) and returns the number removed. This is the only path by
	// which the store voluntarily drops data.
	SweepExpired(now int64) (int, error)

	// Close releases the underlying resources.
	Close() error
}
