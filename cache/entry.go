package cache

import (
	"reflect"
	"sync/atomic"
)

// entry wraps a hot-tier value with its access and expiry metadata.
// createdAt, expiresAt and size are set once at construction; the access
// fields are atomics because reads update them while other goroutines
// hold only a shard read lock.
type entry[V any] struct {
	val V

	createdAt int64 // UnixNano, immutable
	expiresAt int64 // UnixNano; 0 = no TTL

	lastAccess  atomic.Int64 // UnixNano of the last successful read
	accessCount atomic.Int64

	// size is a rough heap estimate computed once from the value's
	// shape; it feeds stats, not eviction decisions.
	size int64
}

func newEntry[V any](v V, now, expiresAt int64) *entry[V] {
	e := &entry[V]{
		val:       v,
		createdAt: now,
		expiresAt: expiresAt,
		size:      estimateSize(any(v)),
	}
	e.lastAccess.Store(now)
	return e
}

// expired reports whether the entry's deadline has passed at now.
// Entries without a deadline never expire, regardless of access activity.
func (e *entry[V]) expired(now int64) bool {
	return e.expiresAt != 0 && now > e.expiresAt
}

// touch records a successful read.
func (e *entry[V]) touch(now int64) {
	e.lastAccess.Store(now)
	e.accessCount.Add(1)
}

// estimateSize approximates the heap footprint of a value in bytes.
// It is a heuristic used for stats only: cheap, never recomputed, and
// intentionally rough for composite types.
func estimateSize(v any) int64 {
	switch x := v.(type) {
	case nil:
		return 0
	case string:
		return int64(len(x)) + 16
	case []byte:
		return int64(len(x)) + 24
	case bool:
		return 1
	case int, int64, uint, uint64, float64:
		return 8
	case int32, uint32, float32:
		return 4
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		return int64(rv.Len())*8 + 24
	case reflect.Map:
		return int64(rv.Len())*32 + 48
	case reflect.Ptr:
		if rv.IsNil() {
			return 8
		}
		return int64(rv.Elem().Type().Size()) + 8
	default:
		return int64(rv.Type().Size())
	}
}

// isNilValue reports whether a value is nil for "nil value is a no-op"
// purposes: nil interfaces plus nil pointers/slices/maps/funcs/channels.
func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
