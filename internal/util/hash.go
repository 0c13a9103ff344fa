// Package util contains internal helpers (hashing, sharding, padding).
package util

// Fnv64a hashes a string key using 64-bit FNV-1a.
// Keys in this cache are always strings (the cold tier is byte-keyed),
// so the hash is specialized rather than generic.
func Fnv64a(k string) uint64 {
	h := uint64(fnvOffset64)
	for i := 0; i < len(k); i++ {
		h ^= uint64(k[i])
		h *= fnvPrime64
	}
	return h
}

const (
	fnvOffset64 = 1469598103934665603
	fnvPrime64  = 1099511628211
)
