//go:build go1.18

package cache

import (
	"strings"
	"testing"
)

// Fuzz basic Put/Get/Remove semantics under arbitrary string inputs.
// Guards against panics and ensures the tiered invariants hold: a put
// key is gettable (from either tier), a removed key is gone from both.
// NOTE: We cap key/value lengths to avoid pathological memory usage
// during fuzzing (this does not weaken the invariants we check).
func FuzzCache_PutGetRemove(f *testing.F) {
	// Seed corpus: empty, ASCII, Unicode, long strings.
	f.Add("", "")
	f.Add("a", "1")
	f.Add("b", "2")
	f.Add("αβγ", "δ")
	f.Add("emoji🙂", "🙂🙂")
	f.Add("long", strings.Repeat("x", 1024))

	f.Fuzz(func(t *testing.T, k, v string) {
		// Cap lengths to keep memory bounded during fuzzing.
		const limit = 1 << 12 // 4096
		if len(k) > limit {
			k = k[:limit]
		}
		if len(v) > limit {
			v = v[:limit]
		}

		c := New[string](Options[string]{HotMaxSize: 16, Pressure: admitAll})
		t.Cleanup(func() { _ = c.Shutdown() })

		c.Put(k, v)
		if k == "" {
			// Empty keys are no-ops: nothing stored, nothing to remove.
			if _, ok := c.Get(k); ok {
				t.Fatal("empty key must miss")
			}
			if c.Remove(k) {
				t.Fatal("empty key Remove must be false")
			}
			return
		}

		// Put -> Get must return the same value.
		got, ok := c.Get(k)
		if !ok || got != v {
			t.Fatalf("after Put/Get: want %q, got %q ok=%v", v, got, ok)
		}

		// Remove must delete from both tiers and return true once.
		if !c.Remove(k) {
			t.Fatalf("Remove must return true")
		}
		if _, ok := c.Get(k); ok {
			t.Fatalf("key must be absent after Remove")
		}
		if c.Remove(k) {
			t.Fatalf("second Remove must return false")
		}

		// A fresh Put after removal works again.
		c.Put(k, v)
		if got, ok := c.Get(k); !ok || got != v {
			t.Fatalf("after re-Put: want %q, got %q ok=%v", v, got, ok)
		}
	})
}
