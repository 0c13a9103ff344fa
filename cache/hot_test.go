package cache

import (
	"strconv"
	"testing"
	"time"

	"github.com/tiercache/tiercache/internal/util"
)

// Single-shard tier so insertion order is global and trims are
// deterministic.
func newTestTier(maxSize int) *hotTier[string] {
	return newHotTier[string](maxSize, 1, 0.8)
}

func TestHotTier_InsertionOrderTrim(t *testing.T) {
	t.Parallel()

	tier := newTestTier(3)
	now := time.Now().UnixNano()

	for _, k := range []string{"a", "b", "c"} {
		if evicted := tier.put(k, newEntry("v:"+k, now, 0)); evicted != 0 {
			t.Fatalf("no trim expected at size <= cap, got %d", evicted)
		}
	}
	// Reading "a" must NOT protect it: eviction ignores recency.
	if _, ok := tier.tryGet("a", now); !ok {
		t.Fatal("expect hit for a")
	}

	if evicted := tier.put("d", newEntry("v:d", now, 0)); evicted != 2 {
		t.Fatalf("overflow must trim to floor(3*0.8)=2, evicted %d", evicted)
	}
	if tier.size() != 2 {
		t.Fatalf("size want 2, got %d", tier.size())
	}
	for _, k := range []string{"a", "b"} {
		if _, ok := tier.tryGet(k, now); ok {
			t.Fatalf("%s must be trimmed (oldest insertions go first)", k)
		}
	}
	for _, k := range []string{"c", "d"} {
		if _, ok := tier.tryGet(k, now); !ok {
			t.Fatalf("%s must survive the trim", k)
		}
	}
}

// Replacing an existing key keeps its slot in insertion order.
func TestHotTier_ReplaceKeepsPosition(t *testing.T) {
	t.Parallel()

	tier := newTestTier(3)
	now := time.Now().UnixNano()

	tier.put("a", newEntry("1", now, 0))
	tier.put("b", newEntry("2", now, 0))
	tier.put("a", newEntry("1*", now, 0)) // update, no relink
	tier.put("c", newEntry("3", now, 0))

	// Overflow: "a" is still the oldest insertion and goes first.
	tier.put("d", newEntry("4", now, 0))
	if _, ok := tier.tryGet("a", now); ok {
		t.Fatal("a must be evicted despite the update")
	}
	if v, ok := tier.tryGet("c", now); !ok || v != "3" {
		t.Fatalf("c must survive, got %q ok=%v", v, ok)
	}
}

func TestHotTier_TryGetExpired(t *testing.T) {
	t.Parallel()

	tier := newTestTier(4)
	now := int64(1000)

	tier.put("x", newEntry("v", now, now+100))
	if _, ok := tier.tryGet("x", now+50); !ok {
		t.Fatal("fresh entry must hit")
	}
	if _, ok := tier.tryGet("x", now+200); ok {
		t.Fatal("expired entry must miss")
	}
	// The stale mapping was removed on the spot.
	if tier.size() != 0 {
		t.Fatalf("stale mapping must be removed, size=%d", tier.size())
	}
}

func TestHotTier_SweepExpired(t *testing.T) {
	t.Parallel()

	tier := newTestTier(16)
	now := int64(1000)

	for i := 0; i < 5; i++ {
		tier.put("ttl:"+strconv.Itoa(i), newEntry("v", now, now+10))
	}
	for i := 0; i < 3; i++ {
		tier.put("keep:"+strconv.Itoa(i), newEntry("v", now, 0))
	}

	if n := tier.sweepExpired(now + 5); n != 0 {
		t.Fatalf("nothing expired yet, swept %d", n)
	}
	if n := tier.sweepExpired(now + 50); n != 5 {
		t.Fatalf("sweep want 5, got %d", n)
	}
	if tier.size() != 3 {
		t.Fatalf("entries without TTL must survive, size=%d", tier.size())
	}
}

// trim is a no-op for shards at or under capacity.
func TestHotTier_TrimUnderCapacity(t *testing.T) {
	t.Parallel()

	tier := newTestTier(8)
	now := time.Now().UnixNano()
	tier.put("a", newEntry("1", now, 0))

	if n := tier.trim(0.5); n != 0 {
		t.Fatalf("trim under capacity must remove nothing, got %d", n)
	}
	if tier.size() != 1 {
		t.Fatalf("size want 1, got %d", tier.size())
	}
}

// Per-shard caps must sum to exactly the global bound, whatever the
// shard count, and the shard count must stay a power of two for the
// shard mask. More shards than entries collapse until every shard can
// hold at least one.
func TestHotTier_ShardCapsSumToMax(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct{ max, shards int }{
		{4, 8}, {10, 4}, {3, 1}, {1, 16}, {7, 0}, {100_000, 0},
	} {
		tier := newHotTier[string](tc.max, tc.shards, 0.8)
		if !util.IsPowerOfTwo(uint64(len(tier.shards))) {
			t.Fatalf("max=%d shards=%d: %d shards is not a power of two",
				tc.max, tc.shards, len(tier.shards))
		}
		sum := 0
		for _, s := range tier.shards {
			if s.cap < 1 {
				t.Fatalf("max=%d shards=%d: shard cap %d < 1", tc.max, tc.shards, s.cap)
			}
			sum += s.cap
		}
		if sum != tc.max {
			t.Fatalf("max=%d shards=%d: caps sum to %d, want %d",
				tc.max, tc.shards, sum, tc.max)
		}
	}
}

// The global bound holds with many shards and HotMaxSize not divisible
// by the shard count: no shard split may leave the tier settled above
// the configured max.
func TestHotTier_CapacityBoundMultiShard(t *testing.T) {
	t.Parallel()

	const max = 5
	tier := newHotTier[string](max, 8, 0.8)
	now := time.Now().UnixNano()

	for i := 0; i < 256; i++ {
		tier.put("k:"+strconv.Itoa(i), newEntry("v", now, 0))
		if got := tier.size(); got > max {
			t.Fatalf("tier settled at %d entries, above max %d", got, max)
		}
	}
}

func TestHotTier_AccessMetadata(t *testing.T) {
	t.Parallel()

	now := int64(5000)
	tier := newTestTier(4)
	ent := newEntry("v", now, 0)
	tier.put("k", ent)

	tier.tryGet("k", now+10)
	tier.tryGet("k", now+20)

	if got := ent.accessCount.Load(); got != 2 {
		t.Fatalf("accessCount want 2, got %d", got)
	}
	if got := ent.lastAccess.Load(); got != now+20 {
		t.Fatalf("lastAccess want %d, got %d", now+20, got)
	}
	if ent.createdAt != now {
		t.Fatalf("createdAt must be immutable, got %d", ent.createdAt)
	}
}
