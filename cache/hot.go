package cache

import (
	"sync"

	"github.com/tiercache/tiercache/internal/util"
)

// hotTier is the bounded accelerator in front of the cold store. It is
// sharded to spread lock contention; each shard owns a map for lookups
// and an intrusive insertion-order list for trimming.
//
// The tier holds no exclusive claim over a key's existence: the cold
// store is truth, and a key may be absent here (or linger here after a
// cold-side removal) at any time. Callers treat every miss identically
// and divergence is resolved lazily by sweeps and trims.
type hotTier[V any] struct {
	shards     []*hotShard[V]
	trimTarget float64
}

// hotShard is an independent partition with its own lock, map, and
// insertion-order list (head = newest insertion, tail = oldest).
type hotShard[V any] struct {
	mu   sync.RWMutex
	m    map[string]*hnode[V]
	head *hnode[V]
	tail *hnode[V]
	len  int
	cap  int // per-shard entry capacity

	trimTarget float64
}

// newHotTier splits maxSize across shards so the per-shard caps sum to
// exactly maxSize: maxSize%shards shards get one extra slot. shardCount
// <= 0 picks an automatic power of two; explicit counts are rounded up,
// then halved until every shard holds at least one entry (the shard mask
// needs a power of two).
func newHotTier[V any](maxSize, shardCount int, trimTarget float64) *hotTier[V] {
	if shardCount <= 0 {
		shardCount = util.ReasonableShardCount()
	} else {
		shardCount = int(util.NextPow2(uint64(shardCount)))
	}
	for shardCount > maxSize {
		shardCount >>= 1
	}

	base := maxSize / shardCount
	extra := maxSize % shardCount

	t := &hotTier[V]{
		shards:     make([]*hotShard[V], shardCount),
		trimTarget: trimTarget,
	}
	for i := range t.shards {
		c := base
		if i < extra {
			c++
		}
		t.shards[i] = &hotShard[V]{
			m:          make(map[string]*hnode[V], c),
			cap:        c,
			trimTarget: trimTarget,
		}
	}
	return t
}

// getShard picks a shard by hashing the key and masking with len-1.
// len(t.shards) is guaranteed to be a power of two.
func (t *hotTier[V]) getShard(key string) *hotShard[V] {
	h := util.Fnv64a(key)
	return t.shards[int(h)&(len(t.shards)-1)]
}

// tryGet returns the entry's value if present and not expired. An
// expired entry is removed on the spot and reported as a plain miss.
// On success the entry's access metadata is updated.
func (t *hotTier[V]) tryGet(key string, now int64) (V, bool) {
	return t.getShard(key).tryGet(key, now)
}

// put inserts or replaces key→ent. If the shard overflows its capacity,
// it trims down to trimTarget×cap in insertion order and returns the
// number of entries removed.
func (t *hotTier[V]) put(key string, ent *entry[V]) int {
	return t.getShard(key).put(key, ent)
}

func (t *hotTier[V]) remove(key string) bool {
	return t.getShard(key).remove(key)
}

// sweepExpired removes expired entries from every shard and returns the
// count removed.
func (t *hotTier[V]) sweepExpired(now int64) int {
	removed := 0
	for _, s := range t.shards {
		removed += s.sweepExpired(now)
	}
	return removed
}

// trim removes entries in insertion order from every overfull shard until
// each falls to targetRatio×cap. Shards at or under capacity are left
// alone. Returns the total removed.
func (t *hotTier[V]) trim(targetRatio float64) int {
	removed := 0
	for _, s := range t.shards {
		removed += s.trim(targetRatio)
	}
	return removed
}

func (t *hotTier[V]) size() int {
	total := 0
	for _, s := range t.shards {
		total += s.size()
	}
	return total
}

func (t *hotTier[V]) clear() {
	for _, s := range t.shards {
		s.clear()
	}
}

// -------------------- shard operations --------------------

func (s *hotShard[V]) tryGet(key string, now int64) (V, bool) {
	s.mu.RLock()
	n, ok := s.m[key]
	if ok && !n.ent.expired(now) {
		// Access metadata is atomic, so touching under the read lock is
		// safe even with concurrent readers.
		n.ent.touch(now)
		v := n.ent.val
		s.mu.RUnlock()
		return v, true
	}
	s.mu.RUnlock()

	var zero V
	if !ok {
		return zero, false
	}

	// Stale mapping: take the write lock and re-check before removing,
	// since a concurrent put may have replaced the entry.
	s.mu.Lock()
	if n2, ok2 := s.m[key]; ok2 && n2.ent.expired(now) {
		s.removeNodeLocked(n2)
		delete(s.m, key)
	}
	s.mu.Unlock()
	return zero, false
}

func (s *hotShard[V]) put(key string, ent *entry[V]) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n, ok := s.m[key]; ok {
		// In-place replace; the node keeps its slot in insertion order.
		n.ent = ent
		return 0
	}

	n := &hnode[V]{key: key, ent: ent}
	s.m[key] = n
	s.pushFrontLocked(n)

	if s.len <= s.cap {
		return 0
	}
	return s.trimToLocked(int(float64(s.cap) * s.trimTarget))
}

func (s *hotShard[V]) remove(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.m[key]
	if !ok {
		return false
	}
	s.removeNodeLocked(n)
	delete(s.m, key)
	return true
}

func (s *hotShard[V]) sweepExpired(now int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for n := s.tail; n != nil; {
		prev := n.prev
		if n.ent.expired(now) {
			s.removeNodeLocked(n)
			delete(s.m, n.key)
			removed++
		}
		n = prev
	}
	return removed
}

func (s *hotShard[V]) trim(targetRatio float64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.len <= s.cap {
		return 0
	}
	return s.trimToLocked(int(float64(s.cap) * targetRatio))
}

func (s *hotShard[V]) size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.len
}

func (s *hotShard[V]) clear() {
	s.mu.Lock()
	s.m = make(map[string]*hnode[V], s.cap)
	s.head, s.tail = nil, nil
	s.len = 0
	s.mu.Unlock()
}

// -------------------- internals (mu held) --------------------

// trimToLocked removes oldest-inserted entries until len <= target.
func (s *hotShard[V]) trimToLocked(target int) int {
	removed := 0
	for s.len > target && s.tail != nil {
		n := s.tail
		s.removeNodeLocked(n)
		delete(s.m, n.key)
		removed++
	}
	return removed
}

// pushFrontLocked inserts n at the newest end in O(1).
func (s *hotShard[V]) pushFrontLocked(n *hnode[V]) {
	n.prev = nil
	n.next = s.head
	if s.head != nil {
		s.head.prev = n
	}
	s.head = n
	if s.tail == nil {
		s.tail = n
	}
	s.len++
}

// removeNodeLocked unlinks n in O(1).
func (s *hotShard[V]) removeNodeLocked(n *hnode[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	}
	if s.head == n {
		s.head = n.next
	}
	if s.tail == n {
		s.tail = n.prev
	}
	n.prev, n.next = nil, nil
	s.len--
}
