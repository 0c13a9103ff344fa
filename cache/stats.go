package cache

import "github.com/tiercache/tiercache/internal/util"

// Stats is a point-in-time snapshot of the cache counters.
//
// Counters are read without cross-counter atomicity: a snapshot taken
// while requests are in flight may pair a hit count and a miss count
// from slightly different instants. That imprecision is accepted in
// exchange for contention-free counting on the request path.
type Stats struct {
	HotHits   int64
	ColdHits  int64
	Misses    int64
	Evictions int64

	HotSize  int
	ColdSize int

	// HitRate is (HotHits+ColdHits) / total lookups, 0 when idle.
	HitRate float64
}

// Hits returns the combined hit count across tiers.
func (s Stats) Hits() int64 { return s.HotHits + s.ColdHits }

// recorder owns the cache's counters. Each counter sits on its own cache
// line so concurrent hits and misses do not false-share. The recorder is
// an instance owned by the facade — never package state.
type recorder struct {
	hotHits   util.PaddedAtomicInt64
	coldHits  util.PaddedAtomicInt64
	misses    util.PaddedAtomicInt64
	evictions util.PaddedAtomicInt64
}

func (r *recorder) hit(tier Tier) {
	if tier == TierHot {
		r.hotHits.Add(1)
	} else {
		r.coldHits.Add(1)
	}
}

func (r *recorder) miss() { r.misses.Add(1) }

func (r *recorder) evict(n int) {
	if n > 0 {
		r.evictions.Add(int64(n))
	}
}

func (r *recorder) reset() {
	r.hotHits.Store(0)
	r.coldHits.Store(0)
	r.misses.Store(0)
	r.evictions.Store(0)
}

// snapshot assembles Stats from the counters plus the given tier sizes.
func (r *recorder) snapshot(hotSize, coldSize int) Stats {
	s := Stats{
		HotHits:   r.hotHits.Load(),
		ColdHits:  r.coldHits.Load(),
		Misses:    r.misses.Load(),
		Evictions: r.evictions.Load(),
		HotSize:   hotSize,
		ColdSize:  coldSize,
	}
	if total := s.Hits() + s.Misses; total > 0 {
		s.HitRate = float64(s.Hits()) / float64(total)
	}
	return s
}
