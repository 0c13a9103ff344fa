// Package cache provides a tiered, pressure-aware cache engine: a fast,
// bounded hot tier in front of an authoritative, higher-capacity cold
// tier, with hot-tier admission gated by host memory pressure.
//
// Design
//
//   - Tiers: Get checks the hot tier, then the cold store (decoding the
//     stored bytes and promoting into the hot tier when admission
//     allows). Put always writes the cold store and conditionally the
//     hot tier. The cold store is the single source of truth for key
//     existence; the hot tier is a best-effort accelerator that may lag
//     or be empty for a key the cold store holds.
//
//   - Hot tier: sharded, each shard an RWMutex-protected map plus an
//     intrusive insertion-order list. When a shard overflows it trims in
//     insertion order down to TrimTarget×capacity. This is deliberately
//     an iteration-order approximation, not exact LRU: reads update
//     access metadata but never reorder entries for eviction.
//
//   - Admission: a value enters the hot tier only while the host memory
//     pressure ratio stays below PressureThreshold (default 0.8). The
//     ratio comes from a cached gopsutil sampler (or Options.Pressure),
//     so the check is one atomic load on the write path. Go offers no
//     runtime-reclaimed weak map values, so instead of passive
//     reclamation the same pressure signal drives an immediate trim from
//     the maintenance cycle.
//
//   - Maintenance: Start launches a recurring cycle (expired-entry sweep
//     in both tiers, pressure check, trim). State machine is
//     Stopped → Running → Stopping → Stopped; Shutdown waits a bounded
//     StopTimeout for an in-flight cycle, then abandons it. A cycle that
//     fails or panics is logged and never stops the schedule.
//
//   - Errors: encode/decode failures degrade to misses — a corrupted
//     cold record is removed on sight and never surfaces from Get or
//     Put. Only cold-store creation is fatal, and that error belongs to
//     cold.OpenBolt's caller, before New runs.
//
//   - Stats: hits per tier, misses, and evictions are independent padded
//     atomics owned by the cache instance; Stats() snapshots them
//     without cross-counter atomicity. Options.Metrics mirrors the same
//     events to an external backend (a Prometheus adapter is provided).
//
// Basic usage
//
//	c := cache.New[string](cache.Options[string]{HotMaxSize: 10_000})
//	defer c.Shutdown()
//	c.Start(30 * time.Second)
//
//	c.Put("a", "1")
//	if v, ok := c.Get("a"); ok {
//	    _ = v
//	}
//
// With a durable cold tier
//
//	store, err := cold.OpenBolt("/var/lib/app/cache.db", 10_000_000)
//	if err != nil {
//	    return err // fatal: the cache cannot exist without its cold tier
//	}
//	c := cache.New[Product](cache.Options[Product]{
//	    HotMaxSize: 10_000,
//	    Cold:       store,
//	})
//
// With TTL
//
//	c.PutWithTTL("session", s, 30*time.Minute)
//
// With GetOrLoad (singleflight)
//
//	c := cache.New[string](cache.Options[string]{
//	    HotMaxSize: 1024,
//	    Loader: func(ctx context.Context, key string) (string, error) {
//	        return fetchFromDB(ctx, key)
//	    },
//	})
//	v, err := c.GetOrLoad(ctx, "key")
package cache
