package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/tiercache/tiercache/cold"
	"github.com/tiercache/tiercache/internal/singleflight"
	"github.com/tiercache/tiercache/pressure"
)

// ErrNoLoader is returned by GetOrLoad when no Loader was configured.
var ErrNoLoader = errors.New("cache: no Loader provided")

// tiered composes the hot tier, the cold store, the admission gate, the
// stats recorder, and the maintenance scheduler behind the Cache
// interface. It owns no entries itself; ownership lives in the tiers.
//
// No lock spans both tiers. Consistency between them is eventual: the
// cold store is truth, the hot tier a best-effort accelerator, and
// divergence is resolved lazily by sweeps and trims.
type tiered[V any] struct {
	opt Options[V]

	hot    *hotTier[V]
	cold   cold.Store
	gate   *pressure.Controller
	rec    recorder
	sched  *scheduler
	log    *zap.Logger
	closed atomic.Bool

	// singleflight group coalescing concurrent loads in GetOrLoad.
	sf singleflight.Group[V]
}

// New constructs a tiered cache with the provided Options.
//
// HotMaxSize must be positive. Cold-store creation failures are fatal by
// design and surface before New: cold.OpenBolt returns its error to the
// caller, who aborts instead of constructing the cache.
func New[V any](opt Options[V]) Cache[V] {
	if opt.HotMaxSize <= 0 {
		panic("HotMaxSize must be > 0")
	}
	opt.normalize()

	c := &tiered[V]{
		opt:  opt,
		hot:  newHotTier[V](opt.HotMaxSize, opt.HotShards, opt.TrimTarget),
		cold: opt.Cold,
		gate: pressure.NewController(opt.PressureThreshold, opt.Pressure),
		log:  opt.Logger,
	}
	c.sched = &scheduler{cycle: c.maintain, log: c.log}
	return c
}

// ---- Cache[V] implementation ----

// Get checks the hot tier first, then the cold store. A cold hit decodes
// the stored bytes and promotes the value into the hot tier when the
// admission gate allows. Decode failures remove the corrupted record and
// resolve as a miss; they are never surfaced to the caller.
func (c *tiered[V]) Get(key string) (V, bool) {
	var zero V
	if key == "" || c.closed.Load() {
		return zero, false
	}
	now := c.now()

	if v, ok := c.hot.tryGet(key, now); ok {
		c.rec.hit(TierHot)
		c.opt.Metrics.Hit(TierHot)
		return v, true
	}

	rec, ok, err := c.cold.Get(key)
	if err != nil {
		c.log.Warn("cold tier read failed", zap.String("key", key), zap.Error(err))
		c.recordMiss()
		return zero, false
	}
	if !ok || rec.Expired(now) {
		// Expired-but-unswept records stay put; only sweeps evict them.
		c.recordMiss()
		return zero, false
	}

	v, err := c.opt.Codec.Decode(rec.Payload)
	if err != nil {
		// Corrupted record: drop it and resolve as a miss.
		c.log.Warn("corrupted cold record removed", zap.String("key", key), zap.Error(err))
		if _, rmErr := c.cold.Remove(key); rmErr != nil {
			c.log.Warn("corrupted record removal failed", zap.String("key", key), zap.Error(rmErr))
		}
		c.recordMiss()
		return zero, false
	}

	if c.gate.ShouldAdmit() {
		evicted := c.hot.put(key, newEntry(v, now, rec.ExpiresAt))
		c.recordEvictions(EvictCapacity, evicted)
	}

	c.rec.hit(TierCold)
	c.opt.Metrics.Hit(TierCold)
	return v, true
}

// Put stores key→v with the cache's DefaultTTL.
func (c *tiered[V]) Put(key string, v V) {
	c.PutWithTTL(key, v, c.opt.DefaultTTL)
}

// PutWithTTL always writes the cold store; the hot tier is written only
// when the admission gate allows. Data-path failures (encode, cold
// write) degrade to a skipped write and a log line, never an error.
func (c *tiered[V]) PutWithTTL(key string, v V, ttl time.Duration) {
	if key == "" || c.closed.Load() || isNilValue(any(v)) {
		return
	}
	now := c.now()
	expiresAt := c.deadline(now, ttl)

	payload, err := c.opt.Codec.Encode(v)
	if err != nil {
		c.log.Warn("encode failed, skipping cache write", zap.String("key", key), zap.Error(err))
		return
	}

	if err := c.cold.Put(key, cold.Record{ExpiresAt: expiresAt, Payload: payload}); err != nil {
		// The cold store is authoritative: if it rejected the write, the
		// hot tier must not hold a value the cold tier lacks.
		if errors.Is(err, cold.ErrFull) {
			c.log.Warn("cold tier full, write dropped", zap.String("key", key))
		} else {
			c.log.Error("cold tier write failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	if c.gate.ShouldAdmit() {
		evicted := c.hot.put(key, newEntry(v, now, expiresAt))
		c.recordEvictions(EvictCapacity, evicted)
	}
}

// Remove deletes key from both tiers; true if either held it.
func (c *tiered[V]) Remove(key string) bool {
	if key == "" || c.closed.Load() {
		return false
	}
	hotRemoved := c.hot.remove(key)
	coldRemoved, err := c.cold.Remove(key)
	if err != nil {
		c.log.Warn("cold tier remove failed", zap.String("key", key), zap.Error(err))
	}
	return hotRemoved || coldRemoved
}

// Clear empties both tiers and resets the counters.
func (c *tiered[V]) Clear() {
	c.hot.clear()
	if err := c.cold.Clear(); err != nil {
		c.log.Error("cold tier clear failed", zap.Error(err))
	}
	c.rec.reset()
	c.opt.Metrics.Size(0, c.coldSize())
}

// Stats assembles a snapshot from the counters and current tier sizes.
func (c *tiered[V]) Stats() Stats {
	return c.rec.snapshot(c.hot.size(), c.coldSize())
}

// Start launches background maintenance. No-op if already running.
func (c *tiered[V]) Start(interval time.Duration) {
	if c.closed.Load() {
		return
	}
	if interval <= 0 {
		interval = c.opt.MaintenanceInterval
	}
	c.sched.start(interval)
}

// Shutdown stops maintenance with a bounded wait, drops the hot tier,
// and closes the cold store. Safe to call more than once.
func (c *tiered[V]) Shutdown() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if !c.sched.stop(c.opt.StopTimeout) {
		c.log.Warn("maintenance cycle still in flight, abandoned",
			zap.Duration("timeout", c.opt.StopTimeout))
	}
	c.hot.clear()
	return c.cold.Close()
}

// GetOrLoad returns the value for key; on miss it loads via
// Options.Loader, coalescing concurrent loads for the same key. Loaded
// values run through the normal Put path (cold write, gated hot write).
func (c *tiered[V]) GetOrLoad(ctx context.Context, key string) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}
	if c.opt.Loader == nil {
		var zero V
		return zero, ErrNoLoader
	}

	return c.sf.Do(ctx, key, func() (V, error) {
		// Double-check after flight join.
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		v, err := c.opt.Loader(ctx, key)
		if err == nil {
			c.Put(key, v)
		}
		return v, err
	})
}

// ---- maintenance ----

// maintain is one scheduler cycle: sweep expired entries from both
// tiers, then check the pressure ratio and trim the hot tier when the
// host is over the admission threshold. Runs concurrently with
// foreground operations and touches only its own tier's locks.
func (c *tiered[V]) maintain() {
	now := c.now()

	swept := c.hot.sweepExpired(now)
	coldSwept, err := c.cold.SweepExpired(now)
	if err != nil {
		c.log.Error("cold tier sweep failed", zap.Error(err))
	}
	c.recordEvictions(EvictTTL, swept+coldSwept)

	if ratio := c.gate.Ratio(); ratio >= c.gate.Threshold() {
		trimmed := c.hot.trim(c.opt.TrimTarget)
		c.recordEvictions(EvictPressure, trimmed)
		c.log.Warn("memory pressure above threshold",
			zap.Float64("ratio", ratio),
			zap.Float64("threshold", c.gate.Threshold()),
			zap.Int("trimmed", trimmed))
	}

	c.opt.Metrics.Size(c.hot.size(), c.coldSize())
}

// ---- helpers ----

func (c *tiered[V]) recordMiss() {
	c.rec.miss()
	c.opt.Metrics.Miss()
}

func (c *tiered[V]) recordEvictions(reason EvictReason, n int) {
	if n <= 0 {
		return
	}
	c.rec.evict(n)
	c.opt.Metrics.Evict(reason, n)
}

func (c *tiered[V]) coldSize() int {
	n, err := c.cold.Len()
	if err != nil {
		c.log.Warn("cold tier size probe failed", zap.Error(err))
		return 0
	}
	return n
}

func (c *tiered[V]) now() int64 {
	if c.opt.Clock != nil {
		return c.opt.Clock.NowUnixNano()
	}
	return time.Now().UnixNano()
}

// deadline converts a relative TTL into an absolute UnixNano deadline.
// A non-positive ttl returns 0 (no expiration).
func (c *tiered[V]) deadline(now int64, ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return now + int64(ttl)
}

// hostPressure lazily builds the process-wide telemetry sampler shared
// by caches that do not supply their own Pressure source. Host memory is
// inherently process-global; the counters that matter stay per-instance.
var (
	hostSamplerOnce sync.Once
	hostSampler     *pressure.Sampler
)

func hostPressure() pressure.Func {
	hostSamplerOnce.Do(func() {
		hostSampler = pressure.NewSampler(time.Second)
	})
	return hostSampler.Ratio
}
