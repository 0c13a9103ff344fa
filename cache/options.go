package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/tiercache/tiercache/codec"
	"github.com/tiercache/tiercache/cold"
	"github.com/tiercache/tiercache/pressure"
)

// Clock provides time in UnixNano; useful for deterministic tests.
type Clock interface{ NowUnixNano() int64 }

// Options configures the cache. Zero values are safe; sane defaults are
// applied in New():
//   - nil Cold     => in-memory store bounded by ColdMaxSize
//   - nil Codec    => codec.JSON
//   - nil Pressure => shared gopsutil sampler (1s refresh)
//   - nil Metrics  => NoopMetrics
//   - nil Logger   => zap.NewNop()
//   - HotShards <= 0 => auto, rounded up to the next power of two
type Options[V any] struct {
	// HotMaxSize is the hot-tier entry count limit. Must be > 0.
	HotMaxSize int

	// HotShards sets the number of hot-tier shards. 0 picks an automatic
	// value (≈ 2*GOMAXPROCS) rounded to the next power of two.
	HotShards int

	// Cold is the authoritative store. nil builds an in-memory store
	// bounded by ColdMaxSize (0 = unbounded). Durable deployments pass
	// cold.OpenBolt's result here; an open failure there is fatal and
	// must abort before New is reached.
	Cold cold.Store

	// ColdMaxSize bounds the default in-memory cold store.
	// Ignored when Cold is non-nil.
	ColdMaxSize int

	// Codec serializes values for cold storage. nil => codec.JSON[V]().
	Codec codec.Codec[V]

	// PressureThreshold gates hot-tier admission: values are admitted
	// while the pressure ratio stays below it. 0 => 0.8.
	PressureThreshold float64

	// TrimTarget is the ratio of HotMaxSize the hot tier trims down to
	// when it overflows or when pressure forces a trim. 0 => 0.8.
	TrimTarget float64

	// Pressure supplies the host memory pressure ratio in [0,1].
	// nil => a shared gopsutil-backed sampler.
	Pressure pressure.Func

	// MaintenanceInterval is the default period for Start. 0 => 30s.
	MaintenanceInterval time.Duration

	// StopTimeout bounds the wait for an in-flight maintenance cycle
	// during Shutdown; after it the cycle is abandoned. 0 => 5s.
	StopTimeout time.Duration

	// DefaultTTL applies to Put when no per-key TTL is given (0 = none).
	DefaultTTL time.Duration

	// Loader fetches a value on cache miss. Used by GetOrLoad.
	Loader func(ctx context.Context, key string) (V, error)

	// Metrics receives hit/miss/evict/size signals. Defaults to
	// NoopMetrics; plug the Prometheus adapter to export them.
	Metrics Metrics

	// Logger receives maintenance failures and degraded data-path events.
	Logger *zap.Logger

	// Clock overrides the time source (tests). Nil => time.Now().
	Clock Clock
}

// normalize applies defaults in place. HotMaxSize must already be valid.
func (o *Options[V]) normalize() {
	if o.Codec == nil {
		o.Codec = codec.JSON[V]()
	}
	if o.Cold == nil {
		o.Cold = cold.NewMemoryStore(o.ColdMaxSize)
	}
	if o.PressureThreshold <= 0 || o.PressureThreshold > 1 {
		o.PressureThreshold = 0.8
	}
	if o.TrimTarget <= 0 || o.TrimTarget > 1 {
		o.TrimTarget = 0.8
	}
	if o.Pressure == nil {
		o.Pressure = hostPressure()
	}
	if o.MaintenanceInterval <= 0 {
		o.MaintenanceInterval = 30 * time.Second
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = 5 * time.Second
	}
	if o.Metrics == nil {
		o.Metrics = NoopMetrics{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
}
