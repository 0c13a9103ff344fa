package cache

// Tier identifies which tier served a hit.
type Tier int

const (
	// TierHot — served from the bounded on-heap accelerator.
	TierHot Tier = iota
	// TierCold — served from the authoritative byte store.
	TierCold
)

// EvictReason explains why entries were removed.
type EvictReason int

const (
	// EvictCapacity — trimmed because the hot tier overflowed.
	EvictCapacity EvictReason = iota
	// EvictTTL — expired and swept (either tier).
	EvictTTL
	// EvictPressure — trimmed because host memory pressure crossed the
	// admission threshold.
	EvictPressure
)

// Metrics exposes cache-level observability hooks.
// A NoopMetrics implementation is provided and used by default.
type Metrics interface {
	Hit(tier Tier)
	Miss()
	Evict(reason EvictReason, n int)
	Size(hot, cold int)
}

// NoopMetrics is a drop-in Metrics implementation that does nothing.
// Safe for concurrent use; the default when no observability backend is
// configured.
type NoopMetrics struct{}

func (NoopMetrics) Hit(Tier)               {}
func (NoopMetrics) Miss()                  {}
func (NoopMetrics) Evict(EvictReason, int) {}
func (NoopMetrics) Size(hot, cold int)     {}

// Ensure NoopMetrics implements the Metrics interface at compile time.
var _ Metrics = NoopMetrics{}
