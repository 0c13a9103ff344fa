// Package pressure provides host memory telemetry and the admission gate
// that decides whether values may enter the hot tier.
//
// The gate is a pure threshold check, not a feedback controller: it reads
// a cached pressure ratio and compares it against a fixed threshold. The
// ratio source is external; the default Sampler reads host memory usage
// via gopsutil and refreshes it off the request path, so ShouldAdmit
// never blocks or allocates.
package pressure

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/mem"
)

// Func reports the current memory pressure ratio in [0,1].
// Implementations must be cheap and non-blocking.
type Func func() float64

// Controller gates hot-tier admission against a pressure threshold.
type Controller struct {
	threshold float64
	ratio     Func
}

// NewController builds a gate with the given threshold (0..1) and ratio
// source. A nil source admits everything (ratio 0).
func NewController(threshold float64, ratio Func) *Controller {
	if ratio == nil {
		ratio = func() float64 { return 0 }
	}
	return &Controller{threshold: threshold, ratio: ratio}
}

// ShouldAdmit reports whether a value may enter the hot tier right now.
func (c *Controller) ShouldAdmit() bool {
	return c.ratio() < c.threshold
}

// Ratio returns the current pressure ratio from the source.
func (c *Controller) Ratio() float64 { return c.ratio() }

// Threshold returns the configured admission threshold.
func (c *Controller) Threshold() float64 { return c.threshold }

// Sampler caches the host memory usage ratio so reads cost one atomic
// load. A read that finds the sample stale claims a refresh and performs
// it in a background goroutine; callers keep getting the previous sample
// until the new one lands.
type Sampler struct {
	interval   time.Duration
	ratioBits  atomic.Uint64 // math.Float64bits of the last sample
	lastNanos  atomic.Int64  // when the last refresh completed
	refreshing atomic.Bool
	read       func() (float64, error)
}

// NewSampler builds a sampler that refreshes at most once per interval.
// A non-positive interval defaults to one second.
func NewSampler(interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = time.Second
	}
	s := &Sampler{
		interval: interval,
		read:     readHostRatio,
	}
	// Prime synchronously so the first ShouldAdmit sees real data.
	if r, err := s.read(); err == nil {
		s.ratioBits.Store(math.Float64bits(r))
	}
	s.lastNanos.Store(time.Now().UnixNano())
	return s
}

// Ratio returns the cached pressure ratio, refreshing it in the
// background when stale.
func (s *Sampler) Ratio() float64 {
	now := time.Now().UnixNano()
	if now-s.lastNanos.Load() > int64(s.interval) && s.refreshing.CompareAndSwap(false, true) {
		go func() {
			defer s.refreshing.Store(false)
			if r, err := s.read(); err == nil {
				s.ratioBits.Store(math.Float64bits(r))
			}
			s.lastNanos.Store(time.Now().UnixNano())
		}()
	}
	return math.Float64frombits(s.ratioBits.Load())
}

func readHostRatio() (float64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, err
	}
	return vm.UsedPercent / 100, nil
}
