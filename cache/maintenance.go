package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Scheduler states: Stopped → Running → Stopping → Stopped.
const (
	stateStopped int32 = iota
	stateRunning
	stateStopping
)

// scheduler owns the background maintenance goroutine. It is an explicit
// cancellable handle: stop joins the loop with a bounded wait instead of
// relying on process exit to reap it.
//
// A failure inside one cycle (error or panic) is logged and never stops
// the schedule; the next tick still runs.
type scheduler struct {
	// mu serializes start/stop transitions so the cancel/done handles
	// are always published together with the state they belong to.
	// The state itself stays atomic for lock-free running() checks.
	mu     sync.Mutex
	state  atomic.Int32
	cancel context.CancelFunc
	done   chan struct{}

	cycle func()
	log   *zap.Logger
}

// start transitions Stopped → Running and launches the loop. It is a
// no-op while the scheduler is Running or still Stopping.
func (s *scheduler) start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Load() != stateStopped {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.state.Store(stateRunning)
	go s.loop(ctx, interval, done)
}

// loop owns done: it is passed in (not read from the struct) so that an
// abandoned loop from a previous run can never close a newer handle.
func (s *scheduler) loop(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runCycle()
		}
	}
}

// runCycle isolates one maintenance cycle: a panic is recovered and
// logged as a recoverable error so the recurring schedule survives.
func (s *scheduler) runCycle() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("maintenance cycle panicked", zap.Any("panic", r))
		}
	}()
	s.cycle()
}

// stop transitions Running → Stopping, stops scheduling new cycles, and
// waits up to timeout for an in-flight cycle to finish. Past the timeout
// the cycle is abandoned and the scheduler reports an unclean stop.
// Stopping an already stopped scheduler is a clean no-op.
func (s *scheduler) stop(timeout time.Duration) bool {
	s.mu.Lock()
	if s.state.Load() != stateRunning {
		s.mu.Unlock()
		return true
	}
	s.state.Store(stateStopping)
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()

	clean := true
	select {
	case <-done:
	case <-time.After(timeout):
		clean = false
	}
	s.state.Store(stateStopped)
	return clean
}

// running reports whether the scheduler is currently in the Running state.
func (s *scheduler) running() bool { return s.state.Load() == stateRunning }
