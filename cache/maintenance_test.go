package cache

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal(msg)
}

func TestScheduler_RunsCycles(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	s := &scheduler{cycle: func() { cycles.Add(1) }, log: zap.NewNop()}

	s.start(5 * time.Millisecond)
	waitFor(t, func() bool { return cycles.Load() >= 3 }, "scheduler never ticked")
	if !s.stop(time.Second) {
		t.Fatal("stop must be clean")
	}
	if s.running() {
		t.Fatal("state must be Stopped after stop")
	}
}

// start while Running is a no-op: no second loop, no ticker reset.
func TestScheduler_StartTwice(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	s := &scheduler{cycle: func() { cycles.Add(1) }, log: zap.NewNop()}

	s.start(5 * time.Millisecond)
	done := s.done
	s.start(time.Nanosecond) // must not replace the running loop
	if s.done != done {
		t.Fatal("second start must not swap the loop handle")
	}
	s.stop(time.Second)
}

// A panicking cycle is logged and the schedule keeps running.
func TestScheduler_CyclePanicDoesNotStopSchedule(t *testing.T) {
	t.Parallel()

	var cycles atomic.Int64
	s := &scheduler{
		cycle: func() {
			if cycles.Add(1) == 1 {
				panic("cycle blew up")
			}
		},
		log: zap.NewNop(),
	}

	s.start(5 * time.Millisecond)
	waitFor(t, func() bool { return cycles.Load() >= 2 },
		"schedule must survive a panicking cycle")
	s.stop(time.Second)
}

// stop bounds its wait: a cycle that outlives the timeout is abandoned.
func TestScheduler_StopTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	s := &scheduler{
		cycle: func() {
			select {
			case started <- struct{}{}:
			default:
			}
			<-release
		},
		log: zap.NewNop(),
	}

	s.start(time.Millisecond)
	<-started // a cycle is now in flight

	begin := time.Now()
	clean := s.stop(20 * time.Millisecond)
	if clean {
		t.Fatal("stop must report an unclean shutdown")
	}
	if waited := time.Since(begin); waited > time.Second {
		t.Fatalf("stop must respect its timeout, waited %v", waited)
	}
	if s.running() {
		t.Fatal("state must be Stopped even after an abandoned cycle")
	}
	close(release) // let the abandoned goroutine finish
}

// start and stop racing from many goroutines: every stop must observe a
// fully published cancel/done pair for whichever run it joins, so this
// must never panic or strand a loop in the Stopped state.
func TestScheduler_ConcurrentStartStop(t *testing.T) {
	t.Parallel()

	s := &scheduler{cycle: func() {}, log: zap.NewNop()}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.start(time.Millisecond)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.stop(10 * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	s.stop(time.Second)
	if s.running() {
		t.Fatal("scheduler must end Stopped")
	}
}

// Stopping a scheduler that never started is a clean no-op.
func TestScheduler_StopWithoutStart(t *testing.T) {
	t.Parallel()

	s := &scheduler{cycle: func() {}, log: zap.NewNop()}
	if !s.stop(time.Millisecond) {
		t.Fatal("stop on a Stopped scheduler must be clean")
	}
}

// End-to-end: Start drives TTL sweeps without any foreground activity.
func TestCache_BackgroundSweep(t *testing.T) {
	t.Parallel()

	c := New[string](Options[string]{HotMaxSize: 8, Pressure: admitAll})
	t.Cleanup(func() { _ = c.Shutdown() })

	c.PutWithTTL("tmp", "v", 30*time.Millisecond)
	c.Start(10 * time.Millisecond)

	waitFor(t, func() bool { return c.Stats().ColdSize == 0 },
		"background sweep never reclaimed the expired record")
	if _, ok := c.Get("tmp"); ok {
		t.Fatal("expired entry must miss")
	}
}
