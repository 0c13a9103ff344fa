package cache

import (
	"math/rand"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// A mixed workload of concurrent Put/Get/PutWithTTL/Remove on random
// keys, with background maintenance running throughout. Should pass
// under `-race` without detector reports.
func TestRace_Basic(t *testing.T) {
	c := New[[]byte](Options[[]byte]{
		HotMaxSize: 8_192,
		HotShards:  32,
		Pressure:   admitAll,
	})
	t.Cleanup(func() { _ = c.Shutdown() })
	c.Start(10 * time.Millisecond)

	workers := 4 * runtime.GOMAXPROCS(0)
	keyspace := 50_000
	deadline := time.Now().Add(2 * time.Second)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(id int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)*9973))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.Itoa(r.Intn(keyspace))
				switch r.Intn(100) {
				case 0, 1, 2, 3, 4: // ~5% — Remove
					c.Remove(k)
				case 5, 6, 7, 8, 9: // ~5% — PutWithTTL
					c.PutWithTTL(k, []byte("x"), time.Duration(10+r.Intn(20))*time.Millisecond)
				case 10, 11, 12, 13, 14, 15, 16, 17, 18, 19: // ~10% — Put
					c.Put(k, []byte("x"))
				default: // ~80% — Get
					c.Get(k)
				}
			}
		}(w)
	}
	wg.Wait()
}

// Concurrent readers and writers on one key, racing a pressure source
// that flips between calm and pressured. Exercises the gated promotion
// path against trims.
func TestRace_PressureFlips(t *testing.T) {
	var pressured atomic.Bool

	c := New[string](Options[string]{
		HotMaxSize: 64,
		Pressure: func() float64 {
			if pressured.Load() {
				return 0.95
			}
			return 0.1
		},
	})
	t.Cleanup(func() { _ = c.Shutdown() })
	c.Start(5 * time.Millisecond)

	deadline := time.Now().Add(time.Second)
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		for on := false; time.Now().Before(deadline); on = !on {
			pressured.Store(on)
			time.Sleep(time.Millisecond)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; time.Now().Before(deadline); i++ {
			c.Put("hotkey", "v"+strconv.Itoa(i))
		}
	}()
	go func() {
		defer wg.Done()
		for time.Now().Before(deadline) {
			c.Get("hotkey")
		}
	}()
	wg.Wait()
}
