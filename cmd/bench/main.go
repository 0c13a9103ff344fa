// Command bench runs a synthetic workload against the tiered cache and
// exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tiercache/tiercache/cache"
	"github.com/tiercache/tiercache/cold"
	pmet "github.com/tiercache/tiercache/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		hotCap    = flag.Int("hot", 100_000, "hot tier capacity (entries)")
		coldCap   = flag.Int("cold", 1_000_000, "cold tier capacity (entries, 0=unbounded)")
		shards    = flag.Int("shards", 0, "number of hot shards (0=auto)")
		backend   = flag.String("backend", "memory", "cold backend: memory | bolt")
		boltPath  = flag.String("bolt_path", "", "bbolt file (default: temp dir)")
		threshold = flag.Float64("threshold", 0.8, "admission pressure threshold")
		interval  = flag.Duration("interval", 5*time.Second, "maintenance interval")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")
		readPct  = flag.Int("reads", 80, "read percentage [0..100]")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		preload = flag.Int("preload", 0, "preload entries (0 = hot/2)")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "tiercache", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	// ---- Build cache ----
	opt := cache.Options[string]{
		HotMaxSize:        *hotCap,
		HotShards:         *shards,
		ColdMaxSize:       *coldCap,
		PressureThreshold: *threshold,
		Metrics:           metrics,
	}
	if *backend == "bolt" {
		path := *boltPath
		if path == "" {
			path = filepath.Join(os.TempDir(), fmt.Sprintf("tiercache-bench-%d.db", os.Getpid()))
			defer os.Remove(path)
		}
		store, err := cold.OpenBolt(path, *coldCap)
		if err != nil {
			log.Fatalf("open bolt store: %v", err)
		}
		opt.Cold = store
	}
	c := cache.New[string](opt)
	defer func() { _ = c.Shutdown() }()
	c.Start(*interval)

	// ---- Preload half the hot capacity to get a realistic hit-rate ----
	pl := *preload
	if pl == 0 {
		pl = *hotCap / 2
	}
	for i := 0; i < pl; i++ {
		k := "k:" + strconv.Itoa(i)
		c.Put(k, "v"+strconv.Itoa(i))
	}

	// ---- Snapshot flags for goroutines ----
	readPctVal := *readPct
	keysMax := uint64(*keys - 1)
	seedBase := *seed
	zipfSVal := *zipfS
	zipfVVal := *zipfV
	workersN := *workers
	if workersN <= 0 {
		workersN = 1
	}

	// ---- Load generation ----
	var reads, writes, hits, misses, total uint64
	ctx, cancel := context.WithTimeout(context.Background(), *duration)
	defer cancel()

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workersN)
	for w := 0; w < workersN; w++ {
		go func(id int) {
			defer wg.Done()

			// Each worker gets its own RNG + Zipf (rand.Rand is NOT goroutine-safe).
			localR := rand.New(rand.NewSource(seedBase + int64(id)*9973))
			localZipf := rand.NewZipf(localR, zipfSVal, zipfVVal, keysMax)

			keyByZipf := func() string {
				return "k:" + strconv.FormatUint(localZipf.Uint64(), 10)
			}

			for {
				select {
				case <-ctx.Done():
					return
				default:
				}

				atomic.AddUint64(&total, 1)
				if int(localR.Int31n(100)) < readPctVal {
					atomic.AddUint64(&reads, 1)
					if _, ok := c.Get(keyByZipf()); ok {
						atomic.AddUint64(&hits, 1)
					} else {
						atomic.AddUint64(&misses, 1)
					}
				} else {
					atomic.AddUint64(&writes, 1)
					k := keyByZipf()
					c.Put(k, "v"+strconv.Itoa(localR.Int()))
				}
			}
		}(w)
	}
	wg.Wait()
	elapsed := time.Since(start)

	// ---- Report ----
	ops := atomic.LoadUint64(&total)
	readsN := atomic.LoadUint64(&reads)
	writesN := atomic.LoadUint64(&writes)
	hitsN := atomic.LoadUint64(&hits)
	missesN := atomic.LoadUint64(&misses)

	hitRate := 0.0
	if readsN > 0 {
		hitRate = float64(hitsN) / float64(readsN) * 100
	}

	fmt.Printf("backend=%s hot=%d cold=%d shards=%d workers=%d keys=%d dur=%v seed=%d\n",
		*backend, *hotCap, *coldCap, *shards, workersN, *keys, elapsed, seedBase)
	fmt.Printf("ops=%d (%.0f ops/s)  reads=%d  writes=%d\n",
		ops, float64(ops)/elapsed.Seconds(), readsN, writesN)
	fmt.Printf("hits=%d  misses=%d  hit-rate=%.2f%%\n", hitsN, missesN, hitRate)

	s := c.Stats()
	fmt.Printf("tiers: hot=%d cold=%d  hot-hits=%d cold-hits=%d evictions=%d\n",
		s.HotSize, s.ColdSize, s.HotHits, s.ColdHits, s.Evictions)
}
