package metrics

import (
	"runtime"
	"time"
)

// DefaultRuntimeInterval is how often CollectRuntime samples the Go
// runtime when the caller has no preference.
const DefaultRuntimeInterval = 15 * time.Second

// CollectRuntime starts a background sampler that exports Go runtime
// stats as gauges under the given prefix. It returns immediately.
func (r *Registry) CollectRuntime(prefix string, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultRuntimeInterval
	}
	goroutines := r.Gauge(prefix+"_goroutines", "Number of live goroutines")
	heapAlloc := r.Gauge(prefix+"_heap_alloc_bytes", "Bytes of allocated heap objects")
	heapSys := r.Gauge(prefix+"_heap_sys_bytes", "Bytes of heap obtained from the OS")
	gcRuns := r.Gauge(prefix+"_gc_runs", "Completed GC cycles")

	sample := func() {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		goroutines.Set(int64(runtime.NumGoroutine()))
		heapAlloc.Set(int64(ms.HeapAlloc))
		heapSys.Set(int64(ms.HeapSys))
		gcRuns.Set(int64(ms.NumGC))
	}

	sample()
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			sample()
		}
	}()
}
