package profiler

import (
	"runtime"
	"time"

	"github.com/Carmen-Shannon/oxy-trace/common"
)

// Sample is one frame's worth of synchronization counters.
type Sample struct {
	Applied   int
	Discarded int
	Launched  int
	Running   int
	Instances int
	Sync      time.Duration
}

// Report aggregates the samples of one interval.
type Report struct {
	FPS         float64
	Frames      int
	Applied     int
	Discarded   int
	Launched    int
	Running     int
	Instances   int
	MaxSync     time.Duration
	AvgSync     time.Duration
	HeapMB      float64
	AllocRateMB float64
	GCCount     uint32
}

// Profiler tracks frame rate, build throughput and memory statistics.
// Outputs a report to the engine logger at a configurable interval.
type Profiler struct {
	frameCount     int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastTotalAlloc uint64
	now            func() time.Time

	acc  Report
	sync time.Duration
	last Report
}

// NewProfiler creates a new Profiler. The update interval defaults to 1 second.
//
// Parameters:
//   - options: functional options
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler(options ...ProfilerBuilderOption) *Profiler {
	p := &Profiler{
		updateInterval: time.Second,
		now:            time.Now,
	}
	for _, opt := range options {
		opt(p)
	}
	p.lastTime = p.now()
	return p
}

// Tick should be called once per frame with that frame's counters.
// Logs a report when the update interval has elapsed.
//
// Parameters:
//   - s: the frame's sample
//
// Returns:
//   - bool: true if a report was logged this tick
func (p *Profiler) Tick(s Sample) bool {
	p.frameCount++
	p.acc.Applied += s.Applied
	p.acc.Discarded += s.Discarded
	p.acc.Launched += s.Launched
	p.acc.Running = s.Running
	p.acc.Instances = s.Instances
	p.sync += s.Sync
	if s.Sync > p.acc.MaxSync {
		p.acc.MaxSync = s.Sync
	}

	currentTime := p.now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	runtime.ReadMemStats(&p.memStats)
	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc

	r := p.acc
	r.Frames = p.frameCount
	r.FPS = float64(p.frameCount) / elapsed.Seconds()
	r.AvgSync = p.sync / time.Duration(p.frameCount)
	r.HeapMB = float64(p.memStats.Alloc) / 1024 / 1024
	r.AllocRateMB = float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()
	r.GCCount = p.memStats.NumGC

	common.Logger().Info("profiler",
		"fps", r.FPS, "applied", r.Applied, "discarded", r.Discarded, "launched", r.Launched,
		"running", r.Running, "instances", r.Instances, "sync_avg", r.AvgSync, "sync_max", r.MaxSync,
		"heap_mb", r.HeapMB, "alloc_mb_s", r.AllocRateMB, "gc", r.GCCount)

	p.last = r
	p.acc = Report{}
	p.sync = 0
	p.frameCount = 0
	p.lastTime = currentTime
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}

// Last returns the most recently logged report.
func (p *Profiler) Last() Report {
	return p.last
}
