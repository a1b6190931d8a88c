// Package profiler tracks per-stage timings and per-frame metrics of the
// pipeline and reports them periodically through the structured logger.
package profiler

import (
	"context"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Profiler collects rolling statistics. All methods are safe for concurrent
// use and a nil *Profiler ignores every call.
type Profiler struct {
	log            *slog.Logger
	reportInterval time.Duration
	maxSamples     int

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	startTime time.Time
	running   bool

	metrics map[string]*series
	stages  map[string]*series
}

// series keeps the most recent samples of one metric or stage.
type series struct {
	values []float64
	sum    float64
	min    float64
	max    float64
	count  int64
}

func (s *series) add(v float64, maxSamples int) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.values = append(s.values, v)
	s.sum += v
	if len(s.values) > maxSamples {
		s.sum -= s.values[0]
		s.values = s.values[1:]
	}
	s.count++
}

func (s *series) stats() Stats {
	st := Stats{Min: s.min, Max: s.max, Count: s.count, Samples: len(s.values)}
	if len(s.values) > 0 {
		st.Avg = s.sum / float64(len(s.values))
	}
	return st
}

// Stats summarizes a series. Avg covers the retained samples, Min, Max and
// Count cover every recorded value.
type Stats struct {
	Avg     float64
	Min     float64
	Max     float64
	Count   int64
	Samples int
}

// Options configures a Profiler.
type Options struct {
	// ReportInterval specifies how often to emit status reports (default: 5s).
	ReportInterval time.Duration
	// MaxSamples bounds the samples kept per series (default: 300).
	MaxSamples int
}

// New creates a profiler that reports through log.
//
// Arguments:
// - log: Destination of periodic reports. nil uses slog.Default().
// - opts: Report interval and sample retention.
//
// Returns:
// - A stopped Profiler. Call Start to enable periodic reports.
func New(log *slog.Logger, opts Options) *Profiler {
	if log == nil {
		log = slog.Default()
	}
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 5 * time.Second
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 300
	}

	return &Profiler{
		log:            log.With("component", "profiler"),
		reportInterval: opts.ReportInterval,
		maxSamples:     opts.MaxSamples,
		startTime:      time.Now(),
		metrics:        make(map[string]*series),
		stages:         make(map[string]*series),
	}
}

// Start begins emitting periodic reports until Stop is called.
func (p *Profiler) Start() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}
	p.running = true
	p.startTime = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.Report()
			}
		}
	}()
}

// Stop halts periodic reports and waits for the reporter to exit.
func (p *Profiler) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel := p.cancel
	p.mu.Unlock()

	cancel()
	p.wg.Wait()
}

// StartStage begins timing a pipeline stage.
//
// Returns:
// - A function to call when the stage completes.
//
// @example
// done := prof.StartStage("rectify")
// r := geometry.Rectify(frame, quad)
// done()
func (p *Profiler) StartStage(name string) func() {
	if p == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.RecordStage(name, time.Since(start))
	}
}

// RecordStage records one completed execution of a stage.
func (p *Profiler) RecordStage(name string, d time.Duration) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series(p.stages, name).add(float64(d), p.maxSamples)
}

// RecordMetric records a metric value, such as a foreground ratio.
func (p *Profiler) RecordMetric(name string, value float64) {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.series(p.metrics, name).add(value, p.maxSamples)
}

func (p *Profiler) series(m map[string]*series, name string) *series {
	s, ok := m[name]
	if !ok {
		s = &series{values: make([]float64, 0, p.maxSamples)}
		m[name] = s
	}
	return s
}

// Snapshot is a copy of the profiler state.
type Snapshot struct {
	Uptime  time.Duration
	Stages  map[string]Stats
	Metrics map[string]Stats
}

// Snapshot returns the current statistics. Stage values are nanoseconds.
func (p *Profiler) Snapshot() Snapshot {
	if p == nil {
		return Snapshot{Stages: map[string]Stats{}, Metrics: map[string]Stats{}}
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		Uptime:  time.Since(p.startTime),
		Stages:  make(map[string]Stats, len(p.stages)),
		Metrics: make(map[string]Stats, len(p.metrics)),
	}
	for name, s := range p.stages {
		snap.Stages[name] = s.stats()
	}
	for name, s := range p.metrics {
		snap.Metrics[name] = s.stats()
	}
	return snap
}

// Report logs one line per stage and metric plus a runtime summary.
func (p *Profiler) Report() {
	if p == nil {
		return
	}
	snap := p.Snapshot()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	p.log.Info("status report",
		"uptime", snap.Uptime.Truncate(time.Millisecond),
		"goroutines", runtime.NumGoroutine(),
		"heap_alloc", mem.HeapAlloc,
		"gc_cycles", mem.NumGC,
	)

	for _, name := range sortedKeys(snap.Stages) {
		st := snap.Stages[name]
		p.log.Info("stage timing",
			"stage", name,
			"avg", time.Duration(st.Avg).Truncate(time.Microsecond),
			"min", time.Duration(st.Min).Truncate(time.Microsecond),
			"max", time.Duration(st.Max).Truncate(time.Microsecond),
			"count", st.Count,
		)
	}
	for _, name := range sortedKeys(snap.Metrics) {
		st := snap.Metrics[name]
		p.log.Info("metric",
			"metric", name,
			"avg", st.Avg,
			"min", st.Min,
			"max", st.Max,
			"count", st.Count,
		)
	}
}

func sortedKeys(m map[string]Stats) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
