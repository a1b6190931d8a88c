// Package input owns the state the user edits while the pipeline runs: the
// platform quadrilateral and the two classifier tuning values. The pipeline
// only ever reads snapshots of it.
package input

import (
	"sync"

	"github.com/nvr-ai/go-busstop/geometry"
)

// Tuning holds the classifier parameters as integers in [0, 100].
type Tuning struct {
	// ChromaPercent is the chroma threshold multiplied by 100.
	ChromaPercent int `yaml:"chroma_percent"`
	// WhitePercentile is the achromatic brightness percentile.
	WhitePercentile int `yaml:"white_percentile"`
}

// DefaultTuning matches a chroma threshold of 0.15 and the 90th percentile.
var DefaultTuning = Tuning{ChromaPercent: 15, WhitePercentile: 90}

// Clamped returns the tuning with both values limited to [0, 100].
func (t Tuning) Clamped() Tuning {
	return Tuning{ChromaPercent: clamp(t.ChromaPercent), WhitePercentile: clamp(t.WhitePercentile)}
}

func clamp(v int) int {
	return max(0, min(v, 100))
}

// Collector accumulates quadrilateral corners and tuning values. It is safe
// for concurrent use so UI callbacks may run on their own goroutine.
type Collector struct {
	mu     sync.RWMutex
	points geometry.Quadrilateral
	tuning Tuning
}

// NewCollector returns a collector with no points and the given tuning.
func NewCollector(tuning Tuning) *Collector {
	return &Collector{tuning: tuning.Clamped()}
}

// AddPoint records a corner. Once four corners are held, the next click
// clears the collection instead of being recorded, so the user starts over.
//
// The bundled window has no mouse callback and seeds corners through
// SetPoints. AddPoint is the entry point for embedding UIs that do deliver
// clicks.
//
// Returns:
// - The number of points held after the call.
func (c *Collector) AddPoint(p geometry.Point2D) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.points) >= 4 {
		c.points = nil
		return 0
	}
	c.points = append(c.points, p)
	return len(c.points)
}

// SetPoints replaces the collection, keeping at most the first four points.
func (c *Collector) SetPoints(points []geometry.Point2D) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(points) > 4 {
		points = points[:4]
	}
	c.points = append(geometry.Quadrilateral(nil), points...)
}

// Reset discards every collected point.
func (c *Collector) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.points = nil
}

// Quad returns a snapshot of the collected points.
func (c *Collector) Quad() geometry.Quadrilateral {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.points.Clone()
}

// SetTuning stores both tuning values, clamped to [0, 100].
func (c *Collector) SetTuning(t Tuning) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tuning = t.Clamped()
}

// SetChromaPercent updates the chroma threshold alone.
func (c *Collector) SetChromaPercent(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tuning.ChromaPercent = clamp(v)
}

// SetWhitePercentile updates the brightness percentile alone.
func (c *Collector) SetWhitePercentile(v int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tuning.WhitePercentile = clamp(v)
}

// Tuning returns a snapshot of the tuning values.
func (c *Collector) Tuning() Tuning {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tuning
}
