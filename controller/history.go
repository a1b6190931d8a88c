package controller

import (
	"sync"
	"time"

	"github.com/nvr-ai/go-busstop/images"
)

// Entry is one retained pipeline result.
type Entry struct {
	FrameID   int
	Timestamp time.Time
	Rectified images.Frame
	Ratio     float64
	Sections  []float64
}

// History is a bounded ring buffer of recent results. When full, pushing a
// new entry evicts the oldest one. A History with capacity 0 retains nothing.
type History struct {
	mu      sync.RWMutex
	entries []Entry
	head    int
	size    int
}

// NewHistory creates a History holding at most capacity entries.
func NewHistory(capacity int) *History {
	return &History{entries: make([]Entry, max(capacity, 0))}
}

// Push appends e and reports whether an older entry was evicted.
func (h *History) Push(e Entry) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.entries) == 0 {
		return false
	}

	idx := (h.head + h.size) % len(h.entries)
	evicted := h.size == len(h.entries)
	h.entries[idx] = e
	if evicted {
		h.head = (h.head + 1) % len(h.entries)
	} else {
		h.size++
	}
	return evicted
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.size
}

// Cap returns the maximum number of retained entries.
func (h *History) Cap() int {
	return len(h.entries)
}

// Entries returns the retained entries, oldest first.
func (h *History) Entries() []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Entry, h.size)
	for i := range out {
		out[i] = h.entries[(h.head+i)%len(h.entries)]
	}
	return out
}

// Latest returns the most recent entry.
func (h *History) Latest() (Entry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.size == 0 {
		return Entry{}, false
	}
	return h.entries[(h.head+h.size-1)%len(h.entries)], true
}

// MeanRatio returns the average foreground ratio over the retained entries.
func (h *History) MeanRatio() float64 {
	entries := h.Entries()
	if len(entries) == 0 {
		return 0
	}
	var sum float64
	for _, e := range entries {
		sum += e.Ratio
	}
	return sum / float64(len(entries))
}
