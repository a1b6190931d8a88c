package controller

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-busstop/images"
)

func TestHistoryEvictsOldest(t *testing.T) {
	h := NewHistory(3)
	assert.Equal(t, 3, h.Cap())

	for i := 0; i < 3; i++ {
		assert.False(t, h.Push(Entry{FrameID: i, Ratio: float64(i)}))
	}
	assert.True(t, h.Push(Entry{FrameID: 3, Ratio: 3}))
	assert.True(t, h.Push(Entry{FrameID: 4, Ratio: 4}))

	require.Equal(t, 3, h.Len())
	entries := h.Entries()
	assert.Equal(t, []int{2, 3, 4}, []int{entries[0].FrameID, entries[1].FrameID, entries[2].FrameID})

	latest, ok := h.Latest()
	require.True(t, ok)
	assert.Equal(t, 4, latest.FrameID)
	assert.InDelta(t, 3.0, h.MeanRatio(), 1e-12)
}

func TestHistoryDisabled(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		h := NewHistory(capacity)
		assert.False(t, h.Push(Entry{FrameID: 1}))
		assert.Equal(t, 0, h.Len())
		assert.Empty(t, h.Entries())
		_, ok := h.Latest()
		assert.False(t, ok)
		assert.Equal(t, 0.0, h.MeanRatio())
	}
}

func TestSectionBounds(t *testing.T) {
	b := SectionBounds(10, 4, 3)
	require.Len(t, b, 3)
	assert.Equal(t, image.Rect(0, 0, 3, 4), b[0])
	assert.Equal(t, image.Rect(3, 0, 6, 4), b[1])
	assert.Equal(t, image.Rect(6, 0, 10, 4), b[2])

	assert.Nil(t, SectionBounds(10, 4, 0))
	assert.Nil(t, SectionBounds(0, 4, 3))
}

func TestSectionRatios(t *testing.T) {
	m := images.NewMask(6, 2)
	for y := 0; y < 2; y++ {
		m.Set(0, y, true)
		m.Set(1, y, true)
		m.Set(4, y, true)
	}
	m.Set(5, 0, true)

	assert.Equal(t, []float64{1, 0, 0.75}, SectionRatios(m, 3))
	assert.Nil(t, SectionRatios(images.Mask{}, 3))
}
