package controller

import (
	"image"

	"github.com/nvr-ai/go-busstop/images"
)

// SectionBounds splits a width x height region into n vertical strips of
// near-equal width, left to right.
func SectionBounds(width, height, n int) []image.Rectangle {
	if n <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	out := make([]image.Rectangle, n)
	for i := 0; i < n; i++ {
		out[i] = image.Rect(i*width/n, 0, (i+1)*width/n, height)
	}
	return out
}

// SectionRatios returns the foreground fraction of each of n vertical strips
// of m.
func SectionRatios(m images.Mask, n int) []float64 {
	bounds := SectionBounds(m.Width, m.Height, n)
	if bounds == nil {
		return nil
	}
	out := make([]float64, len(bounds))
	for i, b := range bounds {
		out[i] = m.RegionRatio(b)
	}
	return out
}
