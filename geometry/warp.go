package geometry

import (
	"math"

	"github.com/nvr-ai/go-busstop/images"
)

// snapEpsilon absorbs floating point noise so that integer source
// coordinates sample exactly one pixel.
const snapEpsilon = 1e-9

// Warp produces a width x height frame whose pixel (x, y) is the bilinear
// sample of src at inverse(x, y). Samples falling outside src read 0.
//
// Arguments:
// - src: Source frame. It is not modified.
// - inverse: Transform from destination to source coordinates.
// - width, height: Destination size.
//
// Returns:
// - The warped frame in the color space of src.
//
// @example
// out := Warp(frame, Identity, frame.Width, frame.Height)
func Warp(src images.Frame, inverse Homography, width, height int) images.Frame {
	dst := images.NewFrame(width, height, src.Space)
	if dst.Empty() || src.Empty() {
		return dst
	}

	images.Parallel(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				p, ok := inverse.Apply(Point2D{X: float64(x), Y: float64(y)})
				if !ok {
					continue
				}
				c := bilinear(src, snap(p.X), snap(p.Y))
				dst.Set(x, y, c)
			}
		}
	})

	return dst
}

func snap(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < snapEpsilon {
		return r
	}
	return v
}

// bilinear samples src at a fractional position with a constant 0 border.
func bilinear(src images.Frame, sx, sy float64) [3]uint8 {
	x0 := int(math.Floor(sx))
	y0 := int(math.Floor(sy))
	fx := sx - float64(x0)
	fy := sy - float64(y0)

	if x0 < -1 || y0 < -1 || x0 >= src.Width || y0 >= src.Height {
		return [3]uint8{}
	}

	var acc [3]float64
	taps := [4]struct {
		x, y int
		w    float64
	}{
		{x0, y0, (1 - fx) * (1 - fy)},
		{x0 + 1, y0, fx * (1 - fy)},
		{x0, y0 + 1, (1 - fx) * fy},
		{x0 + 1, y0 + 1, fx * fy},
	}
	for _, t := range taps {
		if t.w == 0 || t.x < 0 || t.y < 0 || t.x >= src.Width || t.y >= src.Height {
			continue
		}
		px := src.At(t.x, t.y)
		acc[0] += float64(px[0]) * t.w
		acc[1] += float64(px[1]) * t.w
		acc[2] += float64(px[2]) * t.w
	}

	return [3]uint8{images.RoundUint8(acc[0]), images.RoundUint8(acc[1]), images.RoundUint8(acc[2])}
}
