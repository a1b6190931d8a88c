package images

import (
	"math"

	"github.com/nvr-ai/go-busstop/images/kernels"
)

// BilateralFilter smooths a 3-channel frame while preserving edges.
//
// Each output pixel is the average of its neighbours inside a circular window,
// weighted by spatial distance and by the summed absolute channel difference
// to the centre pixel. Borders are sampled with reflect-101. Channel order is
// irrelevant, so any color space may be filtered.
//
// Arguments:
// - f: Source frame.
// - d: Window diameter. Values <= 0 derive the radius from sigmaSpace as round(1.5*sigmaSpace).
// - sigmaColor: Color-difference standard deviation.
// - sigmaSpace: Spatial standard deviation in pixels.
//
// Returns:
// - A new filtered frame in the same color space.
//
// @example
// smooth := BilateralFilter(frame, 0, 10, 5)
func BilateralFilter(f Frame, d int, sigmaColor, sigmaSpace float64) Frame {
	if f.Empty() {
		return Frame{Space: f.Space}
	}
	if sigmaColor <= 0 {
		sigmaColor = 1
	}
	if sigmaSpace <= 0 {
		sigmaSpace = 1
	}

	radius := d / 2
	if d <= 0 {
		radius = int(math.Round(sigmaSpace * 1.5))
	}
	radius = max(radius, 1)

	colorCoeff := -0.5 / (sigmaColor * sigmaColor)
	spaceCoeff := -0.5 / (sigmaSpace * sigmaSpace)

	colorWeight := make([]float64, 256*Channels)
	for i := range colorWeight {
		colorWeight[i] = math.Exp(float64(i*i) * colorCoeff)
	}

	type tap struct {
		dx, dy int
		w      float64
	}
	taps := make([]tap, 0, (2*radius+1)*(2*radius+1))
	for dy := -radius; dy <= radius; dy++ {
		for dx := -radius; dx <= radius; dx++ {
			r := math.Sqrt(float64(dx*dx + dy*dy))
			if r > float64(radius) {
				continue
			}
			taps = append(taps, tap{dx: dx, dy: dy, w: math.Exp(r * r * spaceCoeff)})
		}
	}

	out := NewFrame(f.Width, f.Height, f.Space)
	Parallel(f.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < f.Width; x++ {
				i := f.PixOffset(x, y)
				c0, c1, c2 := int(f.Pix[i]), int(f.Pix[i+1]), int(f.Pix[i+2])

				var s0, s1, s2, wsum float64
				for _, t := range taps {
					sx := kernels.MapCoord(x+t.dx, f.Width, kernels.EdgeReflect101)
					sy := kernels.MapCoord(y+t.dy, f.Height, kernels.EdgeReflect101)
					j := f.PixOffset(sx, sy)
					n0, n1, n2 := int(f.Pix[j]), int(f.Pix[j+1]), int(f.Pix[j+2])

					w := t.w * colorWeight[absInt(n0-c0)+absInt(n1-c1)+absInt(n2-c2)]
					s0 += float64(n0) * w
					s1 += float64(n1) * w
					s2 += float64(n2) * w
					wsum += w
				}

				out.Pix[i] = RoundUint8(s0 / wsum)
				out.Pix[i+1] = RoundUint8(s1 / wsum)
				out.Pix[i+2] = RoundUint8(s2 / wsum)
			}
		}
	})

	return out
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
