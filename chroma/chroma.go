// Package chroma classifies pixels as foreground either because they are
// colorful or because they are gray but brighter than most of the gray
// pixels of the same frame.
package chroma

import (
	"sort"

	"github.com/chewxy/math32"

	"github.com/nvr-ai/go-busstop/images"
)

// MaxBrightness is the brightness of a white 8-bit pixel.
const MaxBrightness = 3 * 255

// Brightness returns the sum of the three channels, in [0, 765].
func Brightness(px [3]uint8) int {
	return int(px[0]) + int(px[1]) + int(px[2])
}

// ChromaRatio returns the spread between the largest and smallest channel
// share of the pixel's total intensity, in [0, 1]. Gray pixels, black
// included, score 0.
func ChromaRatio(px [3]uint8) float32 {
	sum := float32(Brightness(px))
	if sum == 0 {
		return 0
	}
	a := float32(px[0]) / sum
	b := float32(px[1]) / sum
	c := float32(px[2]) / sum
	return math32.Max(a, math32.Max(b, c)) - math32.Min(a, math32.Min(b, c))
}

// PercentileIndex returns clamp(floor(percentile/100*count), 0, count-1),
// computed exactly in integers.
func PercentileIndex(count, percentile int) int {
	if count <= 0 {
		return 0
	}
	idx := percentile * count / 100
	return max(0, min(idx, count-1))
}

// PercentileCutoff sorts values ascending in place and returns the value at
// PercentileIndex. It returns ErrEmptyInput for an empty slice.
func PercentileCutoff(values []int, percentile int) (int, error) {
	if len(values) == 0 {
		return 0, images.ErrEmptyInput
	}
	sort.Ints(values)
	return values[PercentileIndex(len(values), percentile)], nil
}

// unclassified marks a chromatic pixel in the brightness scratch plane.
const unclassified = -1

// Classify marks chromatic pixels and the brightest achromatic pixels of a
// frame as foreground.
//
// A pixel is chromatic when its ChromaRatio is at least chromaThreshold.
// Achromatic pixels are foreground when their Brightness reaches the
// whitePercentile-th percentile of all achromatic brightness values. The
// scan is row-partitioned across goroutines and the percentile is computed
// only after every partition has finished.
//
// Arguments:
// - frame: Frame in any 3-channel space whose channels are intensities (BGR or RGB).
// - chromaThreshold: Ratio in [0, 1] at or above which a pixel counts as colorful.
// - whitePercentile: Percentile in [0, 100] of achromatic brightness used as cutoff.
//
// Returns:
// - A 0/255 mask with the frame's dimensions, empty for an empty frame.
//
// @example
// mask := Classify(frame, 0.15, 90)
func Classify(frame images.Frame, chromaThreshold float32, whitePercentile int) images.Mask {
	mask := images.NewMask(frame.Width, frame.Height)
	if frame.Empty() {
		return mask
	}

	brightness := make([]int, frame.Len())
	images.Parallel(frame.Height, func(start, end int) {
		for i := start * frame.Width; i < end*frame.Width; i++ {
			j := i * images.Channels
			px := [3]uint8{frame.Pix[j], frame.Pix[j+1], frame.Pix[j+2]}
			if ChromaRatio(px) >= chromaThreshold {
				mask.Pix[i] = 255
				brightness[i] = unclassified
				continue
			}
			brightness[i] = Brightness(px)
		}
	})

	achromatic := make([]int, 0, len(brightness))
	for _, b := range brightness {
		if b != unclassified {
			achromatic = append(achromatic, b)
		}
	}

	cutoff, err := PercentileCutoff(achromatic, whitePercentile)
	if err != nil {
		return mask
	}

	images.Parallel(frame.Height, func(start, end int) {
		for i := start * frame.Width; i < end*frame.Width; i++ {
			if b := brightness[i]; b != unclassified && b >= cutoff {
				mask.Pix[i] = 255
			}
		}
	})

	return mask
}

// Classifier adapts Classify to the integer tuning values supplied by the
// user input collaborator.
type Classifier struct {
	// ThresholdPercent is the chroma threshold multiplied by 100.
	ThresholdPercent int
	// WhitePercentile is the brightness percentile, 0 to 100.
	WhitePercentile int
}

// Name identifies the classifier in results and logs.
func (c Classifier) Name() string { return "chroma" }

// Mask implements the masker interface.
func (c Classifier) Mask(frame images.Frame) (images.Mask, error) {
	if frame.Empty() {
		return images.Mask{}, images.ErrEmptyInput
	}
	return Classify(frame, float32(c.ThresholdPercent)/100, c.WhitePercentile), nil
}
