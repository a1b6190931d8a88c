// Package estimator derives per-frame color bounds from the statistics of the
// frame itself, so that fixed thresholds follow changes in lighting.
package estimator

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/images"
)

// Bounds is an inclusive per-channel lower or upper limit.
type Bounds [3]float64

// Reference is the channel level at which bounds are used unscaled.
const Reference = 128.0

// ChannelMeans returns the mean of each channel over every pixel of f.
//
// Sums are accumulated in zeroed 64-bit counters, which cannot overflow for
// any frame that fits in memory.
//
// Returns:
// - The three means, or ErrEmptyInput when f has no pixels.
func ChannelMeans(f images.Frame) ([3]float64, error) {
	if f.Empty() {
		return [3]float64{}, images.ErrEmptyInput
	}

	var sums [3]uint64
	n := f.Len()
	for i := 0; i < n*images.Channels; i += images.Channels {
		sums[0] += uint64(f.Pix[i])
		sums[1] += uint64(f.Pix[i+1])
		sums[2] += uint64(f.Pix[i+2])
	}

	return [3]float64{
		float64(sums[0]) / float64(n),
		float64(sums[1]) / float64(n),
		float64(sums[2]) / float64(n),
	}, nil
}

// EstimateRange scales the saturation and value bounds of an HSV range by the
// frame's mean saturation and value relative to Reference. Hue is never
// scaled because it is an angle, not an intensity.
//
// Arguments:
// - hsv: Frame in images.SpaceHSV.
// - absLower, absUpper: Bounds chosen for a frame at reference brightness.
//
// Returns:
// - The scaled lower and upper bounds.
// - ErrEmptyInput with the absolute bounds unchanged when hsv has no pixels.
//
// @example
// lower, upper, err := EstimateRange(hsv, Bounds{0, 0, 0}, Bounds{180, 60, 100})
func EstimateRange(hsv images.Frame, absLower, absUpper Bounds) (Bounds, Bounds, error) {
	if !hsv.Empty() && hsv.Space != images.SpaceHSV {
		return absLower, absUpper, errors.Errorf("estimate range: expected hsv frame, got %s", hsv.Space)
	}
	return scale(hsv, absLower, absUpper, 1, 2)
}

// EstimateLabRange scales the lightness bound of a Lab range by the frame's
// mean lightness relative to Reference and leaves the a and b bounds as they
// are.
func EstimateLabRange(lab images.Frame, absLower, absUpper Bounds) (Bounds, Bounds, error) {
	if !lab.Empty() && lab.Space != images.SpaceLab {
		return absLower, absUpper, errors.Errorf("estimate lab range: expected lab frame, got %s", lab.Space)
	}
	return scale(lab, absLower, absUpper, 0)
}

func scale(f images.Frame, absLower, absUpper Bounds, channels ...int) (Bounds, Bounds, error) {
	means, err := ChannelMeans(f)
	if err != nil {
		return absLower, absUpper, err
	}

	lower, upper := absLower, absUpper
	for _, c := range channels {
		factor := means[c] / Reference
		lower[c] = absLower[c] * factor
		upper[c] = absUpper[c] * factor
	}

	return lower, upper, nil
}
