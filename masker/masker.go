// Package masker separates road-like background from foreground candidates
// with color range tests. Every variant shares one post-processing chain:
// the raw background mask is inverted, painted white onto a black frame,
// smoothed with an edge-preserving bilateral filter, reduced to gray and
// binarized.
package masker

import (
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/estimator"
	"github.com/nvr-ai/go-busstop/images"
)

// Bilateral filter parameters of the post-processing chain.
const (
	SigmaColor = 10.0
	SigmaSpace = 5.0
)

// Masker produces a foreground mask for a BGR frame.
type Masker interface {
	// Name identifies the variant in results and logs.
	Name() string
	// Mask returns a mask with the dimensions of frame.
	Mask(frame images.Frame) (images.Mask, error)
}

// ColorRange is an inclusive per-channel range in a given color space.
type ColorRange struct {
	Space images.ColorSpace
	Lower estimator.Bounds
	Upper estimator.Bounds
}

// Contains reports whether every channel of px lies inside the range.
func (r ColorRange) Contains(px [3]uint8) bool {
	for c := 0; c < 3; c++ {
		v := float64(px[c])
		if v < r.Lower[c] || v > r.Upper[c] {
			return false
		}
	}
	return true
}

// Default ranges describing low-saturation, dark pavement.
var (
	DefaultHSVRange = ColorRange{
		Space: images.SpaceHSV,
		Lower: estimator.Bounds{0, 0, 0},
		Upper: estimator.Bounds{180, 60, 100},
	}
	DefaultLabRange = ColorRange{
		Space: images.SpaceLab,
		Lower: estimator.Bounds{0, 118, 118},
		Upper: estimator.Bounds{130, 138, 138},
	}
)

// MaskByRange marks as foreground every pixel whose color, converted to
// space, falls outside [lower, upper].
//
// Arguments:
// - frame: BGR or RGB frame. It is not modified.
// - space: Color space the bounds are expressed in.
// - lower, upper: Inclusive per-channel bounds of the background color.
//
// Returns:
// - A 0/255 mask with the frame's dimensions.
// - ErrEmptyInput for an empty frame, or a conversion error.
//
// @example
// mask, err := MaskByRange(frame, images.SpaceHSV, estimator.Bounds{0, 0, 0}, estimator.Bounds{180, 60, 100})
func MaskByRange(frame images.Frame, space images.ColorSpace, lower, upper estimator.Bounds) (images.Mask, error) {
	converted, err := images.Convert(frame, space)
	if err != nil {
		return images.Mask{}, errors.Wrapf(err, "mask by %s range", space)
	}
	return Finish(InRange(converted, ColorRange{Space: space, Lower: lower, Upper: upper})), nil
}

// InRange returns the raw background mask of a frame that is already in the
// range's color space: 255 where the pixel is inside the range.
func InRange(f images.Frame, r ColorRange) images.Mask {
	m := images.NewMask(f.Width, f.Height)
	if m.Empty() {
		return m
	}
	images.Parallel(f.Height, func(start, end int) {
		for i := start * f.Width; i < end*f.Width; i++ {
			j := i * images.Channels
			if r.Contains([3]uint8{f.Pix[j], f.Pix[j+1], f.Pix[j+2]}) {
				m.Pix[i] = 255
			}
		}
	})
	return m
}

// Finish turns a raw background mask into the final foreground mask.
func Finish(background images.Mask) images.Mask {
	if background.Empty() {
		return images.Mask{}
	}
	painted := background.Invert().ToFrame()
	smoothed := images.BilateralFilter(painted, -1, SigmaColor, SigmaSpace)
	return images.MaskFromGray(images.Grayscale(smoothed))
}
