package images

import "github.com/pkg/errors"

// MaskIoU measures how much the set pixels of two masks overlap, as
// Intersection over Union:
//
//	IoU = |a AND b| / |a OR b|
//
// A value of 1 means both masks mark exactly the same pixels, 0 means they
// share none. Two masks with no set pixels at all are considered identical
// and score 1.
//
// Arguments:
//   - a: The first mask.
//   - b: The second mask, with the same dimensions as a.
//
// Returns:
//   - float64: The IoU score in [0, 1].
//   - error: An error if the masks differ in size.
//
// Example Usage:
// ```go
//
//	score, err := images.MaskIoU(hsvMask, chromaMask)
//
// ```
func MaskIoU(a, b Mask) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height || len(a.Pix) != len(b.Pix) {
		return 0, errors.Errorf("mask sizes differ: %dx%d vs %dx%d", a.Width, a.Height, b.Width, b.Height)
	}

	var inter, union int
	for i, v := range a.Pix {
		av, bv := v != 0, b.Pix[i] != 0
		if av && bv {
			inter++
		}
		if av || bv {
			union++
		}
	}
	if union == 0 {
		return 1, nil
	}
	return float64(inter) / float64(union), nil
}
