package masker

import (
	"image"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/estimator"
	"github.com/nvr-ai/go-busstop/images"
	"github.com/nvr-ai/go-busstop/images/kernels"
)

// Fixed masks with a constant color range.
type Fixed struct {
	Range ColorRange
}

// FixedHSV returns a Fixed masker over the default HSV pavement range.
func FixedHSV() *Fixed { return &Fixed{Range: DefaultHSVRange} }

// FixedLab returns a Fixed masker over the default Lab pavement range.
func FixedLab() *Fixed { return &Fixed{Range: DefaultLabRange} }

// Name implements Masker.
func (m *Fixed) Name() string { return "fixed_" + m.Range.Space.String() }

// Mask implements Masker.
func (m *Fixed) Mask(frame images.Frame) (images.Mask, error) {
	return MaskByRange(frame, m.Range.Space, m.Range.Lower, m.Range.Upper)
}

// Adaptive rescales its absolute range by the frame's own channel means
// before masking. HSV ranges scale saturation and value; Lab ranges scale
// lightness.
type Adaptive struct {
	Absolute ColorRange
}

// AdaptiveHSV returns an Adaptive masker seeded with the default HSV range.
func AdaptiveHSV() *Adaptive { return &Adaptive{Absolute: DefaultHSVRange} }

// AdaptiveLab returns an Adaptive masker seeded with the default Lab range.
func AdaptiveLab() *Adaptive { return &Adaptive{Absolute: DefaultLabRange} }

// Name implements Masker.
func (m *Adaptive) Name() string { return "adaptive_" + m.Absolute.Space.String() }

// Range returns the bounds Mask would use for frame. When the frame has no
// pixels the absolute bounds are returned together with ErrEmptyInput.
func (m *Adaptive) Range(converted images.Frame) (ColorRange, error) {
	estimate := estimator.EstimateRange
	if m.Absolute.Space == images.SpaceLab {
		estimate = estimator.EstimateLabRange
	}
	lower, upper, err := estimate(converted, m.Absolute.Lower, m.Absolute.Upper)
	return ColorRange{Space: m.Absolute.Space, Lower: lower, Upper: upper}, err
}

// Mask implements Masker.
func (m *Adaptive) Mask(frame images.Frame) (images.Mask, error) {
	if m.Absolute.Space != images.SpaceHSV && m.Absolute.Space != images.SpaceLab {
		return images.Mask{}, errors.Errorf("adaptive masker: unsupported space %s", m.Absolute.Space)
	}

	converted, err := images.Convert(frame, m.Absolute.Space)
	if err != nil {
		return images.Mask{}, errors.Wrapf(err, "%s", m.Name())
	}

	r, err := m.Range(converted)
	if err != nil {
		if !errors.Is(err, images.ErrEmptyInput) {
			return images.Mask{}, errors.Wrapf(err, "%s", m.Name())
		}
		r = m.Absolute
	}

	return Finish(InRange(converted, r)), nil
}

// LocalMethod selects how the neighbourhood mean is weighted.
type LocalMethod int

const (
	// LocalMean weighs every pixel of the block equally.
	LocalMean LocalMethod = iota
	// LocalGaussian weighs the block with a Gaussian centred on the pixel.
	LocalGaussian
)

// Local thresholding defaults.
const (
	DefaultBlockSize = 11
	DefaultBias      = 2
)

// Local compares each gray pixel against the mean of its BlockSize x
// BlockSize neighbourhood. Pixels that are not at least Bias darker than
// their neighbourhood count as background.
type Local struct {
	Method    LocalMethod
	BlockSize int
	Bias      int
	Pool      *kernels.Pool
}

// LocalAdaptive returns a Local masker with the default block size and bias.
func LocalAdaptive(method LocalMethod) *Local {
	return &Local{Method: method, BlockSize: DefaultBlockSize, Bias: DefaultBias, Pool: &kernels.Pool{}}
}

// Name implements Masker.
func (m *Local) Name() string {
	if m.Method == LocalGaussian {
		return "local_gaussian"
	}
	return "local_mean"
}

// Mask implements Masker.
func (m *Local) Mask(frame images.Frame) (images.Mask, error) {
	if frame.Empty() {
		return images.Mask{}, images.ErrEmptyInput
	}
	if m.BlockSize < 3 || m.BlockSize%2 == 0 {
		return images.Mask{}, errors.Errorf("%s: block size must be odd and >= 3, got %d", m.Name(), m.BlockSize)
	}

	gray := images.Grayscale(frame)
	opt := kernels.Options{Radius: m.BlockSize / 2, Edge: kernels.EdgeClamp, Pool: m.Pool, Parallel: true}

	mean := kernels.BoxMean
	if m.Method == LocalGaussian {
		mean = func(src *image.Gray, opt kernels.Options) *image.Gray {
			return kernels.GaussianMean(src, 0, opt)
		}
	}
	local := mean(gray, opt)
	defer m.Pool.PutGray(local)

	background := images.NewMask(frame.Width, frame.Height)
	for y := 0; y < frame.Height; y++ {
		for x := 0; x < frame.Width; x++ {
			src := int(gray.Pix[y*gray.Stride+x])
			avg := int(local.Pix[y*local.Stride+x])
			background.Set(x, y, src-avg > -m.Bias)
		}
	}

	return Finish(background), nil
}
