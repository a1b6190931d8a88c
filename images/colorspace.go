package images

import (
	"image"
	"math"

	"github.com/pkg/errors"
)

// ErrUnsupportedConversion is returned when a frame cannot be converted into
// the requested color space.
var ErrUnsupportedConversion = errors.New("unsupported color conversion")

var (
	// sdivTable and hdivTable hold the fixed-point reciprocals OpenCV uses for
	// 8-bit saturation and hue.
	sdivTable [256]int
	hdivTable [256]int
	// srgbToLinear maps an 8-bit sRGB component onto linear light in [0, 1].
	srgbToLinear [256]float64
)

const hsvShift = 12

func init() {
	for i := 1; i < 256; i++ {
		sdivTable[i] = int(math.Round(float64(255<<hsvShift) / float64(i)))
		hdivTable[i] = int(math.Round(float64(180<<hsvShift) / (6 * float64(i))))
	}
	for i := range srgbToLinear {
		c := float64(i) / 255
		if c <= 0.04045 {
			srgbToLinear[i] = c / 12.92
		} else {
			srgbToLinear[i] = math.Pow((c+0.055)/1.055, 2.4)
		}
	}
}

// Convert returns a new frame holding f in the requested color space.
//
// Only BGR and RGB frames can be converted; converting a frame into its own
// space returns a copy.
//
// Arguments:
// - f: Source frame.
// - space: Destination color space.
//
// Returns:
// - The converted frame.
// - ErrEmptyInput for an empty frame, ErrUnsupportedConversion for HSV/Lab sources.
//
// @example
// hsv, err := Convert(frame, SpaceHSV)
func Convert(f Frame, space ColorSpace) (Frame, error) {
	if f.Empty() {
		return Frame{}, ErrEmptyInput
	}
	if f.Space == space {
		return f.Clone(), nil
	}
	if f.Space != SpaceBGR && f.Space != SpaceRGB {
		return Frame{}, errors.Wrapf(ErrUnsupportedConversion, "%s to %s", f.Space, space)
	}

	var pixel func(r, g, b uint8) [3]uint8
	switch space {
	case SpaceBGR:
		pixel = func(r, g, b uint8) [3]uint8 { return [3]uint8{b, g, r} }
	case SpaceRGB:
		pixel = func(r, g, b uint8) [3]uint8 { return [3]uint8{r, g, b} }
	case SpaceHSV:
		pixel = HSVPixel
	case SpaceLab:
		pixel = LabPixel
	default:
		return Frame{}, errors.Wrapf(ErrUnsupportedConversion, "%s to %s", f.Space, space)
	}

	out := NewFrame(f.Width, f.Height, space)
	rgb := f.Space == SpaceRGB
	Parallel(f.Height, func(start, end int) {
		for i := start * f.Stride(); i < end*f.Stride(); i += Channels {
			r, g, b := f.Pix[i+2], f.Pix[i+1], f.Pix[i]
			if rgb {
				r, b = b, r
			}
			c := pixel(r, g, b)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = c[0], c[1], c[2]
		}
	})

	return out, nil
}

// HSVPixel converts one RGB pixel to 8-bit HSV using OpenCV's fixed-point
// arithmetic: H in [0,180), S and V in [0,255].
func HSVPixel(r8, g8, b8 uint8) [3]uint8 {
	r, g, b := int(r8), int(g8), int(b8)

	v := max(r, g, b)
	diff := v - min(r, g, b)

	s := (diff*sdivTable[v] + (1 << (hsvShift - 1))) >> hsvShift

	var h int
	switch {
	case v == r:
		h = g - b
	case v == g:
		h = b - r + 2*diff
	default:
		h = r - g + 4*diff
	}
	h = (h*hdivTable[diff] + (1 << (hsvShift - 1))) >> hsvShift
	if h < 0 {
		h += 180
	}

	return [3]uint8{uint8(h), uint8(s), uint8(v)}
}

// LabPixel converts one sRGB pixel to 8-bit CIE L*a*b* (D65) in OpenCV's
// encoding: L scaled to [0,255], a and b offset by 128.
func LabPixel(r8, g8, b8 uint8) [3]uint8 {
	r, g, b := srgbToLinear[r8], srgbToLinear[g8], srgbToLinear[b8]

	x := (0.412453*r + 0.357580*g + 0.180423*b) / 0.950456
	y := 0.212671*r + 0.715160*g + 0.072169*b
	z := (0.019334*r + 0.119193*g + 0.950227*b) / 1.088754

	var l float64
	if y > 0.008856 {
		l = 116*math.Cbrt(y) - 16
	} else {
		l = 903.3 * y
	}

	fx, fy, fz := labF(x), labF(y), labF(z)

	return [3]uint8{
		RoundUint8(l * 255 / 100),
		RoundUint8(500*(fx-fy) + 128),
		RoundUint8(200*(fy-fz) + 128),
	}
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

// Grayscale reduces a BGR or RGB frame to one intensity channel using the
// BT.601 weights in OpenCV's 14-bit fixed point form.
//
// Arguments:
// - f: Source frame.
//
// Returns:
// - A gray plane with the frame's dimensions, or an empty plane for an empty frame.
//
// @example
// gray := Grayscale(frame)
func Grayscale(f Frame) *image.Gray {
	if f.Empty() {
		return image.NewGray(image.Rectangle{})
	}

	const (
		rw    = 4899
		gw    = 9617
		bw    = 1868
		shift = 14
	)

	dst := image.NewGray(image.Rect(0, 0, f.Width, f.Height))
	rgb := f.Space == SpaceRGB
	Parallel(f.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < f.Width; x++ {
				i := f.PixOffset(x, y)
				b, g, r := int(f.Pix[i]), int(f.Pix[i+1]), int(f.Pix[i+2])
				if rgb {
					r, b = b, r
				}
				dst.Pix[y*dst.Stride+x] = uint8((r*rw + g*gw + b*bw + 1<<(shift-1)) >> shift)
			}
		}
	})

	return dst
}
