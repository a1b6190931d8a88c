// Package images holds the frame and mask data model shared by every stage of
// the platform pipeline, plus the per-pixel conversions and filters the
// stages are built from.
package images

import (
	"image"
	"image/color"

	"github.com/pkg/errors"
)

// ErrEmptyInput is returned when an operation receives a frame or region with
// no pixels to work on.
var ErrEmptyInput = errors.New("empty input")

// ColorSpace names the channel interpretation of a Frame.
type ColorSpace int

const (
	// SpaceBGR is the capture order used by OpenCV devices and files.
	SpaceBGR ColorSpace = iota
	// SpaceRGB is the order used by the Go image package.
	SpaceRGB
	// SpaceHSV uses the 8-bit OpenCV convention: H in [0,180], S and V in [0,255].
	SpaceHSV
	// SpaceLab uses the 8-bit OpenCV convention: L*255/100, a+128, b+128.
	SpaceLab
)

// String returns the lower case name of the color space.
func (s ColorSpace) String() string {
	switch s {
	case SpaceBGR:
		return "bgr"
	case SpaceRGB:
		return "rgb"
	case SpaceHSV:
		return "hsv"
	case SpaceLab:
		return "lab"
	default:
		return "unknown"
	}
}

// Channels is the number of interleaved channels in every Frame.
const Channels = 3

// Frame is a 3-channel, 8-bit, row-major raster.
//
// Pix holds Width*Height*3 bytes and the stride is always Width*3. The
// meaning of the three channels is given by Space.
type Frame struct {
	Width  int
	Height int
	Space  ColorSpace
	Pix    []uint8
}

// NewFrame allocates a zeroed frame of the given size.
//
// Arguments:
// - width: Frame width in pixels.
// - height: Frame height in pixels.
// - space: Channel interpretation.
//
// Returns:
// - A frame with all channels set to 0. Non-positive sizes yield an empty frame.
//
// @example
// f := NewFrame(640, 480, SpaceBGR)
func NewFrame(width, height int, space ColorSpace) Frame {
	if width <= 0 || height <= 0 {
		return Frame{Space: space}
	}
	return Frame{
		Width:  width,
		Height: height,
		Space:  space,
		Pix:    make([]uint8, width*height*Channels),
	}
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	return f.Width <= 0 || f.Height <= 0 || len(f.Pix) < f.Width*f.Height*Channels
}

// Len returns the number of pixels.
func (f Frame) Len() int {
	if f.Empty() {
		return 0
	}
	return f.Width * f.Height
}

// Stride returns the number of bytes between vertically adjacent pixels.
func (f Frame) Stride() int {
	return f.Width * Channels
}

// PixOffset returns the index of the first channel of pixel (x, y).
func (f Frame) PixOffset(x, y int) int {
	return y*f.Stride() + x*Channels
}

// At returns the three channels of pixel (x, y).
func (f Frame) At(x, y int) [3]uint8 {
	i := f.PixOffset(x, y)
	return [3]uint8{f.Pix[i], f.Pix[i+1], f.Pix[i+2]}
}

// Set writes the three channels of pixel (x, y).
func (f Frame) Set(x, y int, c [3]uint8) {
	i := f.PixOffset(x, y)
	f.Pix[i] = c[0]
	f.Pix[i+1] = c[1]
	f.Pix[i+2] = c[2]
}

// Clone returns a deep copy of the frame.
func (f Frame) Clone() Frame {
	out := f
	out.Pix = append([]uint8(nil), f.Pix...)
	return out
}

// FrameFromImage converts any image.Image into a BGR frame.
//
// Arguments:
// - img: Source image. Alpha is ignored.
//
// Returns:
// - A BGR frame with the image's dimensions.
//
// @example
// img, _ := png.Decode(r)
// frame := FrameFromImage(img)
func FrameFromImage(img image.Image) Frame {
	b := img.Bounds()
	f := NewFrame(b.Dx(), b.Dy(), SpaceBGR)
	if f.Empty() {
		return f
	}

	switch src := img.(type) {
	case *image.RGBA:
		Parallel(f.Height, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < f.Width; x++ {
					s := src.Pix[src.PixOffset(b.Min.X+x, b.Min.Y+y):]
					i := f.PixOffset(x, y)
					f.Pix[i], f.Pix[i+1], f.Pix[i+2] = s[2], s[1], s[0]
				}
			}
		})
	default:
		Parallel(f.Height, func(start, end int) {
			for y := start; y < end; y++ {
				for x := 0; x < f.Width; x++ {
					c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
					i := f.PixOffset(x, y)
					f.Pix[i], f.Pix[i+1], f.Pix[i+2] = c.B, c.G, c.R
				}
			}
		})
	}

	return f
}

// ToImage renders a BGR or RGB frame as an *image.RGBA. Other spaces are
// written channel for channel, which is only useful for debugging.
func (f Frame) ToImage() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, f.Width, f.Height))
	if f.Empty() {
		return dst
	}
	Parallel(f.Height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < f.Width; x++ {
				i := f.PixOffset(x, y)
				d := dst.Pix[y*dst.Stride+x*4:]
				if f.Space == SpaceBGR {
					d[0], d[1], d[2] = f.Pix[i+2], f.Pix[i+1], f.Pix[i]
				} else {
					d[0], d[1], d[2] = f.Pix[i], f.Pix[i+1], f.Pix[i+2]
				}
				d[3] = 0xff
			}
		}
	})
	return dst
}

// Mask is a single-channel binary image. Every element is 0 or 255.
type Mask struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewMask allocates a zeroed mask of the given size.
func NewMask(width, height int) Mask {
	if width <= 0 || height <= 0 {
		return Mask{}
	}
	return Mask{Width: width, Height: height, Pix: make([]uint8, width*height)}
}

// Empty reports whether the mask has no pixels.
func (m Mask) Empty() bool {
	return m.Width <= 0 || m.Height <= 0 || len(m.Pix) < m.Width*m.Height
}

// At returns the value at (x, y).
func (m Mask) At(x, y int) uint8 {
	return m.Pix[y*m.Width+x]
}

// Set stores 255 at (x, y) when on is true and 0 otherwise.
func (m Mask) Set(x, y int, on bool) {
	if on {
		m.Pix[y*m.Width+x] = 255
		return
	}
	m.Pix[y*m.Width+x] = 0
}

// Count returns the number of set (255) elements.
func (m Mask) Count() int {
	n := 0
	for _, v := range m.Pix {
		if v != 0 {
			n++
		}
	}
	return n
}

// Ratio returns the fraction of set elements in [0, 1]. An empty mask has ratio 0.
func (m Mask) Ratio() float64 {
	if m.Empty() {
		return 0
	}
	return float64(m.Count()) / float64(m.Width*m.Height)
}

// RegionRatio returns the fraction of set elements inside r, clipped to the
// mask bounds.
func (m Mask) RegionRatio(r image.Rectangle) float64 {
	r = r.Intersect(image.Rect(0, 0, m.Width, m.Height))
	if r.Empty() {
		return 0
	}
	n := 0
	for y := r.Min.Y; y < r.Max.Y; y++ {
		row := m.Pix[y*m.Width:]
		for x := r.Min.X; x < r.Max.X; x++ {
			if row[x] != 0 {
				n++
			}
		}
	}
	return float64(n) / float64(r.Dx()*r.Dy())
}

// Invert returns a new mask with every element flipped.
func (m Mask) Invert() Mask {
	out := Mask{Width: m.Width, Height: m.Height, Pix: make([]uint8, len(m.Pix))}
	for i, v := range m.Pix {
		if v == 0 {
			out.Pix[i] = 255
		}
	}
	return out
}

// Clone returns a deep copy of the mask.
func (m Mask) Clone() Mask {
	out := m
	out.Pix = append([]uint8(nil), m.Pix...)
	return out
}

// ToGray wraps a copy of the mask as an *image.Gray for encoding.
func (m Mask) ToGray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	copy(g.Pix, m.Pix)
	return g
}

// ToFrame expands the mask into a 3-channel frame, white where set.
func (m Mask) ToFrame() Frame {
	f := NewFrame(m.Width, m.Height, SpaceBGR)
	for i, v := range m.Pix {
		if v != 0 {
			f.Pix[i*3], f.Pix[i*3+1], f.Pix[i*3+2] = 255, 255, 255
		}
	}
	return f
}

// MaskFromGray binarizes a gray plane: values >= 128 become 255, the rest 0.
func MaskFromGray(g *image.Gray) Mask {
	b := g.Bounds()
	m := NewMask(b.Dx(), b.Dy())
	for y := 0; y < m.Height; y++ {
		row := g.Pix[y*g.Stride:]
		for x := 0; x < m.Width; x++ {
			if row[x] >= 128 {
				m.Pix[y*m.Width+x] = 255
			}
		}
	}
	return m
}
