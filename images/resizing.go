package images

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// ImageFormat represents supported still image encodings.
type ImageFormat int

const (
	FormatUnknown ImageFormat = iota
	FormatJPEG
	FormatWebP
	FormatPNG
	FormatBMP
	FormatTIFF
)

// String returns the canonical file extension of the format without the dot.
func (f ImageFormat) String() string {
	switch f {
	case FormatJPEG:
		return "jpeg"
	case FormatWebP:
		return "webp"
	case FormatPNG:
		return "png"
	case FormatBMP:
		return "bmp"
	case FormatTIFF:
		return "tiff"
	default:
		return "unknown"
	}
}

// FormatFromPath guesses the encoding of a file from its extension.
func FormatFromPath(path string) ImageFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG
	case ".webp":
		return FormatWebP
	case ".png":
		return FormatPNG
	case ".bmp":
		return FormatBMP
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatUnknown
	}
}

// DecodeImage decodes an encoded still image.
//
// Arguments:
//   - b: The encoded bytes.
//   - format: The encoding of b.
//
// Returns:
//   - image.Image: The decoded image.
//   - error: An error if the data is empty, the format is unsupported or decoding fails.
func DecodeImage(b []byte, format ImageFormat) (image.Image, error) {
	if len(b) == 0 {
		return nil, errors.New("empty image data")
	}

	r := bytes.NewReader(b)

	var (
		img image.Image
		err error
	)
	switch format {
	case FormatJPEG:
		img, err = jpeg.Decode(r)
	case FormatWebP:
		img, err = webp.Decode(r)
	case FormatPNG:
		img, err = png.Decode(r)
	case FormatBMP:
		img, err = bmp.Decode(r)
	case FormatTIFF:
		img, err = tiff.Decode(r)
	default:
		return nil, errors.Errorf("unsupported image format: %d", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to decode %s", format)
	}

	return img, nil
}

// DecodeFrame decodes an encoded still image straight into a BGR frame.
func DecodeFrame(b []byte, format ImageFormat) (Frame, error) {
	img, err := DecodeImage(b, format)
	if err != nil {
		return Frame{}, err
	}
	return FrameFromImage(img), nil
}

// ResizeImage scales an image to exactly width x height using Lanczos
// resampling.
//
// Arguments:
//   - img: The source image.
//   - width: The target width.
//   - height: The target height.
//
// Returns:
//   - image.Image: The resized image.
//   - error: An error if the dimensions are not positive.
func ResizeImage(img image.Image, width, height int) (image.Image, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("invalid dimensions: width=%d, height=%d", width, height)
	}
	return resize.Resize(uint(width), uint(height), img, resize.Lanczos3), nil
}

// FitWithin scales an image down so that it fits inside maxWidth x maxHeight
// while keeping its aspect ratio. Images that already fit are returned as is.
func FitWithin(img image.Image, maxWidth, maxHeight int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxWidth && b.Dy() <= maxHeight {
		return img
	}
	return resize.Thumbnail(uint(maxWidth), uint(maxHeight), img, resize.Lanczos3)
}
