package images

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

func getTestImage() image.Image {
	// A simple 100x100 red image.
	img := image.NewRGBA(image.Rect(0, 0, 100, 100))
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			img.Set(x, y, color.RGBA{R: 255, G: 0, B: 0, A: 255})
		}
	}

	return img
}

// Helper functions to create test data for different formats
func getJPEGBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := jpeg.Encode(&buf, getTestImage(), nil)
	require.NoError(t, err)
	return buf.Bytes()
}

func getPNGBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := png.Encode(&buf, getTestImage())
	require.NoError(t, err)
	return buf.Bytes()
}

func getWebPBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := webp.Encode(&buf, getTestImage(), &webp.Options{Lossless: true})
	require.NoError(t, err)
	return buf.Bytes()
}

func getBMPBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := bmp.Encode(&buf, getTestImage())
	require.NoError(t, err)
	return buf.Bytes()
}

func getTIFFBytes(t *testing.T) []byte {
	var buf bytes.Buffer
	err := tiff.Encode(&buf, getTestImage(), nil)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name     string
		format   ImageFormat
		getBytes func(t *testing.T) []byte
		lossy    bool
	}{
		{name: "JPEG", format: FormatJPEG, getBytes: getJPEGBytes, lossy: true},
		{name: "WebP", format: FormatWebP, getBytes: getWebPBytes},
		{name: "PNG", format: FormatPNG, getBytes: getPNGBytes},
		{name: "BMP", format: FormatBMP, getBytes: getBMPBytes},
		{name: "TIFF", format: FormatTIFF, getBytes: getTIFFBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := DecodeFrame(tt.getBytes(t), tt.format)
			require.NoError(t, err)
			assert.Equal(t, 100, frame.Width)
			assert.Equal(t, 100, frame.Height)
			assert.Equal(t, SpaceBGR, frame.Space)

			px := frame.At(50, 50)
			if tt.lossy {
				assert.InDelta(t, 0, int(px[0]), 8)
				assert.InDelta(t, 255, int(px[2]), 8)
				return
			}
			assert.Equal(t, [3]uint8{0, 0, 255}, px, "red decodes to BGR (0,0,255)")
		})
	}
}

func TestDecodeImageErrors(t *testing.T) {
	img, err := DecodeImage([]byte{}, FormatJPEG)
	assert.Error(t, err)
	assert.Nil(t, img)
	assert.Contains(t, err.Error(), "empty image data")

	img, err = DecodeImage(getJPEGBytes(t), FormatUnknown)
	assert.Error(t, err)
	assert.Nil(t, img)
	assert.Contains(t, err.Error(), "unsupported image format")

	img, err = DecodeImage([]byte("not a png"), FormatPNG)
	assert.Error(t, err)
	assert.Nil(t, img)
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]ImageFormat{
		"frame-1.jpg":  FormatJPEG,
		"frame-1.JPEG": FormatJPEG,
		"a/b/c.png":    FormatPNG,
		"x.webp":       FormatWebP,
		"x.bmp":        FormatBMP,
		"x.tif":        FormatTIFF,
		"x.tiff":       FormatTIFF,
		"notes.txt":    FormatUnknown,
		"noext":        FormatUnknown,
	}
	for path, want := range tests {
		assert.Equal(t, want, FormatFromPath(path), path)
	}
}

func TestResizeImage(t *testing.T) {
	img, err := ResizeImage(getTestImage(), 64, 32)
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 32, img.Bounds().Dy())

	_, err = ResizeImage(getTestImage(), 0, 0)
	assert.Error(t, err)

	_, err = ResizeImage(getTestImage(), -10, 50)
	assert.Error(t, err)

	_, err = ResizeImage(nil, 10, 10)
	assert.Error(t, err)
}

func TestFitWithin(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 1200, 800))

	fit := FitWithin(src, 600, 400)
	assert.Equal(t, 600, fit.Bounds().Dx())
	assert.Equal(t, 400, fit.Bounds().Dy())

	small := image.NewRGBA(image.Rect(0, 0, 100, 50))
	assert.Same(t, small, FitWithin(small, 600, 400).(*image.RGBA))
}
