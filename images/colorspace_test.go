package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHSVPixel(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b uint8
		want    [3]uint8
	}{
		{name: "black", want: [3]uint8{0, 0, 0}},
		{name: "white", r: 255, g: 255, b: 255, want: [3]uint8{0, 0, 255}},
		{name: "gray", r: 128, g: 128, b: 128, want: [3]uint8{0, 0, 128}},
		{name: "red", r: 255, want: [3]uint8{0, 255, 255}},
		{name: "green", g: 255, want: [3]uint8{60, 255, 255}},
		{name: "blue", b: 255, want: [3]uint8{120, 255, 255}},
		{name: "yellow", r: 255, g: 255, want: [3]uint8{30, 255, 255}},
		{name: "half red", r: 128, g: 64, b: 64, want: [3]uint8{0, 128, 128}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HSVPixel(tt.r, tt.g, tt.b))
		})
	}
}

func TestHSVHueRange(t *testing.T) {
	for r := 0; r < 256; r += 15 {
		for g := 0; g < 256; g += 15 {
			for b := 0; b < 256; b += 15 {
				hsv := HSVPixel(uint8(r), uint8(g), uint8(b))
				require.Less(t, hsv[0], uint8(180), "rgb=(%d,%d,%d)", r, g, b)
			}
		}
	}
}

func TestLabPixel(t *testing.T) {
	assert.Equal(t, [3]uint8{255, 128, 128}, LabPixel(255, 255, 255))
	assert.Equal(t, [3]uint8{0, 128, 128}, LabPixel(0, 0, 0))

	gray := LabPixel(128, 128, 128)
	assert.Equal(t, uint8(128), gray[1])
	assert.Equal(t, uint8(128), gray[2])
	assert.InDelta(t, 137, int(gray[0]), 1)

	red := LabPixel(255, 0, 0)
	assert.Greater(t, red[1], uint8(128), "red has positive a*")
	blue := LabPixel(0, 0, 255)
	assert.Less(t, blue[2], uint8(128), "blue has negative b*")
}

func TestConvert(t *testing.T) {
	f := NewFrame(2, 1, SpaceBGR)
	f.Set(0, 0, [3]uint8{0, 0, 255})
	f.Set(1, 0, [3]uint8{255, 255, 255})
	sum := f.Checksum()

	hsv, err := Convert(f, SpaceHSV)
	require.NoError(t, err)
	assert.Equal(t, SpaceHSV, hsv.Space)
	assert.Equal(t, [3]uint8{0, 255, 255}, hsv.At(0, 0))
	assert.Equal(t, [3]uint8{0, 0, 255}, hsv.At(1, 0))

	lab, err := Convert(f, SpaceLab)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{255, 128, 128}, lab.At(1, 0))

	rgb, err := Convert(f, SpaceRGB)
	require.NoError(t, err)
	assert.Equal(t, [3]uint8{255, 0, 0}, rgb.At(0, 0))

	hsvFromRGB, err := Convert(rgb, SpaceHSV)
	require.NoError(t, err)
	assert.Equal(t, hsv.Pix, hsvFromRGB.Pix)

	same, err := Convert(f, SpaceBGR)
	require.NoError(t, err)
	assert.Equal(t, f.Pix, same.Pix)

	assert.Equal(t, sum, f.Checksum(), "input must not be mutated")

	_, err = Convert(hsv, SpaceLab)
	assert.ErrorIs(t, err, ErrUnsupportedConversion)

	_, err = Convert(Frame{}, SpaceHSV)
	assert.ErrorIs(t, err, ErrEmptyInput)
}

func TestGrayscale(t *testing.T) {
	f := NewFrame(4, 1, SpaceBGR)
	f.Set(0, 0, [3]uint8{0, 0, 0})
	f.Set(1, 0, [3]uint8{255, 255, 255})
	f.Set(2, 0, [3]uint8{128, 128, 128})
	f.Set(3, 0, [3]uint8{0, 0, 255})

	g := Grayscale(f)
	assert.Equal(t, []uint8{0, 255, 128, 76}, g.Pix)

	rgb := NewFrame(1, 1, SpaceRGB)
	rgb.Set(0, 0, [3]uint8{255, 0, 0})
	assert.Equal(t, []uint8{76}, Grayscale(rgb).Pix)

	assert.Equal(t, 0, Grayscale(Frame{}).Bounds().Dx())
}
