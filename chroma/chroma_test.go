package chroma

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-busstop/images"
)

func frameOf(w, h int, pixels ...[3]uint8) images.Frame {
	f := images.NewFrame(w, h, images.SpaceBGR)
	for i, px := range pixels {
		f.Set(i%w, i/w, px)
	}
	return f
}

func TestChromaRatio(t *testing.T) {
	tests := []struct {
		name string
		px   [3]uint8
		want float32
	}{
		{name: "black", px: [3]uint8{0, 0, 0}, want: 0},
		{name: "white", px: [3]uint8{255, 255, 255}, want: 0},
		{name: "gray", px: [3]uint8{90, 90, 90}, want: 0},
		{name: "pure channel", px: [3]uint8{0, 0, 200}, want: 1},
		{name: "two channels", px: [3]uint8{100, 100, 0}, want: 0.5},
		{name: "mixed", px: [3]uint8{50, 100, 50}, want: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ChromaRatio(tt.px), 1e-6)
		})
	}
}

func TestBrightness(t *testing.T) {
	assert.Equal(t, 0, Brightness([3]uint8{}))
	assert.Equal(t, MaxBrightness, Brightness([3]uint8{255, 255, 255}))
	assert.Equal(t, 384, Brightness([3]uint8{128, 128, 128}))
}

func TestPercentileIndex(t *testing.T) {
	assert.Equal(t, 0, PercentileIndex(0, 50))
	assert.Equal(t, 2, PercentileIndex(4, 50))
	assert.Equal(t, 3, PercentileIndex(4, 100), "clamped to the last element")
	assert.Equal(t, 0, PercentileIndex(4, 0))
	assert.Equal(t, 0, PercentileIndex(4, -10))
	assert.Equal(t, 9, PercentileIndex(10, 90))
	assert.Equal(t, 117, PercentileIndex(900, 13))
	assert.Equal(t, 221, PercentileIndex(1700, 13))
}

func TestPercentileCutoff(t *testing.T) {
	v, err := PercentileCutoff([]int{765, 0, 384, 0}, 50)
	require.NoError(t, err)
	assert.Equal(t, 384, v)

	_, err = PercentileCutoff(nil, 50)
	assert.ErrorIs(t, err, images.ErrEmptyInput)
}

func TestPercentileCutoffIsMonotonic(t *testing.T) {
	values := []int{12, 700, 3, 3, 55, 420, 98, 640, 0, 765, 310, 311}
	prev := -1
	for p := 0; p <= 100; p += 5 {
		cutoff, err := PercentileCutoff(append([]int(nil), values...), p)
		require.NoError(t, err)
		require.GreaterOrEqual(t, cutoff, prev, "percentile %v", p)
		prev = cutoff
	}
}

func TestClassifyTwoByTwo(t *testing.T) {
	black := [3]uint8{0, 0, 0}
	white := [3]uint8{255, 255, 255}
	gray := [3]uint8{128, 128, 128}
	frame := frameOf(2, 2, black, black, white, gray)

	mask := Classify(frame, 0.15, 50)
	require.Equal(t, 2, mask.Width)
	require.Equal(t, 2, mask.Height)

	// Achromatic brightness sorted: 0, 0, 384, 765. Index floor(0.5*4) = 2,
	// so the cutoff is the gray-mid brightness 384.
	assert.Equal(t, []uint8{0, 0, 255, 255}, mask.Pix)
}

func TestClassifyChromaticPixelsAreForeground(t *testing.T) {
	frame := frameOf(3, 1, [3]uint8{0, 0, 255}, [3]uint8{10, 10, 10}, [3]uint8{20, 20, 20})
	mask := Classify(frame, 0.15, 100)
	assert.Equal(t, []uint8{255, 0, 255}, mask.Pix)
}

func TestClassifyAllChromatic(t *testing.T) {
	frame := frameOf(2, 1, [3]uint8{0, 0, 255}, [3]uint8{0, 255, 0})
	mask := Classify(frame, 0.15, 50)
	assert.Equal(t, []uint8{255, 255}, mask.Pix)
}

func TestClassifyGrayDependsOnlyOnBrightness(t *testing.T) {
	// Two gray levels laid out in different patterns must classify by level,
	// never by position.
	layouts := [][]uint8{
		{40, 40, 200, 200, 40, 200, 40, 200, 40},
		{200, 40, 40, 40, 200, 40, 200, 200, 40},
		{40, 200, 40, 200, 40, 200, 40, 200, 40},
	}
	for _, layout := range layouts {
		f := images.NewFrame(3, 3, images.SpaceBGR)
		for i, v := range layout {
			f.Set(i%3, i/3, [3]uint8{v, v, v})
		}
		mask := Classify(f, 0.15, 90)
		for i, v := range layout {
			want := uint8(0)
			if v == 200 {
				want = 255
			}
			require.Equal(t, want, mask.Pix[i], "layout %v index %d", layout, i)
		}
	}
}

func TestClassifyLargeFrameMatchesSerialDefinition(t *testing.T) {
	f := images.NewFrame(97, 61, images.SpaceBGR)
	for i := 0; i < f.Len(); i++ {
		x, y := i%f.Width, i/f.Width
		if i%2 == 0 {
			v := uint8(i * 37 % 256)
			f.Set(x, y, [3]uint8{v, v, v})
			continue
		}
		f.Set(x, y, [3]uint8{uint8(i * 31 % 256), uint8(i * 17 % 256), uint8(i * 7 % 256)})
	}

	mask := Classify(f, 0.2, 75)

	var achromatic []int
	for i := 0; i < f.Len(); i++ {
		px := [3]uint8{f.Pix[i*3], f.Pix[i*3+1], f.Pix[i*3+2]}
		if ChromaRatio(px) < 0.2 {
			achromatic = append(achromatic, Brightness(px))
		}
	}
	cutoff, err := PercentileCutoff(achromatic, 75)
	require.NoError(t, err)

	for i := 0; i < f.Len(); i++ {
		px := [3]uint8{f.Pix[i*3], f.Pix[i*3+1], f.Pix[i*3+2]}
		want := ChromaRatio(px) >= 0.2 || Brightness(px) >= cutoff
		require.Equal(t, want, mask.Pix[i] == 255, "pixel %d", i)
	}
}

func TestClassifyEmpty(t *testing.T) {
	assert.True(t, Classify(images.Frame{}, 0.15, 50).Empty())
}

func TestClassifier(t *testing.T) {
	c := Classifier{ThresholdPercent: 15, WhitePercentile: 50}
	assert.Equal(t, "chroma", c.Name())

	frame := frameOf(2, 2, [3]uint8{}, [3]uint8{}, [3]uint8{255, 255, 255}, [3]uint8{128, 128, 128})
	mask, err := c.Mask(frame)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 255, 255}, mask.Pix)

	_, err = c.Mask(images.Frame{})
	assert.ErrorIs(t, err, images.ErrEmptyInput)
}
