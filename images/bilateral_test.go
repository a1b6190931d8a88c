package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBilateralFilterConstantFrame(t *testing.T) {
	f := NewFrame(12, 9, SpaceBGR)
	for i := range f.Pix {
		f.Pix[i] = 90
	}
	out := BilateralFilter(f, 0, 10, 5)
	assert.Equal(t, f.Pix, out.Pix)
}

func TestBilateralFilterPreservesBinaryEdges(t *testing.T) {
	m := NewMask(10, 10)
	for y := 0; y < 10; y++ {
		for x := 5; x < 10; x++ {
			m.Set(x, y, true)
		}
	}
	f := m.ToFrame()
	sum := f.Checksum()

	out := BilateralFilter(f, 0, 10, 5)
	assert.Equal(t, f.Pix, out.Pix, "black/white edges carry no color weight")
	assert.Equal(t, sum, f.Checksum(), "input must not be mutated")
}

func TestBilateralFilterSmoothsNoise(t *testing.T) {
	f := NewFrame(9, 9, SpaceBGR)
	for i := range f.Pix {
		f.Pix[i] = 100
	}
	f.Set(4, 4, [3]uint8{104, 104, 104})

	out := BilateralFilter(f, 5, 50, 5)
	px := out.At(4, 4)
	assert.Less(t, px[0], uint8(104))
	assert.GreaterOrEqual(t, px[0], uint8(100))
}

func TestBilateralFilterTinyAndEmpty(t *testing.T) {
	one := NewFrame(1, 1, SpaceHSV)
	one.Set(0, 0, [3]uint8{7, 8, 9})
	out := BilateralFilter(one, 0, 10, 5)
	assert.Equal(t, [3]uint8{7, 8, 9}, out.At(0, 0))
	assert.Equal(t, SpaceHSV, out.Space)

	assert.True(t, BilateralFilter(Frame{}, 0, 10, 5).Empty())
}
