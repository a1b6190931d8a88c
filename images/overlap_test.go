package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskIoU(t *testing.T) {
	tests := []struct {
		name string
		a, b []uint8
		want float64
	}{
		{name: "identical", a: []uint8{255, 0, 255, 0}, b: []uint8{255, 0, 255, 0}, want: 1},
		{name: "disjoint", a: []uint8{255, 255, 0, 0}, b: []uint8{0, 0, 255, 255}, want: 0},
		{name: "partial", a: []uint8{255, 255, 255, 0}, b: []uint8{0, 255, 255, 255}, want: 0.5},
		{name: "both empty", a: []uint8{0, 0, 0, 0}, b: []uint8{0, 0, 0, 0}, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Mask{Width: 2, Height: 2, Pix: tt.a}
			b := Mask{Width: 2, Height: 2, Pix: tt.b}
			got, err := MaskIoU(a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)

			back, err := MaskIoU(b, a)
			require.NoError(t, err)
			assert.Equal(t, got, back, "symmetric")
		})
	}
}

func TestMaskIoUSizeMismatch(t *testing.T) {
	_, err := MaskIoU(NewMask(2, 2), NewMask(4, 1))
	assert.Error(t, err)
}
