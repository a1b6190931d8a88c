package kernels

import (
	"image"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveBoxMean is the direct O(r²) definition BoxMean must reproduce.
func naiveBoxMean(src *image.Gray, r int, mode EdgeMode) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(src.Rect)
	area := uint32((2*r + 1) * (2*r + 1))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum uint32
			for dy := -r; dy <= r; dy++ {
				for dx := -r; dx <= r; dx++ {
					sx := MapCoord(x+dx, w, mode)
					sy := MapCoord(y+dy, h, mode)
					sum += uint32(src.Pix[sy*src.Stride+sx])
				}
			}
			dst.Pix[y*dst.Stride+x] = uint8((sum + area/2) / area)
		}
	}
	return dst
}

func TestBoxMeanRadiusZeroReturnsCopy(t *testing.T) {
	img := genGray(8, 7)
	out := BoxMean(img, Options{Radius: 0})
	require.Equal(t, img.Rect, out.Rect)
	assert.Equal(t, img.Pix, out.Pix)

	out.Pix[0]++
	assert.NotEqual(t, img.Pix[0], out.Pix[0], "result must not alias the source")
}

func TestBoxMeanMatchesNaive(t *testing.T) {
	img := genGray(37, 23)

	for _, mode := range []EdgeMode{EdgeClamp, EdgeMirror, EdgeReflect101, EdgeWrap} {
		for _, r := range []int{1, 2, 5} {
			want := naiveBoxMean(img, r, mode)
			got := BoxMean(img, Options{Radius: r, Edge: mode})
			assert.Equal(t, want.Pix, got.Pix, "mode=%d radius=%d", mode, r)
		}
	}
}

func TestBoxMeanParallelConsistency(t *testing.T) {
	img := genGray(300, 200)
	serial := BoxMean(img, Options{Radius: 5, Edge: EdgeClamp})
	parallel := BoxMean(img, Options{Radius: 5, Edge: EdgeClamp, Parallel: true})
	assert.Equal(t, serial.Pix, parallel.Pix)
}

func TestBoxMeanConstantPlane(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 77
	}
	out := BoxMean(img, Options{Radius: 5, Edge: EdgeClamp})
	for _, v := range out.Pix {
		require.Equal(t, uint8(77), v)
	}
}

func TestGaussianMeanConstantPlane(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	out := GaussianMean(img, 0, Options{Radius: 5, Edge: EdgeClamp, Parallel: true})
	for _, v := range out.Pix {
		require.Equal(t, uint8(200), v)
	}
}

func TestGaussianKernel(t *testing.T) {
	k := GaussianKernel(5, SigmaForWindow(11))
	require.Len(t, k, 11)

	sum := 0.0
	for i, v := range k {
		sum += v
		assert.InDelta(t, v, k[len(k)-1-i], 1e-12, "kernel must be symmetric")
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Greater(t, k[5], k[4])
}

func TestSigmaForWindow(t *testing.T) {
	assert.InDelta(t, 2.0, SigmaForWindow(11), 1e-12)
	assert.InDelta(t, 1.1, SigmaForWindow(5), 1e-12)
}

func TestMapCoord(t *testing.T) {
	tests := []struct {
		name string
		mode EdgeMode
		in   []int
		want []int
	}{
		{name: "clamp", mode: EdgeClamp, in: []int{-2, -1, 0, 4, 5, 6}, want: []int{0, 0, 0, 4, 4, 4}},
		{name: "mirror", mode: EdgeMirror, in: []int{-2, -1, 0, 4, 5, 6}, want: []int{1, 0, 0, 4, 4, 3}},
		{name: "reflect101", mode: EdgeReflect101, in: []int{-2, -1, 0, 4, 5, 6}, want: []int{2, 1, 0, 4, 3, 2}},
		{name: "wrap", mode: EdgeWrap, in: []int{-2, -1, 0, 4, 5, 6}, want: []int{3, 4, 0, 4, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i, in := range tt.in {
				assert.Equal(t, tt.want[i], MapCoord(in, 5, tt.mode), "MapCoord(%d)", in)
			}
		})
	}

	assert.Equal(t, 0, MapCoord(-3, 1, EdgeReflect101))
}

func TestPoolReusesMatchingPlanes(t *testing.T) {
	var nilPool *Pool
	assert.NotNil(t, nilPool.GetGray(image.Rect(0, 0, 2, 2)))
	nilPool.PutGray(nil)

	pool := &Pool{}
	b := image.Rect(0, 0, 4, 4)
	g := pool.GetGray(b)
	pool.PutGray(g)

	other := pool.GetGray(image.Rect(0, 0, 3, 3))
	assert.Equal(t, image.Rect(0, 0, 3, 3), other.Rect)
}

func TestGaussianMeanSmoothsImpulse(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 11, 11))
	img.Pix[5*img.Stride+5] = 255
	out := GaussianMean(img, 2, Options{Radius: 5, Edge: EdgeReflect101})

	centre := out.Pix[5*out.Stride+5]
	k := GaussianKernel(5, 2)
	assert.Equal(t, uint8(math.Round(255*k[5]*k[5])), centre)
	assert.Less(t, out.Pix[5*out.Stride+6], centre)
}
