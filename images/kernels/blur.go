package kernels

import (
	"image"
	"math"
	"sync"
)

// EdgeMode defines how sampling behaves outside the image bounds.
// - Clamp: repeats edge pixels (OpenCV BORDER_REPLICATE).
// - Mirror: reflects coordinates including the edge pixel (BORDER_REFLECT).
// - Reflect101: reflects coordinates around the edge pixel (BORDER_REFLECT_101).
// - Wrap: tiles the image (for periodic patterns).
type EdgeMode int

const (
	EdgeClamp EdgeMode = iota
	EdgeMirror
	EdgeReflect101
	EdgeWrap
)

// Options configures a local-mean call.
type Options struct {
	Radius   int      // Window half size (window = 2*Radius + 1). Must be >= 0.
	Edge     EdgeMode // Edge sampling mode.
	Pool     *Pool    // Optional buffer pool for dst reuse.
	Parallel bool     // Enable row/column parallelism (good for 1080p+).
}

// Pool lets callers reuse single-channel planes across frames to reduce GC
// pressure at video rates.
type Pool struct {
	gray sync.Pool // *image.Gray
}

func (p *Pool) GetGray(bounds image.Rectangle) *image.Gray {
	if p == nil {
		return image.NewGray(bounds)
	}
	if v := p.gray.Get(); v != nil {
		img := v.(*image.Gray)
		if img.Rect == bounds {
			return img
		}
	}
	return image.NewGray(bounds)
}

func (p *Pool) PutGray(img *image.Gray) {
	if p == nil || img == nil {
		return
	}
	// The next writer fully overwrites the plane.
	p.gray.Put(img)
}

// BoxMean computes the normalized (2r+1)x(2r+1) box average of every pixel
// of a single-channel plane.
//
// Horizontal window sums are kept as exact integers and the division happens
// once per output pixel, so the result equals round(sum / window²) with no
// intermediate rounding. This matches a normalized OpenCV boxFilter on 8-bit
// input.
//
// Performance: O(W*H) per pass, independent of Radius.
//
// Returns a new *image.Gray with src bounds. If Options.Pool is provided, the
// destination may be reused.
func BoxMean(src *image.Gray, opt Options) *image.Gray {
	b := src.Rect
	dst := opt.Pool.GetGray(b)
	r := opt.Radius
	if r <= 0 {
		copyGray(dst, src)
		return dst
	}

	w := b.Dx()
	h := b.Dy()
	if w == 0 || h == 0 {
		return dst
	}

	// Horizontal pass: rowSums[y*w+x] = sum over the horizontal window.
	rowSums := make([]uint32, w*h)
	rowTask := func(y int) {
		rowStart := y * src.Stride
		load := func(xRel int) uint32 {
			return uint32(src.Pix[rowStart+MapCoord(xRel, w, opt.Edge)])
		}
		var sum uint32
		for dx := -r; dx <= r; dx++ {
			sum += load(dx)
		}
		for x := 0; x < w; x++ {
			rowSums[y*w+x] = sum
			// Remove the sample leaving at x-r, add the one entering at x+r+1.
			sum += load(x+r+1) - load(x-r)
		}
	}
	forEach(h, opt.Parallel, rowTask)

	// Vertical pass over the horizontal sums.
	area := uint32((2*r + 1) * (2*r + 1))
	colTask := func(x int) {
		load := func(yRel int) uint32 {
			return rowSums[MapCoord(yRel, h, opt.Edge)*w+x]
		}
		var sum uint32
		for dy := -r; dy <= r; dy++ {
			sum += load(dy)
		}
		for y := 0; y < h; y++ {
			dst.Pix[y*dst.Stride+x] = uint8((sum + area/2) / area)
			sum += load(y+r+1) - load(y-r)
		}
	}
	forEach(w, opt.Parallel, colTask)

	return dst
}

// GaussianMean computes the Gaussian-weighted local mean of a plane using a
// separable kernel of 2*Radius+1 taps. A non-positive sigma derives sigma from
// the window size the way OpenCV getGaussianKernel does.
func GaussianMean(src *image.Gray, sigma float64, opt Options) *image.Gray {
	b := src.Rect
	dst := opt.Pool.GetGray(b)
	r := opt.Radius
	if r <= 0 {
		copyGray(dst, src)
		return dst
	}
	if sigma <= 0 {
		sigma = SigmaForWindow(2*r + 1)
	}

	w := b.Dx()
	h := b.Dy()
	if w == 0 || h == 0 {
		return dst
	}

	kernel := GaussianKernel(r, sigma)

	tmp := make([]float64, w*h)
	forEach(h, opt.Parallel, func(y int) {
		rowStart := y * src.Stride
		for x := 0; x < w; x++ {
			var acc float64
			for i, weight := range kernel {
				acc += float64(src.Pix[rowStart+MapCoord(x+i-r, w, opt.Edge)]) * weight
			}
			tmp[y*w+x] = acc
		}
	})

	forEach(w, opt.Parallel, func(x int) {
		for y := 0; y < h; y++ {
			var acc float64
			for i, weight := range kernel {
				acc += tmp[MapCoord(y+i-r, h, opt.Edge)*w+x] * weight
			}
			dst.Pix[y*dst.Stride+x] = uint8(math.Min(math.Max(math.Round(acc), 0), 255))
		}
	})

	return dst
}

// GaussianKernel creates a normalized 1D Gaussian kernel of 2*radius+1 taps.
func GaussianKernel(radius int, sigma float64) []float64 {
	size := 2*radius + 1
	kernel := make([]float64, size)

	denom := 2.0 * sigma * sigma
	sum := 0.0
	for i := 0; i < size; i++ {
		x := float64(i - radius)
		kernel[i] = math.Exp(-(x * x) / denom)
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	return kernel
}

// SigmaForWindow returns the default Gaussian sigma OpenCV uses for an
// odd window size when no sigma is given.
func SigmaForWindow(size int) float64 {
	return 0.3*(float64(size-1)*0.5-1) + 0.8
}

// copyGray copies src into dst; both must share bounds.
func copyGray(dst, src *image.Gray) {
	h := src.Rect.Dy()
	w := src.Rect.Dx()
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
	}
}

// forEach runs task for every index in [0, n), chunked across goroutines when
// parallel is set. It returns after every task has finished.
func forEach(n int, parallel bool, task func(i int)) {
	if !parallel || n < 4 {
		for i := 0; i < n; i++ {
			task(i)
		}
		return
	}

	chunk := chooseChunk(n)
	var wg sync.WaitGroup
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				task(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// MapCoord maps an index i to [0, n) according to edge mode.
// For Clamp: clamp to [0, n-1].
// For Mirror: -2,-1,0,1,2 -> 1,0,0,1,2 (edge pixel repeated).
// For Reflect101: -2,-1,0,1,2 -> 2,1,0,1,2 (edge pixel not repeated).
// For Wrap: modulo wrap to [0, n).
func MapCoord(i, n int, mode EdgeMode) int {
	if n <= 1 {
		return 0
	}
	switch mode {
	case EdgeMirror:
		for i < 0 || i >= n {
			if i < 0 {
				i = -i - 1
			} else {
				i = 2*n - i - 1
			}
		}
		return i
	case EdgeReflect101:
		for i < 0 || i >= n {
			if i < 0 {
				i = -i
			} else {
				i = 2*n - i - 2
			}
		}
		return i
	case EdgeWrap:
		i %= n
		if i < 0 {
			i += n
		}
		return i
	default:
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
}

// chooseChunk picks a work chunk size that balances overhead and cache locality.
func chooseChunk(n int) int {
	switch {
	case n >= 2048:
		return 128
	case n >= 512:
		return 64
	default:
		return 32
	}
}
