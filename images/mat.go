package images

import (
	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// FrameFromMat copies an 8-bit OpenCV Mat into a BGR frame.
//
// Single channel and BGRA mats are expanded to BGR. An empty Mat yields an
// empty frame and no error, which sources use to signal end of stream.
//
// Arguments:
// - mat: Source Mat. It is not modified or closed.
//
// Returns:
// - The BGR frame, or an error for unsupported Mat types.
//
// @example
// webcam.Read(&mat)
// frame, err := FrameFromMat(mat)
func FrameFromMat(mat gocv.Mat) (Frame, error) {
	if mat.Empty() {
		return Frame{}, nil
	}

	switch mat.Type() {
	case gocv.MatTypeCV8UC3:
		f := NewFrame(mat.Cols(), mat.Rows(), SpaceBGR)
		copy(f.Pix, mat.ToBytes())
		return f, nil
	case gocv.MatTypeCV8UC1, gocv.MatTypeCV8UC4:
		code := gocv.ColorGrayToBGR
		if mat.Type() == gocv.MatTypeCV8UC4 {
			code = gocv.ColorBGRAToBGR
		}
		bgr := gocv.NewMat()
		defer bgr.Close()
		gocv.CvtColor(mat, &bgr, code)
		return FrameFromMat(bgr)
	default:
		return Frame{}, errors.Errorf("unsupported mat type %v", mat.Type())
	}
}

// ToMat copies the frame into a new CV_8UC3 Mat. The caller owns the Mat and
// must Close it.
func (f Frame) ToMat() (gocv.Mat, error) {
	if f.Empty() {
		return gocv.NewMat(), nil
	}
	mat, err := gocv.NewMatFromBytes(f.Height, f.Width, gocv.MatTypeCV8UC3, f.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "frame to mat")
	}
	defer mat.Close()
	return mat.Clone(), nil
}

// ToMat copies the mask into a new CV_8UC1 Mat. The caller owns the Mat and
// must Close it.
func (m Mask) ToMat() (gocv.Mat, error) {
	if m.Empty() {
		return gocv.NewMat(), nil
	}
	mat, err := gocv.NewMatFromBytes(m.Height, m.Width, gocv.MatTypeCV8UC1, m.Pix)
	if err != nil {
		return gocv.NewMat(), errors.Wrap(err, "mask to mat")
	}
	defer mat.Close()
	return mat.Clone(), nil
}

// MaskFromMat binarizes a single channel 8-bit Mat: every non-zero element
// becomes 255.
func MaskFromMat(mat gocv.Mat) (Mask, error) {
	if mat.Empty() {
		return Mask{}, nil
	}
	if mat.Type() != gocv.MatTypeCV8UC1 {
		return Mask{}, errors.Errorf("unsupported mask mat type %v", mat.Type())
	}
	m := NewMask(mat.Cols(), mat.Rows())
	for i, v := range mat.ToBytes() {
		if v != 0 {
			m.Pix[i] = 255
		}
	}
	return m, nil
}
