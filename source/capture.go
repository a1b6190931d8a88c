package source

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-busstop/images"
)

// maxEmptyReads is the number of consecutive empty Mats tolerated before a
// capture is considered finished.
const maxEmptyReads = 5

// Capture reads frames from a video file or capture device through OpenCV.
type Capture struct {
	target string
	vc     *gocv.VideoCapture
	img    gocv.Mat
}

// OpenCapture opens a video file path, or a device when target is an integer.
func OpenCapture(target string) (*Capture, error) {
	var (
		vc  *gocv.VideoCapture
		err error
	)
	if id, convErr := strconv.Atoi(target); convErr == nil {
		vc, err = gocv.OpenVideoCapture(id)
	} else {
		vc, err = gocv.OpenVideoCapture(target)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error opening video capture %s", target)
	}
	if !vc.IsOpened() {
		vc.Close()
		return nil, errors.Errorf("video capture %s is not open", target)
	}

	return &Capture{target: target, vc: vc, img: gocv.NewMat()}, nil
}

// Next reads and converts the next frame. When the capture has no more
// frames an empty frame is returned.
func (c *Capture) Next(ctx context.Context) (images.Frame, error) {
	for empty := 0; empty < maxEmptyReads; empty++ {
		if err := ctx.Err(); err != nil {
			return images.Frame{}, err
		}
		if ok := c.vc.Read(&c.img); !ok {
			return images.Frame{}, nil
		}
		if c.img.Empty() {
			continue
		}
		return images.FrameFromMat(c.img)
	}
	return images.Frame{}, nil
}

// Len returns the frame count reported by the container, or 0 for devices
// and streams that do not report one.
func (c *Capture) Len() int {
	n := c.vc.Get(gocv.VideoCaptureFrameCount)
	if n <= 0 {
		return 0
	}
	return int(n)
}

// Target returns the path or device id the capture was opened with.
func (c *Capture) Target() string { return c.target }

// Close releases the capture and its frame buffer.
func (c *Capture) Close() error {
	if err := c.img.Close(); err != nil {
		return err
	}
	return c.vc.Close()
}
