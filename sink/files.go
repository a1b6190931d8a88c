package sink

import (
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/fogleman/gg"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/controller"
	"github.com/nvr-ai/go-busstop/images"
)

// Files writes one mask PNG per ready frame and one annotated preview PNG
// per frame into a directory.
type Files struct {
	dir       string
	maxWidth  int
	maxHeight int
	written   int
}

// FilesOptions configures a Files sink.
type FilesOptions struct {
	// Dir is created if it does not exist.
	Dir string
	// PreviewWidth and PreviewHeight bound the preview size (default 600x400).
	PreviewWidth  int
	PreviewHeight int
}

// NewFiles creates the output directory and returns the sink.
func NewFiles(opts FilesOptions) (*Files, error) {
	if opts.Dir == "" {
		return nil, errors.New("files sink: output directory is required")
	}
	if opts.PreviewWidth <= 0 {
		opts.PreviewWidth = 600
	}
	if opts.PreviewHeight <= 0 {
		opts.PreviewHeight = 400
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create output directory")
	}
	return &Files{dir: opts.Dir, maxWidth: opts.PreviewWidth, maxHeight: opts.PreviewHeight}, nil
}

// MaskPath returns the file a frame's fused mask is written to.
func (f *Files) MaskPath(frameID int) string {
	return filepath.Join(f.dir, fmt.Sprintf("mask-%06d.png", frameID))
}

// PreviewPath returns the file a frame's annotated preview is written to.
func (f *Files) PreviewPath(frameID int) string {
	return filepath.Join(f.dir, fmt.Sprintf("preview-%06d.png", frameID))
}

// Written returns the number of files written so far.
func (f *Files) Written() int { return f.written }

// Show writes the files of one result.
func (f *Files) Show(ctx context.Context, result controller.Result) error {
	if result.Ready {
		if err := writePNG(f.MaskPath(result.FrameID), result.Fused.ToGray()); err != nil {
			return err
		}
		f.written++
	}

	if result.Raw.Empty() {
		return nil
	}
	preview := images.FitWithin(Annotate(result), f.maxWidth, f.maxHeight)
	if err := writePNG(f.PreviewPath(result.FrameID), preview); err != nil {
		return err
	}
	f.written++
	return nil
}

// Close is a no-op.
func (f *Files) Close() error { return nil }

// Annotate draws the platform quadrilateral and the frame metrics over the
// raw frame.
func Annotate(result controller.Result) image.Image {
	dc := gg.NewContextForImage(result.Raw.ToImage())

	if n := len(result.Quad); n > 0 {
		dc.SetRGB(0, 1, 0)
		dc.SetLineWidth(2)
		for i, p := range result.Quad {
			if i == 0 {
				dc.MoveTo(p.X, p.Y)
				continue
			}
			dc.LineTo(p.X, p.Y)
		}
		if result.Quad.Defined() {
			dc.ClosePath()
		}
		dc.Stroke()

		dc.SetRGB(1, 0, 0)
		for _, p := range result.Quad {
			dc.DrawCircle(p.X, p.Y, 4)
			dc.Fill()
		}
	}

	lines := []string{fmt.Sprintf("frame %d", result.FrameID)}
	if result.Ready {
		lines = append(lines, fmt.Sprintf("foreground %.1f%%", result.Ratio*100))
		sections := make([]string, len(result.Sections))
		for i, s := range result.Sections {
			sections[i] = fmt.Sprintf("%.0f%%", s*100)
		}
		lines = append(lines, "sections "+strings.Join(sections, " "))
	} else {
		lines = append(lines, result.Reason)
	}

	dc.SetRGB(1, 1, 1)
	for i, line := range lines {
		dc.DrawString(line, 10, float64(20+i*16))
	}

	return dc.Image()
}

func writePNG(path string, img image.Image) error {
	out, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := png.Encode(out, img); err != nil {
		out.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return out.Close()
}
