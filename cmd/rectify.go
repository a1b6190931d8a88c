package cmd

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/nvr-ai/go-busstop/controller"
	"github.com/nvr-ai/go-busstop/images"
	"github.com/nvr-ai/go-busstop/source"
)

var rectifyOpts struct {
	points []string
	outDir string
	webp   bool
}

var rectifyCmd = &cobra.Command{
	Use:   "rectify <image>",
	Short: "Rectify the platform region of one image and write its masks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(rectifyOpts.points) > 0 {
			points, err := parsePoints(rectifyOpts.points)
			if err != nil {
				return err
			}
			cfg.Points = points
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		return rectify(args[0], rectifyOpts.outDir, rectifyOpts.webp)
	},
}

func rectify(path, outDir string, asWebP bool) error {
	frame, err := source.ReadFrame(path)
	if err != nil {
		return err
	}

	ctrl, err := newController(cfg, nil)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	res := ctrl.Process(controller.FrameContext{
		Timestamp: time.Now(),
		Frame:     frame,
		Quad:      cfg.Points,
		Tuning:    cfg.Tuning.Clamped(),
	})
	if !res.Ready {
		return errors.Errorf("cannot rectify %s: %s", path, res.Reason)
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return errors.Wrap(err, "failed to create output directory")
	}

	written, err := writeRectified(outDir, res.Rectified, asWebP)
	if err != nil {
		return err
	}
	outputs := []string{written}

	for _, m := range res.Masks {
		out := filepath.Join(outDir, fmt.Sprintf("mask-%s.png", m.Name))
		if err := savePNG(out, m.Mask.ToGray()); err != nil {
			return err
		}
		outputs = append(outputs, out)
	}
	fused := filepath.Join(outDir, "mask-fused.png")
	if err := savePNG(fused, res.Fused.ToGray()); err != nil {
		return err
	}
	outputs = append(outputs, fused)

	log.Info("✅ platform rectified",
		"image", path,
		"width", res.Rectified.Width,
		"height", res.Rectified.Height,
		"ratio", res.Ratio,
		"sections", res.Sections,
		"files", outputs,
	)
	return nil
}

func writeRectified(dir string, f images.Frame, asWebP bool) (string, error) {
	if !asWebP {
		out := filepath.Join(dir, "rectified.png")
		return out, savePNG(out, f.ToImage())
	}

	out := filepath.Join(dir, "rectified.webp")
	w, err := os.Create(out)
	if err != nil {
		return "", errors.Wrap(err, "failed to create output file")
	}
	if err := webp.Encode(w, f.ToImage(), &webp.Options{Lossless: true}); err != nil {
		w.Close()
		return "", errors.Wrapf(err, "failed to encode %s", out)
	}
	return out, w.Close()
}

func savePNG(path string, img image.Image) error {
	w, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "failed to create output file")
	}
	if err := png.Encode(w, img); err != nil {
		w.Close()
		return errors.Wrapf(err, "failed to encode %s", path)
	}
	return w.Close()
}

func init() {
	f := rectifyCmd.Flags()
	f.StringArrayVarP(&rectifyOpts.points, "point", "p", nil, "Platform corner as x,y; repeat four times")
	f.StringVarP(&rectifyOpts.outDir, "out", "o", "rectified", "Output directory")
	f.BoolVar(&rectifyOpts.webp, "webp", false, "Write the rectified image as lossless WebP")

	rootCmd.AddCommand(rectifyCmd)
}
