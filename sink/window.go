package sink

import (
	"context"

	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-busstop/controller"
	"github.com/nvr-ai/go-busstop/input"
)

const (
	// WindowTitle is the title of the display window.
	WindowTitle = "Bus station"
	// WindowWidth and WindowHeight size the display window.
	WindowWidth  = 600
	WindowHeight = 400
	// KeyDelay is how long Show waits for a key press, in milliseconds.
	KeyDelay = 30
)

// Tuner receives tuning changes made through the window's trackbars.
type Tuner interface {
	Tuning() input.Tuning
	SetChromaPercent(v int)
	SetWhitePercentile(v int)
}

// Window shows results in an OpenCV window with two trackbars controlling
// the chroma threshold and the white percentile. Any key press ends the run.
type Window struct {
	window     *gocv.Window
	chroma     *gocv.Trackbar
	percentile *gocv.Trackbar
	tuner      Tuner
}

// NewWindow opens the display window.
//
// Arguments:
// - tuner: Receives trackbar changes. nil disables the trackbars.
//
// Returns:
// - The window sink. Close it to destroy the window.
func NewWindow(tuner Tuner) *Window {
	w := &Window{window: gocv.NewWindow(WindowTitle), tuner: tuner}
	w.window.ResizeWindow(WindowWidth, WindowHeight)

	if tuner != nil {
		t := tuner.Tuning()
		w.chroma = w.window.CreateTrackbar("chroma %", 100)
		w.chroma.SetPos(t.ChromaPercent)
		w.percentile = w.window.CreateTrackbar("white pct", 100)
		w.percentile.SetPos(t.WhitePercentile)
	}
	return w
}

// Show displays the fused mask, or the raw frame while no mask is available,
// then polls the trackbars and the keyboard.
func (w *Window) Show(ctx context.Context, result controller.Result) error {
	out := result.Output()
	if !out.Empty() {
		mat, err := out.ToMat()
		if err != nil {
			return err
		}
		w.window.IMShow(mat)
		mat.Close()
	}

	if w.tuner != nil {
		w.tuner.SetChromaPercent(w.chroma.GetPos())
		w.tuner.SetWhitePercentile(w.percentile.GetPos())
	}

	if key := w.window.WaitKey(KeyDelay); key >= 0 {
		return ErrStop
	}
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}
