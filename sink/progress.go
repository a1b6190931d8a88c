package sink

import (
	"context"
	"io"

	"github.com/schollz/progressbar/v3"

	"github.com/nvr-ai/go-busstop/controller"
)

// Progress advances a terminal progress bar once per result.
type Progress struct {
	bar *progressbar.ProgressBar
}

// NewProgress creates a bar for total frames written to w. A total of 0 or
// less shows a spinner.
func NewProgress(total int, w io.Writer) *Progress {
	if total <= 0 {
		total = -1
	}
	return &Progress{bar: progressbar.NewOptions(total,
		progressbar.OptionSetDescription("🚌 Analyzing frames"),
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
	)}
}

// Show advances the bar by one frame.
func (p *Progress) Show(ctx context.Context, result controller.Result) error {
	return p.bar.Add(1)
}

// Current returns the number of frames counted so far.
func (p *Progress) Current() int64 {
	return p.bar.State().CurrentNum
}

// Close completes the bar.
func (p *Progress) Close() error {
	return p.bar.Finish()
}
