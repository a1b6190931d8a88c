// Package sink provides the destinations of pipeline results: an OpenCV
// display window, a directory of PNG files and a discarding sink.
package sink

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/controller"
)

// ErrStop is returned by Show when the user asked to end the run.
var ErrStop = controller.ErrStop

// Sink receives the outcome of every processed frame.
type Sink interface {
	Show(ctx context.Context, result controller.Result) error
	Close() error
}

// Null discards results and counts them.
type Null struct {
	Count int
}

// Show counts the result.
func (n *Null) Show(ctx context.Context, result controller.Result) error {
	n.Count++
	return nil
}

// Close is a no-op.
func (n *Null) Close() error { return nil }

// Multi fans a result out to several sinks in order.
type Multi []Sink

// Show forwards the result to every sink. ErrStop from any sink is returned
// after the remaining sinks have been shown the result. Otherwise the first
// error is returned.
func (m Multi) Show(ctx context.Context, result controller.Result) error {
	var (
		stop  bool
		first error
	)
	for _, s := range m {
		err := s.Show(ctx, result)
		switch {
		case err == nil:
		case errors.Is(err, ErrStop):
			stop = true
		case first == nil:
			first = err
		}
	}
	if stop {
		return ErrStop
	}
	return first
}

// Close closes every sink and returns the first error.
func (m Multi) Close() error {
	var first error
	for _, s := range m {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
