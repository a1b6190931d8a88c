package geometry

import (
	"github.com/nvr-ai/go-busstop/images"
)

// Status explains why a rectification produced no frame.
type Status int

const (
	// StatusOK means the rectified frame is populated.
	StatusOK Status = iota
	// StatusNotReady means fewer than four corners have been supplied.
	StatusNotReady
	// StatusDegenerate means the corners span no area or admit no transform.
	StatusDegenerate
)

// String returns the reason label used in logs and results.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotReady:
		return "not_ready"
	case StatusDegenerate:
		return "degenerate"
	default:
		return "unknown"
	}
}

// minArea rejects quadrilaterals whose corners are collinear.
const minArea = 1e-6

// Rectification is the outcome of Rectify.
type Rectification struct {
	// Frame is the upright region, empty unless Status is StatusOK.
	Frame images.Frame
	// Homography maps source frame coordinates onto Frame coordinates.
	Homography Homography
	Status     Status
}

// Empty reports whether no rectified frame was produced.
func (r Rectification) Empty() bool {
	return r.Status != StatusOK || r.Frame.Empty()
}

// Rectify warps the region bounded by quad into an upright rectangle.
//
// The rectangle is as wide as the longer of the top and bottom edges and as
// tall as the longer of the left and right edges, both truncated to whole
// pixels. Corners are pixel centres, so the output holds one more pixel than
// the span on each axis and the four corners land on the output's corner
// pixels. An axis-aligned quad therefore reproduces its region exactly.
// Callers sizing buffers from Span alone must add one: a 300x200 span yields
// a 301x201 frame.
//
// Arguments:
// - frame: Source frame. It is not modified.
// - quad: Corners in top-left, top-right, bottom-right, bottom-left order.
//
// Returns:
// - A Rectification. Fewer than four points gives StatusNotReady; a zero span
//   or a singular transform gives StatusDegenerate.
//
// @example
// r := Rectify(frame, Quadrilateral{{0, 0}, {99, 0}, {99, 99}, {0, 99}})
// if !r.Empty() { use(r.Frame) }
func Rectify(frame images.Frame, quad Quadrilateral) Rectification {
	if !quad.Defined() {
		return Rectification{Status: StatusNotReady}
	}

	spanW, spanH := quad.Span()
	if spanW <= 0 || spanH <= 0 || quad.Area() < minArea || frame.Empty() {
		return Rectification{Status: StatusDegenerate}
	}

	w, h := float64(spanW), float64(spanH)
	dst := [4]Point2D{{0, 0}, {w, 0}, {w, h}, {0, h}}
	src := [4]Point2D{quad[0], quad[1], quad[2], quad[3]}

	forward, err := SolveHomography(src, dst)
	if err != nil {
		return Rectification{Status: StatusDegenerate}
	}
	inverse, err := forward.Inverse()
	if err != nil {
		return Rectification{Status: StatusDegenerate}
	}

	return Rectification{
		Frame:      Warp(frame, inverse, spanW+1, spanH+1),
		Homography: forward,
		Status:     StatusOK,
	}
}
