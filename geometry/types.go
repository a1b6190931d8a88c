// Package geometry rectifies a perspectively distorted quadrilateral of a
// frame into an upright rectangle.
package geometry

import (
	"image"
	"math"
)

// Point2D is a point in pixel coordinates. Pixel (x, y) has its centre at
// (x, y).
type Point2D struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
}

// Distance returns the Euclidean distance to another point.
func (p Point2D) Distance(other Point2D) float64 {
	return math.Hypot(p.X-other.X, p.Y-other.Y)
}

// ImagePoint rounds the point to the nearest pixel.
func (p Point2D) ImagePoint() image.Point {
	return image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
}

// Quadrilateral is an ordered polygon given top-left, top-right,
// bottom-right, bottom-left. It may hold fewer than 4 points while the
// region is still being collected.
type Quadrilateral []Point2D

// Defined reports whether all four corners are present.
func (q Quadrilateral) Defined() bool {
	return len(q) == 4
}

// Clone returns a copy that does not share storage with q.
func (q Quadrilateral) Clone() Quadrilateral {
	if q == nil {
		return nil
	}
	return append(Quadrilateral(nil), q...)
}

// Span returns the integer width and height of the rectangle the
// quadrilateral rectifies into: the truncated longer of each pair of
// opposite edges.
func (q Quadrilateral) Span() (width, height int) {
	if !q.Defined() {
		return 0, 0
	}
	tl, tr, br, bl := q[0], q[1], q[2], q[3]
	width = int(math.Max(tl.Distance(tr), bl.Distance(br)))
	height = int(math.Max(tl.Distance(bl), tr.Distance(br)))
	return width, height
}

// Area returns the absolute area enclosed by the quadrilateral using the
// shoelace formula.
func (q Quadrilateral) Area() float64 {
	if len(q) < 3 {
		return 0
	}
	var sum float64
	for i := range q {
		j := (i + 1) % len(q)
		sum += q[i].X*q[j].Y - q[j].X*q[i].Y
	}
	return math.Abs(sum) / 2
}
