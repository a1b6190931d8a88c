package cmd

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-busstop/geometry"
)

// parsePoints parses corners given as "x,y" strings.
func parsePoints(values []string) ([]geometry.Point2D, error) {
	points := make([]geometry.Point2D, 0, len(values))
	for _, v := range values {
		xs, ys, ok := strings.Cut(v, ",")
		if !ok {
			return nil, errors.Errorf("point %q: expected x,y", v)
		}
		x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "point %q", v)
		}
		y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
		if err != nil {
			return nil, errors.Wrapf(err, "point %q", v)
		}
		points = append(points, geometry.Point2D{X: x, Y: y})
	}
	return points, nil
}
