package crs

import (
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

// DefaultDensify is the number of points sampled along each edge of a box
// by TransformBounds.
const DefaultDensify = 21

// TransformBounds projects the box b from src into dst by sampling its
// boundary. When dst is geographic and the projected boundary wraps the
// antimeridian the result has Min.X > Max.X: Min.X is the western edge east
// of the seam and Max.X the eastern edge west of it.
func TransformBounds(src, dst *CRS, b *geom.Bounds, densify int) (*geom.Bounds, error) {
	if b == nil {
		return nil, fmt.Errorf("transform bounds: nil bounds")
	}
	if densify < 2 {
		densify = DefaultDensify
	}
	t, err := src.NewTransform(dst)
	if err != nil {
		return nil, err
	}

	ring := boundaryRing(b, densify)
	xs := make([]float64, 0, len(ring))
	out := geom.NewBounds()
	for _, pt := range ring {
		x, y, err := t(pt.X, pt.Y)
		if err != nil {
			return nil, fmt.Errorf("transform bounds: %w", err)
		}
		if math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			continue
		}
		xs = append(xs, x)
		out.Extend(geom.NewBoundsPoint(geom.Point{X: x, Y: y}))
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("transform bounds: no finite points")
	}
	if dst.IsGeographic() && wraps(xs) {
		west, east := math.Inf(1), math.Inf(-1)
		for _, x := range xs {
			if x >= 0 {
				west = math.Min(west, x)
			} else {
				east = math.Max(east, x)
			}
		}
		if !math.IsInf(west, 0) && !math.IsInf(east, 0) {
			out.Min.X, out.Max.X = west, east
		}
	}
	return out, nil
}

// wraps reports a jump of more than half the globe between consecutive
// boundary longitudes.
func wraps(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if math.Abs(xs[i]-xs[i-1]) > 180 {
			return true
		}
	}
	return false
}

func boundaryRing(b *geom.Bounds, n int) []geom.Point {
	corners := []geom.Point{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}
	out := make([]geom.Point, 0, 4*(n-1))
	for i := range corners {
		a, c := corners[i], corners[(i+1)%4]
		for k := 0; k < n-1; k++ {
			f := float64(k) / float64(n-1)
			out = append(out, geom.Point{X: a.X + f*(c.X-a.X), Y: a.Y + f*(c.Y-a.Y)})
		}
	}
	return out
}
