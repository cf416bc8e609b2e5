// Package geomengine provides the split-by-line primitive on top of the
// polyclip boolean operations in github.com/ctessum/geom.
package geomengine

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

var ErrUnsupportedLine = errors.New("only vertical cut lines are supported")

// DefaultSnap is the distance within which clipped vertices are moved onto
// the cut line.
const DefaultSnap = 1e-9

type Engine struct {
	snap float64
}

type Option func(*Engine)

func WithSnap(d float64) Option {
	return func(e *Engine) { e.snap = d }
}

func New(opts ...Option) *Engine {
	e := &Engine{snap: DefaultSnap}
	for _, f := range opts {
		f(e)
	}
	return e
}

// SplitByLine cuts p along the vertical line and returns the pieces west of
// the line followed by the pieces east of it. When the line does not cross p
// the result holds a copy of p alone.
func (e *Engine) SplitByLine(p geom.Polygon, line geom.LineString) (geom.MultiPolygon, error) {
	x0, ylo, yhi, err := verticalExtent(line)
	if err != nil {
		return nil, err
	}
	if len(p) == 0 || len(p[0]) == 0 {
		return geom.MultiPolygon{}, nil
	}

	b := p.Bounds()
	if x0 <= b.Min.X || x0 >= b.Max.X || ylo > b.Min.Y || yhi < b.Max.Y {
		return geom.MultiPolygon{clonePolygon(p)}, nil
	}

	west := box(b.Min.X-1, ylo, x0, yhi)
	east := box(x0, ylo, b.Max.X+1, yhi)

	var out geom.MultiPolygon
	for _, half := range []geom.Polygon{west, east} {
		rings := e.snapRings(p.Intersection(half), x0)
		out = append(out, Assemble(rings)...)
	}
	return out, nil
}

func verticalExtent(line geom.LineString) (x0, ylo, yhi float64, err error) {
	if len(line) < 2 {
		return 0, 0, 0, fmt.Errorf("cut line needs at least 2 points, got %d", len(line))
	}
	x0 = line[0].X
	ylo, yhi = math.Inf(1), math.Inf(-1)
	for _, pt := range line {
		if pt.X != x0 {
			return 0, 0, 0, ErrUnsupportedLine
		}
		ylo = math.Min(ylo, pt.Y)
		yhi = math.Max(yhi, pt.Y)
	}
	if ylo == yhi {
		return 0, 0, 0, fmt.Errorf("cut line has zero length")
	}
	return x0, ylo, yhi, nil
}

func box(x1, y1, x2, y2 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x1, Y: y1}, {X: x2, Y: y1}, {X: x2, Y: y2}, {X: x1, Y: y2}, {X: x1, Y: y1},
	}}
}

// polyclip computes cut vertices with rounding error; pull them back onto x0
// so downstream code can compare against the cut exactly.
func (e *Engine) snapRings(rings geom.Polygon, x0 float64) geom.Polygon {
	out := make(geom.Polygon, 0, len(rings))
	for _, r := range rings {
		nr := make([]geom.Point, len(r))
		for i, pt := range r {
			if math.Abs(pt.X-x0) <= e.snap {
				pt.X = x0
			}
			nr[i] = pt
		}
		out = append(out, nr)
	}
	return out
}

func clonePolygon(p geom.Polygon) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, r := range p {
		out[i] = append([]geom.Point(nil), r...)
	}
	return out
}
