package antimeridian

import (
	"fmt"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/seamfix/pkg/geomengine"
)

// LineSplitter cuts a polygon along a line into the pieces on either side.
type LineSplitter interface {
	SplitByLine(p geom.Polygon, line geom.LineString) (geom.MultiPolygon, error)
}

// CutLine returns the seam in continuous space. It runs past the poles so
// the cut always spans the full height of a polygon.
func CutLine() geom.LineString {
	return geom.LineString{{X: 180, Y: -91}, {X: 180, Y: 91}}
}

type Splitter struct {
	engine LineSplitter
}

// NewSplitter returns a Splitter backed by e, or by the polyclip engine when
// e is nil.
func NewSplitter(e LineSplitter) *Splitter {
	if e == nil {
		e = geomengine.New()
	}
	return &Splitter{engine: e}
}

var defaultSplitter = NewSplitter(nil)

// SplitAtAntimeridian splits g with the default engine.
func SplitAtAntimeridian(g geom.Geom) (geom.Polygonal, error) {
	return defaultSplitter.Split(g)
}

// Split returns g untouched when it does not cross the seam. Otherwise every
// member polygon is shifted into continuous space, cut at 180, shifted back
// and realigned. A single resulting piece is returned as a Polygon, more than
// one as a MultiPolygon.
func (s *Splitter) Split(g geom.Geom) (geom.Polygonal, error) {
	polys, err := Polygons(g)
	if err != nil {
		return nil, err
	}
	crosses, err := IntersectsAntimeridian(g)
	if err != nil {
		return nil, err
	}
	if !crosses {
		return g.(geom.Polygonal), nil
	}

	var out geom.MultiPolygon
	for i, p := range polys {
		pieces, err := s.engine.SplitByLine(ShiftPolygon(p), CutLine())
		if err != nil {
			return nil, fmt.Errorf("split polygon %d: %w", i, err)
		}
		out = append(out, RealignMultiPolygon(UnshiftMultiPolygon(pieces))...)
	}

	switch len(out) {
	case 0:
		return nil, ErrSplitProducedNoParts
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}
