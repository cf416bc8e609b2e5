// Package antimeridian detects and splits polygons whose rings were stored
// straddling the ±180° longitude seam.
package antimeridian

import (
	"errors"
	"fmt"
	"math"

	"github.com/ctessum/geom"
)

var (
	ErrInvalidGeometryType  = errors.New("geometry must be a Polygon or MultiPolygon")
	ErrSplitProducedNoParts = errors.New("antimeridian split produced no parts")
)

// MaxWidth is the widest exterior longitude span a correctly wrapped polygon
// is assumed to have.
const MaxWidth = 180.0

// Polygons decomposes g into its member polygons. A Polygon decomposes into a
// list of one.
func Polygons(g geom.Geom) ([]geom.Polygon, error) {
	switch t := g.(type) {
	case geom.Polygon:
		return []geom.Polygon{t}, nil
	case geom.MultiPolygon:
		return []geom.Polygon(t), nil
	case *geom.Polygon:
		if t != nil {
			return []geom.Polygon{*t}, nil
		}
	case *geom.MultiPolygon:
		if t != nil {
			return []geom.Polygon(*t), nil
		}
	}
	return nil, fmt.Errorf("%w: got %T", ErrInvalidGeometryType, g)
}

// IntersectsAntimeridian reports whether any polygon in g has an exterior
// longitude span wider than MaxWidth.
func IntersectsAntimeridian(g geom.Geom) (bool, error) {
	polys, err := Polygons(g)
	if err != nil {
		return false, err
	}
	for _, p := range polys {
		if exteriorWidth(p) > MaxWidth {
			return true, nil
		}
	}
	return false, nil
}

// OutOfRange reports whether any exterior longitude lies outside [-180,180].
//
// Legacy predicate kept for callers that relied on it; it misses rings that
// were stored with mixed signs and is not used by the splitter.
func OutOfRange(g geom.Geom) (bool, error) {
	polys, err := Polygons(g)
	if err != nil {
		return false, err
	}
	for _, p := range polys {
		if len(p) == 0 {
			continue
		}
		for _, pt := range p[0] {
			if pt.X < -180 || pt.X > 180 {
				return true, nil
			}
		}
	}
	return false, nil
}

func exteriorWidth(p geom.Polygon) float64 {
	lo, hi, ok := exteriorRange(p)
	if !ok {
		return 0
	}
	return hi - lo
}

func exteriorRange(p geom.Polygon) (lo, hi float64, ok bool) {
	if len(p) == 0 || len(p[0]) == 0 {
		return 0, 0, false
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, pt := range p[0] {
		lo = math.Min(lo, pt.X)
		hi = math.Max(hi, pt.X)
	}
	return lo, hi, true
}
