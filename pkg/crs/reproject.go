package crs

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
)

// Reproject transforms every coordinate of g from src to dst. g must be a
// Polygon or MultiPolygon and both sides are checked before any work is done.
// When the resolved systems are identical g is returned as is.
func Reproject(g geom.Geom, src, dst Spec) (geom.Geom, error) {
	if _, err := antimeridian.Polygons(g); err != nil {
		return nil, err
	}
	if src.IsZero() {
		return nil, fmt.Errorf("source: %w", ErrMissingCRS)
	}
	if dst.IsZero() {
		return nil, fmt.Errorf("destination: %w", ErrMissingCRS)
	}
	from, err := Resolve(src)
	if err != nil {
		return nil, err
	}
	to, err := Resolve(dst)
	if err != nil {
		return nil, err
	}
	return ReprojectCRS(g, from, to)
}

// ReprojectCRS is Reproject for already resolved systems.
func ReprojectCRS(g geom.Geom, from, to *CRS) (geom.Geom, error) {
	if _, err := antimeridian.Polygons(g); err != nil {
		return nil, err
	}
	if from.IsExactSame(to) {
		return g, nil
	}
	t, err := from.NewTransform(to)
	if err != nil {
		return nil, err
	}
	out, err := transform(g, t)
	if err != nil {
		return nil, fmt.Errorf("reproject %s -> %s: %w", from, to, err)
	}
	return out, nil
}

// geom.MultiPolygon.Transform asserts on the member result before checking
// its error, so members are transformed one by one here.
func transform(g geom.Geom, t proj.Transformer) (geom.Geom, error) {
	mp, ok := g.(geom.MultiPolygon)
	if !ok {
		return g.Transform(t)
	}
	out := make(geom.MultiPolygon, len(mp))
	for i, p := range mp {
		pg, err := p.Transform(t)
		if err != nil {
			return nil, err
		}
		out[i] = pg.(geom.Polygon)
	}
	return out, nil
}
