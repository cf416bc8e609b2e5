// Package geoext binds the antimeridian and CRS operations to a polygonal
// geometry value.
package geoext

import (
	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
	"github.com/mohammed-shakir/seamfix/pkg/crs"
)

// Capabilities is the set of seam and CRS operations available on a wrapped
// geometry.
type Capabilities interface {
	IntersectsAntimeridian() (bool, error)
	SplitAtAntimeridian() (geom.Polygonal, error)
	EstimateUTM(src crs.Spec) (*crs.CRS, error)
	ToCRS(src, dst crs.Spec) (geom.Geom, error)
}

// Extension wraps a Polygon or MultiPolygon. It holds no state beyond the
// geometry and the splitter, so it is safe to share.
type Extension struct {
	g        geom.Polygonal
	splitter *antimeridian.Splitter
	datum    string
}

var _ Capabilities = (*Extension)(nil)

type Option func(*Extension)

func WithSplitter(s *antimeridian.Splitter) Option {
	return func(e *Extension) {
		if s != nil {
			e.splitter = s
		}
	}
}

func WithDatum(d string) Option {
	return func(e *Extension) { e.datum = d }
}

// New fails with antimeridian.ErrInvalidGeometryType unless g is a Polygon
// or MultiPolygon.
func New(g geom.Geom, opts ...Option) (*Extension, error) {
	if _, err := antimeridian.Polygons(g); err != nil {
		return nil, err
	}
	e := &Extension{
		g:        g.(geom.Polygonal),
		splitter: antimeridian.NewSplitter(nil),
		datum:    crs.DatumWGS84,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

func (e *Extension) Geometry() geom.Polygonal { return e.g }

func (e *Extension) IntersectsAntimeridian() (bool, error) {
	return antimeridian.IntersectsAntimeridian(e.g)
}

func (e *Extension) SplitAtAntimeridian() (geom.Polygonal, error) {
	return e.splitter.Split(e.g)
}

func (e *Extension) EstimateUTM(src crs.Spec) (*crs.CRS, error) {
	return crs.EstimateUTM(e.g, src, e.datum)
}

func (e *Extension) ToCRS(src, dst crs.Spec) (geom.Geom, error) {
	return crs.Reproject(e.g, src, dst)
}
