package h3mapper

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ctessum/geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/internal/mapper"
	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
)

type Mapper struct{}

var _ mapper.Interface = (*Mapper)(nil)

func New() *Mapper { return &Mapper{} }

// CellsForBBox covers a lon/lat box. A box with X1 > X2 crosses the
// antimeridian and is covered as its two halves.
func (m *Mapper) CellsForBBox(bb model.BBox, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	if bb.Y1 >= bb.Y2 || bb.X1 == bb.X2 {
		return nil, fmt.Errorf("degenerate bbox %s", bb)
	}
	if !bb.CrossesAntimeridian() {
		return polyfillOne(boxLoop(bb.X1, bb.Y1, bb.X2, bb.Y2), nil, res)
	}

	east, err := polyfillOne(boxLoop(bb.X1, bb.Y1, 180, bb.Y2), nil, res)
	if err != nil {
		return nil, err
	}
	west, err := polyfillOne(boxLoop(-180, bb.Y1, bb.X2, bb.Y2), nil, res)
	if err != nil {
		return nil, err
	}
	return merge(east, west), nil
}

// CellsForPolygonal covers every member polygon; ring 0 is the exterior and
// the remaining rings are holes.
func (m *Mapper) CellsForPolygonal(p geom.Polygonal, res int) (model.Cells, error) {
	if err := validateRes(res); err != nil {
		return nil, err
	}
	polys, err := antimeridian.Polygons(p)
	if err != nil {
		return nil, err
	}
	if len(polys) == 0 {
		return nil, errors.New("empty multipolygon")
	}

	var out model.Cells
	for pi, poly := range polys {
		if len(poly) == 0 {
			return nil, fmt.Errorf("polygon %d is empty", pi)
		}
		outer := toLoop(poly[0])
		if len(outer) < 3 {
			return nil, fmt.Errorf("polygon %d outer ring has < 3 distinct vertices", pi)
		}
		var holes []h3.GeoLoop
		for i := 1; i < len(poly); i++ {
			h := toLoop(poly[i])
			if len(h) < 3 {
				return nil, fmt.Errorf("polygon %d hole %d has < 3 distinct vertices", pi, i-1)
			}
			holes = append(holes, h)
		}
		cells, err := polyfillOne(outer, holes, res)
		if err != nil {
			return nil, fmt.Errorf("polygon %d: %w", pi, err)
		}
		out = merge(out, cells)
	}
	return out, nil
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

func boxLoop(x1, y1, x2, y2 float64) h3.GeoLoop {
	return h3.GeoLoop{
		{Lat: y1, Lng: x1},
		{Lat: y1, Lng: x2},
		{Lat: y2, Lng: x2},
		{Lat: y2, Lng: x1},
	}
}

// Convert a ring to an h3.GeoLoop (in degrees), dropping the duplicated
// closing vertex if present.
func toLoop(ring []geom.Point) h3.GeoLoop {
	loop := make(h3.GeoLoop, 0, len(ring))
	for _, pt := range ring {
		loop = append(loop, h3.LatLng{Lat: pt.Y, Lng: pt.X})
	}
	if len(loop) >= 2 {
		last := loop[len(loop)-1]
		first := loop[0]
		if last.Lat == first.Lat && last.Lng == first.Lng {
			loop = loop[:len(loop)-1]
		}
	}
	return loop
}

// polyfillOne computes unique cells and returns them sorted for determinism.
func polyfillOne(outer h3.GeoLoop, holes []h3.GeoLoop, res int) (model.Cells, error) {
	if len(outer) < 3 {
		return nil, errors.New("outer ring has < 3 distinct vertices")
	}
	poly := h3.GeoPolygon{
		GeoLoop: outer,
		Holes:   holes,
	}

	indexes, err := h3.PolygonToCells(poly, res)
	if err != nil {
		return nil, fmt.Errorf("h3 polyfill: %w", err)
	}

	out := make(model.Cells, 0, len(indexes))
	for _, idx := range indexes {
		out = append(out, idx.String())
	}
	return merge(nil, out), nil
}

// merge returns the sorted union of a and b.
func merge(a, b model.Cells) model.Cells {
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make(model.Cells, 0, len(a)+len(b))
	for _, xs := range []model.Cells{a, b} {
		for _, s := range xs {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
