package h3mapper

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
)

func ring(xy ...float64) []geom.Point {
	out := make([]geom.Point, 0, len(xy)/2)
	for i := 0; i+1 < len(xy); i += 2 {
		out = append(out, geom.Point{X: xy[i], Y: xy[i+1]})
	}
	return out
}

func TestBBox_HappyPath_SortedUnique(t *testing.T) {
	m := New()
	bb := model.BBox{X1: 17.95, Y1: 59.30, X2: 18.15, Y2: 59.40, SRID: "EPSG:4326"}

	cells, err := m.CellsForBBox(bb, 8)
	if err != nil {
		t.Fatalf("CellsForBBox err: %v", err)
	}
	if len(cells) == 0 {
		t.Fatalf("expected non-empty cells for bbox")
	}
	if !sort.StringsAreSorted([]string(cells)) {
		t.Fatalf("cells must be sorted")
	}
	if hasDups(cells) {
		t.Fatalf("cells must be de-duplicated")
	}
}

func TestPolygon_SubsetOfBBoxAndDeterministic(t *testing.T) {
	m := New()
	bb := model.BBox{X1: 17.95, Y1: 59.30, X2: 18.15, Y2: 59.40, SRID: "EPSG:4326"}

	poly := geom.Polygon{ring(18.00, 59.32, 18.12, 59.32, 18.12, 59.38, 18.00, 59.38, 18.00, 59.32)}
	res := 9
	cp, err := m.CellsForPolygonal(poly, res)
	if err != nil {
		t.Fatalf("polygon: %v", err)
	}
	cb, err := m.CellsForBBox(bb, res)
	if err != nil {
		t.Fatalf("bbox: %v", err)
	}
	if len(cp) == 0 {
		t.Fatalf("expected non-empty polygon coverage")
	}
	if !sort.StringsAreSorted([]string(cp)) || hasDups(cp) {
		t.Fatalf("polygon cells must be sorted + unique")
	}
	cp2, err := m.CellsForPolygonal(poly, res)
	if err != nil {
		t.Fatalf("polygon second call: %v", err)
	}
	if !reflect.DeepEqual(cp, cp2) {
		t.Fatalf("expected identical output for identical input")
	}
	if len(cp) > len(cb) {
		t.Fatalf("polygon coverage larger than bbox coverage (unexpected)")
	}
}

func TestSeamBBox_CoversBothSides(t *testing.T) {
	m := New()
	bb := model.BBox{X1: 179.5, Y1: -1, X2: -179.5, Y2: 1}
	if !bb.CrossesAntimeridian() {
		t.Fatalf("box should cross")
	}

	cells, err := m.CellsForBBox(bb, 5)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	var east, west bool
	for _, s := range cells {
		var c h3.Cell
		if err := c.UnmarshalText([]byte(s)); err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		ll, err := c.LatLng()
		if err != nil {
			t.Fatalf("LatLng %s: %v", s, err)
		}
		if ll.Lng > 170 {
			east = true
		}
		if ll.Lng < -170 {
			west = true
		}
		if ll.Lng > -170 && ll.Lng < 170 {
			t.Fatalf("cell %s at lng %f is far from the seam", s, ll.Lng)
		}
	}
	if !east || !west {
		t.Fatalf("expected cells on both sides; east=%v west=%v", east, west)
	}
	if hasDups(cells) || !sort.StringsAreSorted([]string(cells)) {
		t.Fatalf("cells must be sorted + unique")
	}
}

func TestSplitPolygon_MatchesSeamBox(t *testing.T) {
	m := New()
	seam := geom.Polygon{ring(179.5, -1, -179.5, -1, -179.5, 1, 179.5, 1, 179.5, -1)}
	parts, err := antimeridian.SplitAtAntimeridian(seam)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	fromPoly, err := m.CellsForPolygonal(parts, 5)
	if err != nil {
		t.Fatalf("CellsForPolygonal: %v", err)
	}
	fromBox, err := m.CellsForBBox(model.BBox{X1: 179.5, Y1: -1, X2: -179.5, Y2: 1}, 5)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	if !reflect.DeepEqual(fromPoly, fromBox) {
		t.Fatalf("split polygon and seam box coverage differ:\n poly=%v\n box=%v", fromPoly, fromBox)
	}
}

func TestBounds_InvalidResolutionAndDegeneratePolygon(t *testing.T) {
	m := New()
	bb := model.BBox{X1: 11, Y1: 55, X2: 12, Y2: 56, SRID: "EPSG:4326"}

	if _, err := m.CellsForBBox(bb, -1); err == nil {
		t.Fatalf("expected error for res=-1")
	}
	if _, err := m.CellsForBBox(bb, 16); err == nil {
		t.Fatalf("expected error for res=16")
	}
	if _, err := m.CellsForBBox(model.BBox{X1: 1, Y1: 2, X2: 3, Y2: 2}, 5); err == nil {
		t.Fatalf("expected error for zero-height bbox")
	}

	if _, err := m.CellsForPolygonal(geom.Polygon{{}}, 8); err == nil {
		t.Fatalf("expected error for degenerate polygon")
	}
	if _, err := m.CellsForPolygonal(geom.Polygon{ring(0, 0, 1, 0, 0, 0)}, 8); err == nil ||
		!strings.Contains(err.Error(), "distinct vertices") {
		t.Fatalf("expected vertex count error, got %v", err)
	}
}

func hasDups(s []string) bool {
	seen := map[string]struct{}{}
	for _, v := range s {
		if _, ok := seen[v]; ok {
			return true
		}
		seen[v] = struct{}{}
	}
	return false
}
