package h3mapper

import (
	"sort"
	"testing"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
)

func TestToParent(t *testing.T) {
	m := New()

	baseRes := 8
	cell, err := h3.LatLngToCell(h3.LatLng{Lat: 59.3293, Lng: 18.0686}, baseRes)
	if err != nil {
		t.Fatalf("LatLngToCell: %v", err)
	}
	cellStr := cell.String()

	same, err := m.ToParent(cellStr, baseRes)
	if err != nil || same != cellStr {
		t.Fatalf("ToParent same-res = %q err=%v", same, err)
	}

	parentStr, err := m.ToParent(cellStr, baseRes-1)
	if err != nil {
		t.Fatalf("ToParent: %v", err)
	}
	want, err := cell.Parent(baseRes - 1)
	if err != nil {
		t.Fatalf("Parent: %v", err)
	}
	if parentStr != want.String() {
		t.Fatalf("parent = %s want %s", parentStr, want)
	}

	if _, err := m.ToParent(cellStr, baseRes+1); err == nil {
		t.Fatalf("expected error for parentRes > current res")
	}
	if _, err := m.ToParent("not-a-cell", 3); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCoarsen_SortedUnique(t *testing.T) {
	m := New()
	cells, err := m.CellsForBBox(model.BBox{X1: 179.5, Y1: -1, X2: -179.5, Y2: 1}, 6)
	if err != nil {
		t.Fatalf("CellsForBBox: %v", err)
	}
	coarse, err := m.Coarsen(cells, 3)
	if err != nil {
		t.Fatalf("Coarsen: %v", err)
	}
	if len(coarse) == 0 || len(coarse) >= len(cells) {
		t.Fatalf("coarse=%d fine=%d", len(coarse), len(cells))
	}
	if !sort.StringsAreSorted([]string(coarse)) || hasDups(coarse) {
		t.Fatalf("coarse cells must be sorted + unique")
	}
	if _, err := m.Coarsen(coarse, 5); err == nil {
		t.Fatalf("expected error refining instead of coarsening")
	}
}
