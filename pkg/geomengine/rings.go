package geomengine

import (
	"math"

	"github.com/ctessum/geom"
)

// minRingArea drops slivers that polyclip can leave along the cut.
const minRingArea = 1e-12

// Assemble groups a flat set of rings, as returned by the boolean operations,
// into polygons. Rings nested an even number of times are shells; each odd
// ring becomes a hole of the smallest shell around it.
func Assemble(rings geom.Polygon) []geom.Polygon {
	var kept [][]geom.Point
	var areas []float64
	for _, r := range rings {
		if len(r) < 4 {
			continue
		}
		a := ringArea(r)
		if a <= minRingArea {
			continue
		}
		kept = append(kept, r)
		areas = append(areas, a)
	}

	n := len(kept)
	depth := make([]int, n)
	parent := make([]int, n)
	for i := range kept {
		parent[i] = -1
		for j := range kept {
			if i == j || areas[j] <= areas[i] || !ringContains(kept[j], kept[i]) {
				continue
			}
			depth[i]++
			if parent[i] < 0 || areas[j] < areas[parent[i]] {
				parent[i] = j
			}
		}
	}

	index := make(map[int]int, n)
	var out []geom.Polygon
	for i, r := range kept {
		if depth[i]%2 == 0 {
			index[i] = len(out)
			out = append(out, geom.Polygon{r})
		}
	}
	for i, r := range kept {
		if depth[i]%2 == 1 {
			if k, ok := index[parent[i]]; ok {
				out[k] = append(out[k], r)
			}
		}
	}
	return out
}

func ringArea(r []geom.Point) float64 {
	return math.Abs(geom.Polygon{r}.Area())
}

// ringContains tests the first vertex of inner that is not on the boundary
// of outer.
func ringContains(outer, inner []geom.Point) bool {
	shell := geom.Polygon{outer}
	for _, pt := range inner {
		switch pt.Within(shell) {
		case geom.Inside:
			return true
		case geom.Outside:
			return false
		}
	}
	return false
}
