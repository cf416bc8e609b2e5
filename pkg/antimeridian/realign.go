package antimeridian

import "github.com/ctessum/geom"

// RealignPolygon assigns points lying exactly on +180 to the side of the seam
// the rest of p sits on. When the extreme exterior longitudes share a sign
// (both zero counts as sharing) the points stay at +180, otherwise they
// become -180.
func RealignPolygon(p geom.Polygon) geom.Polygon {
	s := seamSign(p)
	return mapRings(p, func(ring []geom.Point) []geom.Point {
		return mapX(ring, func(x float64) float64 {
			if x == 180 {
				return x * s
			}
			return x
		})
	})
}

func RealignMultiPolygon(mp geom.MultiPolygon) geom.MultiPolygon {
	out := make(geom.MultiPolygon, len(mp))
	for i, p := range mp {
		out[i] = RealignPolygon(p)
	}
	return out
}

func seamSign(p geom.Polygon) float64 {
	lo, hi, ok := exteriorRange(p)
	if !ok || sign(lo) == sign(hi) {
		return 1
	}
	return -1
}

func sign(x float64) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
