package antimeridian

import "github.com/ctessum/geom"

// ToContinuous moves negative longitudes into [180,360) so a ring that
// straddles the seam has no discontinuity.
func ToContinuous(ring []geom.Point) []geom.Point {
	return mapX(ring, func(x float64) float64 {
		if x < 0 {
			return x + 360
		}
		return x
	})
}

// ToCanonical is the inverse of ToContinuous for longitudes in [0,360).
func ToCanonical(ring []geom.Point) []geom.Point {
	return mapX(ring, func(x float64) float64 {
		if x > 180 {
			return x - 360
		}
		return x
	})
}

// ShiftPolygon applies ToContinuous to every ring of p.
func ShiftPolygon(p geom.Polygon) geom.Polygon {
	return mapRings(p, ToContinuous)
}

// UnshiftPolygon applies ToCanonical to every ring of p.
func UnshiftPolygon(p geom.Polygon) geom.Polygon {
	return mapRings(p, ToCanonical)
}

func UnshiftMultiPolygon(mp geom.MultiPolygon) geom.MultiPolygon {
	out := make(geom.MultiPolygon, len(mp))
	for i, p := range mp {
		out[i] = UnshiftPolygon(p)
	}
	return out
}

func mapRings(p geom.Polygon, f func([]geom.Point) []geom.Point) geom.Polygon {
	out := make(geom.Polygon, len(p))
	for i, r := range p {
		out[i] = f(r)
	}
	return out
}

func mapX(ring []geom.Point, f func(float64) float64) []geom.Point {
	out := make([]geom.Point, len(ring))
	for i, pt := range ring {
		out[i] = geom.Point{X: f(pt.X), Y: pt.Y}
	}
	return out
}
