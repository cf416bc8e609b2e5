// Package codec converts between the wire formats (GeoJSON, WKT, WKB) and the
// geometry values used by the antimeridian and crs packages.
package codec

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/ctessum/geom"
	gogeom "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
	"github.com/twpayne/go-geom/encoding/wkt"

	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
)

type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatWKT     Format = "wkt"

	DefaultDecimalDigits = 9
)

func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "geojson", "json", "application/geo+json":
		return FormatGeoJSON, nil
	case "wkt", "text/plain":
		return FormatWKT, nil
	default:
		return "", fmt.Errorf("unsupported format %q", s)
	}
}

// DecodeGeoJSON accepts a GeoJSON Polygon or MultiPolygon geometry, or a
// Feature wrapping one.
func DecodeGeoJSON(data []byte) (geom.Polygonal, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	var t gogeom.T
	switch head.Type {
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse geojson feature: %w", err)
		}
		t = f.Geometry
	default:
		if err := geojson.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse geojson: %w", err)
		}
	}
	return FromT(t)
}

func DecodeWKT(s string) (geom.Polygonal, error) {
	t, err := wkt.Unmarshal(s)
	if err != nil {
		return nil, fmt.Errorf("parse wkt: %w", err)
	}
	return FromT(t)
}

// Decode reads data in the given format.
func Decode(data []byte, f Format) (geom.Polygonal, error) {
	if f == FormatWKT {
		return DecodeWKT(string(data))
	}
	return DecodeGeoJSON(data)
}

func EncodeGeoJSON(p geom.Polygonal) ([]byte, error) {
	t, err := ToT(p)
	if err != nil {
		return nil, err
	}
	return geojson.Marshal(t, geojson.EncodeGeometryWithMaxDecimalDigits(DefaultDecimalDigits))
}

func EncodeWKT(p geom.Polygonal) (string, error) {
	t, err := ToT(p)
	if err != nil {
		return "", err
	}
	return wkt.Marshal(t, wkt.EncodeOptionWithMaxDecimalDigits(DefaultDecimalDigits))
}

// EncodeWKB writes p as little-endian WKB. Coordinates keep every bit of
// their float64 value, unlike the text formats.
func EncodeWKB(p geom.Polygonal) ([]byte, error) {
	t, err := ToT(p)
	if err != nil {
		return nil, err
	}
	return wkb.Marshal(t, binary.LittleEndian)
}

func DecodeWKB(data []byte) (geom.Polygonal, error) {
	t, err := wkb.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parse wkb: %w", err)
	}
	return FromT(t)
}

// Encode writes p in format f.
func Encode(p geom.Polygonal, f Format) ([]byte, error) {
	if f == FormatWKT {
		s, err := EncodeWKT(p)
		return []byte(s), err
	}
	return EncodeGeoJSON(p)
}

// FromT converts a go-geom value. Only polygons and multipolygons are
// accepted.
func FromT(t gogeom.T) (geom.Polygonal, error) {
	switch g := t.(type) {
	case *gogeom.Polygon:
		return fromPolygonCoords(g.Coords()), nil
	case *gogeom.MultiPolygon:
		coords := g.Coords()
		mp := make(geom.MultiPolygon, 0, len(coords))
		for _, pc := range coords {
			mp = append(mp, fromPolygonCoords(pc))
		}
		return mp, nil
	default:
		return nil, fmt.Errorf("%w: got %T", antimeridian.ErrInvalidGeometryType, t)
	}
}

func ToT(p geom.Polygonal) (gogeom.T, error) {
	switch g := p.(type) {
	case geom.Polygon:
		return gogeom.NewPolygon(gogeom.XY).SetCoords(toPolygonCoords(g))
	case geom.MultiPolygon:
		coords := make([][][]gogeom.Coord, 0, len(g))
		for _, poly := range g {
			coords = append(coords, toPolygonCoords(poly))
		}
		return gogeom.NewMultiPolygon(gogeom.XY).SetCoords(coords)
	default:
		return nil, fmt.Errorf("%w: got %T", antimeridian.ErrInvalidGeometryType, p)
	}
}

func fromPolygonCoords(rings [][]gogeom.Coord) geom.Polygon {
	p := make(geom.Polygon, 0, len(rings))
	for _, r := range rings {
		pts := make([]geom.Point, len(r))
		for i, c := range r {
			pts[i] = geom.Point{X: c.X(), Y: c.Y()}
		}
		p = append(p, pts)
	}
	return p
}

func toPolygonCoords(p geom.Polygon) [][]gogeom.Coord {
	rings := make([][]gogeom.Coord, 0, len(p))
	for _, r := range p {
		cs := make([]gogeom.Coord, len(r))
		for i, pt := range r {
			cs[i] = gogeom.Coord{pt.X, pt.Y}
		}
		rings = append(rings, cs)
	}
	return rings
}

// Fingerprint hashes the structure and exact coordinates of p. Equal
// geometries hash equal; a Polygon and a one-member MultiPolygon do not.
func Fingerprint(p geom.Polygonal) uint64 {
	d := xxhash.New()
	var buf [8]byte
	put := func(v uint64) {
		binary.LittleEndian.PutUint64(buf[:], v)
		_, _ = d.Write(buf[:])
	}
	if _, ok := p.(geom.MultiPolygon); ok {
		_, _ = d.WriteString("M")
	} else {
		_, _ = d.WriteString("P")
	}
	polys := p.Polygons()
	put(uint64(len(polys)))
	for _, poly := range polys {
		put(uint64(len(poly)))
		for _, r := range poly {
			put(uint64(len(r)))
			for _, pt := range r {
				put(math.Float64bits(pt.X))
				put(math.Float64bits(pt.Y))
			}
		}
	}
	return d.Sum64()
}
