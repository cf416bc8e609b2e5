package codec

import (
	"errors"
	"strings"
	"testing"

	"github.com/ctessum/geom"
	"github.com/google/go-cmp/cmp"

	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
)

const seamGeoJSON = `{"type":"Polygon","coordinates":[[[170,10],[-170,10],[-170,-10],[170,-10],[170,10]]]}`

func seamSquare() geom.Polygon {
	return geom.Polygon{{
		{X: 170, Y: 10}, {X: -170, Y: 10}, {X: -170, Y: -10}, {X: 170, Y: -10}, {X: 170, Y: 10},
	}}
}

func TestDecodeGeoJSON_Polygon(t *testing.T) {
	got, err := DecodeGeoJSON([]byte(seamGeoJSON))
	if err != nil {
		t.Fatalf("DecodeGeoJSON: %v", err)
	}
	if diff := cmp.Diff(geom.Polygonal(seamSquare()), got); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestDecodeGeoJSON_FeatureAndMulti(t *testing.T) {
	feature := `{"type":"Feature","properties":{"name":"x"},"geometry":` +
		`{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,1],[0,0]]],[[[5,5],[6,5],[6,6],[5,6],[5,5]]]]}}`
	got, err := DecodeGeoJSON([]byte(feature))
	if err != nil {
		t.Fatalf("DecodeGeoJSON: %v", err)
	}
	mp, ok := got.(geom.MultiPolygon)
	if !ok || len(mp) != 2 {
		t.Fatalf("got %#v", got)
	}
}

func TestDecodeGeoJSON_RejectsOtherTypes(t *testing.T) {
	_, err := DecodeGeoJSON([]byte(`{"type":"Point","coordinates":[1,2]}`))
	if !errors.Is(err, antimeridian.ErrInvalidGeometryType) {
		t.Fatalf("err=%v want ErrInvalidGeometryType", err)
	}
	if _, err := DecodeGeoJSON([]byte(`{`)); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestGeoJSON_RoundTrip(t *testing.T) {
	in := geom.MultiPolygon{
		seamSquare(),
		{
			{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 0}},
			{{X: 2, Y: 2}, {X: 3, Y: 2}, {X: 3, Y: 3}, {X: 2, Y: 3}, {X: 2, Y: 2}},
		},
	}
	b, err := EncodeGeoJSON(in)
	if err != nil {
		t.Fatalf("EncodeGeoJSON: %v", err)
	}
	out, err := DecodeGeoJSON(b)
	if err != nil {
		t.Fatalf("DecodeGeoJSON: %v", err)
	}
	if diff := cmp.Diff(geom.Polygonal(in), out); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestWKB_KeepsExactCoordinates(t *testing.T) {
	in := geom.MultiPolygon{
		{{{X: 179.9999999999, Y: 0.1 + 0.2}, {X: 180, Y: 0.1 + 0.2}, {X: 180, Y: 1e-12}, {X: 179.9999999999, Y: 1e-12}, {X: 179.9999999999, Y: 0.1 + 0.2}}},
	}
	b, err := EncodeWKB(in)
	if err != nil {
		t.Fatalf("EncodeWKB: %v", err)
	}
	out, err := DecodeWKB(b)
	if err != nil {
		t.Fatalf("DecodeWKB: %v", err)
	}
	if diff := cmp.Diff(geom.Polygonal(in), out); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if Fingerprint(out) != Fingerprint(in) {
		t.Fatalf("fingerprint changed across WKB")
	}

	p, err := DecodeWKB(mustWKB(t, seamSquare()))
	if err != nil {
		t.Fatalf("DecodeWKB polygon: %v", err)
	}
	if _, ok := p.(geom.Polygon); !ok {
		t.Fatalf("polygon decoded as %T", p)
	}
	if _, err := DecodeWKB([]byte{1, 2, 3}); err == nil {
		t.Fatalf("expected error for truncated wkb")
	}
}

func mustWKB(t *testing.T, p geom.Polygonal) []byte {
	t.Helper()
	b, err := EncodeWKB(p)
	if err != nil {
		t.Fatalf("EncodeWKB: %v", err)
	}
	return b
}

func TestEncodeWKT(t *testing.T) {
	s, err := EncodeWKT(seamSquare())
	if err != nil {
		t.Fatalf("EncodeWKT: %v", err)
	}
	if !strings.HasPrefix(s, "POLYGON") {
		t.Fatalf("wkt=%q", s)
	}
	back, err := DecodeWKT(s)
	if err != nil {
		t.Fatalf("DecodeWKT: %v", err)
	}
	if diff := cmp.Diff(geom.Polygonal(seamSquare()), back); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	if _, err := DecodeWKT("POINT (1 2)"); !errors.Is(err, antimeridian.ErrInvalidGeometryType) {
		t.Fatalf("err=%v want ErrInvalidGeometryType", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatGeoJSON, "GeoJSON": FormatGeoJSON, " wkt ": FormatWKT} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q)=%q,%v want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("kml"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(seamSquare())
	if a != Fingerprint(seamSquare()) {
		t.Fatalf("fingerprint not stable")
	}
	moved := seamSquare()
	moved[0][1].X = -171
	if a == Fingerprint(moved) {
		t.Fatalf("different coordinates share a fingerprint")
	}
	if a == Fingerprint(geom.MultiPolygon{seamSquare()}) {
		t.Fatalf("polygon and multipolygon share a fingerprint")
	}
}
