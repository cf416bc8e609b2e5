// Package crs resolves coordinate reference systems, estimates a local UTM
// zone for a geometry and reprojects geometries between systems. It sits on
// the pure-Go projection engine in github.com/ctessum/geom/proj.
package crs

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom/proj"
)

var (
	ErrMissingCRS     = errors.New("crs is required: provide an identifier or an EPSG code")
	ErrNoUTMZoneFound = errors.New("unable to determine UTM CRS")
	ErrUnknownCode    = errors.New("unknown EPSG code")
	ErrUnknownDatum   = errors.New("unsupported datum")
	ErrInvalidCRS     = errors.New("invalid crs definition")
)

const geographicName = "longlat"

// CRS is a resolved coordinate reference system. The definition string is
// kept so every transform parses its own *proj.SR: the proj projections
// write derived constants into the SR they run on.
type CRS struct {
	code int
	name string
	def  string
	sr   *proj.SR
}

// Code is the EPSG code, or 0 for systems built from a raw definition.
func (c *CRS) Code() int { return c.code }

func (c *CRS) Name() string { return c.name }

// Definition is the proj4 or WKT text the CRS was parsed from.
func (c *CRS) Definition() string { return c.def }

func (c *CRS) IsGeographic() bool {
	return c.sr.Name == geographicName
}

// IsExactSame reports whether c and o describe the same system, field for
// field, with no floating point tolerance.
func (c *CRS) IsExactSame(o *CRS) bool {
	if c == nil || o == nil {
		return false
	}
	if c == o || c.def == o.def {
		return true
	}
	// SR.Equal indexes the second slice by the length of the first.
	if len(c.sr.DatumParams) != len(o.sr.DatumParams) {
		return false
	}
	return c.sr.Equal(o.sr, 0)
}

// NewTransform builds a coordinate transform from c to dst.
func (c *CRS) NewTransform(dst *CRS) (proj.Transformer, error) {
	if dst == nil {
		return nil, errors.New("destination crs is nil")
	}
	src, err := proj.Parse(c.def)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", c.name, err)
	}
	to, err := proj.Parse(dst.def)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", dst.name, err)
	}
	t, err := src.NewTransform(to)
	if err != nil {
		return nil, fmt.Errorf("transform %s -> %s: %w", c.name, dst.name, err)
	}
	return t, nil
}

func (c *CRS) String() string {
	return c.name
}

// FromCode resolves an EPSG code through the registry.
func FromCode(code int) (*CRS, error) {
	def, err := Definition(code)
	if err != nil {
		return nil, err
	}
	sr, err := proj.Parse(def)
	if err != nil {
		return nil, fmt.Errorf("parse EPSG:%d: %w", code, err)
	}
	return &CRS{code: code, name: "EPSG:" + strconv.Itoa(code), def: def, sr: sr}, nil
}

// FromIdentifier accepts "EPSG:4326", "epsg:4326", "4326",
// "urn:ogc:def:crs:EPSG::4326", "OGC:CRS84"/"CRS84", a proj4 string or WKT.
func FromIdentifier(id string) (*CRS, error) {
	s := strings.TrimSpace(id)
	if s == "" {
		return nil, ErrMissingCRS
	}
	if code, ok := parseCode(s); ok {
		return FromCode(code)
	}
	sr, err := proj.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidCRS, s, err)
	}
	return &CRS{name: s, def: s, sr: sr}, nil
}

func parseCode(s string) (int, bool) {
	u := strings.ToUpper(s)
	switch u {
	case "CRS84", "OGC:CRS84", "URN:OGC:DEF:CRS:OGC:1.3:CRS84":
		return 4326, true
	}
	for _, prefix := range []string{"URN:OGC:DEF:CRS:EPSG::", "URN:OGC:DEF:CRS:EPSG:", "EPSG:"} {
		if strings.HasPrefix(u, prefix) {
			u = strings.TrimPrefix(u, prefix)
			break
		}
	}
	n, err := strconv.Atoi(u)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// Spec names a CRS either by identifier or by EPSG code. The identifier wins
// when both are set.
type Spec struct {
	Identifier string `json:"crs,omitempty"`
	Code       int    `json:"epsg,omitempty"`
}

func FromEPSG(code int) Spec { return Spec{Code: code} }

func FromString(id string) Spec { return Spec{Identifier: id} }

func (s Spec) IsZero() bool {
	return strings.TrimSpace(s.Identifier) == "" && s.Code == 0
}

func (s Spec) String() string {
	if strings.TrimSpace(s.Identifier) != "" {
		return s.Identifier
	}
	if s.Code != 0 {
		return "EPSG:" + strconv.Itoa(s.Code)
	}
	return ""
}

// Resolve turns s into a CRS, failing with ErrMissingCRS when s is empty.
func Resolve(s Spec) (*CRS, error) {
	if strings.TrimSpace(s.Identifier) != "" {
		return FromIdentifier(s.Identifier)
	}
	if s.Code != 0 {
		return FromCode(s.Code)
	}
	return nil, ErrMissingCRS
}
