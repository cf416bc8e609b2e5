// Package model defines the request and response types shared by the HTTP
// API, the CLI and the correction worker.
package model

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mohammed-shakir/seamfix/pkg/crs"
)

type BBox struct {
	X1, Y1 float64
	X2, Y2 float64
	SRID   string
}

// String representation matching the minx,miny,maxx,maxy,srid bbox format
func (b BBox) String() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f,%s", b.X1, b.Y1, b.X2, b.Y2, b.SRID)
}

// CrossesAntimeridian reports a box written west-to-east across ±180.
func (b BBox) CrossesAntimeridian() bool { return b.X1 > b.X2 }

// BBoxFromSlice accepts [minx, miny, maxx, maxy] in EPSG:4326.
func BBoxFromSlice(v []float64) (BBox, error) {
	if len(v) != 4 {
		return BBox{}, fmt.Errorf("bbox must have 4 numbers, got %d", len(v))
	}
	return BBox{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3], SRID: "EPSG:4326"}, nil
}

type Cells []string

var ErrMissingGeometry = errors.New("geometry is required")

// Request is the JSON body accepted by every /v1 operation.
type Request struct {
	Geometry  json.RawMessage `json:"geometry,omitempty"`
	BBox      []float64       `json:"bbox,omitempty"`
	SrcCRS    string          `json:"src_crs,omitempty"`
	SrcEPSG   int             `json:"src_epsg,omitempty"`
	DstCRS    string          `json:"dst_crs,omitempty"`
	DstEPSG   int             `json:"dst_epsg,omitempty"`
	Datum     string          `json:"datum,omitempty"`
	Res       *int            `json:"res,omitempty"`
	ParentRes *int            `json:"parent_res,omitempty"`
	Format    string          `json:"format,omitempty"`
}

func (r Request) Src() crs.Spec { return crs.Spec{Identifier: r.SrcCRS, Code: r.SrcEPSG} }

func (r Request) Dst() crs.Spec { return crs.Spec{Identifier: r.DstCRS, Code: r.DstEPSG} }

type CheckResponse struct {
	Crosses bool `json:"crosses"`
}

// GeometryResponse carries either GeoJSON or WKT depending on the requested
// format.
type GeometryResponse struct {
	Geometry json.RawMessage `json:"geometry,omitempty"`
	WKT      string          `json:"wkt,omitempty"`
	Parts    int             `json:"parts"`
	CRS      string          `json:"crs,omitempty"`
}

type CRSResponse struct {
	EPSG       int    `json:"epsg,omitempty"`
	Name       string `json:"name"`
	Definition string `json:"proj4"`
}

type CellsResponse struct {
	Res   int   `json:"res"`
	Count int   `json:"count"`
	Cells Cells `json:"cells"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
