package crs

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
)

const (
	DatumWGS84 = "WGS 84"
	DatumNAD83 = "NAD83"

	utmNorthLimit = 84.0
	utmSouthLimit = -80.0
)

// AreaOfInterest is a geographic box in degrees. West > East describes a box
// that crosses the antimeridian.
type AreaOfInterest struct {
	West, South, East, North float64
}

// PointOfInterest is the degenerate area covering a single position.
func PointOfInterest(lon, lat float64) AreaOfInterest {
	return AreaOfInterest{West: lon, South: lat, East: lon, North: lat}
}

type Candidate struct {
	Code  int
	Name  string
	Zone  int
	South bool
}

type utmFamily struct {
	name      string
	north     int
	south     int
	maxZone   int
	northOnly bool
}

func familyFor(datum string) (utmFamily, error) {
	key := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(datum), " ", ""))
	switch key {
	case "", "WGS84":
		return utmFamily{name: "WGS 84", north: 32600, south: 32700, maxZone: 60}, nil
	case "NAD83":
		return utmFamily{name: "NAD83", north: 26900, maxZone: 23, northOnly: true}, nil
	}
	return utmFamily{}, fmt.Errorf("%w: %q", ErrUnknownDatum, datum)
}

// UTMCandidates lists the UTM zones of datum whose extent touches aoi. The
// zone containing the centre of aoi comes first, then the zone of the other
// hemisphere, then neighbours by distance of their central meridian.
func UTMCandidates(aoi AreaOfInterest, datum string) ([]Candidate, error) {
	fam, err := familyFor(datum)
	if err != nil {
		return nil, err
	}
	for _, v := range []float64{aoi.West, aoi.South, aoi.East, aoi.North} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("area of interest is not finite: %+v", aoi)
		}
	}
	if aoi.South > aoi.North {
		aoi.South, aoi.North = aoi.North, aoi.South
	}

	centerLon := SeamAwareCenter(aoi.West, aoi.East)
	centerLat := (aoi.South + aoi.North) / 2
	primary := zoneOf(centerLon)
	primarySouth := centerLat < 0

	type ranked struct {
		Candidate
		dist float64
	}
	var all []ranked
	for zone := 1; zone <= fam.maxZone; zone++ {
		if !zoneTouches(zone, aoi) {
			continue
		}
		cm := centralMeridian(zone)
		for _, south := range []bool{false, true} {
			if south && fam.northOnly {
				continue
			}
			if !bandTouches(south, aoi) {
				continue
			}
			code := fam.north + zone
			hemi := "N"
			if south {
				code = fam.south + zone
				hemi = "S"
			}
			all = append(all, ranked{
				Candidate: Candidate{
					Code:  code,
					Name:  fmt.Sprintf("%s / UTM zone %d%s", fam.name, zone, hemi),
					Zone:  zone,
					South: south,
				},
				dist: lonDistance(cm, centerLon),
			})
		}
	}

	sort.SliceStable(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if (a.Zone == primary) != (b.Zone == primary) {
			return a.Zone == primary
		}
		if (a.South == primarySouth) != (b.South == primarySouth) {
			return a.South == primarySouth
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.Code < b.Code
	})

	out := make([]Candidate, len(all))
	for i, r := range all {
		out[i] = r.Candidate
	}
	return out, nil
}

func zoneOf(lon float64) int {
	z := int(math.Floor((lon+180)/6)) + 1
	if z < 1 {
		return 1
	}
	if z > 60 {
		return 60
	}
	return z
}

func centralMeridian(zone int) float64 {
	return float64(6*zone - 183)
}

func zoneTouches(zone int, aoi AreaOfInterest) bool {
	w := float64(6*(zone-1) - 180)
	e := w + 6
	if aoi.West > aoi.East {
		return (e >= aoi.West && w <= 180) || (w <= aoi.East && e >= -180)
	}
	return w <= aoi.East && e >= aoi.West
}

func bandTouches(south bool, aoi AreaOfInterest) bool {
	if south {
		return aoi.South <= 0 && aoi.North >= utmSouthLimit
	}
	return aoi.North >= 0 && aoi.South <= utmNorthLimit
}

func lonDistance(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// SeamAwareCenter returns the mid longitude of the span minx..maxx. A span
// with minx > maxx wraps through the antimeridian and the result is folded
// back into [-180,180).
func SeamAwareCenter(minx, maxx float64) float64 {
	if minx > maxx {
		maxx += 360
		c := (minx + maxx) / 2
		return floorMod(c+180, 360) - 180
	}
	return (minx + maxx) / 2
}

func floorMod(a, m float64) float64 {
	r := math.Mod(a, m)
	if r < 0 {
		r += m
	}
	return r
}

// EstimateUTM picks the UTM CRS of datum for the centre of g. An empty src
// is read as EPSG:4326.
func EstimateUTM(g geom.Geom, src Spec, datum string) (*CRS, error) {
	if _, err := antimeridian.Polygons(g); err != nil {
		return nil, err
	}
	if src.IsZero() {
		src = FromEPSG(4326)
	}
	from, err := Resolve(src)
	if err != nil {
		return nil, err
	}
	if _, err := familyFor(datum); err != nil {
		return nil, err
	}

	var b *geom.Bounds
	if from.IsGeographic() {
		b = g.Bounds()
	} else {
		wgs84, err := FromCode(4326)
		if err != nil {
			return nil, err
		}
		if b, err = TransformBounds(from, wgs84, g.Bounds(), DefaultDensify); err != nil {
			return nil, err
		}
	}
	if b == nil || math.IsInf(b.Min.Y, 0) || math.IsInf(b.Max.Y, 0) {
		return nil, fmt.Errorf("%w: empty geometry", ErrNoUTMZoneFound)
	}

	lon := SeamAwareCenter(b.Min.X, b.Max.X)
	lat := (b.Min.Y + b.Max.Y) / 2
	cands, err := UTMCandidates(PointOfInterest(lon, lat), datum)
	if err != nil {
		return nil, err
	}
	if len(cands) == 0 {
		return nil, fmt.Errorf("%w: centre (%g, %g)", ErrNoUTMZoneFound, lon, lat)
	}
	return FromCode(cands[0].Code)
}
