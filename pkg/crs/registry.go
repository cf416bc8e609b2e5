package crs

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/ctessum/geom/proj"
	"gopkg.in/yaml.v3"
)

const (
	defWGS84       = "+proj=longlat +datum=WGS84 +no_defs"
	defNAD83       = "+proj=longlat +datum=NAD83 +no_defs"
	defWebMercator = "+proj=merc +a=6378137 +b=6378137 +lat_ts=0.0 +lon_0=0.0 +x_0=0.0 +y_0=0 +k=1.0 +units=m +nadgrids=@null +no_defs"
)

var registry = struct {
	sync.RWMutex
	defs map[int]string
}{defs: map[int]string{
	4326: defWGS84,
	4269: defNAD83,
	3857: defWebMercator,
}}

// Definition returns the proj4 definition for code. Registered definitions
// win over the computed UTM families.
func Definition(code int) (string, error) {
	registry.RLock()
	def, ok := registry.defs[code]
	registry.RUnlock()
	if ok {
		return def, nil
	}
	if def, ok := utmDefinition(code); ok {
		return def, nil
	}
	return "", fmt.Errorf("%w: %d", ErrUnknownCode, code)
}

// RegisterDefinition adds or replaces the definition for code after checking
// that proj can parse it.
func RegisterDefinition(code int, def string) error {
	if code <= 0 {
		return fmt.Errorf("invalid EPSG code %d", code)
	}
	if _, err := proj.Parse(def); err != nil {
		return fmt.Errorf("EPSG:%d: %w", code, err)
	}
	registry.Lock()
	registry.defs[code] = def
	registry.Unlock()
	return nil
}

// definitionsFile is the YAML layout read by LoadDefinitions:
//
//	definitions:
//	  2193: "+proj=tmerc +lat_0=0 +lon_0=173 ..."
type definitionsFile struct {
	Definitions map[string]string `yaml:"definitions"`
}

// LoadDefinitions registers every definition in r and returns how many were
// loaded. Nothing is registered if any entry is invalid.
func LoadDefinitions(r io.Reader) (int, error) {
	var f definitionsFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		if err == io.EOF {
			return 0, nil
		}
		return 0, fmt.Errorf("decode crs definitions: %w", err)
	}
	parsed := make(map[int]string, len(f.Definitions))
	for k, def := range f.Definitions {
		code, ok := parseCode(k)
		if !ok {
			return 0, fmt.Errorf("crs definitions: bad code %q", k)
		}
		if _, err := proj.Parse(def); err != nil {
			return 0, fmt.Errorf("crs definitions: EPSG:%d: %w", code, err)
		}
		parsed[code] = def
	}
	registry.Lock()
	for code, def := range parsed {
		registry.defs[code] = def
	}
	registry.Unlock()
	return len(parsed), nil
}

func LoadDefinitionsFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return LoadDefinitions(f)
}

func utmDefinition(code int) (string, bool) {
	var datum string
	var south bool
	zone := code % 100
	switch code / 100 {
	case 326:
		datum = "WGS84"
	case 327:
		datum, south = "WGS84", true
	case 269:
		datum = "NAD83"
		if zone > 23 {
			return "", false
		}
	default:
		return "", false
	}
	if zone < 1 || zone > 60 {
		return "", false
	}
	def := "+proj=utm +zone=" + strconv.Itoa(zone)
	if south {
		def += " +south"
	}
	return def + " +datum=" + datum + " +units=m +no_defs", true
}
