// Command seamctl runs a single antimeridian or CRS operation on a geometry
// read from a file or stdin.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mohammed-shakir/seamfix/internal/core/config"
	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/internal/service"
	"github.com/mohammed-shakir/seamfix/pkg/crs"
)

const (
	exitOK            = 0
	exitInternal      = 1
	exitInvalid       = 2
	exitUnprocessable = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("seamctl", flag.ContinueOnError)
	fl.SetOutput(stderr)
	var (
		opName    = fl.String("op", "split", "operation: check|split|utm|reproject|cells")
		src       = fl.String("src", "", "source CRS (EPSG code, EPSG:n, URN or proj4)")
		dst       = fl.String("dst", "", "destination CRS for -op reproject")
		datum     = fl.String("datum", "", `UTM datum ("WGS 84" or "NAD83")`)
		res       = fl.Int("res", -1, "H3 resolution for -op cells (default H3_RES)")
		parentRes = fl.Int("parent-res", -1, "coarsen cells to this resolution")
		bbox      = fl.String("bbox", "", "minx,miny,maxx,maxy box for -op cells instead of a geometry")
		format    = fl.String("format", "geojson", "output format: geojson|wkt")
		defs      = fl.String("defs", "", "YAML file of extra CRS definitions")
		asJSON    = fl.Bool("json", false, "print the full JSON response")
		envFile   = fl.String("env", ".env", "dotenv file")
	)
	fl.Usage = func() {
		fmt.Fprintln(stderr, "usage: seamctl -op split|check|utm|reproject|cells [flags] [file]")
		fl.PrintDefaults()
	}
	if err := fl.Parse(args); err != nil {
		return exitInvalid
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "load %s: %v\n", *envFile, err)
		return exitInternal
	}
	cfg := config.FromEnv()

	if *defs == "" {
		*defs = cfg.CRSDefinitions
	}
	if *defs != "" {
		if _, err := crs.LoadDefinitionsFile(*defs); err != nil {
			fmt.Fprintf(stderr, "crs definitions: %v\n", err)
			return exitInvalid
		}
	}

	op, err := service.ParseOp(*opName)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitInvalid
	}

	req := model.Request{
		SrcCRS: *src,
		DstCRS: *dst,
		Datum:  *datum,
		Format: *format,
	}
	if *res >= 0 {
		req.Res = res
	}
	if *parentRes >= 0 {
		req.ParentRes = parentRes
	}

	if *bbox != "" {
		if req.BBox, err = parseBBox(*bbox); err != nil {
			fmt.Fprintf(stderr, "bbox: %v\n", err)
			return exitInvalid
		}
	} else {
		in, err := readInput(fl.Arg(0), stdin)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return exitInvalid
		}
		req.Geometry = geometryMember(in)
	}

	svc := service.New(service.Options{Datum: cfg.UTMDatum, H3Res: cfg.H3Res})
	out, err := svc.Handle(context.Background(), op, req)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", op, err)
		switch service.Classify(err) {
		case service.KindInvalid:
			return exitInvalid
		case service.KindUnprocessable:
			return exitUnprocessable
		default:
			return exitInternal
		}
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			fmt.Fprintln(stderr, err)
			return exitInternal
		}
		return exitOK
	}
	printPlain(stdout, out)
	return exitOK
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, errors.New("read input: empty geometry")
	}
	return b, nil
}

// GeoJSON passes through; anything else is taken to be WKT.
func geometryMember(in []byte) json.RawMessage {
	if in[0] == '{' {
		return in
	}
	b, _ := json.Marshal(string(in))
	return b
}

func parseBBox(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, errors.New("expected 4 comma-separated values: minx,miny,maxx,maxy")
	}
	out := make([]float64, 0, 4)
	for _, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("parse float: %w", err)
		}
		out = append(out, f)
	}
	return out, nil
}

func printPlain(w io.Writer, out any) {
	switch v := out.(type) {
	case model.CheckResponse:
		fmt.Fprintln(w, v.Crosses)
	case model.GeometryResponse:
		if v.WKT != "" {
			fmt.Fprintln(w, v.WKT)
		} else {
			fmt.Fprintln(w, string(v.Geometry))
		}
	case model.CRSResponse:
		fmt.Fprintf(w, "%s\t%s\n", v.Name, v.Definition)
	case model.CellsResponse:
		for _, c := range v.Cells {
			fmt.Fprintln(w, c)
		}
	default:
		fmt.Fprintf(w, "%v\n", v)
	}
}
