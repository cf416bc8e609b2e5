package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const seamSquare = `{"type":"Polygon","coordinates":[[[170,10],[-170,10],[-170,-10],[170,-10],[170,10]]]}`

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var out, errb bytes.Buffer
	args = append([]string{"-env", filepath.Join(t.TempDir(), "missing.env")}, args...)
	code := run(args, strings.NewReader(stdin), &out, &errb)
	return code, out.String(), errb.String()
}

func TestCheckAndSplitFromStdin(t *testing.T) {
	code, out, errOut := runCLI(t, seamSquare, "-op", "check")
	if code != exitOK || strings.TrimSpace(out) != "true" {
		t.Fatalf("check code=%d out=%q err=%q", code, out, errOut)
	}

	code, out, errOut = runCLI(t, seamSquare, "-op", "split", "-format", "wkt")
	if code != exitOK || !strings.HasPrefix(out, "MULTIPOLYGON") {
		t.Fatalf("split code=%d out=%q err=%q", code, out, errOut)
	}
}

func TestUTMFromWKTFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.wkt")
	if err := os.WriteFile(path, []byte("POLYGON ((2 -1, 4 -1, 4 1, 2 1, 2 -1))\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	code, out, errOut := runCLI(t, "", "-op", "utm", path)
	if code != exitOK || !strings.HasPrefix(out, "EPSG:32631\t") {
		t.Fatalf("utm code=%d out=%q err=%q", code, out, errOut)
	}
}

func TestCellsFromSeamBBox(t *testing.T) {
	code, out, errOut := runCLI(t, "", "-op", "cells", "-bbox", "179,-1,-179,1", "-res", "2")
	if code != exitOK || strings.TrimSpace(out) == "" {
		t.Fatalf("cells code=%d out=%q err=%q", code, out, errOut)
	}
}

func TestExitCodes(t *testing.T) {
	if code, _, _ := runCLI(t, seamSquare, "-op", "merge"); code != exitInvalid {
		t.Fatalf("unknown op code=%d", code)
	}
	if code, _, _ := runCLI(t, "", "-op", "split"); code != exitInvalid {
		t.Fatalf("empty input code=%d", code)
	}
	if code, _, _ := runCLI(t, seamSquare, "-op", "reproject", "-src", "EPSG:4326"); code != exitInvalid {
		t.Fatalf("missing dst code=%d", code)
	}
	polar := `{"type":"Polygon","coordinates":[[[0,85],[1,85],[1,86],[0,86],[0,85]]]}`
	if code, _, _ := runCLI(t, polar, "-op", "utm"); code != exitUnprocessable {
		t.Fatalf("polar utm code=%d", code)
	}
}

func TestJSONOutput(t *testing.T) {
	code, out, errOut := runCLI(t, seamSquare, "-op", "reproject", "-src", "4326", "-dst", "EPSG:3857", "-json")
	if code != exitOK || !strings.Contains(out, `"crs": "EPSG:3857"`) {
		t.Fatalf("reproject code=%d out=%q err=%q", code, out, errOut)
	}
}
