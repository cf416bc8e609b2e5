package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/seamfix/internal/codec"
	"github.com/mohammed-shakir/seamfix/internal/core/model"
)

type Op string

const (
	OpCheck     Op = "check"
	OpSplit     Op = "split"
	OpUTM       Op = "utm"
	OpReproject Op = "reproject"
	OpCells     Op = "cells"
)

func ParseOp(s string) (Op, error) {
	switch op := Op(strings.ToLower(strings.TrimSpace(s))); op {
	case OpCheck, OpSplit, OpUTM, OpReproject, OpCells:
		return op, nil
	default:
		return "", fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, s)
	}
}

// DecodeGeometry reads the geometry member of a request. It is either a
// GeoJSON object (geometry or Feature) or a JSON string holding WKT.
func DecodeGeometry(raw json.RawMessage) (geom.Polygonal, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, model.ErrMissingGeometry
	}
	var (
		g   geom.Polygonal
		err error
	)
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		g, err = codec.DecodeWKT(s)
	} else {
		g, err = codec.DecodeGeoJSON(raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return g, nil
}

// Handle decodes req, runs op and returns the matching model response.
func (s *Service) Handle(ctx context.Context, op Op, req model.Request) (any, error) {
	format, err := codec.ParseFormat(req.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if op == OpCells && len(req.Geometry) == 0 && len(req.BBox) > 0 {
		bb, err := model.BBoxFromSlice(req.BBox)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
		res := s.resOf(req)
		cells, err := s.CellsForBBox(ctx, bb, res)
		if err != nil {
			return nil, err
		}
		return cellsResponse(res, cells), nil
	}

	g, err := DecodeGeometry(req.Geometry)
	if err != nil {
		return nil, err
	}

	switch op {
	case OpCheck:
		crosses, err := s.Check(ctx, g)
		if err != nil {
			return nil, err
		}
		return model.CheckResponse{Crosses: crosses}, nil

	case OpSplit:
		out, err := s.Split(ctx, g)
		if err != nil {
			return nil, err
		}
		return geometryResponse(out, format, req.Src().String())

	case OpUTM:
		c, err := s.EstimateUTM(ctx, g, req.Src(), req.Datum)
		if err != nil {
			return nil, err
		}
		return model.CRSResponse{EPSG: c.Code(), Name: c.Name(), Definition: c.Definition()}, nil

	case OpReproject:
		out, err := s.Reproject(ctx, g, req.Src(), req.Dst())
		if err != nil {
			return nil, err
		}
		return geometryResponse(out, format, req.Dst().String())

	case OpCells:
		res := s.resOf(req)
		parent := -1
		if req.ParentRes != nil {
			parent = *req.ParentRes
		}
		cells, err := s.Cells(ctx, g, req.Src(), res, parent)
		if err != nil {
			return nil, err
		}
		if parent >= 0 {
			res = parent
		}
		return cellsResponse(res, cells), nil

	default:
		return nil, fmt.Errorf("%w: unknown operation %q", ErrInvalidInput, op)
	}
}

func (s *Service) resOf(req model.Request) int {
	if req.Res != nil {
		return *req.Res
	}
	return s.res
}

func geometryResponse(g geom.Polygonal, f codec.Format, crsName string) (model.GeometryResponse, error) {
	out := model.GeometryResponse{Parts: partCount(g), CRS: crsName}
	b, err := codec.Encode(g, f)
	if err != nil {
		return model.GeometryResponse{}, err
	}
	if f == codec.FormatWKT {
		out.WKT = string(b)
	} else {
		out.Geometry = b
	}
	return out, nil
}

func cellsResponse(res int, cells model.Cells) model.CellsResponse {
	if cells == nil {
		cells = model.Cells{}
	}
	return model.CellsResponse{Res: res, Count: len(cells), Cells: cells}
}
