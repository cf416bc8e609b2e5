// Package service runs the antimeridian and CRS operations behind the HTTP
// API, the correction worker and the CLI, with result caching, metrics and
// logging around each call.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/ctessum/geom"

	"github.com/mohammed-shakir/seamfix/internal/cache"
	"github.com/mohammed-shakir/seamfix/internal/cache/keys"
	"github.com/mohammed-shakir/seamfix/internal/codec"
	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/internal/core/observability"
	"github.com/mohammed-shakir/seamfix/internal/mapper"
	h3mapper "github.com/mohammed-shakir/seamfix/internal/mapper/h3"
	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
	"github.com/mohammed-shakir/seamfix/pkg/crs"
)

type Options struct {
	Cache    cache.Interface
	TTL      time.Duration
	Mapper   mapper.Interface
	Splitter *antimeridian.Splitter
	Datum    string
	H3Res    int
	Logger   *slog.Logger
}

type Service struct {
	cache    cache.Interface
	ttl      time.Duration
	mapper   mapper.Interface
	splitter *antimeridian.Splitter
	datum    string
	res      int
	log      *slog.Logger
}

func New(opts Options) *Service {
	s := &Service{
		cache:    opts.Cache,
		ttl:      opts.TTL,
		mapper:   opts.Mapper,
		splitter: opts.Splitter,
		datum:    opts.Datum,
		res:      opts.H3Res,
		log:      opts.Logger,
	}
	if s.cache == nil {
		s.cache = cache.Noop{}
	}
	if s.ttl <= 0 {
		s.ttl = 10 * time.Minute
	}
	if s.mapper == nil {
		s.mapper = h3mapper.New()
	}
	if s.splitter == nil {
		s.splitter = antimeridian.NewSplitter(nil)
	}
	if s.datum == "" {
		s.datum = crs.DatumWGS84
	}
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	return s
}

// DefaultRes is the H3 resolution used when a request leaves it out.
func (s *Service) DefaultRes() int { return s.res }

func (s *Service) Check(ctx context.Context, g geom.Polygonal) (bool, error) {
	start := time.Now()
	crosses, err := antimeridian.IntersectsAntimeridian(g)
	s.observe(ctx, OpCheck, err, start)
	return crosses, err
}

// Split cuts g at the antimeridian. Results of crossing inputs are cached
// by geometry fingerprint; inputs that do not cross come back unchanged.
func (s *Service) Split(ctx context.Context, g geom.Polygonal) (geom.Polygonal, error) {
	start := time.Now()
	out, err := s.split(ctx, g)
	s.observe(ctx, OpSplit, err, start)
	if err == nil {
		observability.ObserveSplitParts(partCount(out))
	}
	return out, err
}

func (s *Service) split(ctx context.Context, g geom.Polygonal) (geom.Polygonal, error) {
	crosses, err := antimeridian.IntersectsAntimeridian(g)
	if err != nil {
		return nil, err
	}
	if !crosses {
		return g, nil
	}

	key := keys.Key(string(OpSplit), codec.Fingerprint(g))
	if b, ok := s.cacheGet(ctx, key); ok {
		if out, err := codec.DecodeWKB(b); err == nil {
			return out, nil
		}
		s.log.WarnContext(ctx, "discarding undecodable cached split", "key", key)
	}

	out, err := s.splitter.Split(g)
	if err != nil {
		return nil, err
	}
	if b, err := codec.EncodeWKB(out); err == nil {
		s.cacheSet(ctx, key, b)
	}
	return out, nil
}

// EstimateUTM resolves the UTM zone of g. An empty datum means the service
// default.
func (s *Service) EstimateUTM(ctx context.Context, g geom.Polygonal, src crs.Spec, datum string) (*crs.CRS, error) {
	start := time.Now()
	out, err := s.estimateUTM(ctx, g, src, datum)
	s.observe(ctx, OpUTM, err, start)
	return out, err
}

func (s *Service) estimateUTM(ctx context.Context, g geom.Polygonal, src crs.Spec, datum string) (*crs.CRS, error) {
	if g == nil {
		return nil, antimeridian.ErrInvalidGeometryType
	}
	if datum == "" {
		datum = s.datum
	}

	key := keys.Key(string(OpUTM), codec.Fingerprint(g), src.String(), datum)
	if b, ok := s.cacheGet(ctx, key); ok {
		if code, err := strconv.Atoi(string(b)); err == nil {
			if c, err := crs.FromCode(code); err == nil {
				return c, nil
			}
		}
		s.log.WarnContext(ctx, "discarding bad cached utm code", "key", key)
	}

	c, err := crs.EstimateUTM(g, src, datum)
	if err != nil {
		return nil, err
	}
	if c.Code() != 0 {
		s.cacheSet(ctx, key, []byte(strconv.Itoa(c.Code())))
	}
	return c, nil
}

// Reproject transforms g between the two systems. Both must be given.
func (s *Service) Reproject(ctx context.Context, g geom.Polygonal, src, dst crs.Spec) (geom.Polygonal, error) {
	start := time.Now()
	out, err := reproject(g, src, dst)
	s.observe(ctx, OpReproject, err, start)
	return out, err
}

func reproject(g geom.Polygonal, src, dst crs.Spec) (geom.Polygonal, error) {
	if g == nil {
		return nil, antimeridian.ErrInvalidGeometryType
	}
	out, err := crs.Reproject(g, src, dst)
	if err != nil {
		return nil, err
	}
	p, ok := out.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("reproject returned %T", out)
	}
	return p, nil
}

// Cells covers g with H3 cells at res after bringing it to EPSG:4326 and
// splitting it at the antimeridian. A zero src means g is already in
// EPSG:4326. parentRes >= 0 coarsens the result.
func (s *Service) Cells(ctx context.Context, g geom.Polygonal, src crs.Spec, res, parentRes int) (model.Cells, error) {
	start := time.Now()
	out, err := s.cells(ctx, g, src, res, parentRes)
	s.observe(ctx, OpCells, err, start)
	return out, err
}

func (s *Service) cells(ctx context.Context, g geom.Polygonal, src crs.Spec, res, parentRes int) (model.Cells, error) {
	if g == nil {
		return nil, antimeridian.ErrInvalidGeometryType
	}
	key := keys.Key(string(OpCells), codec.Fingerprint(g), src.String(), strconv.Itoa(res), strconv.Itoa(parentRes))
	if b, ok := s.cacheGet(ctx, key); ok {
		var cached model.Cells
		if err := json.Unmarshal(b, &cached); err == nil {
			return cached, nil
		}
		s.log.WarnContext(ctx, "discarding undecodable cached cells", "key", key)
	}

	if !src.IsZero() {
		var err error
		if g, err = reproject(g, src, crs.FromEPSG(4326)); err != nil {
			return nil, err
		}
	}
	parts, err := s.split(ctx, g)
	if err != nil {
		return nil, err
	}
	cells, err := s.mapper.CellsForPolygonal(parts, res)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if parentRes >= 0 {
		if cells, err = s.mapper.Coarsen(cells, parentRes); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	if b, err := json.Marshal(cells); err == nil {
		s.cacheSet(ctx, key, b)
	}
	return cells, nil
}

// CellsForBBox covers a lon/lat box; a box with minx > maxx crosses the
// antimeridian.
func (s *Service) CellsForBBox(ctx context.Context, bb model.BBox, res int) (model.Cells, error) {
	start := time.Now()
	out, err := s.mapper.CellsForBBox(bb, res)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	s.observe(ctx, OpCells, err, start)
	return out, err
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	b, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.WarnContext(ctx, "result cache read failed", "key", key, "err", err)
		return nil, false
	}
	return b, ok
}

func (s *Service) cacheSet(ctx context.Context, key string, val []byte) {
	if err := s.cache.Set(ctx, key, val, s.ttl); err != nil {
		s.log.WarnContext(ctx, "result cache write failed", "key", key, "err", err)
	}
}

func (s *Service) observe(ctx context.Context, op Op, err error, start time.Time) {
	d := time.Since(start)
	observability.ObserveOperation(string(op), err, d.Seconds())
	if err != nil {
		s.log.DebugContext(ctx, "operation failed", "op", string(op), "kind", Classify(err).String(), "err", err, "dur", d)
		return
	}
	s.log.DebugContext(ctx, "operation done", "op", string(op), "dur", d)
}

func partCount(p geom.Polygonal) int {
	polys, err := antimeridian.Polygons(p)
	if err != nil {
		return 0
	}
	return len(polys)
}
