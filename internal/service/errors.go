package service

import (
	"errors"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/pkg/antimeridian"
	"github.com/mohammed-shakir/seamfix/pkg/crs"
)

// ErrInvalidInput wraps request problems found before any geometry work
// starts (bad JSON, unknown format, bad resolution).
var ErrInvalidInput = errors.New("invalid input")

type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindUnprocessable
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnprocessable:
		return "unprocessable"
	default:
		return "internal"
	}
}

// Classify sorts err into caller mistakes, well-formed input that has no
// answer, and everything else.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindInternal
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, model.ErrMissingGeometry),
		errors.Is(err, antimeridian.ErrInvalidGeometryType),
		errors.Is(err, crs.ErrMissingCRS),
		errors.Is(err, crs.ErrUnknownCode),
		errors.Is(err, crs.ErrInvalidCRS),
		errors.Is(err, crs.ErrUnknownDatum):
		return KindInvalid
	case errors.Is(err, crs.ErrNoUTMZoneFound),
		errors.Is(err, antimeridian.ErrSplitProducedNoParts):
		return KindUnprocessable
	default:
		return KindInternal
	}
}
