package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/internal/core/observability"
	"github.com/mohammed-shakir/seamfix/internal/service"
)

// MaxBodyBytes caps request bodies.
const MaxBodyBytes = 8 << 20

// runs one operation on a decoded request
type Operator interface {
	Handle(ctx context.Context, op service.Op, req model.Request) (any, error)
}

// decodes the JSON body, runs op and writes the JSON response
func HandleOp(logger *slog.Logger, route string, op service.Op, h Operator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
		defer func() {
			observability.ObserveHTTP(r.Method, route, sw.code, time.Since(start).Seconds())
		}()

		req, warn, err := ParseRequest(r)
		if warn != "" {
			logger.WarnContext(r.Context(), warn, "route", route)
		}
		if err != nil {
			writeError(sw, http.StatusBadRequest, err)
			return
		}

		out, err := h.Handle(r.Context(), op, req)
		if err != nil {
			status := StatusFor(err)
			if status >= http.StatusInternalServerError {
				logger.ErrorContext(r.Context(), "operation failed", "route", route, "err", err)
			}
			writeError(sw, status, err)
			return
		}
		writeJSON(sw, http.StatusOK, out)
	}
}

type statusWriter struct {
	http.ResponseWriter
	code int
}

func (w *statusWriter) WriteHeader(code int) {
	w.code = code
	w.ResponseWriter.WriteHeader(code)
}

// ParseRequest reads the JSON body. The format query parameter fills in a
// missing format member.
func ParseRequest(r *http.Request) (model.Request, string, error) {
	var warn string
	var req model.Request

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "json") {
		return model.Request{}, "", fmt.Errorf("unsupported content type %q", ct)
	}

	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Request{}, "", errors.New("empty request body")
		}
		return model.Request{}, "", fmt.Errorf("parse request: %w", err)
	}

	if req.Format == "" {
		req.Format = strings.TrimSpace(r.URL.Query().Get("format"))
	}

	// drop bbox if geometry is given (geometry wins)
	if len(req.Geometry) > 0 && len(req.BBox) > 0 {
		warn = "both bbox and geometry supplied; preferring geometry"
		req.BBox = nil
	}
	return req, warn, nil
}

// StatusFor maps operation errors onto HTTP status codes.
func StatusFor(err error) int {
	switch service.Classify(err) {
	case service.KindInvalid:
		return http.StatusBadRequest
	case service.KindUnprocessable:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, model.ErrorResponse{Error: err.Error()})
}
