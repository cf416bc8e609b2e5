// Package middleware defines HTTP middlewares for the core server.
package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"path"
	"strings"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	mylog "github.com/mohammed-shakir/seamfix/internal/logger"
)

const RequestIDHeader = "X-Request-ID"

// Logging puts the request id, the http component and, for /v1 routes, the
// operation name into the request context, and echoes the id back to the
// caller.
func Logging(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ctx := mylog.WithRequestID(r.Context(), r.Header.Get(RequestIDHeader))
			reqID := mylog.RequestID(ctx)
			w.Header().Set(RequestIDHeader, reqID)

			ctx = mylog.WithComponent(ctx, "http")
			op := OperationOf(r.URL.Path)
			ctx = mylog.WithOperation(ctx, op)

			l.LogAttrs(ctx, slog.LevelDebug, "http request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("op", op),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(fn)
	}
}

// OperationOf names the operation served under /v1: the last path segment
// ("/v1/antimeridian/split" is "split"). Other paths have none.
func OperationOf(p string) string {
	if !strings.HasPrefix(p, "/v1/") {
		return ""
	}
	return path.Base(strings.TrimSuffix(p, "/"))
}

// Recover turns a panic into a 500 with the API's JSON error body. It should
// run inside Logging so the request id reaches the log line.
func Recover(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						"err", rec,
						"method", r.Method,
						"path", r.URL.Path,
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(model.ErrorResponse{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}

// CORS allows browser clients to call the API from any origin.
func CORS() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Expose-Headers", RequestIDHeader)
			if r.Method == http.MethodOptions {
				w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+RequestIDHeader)
				w.Header().Set("Access-Control-Max-Age", "600")
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
