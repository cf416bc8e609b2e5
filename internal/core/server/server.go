package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/seamfix/internal/core/config"
	"github.com/mohammed-shakir/seamfix/internal/core/health"
	middleware "github.com/mohammed-shakir/seamfix/internal/core/middleware"
	"github.com/mohammed-shakir/seamfix/internal/core/router"
	"github.com/mohammed-shakir/seamfix/internal/service"
)

// Deps are the collaborators the HTTP surface is built from. Metrics may be
// nil when metrics are served on their own listener or disabled.
type Deps struct {
	Operator router.Operator
	Ready    health.Checks
	Metrics  http.Handler
}

// builds the chi router with every route mounted
func NewHandler(cfg config.Config, logger *slog.Logger, d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	r.Get("/healthz", health.Liveness())
	r.Get("/readyz", health.Readiness(d.Ready))
	if d.Metrics != nil {
		path := cfg.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		r.Method(http.MethodGet, path, d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/antimeridian/check", router.HandleOp(logger, "/v1/antimeridian/check", service.OpCheck, d.Operator))
		r.Post("/antimeridian/split", router.HandleOp(logger, "/v1/antimeridian/split", service.OpSplit, d.Operator))
		r.Post("/crs/utm", router.HandleOp(logger, "/v1/crs/utm", service.OpUTM, d.Operator))
		r.Post("/crs/reproject", router.HandleOp(logger, "/v1/crs/reproject", service.OpReproject, d.Operator))
		r.Post("/cells", router.HandleOp(logger, "/v1/cells", service.OpCells, d.Operator))
	})
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, cfg config.Config, logger *slog.Logger, d Deps) error {
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewHandler(cfg, logger, d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		timeout := cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
