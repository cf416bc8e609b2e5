// Package health serves the liveness and readiness probes.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

func Liveness() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessReporter is implemented by the correction worker once it owns
// partitions.
type ReadinessReporter interface {
	Readiness() (ready bool, partitions []int32)
}

// Checks lists the dependencies the readiness probe looks at. Nil members
// are skipped.
type Checks struct {
	Redis   Pinger
	Worker  ReadinessReporter
	Timeout time.Duration
}

type readiness struct {
	Status     string  `json:"status"`
	Redis      string  `json:"redis,omitempty"`
	Worker     string  `json:"worker,omitempty"`
	Partitions []int32 `json:"partitions,omitempty"`
}

func Readiness(c Checks) http.HandlerFunc {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = time.Second
	}
	return func(w http.ResponseWriter, r *http.Request) {
		out := readiness{Status: "ready"}
		ready := true

		if c.Redis != nil {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			err := c.Redis.Ping(ctx)
			cancel()
			out.Redis = "ok"
			if err != nil {
				out.Redis = err.Error()
				ready = false
			}
		}
		if c.Worker != nil {
			ok, parts := c.Worker.Readiness()
			out.Worker = "ok"
			if ok {
				out.Partitions = parts
			} else {
				out.Worker = "not_ready"
				ready = false
			}
		}

		if !ready {
			out.Status = "not_ready"
		}
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(out)
	}
}
