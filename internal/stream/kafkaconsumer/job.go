package kafkaconsumer

import (
	"encoding/json"
	"fmt"

	"github.com/mohammed-shakir/seamfix/internal/core/model"
	"github.com/mohammed-shakir/seamfix/internal/service"
)

const JobVersion = 1

// Job is one correction request read from the job topic. The request
// members sit next to the envelope fields.
type Job struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Op      string `json:"op"`
	model.Request
}

func (j Job) Validate() (service.Op, error) {
	if j.Version != 0 && j.Version != JobVersion {
		return "", fmt.Errorf("%w: unsupported job version %d", service.ErrInvalidInput, j.Version)
	}
	if j.ID == "" {
		return "", fmt.Errorf("%w: job id is required", service.ErrInvalidInput)
	}
	return service.ParseOp(j.Op)
}

// Result is published to the result topic keyed by job id.
type Result struct {
	ID     string          `json:"id"`
	Op     string          `json:"op,omitempty"`
	OK     bool            `json:"ok"`
	Output json.RawMessage `json:"output,omitempty"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
}

func okResult(id, op string, out any) (Result, error) {
	b, err := json.Marshal(out)
	if err != nil {
		return Result{}, fmt.Errorf("encode output: %w", err)
	}
	return Result{ID: id, Op: op, OK: true, Output: b}, nil
}

func errorResult(id, op string, err error) Result {
	return Result{ID: id, Op: op, Error: err.Error(), Kind: service.Classify(err).String()}
}
