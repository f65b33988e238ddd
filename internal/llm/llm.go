// Package llm wraps text-generation backends behind a single interface and
// decodes their JSON output tolerantly.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a backend produced no text.
var ErrEmptyResponse = errors.New("llm: empty response")

// Request is a single-turn generation request.
type Request struct {
	System string
	Prompt string
	// JSON asks the backend for a JSON object response.
	JSON bool
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}
