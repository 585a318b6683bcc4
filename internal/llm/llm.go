package llm

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrModel  = errors.New("model call failed")
	ErrSchema = errors.New("structured response expected")
)

// Request describes one call to the generative model.
type Request struct {
	// Prompt is the full user prompt.
	Prompt string
	// Fields lists the JSON keys of a structured response. Empty means free text.
	Fields []string
}

func (r Request) Structured() bool {
	return len(r.Fields) > 0
}

// Generator sends prompts to a generative model.
type Generator interface {
	Generate(ctx context.Context, req Request) (Result, error)
}

// Result is one of Structured, Raw or Blocked.
type Result interface {
	isResult()
}

// Structured holds a response that decoded into every requested field.
type Structured struct {
	Fields map[string]string
}

// Raw holds model output that did not match the requested schema, or a free
// text response.
type Raw struct {
	Text string
}

// Blocked reports that the provider withheld output for safety reasons.
type Blocked struct {
	Reason string
}

func (Structured) isResult() {}
func (Raw) isResult()        {}
func (Blocked) isResult()    {}

type ModelError struct {
	Provider string
	Err      error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ModelError) Unwrap() []error {
	return []error{ErrModel, e.Err}
}

// SchemaError is returned by callers that cannot proceed with a Raw result.
type SchemaError struct {
	Fields []string
	Text   string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("model response is not a JSON object with fields %v", e.Fields)
}

func (e *SchemaError) Unwrap() error {
	return ErrSchema
}
