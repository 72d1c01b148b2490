// Package pipeline builds and holds question-answering pipelines.
//
// A pipeline composes a Bedrock-hosted model with a Neptune graph through the
// SPARQL QA chain. Pipelines are owned by a Holder, one per UI session, so a
// rebuild in one session never replaces the pipeline another session uses.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/smithy-go"
	"github.com/tmc/langchaingo/chains"

	"github.com/leapstack-labs/sparqlchat/internal/chain"
)

var (
	// ErrUnexpectedResultShape is returned when the chain output does not carry
	// an answer, a generated query and a context.
	ErrUnexpectedResultShape = errors.New("unexpected result shape")

	// ErrNotInitialized is returned when a pipeline is required but none has
	// been built.
	ErrNotInitialized = errors.New("pipeline not initialized")
)

// Result is the outcome of one question.
type Result struct {
	Answer         string
	GeneratedQuery string
	Context        any
}

// Pipeline answers natural-language questions.
type Pipeline interface {
	Invoke(ctx context.Context, question string) (*Result, error)
}

// ChainPipeline adapts a langchaingo chain to Pipeline.
type ChainPipeline struct {
	Chain chains.Chain

	// Graph, when set, is closed with the pipeline.
	Graph io.Closer
}

// Close releases the graph connection.
func (p *ChainPipeline) Close() error {
	if p.Graph == nil {
		return nil
	}
	return p.Graph.Close()
}

// Invoke runs the chain and validates its output.
func (p *ChainPipeline) Invoke(ctx context.Context, question string) (*Result, error) {
	out, err := chains.Call(ctx, p.Chain, map[string]any{chain.InputKey: question})
	if err != nil {
		return nil, err
	}
	return DecodeResult(out)
}

// DecodeResult converts raw chain output into a Result.
//
// The output must contain a string "result" and at least two intermediate
// steps: the first holding the generated "query", the second the "context".
func DecodeResult(out map[string]any) (*Result, error) {
	answer, ok := out[chain.OutputKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %q is %T, want string", ErrUnexpectedResultShape, chain.OutputKey, out[chain.OutputKey])
	}

	steps, err := intermediateSteps(out[chain.IntermediateStepsKey])
	if err != nil {
		return nil, err
	}
	if len(steps) < 2 {
		return nil, fmt.Errorf("%w: want 2 intermediate steps, got %d", ErrUnexpectedResultShape, len(steps))
	}

	query, ok := steps[0][chain.StepQueryKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: first step has no %q string", ErrUnexpectedResultShape, chain.StepQueryKey)
	}
	graphContext, ok := steps[1][chain.StepContextKey]
	if !ok {
		return nil, fmt.Errorf("%w: second step has no %q", ErrUnexpectedResultShape, chain.StepContextKey)
	}

	return &Result{
		Answer:         answer,
		GeneratedQuery: query,
		Context:        graphContext,
	}, nil
}

func intermediateSteps(v any) ([]map[string]any, error) {
	switch steps := v.(type) {
	case []map[string]any:
		return steps, nil
	case []any:
		out := make([]map[string]any, 0, len(steps))
		for i, s := range steps {
			m, ok := s.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: step %d is %T", ErrUnexpectedResultShape, i, s)
			}
			out = append(out, m)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %q is %T", ErrUnexpectedResultShape, chain.IntermediateStepsKey, v)
	}
}

// AWSErrorCode returns the AWS API error code wrapped in err, or "".
func AWSErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}
