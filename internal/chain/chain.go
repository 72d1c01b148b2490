// Package chain implements a question-answering chain over a SPARQL graph.
//
// The chain asks a language model to write a SPARQL query for a question,
// runs the query against the graph, and asks the model again to phrase an
// answer from the results.
package chain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/chains"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/memory"
	"github.com/tmc/langchaingo/schema"
)

// Keys used in chain inputs and outputs.
const (
	InputKey             = "query"
	OutputKey            = "result"
	IntermediateStepsKey = "intermediate_steps"
	StepQueryKey         = "query"
	StepContextKey       = "context"
)

// DefaultTopK is the number of result bindings passed to the answer step.
const DefaultTopK = 10

// ErrMissingInput is returned when the question is absent or not a string.
var ErrMissingInput = errors.New("missing chain input")

// Graph is the part of a graph store the chain needs.
type Graph interface {
	Query(ctx context.Context, query string, params map[string]any) (map[string]any, error)
	GetSchema() string
}

// SPARQLQAChain answers questions by generating and executing SPARQL.
type SPARQLQAChain struct {
	Graph            Graph
	GenerationChain  *chains.LLMChain
	QAChain          *chains.LLMChain
	Memory           schema.Memory
	CallbacksHandler callbacks.Handler

	TopK                    int
	ReturnIntermediateSteps bool
	ReturnDirect            bool
	Examples                string
}

var (
	_ chains.Chain           = (*SPARQLQAChain)(nil)
	_ callbacks.HandlerHaver = (*SPARQLQAChain)(nil)
)

// Option configures a SPARQLQAChain.
type Option func(*SPARQLQAChain)

// WithTopK limits the number of bindings handed to the answer step.
func WithTopK(k int) Option {
	return func(c *SPARQLQAChain) {
		c.TopK = k
	}
}

// WithReturnIntermediateSteps includes the generated query and the raw
// context in the output under "intermediate_steps".
func WithReturnIntermediateSteps(v bool) Option {
	return func(c *SPARQLQAChain) {
		c.ReturnIntermediateSteps = v
	}
}

// WithReturnDirect skips the answer step and returns the query results.
func WithReturnDirect(v bool) Option {
	return func(c *SPARQLQAChain) {
		c.ReturnDirect = v
	}
}

// WithExamples adds few-shot question/query examples to the generation prompt.
func WithExamples(examples string) Option {
	return func(c *SPARQLQAChain) {
		c.Examples = examples
	}
}

// WithCallbacks sets the handler notified of chain and model activity.
func WithCallbacks(h callbacks.Handler) Option {
	return func(c *SPARQLQAChain) {
		c.CallbacksHandler = h
	}
}

// New builds a chain that uses llm for both generation and answering.
func New(llm llms.Model, graph Graph, opts ...Option) *SPARQLQAChain {
	c := &SPARQLQAChain{
		Graph:           graph,
		GenerationChain: chains.NewLLMChain(llm, NewGenerationPrompt()),
		QAChain:         chains.NewLLMChain(llm, NewQAPrompt()),
		Memory:          memory.NewSimple(),
		TopK:            DefaultTopK,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.CallbacksHandler != nil {
		c.GenerationChain.CallbacksHandler = c.CallbacksHandler
		c.QAChain.CallbacksHandler = c.CallbacksHandler
	}
	return c
}

// Call runs the chain for inputs["query"].
func (c *SPARQLQAChain) Call(ctx context.Context, inputs map[string]any, options ...chains.ChainCallOption) (map[string]any, error) {
	question, ok := inputs[InputKey].(string)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingInput, InputKey)
	}

	reply, err := chains.Predict(ctx, c.GenerationChain, map[string]any{
		"schema":   c.Graph.GetSchema(),
		"prompt":   question,
		"examples": c.Examples,
	}, options...)
	if err != nil {
		return nil, fmt.Errorf("sparql generation failed: %w", err)
	}

	query := ExtractSPARQL(reply)
	if c.CallbacksHandler != nil {
		c.CallbacksHandler.HandleText(ctx, "Generated SPARQL:\n"+query)
	}

	steps := []map[string]any{{StepQueryKey: query}}

	res, err := c.Graph.Query(ctx, query, nil)
	if err != nil {
		return nil, fmt.Errorf("sparql execution failed: %w", err)
	}
	graphContext := LimitBindings(res, c.TopK)
	steps = append(steps, map[string]any{StepContextKey: graphContext})

	var result any = graphContext
	if !c.ReturnDirect {
		encoded, err := json.Marshal(graphContext)
		if err != nil {
			return nil, fmt.Errorf("failed to encode query results: %w", err)
		}
		answer, err := chains.Predict(ctx, c.QAChain, map[string]any{
			"context": string(encoded),
			"prompt":  question,
		}, options...)
		if err != nil {
			return nil, fmt.Errorf("answer generation failed: %w", err)
		}
		result = answer
	}

	out := map[string]any{OutputKey: result}
	if c.ReturnIntermediateSteps {
		out[IntermediateStepsKey] = steps
	}
	return out, nil
}

// GetMemory returns the chain memory.
func (c *SPARQLQAChain) GetMemory() schema.Memory {
	return c.Memory
}

// GetInputKeys returns the input keys the chain expects.
func (c *SPARQLQAChain) GetInputKeys() []string {
	return []string{InputKey}
}

// GetOutputKeys returns the output keys the chain produces.
func (c *SPARQLQAChain) GetOutputKeys() []string {
	if c.ReturnIntermediateSteps {
		return []string{OutputKey, IntermediateStepsKey}
	}
	return []string{OutputKey}
}

// GetCallbackHandler returns the tracing handler, if any.
func (c *SPARQLQAChain) GetCallbackHandler() callbacks.Handler {
	return c.CallbacksHandler
}
