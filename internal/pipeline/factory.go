package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/bedrock"

	"github.com/leapstack-labs/sparqlchat/internal/chain"
	"github.com/leapstack-labs/sparqlchat/internal/neptune"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
)

// Builder creates pipelines from settings.
type Builder interface {
	Build(ctx context.Context, s settings.Settings) (Pipeline, error)
}

// BuilderFunc adapts a function to Builder.
type BuilderFunc func(ctx context.Context, s settings.Settings) (Pipeline, error)

// Build calls f.
func (f BuilderFunc) Build(ctx context.Context, s settings.Settings) (Pipeline, error) {
	return f(ctx, s)
}

// Factory builds Bedrock + Neptune pipelines.
type Factory struct {
	Logger  *slog.Logger
	Verbose bool
	TopK    int

	// SchemaLimit caps schema discovery; zero keeps the client default.
	SchemaLimit int
	// Examples are few-shot question/query pairs for the generation prompt.
	Examples string

	// NewModel and NewGraph default to Bedrock and Neptune clients.
	NewModel func(ctx context.Context, s settings.Settings) (llms.Model, error)
	NewGraph func(ctx context.Context, s settings.Settings) (chain.Graph, error)
}

// NewFactory returns a Factory with the standard pipeline flags: verbose
// tracing, top-K of 10, intermediate steps returned, answers always written
// by the model.
func NewFactory(logger *slog.Logger) *Factory {
	f := &Factory{
		Logger:  logger,
		Verbose: true,
		TopK:    chain.DefaultTopK,
	}
	f.NewModel = f.bedrockModel
	f.NewGraph = f.neptuneGraph
	return f
}

// Build constructs the model client, then the graph client, then the chain.
func (f *Factory) Build(ctx context.Context, s settings.Settings) (Pipeline, error) {
	model, err := f.NewModel(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to create model client: %w", err)
	}

	graph, err := f.NewGraph(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to graph %s: %w", s.Address(), err)
	}

	opts := []chain.Option{
		chain.WithTopK(f.TopK),
		chain.WithReturnIntermediateSteps(true),
		chain.WithReturnDirect(false),
	}
	if f.Examples != "" {
		opts = append(opts, chain.WithExamples(f.Examples))
	}
	if f.Verbose {
		opts = append(opts, chain.WithCallbacks(chain.NewLogHandler(f.Logger)))
	}

	f.Logger.Info("pipeline initialized",
		slog.String("graph", s.Address()),
		slog.String("region", s.Region),
		slog.String("model", s.ModelID))

	p := &ChainPipeline{Chain: chain.New(model, graph, opts...)}
	if c, ok := graph.(io.Closer); ok {
		p.Graph = c
	}
	return p, nil
}

func (f *Factory) bedrockModel(ctx context.Context, s settings.Settings) (llms.Model, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}
	client := bedrockruntime.NewFromConfig(awsCfg)
	return bedrock.New(bedrock.WithClient(client), bedrock.WithModel(s.ModelID))
}

func (f *Factory) neptuneGraph(ctx context.Context, s settings.Settings) (chain.Graph, error) {
	graph, err := neptune.New(ctx, neptune.Config{
		Host:       s.Host,
		Port:       s.Port,
		Region:     s.Region,
		UseIAMAuth: true,
		UseHTTPS:   true,
	}, neptune.WithLogger(f.Logger), neptune.WithSchemaLimit(f.SchemaLimit))
	if err != nil {
		return nil, err
	}
	schema := graph.GetStructuredSchema()
	f.Logger.Debug("graph schema loaded",
		slog.String("endpoint", graph.Endpoint()),
		slog.Int("classes", len(schema.Classes)),
		slog.Int("object_properties", len(schema.ObjectProps)),
		slog.Int("datatype_properties", len(schema.DataProps)))
	return graph, nil
}
