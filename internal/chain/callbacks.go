package chain

import (
	"context"
	"log/slog"

	"github.com/tmc/langchaingo/callbacks"
	"github.com/tmc/langchaingo/llms"
)

// LogHandler traces chain and model activity to a slog.Logger.
type LogHandler struct {
	callbacks.SimpleHandler
	Logger *slog.Logger
}

var _ callbacks.Handler = LogHandler{}

// NewLogHandler returns a LogHandler writing to logger.
func NewLogHandler(logger *slog.Logger) LogHandler {
	return LogHandler{Logger: logger}
}

// HandleChainStart logs the chain inputs.
func (h LogHandler) HandleChainStart(ctx context.Context, inputs map[string]any) {
	h.Logger.InfoContext(ctx, "entering chain", slog.Any("inputs", inputs))
}

// HandleChainEnd logs the chain outputs.
func (h LogHandler) HandleChainEnd(ctx context.Context, outputs map[string]any) {
	h.Logger.InfoContext(ctx, "finished chain", slog.Any("outputs", outputs))
}

// HandleChainError logs a chain failure.
func (h LogHandler) HandleChainError(ctx context.Context, err error) {
	h.Logger.ErrorContext(ctx, "chain failed", slog.Any("error", err))
}

// HandleLLMGenerateContentStart logs the prompt sent to the model.
func (h LogHandler) HandleLLMGenerateContentStart(ctx context.Context, ms []llms.MessageContent) {
	h.Logger.DebugContext(ctx, "model request", slog.Int("messages", len(ms)))
}

// HandleLLMGenerateContentEnd logs the model reply size.
func (h LogHandler) HandleLLMGenerateContentEnd(ctx context.Context, res *llms.ContentResponse) {
	if res == nil {
		return
	}
	h.Logger.DebugContext(ctx, "model response", slog.Int("choices", len(res.Choices)))
}

// HandleLLMError logs a model failure.
func (h LogHandler) HandleLLMError(ctx context.Context, err error) {
	h.Logger.ErrorContext(ctx, "model call failed", slog.Any("error", err))
}
