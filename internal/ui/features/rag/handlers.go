package rag

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/rag/pages"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the RAG feature.
type Handlers struct {
	manager      *settings.Manager
	registry     *pipeline.Registry
	history      state.Store
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
	isDev        bool
}

// NewHandlers creates a new Handlers instance. history may be nil.
func NewHandlers(
	manager *settings.Manager,
	registry *pipeline.Registry,
	history state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) *Handlers {
	return &Handlers{
		manager:      manager,
		registry:     registry,
		history:      history,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
		isDev:        isDev,
	}
}

// RAGPage renders the question form and recent history.
func (h *Handlers) RAGPage(w http.ResponseWriter, r *http.Request) {
	if err := pages.RAGPage(Title, h.isDev, h.recent(r.Context())).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// AskSSE answers the submitted question with the session's pipeline,
// building it from the startup settings when the session has none.
func (h *Handlers) AskSSE(w http.ResponseWriter, r *http.Request) {
	// Read signals and the session BEFORE creating SSE (headers are sent on creation)
	var signals AskSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(pages.ResultAlerts(common.Error("Failed to read signals", err)))
		return
	}

	sessionID, sessionErr := common.SessionID(w, r, h.sessionStore)

	sse := datastar.NewSSE(w, r)

	if sessionErr != nil {
		_ = sse.PatchElementTempl(pages.ResultAlerts(common.Error("Session unavailable", sessionErr)))
		return
	}

	question := signals.Question
	if strings.TrimSpace(question) == "" {
		_ = sse.PatchElementTempl(pages.ResultAlerts(common.Error(EmptyQuestionMessage, nil)))
		return
	}

	ctx := r.Context()
	holder := h.registry.Holder(sessionID)

	initErr := holder.EnsureInitialized(ctx, h.manager.Startup())
	if initErr != nil {
		h.logger.Error("pipeline initialization failed",
			slog.String("session", sessionID),
			slog.String("aws_error_code", pipeline.AWSErrorCode(initErr)),
			slog.Any("error", initErr))
	}

	p := holder.Current()
	if p == nil {
		h.record(ctx, &state.QueryRecord{Question: question, Error: InitFailedMessage})
		_ = sse.PatchElementTempl(pages.ResultAlerts(common.Error(InitFailedMessage, initErr)))
		h.sendHistory(ctx, sse)
		return
	}
	built, _ := holder.Settings()

	start := time.Now()
	res, err := p.Invoke(ctx, question)
	rec := &state.QueryRecord{
		Question: question,
		Host:     built.Host,
		ModelID:  built.ModelID,
		Duration: time.Since(start),
	}
	if err != nil {
		h.logger.Error("question failed",
			slog.String("session", sessionID),
			slog.String("aws_error_code", pipeline.AWSErrorCode(err)),
			slog.Any("error", err))
		rec.Error = err.Error()
		h.record(ctx, rec)
		_ = sse.PatchElementTempl(pages.ResultAlerts(common.Error("Query failed", err)))
		h.sendHistory(ctx, sse)
		return
	}

	rec.Answer = res.Answer
	rec.GeneratedQuery = res.GeneratedQuery
	h.record(ctx, rec)

	if err := sse.PatchElementTempl(pages.Result(res)); err != nil {
		_ = sse.ConsoleError(err)
	}
	h.sendHistory(ctx, sse)
}

// HistoryUpdates is the long-lived SSE endpoint that re-renders the history
// list whenever any session records a question.
func (h *Handlers) HistoryUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe(notifier.TopicHistory)
	defer h.notifier.Unsubscribe(notifier.TopicHistory, updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			h.sendHistory(ctx, sse)
		}
	}
}

func (h *Handlers) record(ctx context.Context, rec *state.QueryRecord) {
	if h.history == nil {
		return
	}
	if err := h.history.RecordQuery(ctx, rec); err != nil {
		h.logger.Warn("failed to record query", slog.Any("error", err))
		return
	}
	h.notifier.Broadcast(notifier.TopicHistory)
}

func (h *Handlers) recent(ctx context.Context) []state.QueryRecord {
	if h.history == nil {
		return nil
	}
	records, err := h.history.ListQueries(ctx, HistoryLimit)
	if err != nil {
		h.logger.Warn("failed to list queries", slog.Any("error", err))
		return nil
	}
	return records
}

func (h *Handlers) sendHistory(ctx context.Context, sse *datastar.ServerSentEventGenerator) {
	if h.history == nil {
		return
	}
	if err := sse.PatchElementTempl(pages.History(h.recent(ctx))); err != nil {
		_ = sse.ConsoleError(err)
	}
}
