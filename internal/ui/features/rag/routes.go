// Package rag provides the question answering feature.
package rag

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

// SetupRoutes registers the RAG feature routes.
func SetupRoutes(
	router chi.Router,
	manager *settings.Manager,
	registry *pipeline.Registry,
	history state.Store,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	handlers := NewHandlers(manager, registry, history, sessionStore, notify, logger, isDev)

	router.Get("/rag", handlers.RAGPage)
	router.Post("/rag/ask", handlers.AskSSE)
	router.Get("/rag/updates", handlers.HistoryUpdates)

	return nil
}
