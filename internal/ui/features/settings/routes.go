// Package settings provides the settings form feature.
package settings

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	appsettings "github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

// SetupRoutes registers the settings feature routes.
func SetupRoutes(
	router chi.Router,
	manager *appsettings.Manager,
	registry *pipeline.Registry,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) error {
	handlers := NewHandlers(manager, registry, sessionStore, notify, logger, isDev)

	router.Get("/settings", handlers.SettingsPage)
	router.Post("/settings/save", handlers.SaveSettingsSSE)
	router.Get("/settings/updates", handlers.SettingsUpdates)

	return nil
}
