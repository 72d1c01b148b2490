package settings

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	appsettings "github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/settings/pages"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

// Handlers provides HTTP handlers for the settings feature.
type Handlers struct {
	manager      *appsettings.Manager
	registry     *pipeline.Registry
	sessionStore sessions.Store
	notifier     *notifier.Notifier
	logger       *slog.Logger
	isDev        bool
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(
	manager *appsettings.Manager,
	registry *pipeline.Registry,
	sessionStore sessions.Store,
	notify *notifier.Notifier,
	logger *slog.Logger,
	isDev bool,
) *Handlers {
	return &Handlers{
		manager:      manager,
		registry:     registry,
		sessionStore: sessionStore,
		notifier:     notify,
		logger:       logger,
		isDev:        isDev,
	}
}

// SettingsPage renders the settings form with the current values.
func (h *Handlers) SettingsPage(w http.ResponseWriter, r *http.Request) {
	if err := pages.SettingsPage("Settings", h.isDev, h.manager.Current()).Render(r.Context(), w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// SaveSettingsSSE writes the submitted settings and rebuilds the session's
// pipeline with them.
func (h *Handlers) SaveSettingsSSE(w http.ResponseWriter, r *http.Request) {
	// Read signals and the session BEFORE creating SSE (headers are sent on creation)
	var signals FormSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		sse := datastar.NewSSE(w, r)
		_ = sse.PatchElementTempl(pages.Status(common.Error("Failed to read signals", err)))
		return
	}

	sessionID, sessionErr := common.SessionID(w, r, h.sessionStore)

	sse := datastar.NewSSE(w, r)

	if sessionErr != nil {
		_ = sse.PatchElementTempl(pages.Status(common.Error("Session unavailable", sessionErr)))
		return
	}

	s, err := signals.Settings()
	if err != nil {
		_ = sse.PatchElementTempl(pages.Status(common.Error("Invalid settings", err)))
		return
	}

	if err := h.manager.Save(s); err != nil {
		h.logger.Error("failed to save settings", slog.String("path", h.manager.Path()), slog.Any("error", err))
		_ = sse.PatchElementTempl(pages.Status(common.Error("Failed to save settings", err)))
		return
	}
	h.logger.Info("settings saved", slog.String("path", h.manager.Path()))

	saved := common.Success(SavedMessage)
	if err := sse.PatchElementTempl(pages.Status(saved)); err != nil {
		_ = sse.ConsoleError(err)
	}

	if err := h.registry.Holder(sessionID).Initialize(r.Context(), s); err != nil {
		h.logger.Error("pipeline initialization failed",
			slog.String("session", sessionID),
			slog.String("aws_error_code", pipeline.AWSErrorCode(err)),
			slog.Any("error", err))
		_ = sse.PatchElementTempl(pages.Status(saved, common.Error("Pipeline initialization failed", err)))
	}
}

// SettingsUpdates is the long-lived SSE endpoint that re-renders the form when
// the settings file changes on disk.
func (h *Handlers) SettingsUpdates(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	updates := h.notifier.Subscribe(notifier.TopicSettings)
	defer h.notifier.Unsubscribe(notifier.TopicSettings, updates)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-updates:
			if err := sse.PatchElementTempl(pages.SettingsForm(h.manager.Current())); err != nil {
				_ = sse.ConsoleError(err)
			}
		}
	}
}
