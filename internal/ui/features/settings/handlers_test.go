package settings

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appsettings "github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T, initial *appsettings.Settings) (*Handlers, *features.TestFixture) {
	t.Helper()

	fixture := features.SetupTestFixture(t, initial)
	handlers := NewHandlers(
		fixture.Manager,
		fixture.Registry,
		fixture.SessionStore,
		fixture.Notifier,
		fixture.Logger(),
		true,
	)
	return handlers, fixture
}

func save(t *testing.T, h *Handlers, signals map[string]any) *httptest.ResponseRecorder {
	t.Helper()
	req := features.SignalsRequest(t, http.MethodPost, "/settings/save", signals)
	rec := httptest.NewRecorder()
	h.SaveSettingsSSE(rec, req)
	return rec
}

// =============================================================================
// SettingsPage Tests
// =============================================================================

func TestSettingsPage(t *testing.T) {
	tests := []struct {
		name     string
		initial  *appsettings.Settings
		wantBody []string
	}{
		{
			name: "defaults when no file exists",
			wantBody: []string{
				"<title>Settings - SPARQL Chat</title>",
				"Neptune Host",
				"Neptune Port",
				"AWS Region",
				"Model ID",
				`value="8182"`,
				`value="us-east-1"`,
				`value="anthropic.claude-3-sonnet-20240229-v1:0"`,
				"Save Settings",
				"/settings/updates",
			},
		},
		{
			name: "stored values",
			initial: &appsettings.Settings{
				Host:    "db.example.com",
				Port:    8183,
				Region:  "eu-west-1",
				ModelID: "anthropic.claude-v2",
			},
			wantBody: []string{
				`value="db.example.com"`,
				`value="8183"`,
				`value="eu-west-1"`,
				`value="anthropic.claude-v2"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := setupTestHandlers(t, tt.initial)

			req := httptest.NewRequest(http.MethodGet, "/settings", nil)
			rec := httptest.NewRecorder()
			h.SettingsPage(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			body := rec.Body.String()
			for _, want := range tt.wantBody {
				assert.Contains(t, body, want, "response should contain %q", want)
			}
		})
	}
}

// =============================================================================
// SaveSettingsSSE Tests
// =============================================================================

func TestSaveSettingsSSE_WritesAndInitializesOnce(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)

	rec := save(t, h, map[string]any{
		"host":    "db.example.com",
		"port":    8183,
		"region":  "us-west-2",
		"modelId": "anthropic.claude-v2",
	})

	body := rec.Body.String()
	assert.Contains(t, body, SavedMessage)
	assert.NotContains(t, body, "alert-error")

	want := appsettings.Settings{Host: "db.example.com", Port: 8183, Region: "us-west-2", ModelID: "anthropic.claude-v2"}
	assert.Equal(t, want, appsettings.Load(fixture.SettingsPath), "file should hold the submitted values")
	assert.Equal(t, want, fixture.Manager.Current())

	calls := fixture.Builder.BuildCalls()
	require.Len(t, calls, 1, "save should initialize exactly once")
	assert.Equal(t, want, calls[0])

	assert.NotEmpty(t, rec.Result().Cookies(), "a session cookie should be issued")
	assert.Equal(t, 1, fixture.Registry.Len())
}

func TestSaveSettingsSSE_SameSessionReusesHolder(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)

	first := save(t, h, map[string]any{"host": "a", "port": 8182, "region": "us-east-1", "modelId": "m"})

	req := features.SignalsRequest(t, http.MethodPost, "/settings/save",
		map[string]any{"host": "b", "port": 8182, "region": "us-east-1", "modelId": "m"})
	features.WithCookies(req, first)
	h.SaveSettingsSSE(httptest.NewRecorder(), req)

	assert.Equal(t, 1, fixture.Registry.Len())
	assert.Len(t, fixture.Builder.BuildCalls(), 2)
}

func TestSaveSettingsSSE_PortAsString(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)

	rec := save(t, h, map[string]any{"host": "h", "port": "9000", "region": "r", "modelId": "m"})

	assert.Contains(t, rec.Body.String(), SavedMessage)
	assert.Equal(t, 9000, appsettings.Load(fixture.SettingsPath).Port)
}

func TestSaveSettingsSSE_InvalidPort(t *testing.T) {
	tests := []struct {
		name string
		port any
	}{
		{"not a number", "abc"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t, nil)

			rec := save(t, h, map[string]any{"host": "h", "port": tt.port, "region": "r", "modelId": "m"})

			body := rec.Body.String()
			assert.Contains(t, body, "Invalid settings")
			assert.NotContains(t, body, SavedMessage)
			assert.Empty(t, fixture.Builder.BuildCalls())
			_, err := os.Stat(fixture.SettingsPath)
			assert.True(t, os.IsNotExist(err), "nothing should be written")
		})
	}
}

func TestSaveSettingsSSE_WriteFailure(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)
	require.NoError(t, os.MkdirAll(fixture.SettingsPath, 0750))

	rec := save(t, h, map[string]any{"host": "h", "port": 8182, "region": "r", "modelId": "m"})

	body := rec.Body.String()
	assert.Contains(t, body, "Failed to save settings")
	assert.NotContains(t, body, SavedMessage)
	assert.Empty(t, fixture.Builder.BuildCalls())
	assert.Equal(t, appsettings.Defaults(), fixture.Manager.Current())
}

func TestSaveSettingsSSE_InitializationFailure(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)
	fixture.Builder.Err = errors.New("dial tcp: connection refused")

	rec := save(t, h, map[string]any{"host": "h", "port": 8182, "region": "r", "modelId": "m"})

	body := rec.Body.String()
	assert.Contains(t, body, SavedMessage, "the file is saved before initialization")
	assert.Contains(t, body, "Pipeline initialization failed")
	assert.Contains(t, body, "dial tcp: connection refused")
	assert.Equal(t, "h", appsettings.Load(fixture.SettingsPath).Host)
}

func TestSaveSettingsSSE_BadSignals(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/settings/save", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	h.SaveSettingsSSE(rec, req)

	assert.Contains(t, rec.Body.String(), "Failed to read signals")
	assert.Empty(t, fixture.Builder.BuildCalls())
}

// =============================================================================
// SettingsUpdates Tests
// =============================================================================

func TestSettingsUpdates_RendersOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/settings/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.SettingsUpdates(rec, req)
		close(done)
	}()

	// edit the file behind the server's back, as another process would
	require.NoError(t, appsettings.Save(fixture.SettingsPath, appsettings.Settings{
		Host: "edited.example.com", Port: 8182, Region: "us-east-1", ModelID: "m",
	}))
	_, changed := fixture.Manager.Reload()
	require.True(t, changed)

	require.Eventually(t, func() bool {
		return fixture.Notifier.Listeners(notifier.TopicSettings) == 1
	}, 200*time.Millisecond, 5*time.Millisecond)
	fixture.Notifier.Broadcast(notifier.TopicSettings)

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, "edited.example.com")
}

func TestSettingsUpdates_NoInitialState(t *testing.T) {
	h, _ := setupTestHandlers(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/settings/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 50*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	h.SettingsUpdates(rec, req)

	assert.Equal(t, 0, strings.Count(rec.Body.String(), "event:"))
}
