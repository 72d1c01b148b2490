// Package features provides shared test utilities for UI feature tests.
package features

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/sessions"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/leapstack-labs/sparqlchat/internal/testutil"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

// StubPipeline answers every question with a fixed result.
type StubPipeline struct {
	mu        sync.Mutex
	Result    *pipeline.Result
	Err       error
	Questions []string
}

// Invoke records question and returns the configured result.
func (p *StubPipeline) Invoke(_ context.Context, question string) (*pipeline.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Questions = append(p.Questions, question)
	if p.Err != nil {
		return nil, p.Err
	}
	return p.Result, nil
}

// Invocations returns the questions seen so far.
func (p *StubPipeline) Invocations() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.Questions...)
}

// RecordingBuilder records Build calls and returns Pipeline or Err.
type RecordingBuilder struct {
	mu       sync.Mutex
	Calls    []settings.Settings
	Err      error
	Pipeline pipeline.Pipeline
}

// Build records s.
func (b *RecordingBuilder) Build(_ context.Context, s settings.Settings) (pipeline.Pipeline, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, s)
	if b.Err != nil {
		return nil, b.Err
	}
	return b.Pipeline, nil
}

// BuildCalls returns the settings passed to Build so far.
func (b *RecordingBuilder) BuildCalls() []settings.Settings {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]settings.Settings(nil), b.Calls...)
}

// TestFixture holds all dependencies needed for UI handler tests.
type TestFixture struct {
	Manager      *settings.Manager
	Builder      *RecordingBuilder
	Pipeline     *StubPipeline
	Registry     *pipeline.Registry
	History      *state.SQLiteStore
	Notifier     *notifier.Notifier
	SessionStore *sessions.CookieStore
	SettingsPath string
	t            *testing.T
}

// SetupTestFixture creates a fixture whose settings file lives in a temp
// directory. When initial is non-nil it is written before the manager loads.
func SetupTestFixture(t *testing.T, initial *settings.Settings) *TestFixture {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sparqlchat", "settings.cfg")
	if initial != nil {
		require.NoError(t, settings.Save(path, *initial))
	}

	history, err := state.OpenAndMigrate(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = history.Close() })

	stub := &StubPipeline{Result: &pipeline.Result{
		Answer:         "42",
		GeneratedQuery: "SELECT ...",
		Context:        map[string]any{"a": 1},
	}}
	builder := &RecordingBuilder{Pipeline: stub}

	return &TestFixture{
		Manager:      settings.NewManager(path),
		Builder:      builder,
		Pipeline:     stub,
		Registry:     pipeline.NewRegistry(builder),
		History:      history,
		Notifier:     notifier.New(),
		SessionStore: NewTestSessionStore(),
		SettingsPath: path,
		t:            t,
	}
}

// Logger returns a logger writing to the test log.
func (f *TestFixture) Logger() *slog.Logger {
	return testutil.NewTestLogger(f.t)
}

// NewTestNotifier creates a notifier for testing.
func NewTestNotifier() *notifier.Notifier {
	return notifier.New()
}

// NewTestSessionStore creates a session store for testing.
func NewTestSessionStore() *sessions.CookieStore {
	return sessions.NewCookieStore([]byte("test-secret-key-32-bytes-long!!"))
}

// SignalsRequest builds a datastar request carrying signals as a JSON body.
func SignalsRequest(t *testing.T, method, target string, signals any) *http.Request {
	t.Helper()
	body, err := json.Marshal(signals)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Datastar-Request", "true")
	return req
}

// WithCookies copies the cookies set on rec into req, continuing a session.
func WithCookies(req *http.Request, rec *httptest.ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

// RequestWithTimeout wraps a request with a context timeout.
func RequestWithTimeout(r *http.Request, timeout time.Duration) (*http.Request, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	return r.WithContext(ctx), cancel
}
