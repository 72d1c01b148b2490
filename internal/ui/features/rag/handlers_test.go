package rag

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features"
	"github.com/leapstack-labs/sparqlchat/internal/ui/notifier"
)

var startup = settings.Settings{
	Host:    "db.example.com",
	Port:    8182,
	Region:  "us-east-1",
	ModelID: "anthropic.claude-3-sonnet-20240229-v1:0",
}

// =============================================================================
// Test Setup Helpers
// =============================================================================

func setupTestHandlers(t *testing.T) (*Handlers, *features.TestFixture) {
	t.Helper()

	s := startup
	fixture := features.SetupTestFixture(t, &s)
	handlers := NewHandlers(
		fixture.Manager,
		fixture.Registry,
		fixture.History,
		fixture.SessionStore,
		fixture.Notifier,
		fixture.Logger(),
		true,
	)
	return handlers, fixture
}

func ask(t *testing.T, h *Handlers, question string, prev *httptest.ResponseRecorder) *httptest.ResponseRecorder {
	t.Helper()
	req := features.SignalsRequest(t, http.MethodPost, "/rag/ask", AskSignals{Question: question})
	if prev != nil {
		features.WithCookies(req, prev)
	}
	rec := httptest.NewRecorder()
	h.AskSSE(rec, req)
	return rec
}

// =============================================================================
// RAGPage Tests
// =============================================================================

func TestRAGPage(t *testing.T) {
	h, _ := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/rag", nil)
	rec := httptest.NewRecorder()
	h.RAGPage(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	for _, want := range []string{
		"<title>Retrieval Augmented Generation - SPARQL Chat</title>",
		"Enter your query",
		"Submit",
		"/rag/ask",
		"/rag/updates",
		`id="rag-result"`,
		"No questions yet.",
		`href="/rag" class="active"`,
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
}

func TestRAGPage_ShowsHistory(t *testing.T) {
	h, _ := setupTestHandlers(t)
	ask(t, h, "How many people?", nil)

	req := httptest.NewRequest(http.MethodGet, "/rag", nil)
	rec := httptest.NewRecorder()
	h.RAGPage(rec, req)

	body := rec.Body.String()
	assert.Contains(t, body, "How many people?")
	assert.NotContains(t, body, "No questions yet.")
}

// =============================================================================
// AskSSE Tests
// =============================================================================

func TestAskSSE_RendersResult(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	rec := ask(t, h, "What is the answer?", nil)

	body := rec.Body.String()
	for _, want := range []string{
		"Result:",
		"42",
		"Generated SPARQL:",
		"SELECT ...",
		"Full Context:",
		`<details class="context">`,
		"&#34;a&#34;: 1",
	} {
		assert.Contains(t, body, want, "response should contain %q", want)
	}
	assert.NotContains(t, body, "<details class=\"context\" open")

	assert.Equal(t, []string{"What is the answer?"}, fixture.Pipeline.Invocations())
	calls := fixture.Builder.BuildCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, startup, calls[0])
}

func TestAskSSE_PassesRawQuestion(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	ask(t, h, "  spaced question \n", nil)

	assert.Equal(t, []string{"  spaced question \n"}, fixture.Pipeline.Invocations())
}

func TestAskSSE_UsesStartupSettings(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	// a save that bypassed the settings form leaves the session without a pipeline
	require.NoError(t, fixture.Manager.Save(settings.Settings{
		Host: "other.example.com", Port: 9999, Region: "eu-west-1", ModelID: "m",
	}))

	ask(t, h, "q", nil)

	calls := fixture.Builder.BuildCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, startup, calls[0])
}

func TestAskSSE_ReusesSessionPipeline(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	first := ask(t, h, "one", nil)
	ask(t, h, "two", first)

	assert.Len(t, fixture.Builder.BuildCalls(), 1)
	assert.Equal(t, []string{"one", "two"}, fixture.Pipeline.Invocations())
}

func TestAskSSE_SessionsAreIsolated(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	ask(t, h, "from a", nil)
	ask(t, h, "from b", nil)

	assert.Len(t, fixture.Builder.BuildCalls(), 2)
	assert.Equal(t, 2, fixture.Registry.Len())
}

func TestAskSSE_InitializationFailure(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	fixture.Builder.Err = errors.New("no EC2 IMDS role found")

	rec := ask(t, h, "anything", nil)

	body := rec.Body.String()
	assert.Contains(t, body, InitFailedMessage)
	assert.Contains(t, body, "no EC2 IMDS role found")
	assert.NotContains(t, body, "Result:")
	assert.Empty(t, fixture.Pipeline.Invocations(), "the pipeline must never be invoked")

	records, err := fixture.History.ListQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, InitFailedMessage, records[0].Error)
}

func TestAskSSE_RetriesInitializationOnNextSubmit(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	fixture.Builder.Err = errors.New("temporary")

	first := ask(t, h, "q", nil)
	fixture.Builder.Err = nil
	rec := ask(t, h, "q", first)

	assert.Contains(t, rec.Body.String(), "42")
	assert.Len(t, fixture.Builder.BuildCalls(), 2)
}

func TestAskSSE_EmptyQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, fixture := setupTestHandlers(t)

			rec := ask(t, h, tt.question, nil)

			assert.Contains(t, rec.Body.String(), EmptyQuestionMessage)
			assert.Empty(t, fixture.Builder.BuildCalls())
			assert.Empty(t, fixture.Pipeline.Invocations())
		})
	}
}

func TestAskSSE_InvocationFailure(t *testing.T) {
	h, fixture := setupTestHandlers(t)
	fixture.Pipeline.Err = errors.New("sparql execution failed: status 400")

	rec := ask(t, h, "bad", nil)

	body := rec.Body.String()
	assert.Contains(t, body, "Query failed")
	assert.Contains(t, body, "sparql execution failed: status 400")
	assert.NotContains(t, body, "Result:")

	records, err := fixture.History.ListQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Failed())
	assert.Equal(t, startup.Host, records[0].Host)
}

func TestAskSSE_RecordsHistory(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	rec := ask(t, h, "How many?", nil)

	assert.Contains(t, rec.Body.String(), `id="rag-history"`)

	records, err := fixture.History.ListQueries(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "How many?", records[0].Question)
	assert.Equal(t, "42", records[0].Answer)
	assert.Equal(t, "SELECT ...", records[0].GeneratedQuery)
	assert.Equal(t, startup.ModelID, records[0].ModelID)
}

func TestAskSSE_WithoutHistory(t *testing.T) {
	_, fixture := setupTestHandlers(t)
	h := NewHandlers(fixture.Manager, fixture.Registry, nil, fixture.SessionStore, fixture.Notifier, fixture.Logger(), false)

	rec := ask(t, h, "q", nil)

	body := rec.Body.String()
	assert.Contains(t, body, "42")
	assert.NotContains(t, body, "rag-history")
}

// =============================================================================
// HistoryUpdates Tests
// =============================================================================

func TestHistoryUpdates_RendersOnBroadcast(t *testing.T) {
	h, fixture := setupTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/rag/updates", nil)
	ctx, cancel := context.WithTimeout(req.Context(), 300*time.Millisecond)
	defer cancel()
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		h.HistoryUpdates(rec, req)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return fixture.Notifier.Listeners(notifier.TopicHistory) == 1
	}, 200*time.Millisecond, 5*time.Millisecond)

	// a question from another session triggers the broadcast
	ask(t, h, "asked elsewhere", nil)

	<-done

	body := rec.Body.String()
	assert.GreaterOrEqual(t, strings.Count(body, "event:"), 1)
	assert.Contains(t, body, "asked elsewhere")
}
