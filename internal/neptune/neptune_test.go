package neptune

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNeptune is a minimal stand-in for a Neptune SPARQL endpoint.
type fakeNeptune struct {
	mu           sync.Mutex
	summaryCode  int
	authHeaders  []string
	forms        []url.Values
	literalPreds map[string]bool
	selectResult map[string]any
}

func (f *fakeNeptune) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
	f.mu.Unlock()

	switch r.URL.Path {
	case "/rdf/statistics/summary":
		if f.summaryCode != 0 {
			http.Error(w, `{"code":"StatisticsNotAvailableException"}`, f.summaryCode)
			return
		}
		_, _ = w.Write([]byte(`{"status":"200 OK","payload":{"graphSummary":{
			"classes":["http://example.org/Person","http://example.org/City"],
			"predicates":[{"http://example.org/name":10},{"http://example.org/livesIn":4}]}}}`))

	case "/sparql":
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.mu.Lock()
		f.forms = append(f.forms, r.PostForm)
		f.mu.Unlock()

		q := r.PostForm.Get("query")
		w.Header().Set("Content-Type", sparqlResultsJSON)
		switch {
		case strings.HasPrefix(q, "ASK"):
			literal := false
			for pred, isLiteral := range f.literalPreds {
				if strings.Contains(q, "<"+pred+">") {
					literal = isLiteral
				}
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"head": map[string]any{}, "boolean": literal})
		case strings.Contains(q, "?s a ?x"):
			_, _ = w.Write([]byte(`{"head":{"vars":["x"]},"results":{"bindings":[{"x":{"type":"uri","value":"http://example.org/Thing"}}]}}`))
		case strings.Contains(q, "?s ?x ?o"):
			_, _ = w.Write([]byte(`{"head":{"vars":["x"]},"results":{"bindings":[{"x":{"type":"uri","value":"http://example.org/label"}}]}}`))
		default:
			_ = json.NewEncoder(w).Encode(f.selectResult)
		}

	default:
		http.NotFound(w, r)
	}
}

func newFake() *fakeNeptune {
	return &fakeNeptune{
		literalPreds: map[string]bool{
			"http://example.org/name":  true,
			"http://example.org/label": true,
		},
		selectResult: map[string]any{
			"head": map[string]any{"vars": []any{"name"}},
			"results": map[string]any{"bindings": []any{
				map[string]any{"name": map[string]any{"type": "literal", "value": "Ada"}},
			}},
		},
	}
}

func configFor(t *testing.T, srv *httptest.Server, https bool) Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	host, portStr, err := net.SplitHostPort(u.Host)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return Config{Host: host, Port: port, Region: "us-east-1", UseIAMAuth: true, UseHTTPS: https}
}

var staticCreds = credentials.NewStaticCredentialsProvider("AKIDEXAMPLE", "secret", "")

func TestNew_EmptyHost(t *testing.T) {
	_, err := New(context.Background(), Config{Port: 8182, Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrEmptyHost)
}

func TestNew_LoadsSchemaFromSummary(t *testing.T) {
	fake := newFake()
	srv := httptest.NewTLSServer(fake)
	defer srv.Close()

	g, err := New(context.Background(), configFor(t, srv, true),
		WithHTTPClient(srv.Client()),
		WithCredentials(staticCreds),
	)
	require.NoError(t, err)
	defer func() { _ = g.Close() }()

	assert.True(t, strings.HasPrefix(g.Endpoint(), "https://"))

	structured := g.GetStructuredSchema()
	assert.Equal(t, []string{"http://example.org/City", "http://example.org/Person"}, structured.Classes)
	assert.Equal(t, []string{"http://example.org/name"}, structured.DataProps)
	assert.Equal(t, []string{"http://example.org/livesIn"}, structured.ObjectProps)

	schema := g.GetSchema()
	assert.Contains(t, schema, "<http://example.org/Person> (Person)")
	assert.Contains(t, schema, "<http://example.org/livesIn> (livesIn)")
}

func TestNew_FallsBackToSPARQLDiscovery(t *testing.T) {
	fake := newFake()
	fake.summaryCode = http.StatusBadRequest
	srv := httptest.NewServer(fake)
	defer srv.Close()

	g, err := New(context.Background(), configFor(t, srv, false), WithCredentials(staticCreds))
	require.NoError(t, err)

	structured := g.GetStructuredSchema()
	assert.Equal(t, []string{"http://example.org/Thing"}, structured.Classes)
	assert.Equal(t, []string{"http://example.org/label"}, structured.DataProps)
}

func TestNew_ServerErrorFails(t *testing.T) {
	fake := newFake()
	fake.summaryCode = http.StatusInternalServerError
	srv := httptest.NewServer(fake)
	defer srv.Close()

	_, err := New(context.Background(), configFor(t, srv, false), WithCredentials(staticCreds))
	require.Error(t, err)

	var qerr *QueryError
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, http.StatusInternalServerError, qerr.StatusCode)
}

func TestQuery_SignsRequests(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	g, err := New(context.Background(), configFor(t, srv, false), WithCredentials(staticCreds))
	require.NoError(t, err)

	res, err := g.Query(context.Background(), "SELECT ?name WHERE { ?p <http://example.org/name> ?name }", nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"name"}, Vars(res))
	require.Len(t, Bindings(res), 1)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.NotEmpty(t, fake.authHeaders)
	for _, h := range fake.authHeaders {
		assert.True(t, strings.HasPrefix(h, "AWS4-HMAC-SHA256"), "header %q", h)
		assert.Contains(t, h, "/us-east-1/neptune-db/aws4_request")
	}
	last := fake.forms[len(fake.forms)-1]
	assert.Contains(t, last.Get("query"), "SELECT ?name")
}

func TestQuery_WithoutIAMAuthIsUnsigned(t *testing.T) {
	fake := newFake()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	cfg := configFor(t, srv, false)
	cfg.UseIAMAuth = false
	_, err := New(context.Background(), cfg)
	require.NoError(t, err)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	for _, h := range fake.authHeaders {
		assert.Empty(t, h)
	}
}

func TestQueryParam(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * WHERE { ?s ?p ?o }", "query"},
		{"PREFIX ex: <http://example.org/>\nSELECT ?s WHERE { ?s a ex:Person }", "query"},
		{"ASK { ?s ?p ?o }", "query"},
		{"INSERT DATA { <a> <b> <c> }", "update"},
		{"PREFIX ex: <http://example.org/>\ndelete where { ?s ex:p ?o }", "update"},
		{"DESCRIBE <http://example.org/x>", "query"},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, queryParam(tt.query))
		})
	}
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "Person", LocalName("http://example.org/ontology#Person"))
	assert.Equal(t, "livesIn", LocalName("http://example.org/livesIn"))
	assert.Equal(t, "dir", LocalName("http://example.org/dir/"))
	assert.Equal(t, "plain", LocalName("plain"))
}

func TestFormatSchema_Empty(t *testing.T) {
	out := FormatSchema(Schema{})
	assert.Equal(t, 3, strings.Count(out, "(none)"))
}
