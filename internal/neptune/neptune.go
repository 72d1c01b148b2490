package neptune

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

// SigningService is the SigV4 service name for Neptune data-plane requests.
const SigningService = "neptune-db"

const (
	sparqlResultsJSON = "application/sparql-results+json"
	formContentType   = "application/x-www-form-urlencoded"
	maxErrorBody      = 4096
)

// ErrEmptyHost is returned when a Graph is created without a host.
var ErrEmptyHost = errors.New("neptune host is not configured")

// QueryError is returned when Neptune answers a request with a non-2xx status.
type QueryError struct {
	StatusCode int
	Body       string
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("neptune request failed with status %d: %s", e.StatusCode, e.Body)
}

// Graph is a connection descriptor for a Neptune SPARQL endpoint.
// It holds no open connection; every call is an independent HTTP request.
type Graph struct {
	cfg         Config
	endpoint    string
	httpClient  *http.Client
	credentials aws.CredentialsProvider
	signer      *v4.Signer
	logger      *slog.Logger
	schemaLimit int
	now         func() time.Time

	mu         sync.RWMutex
	schema     string
	structured Schema
}

// New creates a Graph for cfg and loads its schema.
func New(ctx context.Context, cfg Config, opts ...Option) (*Graph, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, ErrEmptyHost
	}

	scheme := "http"
	if cfg.UseHTTPS {
		scheme = "https"
	}

	g := &Graph{
		cfg:         cfg,
		endpoint:    scheme + "://" + net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		httpClient:  &http.Client{},
		signer:      v4.NewSigner(),
		logger:      slog.New(slog.DiscardHandler),
		schemaLimit: 500,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}

	if cfg.UseIAMAuth && g.credentials == nil {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		g.credentials = awsCfg.Credentials
	}

	if err := g.RefreshSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to load graph schema: %w", err)
	}

	return g, nil
}

// Endpoint returns the base URL of the cluster.
func (g *Graph) Endpoint() string {
	return g.endpoint
}

// Query executes a SPARQL query or update and returns the decoded JSON
// response. params are accepted for interface compatibility and ignored:
// SPARQL has no server-side parameter binding.
func (g *Graph) Query(ctx context.Context, query string, _ map[string]any) (map[string]any, error) {
	form := url.Values{}
	form.Set(queryParam(query), query)

	g.logger.Debug("executing sparql", slog.String("endpoint", g.endpoint))

	body, err := g.do(ctx, http.MethodPost, "/sparql", []byte(form.Encode()))
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode sparql response: %w", err)
	}
	return out, nil
}

// Close releases idle connections. The Graph must not be used afterwards.
func (g *Graph) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

// do sends a request to path and returns the response body.
func (g *Graph) do(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = strings.NewReader(string(payload))
	}

	req, err := http.NewRequestWithContext(ctx, method, g.endpoint+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", sparqlResultsJSON+", application/json")
	if payload != nil {
		req.Header.Set("Content-Type", formContentType)
	}

	if g.cfg.UseIAMAuth {
		if err := g.sign(ctx, req, payload); err != nil {
			return nil, err
		}
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("neptune request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read neptune response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(data)
		if len(msg) > maxErrorBody {
			msg = msg[:maxErrorBody]
		}
		return nil, &QueryError{StatusCode: resp.StatusCode, Body: msg}
	}

	return data, nil
}

// sign adds SigV4 headers for the neptune-db service.
func (g *Graph) sign(ctx context.Context, req *http.Request, payload []byte) error {
	creds, err := g.credentials.Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve AWS credentials: %w", err)
	}

	sum := sha256.Sum256(payload)
	payloadHash := hex.EncodeToString(sum[:])

	if err := g.signer.SignHTTP(ctx, creds, req, payloadHash, SigningService, g.cfg.Region, g.now()); err != nil {
		return fmt.Errorf("failed to sign neptune request: %w", err)
	}
	return nil
}

var (
	prologueLine = regexp.MustCompile(`(?im)^\s*(PREFIX|BASE)\s+[^\n]*$`)
	updateVerb   = regexp.MustCompile(`(?i)^(INSERT|DELETE|LOAD|CLEAR|CREATE|DROP|COPY|MOVE|ADD|WITH)\b`)
)

// queryParam picks the form field for a request: "update" for SPARQL Update
// operations, "query" for everything else.
func queryParam(q string) string {
	body := strings.TrimSpace(prologueLine.ReplaceAllString(q, ""))
	if updateVerb.MatchString(body) {
		return "update"
	}
	return "query"
}
