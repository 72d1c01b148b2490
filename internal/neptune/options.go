package neptune

import (
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// Config describes how to reach a Neptune cluster.
type Config struct {
	Host       string
	Port       int
	Region     string
	UseIAMAuth bool
	UseHTTPS   bool
}

// Option configures a Graph.
type Option func(*Graph)

// WithHTTPClient sets the HTTP client used for all requests.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Graph) {
		g.httpClient = c
	}
}

// WithCredentials sets the credentials provider used for SigV4 signing.
// Without it the default AWS credential chain is resolved for the region.
func WithCredentials(p aws.CredentialsProvider) Option {
	return func(g *Graph) {
		g.credentials = p
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = l
	}
}

// WithSchemaLimit caps the number of classes and predicates read during
// schema discovery.
func WithSchemaLimit(n int) Option {
	return func(g *Graph) {
		if n > 0 {
			g.schemaLimit = n
		}
	}
}
