package neptune

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Schema is the structured view of the graph's vocabulary.
type Schema struct {
	Classes     []string `json:"classes"`
	ObjectProps []string `json:"object_properties"`
	DataProps   []string `json:"datatype_properties"`
}

// summaryResponse is the subset of the Neptune RDF statistics summary we read.
type summaryResponse struct {
	Payload struct {
		GraphSummary struct {
			Classes    []string           `json:"classes"`
			Predicates []map[string]int64 `json:"predicates"`
		} `json:"graphSummary"`
	} `json:"payload"`
}

// GetSchema returns the textual schema used in generation prompts.
func (g *Graph) GetSchema() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.schema
}

// GetStructuredSchema returns a copy of the classes and predicates read by the
// last schema refresh.
func (g *Graph) GetStructuredSchema() Schema {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return Schema{
		Classes:     append([]string(nil), g.structured.Classes...),
		ObjectProps: append([]string(nil), g.structured.ObjectProps...),
		DataProps:   append([]string(nil), g.structured.DataProps...),
	}
}

// RefreshSchema re-reads classes and predicates from the cluster.
//
// The statistics summary API is preferred. Clusters with statistics disabled
// answer it with a 4xx, in which case classes and predicates are read with
// plain SPARQL.
func (g *Graph) RefreshSchema(ctx context.Context) error {
	classes, predicates, err := g.summary(ctx)
	var qerr *QueryError
	if errors.As(err, &qerr) && qerr.StatusCode >= 400 && qerr.StatusCode < 500 {
		g.logger.Debug("statistics summary unavailable, falling back to sparql", "status", qerr.StatusCode)
		classes, predicates, err = g.discover(ctx)
	}
	if err != nil {
		return err
	}

	var s Schema
	s.Classes = classes
	for _, p := range predicates {
		literal, err := g.hasLiteralObject(ctx, p)
		if err != nil {
			return err
		}
		if literal {
			s.DataProps = append(s.DataProps, p)
		} else {
			s.ObjectProps = append(s.ObjectProps, p)
		}
	}

	g.mu.Lock()
	g.structured = s
	g.schema = FormatSchema(s)
	g.mu.Unlock()
	return nil
}

func (g *Graph) summary(ctx context.Context) ([]string, []string, error) {
	body, err := g.do(ctx, http.MethodGet, "/rdf/statistics/summary?mode=detailed", nil)
	if err != nil {
		return nil, nil, err
	}

	var resp summaryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to decode statistics summary: %w", err)
	}

	gs := resp.Payload.GraphSummary
	var predicates []string
	for _, p := range gs.Predicates {
		for iri := range p {
			predicates = append(predicates, iri)
		}
	}

	return g.limit(sorted(gs.Classes)), g.limit(sorted(predicates)), nil
}

func (g *Graph) discover(ctx context.Context) ([]string, []string, error) {
	classes, err := g.selectIRIs(ctx, fmt.Sprintf("SELECT DISTINCT ?x WHERE { ?s a ?x } LIMIT %d", g.schemaLimit))
	if err != nil {
		return nil, nil, err
	}
	predicates, err := g.selectIRIs(ctx, fmt.Sprintf("SELECT DISTINCT ?x WHERE { ?s ?x ?o } LIMIT %d", g.schemaLimit))
	if err != nil {
		return nil, nil, err
	}
	return sorted(classes), sorted(predicates), nil
}

// selectIRIs runs a single-variable SELECT on ?x and returns the values.
func (g *Graph) selectIRIs(ctx context.Context, q string) ([]string, error) {
	res, err := g.Query(ctx, q, nil)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, b := range Bindings(res) {
		if v, ok := b["x"].(map[string]any); ok {
			if s, ok := v["value"].(string); ok {
				out = append(out, s)
			}
		}
	}
	return out, nil
}

func (g *Graph) hasLiteralObject(ctx context.Context, predicate string) (bool, error) {
	q := fmt.Sprintf("ASK { ?s <%s> ?o FILTER(isLiteral(?o)) }", predicate)
	res, err := g.Query(ctx, q, nil)
	if err != nil {
		return false, err
	}
	b, _ := res["boolean"].(bool)
	return b, nil
}

func (g *Graph) limit(values []string) []string {
	if len(values) > g.schemaLimit {
		return values[:g.schemaLimit]
	}
	return values
}

// FormatSchema renders s as the plain-text schema description given to the
// model. Each IRI is followed by its local name.
func FormatSchema(s Schema) string {
	var b strings.Builder
	b.WriteString("Each IRI below is followed by its local name in parentheses.\n")
	writeSection(&b, "Node types (classes)", s.Classes)
	writeSection(&b, "Object properties (link two nodes)", s.ObjectProps)
	writeSection(&b, "Datatype properties (link a node to a literal)", s.DataProps)
	return b.String()
}

func writeSection(b *strings.Builder, title string, iris []string) {
	b.WriteString("\n")
	b.WriteString(title)
	b.WriteString(":\n")
	if len(iris) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, iri := range iris {
		fmt.Fprintf(b, "<%s> (%s)\n", iri, LocalName(iri))
	}
}

// LocalName returns the fragment or last path segment of an IRI.
func LocalName(iri string) string {
	if i := strings.LastIndex(iri, "#"); i >= 0 && i < len(iri)-1 {
		return iri[i+1:]
	}
	trimmed := strings.TrimRight(iri, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return iri
}

// Bindings returns results.bindings from a SPARQL JSON response, or nil.
func Bindings(res map[string]any) []map[string]any {
	results, ok := res["results"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := results["bindings"].([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// Vars returns head.vars from a SPARQL JSON response, or nil.
func Vars(res map[string]any) []string {
	head, ok := res["head"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := head["vars"].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func sorted(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}
