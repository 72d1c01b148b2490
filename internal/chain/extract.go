package chain

import (
	"regexp"
	"strings"
)

var (
	taggedSPARQL = regexp.MustCompile(`(?is)<sparql>(.*?)</sparql>`)
	fencedSPARQL = regexp.MustCompile("(?s)```[a-zA-Z]*\\s*\\n?(.*?)```")
)

// ExtractSPARQL pulls the query out of a model reply. It prefers the contents
// of <sparql> tags, then a fenced code block, then the whole reply.
func ExtractSPARQL(reply string) string {
	if m := taggedSPARQL.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	if m := fencedSPARQL.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(reply)
}

// LimitBindings returns a copy of a SPARQL JSON result with at most topK
// bindings. Results without bindings (ASK, CONSTRUCT) are returned as is.
func LimitBindings(res map[string]any, topK int) map[string]any {
	if topK <= 0 || res == nil {
		return res
	}
	results, ok := res["results"].(map[string]any)
	if !ok {
		return res
	}
	bindings, ok := results["bindings"].([]any)
	if !ok || len(bindings) <= topK {
		return res
	}

	limitedResults := make(map[string]any, len(results))
	for k, v := range results {
		limitedResults[k] = v
	}
	limitedResults["bindings"] = bindings[:topK]

	out := make(map[string]any, len(res))
	for k, v := range res {
		out[k] = v
	}
	out["results"] = limitedResults
	return out
}
