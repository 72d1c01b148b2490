package chain

import "github.com/tmc/langchaingo/prompts"

// GenerationTemplate asks the model for a single SPARQL SELECT statement.
const GenerationTemplate = `Task: write a SPARQL SELECT query that answers a question about an RDF graph.

Rules:
- Use only the classes and properties listed in the schema.
- Declare every prefix the query uses.
- Return only the query, wrapped in <sparql></sparql> tags, with no explanation.
- If the question cannot be answered from the schema, still return the closest query you can write.
{{- if .examples}}

Example questions and queries:
{{.examples}}
{{- end}}

Schema:
{{.schema}}

Question:
{{.prompt}}`

// QATemplate turns query results into a natural-language answer.
const QATemplate = `You answer questions using the results of a SPARQL query run against a knowledge graph.
Treat the results as authoritative: do not correct them from your own knowledge and do not add facts that are not in them.
If the results are empty, say that the graph has no matching information.

Results:
{{.context}}

Question: {{.prompt}}
Answer:`

// NewGenerationPrompt returns the SPARQL generation prompt.
func NewGenerationPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(GenerationTemplate, []string{"schema", "prompt", "examples"})
}

// NewQAPrompt returns the answer prompt.
func NewQAPrompt() prompts.PromptTemplate {
	return prompts.NewPromptTemplate(QATemplate, []string{"context", "prompt"})
}
