package commands

import (
	"encoding/json"
	"strings"

	"github.com/leapstack-labs/sparqlchat/internal/cli/output"
	"github.com/leapstack-labs/sparqlchat/internal/neptune"
	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/spf13/cobra"
)

// AskOptions holds options for the ask command.
type AskOptions struct {
	ShowContext bool
	NoHistory   bool
}

// askOutput is the JSON shape of an answer.
type askOutput struct {
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	GeneratedQuery string `json:"generated_query"`
	Context        any    `json:"context,omitempty"`
}

// NewAskCommand creates the ask command.
func NewAskCommand() *cobra.Command {
	opts := &AskOptions{}

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a question about the graph",
		Long: `Ask a natural-language question about the Neptune graph.

The question is turned into a SPARQL query by the configured Bedrock model,
the query is run against Neptune, and the model answers from the results.
Connection settings are read from the settings file.`,
		Example: `  # Ask a question
  sparqlchat ask "How many airports are in Texas?"

  # Include the raw query results
  sparqlchat ask --show-context "Which routes leave AUS?"

  # Machine-readable output
  sparqlchat ask -o json "How many airports are there?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowContext, "show-context", false, "Show the raw query results")
	cmd.Flags().BoolVar(&opts.NoHistory, "no-history", false, "Don't record the question in history")

	return cmd
}

func runAsk(cmd *cobra.Command, question string, opts *AskOptions) error {
	var (
		cc      *CommandContext
		cleanup = func() {}
		err     error
	)
	if opts.NoHistory {
		cc = NewCommandContextWithoutHistory(cmd)
	} else {
		cc, cleanup, err = NewCommandContext(cmd)
		if err != nil {
			return err
		}
	}
	defer cleanup()

	q, err := cc.newQuestioner()
	if err != nil {
		return err
	}
	res, err := q.Ask(cmd.Context(), question)
	if err != nil {
		return err
	}

	return renderAnswer(cc.Renderer, question, res, opts.ShowContext)
}

func renderAnswer(r *output.Renderer, question string, res *pipeline.Result, showContext bool) error {
	if r.EffectiveMode() == output.ModeJSON {
		out := askOutput{
			Question:       question,
			Answer:         res.Answer,
			GeneratedQuery: res.GeneratedQuery,
		}
		if showContext {
			out.Context = res.Context
		}
		return r.JSON(out)
	}

	r.Header(2, "Answer")
	r.Println(res.Answer)
	r.Println()
	r.Header(2, "Generated SPARQL")
	r.Code("sparql", res.GeneratedQuery)

	if showContext {
		r.Println()
		r.Header(2, "Context")
		if header, rows, ok := contextTable(res.Context); ok {
			r.Table(header, rows)
			return nil
		}
		b, err := json.MarshalIndent(res.Context, "", "  ")
		if err != nil {
			return err
		}
		r.Code("json", string(b))
	}
	return nil
}

// contextTable lays out SPARQL SELECT results with one column per variable
// in head.vars order. ok is false for any other context.
func contextTable(graphContext any) (header []string, rows [][]string, ok bool) {
	m, isMap := graphContext.(map[string]any)
	if !isMap {
		return nil, nil, false
	}
	header = neptune.Vars(m)
	if len(header) == 0 {
		return nil, nil, false
	}
	for _, binding := range neptune.Bindings(m) {
		row := make([]string, len(header))
		for i, v := range header {
			if term, ok := binding[v].(map[string]any); ok {
				row[i], _ = term["value"].(string)
			}
		}
		rows = append(rows, row)
	}
	return header, rows, true
}
