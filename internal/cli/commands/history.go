package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/sparqlchat/internal/cli/output"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/spf13/cobra"
)

// errHistoryDisabled is returned when history_path is empty or "none".
var errHistoryDisabled = errors.New("query history is disabled")

// historyCellWidth caps question and answer columns in tables.
const historyCellWidth = 60

// HistoryOptions holds options for the history command.
type HistoryOptions struct {
	Limit int
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	opts := &HistoryOptions{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently asked questions",
		Long: `Show questions asked from the CLI, the shell and the web UI, newest first.

History is kept in a SQLite database (history_path); set it to "none" to
turn recording off.`,
		Example: `  # Last 20 questions
  sparqlchat history

  # Everything, as JSON
  sparqlchat history --limit 0 -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			return renderHistory(cmd.Context(), cc.Renderer, cc.History, opts.Limit)
		},
	}

	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 20, "Number of entries to show (0 for all)")

	return cmd
}

func renderHistory(ctx context.Context, r *output.Renderer, history state.Store, limit int) error {
	if history == nil {
		return errHistoryDisabled
	}

	records, err := history.ListQueries(ctx, limit)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if records == nil {
			records = []state.QueryRecord{}
		}
		return r.JSON(records)
	}

	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		result := rec.Answer
		if rec.Failed() {
			result = "error: " + rec.Error
		}
		rows = append(rows, []string{
			rec.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			truncate(rec.Question, historyCellWidth),
			truncate(result, historyCellWidth),
			formatDuration(rec.Duration),
		})
	}

	r.Header(2, fmt.Sprintf("History (%d)", len(records)))
	r.Table([]string{"Time", "Question", "Result", "Duration"}, rows)
	return nil
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Millisecond).String()
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
