package commands

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/leapstack-labs/sparqlchat/internal/cli/config"
	"github.com/leapstack-labs/sparqlchat/internal/cli/testutil"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedHistory(t *testing.T, cfg *config.Config, records ...*state.QueryRecord) {
	t.Helper()
	store, err := state.OpenAndMigrate(cfg.HistoryPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	for _, rec := range records {
		require.NoError(t, store.RecordQuery(context.Background(), rec))
	}
}

func TestHistory_Markdown(t *testing.T) {
	cfg := testutil.SetupTestConfig(t, testSettings())
	seedHistory(t, cfg,
		&state.QueryRecord{Question: "first question", Answer: "first answer", Duration: 1500 * time.Millisecond},
		&state.QueryRecord{Question: "second question", Error: "throttled"},
	)
	tr := testutil.NewTestRendererAuto()

	err := testutil.ExecuteCommand(t, NewHistoryCommand(), cfg, tr)
	require.NoError(t, err)

	out := tr.Output()
	assert.Contains(t, out, "## History (2)")
	assert.Contains(t, out, "| Time | Question | Result | Duration |")
	assert.Contains(t, out, "| first question | first answer | 1.5s |")
	assert.Contains(t, out, "| second question | error: throttled | - |")
	assert.Less(t, strings.Index(out, "second question"), strings.Index(out, "first question"), "newest first")
	testutil.AssertNoANSI(t, out)
}

func TestHistory_Limit(t *testing.T) {
	cfg := testutil.SetupTestConfig(t, testSettings())
	seedHistory(t, cfg,
		&state.QueryRecord{Question: "old"},
		&state.QueryRecord{Question: "new"},
	)
	tr := testutil.NewTestRendererAuto()

	err := testutil.ExecuteCommand(t, NewHistoryCommand(), cfg, tr, "--limit", "1")
	require.NoError(t, err)

	assert.Contains(t, tr.Output(), "| new |")
	assert.NotContains(t, tr.Output(), "| old |")
}

func TestHistory_JSON(t *testing.T) {
	cfg := testutil.SetupTestConfig(t, testSettings())
	seedHistory(t, cfg, &state.QueryRecord{Question: "q", Answer: "a", GeneratedQuery: "SELECT 1"})
	tr := testutil.NewTestRendererJSON()

	err := testutil.ExecuteCommand(t, NewHistoryCommand(), cfg, tr)
	require.NoError(t, err)

	var got []state.QueryRecord
	require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "q", got[0].Question)
	assert.Equal(t, "SELECT 1", got[0].GeneratedQuery)
	assert.NotEmpty(t, got[0].ID)
}

func TestHistory_EmptyJSON(t *testing.T) {
	cfg := testutil.SetupTestConfig(t, testSettings())
	tr := testutil.NewTestRendererJSON()

	err := testutil.ExecuteCommand(t, NewHistoryCommand(), cfg, tr)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", tr.Output())
}

func TestHistory_Empty(t *testing.T) {
	cfg := testutil.SetupTestConfig(t, testSettings())
	tr := testutil.NewTestRendererAuto()

	err := testutil.ExecuteCommand(t, NewHistoryCommand(), cfg, tr)
	require.NoError(t, err)
	assert.Contains(t, tr.Output(), "(0 rows)")
}

func TestHistory_Disabled(t *testing.T) {
	cfg := testutil.SetupTestConfig(t, testSettings())
	cfg.HistoryPath = "none"
	tr := testutil.NewTestRendererAuto()

	err := testutil.ExecuteCommand(t, NewHistoryCommand(), cfg, tr)
	assert.ErrorIs(t, err, errHistoryDisabled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcd…", truncate("abcdefgh", 5))
	assert.Equal(t, "été…", truncate("étéétéété", 4))
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "-", formatDuration(0))
	assert.Equal(t, "1.235s", formatDuration(1234567*time.Microsecond))
}
