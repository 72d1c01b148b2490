// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/sparqlchat/internal/cli/config"
	"github.com/leapstack-labs/sparqlchat/internal/cli/output"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/spf13/cobra"
)

// SetupTestConfig returns a config whose settings and history files live in
// a temporary directory. When s is non-nil it is written to the settings file.
func SetupTestConfig(t *testing.T, s *settings.Settings) *config.Config {
	t.Helper()

	dir := t.TempDir()
	cfg := &config.Config{
		SettingsPath: filepath.Join(dir, "sparqlchat", "settings.cfg"),
		HistoryPath:  filepath.Join(dir, "history.db"),
		LogLevel:     config.DefaultLogLevel,
		OutputFormat: config.DefaultOutput,
		UI:           config.DefaultUIConfig(),
	}

	if s != nil {
		if err := settings.Save(cfg.SettingsPath, *s); err != nil {
			t.Fatalf("failed to write settings: %v", err)
		}
	}
	return cfg
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
// Output is captured in buffers for inspection.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto creates a new test renderer with auto mode detection.
// In tests, non-TTY defaults to markdown output.
func NewTestRendererAuto() *TestRenderer {
	return NewTestRenderer(output.ModeAuto, false)
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

// ExecuteCommand runs cmd with args, carrying cfg and tr in its context the
// way the root command's pre-run would.
func ExecuteCommand(t *testing.T, cmd *cobra.Command, cfg *config.Config, tr *TestRenderer, args ...string) error {
	t.Helper()

	ctx := config.WithConfig(context.Background(), cfg)
	ctx = output.WithRenderer(ctx, tr.Renderer)
	cmd.SetOut(tr.Out)
	cmd.SetErr(tr.ErrOut)
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd.ExecuteContext(ctx)
}

// ansiPattern matches ANSI escape codes.
var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown performs basic markdown validation.
// It checks for unclosed code fences and basic structure.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	fenceCount := strings.Count(md, "```")
	if fenceCount%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", fenceCount)
	}

	lines := strings.Split(md, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}
