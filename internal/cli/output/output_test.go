package output

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(mode Mode) (*Renderer, *bytes.Buffer, *bytes.Buffer) {
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	return NewRenderer(out, errOut, mode), out, errOut
}

func TestEffectiveMode(t *testing.T) {
	tests := []struct {
		mode Mode
		want Mode
	}{
		{"", ModeMarkdown},
		{ModeAuto, ModeMarkdown},
		{ModeText, ModeText},
		{ModeMarkdown, ModeMarkdown},
		{ModeJSON, ModeJSON},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			r, _, _ := newTestRenderer(tt.mode)
			assert.False(t, r.IsTTY())
			assert.Equal(t, tt.want, r.EffectiveMode())
		})
	}
}

func TestEffectiveMode_Terminal(t *testing.T) {
	r := NewRendererWithTTY(new(bytes.Buffer), new(bytes.Buffer), true, ModeAuto)
	assert.True(t, r.IsTTY())
	assert.Equal(t, ModeText, r.EffectiveMode())
}

func TestHeader(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Header(2, "Settings")
	assert.Equal(t, "## Settings\n\n", out.String())

	r, out, _ = newTestRenderer(ModeText)
	r.Header(2, "Settings")
	assert.Equal(t, "Settings\n", out.String(), "no escape codes off a terminal")
}

func TestFormatHeader(t *testing.T) {
	assert.Equal(t, "# A", FormatHeader(0, "A"))
	assert.Equal(t, "### B", FormatHeader(3, "B"))
}

func TestSuccessAndError(t *testing.T) {
	r, out, errOut := newTestRenderer(ModeText)
	r.Success("saved")
	r.Error("broken")

	assert.Equal(t, "✓ saved\n", out.String())
	assert.Equal(t, "✗ broken\n", errOut.String())
}

func TestField(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Field("Host", "db.example.com")
	assert.Equal(t, "**Host:** db.example.com\n", out.String())

	r, out, _ = newTestRenderer(ModeText)
	r.Field("Host", "db.example.com")
	assert.Equal(t, "Host: db.example.com\n", out.String())
}

func TestCode(t *testing.T) {
	r, out, _ := newTestRenderer(ModeMarkdown)
	r.Code("sparql", "SELECT ?s WHERE { ?s ?p ?o }\n")
	assert.Equal(t, "```sparql\nSELECT ?s WHERE { ?s ?p ?o }\n```\n", out.String())

	r, out, _ = newTestRenderer(ModeText)
	r.Code("sparql", "SELECT 1")
	assert.Contains(t, out.String(), "SELECT 1")
	assert.NotContains(t, out.String(), "```")
}

func TestJSON(t *testing.T) {
	r, out, _ := newTestRenderer(ModeJSON)
	require.NoError(t, r.JSON(map[string]int{"port": 8182}))
	assert.JSONEq(t, `{"port": 8182}`, out.String())
}

func TestTable(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText)
		r.Table([]string{"a"}, nil)
		assert.Equal(t, "(0 rows)\n", out.String())
	})

	t.Run("markdown", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeMarkdown)
		r.Table([]string{"Question", "Answer"}, [][]string{{"how many?", "42"}})
		assert.Contains(t, out.String(), "| Question | Answer |")
		assert.Contains(t, out.String(), "| how many? | 42 |")
	})

	t.Run("text", func(t *testing.T) {
		r, out, _ := newTestRenderer(ModeText)
		r.Table([]string{"Question", "Answer"}, [][]string{{"how many?", "42"}})
		assert.Contains(t, out.String(), "QUESTION")
		assert.Contains(t, out.String(), "how many?")
		assert.Contains(t, out.String(), "┌")
	})
}

func TestFromContext(t *testing.T) {
	assert.NotNil(t, FromContext(context.Background()))
	_, ok := Lookup(context.Background())
	assert.False(t, ok)

	r, _, _ := newTestRenderer(ModeJSON)
	assert.Same(t, r, FromContext(WithRenderer(context.Background(), r)))
}
