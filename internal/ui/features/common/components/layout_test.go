package components

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestPage(t *testing.T) {
	body := templ.Raw(`<p id="marker">hello</p>`)

	html := render(t, Page("Settings", common.SidebarData{CurrentPath: "/settings"}, true, body))

	assert.Contains(t, html, "<!doctype html>")
	assert.Contains(t, html, "<title>Settings - SPARQL Chat</title>")
	assert.Contains(t, html, `<h1>Settings</h1>`)
	assert.Contains(t, html, `<p id="marker">hello</p>`)
	assert.Contains(t, html, `href="/settings" class="active"`)
	assert.Contains(t, html, `href="/rag"`)
	assert.Contains(t, html, `href="/static/app.css"`)
	assert.Contains(t, html, "data-init")
}

func TestPage_ProdHasNoReload(t *testing.T) {
	html := render(t, Page("RAG", common.SidebarData{CurrentPath: "/rag"}, false, templ.NopComponent))
	assert.NotContains(t, html, "/reload")
	assert.Contains(t, html, `href="/rag" class="active"`)
}

func TestAlerts(t *testing.T) {
	html := render(t, Alerts("status",
		common.Success("Settings saved successfully!"),
		common.Error("Failed", errors.New("dial <tcp>")),
	))

	assert.Contains(t, html, `id="status"`)
	assert.Contains(t, html, `alert-success`)
	assert.Contains(t, html, "Settings saved successfully!")
	assert.Contains(t, html, `alert-error`)
	assert.Contains(t, html, "dial &lt;tcp&gt;")
}
