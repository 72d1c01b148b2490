// Package components provides the shared page shell and widgets.
package components

import (
	"context"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common"
	"github.com/leapstack-labs/sparqlchat/internal/ui/resources"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0/bundles/datastar.js"

var shell = template.Must(template.New("shell").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} - SPARQL Chat</title>
<link rel="stylesheet" href="{{.Stylesheet}}">
<script type="module" src="{{.Script}}"></script>
</head>
<body>
<div class="app">
<nav class="sidebar" id="sidebar">
<h2>Navigation</h2>
<ul>
{{- range .Nav}}
<li><a href="{{.Href}}"{{if eq .Href $.CurrentPath}} class="active" aria-current="page"{{end}}>{{.Label}}</a></li>
{{- end}}
</ul>
</nav>
<main class="content" id="ui-content">
<h1>{{.Title}}</h1>
{{.Body}}
</main>
</div>
{{- if .IsDev}}
<div data-init="@get('/reload', {retryMaxCount: 1000, retryInterval: 20, retryMaxWaitMs: 200})"></div>
{{- end}}
</body>
</html>
`))

var alerts = template.Must(template.New("alerts").Parse(`<div id="{{.ID}}" class="alerts">
{{- range .Alerts}}
<div class="alert alert-{{.Kind}}" role="alert"><strong>{{.Message}}</strong>{{if .Detail}}<pre>{{.Detail}}</pre>{{end}}</div>
{{- end}}
</div>`))

// Page wraps body in the application shell with the sidebar.
func Page(title string, sidebar common.SidebarData, isDev bool, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		content, err := templ.ToGoHTML(ctx, body)
		if err != nil {
			return err
		}
		return shell.Execute(w, struct {
			Title       string
			Stylesheet  string
			Script      string
			Nav         []common.NavItem
			CurrentPath string
			IsDev       bool
			Body        template.HTML
		}{
			Title:       title,
			Stylesheet:  resources.StaticPath(resources.Stylesheet),
			Script:      datastarScript,
			Nav:         common.Nav,
			CurrentPath: sidebar.CurrentPath,
			IsDev:       isDev,
			Body:        content,
		})
	})
}

// Alerts renders a list of alerts into the element with the given id.
func Alerts(id string, list ...common.Alert) templ.Component {
	return templ.FromGoHTML(alerts, struct {
		ID     string
		Alerts []common.Alert
	}{ID: id, Alerts: list})
}
