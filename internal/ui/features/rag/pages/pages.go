// Package pages renders the RAG views.
package pages

import (
	"html/template"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common/components"
)

// Element ids patched over SSE.
const (
	ResultID  = "rag-result"
	HistoryID = "rag-history"
)

var views = template.Must(template.New("rag").Parse(`
{{- define "result" -}}
<div id="rag-result" class="rag-result">
{{- range .Alerts}}
<div class="alert alert-{{.Kind}}" role="alert"><strong>{{.Message}}</strong>{{if .Detail}}<pre>{{.Detail}}</pre>{{end}}</div>
{{- end}}
{{- with .Result}}
<p class="label">Result:</p>
<div class="answer">{{.Answer}}</div>
<p class="label">Generated SPARQL:</p>
<pre class="code"><code class="language-sparql">{{.GeneratedQuery}}</code></pre>
<p class="label">Full Context:</p>
<details class="context">
<summary>JSON</summary>
<pre class="code"><code class="language-json">{{$.Context}}</code></pre>
</details>
{{- end}}
</div>
{{- end -}}
{{- define "history" -}}
<section id="rag-history" class="history">
<h2>Recent questions</h2>
<ul>
{{- range .}}
<li{{if .Failed}} class="failed"{{end}}><time datetime="{{.CreatedAt.Format "2006-01-02T15:04:05Z07:00"}}">{{.CreatedAt.Format "2006-01-02 15:04:05"}}</time> <span class="question">{{.Question}}</span>{{if .Failed}} <span class="error">{{.Error}}</span>{{end}}</li>
{{- else}}
<li class="empty">No questions yet.</li>
{{- end}}
</ul>
</section>
{{- end -}}
{{- define "body" -}}
<form id="rag-form" class="rag-form" data-signals="{&#34;question&#34;: &#34;&#34;}" data-indicator="asking">
<label for="question">Enter your query</label>
<textarea id="question" name="question" rows="4" data-bind="question"></textarea>
<button type="button" data-on:click="@post('/rag/ask')" data-attr:disabled="$asking">Submit</button>
</form>
{{template "result" .Result}}
{{template "history" .History}}
<div data-init="@get('/rag/updates')"></div>
{{- end -}}
`))

type resultData struct {
	Alerts  []common.Alert
	Result  *pipeline.Result
	Context string
}

// RAGPage renders the full question page.
func RAGPage(title string, isDev bool, history []state.QueryRecord) templ.Component {
	body := templ.FromGoHTML(views.Lookup("body"), struct {
		Result  resultData
		History []state.QueryRecord
	}{History: history})
	return components.Page(title, common.SidebarData{CurrentPath: "/rag"}, isDev, body)
}

// Result renders an answer with its generated query and context.
func Result(res *pipeline.Result) templ.Component {
	return templ.FromGoHTML(views.Lookup("result"), resultData{
		Result:  res,
		Context: common.PrettyJSON(res.Context),
	})
}

// ResultAlerts renders the result area holding only alerts.
func ResultAlerts(alerts ...common.Alert) templ.Component {
	return templ.FromGoHTML(views.Lookup("result"), resultData{Alerts: alerts})
}

// History renders the recent questions list.
func History(records []state.QueryRecord) templ.Component {
	return templ.FromGoHTML(views.Lookup("history"), records)
}
