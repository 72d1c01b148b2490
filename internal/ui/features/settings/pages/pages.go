// Package pages renders the settings views.
package pages

import (
	"encoding/json"
	"html/template"

	"github.com/a-h/templ"

	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common"
	"github.com/leapstack-labs/sparqlchat/internal/ui/features/common/components"
)

// Element ids patched over SSE.
const (
	FormID   = "settings-form"
	StatusID = "settings-status"
)

var views = template.Must(template.New("settings").Parse(`
{{- define "form" -}}
<form id="settings-form" class="settings-form" data-signals="{{.Signals}}" data-indicator="saving">
<label for="host">Neptune Host</label>
<input id="host" name="host" type="text" value="{{.Host}}" data-bind="host">
<label for="port">Neptune Port</label>
<input id="port" name="port" type="number" min="1" max="65535" value="{{.Port}}" data-bind="port">
<label for="region">AWS Region</label>
<input id="region" name="region" type="text" value="{{.Region}}" data-bind="region">
<label for="model-id">Model ID</label>
<input id="model-id" name="model_id" type="text" value="{{.ModelID}}" data-bind="modelId">
<button type="button" data-on:click="@post('/settings/save')" data-attr:disabled="$saving">Save Settings</button>
</form>
{{- end -}}
{{- define "body" -}}
{{template "form" .}}
<div id="settings-status" class="alerts"></div>
<div data-init="@get('/settings/updates')"></div>
{{- end -}}
`))

type formData struct {
	settings.Settings
	Signals string
}

func newFormData(s settings.Settings) formData {
	signals, _ := json.Marshal(map[string]any{
		"host":    s.Host,
		"port":    s.Port,
		"region":  s.Region,
		"modelId": s.ModelID,
	})
	return formData{Settings: s, Signals: string(signals)}
}

// SettingsPage renders the full settings page.
func SettingsPage(title string, isDev bool, s settings.Settings) templ.Component {
	body := templ.FromGoHTML(views.Lookup("body"), newFormData(s))
	return components.Page(title, common.SidebarData{CurrentPath: "/settings"}, isDev, body)
}

// SettingsForm renders the form alone for SSE patches.
func SettingsForm(s settings.Settings) templ.Component {
	return templ.FromGoHTML(views.Lookup("form"), newFormData(s))
}

// Status renders the status area.
func Status(alerts ...common.Alert) templ.Component {
	return components.Alerts(StatusID, alerts...)
}
