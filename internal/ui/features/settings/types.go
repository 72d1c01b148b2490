package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	appsettings "github.com/leapstack-labs/sparqlchat/internal/settings"
)

// SavedMessage is shown after the settings file was written.
const SavedMessage = "Settings saved successfully!"

// FormSignals represents the signals sent by the settings form.
type FormSignals struct {
	Host    string          `json:"host"`
	Port    json.RawMessage `json:"port"`
	Region  string          `json:"region"`
	ModelID string          `json:"modelId"`
}

// Settings converts the form signals to settings. The port may arrive as a
// JSON number or a string.
func (f FormSignals) Settings() (appsettings.Settings, error) {
	raw := strings.Trim(strings.TrimSpace(string(f.Port)), `"`)
	if raw == "" || raw == "null" {
		return appsettings.Settings{}, fmt.Errorf("port is required")
	}
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return appsettings.Settings{}, fmt.Errorf("invalid port %q", raw)
	}
	return appsettings.Settings{
		Host:    strings.TrimSpace(f.Host),
		Port:    port,
		Region:  strings.TrimSpace(f.Region),
		ModelID: strings.TrimSpace(f.ModelID),
	}, nil
}
