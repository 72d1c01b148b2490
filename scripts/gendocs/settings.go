package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/leapstack-labs/sparqlchat/internal/cli/config"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
)

// configVar documents one application config key.
type configVar struct {
	Key         string
	Env         string
	Default     string
	Description string
}

var configVars = []configVar{
	{"settings_path", "SPARQLCHAT_SETTINGS_PATH", "~/sparqlchat/settings.cfg", "Connection settings file"},
	{"history_path", "SPARQLCHAT_HISTORY_PATH", "~/sparqlchat/history.db", `Question history database ("none" disables history)`},
	{"log_level", "SPARQLCHAT_LOG_LEVEL", config.DefaultLogLevel, "Log level: debug, info, warn or error"},
	{"verbose", "SPARQLCHAT_VERBOSE", "false", "Shortcut for log_level debug"},
	{"output", "SPARQLCHAT_OUTPUT", config.DefaultOutput, "Output format: auto, text, markdown or json"},
	{"examples_file", "SPARQLCHAT_EXAMPLES_FILE", "", "File of example questions and SPARQL queries added to the generation prompt"},
	{"schema_limit", "SPARQLCHAT_SCHEMA_LIMIT", "500", "Maximum classes and predicates read when discovering the graph schema"},
	{"ui.port", "SPARQLCHAT_UI_PORT", strconv.Itoa(config.DefaultUIPort), "Web UI port"},
	{"ui.auto_open", "SPARQLCHAT_UI_AUTO_OPEN", "true", "Open a browser when the UI starts"},
	{"ui.watch", "SPARQLCHAT_UI_WATCH", "true", "Reload the settings form when the file changes on disk"},
	{"ui.dev", "SPARQLCHAT_UI_DEV", "false", "Serve assets from disk and enable live reload"},
	{"ui.session_secret", "SPARQLCHAT_UI_SESSION_SECRET", "", "Cookie signing key (random per process when empty)"},
}

// generateSettingsDocs documents the settings file and the application config.
func generateSettingsDocs(outDir string) error {
	log.Printf("Generating settings docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	w := NewMarkdownWriter()
	w.Frontmatter("Settings", "Connection settings and application configuration")
	w.GeneratedMarker()

	w.Header(1, "Settings")
	w.Paragraph("Connection settings live in an INI file with a single " + InlineCode("["+settings.Section+"]") +
		" section. The web UI and " + InlineCode("sparqlchat settings set") + " both write it. " +
		"Missing keys and unreadable values fall back to their defaults.")

	host := settings.DefaultHost
	if host == "" {
		host = "(empty)"
	}
	w.Header(2, "Settings File")
	w.Table([]string{"Key", "Default", "Description"}, [][]string{
		{InlineCode(settings.KeyHost), host, "Neptune cluster endpoint"},
		{InlineCode(settings.KeyPort), InlineCode(strconv.Itoa(settings.DefaultPort)), "Neptune port"},
		{InlineCode(settings.KeyRegion), InlineCode(settings.DefaultRegion), "AWS region for Bedrock and Neptune signing"},
		{InlineCode(settings.KeyModelID), InlineCode(settings.DefaultModelID), "Bedrock model ID"},
	})

	d := settings.Defaults()
	w.Header(2, "Example")
	w.CodeBlock("ini", fmt.Sprintf("[%s]\n%s = my-cluster.cluster-abc.us-east-1.neptune.amazonaws.com\n%s = %d\n%s = %s\n%s = %s",
		settings.Section,
		settings.KeyHost,
		settings.KeyPort, d.Port,
		settings.KeyRegion, d.Region,
		settings.KeyModelID, d.ModelID))

	w.Header(1, "Application Config")
	w.Paragraph("The CLI reads " + InlineCode(config.DefaultConfigName) + " from the working directory, or the file given with " +
		InlineCode("--config") + ".")

	rows := make([][]string, 0, len(configVars))
	for _, v := range configVars {
		def := v.Default
		if def != "" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{InlineCode(v.Key), InlineCode(v.Env), def, v.Description})
	}
	w.Table([]string{"Key", "Environment", "Default", "Description"}, rows)

	return os.WriteFile(filepath.Join(outDir, "settings.md"), w.Bytes(), 0600)
}
