package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/sparqlchat/internal/cli/output"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/spf13/cobra"
)

// SettingsSetOptions holds options for the settings set command.
type SettingsSetOptions struct {
	Host    string
	Port    int
	Region  string
	ModelID string
}

// settingsOutput is the JSON shape of the settings.
type settingsOutput struct {
	Path string `json:"path"`
	settings.Settings
}

// NewSettingsCommand creates the settings command.
func NewSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the connection settings",
		Long: `Show or change the Neptune and Bedrock connection settings.

Settings are stored in an INI file (default: ~/sparqlchat/settings.cfg) that
the web UI reads and writes as well.`,
	}

	cmd.AddCommand(newSettingsShowCommand())
	cmd.AddCommand(newSettingsSetCommand())

	return cmd
}

func newSettingsShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc := NewCommandContextWithoutHistory(cmd)
			s := cc.Settings.Current()

			if cc.Renderer.EffectiveMode() == output.ModeJSON {
				return cc.Renderer.JSON(settingsOutput{Path: cc.Settings.Path(), Settings: s})
			}
			renderSettings(cc.Renderer, cc.Settings.Path(), s)
			return nil
		},
	}
}

func newSettingsSetCommand() *cobra.Command {
	opts := &SettingsSetOptions{}

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change one or more settings",
		Example: `  # Point at a Neptune cluster
  sparqlchat settings set --host my-cluster.cluster-abc.us-east-1.neptune.amazonaws.com

  # Change region and model
  sparqlchat settings set --region us-west-2 --model-id anthropic.claude-3-haiku-20240307-v1:0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSettingsSet(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "Neptune host")
	cmd.Flags().IntVar(&opts.Port, "port", settings.DefaultPort, "Neptune port")
	cmd.Flags().StringVar(&opts.Region, "region", "", "AWS region")
	cmd.Flags().StringVar(&opts.ModelID, "model-id", "", "Bedrock model ID")

	return cmd
}

func runSettingsSet(cmd *cobra.Command, opts *SettingsSetOptions) error {
	cc := NewCommandContextWithoutHistory(cmd)
	flags := cmd.Flags()

	s := cc.Settings.Current()
	changed := false
	if flags.Changed("host") {
		s.Host = opts.Host
		changed = true
	}
	if flags.Changed("port") {
		s.Port = opts.Port
		changed = true
	}
	if flags.Changed("region") {
		s.Region = opts.Region
		changed = true
	}
	if flags.Changed("model-id") {
		s.ModelID = opts.ModelID
		changed = true
	}
	if !changed {
		return fmt.Errorf("nothing to set: use --host, --port, --region or --model-id")
	}

	if err := s.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	if err := cc.Settings.Save(s); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cc.Logger.Debug("settings saved", "path", cc.Settings.Path())
	cc.Renderer.Success("Settings saved to " + cc.Settings.Path())
	return nil
}

func renderSettings(r *output.Renderer, path string, s settings.Settings) {
	host := s.Host
	if host == "" {
		host = r.Muted("(not set)")
	}

	r.Header(2, "Settings")
	r.Field("File", path)
	r.Field("Neptune Host", host)
	r.Field("Neptune Port", strconv.Itoa(s.Port))
	r.Field("AWS Region", s.Region)
	r.Field("Model ID", s.ModelID)
}
