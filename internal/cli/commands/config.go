package commands

import (
	"fmt"

	"github.com/leapstack-labs/sparqlchat/internal/cli/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

// NewConfigCommand creates the config command.
func NewConfigCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Print the configuration after merging defaults, the config file,
SPARQLCHAT_* environment variables and flags, as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := *config.GetConfig(cmd.Context())
			ui := *cfg.GetUIConfig()
			if ui.SessionSecret != "" {
				ui.SessionSecret = redacted
			}
			cfg.UI = &ui

			out, err := yaml.Marshal(&cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}

			w := cmd.OutOrStdout()
			if file := config.GetConfigFileUsed(); file != "" {
				_, _ = fmt.Fprintf(w, "# config file: %s\n", file)
			}
			_, err = w.Write(out)
			return err
		},
	}
}
