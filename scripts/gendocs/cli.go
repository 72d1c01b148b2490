package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/sparqlchat/internal/cli"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const quickStart = `# Point sparqlchat at a cluster
sparqlchat settings set --host my-cluster.cluster-abc.us-east-1.neptune.amazonaws.com --region us-east-1

# Ask from the terminal
sparqlchat ask "How many airports are in Texas?"

# Or open the web UI
sparqlchat serve`

// generateCLIDocs writes the CLI reference as a single page, cli.md, with one
// section per command and subcommand.
func generateCLIDocs(outDir string) error {
	log.Printf("Generating CLI docs to %s", outDir)

	if err := os.MkdirAll(outDir, 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	root := cli.NewRootCmd()
	commands := documentedCommands(root)

	w := NewMarkdownWriter()
	w.Frontmatter("CLI Reference", "Command-line reference for sparqlchat")
	w.GeneratedMarker()
	w.Header(1, "CLI Reference")
	w.Paragraph(root.Long)

	w.Header(2, "Quick Start")
	w.CodeBlock("bash", quickStart)

	w.Header(2, "Commands")
	summary := make([][]string, 0, len(commands))
	for _, cmd := range commands {
		summary = append(summary, []string{
			fmt.Sprintf("[%s](#%s)", InlineCode(cmd.CommandPath()), anchor(cmd)),
			cleanDescription(cmd.Short),
		})
	}
	w.Table([]string{"Command", "Description"}, summary)

	for _, cmd := range commands {
		writeCommandSection(w, cmd)
	}

	w.Header(2, "Global Options")
	w.Table(flagHeaders, flagRows(root.PersistentFlags()))

	w.Header(2, "Environment")
	env := make([][]string, 0, len(configVars))
	for _, v := range configVars {
		env = append(env, []string{InlineCode(v.Env), v.Description})
	}
	w.Table([]string{"Variable", "Description"}, env)
	w.Paragraph("Flags override environment variables, which override the config file. " +
		"AWS credentials and profiles are read from the standard AWS chain.")

	w.Header(2, "Exit Codes")
	w.Paragraph(InlineCode("0") + " on success, " + InlineCode("1") + " on any error. Errors are printed to stderr.")

	path := filepath.Join(outDir, "cli.md")
	if err := os.WriteFile(path, w.Bytes(), 0600); err != nil {
		return err
	}
	log.Printf("  Generated cli.md (%d commands)", len(commands))
	return nil
}

// documentedCommands returns every visible command below root, depth first,
// so "settings" is followed by "settings set" and "settings show".
func documentedCommands(root *cobra.Command) []*cobra.Command {
	var out []*cobra.Command
	for _, cmd := range root.Commands() {
		if !cmd.IsAvailableCommand() || cmd.Name() == "help" {
			continue
		}
		out = append(out, cmd)
		out = append(out, documentedCommands(cmd)...)
	}
	return out
}

func writeCommandSection(w *MarkdownWriter, cmd *cobra.Command) {
	w.Header(2, cmd.CommandPath())
	if cmd.Long != "" {
		w.Paragraph(cmd.Long)
	} else {
		w.Paragraph(cmd.Short)
	}

	usage := cmd.UseLine()
	if cmd.HasAvailableSubCommands() {
		usage = cmd.CommandPath() + " <subcommand>"
	}
	w.CodeBlock("bash", usage)

	if len(cmd.Aliases) > 0 {
		w.Paragraph("Aliases: " + InlineCode(strings.Join(cmd.Aliases, ", ")))
	}

	if rows := flagRows(cmd.LocalNonPersistentFlags()); len(rows) > 0 {
		w.Header(3, "Options")
		w.Table(flagHeaders, rows)
	}

	if cmd.Example != "" {
		w.Header(3, "Examples")
		w.CodeBlock("bash", dedent(cmd.Example))
	}
}

// anchor is the heading id generated for a command section.
func anchor(cmd *cobra.Command) string {
	return strings.ReplaceAll(cmd.CommandPath(), " ", "-")
}

var flagHeaders = []string{"Option", "Default", "Description"}

func flagRows(flags *pflag.FlagSet) [][]string {
	var rows [][]string
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Hidden || f.Name == "help" {
			return
		}
		option := InlineCode("--" + f.Name)
		if f.Shorthand != "" {
			option = InlineCode("-"+f.Shorthand) + ", " + option
		}
		def := f.DefValue
		if def != "" && f.Value.Type() != "bool" {
			def = InlineCode(def)
		}
		rows = append(rows, []string{option, def, cleanDescription(f.Usage)})
	})
	return rows
}

// dedent strips the indentation shared by all non-blank lines.
func dedent(text string) string {
	lines := strings.Split(strings.Trim(text, "\n"), "\n")
	indent := -1
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		n := len(line) - len(strings.TrimLeft(line, " \t"))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	for i, line := range lines {
		if len(line) >= indent && indent > 0 {
			lines[i] = line[indent:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
