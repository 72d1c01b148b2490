package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const shellPrompt = "sparqlchat> "

// shellCommands lists the dot-commands for completion and help.
var shellCommands = []struct {
	name string
	help string
}{
	{".help", "Show this help"},
	{".settings", "Show the settings in use"},
	{".reload", "Re-read the settings file and rebuild the pipeline"},
	{".context", "Toggle showing raw query results"},
	{".history", "Show recent questions"},
	{".clear", "Clear the screen"},
	{".quit", "Exit the shell"},
}

// NewShellCommand creates the shell command.
func NewShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Ask questions interactively",
		Long: `Start an interactive shell for asking questions about the graph.

Each line is a question. The pipeline is built once, on the first question,
and reused for the rest of the session. Lines starting with a dot are shell
commands; type .help to list them.`,
		Example: `  # Start the shell
  sparqlchat shell`,
		Args: cobra.NoArgs,
		RunE: runShell,
	}
}

func runShell(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
	for _, c := range shellCommands {
		items = append(items, readline.PcItem(c.name))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          shellPrompt,
		HistoryFile:     filepath.Join(filepath.Dir(cc.Cfg.SettingsPath), "shell_history"),
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize shell: %w", err)
	}
	defer func() { _ = rl.Close() }()

	q, err := cc.newQuestioner()
	if err != nil {
		return err
	}
	s := &shellSession{cc: cc, q: q}

	cc.Renderer.Printf("SPARQL Chat shell (settings: %s)\n", cc.Settings.Path())
	cc.Renderer.Println("Type .help for commands, .quit to exit")
	cc.Renderer.Println()

	ctx := cmd.Context()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}
		if s.handleLine(ctx, line) {
			break
		}
	}

	return nil
}

// shellSession holds the state of one interactive shell.
type shellSession struct {
	cc          *CommandContext
	q           *questioner
	showContext bool
}

// handleLine processes one line of input and reports whether the shell should exit.
func (s *shellSession) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ".") {
		return s.handleDotCommand(ctx, line)
	}

	r := s.cc.Renderer
	res, err := s.q.Ask(ctx, line)
	if err != nil {
		r.Error(err.Error())
		return false
	}
	if err := renderAnswer(r, line, res, s.showContext); err != nil {
		r.Error(err.Error())
	}
	r.Println()
	return false
}

func (s *shellSession) handleDotCommand(ctx context.Context, line string) bool {
	r := s.cc.Renderer
	command := strings.ToLower(strings.Fields(line)[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		for _, c := range shellCommands {
			r.Printf("  %-10s %s\n", c.name, c.help)
		}

	case ".settings":
		renderSettings(r, s.cc.Settings.Path(), s.q.settings)

	case ".reload":
		current, _ := s.cc.Settings.Reload()
		if err := s.q.Reload(ctx, current); err != nil {
			r.Error(fmt.Sprintf("Pipeline initialization failed: %v", err))
			return false
		}
		r.Success("Pipeline rebuilt from " + s.cc.Settings.Path())

	case ".context":
		s.showContext = !s.showContext
		if s.showContext {
			r.Println("Showing query results")
		} else {
			r.Println("Hiding query results")
		}

	case ".history":
		if err := renderHistory(ctx, r, s.cc.History, 10); err != nil {
			r.Error(err.Error())
		}

	case ".clear":
		r.Printf("\033[H\033[2J")

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}
