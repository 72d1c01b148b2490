package commands

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/leapstack-labs/sparqlchat/internal/ui"
	"github.com/spf13/cobra"
)

// ServeOptions holds options for the serve command.
type ServeOptions struct {
	Port      int
	NoBrowser bool
	Watch     bool
	Dev       bool
}

// NewServeCommand creates the serve command.
func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"ui"},
		Short:   "Start the web UI",
		Long: `Start a local web server with two pages:

- Settings: edit the Neptune host and port, AWS region and Bedrock model ID
- RAG: ask questions and see the answer, the generated SPARQL and the raw results

Each browser session builds its own pipeline. Questions use the settings the
server was started with until the session saves new settings.`,
		Example: `  # Start UI on default port
  sparqlchat serve

  # Start on custom port
  sparqlchat serve --port 3000

  # Start without auto-opening browser
  sparqlchat serve --no-browser`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.Port, "port", 0, "Port to serve on (default: 8501)")
	cmd.Flags().BoolVar(&opts.NoBrowser, "no-browser", false, "Don't auto-open browser")
	cmd.Flags().BoolVar(&opts.Watch, "watch", true, "Watch the settings file for changes")
	cmd.Flags().BoolVar(&opts.Dev, "dev", false, "Serve assets from disk and enable live reload")

	return cmd
}

func runServe(cmd *cobra.Command, opts *ServeOptions) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	// Get UI config with defaults
	uiCfg := cc.Cfg.GetUIConfig()

	// CLI flags override config file
	port := uiCfg.Port
	if opts.Port != 0 {
		port = opts.Port
	}

	autoOpen := uiCfg.AutoOpen
	if opts.NoBrowser {
		autoOpen = false
	}

	watch := uiCfg.Watch
	if cmd.Flags().Changed("watch") {
		watch = opts.Watch
	}

	dev := uiCfg.Dev || opts.Dev

	builder, err := newBuilder(cc.Cfg, cc.Logger)
	if err != nil {
		return err
	}

	server := ui.NewServer(ui.Config{
		Settings:      cc.Settings,
		Builder:       builder,
		History:       cc.History,
		Port:          port,
		Watch:         watch,
		Dev:           dev,
		SessionSecret: uiCfg.SessionSecret,
		Logger:        cc.Logger,
	})

	// Open browser if configured
	if autoOpen {
		url := fmt.Sprintf("http://localhost:%d", port)
		go openBrowser(url)
	}

	cc.Renderer.Printf("Starting UI server on http://localhost:%d\n", port)
	cc.Renderer.Printf("Settings file: %s\n", cc.Settings.Path())
	cc.Renderer.Println("Press Ctrl+C to stop")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return server.Serve(ctx)
}

// openBrowser opens the default browser to the specified URL.
func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(context.Background(), "open", url)
	case "linux":
		cmd = exec.CommandContext(context.Background(), "xdg-open", url)
	case "windows":
		cmd = exec.CommandContext(context.Background(), "rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return
	}

	_ = cmd.Start()
}
