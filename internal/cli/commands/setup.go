package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/leapstack-labs/sparqlchat/internal/cli/config"
	"github.com/leapstack-labs/sparqlchat/internal/cli/output"
	"github.com/leapstack-labs/sparqlchat/internal/pipeline"
	"github.com/leapstack-labs/sparqlchat/internal/settings"
	"github.com/leapstack-labs/sparqlchat/internal/state"
	"github.com/spf13/cobra"
)

// errEmptyQuestion is returned for blank questions.
var errEmptyQuestion = errors.New("question cannot be empty")

// newBuilder returns the pipeline builder used by commands that ask questions.
// Tests replace it to avoid reaching AWS.
var newBuilder = func(cfg *config.Config, logger *slog.Logger) (pipeline.Builder, error) {
	f := pipeline.NewFactory(logger)
	f.SchemaLimit = cfg.SchemaLimit
	if cfg.ExamplesFile != "" {
		examples, err := os.ReadFile(cfg.ExamplesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read examples file: %w", err)
		}
		f.Examples = strings.TrimSpace(string(examples))
	}
	return f, nil
}

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Settings *settings.Manager
	History  state.Store // nil when history is disabled
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with the history store opened.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutHistory(cmd)

	store, err := openHistory(cc.Cfg)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	if store != nil {
		cc.History = store
		cleanup = func() {
			_ = store.Close()
		}
	}

	return cc, cleanup, nil
}

// NewCommandContextWithoutHistory creates a CommandContext without a history store.
// Useful for commands that never touch the history database.
func NewCommandContextWithoutHistory(cmd *cobra.Command) *CommandContext {
	cfg := config.GetConfig(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Settings: settings.NewManager(cfg.SettingsPath),
		Renderer: getRenderer(cmd, cfg),
	}
}

func getRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	if r, ok := output.Lookup(cmd.Context()); ok {
		return r
	}
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// openHistory opens and migrates the history database, or returns nil when
// history is disabled.
func openHistory(cfg *config.Config) (*state.SQLiteStore, error) {
	if !cfg.HistoryEnabled() {
		return nil, nil
	}

	dir := filepath.Dir(cfg.HistoryPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	store, err := state.OpenAndMigrate(cfg.HistoryPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open history %s: %w", cfg.HistoryPath, err)
	}
	return store, nil
}

// newQuestioner returns a questioner for the current settings file.
func (cc *CommandContext) newQuestioner() (*questioner, error) {
	b, err := newBuilder(cc.Cfg, cc.Logger)
	if err != nil {
		return nil, err
	}
	return &questioner{
		holder:   pipeline.NewHolder(b),
		settings: cc.Settings.Current(),
		history:  cc.History,
		logger:   cc.Logger,
	}, nil
}

// questioner answers questions with a lazily built pipeline and records
// every attempt in the history store.
type questioner struct {
	holder   *pipeline.Holder
	settings settings.Settings
	history  state.Store
	logger   *slog.Logger
}

// Ask answers question, building the pipeline on first use.
func (q *questioner) Ask(ctx context.Context, question string) (*pipeline.Result, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errEmptyQuestion
	}

	if err := q.holder.EnsureInitialized(ctx, q.settings); err != nil {
		q.logger.Error("pipeline initialization failed",
			slog.String("aws_error_code", pipeline.AWSErrorCode(err)),
			slog.Any("error", err))
		q.record(ctx, &state.QueryRecord{
			Question: question,
			Host:     q.settings.Host,
			ModelID:  q.settings.ModelID,
			Error:    err.Error(),
		})
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	p := q.holder.Current()
	if p == nil {
		return nil, pipeline.ErrNotInitialized
	}
	built, _ := q.holder.Settings()

	start := time.Now()
	res, err := p.Invoke(ctx, question)
	rec := &state.QueryRecord{
		Question: question,
		Host:     built.Host,
		ModelID:  built.ModelID,
		Duration: time.Since(start),
	}
	if err != nil {
		q.logger.Error("question failed",
			slog.String("aws_error_code", pipeline.AWSErrorCode(err)),
			slog.Any("error", err))
		rec.Error = err.Error()
		q.record(ctx, rec)
		return nil, err
	}

	rec.Answer = res.Answer
	rec.GeneratedQuery = res.GeneratedQuery
	q.record(ctx, rec)
	return res, nil
}

// Reload rebuilds the pipeline for s. The previous pipeline is kept on failure.
func (q *questioner) Reload(ctx context.Context, s settings.Settings) error {
	if err := q.holder.Initialize(ctx, s); err != nil {
		return err
	}
	q.settings = s
	return nil
}

func (q *questioner) record(ctx context.Context, rec *state.QueryRecord) {
	if q.history == nil {
		return
	}
	if err := q.history.RecordQuery(ctx, rec); err != nil {
		q.logger.Warn("failed to record query", slog.Any("error", err))
	}
}
