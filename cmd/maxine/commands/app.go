package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/bot"
	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/config"
	"github.com/maxinebot/maxine/pkg/maxine/database"
	"github.com/maxinebot/maxine/pkg/maxine/llm"
	"github.com/maxinebot/maxine/pkg/maxine/media"
	"github.com/maxinebot/maxine/pkg/maxine/prompts"
	"github.com/maxinebot/maxine/pkg/maxine/summarize"
	"github.com/maxinebot/maxine/pkg/maxine/webapi"
)

// resolveConfig loads the file named by --config, or the first one
// FindConfigFile finds, falling back to the built-in defaults.
func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, used, err := config.LoadDefault(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, used, nil
}

// newLogger builds the process logger from the config and --verbose.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")

	level := slog.LevelInfo
	switch {
	case verbose || cfg.Logging.Level == "debug":
		level = slog.LevelDebug
	case cfg.Logging.Level == "warn":
		level = slog.LevelWarn
	case cfg.Logging.Level == "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func openBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Backend, error) {
	return database.Open(ctx, database.Config{
		Type:        database.BackendType(cfg.Database.Driver),
		Path:        cfg.Database.Path,
		JournalMode: cfg.Database.JournalMode,
		BusyTimeout: cfg.Database.BusyTimeout,
		DSN:         cfg.Database.DSN,
	}, logger)
}

// openStore opens the configured database and brings the schema up to date.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.Backend, error) {
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	if _, err := backend.Migrator.Migrate(ctx, database.LatestVersion); err != nil {
		backend.Close()
		return nil, err
	}
	return backend, nil
}

// newDispatcher creates the dispatcher with the configured request timeout.
func newDispatcher(cfg *config.Config, logger *slog.Logger) *commands.Dispatcher {
	d := commands.New(logger)
	d.SetTimeout(cfg.Bot.RequestTimeout)
	return d
}

// app is everything a transport needs to serve commands.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	backend    *database.Backend
	dispatcher *commands.Dispatcher
	saver      *media.Saver
}

// newApp wires the command stack and registers every command on d. roles
// is nil where no guild is available (the console).
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger, d *commands.Dispatcher, roles bot.RoleManager) (*app, error) {
	backend, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	model, err := llm.New(llm.Config{
		BaseURL:    cfg.LLM.BaseURL,
		APIKey:     cfg.LLM.APIKey,
		ChatModel:  cfg.LLM.Models.Chat,
		ToolsModel: cfg.LLM.Models.Tools,
		Timeout:    cfg.LLM.Timeout,
	}, logger)
	if err != nil {
		backend.Close()
		return nil, err
	}

	endpoints := webapi.DefaultEndpoints()
	endpoints.SearxNG = cfg.SearxNGBaseURL
	web := webapi.New(nil, endpoints)

	summarizer := &summarize.Summarizer{
		Generator:   model,
		MaxLen:      cfg.Summarize.MaxLen,
		MaxAttempts: cfg.Summarize.MaxAttempts,
		Logger:      logger.With("component", "summarize"),
	}

	saver := media.NewSaver(logger)
	saver.Downloader = cfg.Media.Downloader
	saver.Transcoder = cfg.Media.Transcoder
	saver.TempDir = cfg.Media.TempDir
	saver.MaxBytes = cfg.Media.MaxUploadBytes

	deps := bot.Deps{
		Web:          web,
		LLM:          model,
		Summarizer:   summarizer,
		Prompts:      prompts.NewStore(backend),
		Saver:        saver,
		Roles:        roles,
		SystemPrompt: cfg.LLM.SystemPrompt,
		Logger:       logger,
	}

	if err := bot.New(deps).Register(d); err != nil {
		backend.Close()
		return nil, fmt.Errorf("registering commands: %w", err)
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		backend:    backend,
		dispatcher: d,
		saver:      saver,
	}, nil
}

func (a *app) Close() error {
	return a.backend.Close()
}
