// Package config defines Maxine's configuration: a single YAML document read
// once at startup, with ${VAR} expansion, .env files and secrets that can
// live in the OS keyring instead of on disk.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Bot       BotConfig       `yaml:"bot"`
	LLM       LLMConfig       `yaml:"llm"`
	Database  DatabaseConfig  `yaml:"database"`
	Media     MediaConfig     `yaml:"media"`
	Summarize SummarizeConfig `yaml:"summarize"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`

	// SearxNGBaseURL enables the search command when set.
	SearxNGBaseURL string `yaml:"searxng_base_url"`

	// TwitterEmbedURL is the host x.com/twitter.com links are rewritten to
	// (for example https://fxtwitter.com). Empty disables the rewrite.
	TwitterEmbedURL string `yaml:"twitter_embed_url"`
}

// BotConfig holds the Discord bot settings.
type BotConfig struct {
	// Token is the Discord bot token (supports ${ENV_VAR} and the keyring).
	Token string `yaml:"token"`

	// Nickname is applied in every guild.
	Nickname string `yaml:"nickname"`

	// Status is the custom status. {guildsCount} is replaced with the number
	// of guilds the bot is in.
	Status string `yaml:"status"`

	// Prefix enables text commands ("!8ball ..."). Empty disables them.
	Prefix string `yaml:"prefix"`

	// GuildID registers application commands in one guild only, which makes
	// them show up instantly during development.
	GuildID string `yaml:"guild_id"`

	// RequestTimeout bounds a single command.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LLMConfig configures the OpenAI-compatible language-model endpoint.
type LLMConfig struct {
	// BaseURL is the API root, e.g. http://localhost:11434/v1 for Ollama.
	BaseURL string `yaml:"base_url"`

	// APIKey is sent as a bearer token. Ollama ignores it.
	APIKey string `yaml:"api_key"`

	// SystemPrompt is the default instruction for ask.
	SystemPrompt string `yaml:"system_prompt"`

	Models ModelsConfig `yaml:"models"`

	Timeout time.Duration `yaml:"timeout"`
}

// ModelsConfig names the models used for each kind of task.
type ModelsConfig struct {
	// Chat answers free-form questions and writes summaries.
	Chat string `yaml:"chat"`

	// Tools is used where strict output formats matter (translate, colours).
	Tools string `yaml:"tools"`
}

// DatabaseConfig selects and configures the prompt store backend.
type DatabaseConfig struct {
	// Driver is "sqlite" or "postgres".
	Driver string `yaml:"driver"`

	// Path is the SQLite database file.
	Path string `yaml:"path"`

	// DSN is the PostgreSQL connection string.
	DSN string `yaml:"dsn"`

	JournalMode string `yaml:"journal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MediaConfig configures the video save pipeline.
type MediaConfig struct {
	Downloader string `yaml:"downloader"`
	Transcoder string `yaml:"transcoder"`

	// TempDir holds intermediate files. Empty uses the OS temp dir.
	TempDir string `yaml:"temp_dir"`

	// MaxUploadBytes is the largest attachment the bot will try to send.
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
}

// SummarizeConfig bounds the summarization loop.
type SummarizeConfig struct {
	MaxLen      int `yaml:"max_len"`
	MaxAttempts int `yaml:"max_attempts"`
}

// SchedulerConfig holds cron specs for background jobs. Empty disables a job.
type SchedulerConfig struct {
	// Presence refreshes the custom status.
	Presence string `yaml:"presence"`

	// Sweep removes stale files from the media temp dir.
	Sweep string `yaml:"sweep"`
}

// LoggingConfig configures slog.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	Level string `yaml:"level"`

	// Format is "json" or "text".
	Format string `yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Bot: BotConfig{
			Nickname:       "Maxine",
			Status:         "Serving {guildsCount} guild(s)",
			Prefix:         "!",
			RequestTimeout: 2 * time.Minute,
		},
		LLM: LLMConfig{
			BaseURL:      "http://localhost:11434/v1",
			APIKey:       "ollama",
			SystemPrompt: "You are Maxine, a friendly and helpful Discord bot.",
			Models: ModelsConfig{
				Chat:  "gemma3:4b",
				Tools: "gemma3:4b",
			},
			Timeout: 90 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:      "sqlite",
			Path:        "./data/database.sqlite",
			JournalMode: "WAL",
			BusyTimeout: 5000,
		},
		Media: MediaConfig{
			Downloader:     "yt-dlp",
			Transcoder:     "ffmpeg",
			MaxUploadBytes: 25 << 20,
		},
		Summarize: SummarizeConfig{
			MaxLen:      1024,
			MaxAttempts: 5,
		},
		Scheduler: SchedulerConfig{
			Presence: "@every 30m",
			Sweep:    "@hourly",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks the configuration. requireToken is set by commands that
// connect to Discord.
func (c *Config) Validate(requireToken bool) error {
	var errs []error

	if requireToken && strings.TrimSpace(c.Bot.Token) == "" {
		errs = append(errs, errors.New("bot.token is required (set MAXINE_BOT_TOKEN or run `maxine token set`)"))
	}
	if c.Bot.RequestTimeout < 0 {
		errs = append(errs, errors.New("bot.request_timeout must not be negative"))
	}
	if strings.TrimSpace(c.LLM.BaseURL) == "" {
		errs = append(errs, errors.New("llm.base_url is required"))
	}
	if c.LLM.Models.Chat == "" {
		errs = append(errs, errors.New("llm.models.chat is required"))
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			errs = append(errs, errors.New("database.path is required for sqlite"))
		}
	case "postgres":
		if c.Database.DSN == "" {
			errs = append(errs, errors.New("database.dsn is required for postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("database.driver %q is not supported (sqlite, postgres)", c.Database.Driver))
	}

	if c.Summarize.MaxLen <= 0 {
		errs = append(errs, errors.New("summarize.max_len must be positive"))
	}
	if c.Summarize.MaxAttempts <= 0 {
		errs = append(errs, errors.New("summarize.max_attempts must be positive"))
	}
	if c.Media.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("media.max_upload_bytes must be positive"))
	}

	switch c.Logging.Format {
	case "", "json", "text":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not supported (json, text)", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() *Config {
	cp := *c
	cp.Bot.Token = redact(c.Bot.Token)
	cp.LLM.APIKey = redact(c.LLM.APIKey)
	cp.Database.DSN = redact(c.Database.DSN)
	return &cp
}

func redact(secret string) string {
	if secret == "" || IsEnvReference(secret) {
		return secret
	}
	if len(secret) <= 8 {
		return "****"
	}
	return secret[:4] + "****"
}
