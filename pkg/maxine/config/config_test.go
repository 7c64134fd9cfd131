package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("MAXINE_TEST_SET", "value")
	os.Unsetenv("MAXINE_TEST_UNSET")

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"simple", "token: ${MAXINE_TEST_SET}", "token: value", false},
		{"bare", "token: $MAXINE_TEST_SET", "token: value", false},
		{"default used", "x: ${MAXINE_TEST_UNSET:-fallback}", "x: fallback", false},
		{"default ignored", "x: ${MAXINE_TEST_SET:-fallback}", "x: value", false},
		{"unset kept", "x: ${MAXINE_TEST_UNSET}", "x: ${MAXINE_TEST_UNSET}", false},
		{"required set", "x: ${MAXINE_TEST_SET:?missing}", "x: value", false},
		{"required unset", "x: ${MAXINE_TEST_UNSET:?missing}", "", true},
		{"no refs", "plain: text", "plain: text", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := expandEnvVars(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseOverlaysDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`
bot:
  nickname: Max
  request_timeout: 30s
llm:
  models:
    chat: llama3
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Bot.Nickname != "Max" {
		t.Errorf("nickname = %q", cfg.Bot.Nickname)
	}
	if cfg.Bot.RequestTimeout != 30*time.Second {
		t.Errorf("request_timeout = %v", cfg.Bot.RequestTimeout)
	}
	if cfg.LLM.Models.Chat != "llama3" {
		t.Errorf("chat model = %q", cfg.LLM.Models.Chat)
	}
	// Untouched fields keep their defaults.
	if cfg.Bot.Prefix != "!" || cfg.Database.Driver != "sqlite" || cfg.Summarize.MaxLen != 1024 {
		t.Errorf("defaults lost: %+v", cfg)
	}
}

func TestParseInvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("bot: [unclosed")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestLoadResolvesSecretsAndPaths(t *testing.T) {
	keyring.MockInit()
	t.Setenv(EnvBotToken, "")
	t.Setenv(EnvLLMAPIKey, "")
	t.Setenv("MAXINE_TEST_TOKEN", "from-env")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "bot:\n  token: ${MAXINE_TEST_TOKEN}\ndatabase:\n  path: data/db.sqlite\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Bot.Token != "from-env" {
		t.Errorf("token = %q", cfg.Bot.Token)
	}
	if want := filepath.Join(dir, "data/db.sqlite"); cfg.Database.Path != want {
		t.Errorf("database path = %q, want %q", cfg.Database.Path, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveSecretsPrecedence(t *testing.T) {
	keyring.MockInit()

	t.Run("keyring wins", func(t *testing.T) {
		if err := StoreSecret(KeyringBotToken, "from-keyring"); err != nil {
			t.Fatal(err)
		}
		defer DeleteSecret(KeyringBotToken)
		t.Setenv(EnvBotToken, "from-env")

		cfg := &Config{Bot: BotConfig{Token: "from-file"}}
		ResolveSecrets(cfg)
		if cfg.Bot.Token != "from-keyring" {
			t.Errorf("token = %q", cfg.Bot.Token)
		}
	})

	t.Run("env before file", func(t *testing.T) {
		t.Setenv(EnvBotToken, "from-env")
		cfg := &Config{Bot: BotConfig{Token: "from-file"}}
		ResolveSecrets(cfg)
		if cfg.Bot.Token != "from-env" {
			t.Errorf("token = %q", cfg.Bot.Token)
		}
	})

	t.Run("unexpanded reference is empty", func(t *testing.T) {
		t.Setenv(EnvBotToken, "")
		cfg := &Config{Bot: BotConfig{Token: "${SOMETHING_UNSET}"}}
		ResolveSecrets(cfg)
		if cfg.Bot.Token != "" {
			t.Errorf("token = %q", cfg.Bot.Token)
		}
	})
}

func TestDeleteSecretMissing(t *testing.T) {
	keyring.MockInit()
	if err := DeleteSecret("never-stored"); err != nil {
		t.Errorf("DeleteSecret on missing entry: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		mutate       func(*Config)
		requireToken bool
		wantErr      string
	}{
		{"defaults without token", func(*Config) {}, false, ""},
		{"token required", func(*Config) {}, true, "bot.token"},
		{"token present", func(c *Config) { c.Bot.Token = "abc" }, true, ""},
		{"bad driver", func(c *Config) { c.Database.Driver = "mysql" }, false, "database.driver"},
		{"postgres needs dsn", func(c *Config) { c.Database.Driver = "postgres" }, false, "database.dsn"},
		{"zero max len", func(c *Config) { c.Summarize.MaxLen = 0 }, false, "summarize.max_len"},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, false, "logging.format"},
		{"no base url", func(c *Config) { c.LLM.BaseURL = " " }, false, "llm.base_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate(tt.requireToken)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestSaveWritesReferences(t *testing.T) {
	t.Setenv(EnvBotToken, "secret-token-value")
	cfg := DefaultConfig()
	cfg.Bot.Token = "secret-token-value"

	path := filepath.Join(t.TempDir(), "out", "config.yaml")
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "secret-token-value") {
		t.Error("saved config contains the raw token")
	}
	if !strings.Contains(string(data), "${MAXINE_BOT_TOKEN}") {
		t.Errorf("saved config missing env reference:\n%s", data)
	}
}

func TestRedacted(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Bot.Token = "abcdefghijklmnop"
	cfg.LLM.APIKey = "short"

	r := cfg.Redacted()
	if r.Bot.Token != "abcd****" {
		t.Errorf("token = %q", r.Bot.Token)
	}
	if r.LLM.APIKey != "****" {
		t.Errorf("api key = %q", r.LLM.APIKey)
	}
	if cfg.Bot.Token != "abcdefghijklmnop" {
		t.Error("Redacted modified the original")
	}
}
