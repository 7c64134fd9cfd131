package commands

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/config"
)

func newSetupCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Interactive wizard that writes config.yaml",
		Long: `Asks for the bot token, the LLM endpoint and the database, then writes a
config file. The token can be kept in the OS keyring instead of the file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			stripKeyringSecrets(cfg)
			return runSetup(cmd, cfg, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "config.yaml", "file to write")
	return cmd
}

// stripKeyringSecrets blanks secrets that were resolved from the keyring so
// they are not copied into the file.
func stripKeyringSecrets(cfg *config.Config) {
	if v := config.GetSecret(config.KeyringBotToken); v != "" && v == cfg.Bot.Token {
		cfg.Bot.Token = ""
	}
	if v := config.GetSecret(config.KeyringLLMAPIKey); v != "" && v == cfg.LLM.APIKey {
		cfg.LLM.APIKey = ""
	}
}

// setupAnswers holds the form values.
type setupAnswers struct {
	token        string
	useKeyring   bool
	nickname     string
	prefix       string
	baseURL      string
	chatModel    string
	toolsModel   string
	driver       string
	dbPath       string
	dsn          string
	searxng      string
	twitterEmbed string
	overwrite    bool
}

func runSetup(cmd *cobra.Command, cfg *config.Config, output string) error {
	a := setupAnswers{
		useKeyring:   true,
		nickname:     cfg.Bot.Nickname,
		prefix:       cfg.Bot.Prefix,
		baseURL:      cfg.LLM.BaseURL,
		chatModel:    cfg.LLM.Models.Chat,
		toolsModel:   cfg.LLM.Models.Tools,
		driver:       cfg.Database.Driver,
		dbPath:       cfg.Database.Path,
		dsn:          cfg.Database.DSN,
		searxng:      cfg.SearxNGBaseURL,
		twitterEmbed: cfg.TwitterEmbedURL,
	}

	_, statErr := os.Stat(output)
	exists := statErr == nil

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Discord bot token").
				Description("Leave empty to keep the current one or set MAXINE_BOT_TOKEN later.").
				EchoMode(huh.EchoModePassword).
				Value(&a.token),
			huh.NewConfirm().
				Title("Store the token in the OS keyring?").
				Value(&a.useKeyring),
			huh.NewInput().Title("Nickname").Value(&a.nickname),
			huh.NewInput().
				Title("Command prefix").
				Description("Empty disables prefixed chat commands.").
				Value(&a.prefix),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("LLM base URL").
				Description("Any OpenAI-compatible endpoint, e.g. Ollama's http://localhost:11434/v1").
				Validate(validateURL(true)).
				Value(&a.baseURL),
			huh.NewInput().Title("Chat model").Validate(required("chat model")).Value(&a.chatModel),
			huh.NewInput().Title("Model for strict formats").Value(&a.toolsModel),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Database").
				Options(
					huh.NewOption("SQLite (local file)", "sqlite"),
					huh.NewOption("PostgreSQL", "postgres"),
				).
				Value(&a.driver),
		),
		huh.NewGroup(
			huh.NewInput().Title("SQLite file").Validate(required("database path")).Value(&a.dbPath),
		).WithHideFunc(func() bool { return a.driver != "sqlite" }),
		huh.NewGroup(
			huh.NewInput().Title("PostgreSQL DSN").Validate(required("DSN")).Value(&a.dsn),
		).WithHideFunc(func() bool { return a.driver != "postgres" }),
		huh.NewGroup(
			huh.NewInput().
				Title("SearxNG URL").
				Description("Enables the search command. Empty disables it.").
				Validate(validateURL(false)).
				Value(&a.searxng),
			huh.NewInput().
				Title("Twitter embed URL").
				Description("e.g. https://fxtwitter.com. Empty disables link rewriting.").
				Validate(validateURL(false)).
				Value(&a.twitterEmbed),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s exists. Overwrite it?", output)).
				Value(&a.overwrite),
		).WithHideFunc(func() bool { return !exists }),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(cmd.OutOrStdout(), "setup cancelled")
			return nil
		}
		return err
	}
	if exists && !a.overwrite {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing written")
		return nil
	}

	a.apply(cfg)
	if a.token != "" && a.useKeyring {
		if err := config.StoreSecret(config.KeyringBotToken, a.token); err != nil {
			return fmt.Errorf("storing token in keyring: %w (rerun setup and write it to the file instead)", err)
		}
		cfg.Bot.Token = ""
	}

	if err := cfg.Validate(false); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := config.Save(cfg, output); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "configuration written to %s\n", output)
	if a.token != "" && a.useKeyring {
		fmt.Fprintln(out, "bot token stored in keyring")
	}
	fmt.Fprintln(out, "run `maxine serve` to start the bot")
	return nil
}

// apply copies the answers onto cfg.
func (a *setupAnswers) apply(cfg *config.Config) {
	if a.token != "" {
		cfg.Bot.Token = a.token
	}
	cfg.Bot.Nickname = strings.TrimSpace(a.nickname)
	cfg.Bot.Prefix = strings.TrimSpace(a.prefix)
	cfg.LLM.BaseURL = strings.TrimSpace(a.baseURL)
	cfg.LLM.Models.Chat = strings.TrimSpace(a.chatModel)
	cfg.LLM.Models.Tools = strings.TrimSpace(a.toolsModel)
	if cfg.LLM.Models.Tools == "" {
		cfg.LLM.Models.Tools = cfg.LLM.Models.Chat
	}
	cfg.Database.Driver = a.driver
	cfg.Database.Path = strings.TrimSpace(a.dbPath)
	cfg.Database.DSN = strings.TrimSpace(a.dsn)
	cfg.SearxNGBaseURL = strings.TrimSuffix(strings.TrimSpace(a.searxng), "/")
	cfg.TwitterEmbedURL = strings.TrimSuffix(strings.TrimSpace(a.twitterEmbed), "/")
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func validateURL(mandatory bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if mandatory {
				return errors.New("a URL is required")
			}
			return nil
		}
		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return errors.New("enter an http(s) URL")
		}
		return nil
	}
}
