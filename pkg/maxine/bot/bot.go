// Package bot implements Maxine's commands on top of the commands
// dispatcher. Handlers only see transport-neutral requests and talk to the
// outside world through the small interfaces below.
package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"
	"unicode/utf8"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/media"
	"github.com/maxinebot/maxine/pkg/maxine/prompts"
	"github.com/maxinebot/maxine/pkg/maxine/webapi"
)

// Footer is shown under every embed.
const Footer = "Powered by Maxine"

// FieldLimit is Discord's maximum embed field value length.
const FieldLimit = 1024

// Web is the set of public web services the commands call.
type Web interface {
	RandomCat(ctx context.Context) (string, error)
	RandomDog(ctx context.Context) (string, error)
	Define(ctx context.Context, term string) (*webapi.Definition, error)
	TimeIn(ctx context.Context, location string) (*webapi.LocalTime, error)
	PageText(ctx context.Context, url string) (string, error)
	Search(ctx context.Context, query string, limit int) ([]webapi.SearchResult, error)
	SearchEnabled() bool
}

// LLM generates text. Generate uses the chat model; GenerateStrict uses the
// model configured for strict output formats.
type LLM interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
	GenerateStrict(ctx context.Context, system, prompt string) (string, error)
}

// Summarizer shrinks text below the embed field limit.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// PromptStore persists per-user system prompts.
type PromptStore interface {
	Get(ctx context.Context, userID string) (*prompts.Record, error)
	Upsert(ctx context.Context, userID, prompt string) error
}

// VideoSaver downloads and converts videos.
type VideoSaver interface {
	Save(ctx context.Context, req media.Request) (*media.Clip, error)
}

// Deps are the collaborators a Bot needs.
type Deps struct {
	Web        Web
	LLM        LLM
	Summarizer Summarizer
	Prompts    PromptStore
	Saver      VideoSaver
	Roles      RoleManager

	// SystemPrompt is the default instruction for ask.
	SystemPrompt string

	Logger *slog.Logger
}

// Bot holds the command handlers.
type Bot struct {
	deps       Deps
	logger     *slog.Logger
	dispatcher *commands.Dispatcher

	// pick returns a random index in [0, n).
	pick func(n int) int
}

// New creates a Bot.
func New(deps Deps) *Bot {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		deps:   deps,
		logger: logger.With("component", "bot"),
		pick:   rand.Intn,
	}
}

// Register adds every command to d. search is only registered when the web
// client has a search backend.
func (b *Bot) Register(d *commands.Dispatcher) error {
	b.dispatcher = d

	table := b.commandTable()
	var errs []error
	for _, c := range table {
		if err := d.Register(c.spec, c.handler); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type command struct {
	spec    commands.Spec
	handler commands.Handler
}

func (b *Bot) commandTable() []command {
	str := func(name, desc string, required bool) commands.OptionSpec {
		return commands.OptionSpec{Name: name, Kind: commands.KindString, Description: desc, Required: required}
	}

	table := []command{
		{commands.Spec{
			Name:        "ask",
			Description: "Ask me anything!",
			Category:    CategoryAI,
			Options: []commands.OptionSpec{
				{Name: "query", Kind: commands.KindString, Description: "Your query", Required: true, Greedy: true},
				{Name: "use_default_prompt", Kind: commands.KindBoolean, Description: "Use the default prompt rather than your custom prompt"},
			},
			Usage: "**Ask me anything!**\n\nUsage: `/ask <your question>`\n\nThis command uses AI to answer your questions. " +
				"Set `use_default_prompt` to use the default system prompt instead of your custom one.\n\n" +
				"Example: `/ask What is the capital of France?`",
		}, commands.HandlerFunc(b.ask)},

		{commands.Spec{
			Name:        "translate",
			Description: "Translate a message to English",
			Category:    CategoryAI,
			ContextMenu: "Translate to English",
			Usage: "**Translate messages to English**\n\nUsage: Right-click on a message → Apps → Translate to English\n\n" +
				"This command automatically detects the language of a message and translates it to English using AI.\n\n" +
				"Note: This is a context menu command, not a slash command.",
		}, commands.HandlerFunc(b.translate)},

		{commands.Spec{
			Name:        "tldrify message",
			Description: "Create a TLDR of a message",
			Category:    CategoryAI,
			ContextMenu: "Create TLDR",
			Usage: "**Create TLDR summaries**\n\nUsage:\n• Right-click on a message → Apps → Create TLDR\n" +
				"• `/tldrify link <url>` - Summarize a web page\n\n" +
				"This command creates a concise summary of a message or page using AI.",
		}, commands.HandlerFunc(b.tldrMessage)},

		{commands.Spec{
			Name:        "tldrify link",
			Description: "Create a TLDR of a web page",
			Category:    CategoryAI,
			Options:     []commands.OptionSpec{str("link", "The link to summarize", true)},
		}, commands.HandlerFunc(b.tldrLink)},

		{commands.Spec{
			Name:        "prompt set",
			Description: "Set your custom system prompt",
			Category:    CategoryAI,
			Options: []commands.OptionSpec{
				{Name: "prompt", Kind: commands.KindString, Description: "Your custom system prompt", Required: true, Greedy: true},
			},
			Usage: "**Manage your custom AI prompt**\n\nUsage:\n• `/prompt set <your custom prompt>` - Set your custom system prompt\n" +
				"• `/prompt get` - View your current custom prompt\n\n" +
				"This allows you to customize how the AI responds to your questions.",
		}, commands.HandlerFunc(b.promptSet)},

		{commands.Spec{
			Name:        "prompt get",
			Description: "Get your current custom system prompt",
			Category:    CategoryAI,
		}, commands.HandlerFunc(b.promptGet)},

		{commands.Spec{
			Name:        "avatar",
			Description: "Displays your or another user's avatar",
			Category:    CategoryFun,
			Options: []commands.OptionSpec{
				{Name: "user", Kind: commands.KindUser, Description: "User to show avatar for"},
			},
			Usage: "**Show user avatars**\n\nUsage: `/avatar [user]`\n\n" +
				"Displays the avatar of yourself or another user. If no user is specified, shows your own avatar.\n\n" +
				"Example: `/avatar @username`",
		}, commands.HandlerFunc(b.avatar)},

		{commands.Spec{
			Name:        "cat",
			Description: "Get a random cat image",
			Category:    CategoryFun,
			Usage:       "**Get random cat images**\n\nUsage: `/cat`\n\nFetches a random cat image from The Cat API.",
		}, commands.HandlerFunc(b.cat)},

		{commands.Spec{
			Name:        "dog",
			Description: "Get a random dog image",
			Category:    CategoryFun,
			Usage:       "**Get random dog images**\n\nUsage: `/dog`\n\nFetches a random dog image from the Dog API.",
		}, commands.HandlerFunc(b.dog)},

		{commands.Spec{
			Name:        "8ball",
			Description: "8ball answers any question!",
			Category:    CategoryFun,
			Options: []commands.OptionSpec{
				{Name: "question", Kind: commands.KindString, Description: "The question to ask the 8ball", Required: true, Greedy: true},
			},
			Usage: "**Ask the magic 8ball**\n\nUsage: `/8ball <question>`\n\n" +
				"Gets a random response from the magic 8ball.\n\nExample: `/8ball Will it rain today?`",
		}, commands.HandlerFunc(b.eightBall)},

		{commands.Spec{
			Name:        "urban",
			Description: "Queries Urban Dictionary for definitions",
			Category:    CategoryFun,
			Options: []commands.OptionSpec{
				{Name: "query", Kind: commands.KindString, Description: "The term to look up in Urban Dictionary", Required: true, Greedy: true},
			},
			Usage: "**Look up Urban Dictionary definitions**\n\nUsage: `/urban <term>`\n\n" +
				"Searches Urban Dictionary for definitions of terms.\n\nExample: `/urban yeet`",
		}, commands.HandlerFunc(b.urban)},

		{commands.Spec{
			Name:        "time",
			Description: "Check the time for a location",
			Category:    CategoryTime,
			Options: []commands.OptionSpec{
				{Name: "location", Kind: commands.KindString, Description: "Location to check the time for", Required: true, Greedy: true},
			},
			Usage: "**Check time for any location**\n\nUsage: `/time <location>`\n\n" +
				"Gets the current time for any city or location.\n\nExample: `/time New York`",
		}, commands.HandlerFunc(b.localTime)},

		{commands.Spec{
			Name:        "save",
			Description: "Saves video from URL",
			Category:    CategoryTime,
			Options: []commands.OptionSpec{
				str("url", "Video URL", true),
				str("clip_start", "Start of clip (HH:MM:SS)", false),
				str("clip_end", "End of clip (HH:MM:SS)", false),
				str("format", "Custom file format (gif, webm) default is MP4", false),
			},
			Usage: "**Download and save videos**\n\nUsage: `/save <url> [clip_start] [clip_end] [format]`\n\n" +
				"Downloads videos from URLs and optionally clips them. Supports various formats including MP4, GIF, and WebM.\n\n" +
				"Parameters:\n• `url` - The video URL to download\n• `clip_start` - Start of clip (HH:MM:SS format)\n" +
				"• `clip_end` - End of clip (HH:MM:SS format)\n• `format` - Output format (mp4, gif, webm)\n\n" +
				"Example: `/save https://example.com/video.mp4 00:10 00:20 gif`",
		}, commands.HandlerFunc(b.save)},

		{commands.Spec{
			Name:        "setcolour",
			Description: "Sets your discord name colour :)",
			Category:    CategoryCustom,
			Options: []commands.OptionSpec{
				{Name: "colour_code", Kind: commands.KindString, Description: "Discord recognisable colour code", Required: true, Greedy: true},
			},
			Usage: "**Set your Discord name color**\n\nUsage: `/setcolour <color>`\n\n" +
				"Changes your Discord name color. You can use color names or hex codes.\n\n" +
				"Example: `/setcolour blue` or `/setcolour #FF0000`",
		}, commands.HandlerFunc(b.setColour)},

		{commands.Spec{
			Name:        "help",
			Description: "Show the available commands",
			Options: []commands.OptionSpec{
				str("command", "Specific command to get help for", false),
			},
		}, commands.HandlerFunc(b.help)},
	}

	if b.deps.Web != nil && b.deps.Web.SearchEnabled() {
		table = append(table, command{commands.Spec{
			Name:        "search",
			Description: "Search the web",
			Category:    CategoryTime,
			Options: []commands.OptionSpec{
				{Name: "query", Kind: commands.KindString, Description: "What to search for", Required: true, Greedy: true},
			},
			Usage: "**Search the web**\n\nUsage: `/search <query>`\n\nShows the top results from the configured search engine.",
		}, commands.HandlerFunc(b.search)})
	}
	return table
}

// newEmbed returns an embed with the standard footer.
func newEmbed(title string) *commands.Embed {
	return &commands.Embed{Title: title, Footer: Footer}
}

// truncate shortens s to at most n characters, marking the cut with an
// ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:n-1])) + "…"
}

// userFacing wraps err in a message shown verbatim to the caller.
func userFacing(err error, format string, args ...any) error {
	return &commands.UserError{Message: fmt.Sprintf(format, args...), Err: err}
}
