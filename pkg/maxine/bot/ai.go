package bot

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/llm"
	"github.com/maxinebot/maxine/pkg/maxine/prompts"
	"github.com/maxinebot/maxine/pkg/maxine/summarize"
)

const translateInstruction = `You are excellent at detecting languages and translating text to English. The origin language of the text provided for you to translate will never be English.
You MUST Respond EXACTLY in the following JSON format, do not forget the curly braces:

{
  "input_language": "detected input language",
  "translation": "the english translation"
}`

const msgModelUnavailable = "The language model is unavailable right now. Please try again later."

type translation struct {
	InputLanguage string `json:"input_language"`
	Translation   string `json:"translation"`
}

var titleCase = cases.Title(language.English)

func (b *Bot) ask(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	if err := req.Defer(ctx); err != nil {
		return nil, err
	}

	user := req.Caller.User
	query := req.Options.String("query")
	system := b.systemPromptFor(ctx, user.ID, req.Options.Bool("use_default_prompt"))
	system += "\nMake your response no longer than 1024 characters" +
		"\nThe users name is " + user.Name()

	raw, err := b.deps.LLM.Generate(ctx, system, query)
	if err != nil {
		return nil, userFacing(err, msgModelUnavailable)
	}

	answer, err := b.fit(ctx, summarize.StripReasoning(raw))
	if err != nil {
		return nil, err
	}

	e := newEmbed("").
		AddField(user.Name()+" asked", truncate(query, FieldLimit)).
		AddField("Response", answer)
	return commands.EmbedReply(e), nil
}

// systemPromptFor returns the user's stored prompt unless useDefault is set
// or they have none.
func (b *Bot) systemPromptFor(ctx context.Context, userID string, useDefault bool) string {
	if useDefault || b.deps.Prompts == nil {
		return b.deps.SystemPrompt
	}
	rec, err := b.deps.Prompts.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, prompts.ErrNotFound) {
			b.logger.Warn("ask: loading custom prompt failed, using default", "user", userID, "error", err)
		}
		return b.deps.SystemPrompt
	}
	return rec.Prompt
}

// fit returns text unchanged when it fits an embed field, otherwise a
// summary of it.
func (b *Bot) fit(ctx context.Context, text string) (string, error) {
	if summarize.Fits(text, FieldLimit) {
		return text, nil
	}
	return b.summarize(ctx, text)
}

func (b *Bot) summarize(ctx context.Context, text string) (string, error) {
	summary, err := b.deps.Summarizer.Summarize(ctx, text)
	switch {
	case errors.Is(err, summarize.ErrNotConvergent):
		return "", userFacing(err, "I couldn't shorten the summary enough to fit. Please try again.")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "", err
	case err != nil:
		return "", userFacing(err, msgModelUnavailable)
	}
	return summary, nil
}

func (b *Bot) translate(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	if req.Target == nil {
		return nil, commands.Errorf("Pick a message to translate.")
	}
	text := strings.TrimSpace(req.Target.Content)
	if text == "" {
		return nil, commands.Errorf("That message has no text to translate.")
	}
	if err := req.Defer(ctx); err != nil {
		return nil, err
	}

	raw, err := b.deps.LLM.GenerateStrict(ctx, translateInstruction,
		"Detect what language and translate this into English: "+text)
	if err != nil {
		return nil, userFacing(err, msgModelUnavailable)
	}

	var t translation
	if err := llm.DecodeJSON(raw, &t); err != nil || strings.TrimSpace(t.Translation) == "" {
		b.logger.Warn("translate: unexpected model output", "request_id", req.ID, "error", err)
		return nil, userFacing(err, "The translation came back in an unexpected format. Please try again.")
	}

	lang := strings.TrimSpace(t.InputLanguage)
	if lang == "" {
		lang = "Unknown"
	}
	e := newEmbed("").
		AddField("LLM Translation from "+titleCase.String(lang)+" to English", truncate(t.Translation, FieldLimit))
	return commands.EmbedReply(e), nil
}

func (b *Bot) tldrMessage(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	if req.Target == nil {
		return nil, commands.Errorf("Pick a message to summarize.")
	}
	if err := req.Defer(ctx); err != nil {
		return nil, err
	}
	return b.tldr(ctx, req.Target.Content)
}

func (b *Bot) tldrLink(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	if err := req.Defer(ctx); err != nil {
		return nil, err
	}

	link := strings.TrimSpace(req.Options.String("link"))
	if !strings.HasPrefix(link, "http") {
		return commands.Text("Please provide a valid link"), nil
	}

	text, err := b.deps.Web.PageText(ctx, link)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, userFacing(err, "I couldn't fetch that page.")
	}
	return b.tldr(ctx, text)
}

func (b *Bot) tldr(ctx context.Context, text string) (*commands.Reply, error) {
	summary, err := b.summarize(ctx, text)
	if err != nil {
		return nil, err
	}
	e := newEmbed("TLDR Summary").AddField("Summary", summary)
	return commands.EmbedReply(e), nil
}
