package bot

import (
	"context"
	"errors"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/prompts"
)

func (b *Bot) promptSet(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	prompt := req.Options.String("prompt")
	if err := b.deps.Prompts.Upsert(ctx, req.Caller.User.ID, prompt); err != nil {
		return nil, err
	}

	e := newEmbed("Prompt Updated").AddField("New Prompt", truncate(prompt, FieldLimit))
	e.Description = "Your custom system prompt has been updated successfully."
	return commands.EmbedReply(e), nil
}

func (b *Bot) promptGet(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	rec, err := b.deps.Prompts.Get(ctx, req.Caller.User.ID)
	if errors.Is(err, prompts.ErrNotFound) {
		return commands.Text("You don't have a custom prompt set yet. Use `/prompt set` to set one."), nil
	}
	if err != nil {
		return nil, err
	}

	e := newEmbed("Your Custom Prompt").AddField("Prompt", truncate(rec.Prompt, FieldLimit))
	e.Description = "Here is your current custom system prompt:"
	return commands.EmbedReply(e), nil
}
