package bot

import (
	"context"
	"errors"
	"strings"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/webapi"
)

// EightBallAnswers are the magic 8ball's possible answers.
var EightBallAnswers = []string{
	"It is certain",
	"Without a doubt",
	"Definitely",
	"Most likely",
	"Outlook good",
	"Yes!",
	"Try again",
	"Reply hazy",
	"Can't predict",
	"No!",
	"Unlikely",
	"Sources say no",
	"Very doubtful",
}

func (b *Bot) avatar(_ context.Context, req *commands.Request) (*commands.Reply, error) {
	user, ok := req.Options.User("user")
	if !ok {
		user = req.Caller.User
	}
	if user.AvatarURL == "" {
		return nil, commands.Errorf("I couldn't find an avatar for %s.", user.Name())
	}

	e := newEmbed("Avatar for " + user.Name())
	e.ImageURL = user.AvatarURL
	return commands.EmbedReply(e), nil
}

func (b *Bot) cat(ctx context.Context, _ *commands.Request) (*commands.Reply, error) {
	url, err := b.deps.Web.RandomCat(ctx)
	if err != nil {
		if !errors.Is(err, webapi.ErrNoResult) {
			b.logger.Warn("cat: fetch failed", "error", err)
		}
		return commands.Text("Unable to fetch cat photo :("), nil
	}
	e := newEmbed("Here's your cat!")
	e.ImageURL = url
	return commands.EmbedReply(e), nil
}

func (b *Bot) dog(ctx context.Context, _ *commands.Request) (*commands.Reply, error) {
	url, err := b.deps.Web.RandomDog(ctx)
	if err != nil {
		if !errors.Is(err, webapi.ErrNoResult) {
			b.logger.Warn("dog: fetch failed", "error", err)
		}
		return commands.Text("Unable to fetch dog photo :("), nil
	}
	e := newEmbed("Here's your dog!")
	e.ImageURL = url
	return commands.EmbedReply(e), nil
}

func (b *Bot) eightBall(_ context.Context, req *commands.Request) (*commands.Reply, error) {
	answer := EightBallAnswers[b.pick(len(EightBallAnswers))]

	e := newEmbed("Magic 8ball").
		AddField(req.Caller.User.Name()+" asked", truncate(req.Options.String("question"), FieldLimit)).
		AddField("The 8ball says", answer)
	return commands.EmbedReply(e), nil
}

func (b *Bot) urban(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	def, err := b.deps.Web.Define(ctx, req.Options.String("query"))
	if errors.Is(err, webapi.ErrNoResult) {
		return commands.Text("No definition could be found."), nil
	}
	if err != nil {
		return nil, err
	}

	// Urban Dictionary marks cross-references with [brackets].
	definition := strings.NewReplacer("[", "", "]", "").Replace(def.Definition)
	e := newEmbed("Urban Dictionary: " + def.Word).
		AddField("Definition", truncate(definition, FieldLimit))
	return commands.EmbedReply(e), nil
}
