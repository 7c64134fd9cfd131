package bot

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/media"
	"github.com/maxinebot/maxine/pkg/maxine/webapi"
)

// messageLimit is Discord's maximum message length.
const messageLimit = 2000

const searchResultLimit = 5

func (b *Bot) localTime(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	location := req.Options.String("location")
	t, err := b.deps.Web.TimeIn(ctx, location)
	if errors.Is(err, webapi.ErrNoResult) {
		return nil, commands.Errorf("I couldn't find the time for %s.", location)
	}
	if err != nil {
		return nil, err
	}

	label := t.Label
	if label == "" {
		label = "Time in " + location
	}
	e := newEmbed("Time")
	e.Description = fmt.Sprintf("%s is %s", label, t.Time)
	return commands.EmbedReply(e), nil
}

func (b *Bot) save(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	if err := req.Defer(ctx); err != nil {
		return nil, err
	}

	clip, err := b.deps.Saver.Save(ctx, media.Request{
		URL:       req.Options.String("url"),
		ClipStart: req.Options.String("clip_start"),
		ClipEnd:   req.Options.String("clip_end"),
		Format:    req.Options.String("format"),
	})
	if err != nil {
		return nil, saveError(ctx, err)
	}
	defer clip.Close()

	data, err := os.ReadFile(clip.Path)
	if err != nil {
		return nil, fmt.Errorf("bot: reading saved video: %w", err)
	}
	return &commands.Reply{Files: []*commands.File{{
		Name:        clip.Name(),
		ContentType: mime.TypeByExtension(filepath.Ext(clip.Path)),
		Data:        data,
	}}}, nil
}

// saveError maps pipeline failures to the messages users see.
func saveError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return err
	}

	var (
		stage    *media.StageError
		tooLarge *media.TooLargeError
	)
	switch {
	case errors.Is(err, media.ErrInvalidURL):
		return userFacing(err, "Please provide a valid link")
	case errors.Is(err, media.ErrInvalidFormat):
		return userFacing(err, "Unsupported format. Use a plain file extension such as mp4, gif or webm.")
	case errors.As(err, &tooLarge):
		return userFacing(err, "I can't upload that: %s.", tooLarge.Error())
	case errors.As(err, &stage):
		prefix := "Error downloading video: "
		if stage.Stage == media.StageConvert {
			prefix = "Error converting video: "
		}
		return userFacing(err, "%s", truncate(prefix+stage.Err.Error(), messageLimit))
	default:
		return err
	}
}

func (b *Bot) search(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	query := req.Options.String("query")
	results, err := b.deps.Web.Search(ctx, query, searchResultLimit)
	if errors.Is(err, webapi.ErrNoResult) {
		return commands.Text("No results found."), nil
	}
	if err != nil {
		return nil, err
	}

	e := newEmbed("Search results for " + truncate(query, 200))
	for _, r := range results {
		content := strings.TrimSpace(r.Content)
		if r.URL != "" {
			content = strings.TrimSpace(content + "\n" + r.URL)
		}
		if content == "" {
			content = "-"
		}
		e.AddField(truncate(r.Title, 256), truncate(content, FieldLimit))
	}
	return commands.EmbedReply(e), nil
}
