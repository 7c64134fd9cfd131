package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
)

var errNotConnected = errors.New("discord: not connected")

// avatarSize is the image size requested for avatar URLs.
const avatarSize = "1024"

// onInteractionCreate dispatches slash and context-menu commands.
func (d *Discord) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	inv := InvocationFromInteraction(i.Interaction, d.dispatcher)
	responder := newInteractionResponder(s, i.Interaction, d.logger)
	responder.autoDefer(d.cfg.AutoDeferAfter)
	inv.Responder = responder

	_, _ = d.dispatcher.Dispatch(d.baseContext(), inv)
}

// InvocationFromInteraction converts an application command interaction into
// an Invocation. Message commands are resolved to the spec registered under
// their context-menu label; an unknown label is passed through so the
// dispatcher reports it as not implemented.
func InvocationFromInteraction(i *discordgo.Interaction, d *commands.Dispatcher) commands.Invocation {
	data := i.ApplicationCommandData()
	inv := commands.Invocation{
		Name:   data.Name,
		Caller: callerOf(i),
	}

	if data.CommandType == discordgo.MessageApplicationCommand {
		if spec, ok := d.ContextMenu(data.Name); ok {
			inv.Name = spec.Name
		}
		if data.Resolved != nil {
			if m, ok := data.Resolved.Messages[data.TargetID]; ok {
				inv.Target = messageOf(m)
			}
		}
		return inv
	}

	opts := data.Options
	if len(opts) == 1 && opts[0].Type == discordgo.ApplicationCommandOptionSubCommand {
		inv.Name = data.Name + " " + opts[0].Name
		opts = opts[0].Options
	}
	inv.Options = optionValues(opts, data.Resolved)
	return inv
}

func optionValues(opts []*discordgo.ApplicationCommandInteractionDataOption, resolved *discordgo.ApplicationCommandInteractionDataResolved) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	raw := make(map[string]any, len(opts))
	for _, o := range opts {
		if o.Type != discordgo.ApplicationCommandOptionUser {
			raw[o.Name] = o.Value
			continue
		}
		id, _ := o.Value.(string)
		ref := commands.UserRef{ID: id}
		if resolved != nil {
			if u, ok := resolved.Users[id]; ok {
				ref = userRef(u, resolved.Members[id])
			}
		}
		raw[o.Name] = ref
	}
	return raw
}

func callerOf(i *discordgo.Interaction) commands.Caller {
	c := commands.Caller{GuildID: i.GuildID, ChannelID: i.ChannelID}
	switch {
	case i.Member != nil && i.Member.User != nil:
		c.User = userRef(i.Member.User, i.Member)
	case i.User != nil:
		c.User = userRef(i.User, nil)
	}
	return c
}

// userRef builds a UserRef, preferring the guild nickname for display.
func userRef(u *discordgo.User, m *discordgo.Member) commands.UserRef {
	if u == nil {
		return commands.UserRef{}
	}
	ref := commands.UserRef{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.GlobalName,
		AvatarURL:   u.AvatarURL(avatarSize),
	}
	if m != nil && m.Nick != "" {
		ref.DisplayName = m.Nick
	}
	return ref
}

func messageOf(m *discordgo.Message) *commands.Message {
	msg := &commands.Message{ID: m.ID, ChannelID: m.ChannelID, Content: m.Content}
	if m.Author != nil {
		msg.Author = userRef(m.Author, m.Member)
	}
	return msg
}

// interactionResponder answers one interaction. If neither Defer nor
// Respond happens within the auto-defer window it defers on its own, and the
// final reply becomes an edit of the deferred response.
type interactionResponder struct {
	s      *discordgo.Session
	i      *discordgo.Interaction
	logger *slog.Logger

	mu       sync.Mutex
	deferred bool
	done     bool
	timer    *time.Timer
}

func newInteractionResponder(s *discordgo.Session, i *discordgo.Interaction, logger *slog.Logger) *interactionResponder {
	return &interactionResponder{s: s, i: i, logger: logger}
}

func (r *interactionResponder) autoDefer(after time.Duration) {
	if after <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.timer = time.AfterFunc(after, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.done || r.deferred {
			return
		}
		if err := r.deferLocked(context.Background()); err != nil {
			r.logger.Warn("discord: auto-defer failed", "interaction", r.i.ID, "error", err)
		}
	})
}

func (r *interactionResponder) Defer(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deferred || r.done {
		return nil
	}
	return r.deferLocked(ctx)
}

func (r *interactionResponder) deferLocked(ctx context.Context) error {
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: deferring interaction: %w", err)
	}
	r.deferred = true
	return nil
}

// Deferred reports whether the interaction has been deferred, including by
// the auto-defer timer.
func (r *interactionResponder) Deferred() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.deferred
}

func (r *interactionResponder) Respond(ctx context.Context, reply *commands.Reply) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.timer != nil {
		r.timer.Stop()
	}
	r.done = true

	embeds := messageEmbeds(reply)
	if r.deferred {
		content := reply.Content
		edit := &discordgo.WebhookEdit{
			Content: &content,
			Embeds:  &embeds,
			Files:   messageFiles(reply),
		}
		if _, err := r.s.InteractionResponseEdit(r.i, edit, discordgo.WithContext(ctx)); err != nil {
			return fmt.Errorf("discord: editing interaction response: %w", err)
		}
		return nil
	}

	data := &discordgo.InteractionResponseData{
		Content: reply.Content,
		Embeds:  embeds,
		Files:   messageFiles(reply),
	}
	if reply.Ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := r.s.InteractionRespond(r.i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("discord: responding to interaction: %w", err)
	}
	return nil
}

// messageEmbeds converts reply embeds to Discord embeds.
func messageEmbeds(reply *commands.Reply) []*discordgo.MessageEmbed {
	out := make([]*discordgo.MessageEmbed, 0, len(reply.Embeds))
	for _, e := range reply.Embeds {
		me := &discordgo.MessageEmbed{
			Title:       e.Title,
			Description: e.Description,
			Color:       e.Colour,
		}
		for _, f := range e.Fields {
			me.Fields = append(me.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
		}
		if e.ImageURL != "" {
			me.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
		}
		if e.Footer != "" {
			me.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
		}
		out = append(out, me)
	}
	return out
}

func messageFiles(reply *commands.Reply) []*discordgo.File {
	if len(reply.Files) == 0 {
		return nil
	}
	out := make([]*discordgo.File, 0, len(reply.Files))
	for _, f := range reply.Files {
		out = append(out, &discordgo.File{
			Name:        f.Name,
			ContentType: f.ContentType,
			Reader:      bytes.NewReader(f.Data),
		})
	}
	return out
}

func (d *Discord) baseContext() context.Context {
	if d.ctx == nil {
		return context.Background()
	}
	return d.ctx
}
