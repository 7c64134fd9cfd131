package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
)

func (d *Discord) dispatchPrefixed(s *discordgo.Session, m *discordgo.Message) {
	inv, ok := PrefixInvocation(d.dispatcher, d.cfg.Prefix, m)
	if !ok {
		return
	}
	inv.Responder = &messageResponder{s: s, msg: m}
	_, _ = d.dispatcher.Dispatch(d.baseContext(), inv)
}

// PrefixInvocation parses a prefixed chat message into an Invocation. It
// reports false when the message does not name a registered command, so
// ordinary chat starting with the prefix is ignored. A replied-to message
// becomes the Target, which lets context-menu commands run as
// "!translate" in a reply.
func PrefixInvocation(d *commands.Dispatcher, prefix string, m *discordgo.Message) (commands.Invocation, bool) {
	line, ok := strings.CutPrefix(m.Content, prefix)
	if !ok {
		return commands.Invocation{}, false
	}
	name, raw := d.ParseLine(line)
	spec, ok := d.Lookup(name)
	if !ok {
		return commands.Invocation{}, false
	}

	// Mentions carry the full user; the parsed option only has the ID.
	for _, o := range spec.Options {
		if o.Kind != commands.KindUser {
			continue
		}
		text, isText := raw[o.Name].(string)
		if !isText {
			continue
		}
		for _, u := range m.Mentions {
			if strings.Contains(text, u.ID) {
				raw[o.Name] = userRef(u, nil)
				break
			}
		}
	}

	inv := commands.Invocation{
		Name:    name,
		Options: raw,
		Caller: commands.Caller{
			User:      userRef(m.Author, m.Member),
			GuildID:   m.GuildID,
			ChannelID: m.ChannelID,
		},
	}
	if m.ReferencedMessage != nil {
		inv.Target = messageOf(m.ReferencedMessage)
	}
	return inv, true
}

// messageResponder answers a prefixed command with a reply in the channel.
type messageResponder struct {
	s   *discordgo.Session
	msg *discordgo.Message
}

func (r *messageResponder) Defer(ctx context.Context) error {
	if err := r.s.ChannelTyping(r.msg.ChannelID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: sending typing indicator: %w", err)
	}
	return nil
}

func (r *messageResponder) Respond(ctx context.Context, reply *commands.Reply) error {
	send := &discordgo.MessageSend{
		Content:   reply.Content,
		Embeds:    messageEmbeds(reply),
		Files:     messageFiles(reply),
		Reference: r.msg.Reference(),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	}
	if _, err := r.s.ChannelMessageSendComplex(r.msg.ChannelID, send, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: sending reply: %w", err)
	}
	return nil
}
