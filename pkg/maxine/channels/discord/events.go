package discord

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Voice channel names used by the temporary channel feature.
const (
	TempChannelCreator = "temp channel creator"
	tempChannelSuffix  = "'s channel"
)

const trashEmoji = "🗑"

var twitterLink = regexp.MustCompile(`(?i)\bhttps?://(?:x\.com|twitter\.com)(\S*)`)

// FormatStatus fills {guildsCount} in the status template.
func FormatStatus(template string, guilds int) string {
	return strings.ReplaceAll(template, "{guildsCount}", strconv.Itoa(guilds))
}

// TwitterLinks returns content's x.com and twitter.com links rewritten onto
// base.
func TwitterLinks(content, base string) []string {
	if base == "" {
		return nil
	}
	var out []string
	for _, m := range twitterLink.FindAllStringSubmatch(content, -1) {
		out = append(out, base+m[1])
	}
	return out
}

// TempChannelName is the name of the voice channel created for a member.
func TempChannelName(displayName string) string {
	return displayName + "'s Channel"
}

func isTempChannel(name string) bool {
	return strings.Contains(strings.ToLower(name), tempChannelSuffix)
}

func isTempCreator(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), TempChannelCreator)
}

func isTrash(e discordgo.Emoji) bool {
	return e.ID == "" && strings.TrimSuffix(e.Name, "\ufe0f") == trashEmoji
}

func (d *Discord) onReady(s *discordgo.Session, r *discordgo.Ready) {
	for _, g := range r.Guilds {
		d.trackGuild(g.ID)
	}
	d.logger.Info("discord: ready", "bot", r.User.Username, "guilds", len(r.Guilds))

	if err := d.RefreshStatus(); err != nil {
		d.logger.Warn("discord: setting status failed", "error", err)
	}
	for _, g := range r.Guilds {
		d.setNickname(s, g.ID)
	}
}

// onGuildCreate greets guilds the bot was not in when it connected. Guilds
// listed in Ready arrive here too and are skipped.
func (d *Discord) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.Unavailable || !d.trackGuild(g.ID) {
		return
	}
	d.logger.Info("discord: joined guild", "guild", g.Name, "guilds", d.guildCount())

	d.setNickname(s, g.ID)

	for _, ch := range g.Channels {
		if ch.Type == discordgo.ChannelTypeGuildText && strings.EqualFold(ch.Name, "general") {
			greeting := fmt.Sprintf("Hi, i'm %s, thanks for inviting me!", d.cfg.Nickname)
			if _, err := s.ChannelMessageSend(ch.ID, greeting); err != nil {
				d.logger.Warn("discord: greeting failed", "guild", g.ID, "error", err)
			}
			break
		}
	}

	if err := d.RefreshStatus(); err != nil {
		d.logger.Warn("discord: setting status failed", "error", err)
	}
}

func (d *Discord) onGuildDelete(_ *discordgo.Session, g *discordgo.GuildDelete) {
	if g.Unavailable {
		return
	}
	d.forgetGuild(g.ID)
	d.logger.Info("discord: left guild", "guild", g.ID, "guilds", d.guildCount())
}

func (d *Discord) setNickname(s *discordgo.Session, guildID string) {
	if d.cfg.Nickname == "" {
		return
	}
	if err := s.GuildMemberNickname(guildID, "@me", d.cfg.Nickname); err != nil {
		d.logger.Debug("discord: setting nickname failed", "guild", guildID, "error", err)
	}
}

// onVoiceStateUpdate creates a personal channel for members joining the
// creator channel and deletes personal channels once they empty out.
func (d *Discord) onVoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	if v.ChannelID != "" && (v.BeforeUpdate == nil || v.BeforeUpdate.ChannelID != v.ChannelID) {
		d.maybeCreateTempChannel(s, v.VoiceState)
	}
	if v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "" && v.BeforeUpdate.ChannelID != v.ChannelID {
		d.maybeDeleteTempChannel(s, v.BeforeUpdate.GuildID, v.BeforeUpdate.ChannelID)
	}
}

func (d *Discord) maybeCreateTempChannel(s *discordgo.Session, v *discordgo.VoiceState) {
	ch, err := d.channel(s, v.ChannelID)
	if err != nil || !isTempCreator(ch.Name) {
		return
	}

	name := v.UserID
	if v.Member != nil {
		name = userRef(v.Member.User, v.Member).Name()
	}

	created, err := s.GuildChannelCreateComplex(v.GuildID, discordgo.GuildChannelCreateData{
		Name:     TempChannelName(name),
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: ch.ParentID,
	})
	if err != nil {
		d.logger.Warn("discord: creating temp channel failed", "guild", v.GuildID, "error", err)
		return
	}
	if err := s.GuildMemberMove(v.GuildID, v.UserID, &created.ID); err != nil {
		d.logger.Warn("discord: moving member failed", "guild", v.GuildID, "user", v.UserID, "error", err)
	}
}

func (d *Discord) maybeDeleteTempChannel(s *discordgo.Session, guildID, channelID string) {
	ch, err := d.channel(s, channelID)
	if err != nil || !isTempChannel(ch.Name) {
		return
	}
	if d.voiceMembers(s, guildID, channelID) > 0 {
		return
	}
	if _, err := s.ChannelDelete(channelID); err != nil {
		d.logger.Warn("discord: deleting temp channel failed", "channel", channelID, "error", err)
	}
}

func (d *Discord) channel(s *discordgo.Session, id string) (*discordgo.Channel, error) {
	if ch, err := s.State.Channel(id); err == nil {
		return ch, nil
	}
	return s.Channel(id)
}

// voiceMembers counts cached voice states in a channel.
func (d *Discord) voiceMembers(s *discordgo.Session, guildID, channelID string) int {
	g, err := s.State.Guild(guildID)
	if err != nil {
		return 0
	}
	s.State.RLock()
	defer s.State.RUnlock()
	n := 0
	for _, vs := range g.VoiceStates {
		if vs.ChannelID == channelID {
			n++
		}
	}
	return n
}

// onMessageCreate handles prefixed commands and Twitter link rewrites.
func (d *Discord) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.Author.ID == d.botID() {
		return
	}

	if d.cfg.Prefix != "" && strings.HasPrefix(m.Content, d.cfg.Prefix) {
		d.dispatchPrefixed(s, m.Message)
		return
	}

	links := TwitterLinks(m.Content, d.cfg.TwitterEmbedURL)
	if len(links) == 0 {
		return
	}
	if _, err := s.ChannelMessageSendReply(m.ChannelID, strings.Join(links, "; "), m.Reference()); err != nil {
		d.logger.Warn("discord: twitter embed reply failed", "channel", m.ChannelID, "error", err)
	}
}

// onReactionAdd deletes bot messages that receive a wastebasket reaction.
func (d *Discord) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if !isTrash(r.Emoji) || r.UserID == d.botID() {
		return
	}
	msg, err := s.ChannelMessage(r.ChannelID, r.MessageID)
	if err != nil {
		d.logger.Debug("discord: fetching reacted message failed", "message", r.MessageID, "error", err)
		return
	}
	if msg.Author == nil || msg.Author.ID != d.botID() {
		return
	}
	if err := s.ChannelMessageDelete(r.ChannelID, r.MessageID); err != nil {
		d.logger.Warn("discord: deleting message failed", "message", r.MessageID, "error", err)
	}
}
