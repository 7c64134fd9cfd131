// Package discord connects Maxine's command dispatcher to Discord using
// discordgo.
//
// Features:
//   - Slash commands, subcommand groups and message context menus synced from
//     the command table
//   - Deferred interaction replies with embeds and file attachments
//   - Prefixed chat commands ("!8ball will it rain?")
//   - Custom status and nickname management
//   - Temporary voice channels, Twitter embed links and 🗑️ reaction deletes
//   - Colour role management for setcolour
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
)

// Config holds Discord adapter configuration.
type Config struct {
	// Token is the bot token.
	Token string

	// Nickname is set in every guild the bot joins.
	Nickname string

	// Status is the custom status text. {guildsCount} is replaced with the
	// number of guilds.
	Status string

	// Prefix starts a chat command. Empty disables prefix commands.
	Prefix string

	// GuildID syncs commands to one guild instead of globally.
	GuildID string

	// TwitterEmbedURL replaces x.com and twitter.com links. Empty disables
	// the rewrite.
	TwitterEmbedURL string

	// AutoDeferAfter defers an interaction that has not been answered in
	// time. Discord drops interactions unanswered after three seconds.
	AutoDeferAfter time.Duration
}

// DefaultAutoDefer is used when Config.AutoDeferAfter is zero.
const DefaultAutoDefer = 2 * time.Second

// Discord is the Discord transport.
type Discord struct {
	cfg        Config
	logger     *slog.Logger
	dispatcher *commands.Dispatcher
	session    *discordgo.Session

	connected atomic.Bool

	// guilds holds the IDs the bot is a member of.
	guildsMu sync.RWMutex
	guilds   map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a Discord adapter that dispatches through d.
func New(cfg Config, d *commands.Dispatcher, logger *slog.Logger) *Discord {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AutoDeferAfter <= 0 {
		cfg.AutoDeferAfter = DefaultAutoDefer
	}
	return &Discord{
		cfg:        cfg,
		logger:     logger.With("component", "discord"),
		dispatcher: d,
		guilds:     make(map[string]struct{}),
	}
}

// Connect opens the gateway connection and syncs the command table.
func (d *Discord) Connect(ctx context.Context) error {
	if d.cfg.Token == "" {
		return fmt.Errorf("discord: bot token is required")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	session, err := discordgo.New("Bot " + d.cfg.Token)
	if err != nil {
		return fmt.Errorf("discord: creating session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	session.AddHandler(d.onReady)
	session.AddHandler(d.onGuildCreate)
	session.AddHandler(d.onGuildDelete)
	session.AddHandler(d.onInteractionCreate)
	session.AddHandler(d.onMessageCreate)
	session.AddHandler(d.onVoiceStateUpdate)
	session.AddHandler(d.onReactionAdd)

	// Ready can arrive before Open returns.
	d.session = session
	d.connected.Store(true)
	if err := session.Open(); err != nil {
		d.connected.Store(false)
		d.session = nil
		return fmt.Errorf("discord: opening gateway: %w", err)
	}

	user := session.State.User
	d.logger.Info("discord: connected", "bot", user.Username, "id", user.ID)

	if err := d.SyncCommands(); err != nil {
		d.logger.Error("discord: command sync failed", "error", err)
	}
	return nil
}

// Disconnect closes the gateway connection.
func (d *Discord) Disconnect() error {
	if d.cancel != nil {
		d.cancel()
	}
	if d.session != nil {
		if err := d.session.Close(); err != nil {
			return fmt.Errorf("discord: closing gateway: %w", err)
		}
	}
	d.connected.Store(false)
	d.logger.Info("discord: disconnected")
	return nil
}

// IsConnected reports whether the gateway is open.
func (d *Discord) IsConnected() bool { return d.connected.Load() }

// Roles returns the role manager used by setcolour.
func (d *Discord) Roles() *RoleManager {
	return &RoleManager{d: d}
}

// SyncCommands overwrites the application commands with the dispatcher's
// table.
func (d *Discord) SyncCommands() error {
	if d.session == nil {
		return errNotConnected
	}
	cmds := ApplicationCommands(d.dispatcher.Specs())
	created, err := d.session.ApplicationCommandBulkOverwrite(d.session.State.User.ID, d.cfg.GuildID, cmds)
	if err != nil {
		return fmt.Errorf("discord: syncing commands: %w", err)
	}
	scope := "global"
	if d.cfg.GuildID != "" {
		scope = "guild " + d.cfg.GuildID
	}
	d.logger.Info("discord: commands synced", "count", len(created), "scope", scope)
	return nil
}

// RefreshStatus sets the custom status from the configured template.
func (d *Discord) RefreshStatus() error {
	if d.session == nil || !d.IsConnected() {
		return errNotConnected
	}
	status := FormatStatus(d.cfg.Status, d.guildCount())
	if status == "" {
		return nil
	}
	if err := d.session.UpdateCustomStatus(status); err != nil {
		return fmt.Errorf("discord: updating status: %w", err)
	}
	return nil
}

func (d *Discord) guildCount() int {
	d.guildsMu.RLock()
	defer d.guildsMu.RUnlock()
	return len(d.guilds)
}

// trackGuild records a guild and reports whether it was unknown.
func (d *Discord) trackGuild(id string) bool {
	d.guildsMu.Lock()
	defer d.guildsMu.Unlock()
	if _, ok := d.guilds[id]; ok {
		return false
	}
	d.guilds[id] = struct{}{}
	return true
}

func (d *Discord) forgetGuild(id string) {
	d.guildsMu.Lock()
	defer d.guildsMu.Unlock()
	delete(d.guilds, id)
}

func (d *Discord) botID() string {
	if d.session == nil || d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}
