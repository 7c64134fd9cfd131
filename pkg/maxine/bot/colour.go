package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/summarize"
)

// ColourRolePrefix marks roles managed by setcolour.
const ColourRolePrefix = "CLR-"

const colourInstruction = "You are a helpful assistant that converts color names to hex values. " +
	"Respond with ONLY the hex value, nothing else."

var hexPattern = regexp.MustCompile(`#?\b[0-9a-fA-F]{6}\b`)

// Role is a guild role as setcolour sees it.
type Role struct {
	ID       string
	Name     string
	Colour   int
	Position int
}

// RoleManager reads and edits guild roles. The Discord adapter implements
// it.
type RoleManager interface {
	// Roles lists every role in the guild.
	Roles(ctx context.Context, guildID string) ([]Role, error)

	// MemberRoles returns the role IDs held by a member. An empty userID
	// means the bot itself.
	MemberRoles(ctx context.Context, guildID, userID string) ([]string, error)

	CreateRole(ctx context.Context, guildID, name string, colour, position int) (Role, error)
	AddMemberRole(ctx context.Context, guildID, userID, roleID string) error
	RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error
	DeleteRole(ctx context.Context, guildID, roleID string) error

	// RoleInUse reports whether any member holds the role.
	RoleInUse(ctx context.Context, guildID, roleID string) (bool, error)
}

func (b *Bot) setColour(ctx context.Context, req *commands.Request) (*commands.Reply, error) {
	guildID := req.Caller.GuildID
	if guildID == "" || b.deps.Roles == nil {
		return nil, commands.Errorf("This command can only be used in a server.")
	}
	if err := req.Defer(ctx); err != nil {
		return nil, err
	}

	input := strings.TrimSpace(req.Options.String("colour_code"))
	colour, err := b.resolveColour(ctx, input)
	if err != nil {
		return nil, err
	}
	r, g, bl := colour.RGB255()
	value := int(r)<<16 | int(g)<<8 | int(bl)

	roles := b.deps.Roles
	guildRoles, err := roles.Roles(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("bot: listing roles: %w", err)
	}
	byID := make(map[string]Role, len(guildRoles))
	for _, role := range guildRoles {
		byID[role.ID] = role
	}

	memberRoles, err := roles.MemberRoles(ctx, guildID, req.Caller.User.ID)
	if err != nil {
		return nil, fmt.Errorf("bot: reading member roles: %w", err)
	}
	botRoles, err := roles.MemberRoles(ctx, guildID, "")
	if err != nil {
		return nil, fmt.Errorf("bot: reading bot roles: %w", err)
	}

	botTop := topPosition(botRoles, byID, func(Role) bool { return true })
	userTop := topPosition(memberRoles, byID, func(r Role) bool { return r.Colour > 0 })
	if userTop >= botTop {
		return colourEmbed("Colour Update Failed",
			"You have a role higher than me, so I can't assign your colour role.", value), nil
	}

	key := ColourRolePrefix + strings.ToUpper(strings.TrimPrefix(colour.Hex(), "#"))

	for _, id := range memberRoles {
		if role, ok := byID[id]; ok && strings.HasPrefix(role.Name, ColourRolePrefix) && role.Name != key {
			if err := roles.RemoveMemberRole(ctx, guildID, req.Caller.User.ID, id); err != nil {
				return nil, fmt.Errorf("bot: removing colour role: %w", err)
			}
		}
	}

	var target Role
	found := false
	for _, role := range guildRoles {
		if role.Name == key {
			target, found = role, true
			break
		}
	}
	if !found {
		target, err = roles.CreateRole(ctx, guildID, key, value, userTop+1)
		if err != nil {
			return nil, fmt.Errorf("bot: creating colour role: %w", err)
		}
	}
	if err := roles.AddMemberRole(ctx, guildID, req.Caller.User.ID, target.ID); err != nil {
		return nil, fmt.Errorf("bot: assigning colour role: %w", err)
	}

	b.pruneColourRoles(ctx, guildID, guildRoles, target.ID)

	return colourEmbed("Colour Updated", "Your name colour has been updated!", value), nil
}

// resolveColour parses a hex code directly and asks the model to convert
// anything else.
func (b *Bot) resolveColour(ctx context.Context, input string) (colorful.Color, error) {
	if c, ok := parseHex(input); ok {
		return c, nil
	}

	raw, err := b.deps.LLM.GenerateStrict(ctx, colourInstruction, "Convert this color to a hex value: "+input)
	if err != nil {
		return colorful.Color{}, userFacing(err, msgModelUnavailable)
	}
	if m := hexPattern.FindString(summarize.StripReasoning(raw)); m != "" {
		if c, ok := parseHex(m); ok {
			return c, nil
		}
	}
	return colorful.Color{}, commands.Errorf("I couldn't work out a colour from `%s`.", input)
}

func parseHex(s string) (colorful.Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 4 && len(s) != 7 {
		return colorful.Color{}, false
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return colorful.Color{}, false
	}
	return c, true
}

// pruneColourRoles deletes colour roles nobody holds any more. Failures are
// logged; the caller's colour is already set.
func (b *Bot) pruneColourRoles(ctx context.Context, guildID string, guildRoles []Role, keep string) {
	for _, role := range guildRoles {
		if role.ID == keep || !strings.HasPrefix(role.Name, ColourRolePrefix) {
			continue
		}
		inUse, err := b.deps.Roles.RoleInUse(ctx, guildID, role.ID)
		if err != nil {
			b.logger.Warn("setcolour: checking role usage failed", "role", role.Name, "error", err)
			continue
		}
		if inUse {
			continue
		}
		if err := b.deps.Roles.DeleteRole(ctx, guildID, role.ID); err != nil {
			b.logger.Warn("setcolour: deleting unused role failed", "role", role.Name, "error", err)
		}
	}
}

func topPosition(ids []string, byID map[string]Role, include func(Role) bool) int {
	top := 0
	for _, id := range ids {
		if role, ok := byID[id]; ok && include(role) && role.Position > top {
			top = role.Position
		}
	}
	return top
}

func colourEmbed(title, description string, colour int) *commands.Reply {
	e := newEmbed(title)
	e.Description = description
	e.Colour = colour
	return commands.EmbedReply(e)
}
