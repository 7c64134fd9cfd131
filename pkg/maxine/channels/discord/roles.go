package discord

import (
	"context"
	"fmt"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/maxinebot/maxine/pkg/maxine/bot"
)

// memberPageSize is the largest page GuildMembers accepts.
const memberPageSize = 1000

// RoleManager manages guild roles through the Discord REST API.
type RoleManager struct {
	d *Discord
}

var _ bot.RoleManager = (*RoleManager)(nil)

func (m *RoleManager) session() (*discordgo.Session, error) {
	if m.d.session == nil || !m.d.IsConnected() {
		return nil, errNotConnected
	}
	return m.d.session, nil
}

// Roles lists every role in the guild.
func (m *RoleManager) Roles(ctx context.Context, guildID string) ([]bot.Role, error) {
	s, err := m.session()
	if err != nil {
		return nil, err
	}
	roles, err := s.GuildRoles(guildID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: listing roles: %w", err)
	}
	out := make([]bot.Role, 0, len(roles))
	for _, r := range roles {
		out = append(out, toRole(r))
	}
	return out, nil
}

// MemberRoles returns a member's role IDs. An empty userID means the bot.
func (m *RoleManager) MemberRoles(ctx context.Context, guildID, userID string) ([]string, error) {
	s, err := m.session()
	if err != nil {
		return nil, err
	}
	if userID == "" {
		userID = m.d.botID()
	}
	member, err := s.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("discord: reading member %s: %w", userID, err)
	}
	return member.Roles, nil
}

// CreateRole creates a role and moves it to position.
func (m *RoleManager) CreateRole(ctx context.Context, guildID, name string, colour, position int) (bot.Role, error) {
	s, err := m.session()
	if err != nil {
		return bot.Role{}, err
	}
	role, err := s.GuildRoleCreate(guildID, &discordgo.RoleParams{Name: name, Color: &colour}, discordgo.WithContext(ctx))
	if err != nil {
		return bot.Role{}, fmt.Errorf("discord: creating role %s: %w", name, err)
	}
	if position > 0 && role.Position != position {
		_, err := s.GuildRoleReorder(guildID, []*discordgo.Role{{ID: role.ID, Position: position}}, discordgo.WithContext(ctx))
		if err != nil {
			m.d.logger.Warn("discord: positioning role failed", "role", name, "position", position, "error", err)
		} else {
			role.Position = position
		}
	}
	return toRole(role), nil
}

// AddMemberRole gives a member a role.
func (m *RoleManager) AddMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	s, err := m.session()
	if err != nil {
		return err
	}
	if err := s.GuildMemberRoleAdd(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: adding role: %w", err)
	}
	return nil
}

// RemoveMemberRole takes a role from a member.
func (m *RoleManager) RemoveMemberRole(ctx context.Context, guildID, userID, roleID string) error {
	s, err := m.session()
	if err != nil {
		return err
	}
	if err := s.GuildMemberRoleRemove(guildID, userID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: removing role: %w", err)
	}
	return nil
}

// DeleteRole deletes a role.
func (m *RoleManager) DeleteRole(ctx context.Context, guildID, roleID string) error {
	s, err := m.session()
	if err != nil {
		return err
	}
	if err := s.GuildRoleDelete(guildID, roleID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("discord: deleting role: %w", err)
	}
	return nil
}

// RoleInUse pages through the member list looking for a holder.
func (m *RoleManager) RoleInUse(ctx context.Context, guildID, roleID string) (bool, error) {
	s, err := m.session()
	if err != nil {
		return false, err
	}
	after := ""
	for {
		members, err := s.GuildMembers(guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return false, fmt.Errorf("discord: listing members: %w", err)
		}
		for _, member := range members {
			if slices.Contains(member.Roles, roleID) {
				return true, nil
			}
		}
		if len(members) < memberPageSize {
			return false, nil
		}
		after = members[len(members)-1].User.ID
	}
}

func toRole(r *discordgo.Role) bot.Role {
	return bot.Role{ID: r.ID, Name: r.Name, Colour: r.Color, Position: r.Position}
}
