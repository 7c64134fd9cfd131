package discord

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
)

// Discord limits command and option descriptions to 100 characters.
const descriptionLimit = 100

// ApplicationCommands converts specs into Discord application commands.
// Specs with a context-menu label become message commands named by the
// label. Specs named "parent sub" are grouped under one slash command.
func ApplicationCommands(specs []commands.Spec) []*discordgo.ApplicationCommand {
	var (
		out    []*discordgo.ApplicationCommand
		groups = make(map[string]*discordgo.ApplicationCommand)
	)

	for _, s := range specs {
		if s.ContextMenu != "" {
			out = append(out, &discordgo.ApplicationCommand{
				Name: s.ContextMenu,
				Type: discordgo.MessageApplicationCommand,
			})
			continue
		}

		if s.Sub() == "" {
			out = append(out, &discordgo.ApplicationCommand{
				Name:        s.Name,
				Description: description(s.Description),
				Type:        discordgo.ChatApplicationCommand,
				Options:     commandOptions(s.Options),
			})
			continue
		}

		parent, ok := groups[s.Parent()]
		if !ok {
			parent = &discordgo.ApplicationCommand{
				Name:        s.Parent(),
				Description: description(s.Parent() + " commands"),
				Type:        discordgo.ChatApplicationCommand,
			}
			groups[s.Parent()] = parent
			out = append(out, parent)
		}
		parent.Options = append(parent.Options, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionSubCommand,
			Name:        s.Sub(),
			Description: description(s.Description),
			Options:     commandOptions(s.Options),
		})
	}
	return out
}

func commandOptions(opts []commands.OptionSpec) []*discordgo.ApplicationCommandOption {
	if len(opts) == 0 {
		return nil
	}
	out := make([]*discordgo.ApplicationCommandOption, 0, len(opts))
	for _, o := range opts {
		out = append(out, &discordgo.ApplicationCommandOption{
			Type:        optionType(o.Kind),
			Name:        o.Name,
			Description: description(o.Description),
			Required:    o.Required,
		})
	}
	return out
}

func optionType(k commands.OptionKind) discordgo.ApplicationCommandOptionType {
	switch k {
	case commands.KindBoolean:
		return discordgo.ApplicationCommandOptionBoolean
	case commands.KindUser:
		return discordgo.ApplicationCommandOptionUser
	case commands.KindInteger:
		return discordgo.ApplicationCommandOptionInteger
	default:
		return discordgo.ApplicationCommandOptionString
	}
}

func description(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	r := []rune(s)
	if len(r) > descriptionLimit {
		return string(r[:descriptionLimit-1]) + "…"
	}
	return s
}
