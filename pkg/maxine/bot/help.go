package bot

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
)

// Help categories, in display order.
const (
	CategoryAI     = "🤖 AI & Language Commands"
	CategoryFun    = "🎨 Fun & Utility Commands"
	CategoryTime   = "⏰ Time & Media Commands"
	CategoryCustom = "🎨 Customization Commands"
)

var categoryOrder = []string{CategoryAI, CategoryFun, CategoryTime, CategoryCustom}

const usageTips = "• Use `/help <command>` for detailed help on a specific command\n" +
	"• Most commands work with both slash commands and prefix commands\n" +
	"• Context menu commands are available for translate and tldrify"

const msgCommandNotFound = "Command not found. Use `/help` to see all available commands."

func (b *Bot) help(_ context.Context, req *commands.Request) (*commands.Reply, error) {
	var specs []commands.Spec
	if b.dispatcher != nil {
		specs = b.dispatcher.Specs()
	}

	if name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(req.Options.String("command"), "/"))); name != "" {
		e := newEmbed("Help: /" + name)
		e.Description = commandHelp(specs, name)
		return commands.EmbedReply(e), nil
	}

	e := newEmbed("Maxine Bot Commands")
	e.Description = "Here are all the available commands:"
	for _, category := range categoryOrder {
		if lines := categoryLines(specs, category); lines != "" {
			e.AddField(category, lines)
		}
	}
	e.AddField("💡 Usage Tips", usageTips)
	return commands.EmbedReply(e), nil
}

// categoryLines lists one bullet per command in category.
func categoryLines(specs []commands.Spec, category string) string {
	var lines []string
	for _, s := range specs {
		if s.Category != category {
			continue
		}
		switch {
		case s.ContextMenu != "":
			lines = append(lines, fmt.Sprintf("• `%s` (message menu) - %s", s.ContextMenu, s.Description))
		default:
			lines = append(lines, fmt.Sprintf("• `/%s` - %s", s.Name, s.Description))
		}
	}
	return strings.Join(lines, "\n")
}

// commandHelp returns the usage text for a command or subcommand group.
func commandHelp(specs []commands.Spec, name string) string {
	var parts []string
	for _, s := range specs {
		if s.Name != name && s.Parent() != name && !strings.EqualFold(s.ContextMenu, name) {
			continue
		}
		usage := s.Usage
		if usage == "" {
			continue
		}
		if !slices.Contains(parts, usage) {
			parts = append(parts, usage)
		}
	}
	if len(parts) == 0 {
		for _, s := range specs {
			if s.Name == name || s.Parent() == name {
				return s.Description
			}
		}
		return msgCommandNotFound
	}
	return strings.Join(parts, "\n\n")
}
