package commands

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/bot"
	"github.com/maxinebot/maxine/pkg/maxine/commands"
	"github.com/maxinebot/maxine/pkg/maxine/config"
	"github.com/maxinebot/maxine/pkg/maxine/webapi"
)

func newCommandsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "commands",
		Short: "List the commands the bot registers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			d, err := commandTable(cfg)
			if err != nil {
				return err
			}
			return printCommands(cmd.OutOrStdout(), d.Specs())
		},
	}
}

// commandTable registers the commands without opening any backend. The
// handlers are never invoked.
func commandTable(cfg *config.Config) (*commands.Dispatcher, error) {
	endpoints := webapi.DefaultEndpoints()
	endpoints.SearxNG = cfg.SearxNGBaseURL

	d := commands.New(nil)
	err := bot.New(bot.Deps{Web: webapi.New(nil, endpoints)}).Register(d)
	return d, err
}

func printCommands(w io.Writer, specs []commands.Spec) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tCATEGORY\tOPTIONS\tDESCRIPTION")
	for _, s := range specs {
		name := s.Name
		if s.ContextMenu != "" {
			name += " [" + s.ContextMenu + "]"
		}
		var opts []string
		for _, o := range s.Options {
			if o.Required {
				opts = append(opts, "<"+o.Name+">")
			} else {
				opts = append(opts, "["+o.Name+"]")
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", name, s.Category, strings.Join(opts, " "), s.Description)
	}
	return tw.Flush()
}
