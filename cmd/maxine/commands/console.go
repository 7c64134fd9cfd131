package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/commands"
)

// consoleUser is the caller for commands typed into the console.
var consoleUser = commands.UserRef{ID: "console", Username: "console", DisplayName: "Console"}

func newConsoleCmd() *cobra.Command {
	var saveDir string
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run commands locally without connecting to Discord",
		Long: `Starts an interactive prompt that dispatches commands through the same
handlers the bot uses. Type a command without the prefix, e.g. "8ball will it rain?".
Attachments are written to --save-dir. Type "help" for the command list and
"exit" to quit.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(false); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			logger := newLogger(cmd, cfg)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			d := newDispatcher(cfg, logger)
			a, err := newApp(ctx, cfg, logger, d, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			return runConsole(ctx, d, saveDir)
		},
	}
	cmd.Flags().StringVar(&saveDir, "save-dir", ".", "directory attachments are written to")
	return cmd
}

func runConsole(ctx context.Context, d *commands.Dispatcher, saveDir string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "maxine> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".maxine_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    completer(d),
	})
	if err != nil {
		return fmt.Errorf("console: %w", err)
	}
	defer rl.Close()

	out := rl.Stdout()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}

		name, raw := d.ParseLine(line)
		inv := commands.Invocation{
			Name:      name,
			Options:   raw,
			Caller:    commands.Caller{User: consoleUser},
			Responder: &textResponder{w: out, saveDir: saveDir},
		}
		if _, err := d.Dispatch(ctx, inv); err != nil {
			fmt.Fprintf(out, "(%v)\n", err)
		}
	}
}

// completer offers every registered command name.
func completer(d *commands.Dispatcher) readline.AutoCompleter {
	var items []readline.PrefixCompleterInterface
	for _, spec := range d.Specs() {
		items = append(items, readline.PcItem(spec.Name))
	}
	return readline.NewPrefixCompleter(items...)
}

// textResponder prints replies to a terminal.
type textResponder struct {
	w       io.Writer
	saveDir string
}

func (r *textResponder) Defer(context.Context) error {
	fmt.Fprintln(r.w, "Maxine is thinking...")
	return nil
}

func (r *textResponder) Respond(_ context.Context, reply *commands.Reply) error {
	renderReply(r.w, reply)
	for _, f := range reply.Files {
		path := filepath.Join(r.saveDir, filepath.Base(f.Name))
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			return fmt.Errorf("console: writing %s: %w", path, err)
		}
		fmt.Fprintf(r.w, "saved %s\n", path)
	}
	return nil
}

// renderReply writes reply as plain text. Files are listed, not written.
func renderReply(w io.Writer, reply *commands.Reply) {
	if reply == nil {
		return
	}
	if reply.Content != "" {
		fmt.Fprintln(w, reply.Content)
	}
	for _, e := range reply.Embeds {
		if e.Title != "" {
			fmt.Fprintf(w, "== %s ==\n", e.Title)
		}
		if e.Description != "" {
			fmt.Fprintln(w, e.Description)
		}
		for _, f := range e.Fields {
			fmt.Fprintf(w, "%s:\n%s\n", f.Name, indent(f.Value))
		}
		if e.ImageURL != "" {
			fmt.Fprintf(w, "[image] %s\n", e.ImageURL)
		}
		if e.Footer != "" {
			fmt.Fprintf(w, "-- %s\n", e.Footer)
		}
	}
	for _, f := range reply.Files {
		fmt.Fprintf(w, "[file] %s (%s, %s)\n", f.Name, f.ContentType, humanize.IBytes(uint64(len(f.Data))))
	}
}

func indent(s string) string {
	return "  " + strings.ReplaceAll(s, "\n", "\n  ")
}
