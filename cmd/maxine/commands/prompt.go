package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/prompts"
)

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Inspect and edit users' custom system prompts",
		Long: `Reads and writes the per-user system prompts that ask uses.

Examples:
  maxine prompt get 123456789012345678
  maxine prompt set 123456789012345678 "Answer like a pirate."
  maxine prompt delete 123456789012345678`,
	}
	cmd.AddCommand(newPromptGetCmd(), newPromptSetCmd(), newPromptDeleteCmd())
	return cmd
}

// withPrompts opens the prompt store for the duration of fn.
func withPrompts(cmd *cobra.Command, fn func(ctx context.Context, store *prompts.Store) error) error {
	cfg, _, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg)
	ctx := context.Background()

	backend, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer backend.Close()
	return fn(ctx, prompts.NewStore(backend))
}

func newPromptGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <user-id>",
		Short: "Show a user's prompt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrompts(cmd, func(ctx context.Context, store *prompts.Store) error {
				rec, err := store.Get(ctx, args[0])
				if errors.Is(err, prompts.ErrNotFound) {
					fmt.Fprintf(cmd.OutOrStdout(), "user %s has no custom prompt\n", args[0])
					return nil
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\n(updated %s)\n", rec.Prompt, rec.UpdatedAt.Format("2006-01-02 15:04:05"))
				return nil
			})
		},
	}
}

func newPromptSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <user-id> <prompt...>",
		Short: "Replace a user's prompt",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt := strings.Join(args[1:], " ")
			return withPrompts(cmd, func(ctx context.Context, store *prompts.Store) error {
				if err := store.Upsert(ctx, args[0], prompt); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "prompt for %s updated\n", args[0])
				return nil
			})
		},
	}
}

func newPromptDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <user-id>",
		Short: "Remove a user's prompt so ask uses the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withPrompts(cmd, func(ctx context.Context, store *prompts.Store) error {
				removed, err := store.Delete(ctx, args[0])
				if err != nil {
					return err
				}
				if !removed {
					fmt.Fprintf(cmd.OutOrStdout(), "user %s has no custom prompt\n", args[0])
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "prompt for %s removed\n", args[0])
				return nil
			})
		},
	}
}
