package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/maxinebot/maxine/pkg/maxine/config"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage secrets in the OS keyring",
		Long: `Stores the Discord bot token (or, with --llm, the LLM API key) in the OS
keyring so it never has to be written to the config file. Keyring entries
take precedence over MAXINE_BOT_TOKEN and the config file.

Examples:
  maxine token set
  echo "$TOKEN" | maxine token set
  maxine token set --llm
  maxine token delete`,
	}
	cmd.PersistentFlags().Bool("llm", false, "manage the LLM API key instead of the bot token")
	cmd.AddCommand(newTokenSetCmd(), newTokenDeleteCmd())
	return cmd
}

func tokenKey(cmd *cobra.Command) (key, label string) {
	if llm, _ := cmd.Flags().GetBool("llm"); llm {
		return config.KeyringLLMAPIKey, "LLM API key"
	}
	return config.KeyringBotToken, "bot token"
}

func newTokenSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Store a secret in the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, label := tokenKey(cmd)
			value, err := readSecret(cmd.ErrOrStderr(), "Enter "+label+": ")
			if err != nil {
				return err
			}
			if value == "" {
				return errors.New("empty value, nothing stored")
			}
			if err := config.StoreSecret(key, value); err != nil {
				return fmt.Errorf("storing %s in keyring: %w", label, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s stored in keyring\n", label)
			return nil
		},
	}
}

func newTokenDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete",
		Short: "Remove a secret from the keyring",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, label := tokenKey(cmd)
			if err := config.DeleteSecret(key); err != nil {
				return fmt.Errorf("deleting %s from keyring: %w", label, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s removed from keyring\n", label)
			return nil
		},
	}
}

// readSecret reads a line without echo when stdin is a terminal, and from
// the pipe otherwise.
func readSecret(prompt io.Writer, label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Fprint(prompt, label)
		b, err := term.ReadPassword(fd)
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("reading input: %w", err)
		}
		return strings.TrimSpace(string(b)), nil
	}
	return readLine(os.Stdin)
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
