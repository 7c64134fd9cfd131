package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/database"
)

func newMigrateCmd() *cobra.Command {
	var (
		target int
		check  bool
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long: `Brings the prompt database schema up to date. serve and console migrate
automatically; this command is for deployments that migrate ahead of a release.

Examples:
  maxine migrate
  maxine migrate --check
  maxine migrate --to 1`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := resolveConfig(cmd)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)
			ctx := context.Background()

			backend, err := openBackend(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer backend.Close()

			current, err := backend.Migrator.CurrentVersion(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s schema at version %d (latest %d)\n", backend.Type, current, database.LatestVersion)
			if check {
				if current < database.LatestVersion {
					return fmt.Errorf("%d migration(s) pending", database.LatestVersion-current)
				}
				return nil
			}

			applied, err := backend.Migrator.Migrate(ctx, target)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "applied %d migration(s)\n", applied)
			return nil
		},
	}
	cmd.Flags().IntVar(&target, "to", 0, "migrate up to this version (default latest)")
	cmd.Flags().BoolVar(&check, "check", false, "only report whether migrations are pending")
	return cmd
}
