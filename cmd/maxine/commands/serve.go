package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/maxinebot/maxine/pkg/maxine/channels/discord"
	"github.com/maxinebot/maxine/pkg/maxine/scheduler"
)

// minStaleMediaAge is the youngest save work directory the sweep removes.
const minStaleMediaAge = 2 * time.Hour

// staleMediaAge keeps the sweep away from saves that may still be running.
// With no request timeout a save is unbounded, so nothing is swept then.
func staleMediaAge(requestTimeout time.Duration) (time.Duration, bool) {
	if requestTimeout <= 0 {
		return 0, false
	}
	return max(minStaleMediaAge, 2*requestTimeout), true
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Connect to Discord and serve commands",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, path, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := newLogger(cmd, cfg)
	if path != "" {
		logger.Info("configuration loaded", "path", path)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := newDispatcher(cfg, logger)
	dc := discord.New(discord.Config{
		Token:           cfg.Bot.Token,
		Nickname:        cfg.Bot.Nickname,
		Status:          cfg.Bot.Status,
		Prefix:          cfg.Bot.Prefix,
		GuildID:         cfg.Bot.GuildID,
		TwitterEmbedURL: cfg.TwitterEmbedURL,
	}, d, logger)

	a, err := newApp(ctx, cfg, logger, d, dc.Roles())
	if err != nil {
		return err
	}
	defer a.Close()

	logger.Info("commands registered", "count", len(d.Specs()))

	if err := dc.Connect(ctx); err != nil {
		return err
	}

	sched := scheduler.New(logger)
	tempDir := cfg.Media.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	jobs := []*scheduler.Job{scheduler.PresenceJob(cfg.Scheduler.Presence, dc)}
	if age, ok := staleMediaAge(cfg.Bot.RequestTimeout); ok {
		jobs = append(jobs, scheduler.SweepJob(cfg.Scheduler.Sweep, tempDir, age, logger))
	} else {
		logger.Warn("media sweep disabled: bot.request_timeout is 0")
	}
	for _, job := range jobs {
		if err := sched.Add(job); err != nil {
			dc.Disconnect()
			return err
		}
	}
	sched.Start(ctx)

	logger.Info("maxine is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		logger.Info("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	cancel()
	sched.Stop()
	if dc.IsConnected() {
		if err := dc.Disconnect(); err != nil {
			logger.Warn("discord disconnect failed", "error", err)
		}
	}
	logger.Info("maxine stopped")
	return nil
}
