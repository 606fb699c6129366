// Package main is the entry point for the aoe2bot CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"aoe2bot/internal/bot"
	"aoe2bot/internal/config"
	"aoe2bot/internal/fileid"
	"aoe2bot/internal/library"
	"aoe2bot/internal/web"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "aoe2bot",
		Short:         "Telegram bot serving Age of Empires II sound clips",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(runCmd(), serviceCmd(), versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("aoe2bot %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bot in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				cfgPath = config.ResolvePath()
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := config.Validate(cfg); err != nil {
				return err
			}
			return run(cfg)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

// run wires the library, caches, sidecar, and bot together and blocks
// until SIGINT/SIGTERM.
func run(cfg *config.Config) error {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lib := library.New(filepath.Join(cfg.DataDir, "audio"))

	urls := make([]string, 0, len(cfg.Archives))
	for _, a := range cfg.Archives {
		urls = append(urls, a.URL)
	}
	if err := lib.Ensure(ctx, logger, urls); err != nil {
		return err
	}

	ids, err := fileid.Open(filepath.Join(cfg.DataDir, "fileid.db"))
	if err != nil {
		return err
	}
	defer func() { _ = ids.Close() }()

	if cfg.Listen != "" {
		srv := web.New(cfg.Listen, lib, logger)
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() { _ = srv.Stop(context.Background()) }()
	}

	b, err := bot.New(cfg.Token, lib, ids, logger)
	if err != nil {
		return fmt.Errorf("connecting to Telegram: %w", err)
	}

	return b.Run(ctx)
}
