package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"timedtext/internal/live"
	"timedtext/internal/logging"
	"timedtext/internal/transcript"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <id> <file>",
		Short: "Append new words from a live transcript file until interrupted",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := filepath.Abs(args[1])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			return ctx.withSession(cmd, args[0], true, func(run docRun) error {
				runCtx, stop := signal.NotifyContext(run.ctx, os.Interrupt, syscall.SIGTERM)
				defer stop()

				out := cmd.OutOrStdout()
				handler := func(ctx context.Context, ps []transcript.Paragraph) error {
					if err := run.session.Append(ctx, ps); err != nil {
						return err
					}
					for _, p := range ps {
						fmt.Fprintf(out, "%s: %s\n", p.Speaker, p.Text)
					}
					return nil
				}
				follower, err := live.New(path, live.OptionsFromConfig(cfg), handler, logging.WithContext(run.ctx, ctx.logger))
				if err != nil {
					return err
				}
				follower.Seed(run.session.Base())
				follower.Seed(run.session.Snapshot())

				fmt.Fprintf(out, "Watching %s; press Ctrl+C to stop\n", path)
				if err := follower.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
					return err
				}
				return nil
			})
		},
	}
}
