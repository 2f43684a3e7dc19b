// Package discover implements the discover command that runs a single
// discovery pass over the configured seed sources and enqueues new
// candidates.
package discover

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/ckerr6/talent-intelligence-complete-sub005/cmd/common"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/discovery"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
)

// Command returns the discover command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Run one discovery pass over the configured seeds",
		Long: `This command walks the configured organizations and repositories,
enqueues logins not yet known to the work queue, and optionally re-enqueues
identifiers whose signals have gone stale.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, deps)
		},
	}
}

func run(ctx context.Context, deps cmdcommon.CommandDeps) error {
	cfg := deps.Config.Discovery
	if len(cfg.Orgs) == 0 && len(cfg.Repos) == 0 && !cfg.RefreshStale {
		deps.Logger.Info("No discovery seeds configured. Add orgs or repos to your config file.")
		return nil
	}

	repos, err := cmdcommon.NewRepositories(deps.Config.Database, deps.Logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	client := github.NewClient(deps.Config.GitHub, deps.Logger)
	service := discovery.New(cfg, client, repos.WorkItems, repos.Entities, deps.Logger)

	enqueued, err := service.Run(ctx)
	if err != nil {
		return fmt.Errorf("discovery pass failed: %w", err)
	}

	deps.Logger.Info("Discovery pass finished", "enqueued", enqueued)
	return nil
}
