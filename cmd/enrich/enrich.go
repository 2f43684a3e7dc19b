// Package enrich implements the enrich command that runs the enrichment
// pipeline end to end: claiming queued logins, fetching their profiles,
// extracting signals, and resolving them against the entity registry.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/ckerr6/talent-intelligence-complete-sub005/cmd/common"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/discovery"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/matcher"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/metrics"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/pipeline"
)

// Command returns the enrich command for use in the root command.
func Command() *cobra.Command {
	var (
		mode  string
		count int
	)

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Run the enrichment pipeline",
		Long: `This command runs the enrichment pipeline in one of three modes:

  bounded     process up to --count items, then exit
  catchup     drain the queue, then exit
  continuous  run until interrupted, refilling the queue on a schedule

The --mode flag overrides the mode from the configuration file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			if mode != "" {
				deps.Config.Pipeline.Mode = mode
				if validateErr := deps.Config.Validate(); validateErr != nil {
					return validateErr
				}
			}
			if deps.Config.Pipeline.Mode == config.ModeBounded && count < 1 {
				return errors.New("bounded mode requires --count to be at least 1")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return run(ctx, deps, count)
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "run mode: bounded, catchup, or continuous")
	cmd.Flags().IntVar(&count, "count", 0, "item budget for bounded mode")

	return cmd
}

// run wires the pipeline components and executes one run.
func run(ctx context.Context, deps cmdcommon.CommandDeps, count int) error {
	repos, err := cmdcommon.NewRepositories(deps.Config.Database, deps.Logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	client := github.NewClient(deps.Config.GitHub, deps.Logger)
	resolver := matcher.New(repos.Entities, repos.Decisions, deps.Config.Pipeline.MatchThreshold, deps.Logger)
	discoverer := discovery.New(deps.Config.Discovery, client, repos.WorkItems, repos.Entities, deps.Logger)
	m := metrics.New()

	orchestrator := pipeline.New(
		deps.Config.Pipeline,
		repos.WorkItems,
		client,
		resolver,
		repos.Signals,
		discoverer,
		m,
		deps.Logger,
	)

	deps.Logger.Info("Starting enrichment run",
		"mode", deps.Config.Pipeline.Mode,
		"max_concurrency", deps.Config.Pipeline.MaxConcurrency)

	if runErr := orchestrator.Run(ctx, count); runErr != nil {
		return fmt.Errorf("enrichment run failed: %w", runErr)
	}

	snap := m.Snapshot()
	deps.Logger.Info("Enrichment run finished",
		"processed", snap.Processed,
		"completed", snap.Completed,
		"failed", snap.Failed,
		"entities_matched", snap.EntitiesMatched,
		"entities_created", snap.EntitiesCreated)

	return nil
}
