// Package status implements the status command that displays queue depth
// and recent failures in a formatted table.
package status

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	cmdcommon "github.com/ckerr6/talent-intelligence-complete-sub005/cmd/common"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

const defaultFailureListLimit = 10

// Command returns the status command for use in the root command.
func Command() *cobra.Command {
	var showFailures bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show work queue depth and recent failures",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := cmdcommon.NewCommandDeps(cmd)
			if err != nil {
				return fmt.Errorf("failed to initialize dependencies: %w", err)
			}

			repos, err := cmdcommon.NewRepositories(deps.Config.Database, deps.Logger)
			if err != nil {
				return err
			}
			defer repos.Close()

			return run(cmd.Context(), repos, showFailures)
		},
	}

	cmd.Flags().BoolVar(&showFailures, "failures", false, "list the most recent failed items")

	return cmd
}

func run(ctx context.Context, repos *cmdcommon.Repositories, showFailures bool) error {
	stats, err := repos.WorkItems.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read queue stats: %w", err)
	}

	renderStats(stats)

	if !showFailures {
		return nil
	}

	failed, _, err := repos.WorkItems.List(ctx, database.WorkItemFilters{
		Status: domain.WorkItemStatusFailed,
		Limit:  defaultFailureListLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to list failed items: %w", err)
	}
	renderFailures(failed)

	return nil
}

func renderStats(stats *database.QueueStats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Pending", "In Progress", "Completed", "Failed"})
	t.AppendRow(table.Row{
		stats.TotalPending,
		stats.TotalInProgress,
		stats.TotalCompleted,
		stats.TotalFailed,
	})
	t.Render()
}

func renderFailures(items []*domain.WorkItem) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	t.AppendHeader(table.Row{"Login", "Source", "Attempts", "Last Error"})
	for _, item := range items {
		lastError := ""
		if item.LastError != nil {
			lastError = *item.LastError
		}
		t.AppendRow(table.Row{item.Login, item.Source, item.Attempts, lastError})
	}
	t.Render()
}
