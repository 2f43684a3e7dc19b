// Package serve implements the serve command that runs the operational HTTP
// API: queue inspection, entity lookups, the match decision log, and run
// metrics.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	cmdcommon "github.com/ckerr6/talent-intelligence-complete-sub005/cmd/common"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/api"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/metrics"
)

const errorChannelBufferSize = 1

// Command returns the serve command for use in the root command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the operational HTTP API",
		Long: `This command starts the HTTP server exposing the work queue, the entity
registry, and match decisions. It runs until interrupted and shuts down
gracefully on SIGINT or SIGTERM.`,
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
	repos, err := cmdcommon.NewRepositories(deps.Config.Database, deps.Logger)
	if err != nil {
		return err
	}
	defer repos.Close()

	router := api.SetupRouter(deps.Logger, api.Handlers{
		Queue:     api.NewQueueHandler(repos.WorkItems, deps.Logger),
		Entities:  api.NewEntityHandler(repos.Entities, repos.Signals, deps.Logger),
		Decisions: api.NewDecisionHandler(repos.Decisions),
		// No fetcher runs in this process, so there is no quota to report.
		Status: api.NewStatusHandler(metrics.New(), nil),
	})

	server := api.NewServer(deps.Config.Server, router)

	errChan := make(chan error, errorChannelBufferSize)
	go func() {
		deps.Logger.Info("HTTP server starting", "address", server.Addr)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case serveErr := <-errChan:
		return fmt.Errorf("server error: %w", serveErr)
	case <-ctx.Done():
		deps.Logger.Info("Shutdown signal received")
		if shutdownErr := api.Shutdown(server, deps.Config.Server.WriteTimeout); shutdownErr != nil {
			return fmt.Errorf("server shutdown: %w", shutdownErr)
		}
		deps.Logger.Info("Server stopped")
		return nil
	}
}
