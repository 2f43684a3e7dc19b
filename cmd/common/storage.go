package common

import (
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// Repositories bundles the Postgres-backed stores the commands wire together.
type Repositories struct {
	DB        *sqlx.DB
	WorkItems *database.WorkItemRepository
	Entities  *database.EntityRepository
	Signals   *database.SignalRepository
	Decisions *database.DecisionRepository
}

// NewRepositories opens the database connection and constructs all
// repositories. Callers own the connection and should defer Close.
func NewRepositories(cfg config.DatabaseConfig, log logger.Interface) (*Repositories, error) {
	db, err := database.NewPostgresConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	log.Debug("Database connection established", "host", cfg.Host, "dbname", cfg.DBName)

	return &Repositories{
		DB:        db,
		WorkItems: database.NewWorkItemRepository(db),
		Entities:  database.NewEntityRepository(db),
		Signals:   database.NewSignalRepository(db),
		Decisions: database.NewDecisionRepository(db),
	}, nil
}

// Close releases the underlying database connection.
func (r *Repositories) Close() error {
	return r.DB.Close()
}
