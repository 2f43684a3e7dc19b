package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

// decisionSelectColumns lists columns for SELECT queries on match_decisions.
const decisionSelectColumns = `id, login, entity_id, outcome, rule, confidence, score, created_at`

// DecisionRepository handles database operations for the append-only match
// decision log. Rows are inserted and read, never updated or deleted.
type DecisionRepository struct {
	db *sqlx.DB
}

// NewDecisionRepository creates a new decision repository.
func NewDecisionRepository(db *sqlx.DB) *DecisionRepository {
	return &DecisionRepository{db: db}
}

// Record appends one resolution decision.
func (r *DecisionRepository) Record(ctx context.Context, d *domain.MatchDecision) error {
	query := `
		INSERT INTO match_decisions (id, login, entity_id, outcome, rule, confidence, score, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	`

	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.Login, d.EntityID, d.Outcome, d.Rule, d.Confidence, d.Score)
	if err != nil {
		return fmt.Errorf("failed to record match decision: %w", err)
	}

	return nil
}

// ListByLogin returns the decision history for an identifier, newest first.
func (r *DecisionRepository) ListByLogin(ctx context.Context, login string, limit int) ([]*domain.MatchDecision, error) {
	return r.list(ctx, "login = $1", login, limit)
}

// ListByEntity returns the decision history for an entity, newest first.
func (r *DecisionRepository) ListByEntity(ctx context.Context, entityID string, limit int) ([]*domain.MatchDecision, error) {
	return r.list(ctx, "entity_id = $1", entityID, limit)
}

func (r *DecisionRepository) list(ctx context.Context, cond, arg string, limit int) ([]*domain.MatchDecision, error) {
	if limit <= 0 {
		limit = defaultWorkItemLimit
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM match_decisions
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $2
	`, decisionSelectColumns, cond)

	var decisions []*domain.MatchDecision
	if err := r.db.SelectContext(ctx, &decisions, query, arg, limit); err != nil {
		return nil, fmt.Errorf("failed to list match decisions: %w", err)
	}

	if decisions == nil {
		decisions = []*domain.MatchDecision{}
	}

	return decisions, nil
}
