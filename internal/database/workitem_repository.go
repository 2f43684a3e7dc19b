package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

// ErrNoItemAvailable is returned when Claim finds no claimable work items.
// Callers should check with errors.Is().
var ErrNoItemAvailable = errors.New("no work item available")

// Work item query constants.
const (
	defaultWorkItemLimit  = 50
	defaultWorkItemSortBy = "priority"

	// workItemSelectColumns lists columns for SELECT queries on work_items (aliased as w).
	workItemSelectColumns = `w.id, w.login, w.source, w.priority, w.status,
		w.attempts, w.last_error, w.last_attempt_at, w.enqueued_at, w.updated_at`
)

// WorkItemRepository handles database operations for the work queue.
type WorkItemRepository struct {
	db *sqlx.DB
}

// NewWorkItemRepository creates a new work item repository.
func NewWorkItemRepository(db *sqlx.DB) *WorkItemRepository {
	return &WorkItemRepository{db: db}
}

// Enqueue upserts a work item for an identifier. On conflict (same login),
// priority is raised to the higher value, but only while the item is still
// pending (completed/failed items are not re-queued here). Exactly one row
// per identifier is preserved by the unique constraint on login.
func (r *WorkItemRepository) Enqueue(ctx context.Context, c domain.Candidate) error {
	query := `
		INSERT INTO work_items (id, login, source, priority, status, enqueued_at)
		VALUES (gen_random_uuid(), $1, $2, $3, 'pending', NOW())
		ON CONFLICT (login) DO UPDATE SET
			priority = GREATEST(work_items.priority, EXCLUDED.priority),
			updated_at = NOW()
		WHERE work_items.status = 'pending'
	`

	_, err := r.db.ExecContext(ctx, query, c.Login, c.Source, c.Priority)
	if err != nil {
		return fmt.Errorf("failed to enqueue work item: %w", err)
	}

	return nil
}

// Requeue upserts a work item for an identifier that may already have run to
// a terminal state, resetting it for a fresh pass. In-progress items are left
// alone. Used by discovery's stale refresh.
func (r *WorkItemRepository) Requeue(ctx context.Context, c domain.Candidate) error {
	query := `
		INSERT INTO work_items (id, login, source, priority, status, enqueued_at)
		VALUES (gen_random_uuid(), $1, $2, $3, 'pending', NOW())
		ON CONFLICT (login) DO UPDATE SET
			source = EXCLUDED.source,
			priority = EXCLUDED.priority,
			status = 'pending',
			attempts = 0,
			last_error = NULL,
			enqueued_at = NOW(),
			updated_at = NOW()
		WHERE work_items.status <> 'in_progress'
	`

	_, err := r.db.ExecContext(ctx, query, c.Login, c.Source, c.Priority)
	if err != nil {
		return fmt.Errorf("failed to requeue work item: %w", err)
	}

	return nil
}

// Claim selects and locks up to maxBatch claimable items ordered by priority
// descending, then by enqueue time ascending, and atomically transitions
// them to in_progress. FOR UPDATE SKIP LOCKED guarantees no two concurrent
// calls return the same item. Returns ErrNoItemAvailable when the queue is
// drained.
func (r *WorkItemRepository) Claim(ctx context.Context, maxBatch int) ([]*domain.WorkItem, error) {
	if maxBatch < 1 {
		maxBatch = 1
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin claim transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	items, selectErr := claimSelect(ctx, tx, maxBatch)
	if selectErr != nil {
		return nil, selectErr
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}

	if updateErr := claimUpdateStatus(ctx, tx, ids); updateErr != nil {
		return nil, updateErr
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return nil, fmt.Errorf("failed to commit claim transaction: %w", commitErr)
	}

	for _, item := range items {
		item.Status = domain.WorkItemStatusInProgress
	}
	return items, nil
}

// claimSelect selects and locks claimable items within a transaction.
func claimSelect(ctx context.Context, tx *sqlx.Tx, maxBatch int) ([]*domain.WorkItem, error) {
	query := `
		SELECT ` + workItemSelectColumns + `
		FROM work_items w
		WHERE w.status = 'pending'
		ORDER BY w.priority DESC, w.enqueued_at ASC
		LIMIT $1
		FOR UPDATE OF w SKIP LOCKED
	`

	var items []*domain.WorkItem
	if err := tx.SelectContext(ctx, &items, query, maxBatch); err != nil {
		return nil, fmt.Errorf("failed to select claimable items: %w", err)
	}

	if len(items) == 0 {
		return nil, ErrNoItemAvailable
	}

	return items, nil
}

// claimUpdateStatus transitions the claimed items to in_progress within a transaction.
func claimUpdateStatus(ctx context.Context, tx *sqlx.Tx, ids []string) error {
	query, args, err := sqlx.In(
		`UPDATE work_items SET status = 'in_progress', last_attempt_at = NOW(), updated_at = NOW() WHERE id IN (?)`,
		ids,
	)
	if err != nil {
		return fmt.Errorf("failed to build claim update: %w", err)
	}

	if _, execErr := tx.ExecContext(ctx, tx.Rebind(query), args...); execErr != nil {
		return fmt.Errorf("failed to update claimed item status: %w", execErr)
	}

	return nil
}

// Complete marks a work item as completed. The update is a single durable
// statement so progress survives a crash immediately after it.
func (r *WorkItemRepository) Complete(ctx context.Context, id string) error {
	query := `
		UPDATE work_items
		SET status = 'completed',
			last_error = NULL,
			updated_at = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`

	result, execErr := r.db.ExecContext(ctx, query, id)
	return execRequireRows(result, execErr, fmt.Errorf("work item not in progress: %s", id))
}

// Fail increments the attempt count and records the error verbatim. The item
// returns to pending while attempts remain below retryCeiling; at the
// ceiling, or when terminal is true (permanent external errors), it is marked
// failed and excluded from scheduling.
func (r *WorkItemRepository) Fail(ctx context.Context, id, lastError string, retryCeiling int, terminal bool) error {
	query := `
		UPDATE work_items
		SET attempts = attempts + 1,
			last_error = $1,
			status = CASE
				WHEN $2 OR attempts + 1 >= $3 THEN 'failed'
				ELSE 'pending'
			END,
			updated_at = NOW()
		WHERE id = $4 AND status = 'in_progress'
	`

	result, execErr := r.db.ExecContext(ctx, query, lastError, terminal, retryCeiling, id)
	return execRequireRows(result, execErr, fmt.Errorf("work item not in progress: %s", id))
}

// RecoverStale resets items left in_progress by a prior crash back to
// pending. Called once on startup before any claims; the process is the
// queue's single writer, so everything in_progress at that point is stale.
func (r *WorkItemRepository) RecoverStale(ctx context.Context) (int64, error) {
	query := `
		UPDATE work_items
		SET status = 'pending', updated_at = NOW()
		WHERE status = 'in_progress'
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to recover stale items: %w", err)
	}

	n, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, affectedErr
	}

	return n, nil
}

// Exists reports whether a work item already exists for the login. Discovery
// uses this to avoid re-enqueueing identifiers that already ran to a
// terminal state.
func (r *WorkItemRepository) Exists(ctx context.Context, login string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM work_items WHERE login = $1)`

	if err := r.db.GetContext(ctx, &exists, query, login); err != nil {
		return false, fmt.Errorf("failed to check work item existence: %w", err)
	}

	return exists, nil
}

// WorkItemFilters represents filtering options for listing work items.
type WorkItemFilters struct {
	Status string
	Source string
	Search string // login contains
	SortBy string
	Limit  int
	Offset int
}

// List returns work items with pagination and filtering (for the ops API).
func (r *WorkItemRepository) List(ctx context.Context, filters WorkItemFilters) ([]*domain.WorkItem, int, error) {
	whereClause, args := buildWorkItemWhere(filters)

	count, countErr := r.countWorkItems(ctx, whereClause, args)
	if countErr != nil {
		return nil, 0, countErr
	}

	items, listErr := r.selectWorkItems(ctx, filters, whereClause, args)
	if listErr != nil {
		return nil, 0, listErr
	}

	return items, count, nil
}

// buildWorkItemWhere builds the WHERE clause and args for work item queries.
func buildWorkItemWhere(filters WorkItemFilters) (whereClause string, args []any) {
	var conditions []string
	args = []any{}
	argIndex := 1

	if filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filters.Status)
		argIndex++
	}

	if filters.Source != "" {
		conditions = append(conditions, fmt.Sprintf("source = $%d", argIndex))
		args = append(args, filters.Source)
		argIndex++
	}

	if filters.Search != "" {
		conditions = append(conditions, fmt.Sprintf("login ILIKE $%d", argIndex))
		args = append(args, "%"+filters.Search+"%")
	}

	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}
	return whereClause, args
}

// countWorkItems returns the total count of work items matching the WHERE clause.
func (r *WorkItemRepository) countWorkItems(ctx context.Context, whereClause string, args []any) (int, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM work_items %s", whereClause)

	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count work items: %w", err)
	}

	return count, nil
}

// selectWorkItems returns work items with sorting and pagination.
func (r *WorkItemRepository) selectWorkItems(
	ctx context.Context,
	filters WorkItemFilters,
	whereClause string,
	args []any,
) ([]*domain.WorkItem, error) {
	argIndex := len(args) + 1

	sortBy := filters.SortBy
	if sortBy != defaultWorkItemSortBy && sortBy != "enqueued_at" && sortBy != "updated_at" {
		sortBy = defaultWorkItemSortBy
	}

	limit := filters.Limit
	if limit <= 0 {
		limit = defaultWorkItemLimit
	}
	offset := filters.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM work_items w
		%s
		ORDER BY %s DESC
		LIMIT $%d OFFSET $%d
	`, workItemSelectColumns, whereClause, sortBy, argIndex, argIndex+1)

	args = append(args, limit, offset)

	var items []*domain.WorkItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list work items: %w", err)
	}

	if items == nil {
		items = []*domain.WorkItem{}
	}

	return items, nil
}

// QueueStats contains aggregate counts by status for the work queue.
type QueueStats struct {
	TotalPending    int `json:"total_pending"`
	TotalInProgress int `json:"total_in_progress"`
	TotalCompleted  int `json:"total_completed"`
	TotalFailed     int `json:"total_failed"`
}

// Stats returns aggregate counts of work items grouped by status.
func (r *WorkItemRepository) Stats(ctx context.Context) (*QueueStats, error) {
	query := `SELECT status, COUNT(*) FROM work_items GROUP BY status`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query queue stats: %w", err)
	}
	defer rows.Close()

	stats := &QueueStats{}
	for rows.Next() {
		var status string
		var count int
		if scanErr := rows.Scan(&status, &count); scanErr != nil {
			return nil, fmt.Errorf("failed to scan queue stats row: %w", scanErr)
		}
		assignStatCount(stats, status, count)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate queue stats: %w", rowsErr)
	}

	return stats, nil
}

// assignStatCount assigns a count to the appropriate QueueStats field by status.
func assignStatCount(stats *QueueStats, status string, count int) {
	switch status {
	case domain.WorkItemStatusPending:
		stats.TotalPending = count
	case domain.WorkItemStatusInProgress:
		stats.TotalInProgress = count
	case domain.WorkItemStatusCompleted:
		stats.TotalCompleted = count
	case domain.WorkItemStatusFailed:
		stats.TotalFailed = count
	}
}
