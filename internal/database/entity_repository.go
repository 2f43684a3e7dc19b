package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

// ErrEntityNotFound is returned when a lookup matches no entity.
var ErrEntityNotFound = errors.New("entity not found")

// entitySelectColumns lists columns for SELECT queries on entities (aliased as e).
const entitySelectColumns = `e.id, e.full_name, e.email, e.employer, e.location, e.bio,
	e.needs_review, e.created_at, e.updated_at`

// EntityRepository handles database operations for the entity registry.
type EntityRepository struct {
	db *sqlx.DB
}

// NewEntityRepository creates a new entity repository.
func NewEntityRepository(db *sqlx.DB) *EntityRepository {
	return &EntityRepository{db: db}
}

// GetByID returns the entity with the given id.
func (r *EntityRepository) GetByID(ctx context.Context, id string) (*domain.Entity, error) {
	query := `SELECT ` + entitySelectColumns + ` FROM entities e WHERE e.id = $1`

	var entity domain.Entity
	if err := r.db.GetContext(ctx, &entity, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to get entity: %w", err)
	}

	return &entity, nil
}

// FindByLogin returns the entity already linked to an external identifier,
// or ErrEntityNotFound. This backs the matcher's exact-link tier.
func (r *EntityRepository) FindByLogin(ctx context.Context, login string) (*domain.Entity, error) {
	query := `
		SELECT ` + entitySelectColumns + `
		FROM entities e
		JOIN entity_identifiers i ON i.entity_id = e.id
		WHERE i.login = $1
	`

	var entity domain.Entity
	if err := r.db.GetContext(ctx, &entity, query, login); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find entity by login: %w", err)
	}

	return &entity, nil
}

// FindByEmail returns the entity holding the given normalized email, or
// ErrEntityNotFound. This backs the verified-contact tier. Should duplicate
// entities ever share an email, the oldest one wins deterministically.
func (r *EntityRepository) FindByEmail(ctx context.Context, email string) (*domain.Entity, error) {
	query := `SELECT ` + entitySelectColumns + ` FROM entities e WHERE LOWER(e.email) = LOWER($1) AND e.email <> ''` +
		` ORDER BY e.created_at ASC, e.id ASC LIMIT 1`

	var entity domain.Entity
	if err := r.db.GetContext(ctx, &entity, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find entity by email: %w", err)
	}

	return &entity, nil
}

// FuzzyCandidates returns named entities sharing a corroborating context
// field (employer or location) with the incoming record. The fuzzy tier
// requires such corroboration, so this bounds the candidate set scanned for
// name similarity.
func (r *EntityRepository) FuzzyCandidates(ctx context.Context, employer, location string) ([]*domain.Entity, error) {
	query := `
		SELECT ` + entitySelectColumns + `
		FROM entities e
		WHERE e.full_name <> ''
		  AND (
			(e.employer <> '' AND LOWER(e.employer) = LOWER($1))
			OR (e.location <> '' AND LOWER(e.location) = LOWER($2))
		  )
	`

	var entities []*domain.Entity
	if err := r.db.SelectContext(ctx, &entities, query, employer, location); err != nil {
		return nil, fmt.Errorf("failed to select fuzzy candidates: %w", err)
	}

	return entities, nil
}

// Create inserts a new entity.
func (r *EntityRepository) Create(ctx context.Context, e *domain.Entity) error {
	query := `
		INSERT INTO entities (id, full_name, email, employer, location, bio, needs_review)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.FullName, e.Email, e.Employer, e.Location, e.Bio, e.NeedsReview)
	if err != nil {
		return fmt.Errorf("failed to create entity: %w", err)
	}

	return nil
}

// Update persists merged profile fields for an existing entity.
func (r *EntityRepository) Update(ctx context.Context, e *domain.Entity) error {
	query := `
		UPDATE entities
		SET full_name = $1,
			email = $2,
			employer = $3,
			location = $4,
			bio = $5,
			needs_review = $6,
			updated_at = NOW()
		WHERE id = $7
	`

	result, execErr := r.db.ExecContext(ctx, query,
		e.FullName, e.Email, e.Employer, e.Location, e.Bio, e.NeedsReview, e.ID)
	return execRequireRows(result, execErr, fmt.Errorf("entity not found: %s", e.ID))
}

// LinkIdentifier binds an external identifier to an entity. The unique
// constraint on login enforces the at-most-one-entity-per-identifier
// invariant; under a race the first writer wins and the canonical entity id
// is returned so the loser can converge on it.
func (r *EntityRepository) LinkIdentifier(ctx context.Context, login, source, entityID string) (string, error) {
	insert := `
		INSERT INTO entity_identifiers (login, source, entity_id, linked_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (login) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, insert, login, source, entityID); err != nil {
		return "", fmt.Errorf("failed to link identifier: %w", err)
	}

	var linkedID string
	if err := r.db.GetContext(ctx, &linkedID,
		`SELECT entity_id FROM entity_identifiers WHERE login = $1`, login); err != nil {
		return "", fmt.Errorf("failed to read identifier link: %w", err)
	}

	return linkedID, nil
}

// Identifiers returns all external identifiers linked to an entity.
func (r *EntityRepository) Identifiers(ctx context.Context, entityID string) ([]*domain.IdentifierLink, error) {
	query := `
		SELECT login, source, entity_id, linked_at
		FROM entity_identifiers
		WHERE entity_id = $1
		ORDER BY linked_at ASC
	`

	var links []*domain.IdentifierLink
	if err := r.db.SelectContext(ctx, &links, query, entityID); err != nil {
		return nil, fmt.Errorf("failed to list identifiers: %w", err)
	}

	if links == nil {
		links = []*domain.IdentifierLink{}
	}

	return links, nil
}

// StaleLogins returns linked identifiers whose latest signal is older than
// the cutoff (or that have no signal at all). Discovery re-enqueues them.
func (r *EntityRepository) StaleLogins(ctx context.Context, cutoffDays int, limit int) ([]string, error) {
	if limit <= 0 {
		limit = defaultWorkItemLimit
	}

	query := `
		SELECT i.login
		FROM entity_identifiers i
		LEFT JOIN signal_records s ON s.entity_id = i.entity_id AND s.login = i.login
		GROUP BY i.login
		HAVING COALESCE(MAX(s.fetched_at), 'epoch'::timestamptz) < NOW() - ($1 * INTERVAL '1 day')
		LIMIT $2
	`

	var logins []string
	if err := r.db.SelectContext(ctx, &logins, query, cutoffDays, limit); err != nil {
		return nil, fmt.Errorf("failed to select stale logins: %w", err)
	}

	return logins, nil
}

// EntityFilters represents filtering options for listing entities.
type EntityFilters struct {
	Search      string // name or email contains
	NeedsReview *bool
	Limit       int
	Offset      int
}

// List returns entities with pagination and filtering (for the query API).
func (r *EntityRepository) List(ctx context.Context, filters EntityFilters) ([]*domain.Entity, int, error) {
	where := ""
	args := []any{}
	argIndex := 1

	if filters.Search != "" {
		where = fmt.Sprintf("WHERE (e.full_name ILIKE $%d OR e.email ILIKE $%d)", argIndex, argIndex)
		args = append(args, "%"+filters.Search+"%")
		argIndex++
	}
	if filters.NeedsReview != nil {
		if where == "" {
			where = fmt.Sprintf("WHERE e.needs_review = $%d", argIndex)
		} else {
			where += fmt.Sprintf(" AND e.needs_review = $%d", argIndex)
		}
		args = append(args, *filters.NeedsReview)
		argIndex++
	}

	var count int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM entities e %s", where)
	if err := r.db.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count entities: %w", err)
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
		FROM entities e
		%s
		ORDER BY e.updated_at DESC
		LIMIT $%d OFFSET $%d
	`, entitySelectColumns, where, argIndex, argIndex+1)

	args = append(args, limit, offset)

	var entities []*domain.Entity
	if err := r.db.SelectContext(ctx, &entities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list entities: %w", err)
	}

	if entities == nil {
		entities = []*domain.Entity{}
	}

	return entities, count, nil
}
