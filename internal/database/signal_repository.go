package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

// ErrSignalNotFound is returned when no signal record exists for a lookup.
var ErrSignalNotFound = errors.New("signal record not found")

// signalSelectColumns lists columns for SELECT queries on signal_records.
// The composite seniority/activity/reachability fields are flattened into
// scalar columns so they stay queryable without JSON operators.
const signalSelectColumns = `id, entity_id, login, source, external_id,
	skills, collaborators,
	seniority_level, seniority_confidence,
	events_per_week, activity_trend, activity_sample_size,
	has_email, has_website, hireable,
	full_name, email, employer, location, bio, fetched_at`

// SignalRepository handles database operations for the signal store.
type SignalRepository struct {
	db *sqlx.DB
}

// NewSignalRepository creates a new signal repository.
func NewSignalRepository(db *sqlx.DB) *SignalRepository {
	return &SignalRepository{db: db}
}

// Upsert stores a signal record, replacing any previous record for the same
// (entity, source) pair. The store keeps only the latest snapshot; history
// lives in the match decision log.
func (r *SignalRepository) Upsert(ctx context.Context, rec *domain.SignalRecord) error {
	query := `
		INSERT INTO signal_records (
			id, entity_id, login, source, external_id,
			skills, collaborators,
			seniority_level, seniority_confidence,
			events_per_week, activity_trend, activity_sample_size,
			has_email, has_website, hireable,
			full_name, email, employer, location, bio, fetched_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7,
			$8, $9,
			$10, $11, $12,
			$13, $14, $15,
			$16, $17, $18, $19, $20, $21
		)
		ON CONFLICT (entity_id, source) DO UPDATE SET
			login = EXCLUDED.login,
			external_id = EXCLUDED.external_id,
			skills = EXCLUDED.skills,
			collaborators = EXCLUDED.collaborators,
			seniority_level = EXCLUDED.seniority_level,
			seniority_confidence = EXCLUDED.seniority_confidence,
			events_per_week = EXCLUDED.events_per_week,
			activity_trend = EXCLUDED.activity_trend,
			activity_sample_size = EXCLUDED.activity_sample_size,
			has_email = EXCLUDED.has_email,
			has_website = EXCLUDED.has_website,
			hireable = EXCLUDED.hireable,
			full_name = EXCLUDED.full_name,
			email = EXCLUDED.email,
			employer = EXCLUDED.employer,
			location = EXCLUDED.location,
			bio = EXCLUDED.bio,
			fetched_at = EXCLUDED.fetched_at
	`

	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.EntityID, rec.Login, rec.Source, rec.ExternalID,
		rec.Skills, rec.Collaborators,
		rec.Seniority.Level, rec.Seniority.Confidence,
		rec.Activity.EventsPerWeek, rec.Activity.Trend, rec.Activity.SampleSize,
		rec.Reachability.HasEmail, rec.Reachability.HasWebsite, rec.Reachability.Hireable,
		rec.FullName, rec.Email, rec.Employer, rec.Location, rec.Bio, rec.FetchedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert signal record: %w", err)
	}

	return nil
}

// GetByEntity returns the latest signal record for an entity and source.
func (r *SignalRepository) GetByEntity(ctx context.Context, entityID, source string) (*domain.SignalRecord, error) {
	query := `SELECT ` + signalSelectColumns + ` FROM signal_records WHERE entity_id = $1 AND source = $2`

	row := r.db.QueryRowxContext(ctx, query, entityID, source)
	rec, err := scanSignalRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSignalNotFound
		}
		return nil, fmt.Errorf("failed to get signal record: %w", err)
	}

	return rec, nil
}

// ListByEntity returns all signal records for an entity across sources.
func (r *SignalRepository) ListByEntity(ctx context.Context, entityID string) ([]*domain.SignalRecord, error) {
	query := `SELECT ` + signalSelectColumns + ` FROM signal_records WHERE entity_id = $1 ORDER BY fetched_at DESC`

	rows, err := r.db.QueryxContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list signal records: %w", err)
	}
	defer rows.Close()

	records := []*domain.SignalRecord{}
	for rows.Next() {
		rec, scanErr := scanSignalRecord(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan signal record: %w", scanErr)
		}
		records = append(records, rec)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate signal records: %w", rowsErr)
	}

	return records, nil
}

// rowScanner abstracts Row and Rows for scanSignalRecord.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSignalRecord reassembles a SignalRecord from its flattened columns.
func scanSignalRecord(row rowScanner) (*domain.SignalRecord, error) {
	var rec domain.SignalRecord
	err := row.Scan(
		&rec.ID, &rec.EntityID, &rec.Login, &rec.Source, &rec.ExternalID,
		&rec.Skills, &rec.Collaborators,
		&rec.Seniority.Level, &rec.Seniority.Confidence,
		&rec.Activity.EventsPerWeek, &rec.Activity.Trend, &rec.Activity.SampleSize,
		&rec.Reachability.HasEmail, &rec.Reachability.HasWebsite, &rec.Reachability.Hireable,
		&rec.FullName, &rec.Email, &rec.Employer, &rec.Location, &rec.Bio, &rec.FetchedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}
