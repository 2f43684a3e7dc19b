// Package matcher resolves external identifiers to internal entities through
// ordered, confidence-scored rules. Every resolution appends a match decision
// to the audit log, whether it matched or created.
package matcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// EntityStore is the registry surface the matcher needs.
type EntityStore interface {
	GetByID(ctx context.Context, id string) (*domain.Entity, error)
	FindByLogin(ctx context.Context, login string) (*domain.Entity, error)
	FindByEmail(ctx context.Context, email string) (*domain.Entity, error)
	FuzzyCandidates(ctx context.Context, employer, location string) ([]*domain.Entity, error)
	Create(ctx context.Context, e *domain.Entity) error
	Update(ctx context.Context, e *domain.Entity) error
	LinkIdentifier(ctx context.Context, login, source, entityID string) (string, error)
}

// DecisionStore appends resolution decisions.
type DecisionStore interface {
	Record(ctx context.Context, d *domain.MatchDecision) error
}

// Matcher applies the matching tiers and serializes concurrent resolutions of
// the same identifier.
type Matcher struct {
	entities  EntityStore
	decisions DecisionStore
	rules     []rule
	logger    logger.Interface

	// locks serializes resolutions per identifier so two near-simultaneous
	// first sightings cannot both create an entity for the same login.
	// Entries are refcounted and removed on release so the map does not
	// grow with every login ever resolved.
	locksMu sync.Mutex
	locks   map[string]*loginLock
}

// loginLock is one per-identifier lock with a holder/waiter count.
type loginLock struct {
	mu   sync.Mutex
	refs int
}

// New creates a matcher with the standard tier order.
func New(entities EntityStore, decisions DecisionStore, threshold float64, log logger.Interface) *Matcher {
	return &Matcher{
		entities:  entities,
		decisions: decisions,
		rules: []rule{
			&exactIdentifierRule{store: entities},
			&verifiedContactRule{store: entities},
			&fuzzyNameRule{store: entities, threshold: threshold},
		},
		logger: log.WithComponent("matcher"),
		locks:  make(map[string]*loginLock),
	}
}

// Resolve maps a signal record to an entity, creating one when no tier
// matches, and records the decision. Resolving the same (login, payload)
// twice converges on the same entity via the exact identifier tier.
func (m *Matcher) Resolve(ctx context.Context, rec *domain.SignalRecord, login string) (*domain.Entity, *domain.MatchDecision, error) {
	unlock := m.lockLogin(login)
	defer unlock()

	for _, r := range m.rules {
		result, err := r.apply(ctx, rec, login)
		if err != nil {
			return nil, nil, err
		}
		if result == nil {
			continue
		}
		if result.tie {
			m.logger.Warn("ambiguous fuzzy match, deferring to review",
				"login", login,
				"score", result.score)
			return m.createEntity(ctx, rec, login, result.score, true)
		}
		return m.matchEntity(ctx, rec, login, r.name(), result)
	}

	return m.createEntity(ctx, rec, login, 0, false)
}

// matchEntity links, merges, and records a decision for a matched entity.
func (m *Matcher) matchEntity(
	ctx context.Context,
	rec *domain.SignalRecord,
	login, ruleName string,
	result *ruleResult,
) (*domain.Entity, *domain.MatchDecision, error) {
	entity := result.entity

	linkedID, err := m.entities.LinkIdentifier(ctx, login, rec.Source, entity.ID)
	if err != nil {
		return nil, nil, err
	}
	if linkedID != entity.ID {
		// Another writer linked this login first; converge on its entity.
		canonical, getErr := m.entities.GetByID(ctx, linkedID)
		if getErr != nil {
			return nil, nil, fmt.Errorf("reading canonical entity: %w", getErr)
		}
		entity = canonical
	}

	if mergeFields(entity, rec, m.logger) {
		if updateErr := m.entities.Update(ctx, entity); updateErr != nil {
			return nil, nil, updateErr
		}
	}

	decision, err := m.record(ctx, login, entity.ID, domain.DecisionMatched, ruleName, result.confidence, result.score)
	if err != nil {
		return nil, nil, err
	}

	m.logger.Info("matched identifier to entity",
		"login", login,
		"entity_id", entity.ID,
		"rule", ruleName,
		"confidence", result.confidence)

	return entity, decision, nil
}

// createEntity seeds a new entity from the record. flagged marks ambiguous
// fuzzy ties for manual review.
func (m *Matcher) createEntity(
	ctx context.Context,
	rec *domain.SignalRecord,
	login string,
	score float64,
	flagged bool,
) (*domain.Entity, *domain.MatchDecision, error) {
	entity := &domain.Entity{
		ID:          uuid.NewString(),
		FullName:    rec.FullName,
		Email:       rec.Email,
		Employer:    rec.Employer,
		Location:    rec.Location,
		Bio:         rec.Bio,
		NeedsReview: flagged,
	}

	if err := m.entities.Create(ctx, entity); err != nil {
		return nil, nil, err
	}

	linkedID, err := m.entities.LinkIdentifier(ctx, login, rec.Source, entity.ID)
	if err != nil {
		return nil, nil, err
	}
	if linkedID != entity.ID {
		canonical, getErr := m.entities.GetByID(ctx, linkedID)
		if getErr != nil {
			return nil, nil, fmt.Errorf("reading canonical entity: %w", getErr)
		}
		entity = canonical
	}

	outcome := domain.DecisionCreated
	if flagged {
		outcome = domain.DecisionCreatedFlagged
	}

	decision, err := m.record(ctx, login, entity.ID, outcome, domain.RuleNoMatch, 0, score)
	if err != nil {
		return nil, nil, err
	}

	m.logger.Info("created entity for identifier",
		"login", login,
		"entity_id", entity.ID,
		"needs_review", flagged)

	return entity, decision, nil
}

// record appends one decision row.
func (m *Matcher) record(
	ctx context.Context,
	login, entityID, outcome, ruleName string,
	confidence, score float64,
) (*domain.MatchDecision, error) {
	decision := &domain.MatchDecision{
		ID:         uuid.NewString(),
		Login:      login,
		EntityID:   entityID,
		Outcome:    outcome,
		Rule:       ruleName,
		Confidence: confidence,
		Score:      score,
	}

	if err := m.decisions.Record(ctx, decision); err != nil {
		return nil, fmt.Errorf("recording match decision: %w", err)
	}

	return decision, nil
}

// lockLogin acquires the per-identifier lock and returns its release func.
// The last releaser drops the map entry.
func (m *Matcher) lockLogin(login string) func() {
	m.locksMu.Lock()
	lock, ok := m.locks[login]
	if !ok {
		lock = &loginLock{}
		m.locks[login] = lock
	}
	lock.refs++
	m.locksMu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()

		m.locksMu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(m.locks, login)
		}
		m.locksMu.Unlock()
	}
}
