package matcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

// fuzzyConfidenceCap bounds tier-3 confidence below the exact tiers.
const fuzzyConfidenceCap = 0.95

// ruleResult is one tier's verdict. A nil result means the tier does not
// apply and evaluation moves to the next one.
type ruleResult struct {
	entity     *domain.Entity
	confidence float64
	// score is the raw similarity for the fuzzy tier; equals confidence
	// elsewhere.
	score float64
	// tie marks an exact tie between top fuzzy candidates; the resolver
	// defers to manual review instead of guessing.
	tie bool
}

// rule is one matching tier. Rules are evaluated in priority order and the
// first hit wins.
type rule interface {
	name() string
	apply(ctx context.Context, rec *domain.SignalRecord, login string) (*ruleResult, error)
}

// exactIdentifierRule matches a login already linked to an entity.
type exactIdentifierRule struct {
	store EntityStore
}

func (r *exactIdentifierRule) name() string { return domain.RuleExactIdentifier }

func (r *exactIdentifierRule) apply(ctx context.Context, _ *domain.SignalRecord, login string) (*ruleResult, error) {
	entity, err := r.store.FindByLogin(ctx, login)
	if errors.Is(err, database.ErrEntityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("exact identifier lookup: %w", err)
	}
	return &ruleResult{entity: entity, confidence: 1.0, score: 1.0}, nil
}

// verifiedContactRule matches on normalized email equality.
type verifiedContactRule struct {
	store EntityStore
}

func (r *verifiedContactRule) name() string { return domain.RuleVerifiedContact }

func (r *verifiedContactRule) apply(ctx context.Context, rec *domain.SignalRecord, _ string) (*ruleResult, error) {
	if rec.Email == "" {
		return nil, nil
	}

	entity, err := r.store.FindByEmail(ctx, rec.Email)
	if errors.Is(err, database.ErrEntityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("verified contact lookup: %w", err)
	}
	return &ruleResult{entity: entity, confidence: 1.0, score: 1.0}, nil
}

// fuzzyNameRule matches on name similarity above a threshold plus at least
// one corroborating context field (employer or location).
type fuzzyNameRule struct {
	store     EntityStore
	threshold float64
}

func (r *fuzzyNameRule) name() string { return domain.RuleFuzzyName }

func (r *fuzzyNameRule) apply(ctx context.Context, rec *domain.SignalRecord, _ string) (*ruleResult, error) {
	if rec.FullName == "" || (rec.Employer == "" && rec.Location == "") {
		return nil, nil
	}

	candidates, err := r.store.FuzzyCandidates(ctx, rec.Employer, rec.Location)
	if err != nil {
		return nil, fmt.Errorf("fuzzy candidate lookup: %w", err)
	}

	var best *domain.Entity
	var bestScore float64
	tie := false

	for _, candidate := range candidates {
		score := Similarity(rec.FullName, candidate.FullName)
		if score < r.threshold {
			continue
		}
		switch {
		case best == nil || score > bestScore:
			best, bestScore, tie = candidate, score, false
		case score == bestScore && candidate.ID != best.ID:
			tie = true
		}
	}

	if best == nil {
		return nil, nil
	}
	if tie {
		return &ruleResult{score: bestScore, tie: true}, nil
	}

	confidence := bestScore
	if confidence > fuzzyConfidenceCap {
		confidence = fuzzyConfidenceCap
	}
	return &ruleResult{entity: best, confidence: confidence, score: bestScore}, nil
}
