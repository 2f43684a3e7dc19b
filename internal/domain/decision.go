package domain

import "time"

// Match decision outcomes.
const (
	DecisionMatched        = "matched"
	DecisionCreated        = "created"
	DecisionCreatedFlagged = "created_flagged"
)

// Matching rule names, in tier order.
const (
	RuleExactIdentifier = "exact_identifier"
	RuleVerifiedContact = "verified_contact"
	RuleFuzzyName       = "fuzzy_name_context"
	RuleNoMatch         = "no_match"
)

// MatchDecision is the append-only audit record of one resolution attempt.
// Rows are never mutated; low-confidence merges are reviewed from here.
type MatchDecision struct {
	ID         string  `db:"id"         json:"id"`
	Login      string  `db:"login"      json:"login"`
	EntityID   string  `db:"entity_id"  json:"entity_id"`
	Outcome    string  `db:"outcome"    json:"outcome"`
	Rule       string  `db:"rule"       json:"rule"`
	Confidence float64 `db:"confidence" json:"confidence"`
	// Score is the raw similarity score for fuzzy matches; equals
	// Confidence for the exact tiers.
	Score     float64   `db:"score"      json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
