package domain

import "time"

// Entity is the internal, de-duplicated identity record. It accumulates
// signal records over time from one or more external identifiers and is never
// deleted by the pipeline.
type Entity struct {
	ID string `db:"id" json:"id"`

	// Merged profile fields. Merge semantics never replace a populated
	// field with a different populated value (see matcher.MergeFields).
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email"     json:"email"`
	Employer string `db:"employer"  json:"employer"`
	Location string `db:"location"  json:"location"`
	Bio      string `db:"bio"       json:"bio"`

	// NeedsReview marks entities created from ambiguous fuzzy ties that
	// were deferred to manual review instead of guessing.
	NeedsReview bool `db:"needs_review" json:"needs_review"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// IdentifierLink binds one external identifier to exactly one entity.
type IdentifierLink struct {
	Login    string    `db:"login"     json:"login"`
	Source   string    `db:"source"    json:"source"`
	EntityID string    `db:"entity_id" json:"entity_id"`
	LinkedAt time.Time `db:"linked_at" json:"linked_at"`
}
