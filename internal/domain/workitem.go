package domain

import "time"

// WorkItem status constants.
const (
	WorkItemStatusPending    = "pending"
	WorkItemStatusInProgress = "in_progress"
	WorkItemStatusCompleted  = "completed"
	WorkItemStatusFailed     = "failed"
)

// Candidate source constants.
const (
	CandidateSourceOrg     = "org"
	CandidateSourceRepo    = "repo"
	CandidateSourceRefresh = "refresh"
	CandidateSourceManual  = "manual"
)

// Priority bounds and defaults.
const (
	WorkItemMinPriority     = 1
	WorkItemMaxPriority     = 10
	WorkItemDefaultPriority = 5
)

// Priority bonuses applied by discovery ranking.
const (
	ContactSignalBonus = 3
	EmployerBonus      = 2
	PopularityBonus    = 1
)

// Candidate is an external identifier discovered from a seed, waiting to be
// enqueued. Immutable once produced.
type Candidate struct {
	Login        string    `json:"login"`
	Source       string    `json:"source"`
	Priority     int       `json:"priority"`
	DiscoveredAt time.Time `json:"discovered_at"`
}

// WorkItem tracks one identifier's processing lifecycle in the queue.
type WorkItem struct {
	ID       string `db:"id"       json:"id"`
	Login    string `db:"login"    json:"login"`
	Source   string `db:"source"   json:"source"`
	Priority int    `db:"priority" json:"priority"`
	Status   string `db:"status"   json:"status"`

	Attempts      int        `db:"attempts"        json:"attempts"`
	LastError     *string    `db:"last_error"      json:"last_error,omitempty"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`

	EnqueuedAt time.Time `db:"enqueued_at" json:"enqueued_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}
