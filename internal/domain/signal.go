package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Seniority levels, ordered ascending. Ties in the seniority estimate break
// toward the lower level.
const (
	SeniorityJunior    = "junior"
	SeniorityMid       = "mid"
	SenioritySenior    = "senior"
	SeniorityPrincipal = "principal"
)

// Activity trend classifications.
const (
	TrendGrowing          = "growing"
	TrendStable           = "stable"
	TrendDeclining        = "declining"
	TrendInsufficientData = "insufficient_data"
)

// SignalSourceGitHub identifies signals derived from the GitHub API.
const SignalSourceGitHub = "github"

// Skill is one ranked skill with its weighted score.
type Skill struct {
	Name  string  `json:"name"`
	Score float64 `json:"score"`
}

// Seniority is a discrete level estimate with a confidence in [0,1].
type Seniority struct {
	Level      string  `json:"level"`
	Confidence float64 `json:"confidence"`
}

// Activity captures cadence and trend of public output.
type Activity struct {
	// EventsPerWeek is the recent-window event rate.
	EventsPerWeek float64 `json:"events_per_week"`
	Trend         string  `json:"trend"`
	SampleSize    int     `json:"sample_size"`
}

// Reachability flags contact surfaces present on the profile.
type Reachability struct {
	HasEmail   bool `json:"has_email"`
	HasWebsite bool `json:"has_website"`
	Hireable   bool `json:"hireable"`
}

// SignalRecord is the normalized enrichment output for one fetch of one
// identifier. The store keeps the latest record per (entity, source).
type SignalRecord struct {
	ID       string `db:"id"        json:"id"`
	EntityID string `db:"entity_id" json:"entity_id"`
	Login    string `db:"login"     json:"login"`
	Source   string `db:"source"    json:"source"`

	// ExternalID is the source's stable numeric id for the profile.
	// Mandatory: extraction fails without it.
	ExternalID int64 `db:"external_id" json:"external_id"`

	Skills        SkillList    `db:"skills"        json:"skills"`
	Seniority     Seniority    `db:"-"             json:"seniority"`
	Activity      Activity     `db:"-"             json:"activity"`
	Collaborators StringSlice  `db:"collaborators" json:"collaborators"`
	Reachability  Reachability `db:"-"             json:"reachability"`

	// Profile fields carried for matching and entity merge.
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email"     json:"email"`
	Employer string `db:"employer"  json:"employer"`
	Location string `db:"location"  json:"location"`
	Bio      string `db:"bio"       json:"bio"`

	FetchedAt time.Time `db:"fetched_at" json:"fetched_at"`
}

// SkillList is a JSONB-backed ranked skill list.
type SkillList []Skill

// Scan implements sql.Scanner for JSONB skill columns.
func (s *SkillList) Scan(value any) error {
	return scanJSON(value, s)
}

// Value implements driver.Valuer.
func (s SkillList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// StringSlice is a JSONB-backed string list.
type StringSlice []string

// Scan implements sql.Scanner.
func (s *StringSlice) Scan(value any) error {
	return scanJSON(value, s)
}

// Value implements driver.Valuer.
func (s StringSlice) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// scanJSON handles the string/[]byte duality of JSONB scans.
func scanJSON(value, dest any) error {
	if value == nil {
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for JSONB scan")
	}

	if len(data) == 0 {
		return nil
	}

	return json.Unmarshal(data, dest)
}
