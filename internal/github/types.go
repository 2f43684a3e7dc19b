package github

import "time"

// UserProfile is the decoded /users/{login} response.
type UserProfile struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Company   string    `json:"company"`
	Location  string    `json:"location"`
	Bio       string    `json:"bio"`
	Blog      string    `json:"blog"`
	Hireable  bool      `json:"hireable"`
	Followers int       `json:"followers"`
	CreatedAt time.Time `json:"created_at"`
}

// Repo is one repository owned by the profile.
type Repo struct {
	Name       string     `json:"name"`
	Language   string     `json:"language"`
	Stargazers int        `json:"stargazers_count"`
	Fork       bool       `json:"fork"`
	Size       int        `json:"size"`
	PushedAt   *time.Time `json:"pushed_at"`
}

// Event is one public activity event.
type Event struct {
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	Repo      struct {
		Name string `json:"name"`
	} `json:"repo"`
}

// orgMember is the subset of a member listing we consume.
type orgMember struct {
	Login string `json:"login"`
}

// contributor is the subset of a contributor listing we consume.
type contributor struct {
	Login         string `json:"login"`
	Contributions int    `json:"contributions"`
	Type          string `json:"type"`
}

// Profile bundles everything fetched for one login in a single logical fetch.
type Profile struct {
	User      UserProfile
	Repos     []Repo
	Events    []Event
	FetchedAt time.Time
}
