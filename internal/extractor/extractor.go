// Package extractor transforms raw fetched payloads into normalized signal
// records. Everything here is pure: no network, no persistence, deterministic
// output for a given payload.
package extractor

import (
	"errors"
	"sort"
	"strings"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
)

// ErrMissingExternalID is returned when the payload lacks the stable external
// id or login the matcher requires. Extraction cannot degrade past this.
var ErrMissingExternalID = errors.New("payload missing external id")

const (
	// maxSkills caps the ranked skill list.
	maxSkills = 10
	// starBoost converts one star into volume-equivalent weight.
	starBoost = 10.0
	// forkPenalty discounts forked repos, which mostly reflect others' work.
	forkPenalty = 0.25
)

// Extract derives a signal record from one fetched profile. Mandatory fields
// (external id, login) fail loudly; optional signals degrade to their zero
// values.
func Extract(p *github.Profile) (*domain.SignalRecord, error) {
	if p == nil || p.User.ID == 0 || p.User.Login == "" {
		return nil, ErrMissingExternalID
	}

	return &domain.SignalRecord{
		Login:         p.User.Login,
		Source:        domain.SignalSourceGitHub,
		ExternalID:    p.User.ID,
		Skills:        rankSkills(p.Repos),
		Seniority:     estimateSeniority(p),
		Activity:      classifyActivity(p),
		Collaborators: collaborators(p),
		Reachability: domain.Reachability{
			HasEmail:   p.User.Email != "",
			HasWebsite: p.User.Blog != "",
			Hireable:   p.User.Hireable,
		},
		FullName: strings.TrimSpace(p.User.Name),
		Email:    strings.ToLower(strings.TrimSpace(p.User.Email)),
		Employer: normalizeEmployer(p.User.Company),
		Location: strings.TrimSpace(p.User.Location),
		Bio:      strings.TrimSpace(p.User.Bio),

		FetchedAt: p.FetchedAt,
	}, nil
}

// rankSkills aggregates authored volume per language. Stars add weight, forks
// are discounted, and scores are normalized so the top skill is 1.0.
func rankSkills(repos []github.Repo) domain.SkillList {
	weights := make(map[string]float64)
	for _, repo := range repos {
		if repo.Language == "" {
			continue
		}
		w := float64(repo.Size) + starBoost*float64(repo.Stargazers)
		if repo.Fork {
			w *= forkPenalty
		}
		weights[repo.Language] += w
	}

	skills := make(domain.SkillList, 0, len(weights))
	var top float64
	for name, w := range weights {
		if w <= 0 {
			continue
		}
		skills = append(skills, domain.Skill{Name: name, Score: w})
		if w > top {
			top = w
		}
	}

	sort.Slice(skills, func(i, j int) bool {
		if skills[i].Score != skills[j].Score {
			return skills[i].Score > skills[j].Score
		}
		return skills[i].Name < skills[j].Name
	})

	if len(skills) > maxSkills {
		skills = skills[:maxSkills]
	}
	for i := range skills {
		skills[i].Score /= top
	}

	return skills
}

// collaborators derives network edges from event repos: the distinct owners
// of repositories the profile recently acted on, excluding the profile
// itself.
func collaborators(p *github.Profile) domain.StringSlice {
	seen := make(map[string]bool)
	var out domain.StringSlice
	self := strings.ToLower(p.User.Login)

	for _, ev := range p.Events {
		owner, _, found := strings.Cut(ev.Repo.Name, "/")
		if !found || owner == "" {
			continue
		}
		key := strings.ToLower(owner)
		if key == self || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, owner)
	}

	sort.Strings(out)
	return out
}

// normalizeEmployer strips the leading @ the source uses for org handles.
func normalizeEmployer(company string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(company), "@"))
}
