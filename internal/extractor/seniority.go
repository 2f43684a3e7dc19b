package extractor

import (
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
)

// Seniority scoring weights and saturation points. The composite score is a
// weighted blend of tenure, leadership signals, and output volume, each
// saturating at a value past which more of the signal says little.
const (
	tenureWeight     = 0.4
	leadershipWeight = 0.35
	volumeWeight     = 0.25

	tenureSaturationYears  = 10.0
	followerSaturation     = 500.0
	authoredRepoSaturation = 40.0

	// popularRepoStars marks a repo as a leadership signal.
	popularRepoStars = 50

	hoursPerYear = 24 * 365
)

// Level boundaries on the composite score. A score landing exactly on a
// boundary stays in the lower level (conservative bias).
const (
	midBoundary       = 0.25
	seniorBoundary    = 0.5
	principalBoundary = 0.75
)

// estimateSeniority derives a discrete level with a confidence reflecting how
// much evidence backed the estimate.
func estimateSeniority(p *github.Profile) domain.Seniority {
	tenure := clamp01(tenureYears(p) / tenureSaturationYears)

	leadership := clamp01(float64(p.User.Followers) / followerSaturation)
	if popular := popularRepoCount(p.Repos); popular > 0 {
		leadership = clamp01(leadership + 0.1*float64(popular))
	}

	authored := authoredRepoCount(p.Repos)
	volume := clamp01(float64(authored) / authoredRepoSaturation)

	score := tenureWeight*tenure + leadershipWeight*leadership + volumeWeight*volume

	return domain.Seniority{
		Level:      levelFor(score),
		Confidence: seniorityConfidence(p, authored),
	}
}

// levelFor maps the composite score to a level, ties toward the lower one.
func levelFor(score float64) string {
	switch {
	case score <= midBoundary:
		return domain.SeniorityJunior
	case score <= seniorBoundary:
		return domain.SeniorityMid
	case score <= principalBoundary:
		return domain.SenioritySenior
	default:
		return domain.SeniorityPrincipal
	}
}

// seniorityConfidence grows with the amount of evidence available, not with
// the score itself.
func seniorityConfidence(p *github.Profile, authored int) float64 {
	confidence := 0.3
	if !p.User.CreatedAt.IsZero() {
		confidence += 0.2
	}
	if authored >= 5 {
		confidence += 0.2
	}
	if len(p.Events) >= 20 {
		confidence += 0.2
	}
	if p.User.Followers > 0 {
		confidence += 0.1
	}
	return clamp01(confidence)
}

// tenureYears measures account age at fetch time.
func tenureYears(p *github.Profile) float64 {
	if p.User.CreatedAt.IsZero() || !p.FetchedAt.After(p.User.CreatedAt) {
		return 0
	}
	return p.FetchedAt.Sub(p.User.CreatedAt).Hours() / hoursPerYear
}

func authoredRepoCount(repos []github.Repo) int {
	n := 0
	for _, r := range repos {
		if !r.Fork {
			n++
		}
	}
	return n
}

func popularRepoCount(repos []github.Repo) int {
	n := 0
	for _, r := range repos {
		if !r.Fork && r.Stargazers >= popularRepoStars {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
