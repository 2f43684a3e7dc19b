package extractor

import (
	"time"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
)

// Activity windows and guards. The trend compares the recent window's event
// rate against the window before it; too few events in both windows means no
// trend is claimed.
const (
	activityWindow = 90 * 24 * time.Hour
	// minTrendSample is the minimum events across both windows before a
	// growing/stable/declining call is made.
	minTrendSample = 10

	growingRatio   = 1.25
	decliningRatio = 0.75

	weeksPerWindow = 90.0 / 7.0
)

// classifyActivity computes cadence and trend relative to the fetch time, so
// the result is deterministic for a given payload.
func classifyActivity(p *github.Profile) domain.Activity {
	recentStart := p.FetchedAt.Add(-activityWindow)
	priorStart := p.FetchedAt.Add(-2 * activityWindow)

	var recent, prior int
	for _, ev := range p.Events {
		switch {
		case !ev.CreatedAt.Before(recentStart) && !ev.CreatedAt.After(p.FetchedAt):
			recent++
		case !ev.CreatedAt.Before(priorStart) && ev.CreatedAt.Before(recentStart):
			prior++
		}
	}

	sample := recent + prior
	activity := domain.Activity{
		EventsPerWeek: float64(recent) / weeksPerWindow,
		SampleSize:    sample,
	}

	if sample < minTrendSample {
		activity.Trend = domain.TrendInsufficientData
		return activity
	}

	activity.Trend = trendFor(recent, prior)
	return activity
}

// trendFor classifies the recent-to-prior ratio.
func trendFor(recent, prior int) string {
	if prior == 0 {
		if recent > 0 {
			return domain.TrendGrowing
		}
		return domain.TrendStable
	}

	ratio := float64(recent) / float64(prior)
	switch {
	case ratio >= growingRatio:
		return domain.TrendGrowing
	case ratio <= decliningRatio:
		return domain.TrendDeclining
	default:
		return domain.TrendStable
	}
}
