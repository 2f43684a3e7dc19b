package extractor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
)

var fetchedAt = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func baseProfile() *github.Profile {
	return &github.Profile{
		User: github.UserProfile{
			ID:        583231,
			Login:     "octocat",
			Name:      " Mona Lisa Octocat ",
			Email:     "Mona@GitHub.com",
			Company:   "@GitHub",
			Location:  "San Francisco",
			Blog:      "https://octocat.dev",
			Hireable:  true,
			Followers: 120,
			CreatedAt: fetchedAt.AddDate(-6, 0, 0),
		},
		FetchedAt: fetchedAt,
	}
}

func TestExtract_MissingExternalIDFailsLoudly(t *testing.T) {
	p := baseProfile()
	p.User.ID = 0

	_, err := Extract(p)
	require.ErrorIs(t, err, ErrMissingExternalID)

	p = baseProfile()
	p.User.Login = ""

	_, err = Extract(p)
	require.ErrorIs(t, err, ErrMissingExternalID)
}

func TestExtract_NormalizesProfileFields(t *testing.T) {
	rec, err := Extract(baseProfile())
	require.NoError(t, err)

	assert.Equal(t, "octocat", rec.Login)
	assert.Equal(t, domain.SignalSourceGitHub, rec.Source)
	assert.Equal(t, int64(583231), rec.ExternalID)
	assert.Equal(t, "Mona Lisa Octocat", rec.FullName)
	assert.Equal(t, "mona@github.com", rec.Email)
	assert.Equal(t, "GitHub", rec.Employer, "leading @ must be stripped")
	assert.Equal(t, fetchedAt, rec.FetchedAt)
}

func TestExtract_OptionalSignalsDegrade(t *testing.T) {
	p := baseProfile()
	p.User.Name = ""
	p.User.Email = ""
	p.User.Blog = ""
	p.User.Hireable = false

	rec, err := Extract(p)
	require.NoError(t, err)

	assert.Empty(t, rec.FullName)
	assert.Empty(t, rec.Skills)
	assert.Empty(t, rec.Collaborators)
	assert.False(t, rec.Reachability.HasEmail)
	assert.False(t, rec.Reachability.HasWebsite)
	assert.Equal(t, domain.TrendInsufficientData, rec.Activity.Trend)
}

func TestExtract_Reachability(t *testing.T) {
	rec, err := Extract(baseProfile())
	require.NoError(t, err)

	assert.True(t, rec.Reachability.HasEmail)
	assert.True(t, rec.Reachability.HasWebsite)
	assert.True(t, rec.Reachability.Hireable)
}

func TestRankSkills_WeightsVolumeAndStars(t *testing.T) {
	p := baseProfile()
	p.Repos = []github.Repo{
		{Name: "big-go", Language: "Go", Size: 5000, Stargazers: 200},
		{Name: "small-go", Language: "Go", Size: 300},
		{Name: "scripts", Language: "Python", Size: 800, Stargazers: 5},
		{Name: "forked-rails", Language: "Ruby", Size: 90000, Fork: true},
		{Name: "dotfiles", Language: ""},
	}

	rec, err := Extract(p)
	require.NoError(t, err)
	require.NotEmpty(t, rec.Skills)

	assert.Equal(t, "Ruby", rec.Skills[0].Name,
		"even discounted, a very large fork outweighs the rest")
	assert.InDelta(t, 1.0, rec.Skills[0].Score, 1e-9, "top skill normalizes to 1.0")

	assert.Equal(t, "Go", rec.Skills[1].Name)
	assert.Greater(t, rec.Skills[1].Score, rec.Skills[2].Score)
	assert.Equal(t, "Python", rec.Skills[2].Name)
}

func TestRankSkills_ForkPenalty(t *testing.T) {
	p := baseProfile()
	p.Repos = []github.Repo{
		{Name: "authored", Language: "Go", Size: 1000},
		{Name: "forked", Language: "Rust", Size: 1000, Fork: true},
	}

	rec, err := Extract(p)
	require.NoError(t, err)
	require.Len(t, rec.Skills, 2)

	assert.Equal(t, "Go", rec.Skills[0].Name)
	assert.InDelta(t, forkPenalty, rec.Skills[1].Score, 1e-9)
}

func TestCollaborators_DistinctOwnersExcludingSelf(t *testing.T) {
	p := baseProfile()
	p.Events = []github.Event{
		eventFor("acme/widget", fetchedAt),
		eventFor("acme/gadget", fetchedAt),
		eventFor("Octocat/hello-world", fetchedAt),
		eventFor("umbrella/core", fetchedAt),
	}

	rec, err := Extract(p)
	require.NoError(t, err)

	assert.Equal(t, domain.StringSlice{"acme", "umbrella"}, rec.Collaborators)
}

func TestEstimateSeniority_VeteranScoresAboveNewcomer(t *testing.T) {
	veteran := baseProfile()
	veteran.User.Followers = 600
	veteran.Repos = manyAuthoredRepos(45)

	newcomer := baseProfile()
	newcomer.User.CreatedAt = fetchedAt.AddDate(0, -6, 0)
	newcomer.User.Followers = 2
	newcomer.Repos = manyAuthoredRepos(2)

	vRec, err := Extract(veteran)
	require.NoError(t, err)
	nRec, err := Extract(newcomer)
	require.NoError(t, err)

	assert.Equal(t, domain.SeniorityPrincipal, vRec.Seniority.Level)
	assert.Equal(t, domain.SeniorityJunior, nRec.Seniority.Level)
	assert.Greater(t, vRec.Seniority.Confidence, nRec.Seniority.Confidence)
}

func TestLevelFor_TiesBreakToLowerLevel(t *testing.T) {
	assert.Equal(t, domain.SeniorityJunior, levelFor(midBoundary))
	assert.Equal(t, domain.SeniorityMid, levelFor(seniorBoundary))
	assert.Equal(t, domain.SenioritySenior, levelFor(principalBoundary))
	assert.Equal(t, domain.SeniorityPrincipal, levelFor(principalBoundary+0.01))
}

func TestClassifyActivity_Growing(t *testing.T) {
	p := baseProfile()
	p.Events = appendEvents(nil, 20, fetchedAt.Add(-10*24*time.Hour))
	p.Events = appendEvents(p.Events, 5, fetchedAt.Add(-120*24*time.Hour))

	rec, err := Extract(p)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendGrowing, rec.Activity.Trend)
	assert.Equal(t, 25, rec.Activity.SampleSize)
	assert.InDelta(t, 20/(90.0/7.0), rec.Activity.EventsPerWeek, 1e-9)
}

func TestClassifyActivity_Declining(t *testing.T) {
	p := baseProfile()
	p.Events = appendEvents(nil, 4, fetchedAt.Add(-10*24*time.Hour))
	p.Events = appendEvents(p.Events, 20, fetchedAt.Add(-120*24*time.Hour))

	rec, err := Extract(p)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendDeclining, rec.Activity.Trend)
}

func TestClassifyActivity_Stable(t *testing.T) {
	p := baseProfile()
	p.Events = appendEvents(nil, 10, fetchedAt.Add(-10*24*time.Hour))
	p.Events = appendEvents(p.Events, 10, fetchedAt.Add(-120*24*time.Hour))

	rec, err := Extract(p)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendStable, rec.Activity.Trend)
}

func TestClassifyActivity_InsufficientSampleNeverGuesses(t *testing.T) {
	p := baseProfile()
	p.Events = appendEvents(nil, 9, fetchedAt.Add(-10*24*time.Hour))

	rec, err := Extract(p)
	require.NoError(t, err)

	assert.Equal(t, domain.TrendInsufficientData, rec.Activity.Trend)
	assert.Equal(t, 9, rec.Activity.SampleSize)
}

func eventFor(repo string, at time.Time) github.Event {
	ev := github.Event{Type: "PushEvent", CreatedAt: at}
	ev.Repo.Name = repo
	return ev
}

func appendEvents(events []github.Event, n int, at time.Time) []github.Event {
	for i := 0; i < n; i++ {
		events = append(events, eventFor("acme/widget", at))
	}
	return events
}

func manyAuthoredRepos(n int) []github.Repo {
	repos := make([]github.Repo, n)
	for i := range repos {
		repos[i] = github.Repo{Name: "repo", Language: "Go", Size: 500, Stargazers: 60}
	}
	return repos
}
