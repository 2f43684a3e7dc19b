package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// fakeQueue records enqueued candidates and simulates known logins.
type fakeQueue struct {
	known     map[string]bool
	enqueued  []domain.Candidate
	requeued  []domain.Candidate
	existsErr error
}

func newFakeQueue(known ...string) *fakeQueue {
	q := &fakeQueue{known: make(map[string]bool)}
	for _, login := range known {
		q.known[login] = true
	}
	return q
}

func (q *fakeQueue) Enqueue(_ context.Context, c domain.Candidate) error {
	q.enqueued = append(q.enqueued, c)
	q.known[c.Login] = true
	return nil
}

func (q *fakeQueue) Requeue(_ context.Context, c domain.Candidate) error {
	q.requeued = append(q.requeued, c)
	q.known[c.Login] = true
	return nil
}

func (q *fakeQueue) Exists(_ context.Context, login string) (bool, error) {
	if q.existsErr != nil {
		return false, q.existsErr
	}
	return q.known[login], nil
}

// fakeLister serves canned member and contributor listings.
type fakeLister struct {
	members      map[string][]string
	contributors map[string][]string
	err          error
}

func (l *fakeLister) ListOrgMembers(_ context.Context, org string) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.members[org], nil
}

func (l *fakeLister) ListRepoContributors(_ context.Context, owner, repo string) ([]string, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.contributors[owner+"/"+repo], nil
}

// fakeStale serves canned stale logins.
type fakeStale struct {
	logins []string
}

func (s *fakeStale) StaleLogins(_ context.Context, _, _ int) ([]string, error) {
	return s.logins, nil
}

func TestRun_OrgMembersGetEmployerBonus(t *testing.T) {
	queue := newFakeQueue()
	lister := &fakeLister{members: map[string][]string{"acme": {"alice", "bob"}}}
	svc := New(config.DiscoveryConfig{Orgs: []string{"acme"}}, lister, queue, &fakeStale{}, logger.NewNoOp())

	n, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, n)
	require.Len(t, queue.enqueued, 2)
	assert.Equal(t, domain.CandidateSourceOrg, queue.enqueued[0].Source)
	assert.Equal(t, domain.WorkItemDefaultPriority+domain.EmployerBonus, queue.enqueued[0].Priority)
	assert.False(t, queue.enqueued[0].DiscoveredAt.IsZero())
}

func TestRun_TopContributorsGetPopularityBonus(t *testing.T) {
	contributors := make([]string, topContributorCount+2)
	for i := range contributors {
		contributors[i] = string(rune('a' + i))
	}
	queue := newFakeQueue()
	lister := &fakeLister{contributors: map[string][]string{"acme/widget": contributors}}
	svc := New(config.DiscoveryConfig{Repos: []string{"acme/widget"}}, lister, queue, &fakeStale{}, logger.NewNoOp())

	n, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, len(contributors), n)
	assert.Equal(t, domain.WorkItemDefaultPriority+domain.PopularityBonus,
		queue.enqueued[0].Priority, "leading contributor ranks higher")
	assert.Equal(t, domain.WorkItemDefaultPriority,
		queue.enqueued[topContributorCount].Priority, "trailing contributor gets base priority")
}

func TestRun_SkipsAlreadyKnownLogins(t *testing.T) {
	queue := newFakeQueue("alice")
	lister := &fakeLister{members: map[string][]string{"acme": {"alice", "bob"}}}
	svc := New(config.DiscoveryConfig{Orgs: []string{"acme"}}, lister, queue, &fakeStale{}, logger.NewNoOp())

	n, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n, "known login must not be re-enqueued")
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, "bob", queue.enqueued[0].Login)
}

func TestRun_Restartable(t *testing.T) {
	queue := newFakeQueue()
	lister := &fakeLister{members: map[string][]string{"acme": {"alice", "bob"}}}
	cfg := config.DiscoveryConfig{Orgs: []string{"acme"}}
	svc := New(cfg, lister, queue, &fakeStale{}, logger.NewNoOp())

	_, err := svc.Run(context.Background())
	require.NoError(t, err)

	// A second full run discovers nothing new.
	n, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, queue.enqueued, 2)
}

func TestRun_StaleRefreshRequeuesWithContactBonus(t *testing.T) {
	queue := newFakeQueue("veteran")
	svc := New(
		config.DiscoveryConfig{RefreshStale: true, StaleAfter: 30 * 24 * time.Hour},
		&fakeLister{},
		queue,
		&fakeStale{logins: []string{"veteran"}},
		logger.NewNoOp(),
	)

	n, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	require.Len(t, queue.requeued, 1)
	assert.Equal(t, domain.CandidateSourceRefresh, queue.requeued[0].Source)
	assert.Equal(t, domain.WorkItemDefaultPriority+domain.ContactSignalBonus, queue.requeued[0].Priority)
	assert.Empty(t, queue.enqueued, "refresh must go through requeue, not enqueue")
}

func TestRun_InvalidRepoSeed(t *testing.T) {
	svc := New(config.DiscoveryConfig{Repos: []string{"not-a-seed"}},
		&fakeLister{}, newFakeQueue(), &fakeStale{}, logger.NewNoOp())

	_, err := svc.Run(context.Background())
	require.Error(t, err)
}

func TestRun_ListerErrorPropagates(t *testing.T) {
	listErr := errors.New("boom")
	svc := New(config.DiscoveryConfig{Orgs: []string{"acme"}},
		&fakeLister{err: listErr}, newFakeQueue(), &fakeStale{}, logger.NewNoOp())

	_, err := svc.Run(context.Background())
	require.ErrorIs(t, err, listErr)
}

func TestRankPriority_ClampedToBand(t *testing.T) {
	assert.Equal(t, domain.WorkItemMaxPriority, rankPriority(100))
	assert.Equal(t, domain.WorkItemMinPriority, rankPriority(-100))
	assert.Equal(t, domain.WorkItemDefaultPriority, rankPriority(0))
}
