// Package discovery expands seed sources into candidate identifiers and
// feeds them to the work queue with a static priority ranking, so high-value
// targets are fetched first under quota pressure.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

// topContributorCount marks how many leading contributors of a repo get the
// popularity bonus.
const topContributorCount = 10

// staleRefreshLimit caps how many stale identifiers one refresh pass
// re-enqueues.
const staleRefreshLimit = 200

// Queue is the work queue surface discovery needs. Enqueue must be an
// idempotent upsert so re-running a seed never duplicates items.
type Queue interface {
	Enqueue(ctx context.Context, c domain.Candidate) error
	// Requeue resets a terminal item for a fresh pass; used for refresh.
	Requeue(ctx context.Context, c domain.Candidate) error
	Exists(ctx context.Context, login string) (bool, error)
}

// Lister enumerates members and contributors from the external API.
type Lister interface {
	ListOrgMembers(ctx context.Context, org string) ([]string, error)
	ListRepoContributors(ctx context.Context, owner, repo string) ([]string, error)
}

// StaleSource lists linked identifiers whose signals have gone stale.
type StaleSource interface {
	StaleLogins(ctx context.Context, cutoffDays, limit int) ([]string, error)
}

// Service expands seeds into enqueued candidates.
type Service struct {
	cfg    config.DiscoveryConfig
	lister Lister
	queue  Queue
	stale  StaleSource
	logger logger.Interface
}

// New creates a discovery service.
func New(cfg config.DiscoveryConfig, lister Lister, queue Queue, stale StaleSource, log logger.Interface) *Service {
	return &Service{
		cfg:    cfg,
		lister: lister,
		queue:  queue,
		stale:  stale,
		logger: log.WithComponent("discovery"),
	}
}

// Run walks all configured seeds once, seed at a time, and returns how many
// candidates were enqueued. Already-known identifiers are skipped, so a run
// interrupted partway can safely restart.
func (s *Service) Run(ctx context.Context) (int, error) {
	total := 0

	for _, org := range s.cfg.Orgs {
		n, err := s.discoverOrg(ctx, org)
		if err != nil {
			return total, err
		}
		total += n
	}

	for _, seed := range s.cfg.Repos {
		n, err := s.discoverRepo(ctx, seed)
		if err != nil {
			return total, err
		}
		total += n
	}

	if s.cfg.RefreshStale {
		n, err := s.discoverStale(ctx)
		if err != nil {
			return total, err
		}
		total += n
	}

	s.logger.Info("discovery run finished", "enqueued", total)
	return total, nil
}

// discoverOrg enqueues the public members of an organization. Org membership
// is an employer-affiliation signal.
func (s *Service) discoverOrg(ctx context.Context, org string) (int, error) {
	logins, err := s.lister.ListOrgMembers(ctx, org)
	if err != nil {
		return 0, fmt.Errorf("listing members of %s: %w", org, err)
	}

	n := 0
	for _, login := range logins {
		enqueued, enqErr := s.enqueue(ctx, domain.Candidate{
			Login:        login,
			Source:       domain.CandidateSourceOrg,
			Priority:     rankPriority(domain.EmployerBonus),
			DiscoveredAt: time.Now().UTC(),
		})
		if enqErr != nil {
			return n, enqErr
		}
		if enqueued {
			n++
		}
	}

	s.logger.Info("discovered org members", "org", org, "members", len(logins), "enqueued", n)
	return n, nil
}

// discoverRepo enqueues the contributors of an owner/name seed. The leading
// contributors carry a popularity bonus.
func (s *Service) discoverRepo(ctx context.Context, seed string) (int, error) {
	owner, name, found := strings.Cut(seed, "/")
	if !found || owner == "" || name == "" {
		return 0, fmt.Errorf("invalid repo seed %q, expected owner/name", seed)
	}

	logins, err := s.lister.ListRepoContributors(ctx, owner, name)
	if err != nil {
		return 0, fmt.Errorf("listing contributors of %s: %w", seed, err)
	}

	n := 0
	for i, login := range logins {
		bonus := 0
		if i < topContributorCount {
			bonus = domain.PopularityBonus
		}
		enqueued, enqErr := s.enqueue(ctx, domain.Candidate{
			Login:        login,
			Source:       domain.CandidateSourceRepo,
			Priority:     rankPriority(bonus),
			DiscoveredAt: time.Now().UTC(),
		})
		if enqErr != nil {
			return n, enqErr
		}
		if enqueued {
			n++
		}
	}

	s.logger.Info("discovered repo contributors", "repo", seed, "contributors", len(logins), "enqueued", n)
	return n, nil
}

// discoverStale re-enqueues linked identifiers whose latest signal is older
// than the configured horizon. A known identifier carries contact history, so
// it ranks with the contact-signal bonus.
func (s *Service) discoverStale(ctx context.Context) (int, error) {
	days := int(s.cfg.StaleAfter.Hours() / 24)
	logins, err := s.stale.StaleLogins(ctx, days, staleRefreshLimit)
	if err != nil {
		return 0, fmt.Errorf("listing stale identifiers: %w", err)
	}

	n := 0
	for _, login := range logins {
		// Refresh bypasses the Exists dedup: these logins already have
		// terminal work items and need a fresh one.
		if enqErr := s.queue.Requeue(ctx, domain.Candidate{
			Login:        login,
			Source:       domain.CandidateSourceRefresh,
			Priority:     rankPriority(domain.ContactSignalBonus),
			DiscoveredAt: time.Now().UTC(),
		}); enqErr != nil {
			return n, fmt.Errorf("enqueueing refresh for %s: %w", login, enqErr)
		}
		n++
	}

	s.logger.Info("re-enqueued stale identifiers", "enqueued", n)
	return n, nil
}

// enqueue adds one candidate unless the queue already knows the login.
func (s *Service) enqueue(ctx context.Context, c domain.Candidate) (bool, error) {
	exists, err := s.queue.Exists(ctx, c.Login)
	if err != nil {
		return false, fmt.Errorf("checking queue for %s: %w", c.Login, err)
	}
	if exists {
		return false, nil
	}

	if err := s.queue.Enqueue(ctx, c); err != nil {
		return false, fmt.Errorf("enqueueing %s: %w", c.Login, err)
	}
	return true, nil
}

// rankPriority maps a static bonus onto the priority band.
func rankPriority(bonus int) int {
	p := domain.WorkItemDefaultPriority + bonus
	if p > domain.WorkItemMaxPriority {
		p = domain.WorkItemMaxPriority
	}
	if p < domain.WorkItemMinPriority {
		p = domain.WorkItemMinPriority
	}
	return p
}
