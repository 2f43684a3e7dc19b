// Package pipeline orchestrates discovery, the work queue, the fetcher, the
// extractor, and the matcher into one run: a fixed pool of workers claims
// batches and takes each item through fetch, extract, resolve, persist as a
// single unit of work.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/extractor"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/github"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/metrics"
)

// ErrPersistenceOutage is returned when consecutive store failures exceed the
// configured ceiling. The run halts rather than burning through the queue
// while the database is down.
var ErrPersistenceOutage = errors.New("persistence outage: consecutive store failures over ceiling")

// Fetcher retrieves one profile per identifier.
type Fetcher interface {
	FetchProfile(ctx context.Context, login string) (*github.Profile, error)
}

// Queue is the work queue surface the orchestrator drives.
type Queue interface {
	Claim(ctx context.Context, maxBatch int) ([]*domain.WorkItem, error)
	Complete(ctx context.Context, id string) error
	Fail(ctx context.Context, id, lastError string, retryCeiling int, terminal bool) error
	RecoverStale(ctx context.Context) (int64, error)
}

// Resolver maps signal records to entities.
type Resolver interface {
	Resolve(ctx context.Context, rec *domain.SignalRecord, login string) (*domain.Entity, *domain.MatchDecision, error)
}

// SignalStore persists the latest signal record per entity and source.
type SignalStore interface {
	Upsert(ctx context.Context, rec *domain.SignalRecord) error
}

// Discoverer refills the queue from seeds.
type Discoverer interface {
	Run(ctx context.Context) (int, error)
}

// ExtractFunc transforms a fetched profile into a signal record.
type ExtractFunc func(*github.Profile) (*domain.SignalRecord, error)

// Orchestrator wires the pipeline components and runs them in one of three
// modes.
type Orchestrator struct {
	cfg       config.PipelineConfig
	queue     Queue
	fetcher   Fetcher
	extract   ExtractFunc
	resolver  Resolver
	signals   SignalStore
	discovery Discoverer
	metrics   *metrics.Metrics
	logger    logger.Interface

	// budget limits bounded runs; negative means unlimited.
	budget atomic.Int64
	// storeFailures counts consecutive persistence failures across workers.
	storeFailures atomic.Int64
	halt          context.CancelFunc
	halted        atomic.Bool
}

// New creates an orchestrator.
func New(
	cfg config.PipelineConfig,
	queue Queue,
	fetcher Fetcher,
	resolver Resolver,
	signals SignalStore,
	discovery Discoverer,
	m *metrics.Metrics,
	log logger.Interface,
) *Orchestrator {
	return &Orchestrator{
		cfg:       cfg,
		queue:     queue,
		fetcher:   fetcher,
		extract:   extractor.Extract,
		resolver:  resolver,
		signals:   signals,
		discovery: discovery,
		metrics:   m,
		logger:    log.WithComponent("pipeline"),
	}
}

// Run executes one pipeline run in the configured mode. limit is the item
// budget for bounded mode and ignored otherwise. Run blocks until the mode's
// natural end, a cooperative stop via ctx, or a persistence outage.
func (o *Orchestrator) Run(ctx context.Context, limit int) error {
	recovered, err := o.queue.RecoverStale(ctx)
	if err != nil {
		return fmt.Errorf("recovering stale items: %w", err)
	}
	if recovered > 0 {
		o.logger.Info("recovered stale in-progress items", "count", recovered)
	}

	if o.cfg.Mode == config.ModeBounded {
		if limit < 1 {
			return errors.New("bounded mode requires a positive limit")
		}
		o.budget.Store(int64(limit))
	} else {
		o.budget.Store(-1)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	o.halt = cancel

	if o.cfg.Mode == config.ModeContinuous {
		stopCron, cronErr := o.startDiscoveryCron(runCtx)
		if cronErr != nil {
			return cronErr
		}
		defer stopCron()
	}

	o.logger.Info("starting workers",
		"mode", o.cfg.Mode,
		"workers", o.cfg.MaxConcurrency,
		"max_batch", o.cfg.MaxBatch)

	var wg sync.WaitGroup
	for i := 0; i < o.cfg.MaxConcurrency; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			o.worker(runCtx, workerID)
		}(i)
	}
	wg.Wait()

	o.logger.Info("workers stopped", "mode", o.cfg.Mode)

	if o.halted.Load() {
		return ErrPersistenceOutage
	}
	// A cooperative stop is a normal end of run.
	return nil
}

// startDiscoveryCron runs discovery immediately, then on the configured
// schedule, for continuous mode.
func (o *Orchestrator) startDiscoveryCron(ctx context.Context) (func(), error) {
	o.runDiscovery(ctx)

	c := cron.New()
	_, err := c.AddFunc(o.cfg.DiscoverSchedule, func() {
		o.runDiscovery(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid discovery schedule %q: %w", o.cfg.DiscoverSchedule, err)
	}

	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

func (o *Orchestrator) runDiscovery(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	n, err := o.discovery.Run(ctx)
	if err != nil {
		o.logger.Error("discovery refresh failed", "error", err.Error())
		return
	}
	o.logger.Info("discovery refresh finished", "enqueued", n)
}

// worker is a single worker goroutine loop.
func (o *Orchestrator) worker(ctx context.Context, workerID int) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if done := o.claimAndProcess(ctx, workerID); done {
			return
		}
	}
}

// claimAndProcess claims one batch and processes it. Returns true when the
// worker should exit.
func (o *Orchestrator) claimAndProcess(ctx context.Context, workerID int) bool {
	batchSize := o.nextBatchSize()
	if batchSize == 0 {
		return true
	}

	items, err := o.queue.Claim(ctx, batchSize)
	if errors.Is(err, database.ErrNoItemAvailable) {
		// Catch-up and bounded runs end when the queue drains; continuous
		// runs wait for discovery to refill it.
		if o.cfg.Mode != config.ModeContinuous {
			return true
		}
		return o.sleepOrCancel(ctx)
	}
	if err != nil {
		if ctx.Err() != nil {
			return true
		}
		o.logger.Error("claim failed", "worker_id", workerID, "error", err.Error())
		o.recordStoreFailure()
		return o.sleepOrCancel(ctx)
	}
	o.recordStoreSuccess()

	for _, item := range items {
		if ctx.Err() != nil {
			// Cancelled mid-batch. The unprocessed claims stay
			// in_progress and return to pending via RecoverStale on the
			// next run.
			return true
		}
		o.processItem(ctx, item)
	}

	return false
}

// nextBatchSize reserves budget for the next claim. Zero means the bounded
// budget is spent.
func (o *Orchestrator) nextBatchSize() int {
	for {
		remaining := o.budget.Load()
		if remaining < 0 {
			return o.cfg.MaxBatch
		}
		if remaining == 0 {
			return 0
		}

		size := o.cfg.MaxBatch
		if int64(size) > remaining {
			size = int(remaining)
		}
		if o.budget.CompareAndSwap(remaining, remaining-int64(size)) {
			return size
		}
	}
}

// processItem runs fetch -> extract -> resolve -> persist for one claimed
// item. The item ends in exactly one of completed, pending (retry), or
// failed.
func (o *Orchestrator) processItem(ctx context.Context, item *domain.WorkItem) {
	profile, err := o.fetcher.FetchProfile(ctx, item.Login)
	if err != nil {
		if isRateLimited(err) {
			o.metrics.RecordRateLimited()
		}
		o.failItem(ctx, item, err, github.IsPermanent(err))
		return
	}

	rec, err := o.extract(profile)
	if err != nil {
		// Extraction failures are deterministic for a payload; retrying
		// the same item cannot succeed.
		o.failItem(ctx, item, err, true)
		return
	}

	entity, decision, err := o.resolver.Resolve(ctx, rec, item.Login)
	if err != nil {
		o.failItem(ctx, item, err, false)
		return
	}

	rec.ID = uuid.NewString()
	rec.EntityID = entity.ID
	if err := o.signals.Upsert(ctx, rec); err != nil {
		if ctx.Err() != nil {
			return
		}
		o.recordStoreFailure()
		o.failItem(ctx, item, err, false)
		return
	}

	if err := o.queue.Complete(ctx, item.ID); err != nil {
		if ctx.Err() != nil {
			return
		}
		o.logger.Error("complete failed", "item_id", item.ID, "error", err.Error())
		o.recordStoreFailure()
		return
	}
	o.recordStoreSuccess()

	o.metrics.RecordCompleted()
	if decision.Outcome == domain.DecisionMatched {
		o.metrics.RecordMatched()
	} else {
		o.metrics.RecordCreated()
	}

	o.logger.Info("item completed",
		"login", item.Login,
		"entity_id", entity.ID,
		"outcome", decision.Outcome,
		"rule", decision.Rule)
}

// failItem records a processing failure with the error captured verbatim.
// A cancelled run is not an item failure: the item stays in_progress, is not
// counted against it or the outage ceiling, and RecoverStale returns it to
// pending on the next run.
func (o *Orchestrator) failItem(ctx context.Context, item *domain.WorkItem, cause error, terminal bool) {
	if ctx.Err() != nil {
		return
	}
	o.metrics.RecordFailed()
	o.logger.Warn("item failed",
		"login", item.Login,
		"terminal", terminal,
		"error", cause.Error())

	if err := o.queue.Fail(ctx, item.ID, cause.Error(), o.cfg.RetryCeiling, terminal); err != nil {
		o.logger.Error("fail update failed", "item_id", item.ID, "error", err.Error())
		o.recordStoreFailure()
		return
	}
	o.recordStoreSuccess()
}

// recordStoreFailure counts a persistence failure and halts the run when the
// ceiling is crossed.
func (o *Orchestrator) recordStoreFailure() {
	failures := o.storeFailures.Add(1)
	if int(failures) >= o.cfg.OutageCeiling && !o.halted.Swap(true) {
		o.logger.Error("persistence outage, halting run",
			"consecutive_failures", failures)
		o.halt()
	}
}

func (o *Orchestrator) recordStoreSuccess() {
	o.storeFailures.Store(0)
}

// sleepOrCancel waits for the claim retry delay. Returns true when the
// context ended.
func (o *Orchestrator) sleepOrCancel(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-time.After(o.cfg.ClaimRetryDelay):
		return false
	}
}

// isRateLimited reports whether err is a quota exhaustion failure.
func isRateLimited(err error) bool {
	var apiErr *github.APIError
	return errors.As(err, &apiErr) && apiErr.Kind == github.ErrKindRateLimited
}
