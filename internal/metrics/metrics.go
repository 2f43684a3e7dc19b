// Package metrics provides in-process counters for pipeline runs.
package metrics

import (
	"sync"
	"time"
)

// Metrics holds the enrichment run counters.
type Metrics struct {
	mu sync.Mutex

	// processed is the number of work items taken through the full
	// fetch/extract/resolve/persist sequence, successful or not.
	processed int64
	completed int64
	failed    int64

	// entitiesMatched and entitiesCreated split resolution outcomes.
	entitiesMatched int64
	entitiesCreated int64

	// rateLimitedFetches counts fetches that hit quota exhaustion.
	rateLimitedFetches int64

	lastCompletedAt time.Time
	startTime       time.Time
}

// New creates a metrics instance anchored at now.
func New() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// StartTime returns when collection began.
func (m *Metrics) StartTime() time.Time {
	return m.startTime
}

// RecordCompleted counts one fully processed item.
func (m *Metrics) RecordCompleted() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	m.completed++
	m.lastCompletedAt = time.Now()
}

// RecordFailed counts one failed item.
func (m *Metrics) RecordFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.processed++
	m.failed++
}

// RecordMatched counts a resolution that linked to an existing entity.
func (m *Metrics) RecordMatched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entitiesMatched++
}

// RecordCreated counts a resolution that created a new entity.
func (m *Metrics) RecordCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entitiesCreated++
}

// RecordRateLimited counts a fetch delayed or failed by quota exhaustion.
func (m *Metrics) RecordRateLimited() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rateLimitedFetches++
}

// Snapshot is a point-in-time copy of all counters.
type Snapshot struct {
	Processed          int64     `json:"processed"`
	Completed          int64     `json:"completed"`
	Failed             int64     `json:"failed"`
	EntitiesMatched    int64     `json:"entities_matched"`
	EntitiesCreated    int64     `json:"entities_created"`
	RateLimitedFetches int64     `json:"rate_limited_fetches"`
	LastCompletedAt    time.Time `json:"last_completed_at"`
	StartTime          time.Time `json:"start_time"`
}

// Snapshot returns a consistent copy of the counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	return Snapshot{
		Processed:          m.processed,
		Completed:          m.completed,
		Failed:             m.failed,
		EntitiesMatched:    m.entitiesMatched,
		EntitiesCreated:    m.entitiesCreated,
		RateLimitedFetches: m.rateLimitedFetches,
		LastCompletedAt:    m.lastCompletedAt,
		StartTime:          m.startTime,
	}
}
