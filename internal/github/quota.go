package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// Rate limit headers set by the API on every response.
const (
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRateLimit     = "X-RateLimit-Limit"
	headerRateReset     = "X-RateLimit-Reset"
)

// Quota tracks the shared rate-limit budget across all workers. Every
// response updates it from the limit headers; when the budget is exhausted
// all callers block in Wait until the advertised reset time passes.
type Quota struct {
	mu        sync.Mutex
	remaining int
	limit     int
	resetAt   time.Time
	known     bool

	// now is injectable for tests.
	now func() time.Time
}

// NewQuota creates quota state with no budget information yet. Until the
// first response arrives, Wait does not block.
func NewQuota() *Quota {
	return &Quota{now: time.Now}
}

// Update records the budget advertised by a response's headers. Responses can
// arrive out of order from concurrent workers; a stale header with a higher
// remaining count for the same window is ignored.
func (q *Quota) Update(h http.Header) {
	remaining, remErr := strconv.Atoi(h.Get(headerRateRemaining))
	if remErr != nil {
		return
	}

	resetUnix, resetErr := strconv.ParseInt(h.Get(headerRateReset), 10, 64)
	if resetErr != nil {
		return
	}
	resetAt := time.Unix(resetUnix, 0)

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.known && resetAt.Equal(q.resetAt) && remaining > q.remaining {
		return
	}

	q.remaining = remaining
	q.resetAt = resetAt
	q.known = true

	if limit, limitErr := strconv.Atoi(h.Get(headerRateLimit)); limitErr == nil {
		q.limit = limit
	}
}

// Exhaust forces the cooldown until the given reset time. Used when the API
// rejects a request for rate limiting even though the tracked budget thought
// requests remained.
func (q *Quota) Exhaust(resetAt time.Time) {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.remaining = 0
	q.known = true
	if resetAt.After(q.resetAt) {
		q.resetAt = resetAt
	}
}

// Wait blocks until budget is available or the context ends. All workers
// share this gate, so a single exhaustion pauses the whole fetch tier.
func (q *Quota) Wait(ctx context.Context) error {
	for {
		q.mu.Lock()
		blocked := q.known && q.remaining <= 0 && q.now().Before(q.resetAt)
		resetAt := q.resetAt
		q.mu.Unlock()

		if !blocked {
			return nil
		}

		wait := resetAt.Sub(q.now())
		if wait <= 0 {
			// Window elapsed between the check and now.
			q.mu.Lock()
			q.remaining = 1
			q.mu.Unlock()
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
			timer.Stop()
			// Assume one request is available after reset; the next
			// response's headers re-sync the budget.
			q.mu.Lock()
			q.remaining = 1
			q.mu.Unlock()
			return nil
		}
	}
}

// Snapshot is a point-in-time view of the quota for the ops API.
type Snapshot struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"reset_at"`
	Known     bool      `json:"known"`
	Exhausted bool      `json:"exhausted"`
}

// Snapshot returns the current budget view.
func (q *Quota) Snapshot() Snapshot {
	q.mu.Lock()
	defer q.mu.Unlock()

	return Snapshot{
		Remaining: q.remaining,
		Limit:     q.limit,
		ResetAt:   q.resetAt,
		Known:     q.known,
		Exhausted: q.known && q.remaining <= 0 && q.now().Before(q.resetAt),
	}
}
