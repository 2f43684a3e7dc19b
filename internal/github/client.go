// Package github implements the rate-limited profile fetcher for the
// external API. All requests flow through a shared quota gate and a request
// smoother so concurrent workers never overrun the budget.
package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/retry"
)

const (
	perPage = 100
	// maxEventPages caps the public event history fetched per profile.
	maxEventPages = 3
	// maxListPages caps membership and contributor listings per seed.
	maxListPages = 5
	// maxErrorBody bounds how much of an error response is read for context.
	maxErrorBody = 512
)

// Client fetches profiles from the external API with shared rate limiting
// and retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	userAgent  string
	limiter    *rate.Limiter
	quota      *Quota
	retryCfg   retry.Config
	logger     logger.Interface
}

// NewClient creates a fetcher client from configuration.
func NewClient(cfg config.GitHubConfig, log logger.Interface) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.BaseURL,
		token:      cfg.Token,
		userAgent:  cfg.UserAgent,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		quota:      NewQuota(),
		retryCfg: retry.Config{
			MaxAttempts:  cfg.FetchAttempts,
			InitialDelay: time.Second,
			MaxDelay:     time.Minute,
			IsRetryable:  IsRetryable,
		},
		logger: log.WithComponent("github"),
	}
}

// Quota exposes the shared quota state for the ops API.
func (c *Client) Quota() *Quota {
	return c.quota
}

// FetchProfile fetches the user document, owned repositories and recent
// public events for a login as one logical operation. Any permanent failure
// on the user document fails the whole fetch; repo and event listing errors
// are retried but degrade to empty slices only on 404 (e.g. a user with
// listings disabled).
func (c *Client) FetchProfile(ctx context.Context, login string) (*Profile, error) {
	var user UserProfile
	if err := c.getJSON(ctx, login, fmt.Sprintf("/users/%s", login), &user); err != nil {
		return nil, err
	}

	var repos []Repo
	if err := c.getPaged(ctx, login, fmt.Sprintf("/users/%s/repos", login), 1, func(data []byte) (int, error) {
		var page []Repo
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		repos = append(repos, page...)
		return len(page), nil
	}); err != nil && !isNotFound(err) {
		return nil, err
	}

	var events []Event
	if err := c.getPaged(ctx, login, fmt.Sprintf("/users/%s/events/public", login), maxEventPages, func(data []byte) (int, error) {
		var page []Event
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		events = append(events, page...)
		return len(page), nil
	}); err != nil && !isNotFound(err) {
		return nil, err
	}

	c.logger.Debug("fetched profile",
		"login", login,
		"repos", len(repos),
		"events", len(events))

	return &Profile{
		User:      user,
		Repos:     repos,
		Events:    events,
		FetchedAt: time.Now().UTC(),
	}, nil
}

// ListOrgMembers returns the public member logins of an organization.
func (c *Client) ListOrgMembers(ctx context.Context, org string) ([]string, error) {
	var logins []string
	err := c.getPaged(ctx, org, fmt.Sprintf("/orgs/%s/members", org), maxListPages, func(data []byte) (int, error) {
		var page []orgMember
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		for _, m := range page {
			logins = append(logins, m.Login)
		}
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return logins, nil
}

// ListRepoContributors returns contributor logins for owner/repo in
// descending contribution order, skipping bot accounts.
func (c *Client) ListRepoContributors(ctx context.Context, owner, repo string) ([]string, error) {
	var logins []string
	path := fmt.Sprintf("/repos/%s/%s/contributors", owner, repo)
	err := c.getPaged(ctx, owner+"/"+repo, path, maxListPages, func(data []byte) (int, error) {
		var page []contributor
		if err := json.Unmarshal(data, &page); err != nil {
			return 0, err
		}
		for _, contrib := range page {
			if contrib.Type == "Bot" {
				continue
			}
			logins = append(logins, contrib.Login)
		}
		return len(page), nil
	})
	if err != nil {
		return nil, err
	}
	return logins, nil
}

// getJSON fetches one resource and decodes it, with retry on transient
// failures.
func (c *Client) getJSON(ctx context.Context, login, path string, dest any) error {
	return retry.Do(ctx, c.retryCfg, func() error {
		data, err := c.get(ctx, login, path)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, dest); err != nil {
			return &APIError{Kind: ErrKindMalformed, Login: login, Err: err}
		}
		return nil
	})
}

// getPaged fetches up to maxPages pages of a listing, handing each page's raw
// body to consume, which reports how many elements the page held. A short
// page ends the walk.
func (c *Client) getPaged(ctx context.Context, login, path string, maxPages int, consume func([]byte) (int, error)) error {
	for page := 1; page <= maxPages; page++ {
		var n int
		err := retry.Do(ctx, c.retryCfg, func() error {
			data, getErr := c.get(ctx, login, fmt.Sprintf("%s?per_page=%d&page=%d", path, perPage, page))
			if getErr != nil {
				return getErr
			}
			var consumeErr error
			n, consumeErr = consume(data)
			if consumeErr != nil {
				return &APIError{Kind: ErrKindMalformed, Login: login, Err: consumeErr}
			}
			return nil
		})
		if err != nil {
			return err
		}
		if n < perPage {
			break
		}
	}
	return nil
}

// get performs one rate-limited request and classifies failures.
func (c *Client) get(ctx context.Context, login, path string) ([]byte, error) {
	if err := c.quota.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for rate limit budget: %w", err)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("waiting for request smoother: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &APIError{Kind: ErrKindTransient, Login: login, Err: err}
	}
	defer resp.Body.Close()

	c.quota.Update(resp.Header)

	if resp.StatusCode == http.StatusOK {
		data, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, &APIError{Kind: ErrKindTransient, Login: login, Err: readErr}
		}
		return data, nil
	}

	return nil, c.errorFromResponse(login, resp)
}

// errorFromResponse classifies a non-200 response. A 403 with an exhausted
// budget is rate limiting, not an authorization failure.
func (c *Client) errorFromResponse(login string, resp *http.Response) error {
	kind := classifyStatus(resp.StatusCode)

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		snap := c.quota.Snapshot()
		if snap.Exhausted || resp.StatusCode == http.StatusTooManyRequests {
			c.quota.Exhaust(snap.ResetAt)
			c.logger.Warn("rate limit exhausted",
				"login", login,
				"reset_at", snap.ResetAt)
			kind = ErrKindRateLimited
		} else {
			kind = ErrKindUnauthorized
		}
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &APIError{
		Kind:       kind,
		StatusCode: resp.StatusCode,
		Login:      login,
		Err:        errors.New(string(body)),
	}
}

// isNotFound reports whether err is a permanent not-found API error.
func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrKindNotFound
}
