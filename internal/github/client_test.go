package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/config"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, func()) {
	t.Helper()

	server := httptest.NewServer(handler)
	client := NewClient(config.GitHubConfig{
		BaseURL:        server.URL,
		Token:          "test-token",
		UserAgent:      "test-agent",
		RequestTimeout: 5 * time.Second,
		RequestsPerSec: 1000,
		FetchAttempts:  1,
	}, logger.NewNoOp())

	return client, server.Close
}

func writeQuotaHeaders(w http.ResponseWriter, remaining int) {
	w.Header().Set(headerRateRemaining, strconv.Itoa(remaining))
	w.Header().Set(headerRateLimit, "5000")
	w.Header().Set(headerRateReset, strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))
}

func TestClient_FetchProfile_CombinesResources(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q, expected bearer token", got)
		}
		writeQuotaHeaders(w, 100)
		fmt.Fprint(w, `{"id": 583231, "login": "octocat", "name": "Mona Lisa Octocat",
			"email": "mona@github.com", "company": "GitHub", "location": "San Francisco",
			"followers": 4000, "created_at": "2011-01-25T18:44:36Z"}`)
	})
	mux.HandleFunc("/users/octocat/repos", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 99)
		fmt.Fprint(w, `[{"name": "hello-world", "language": "Go", "stargazers_count": 80, "size": 120},
			{"name": "spoon-knife", "language": "Ruby", "stargazers_count": 300, "fork": true, "size": 40}]`)
	})
	mux.HandleFunc("/users/octocat/events/public", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 98)
		fmt.Fprint(w, `[{"type": "PushEvent", "created_at": "2026-08-20T10:00:00Z", "repo": {"name": "octocat/hello-world"}}]`)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	profile, err := client.FetchProfile(context.Background(), "octocat")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v", err)
	}
	if profile.User.ID != 583231 {
		t.Errorf("User.ID = %d, expected 583231", profile.User.ID)
	}
	if len(profile.Repos) != 2 {
		t.Errorf("len(Repos) = %d, expected 2", len(profile.Repos))
	}
	if len(profile.Events) != 1 {
		t.Errorf("len(Events) = %d, expected 1", len(profile.Events))
	}
	if profile.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}

	if snap := client.Quota().Snapshot(); snap.Remaining != 98 {
		t.Errorf("quota Remaining = %d, expected 98 from last response", snap.Remaining)
	}
}

func TestClient_FetchProfile_NotFoundIsPermanent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/ghost", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 100)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	_, err := client.FetchProfile(context.Background(), "ghost")
	if err == nil {
		t.Fatal("FetchProfile() expected error for missing login")
	}
	if !IsPermanent(err) {
		t.Errorf("expected permanent error, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != ErrKindNotFound {
		t.Errorf("expected not_found kind, got %v", err)
	}
}

func TestClient_FetchProfile_MalformedBodyIsPermanent(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/octocat", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 100)
		fmt.Fprint(w, `{"id": "not-a-number"}`)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	_, err := client.FetchProfile(context.Background(), "octocat")
	if !IsPermanent(err) {
		t.Fatalf("expected permanent malformed error, got %v", err)
	}
}

func TestClient_FetchProfile_MissingListingsDegrade(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/newuser", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 100)
		fmt.Fprint(w, `{"id": 7, "login": "newuser", "created_at": "2026-08-01T00:00:00Z"}`)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 100)
		w.WriteHeader(http.StatusNotFound)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	profile, err := client.FetchProfile(context.Background(), "newuser")
	if err != nil {
		t.Fatalf("FetchProfile() error = %v, expected listings to degrade", err)
	}
	if len(profile.Repos) != 0 || len(profile.Events) != 0 {
		t.Errorf("expected empty listings, got %d repos, %d events", len(profile.Repos), len(profile.Events))
	}
}

func TestClient_RateLimitedResponseMarksQuotaExhausted(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users/limited", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 0)
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	_, err := client.FetchProfile(context.Background(), "limited")
	if err == nil {
		t.Fatal("FetchProfile() expected rate limit error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != ErrKindRateLimited {
		t.Fatalf("expected rate_limited kind, got %v", err)
	}
	if IsPermanent(err) {
		t.Error("rate limiting must not be a permanent failure")
	}
	if snap := client.Quota().Snapshot(); !snap.Exhausted {
		t.Error("expected quota marked exhausted")
	}
}

func TestClient_ListOrgMembers_Paginates(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/members", func(w http.ResponseWriter, r *http.Request) {
		writeQuotaHeaders(w, 100)
		page := r.URL.Query().Get("page")
		if page == "1" {
			// Full page triggers a fetch of page 2.
			fmt.Fprint(w, "[")
			for i := 0; i < perPage; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"login": "member%d"}`, i)
			}
			fmt.Fprint(w, "]")
			return
		}
		fmt.Fprint(w, `[{"login": "straggler"}]`)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	logins, err := client.ListOrgMembers(context.Background(), "acme")
	if err != nil {
		t.Fatalf("ListOrgMembers() error = %v", err)
	}
	if len(logins) != perPage+1 {
		t.Errorf("len(logins) = %d, expected %d", len(logins), perPage+1)
	}
	if logins[len(logins)-1] != "straggler" {
		t.Errorf("last login = %s, expected straggler", logins[len(logins)-1])
	}
}

func TestClient_ListRepoContributors_SkipsBots(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/acme/widget/contributors", func(w http.ResponseWriter, _ *http.Request) {
		writeQuotaHeaders(w, 100)
		fmt.Fprint(w, `[
			{"login": "alice", "contributions": 120, "type": "User"},
			{"login": "dependabot[bot]", "contributions": 90, "type": "Bot"},
			{"login": "bob", "contributions": 15, "type": "User"}
		]`)
	})

	client, cleanup := newTestClient(t, mux)
	defer cleanup()

	logins, err := client.ListRepoContributors(context.Background(), "acme", "widget")
	if err != nil {
		t.Fatalf("ListRepoContributors() error = %v", err)
	}
	if len(logins) != 2 {
		t.Fatalf("len(logins) = %d, expected bots skipped (2)", len(logins))
	}
	if logins[0] != "alice" || logins[1] != "bob" {
		t.Errorf("logins = %v, expected [alice bob]", logins)
	}
}
