package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/database"
	"github.com/ckerr6/talent-intelligence-complete-sub005/internal/domain"
)

// workItemColumns lists the columns returned by work item SELECT queries.
var workItemColumns = []string{
	"id", "login", "source", "priority", "status", "attempts",
	"last_error", "last_attempt_at", "enqueued_at", "updated_at",
}

func newWorkItemRepo(t *testing.T) (*database.WorkItemRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewWorkItemRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestWorkItemRepository_Enqueue_NewLogin(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("INSERT INTO work_items").
		WithArgs("octocat", domain.CandidateSourceOrg, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Enqueue(ctx, domain.Candidate{
		Login:    "octocat",
		Source:   domain.CandidateSourceOrg,
		Priority: 7,
	})
	if err != nil {
		t.Fatalf("Enqueue() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Enqueue_DuplicateRaisesPriority(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	// First enqueue inserts the row.
	mock.ExpectExec("INSERT INTO work_items").
		WithArgs("octocat", domain.CandidateSourceRepo, 3).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Enqueue(ctx, domain.Candidate{
		Login:    "octocat",
		Source:   domain.CandidateSourceRepo,
		Priority: 3,
	}); err != nil {
		t.Fatalf("Enqueue() first call error = %v", err)
	}

	// Second enqueue with higher priority hits ON CONFLICT DO UPDATE.
	mock.ExpectExec("INSERT INTO work_items").
		WithArgs("octocat", domain.CandidateSourceOrg, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Enqueue(ctx, domain.Candidate{
		Login:    "octocat",
		Source:   domain.CandidateSourceOrg,
		Priority: 8,
	}); err != nil {
		t.Fatalf("Enqueue() second call error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Requeue_ResetsTerminalItem(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("INSERT INTO work_items").
		WithArgs("octocat", domain.CandidateSourceRefresh, 8).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Requeue(ctx, domain.Candidate{
		Login:    "octocat",
		Source:   domain.CandidateSourceRefresh,
		Priority: 8,
	})
	if err != nil {
		t.Fatalf("Requeue() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Claim_ReturnsHighestPriorityBatch(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM work_items w").
		WithArgs(2).
		WillReturnRows(
			sqlmock.NewRows(workItemColumns).
				AddRow("item-1", "alice", "org", 9, "pending", 0, nil, nil, now, now).
				AddRow("item-2", "bob", "repo", 5, "pending", 1, "timeout", now, now, now),
		)
	mock.ExpectExec("UPDATE work_items SET status = 'in_progress'").
		WithArgs("item-1", "item-2").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	items, err := repo.Claim(ctx, 2)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("Claim() returned %d items, expected 2", len(items))
	}
	if items[0].Login != "alice" {
		t.Errorf("expected first item login=alice, got %s", items[0].Login)
	}
	if items[0].Status != domain.WorkItemStatusInProgress {
		t.Errorf("expected status=in_progress, got %s", items[0].Status)
	}
	if items[0].Priority != 9 {
		t.Errorf("expected priority=9, got %d", items[0].Priority)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Claim_ReturnsErrWhenEmpty(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM work_items w").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows(workItemColumns))
	mock.ExpectRollback()

	items, err := repo.Claim(ctx, 5)
	if !errors.Is(err, database.ErrNoItemAvailable) {
		t.Fatalf("Claim() expected ErrNoItemAvailable, got %v", err)
	}
	if items != nil {
		t.Errorf("Claim() returned %v, expected nil", items)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Complete(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("UPDATE work_items").
		WithArgs("item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Complete(ctx, "item-1"); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Complete_NotInProgress(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("UPDATE work_items").
		WithArgs("item-9").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.Complete(ctx, "item-9"); err == nil {
		t.Fatal("Complete() expected error for item not in progress, got nil")
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Fail_RetriesWhenUnderCeiling(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("UPDATE work_items").
		WithArgs("connection timeout", false, 3, "item-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Fail(ctx, "item-1", "connection timeout", 3, false); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Fail_TerminalMarksFailed(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	// The SQL uses $2 (terminal) OR attempts + 1 >= $3 to decide failed vs
	// pending. We verify the query executes with correct args.
	mock.ExpectExec("UPDATE work_items").
		WithArgs("profile not found", true, 3, "item-2").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Fail(ctx, "item-2", "profile not found", 3, true); err != nil {
		t.Fatalf("Fail() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_RecoverStale(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectExec("UPDATE work_items").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.RecoverStale(ctx)
	if err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}
	if n != 4 {
		t.Errorf("RecoverStale() = %d, expected 4", n)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Exists(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("octocat").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.Exists(ctx, "octocat")
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Error("Exists() = false, expected true")
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_List_FiltersByStatus(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("failed").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT .+ FROM work_items w").
		WithArgs("failed", 50, 0).
		WillReturnRows(
			sqlmock.NewRows(workItemColumns).
				AddRow("item-3", "mallory", "manual", 5, "failed", 3, "unauthorized", now, now, now),
		)

	items, count, err := repo.List(ctx, database.WorkItemFilters{Status: "failed"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if count != 1 {
		t.Errorf("List() count = %d, expected 1", count)
	}
	if len(items) != 1 || items[0].Login != "mallory" {
		t.Errorf("List() items = %v, expected one item for mallory", items)
	}

	expectationsMet(t, mock)
}

func TestWorkItemRepository_Stats(t *testing.T) {
	repo, mock, cleanup := newWorkItemRepo(t)
	defer cleanup()

	ctx := context.Background()

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(
			sqlmock.NewRows([]string{"status", "count"}).
				AddRow("pending", 12).
				AddRow("in_progress", 2).
				AddRow("completed", 80).
				AddRow("failed", 6),
		)

	stats, err := repo.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if stats.TotalPending != 12 {
		t.Errorf("TotalPending = %d, expected 12", stats.TotalPending)
	}
	if stats.TotalInProgress != 2 {
		t.Errorf("TotalInProgress = %d, expected 2", stats.TotalInProgress)
	}
	if stats.TotalCompleted != 80 {
		t.Errorf("TotalCompleted = %d, expected 80", stats.TotalCompleted)
	}
	if stats.TotalFailed != 6 {
		t.Errorf("TotalFailed = %d, expected 6", stats.TotalFailed)
	}

	expectationsMet(t, mock)
}
