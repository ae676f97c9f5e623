package services

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/bountydesk/bountydesk/internal/models"
)

func TestSetStatus_MarksValidAndAwardsPoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 101, Reporter: "alice"})

	issue, reporter, err := svc.SetStatus(101, models.StatusValid, "rev1")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	if issue.Status != models.StatusValid {
		t.Errorf("issue status = %q, expected %q", issue.Status, models.StatusValid)
	}
	if issue.MarkedBy != "rev1" {
		t.Errorf("MarkedBy = %q, expected %q", issue.MarkedBy, "rev1")
	}
	if issue.MarkedAt == nil {
		t.Error("MarkedAt should be set")
	}
	if reporter.Username != "alice" {
		t.Errorf("reporter = %q, expected %q", reporter.Username, "alice")
	}
	if reporter.TotalPoints != 10 {
		t.Errorf("reporter points = %d, expected 10", reporter.TotalPoints)
	}
}

func TestSetStatus_MarksInvalidAndDeductsPoints(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 102, Reporter: "bob"})

	_, reporter, err := svc.SetStatus(102, models.StatusInvalid, "rev1")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if reporter.TotalPoints != -5 {
		t.Errorf("reporter points = %d, expected -5", reporter.TotalPoints)
	}
}

func TestSetStatus_ReReviewAppliesIncrementalDelta(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 103, Reporter: "alice"})

	if _, _, err := svc.SetStatus(103, models.StatusValid, "rev1"); err != nil {
		t.Fatalf("first review failed: %v", err)
	}

	_, reporter, err := svc.SetStatus(103, models.StatusInvalid, "rev2")
	if err != nil {
		t.Fatalf("re-review failed: %v", err)
	}

	// 0 -> +10 -> -5: the flip applies -15, not a fresh -5.
	if reporter.TotalPoints != -5 {
		t.Errorf("reporter points after flip = %d, expected -5", reporter.TotalPoints)
	}

	issue := loadIssue(t, db, 103)
	if issue.MarkedBy != "rev2" {
		t.Errorf("MarkedBy = %q, expected the second reviewer", issue.MarkedBy)
	}
}

func TestSetStatus_SameStatusIsNoOpDelta(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 104, Reporter: "alice"})

	if _, _, err := svc.SetStatus(104, models.StatusValid, "rev1"); err != nil {
		t.Fatalf("first review failed: %v", err)
	}
	_, reporter, err := svc.SetStatus(104, models.StatusValid, "rev2")
	if err != nil {
		t.Fatalf("repeat review failed: %v", err)
	}
	if reporter.TotalPoints != 10 {
		t.Errorf("reporter points = %d, expected 10 (no double award)", reporter.TotalPoints)
	}
}

func TestSetStatus_InvalidStatusRejected(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 105, Reporter: "alice"})

	for _, status := range []string{models.StatusClosed, models.StatusUnreviewed, "approved", ""} {
		_, _, err := svc.SetStatus(105, status, "rev1")
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("SetStatus(%q) error = %v, expected ErrInvalidStatus", status, err)
		}
	}
}

func TestSetStatus_IssueNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	_, _, err := svc.SetStatus(999, models.StatusValid, "rev1")
	if !errors.Is(err, ErrIssueNotFound) {
		t.Errorf("error = %v, expected ErrIssueNotFound", err)
	}
}

func TestSetStatus_ImmutableIssueLocked(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{
		GitHubIssueID: 106,
		Reporter:      "alice",
		Status:        models.StatusValid,
		Immutable:     true,
	})

	_, _, err := svc.SetStatus(106, models.StatusInvalid, "rev1")
	if !errors.Is(err, ErrIssueLocked) {
		t.Errorf("error = %v, expected ErrIssueLocked", err)
	}

	issue := loadIssue(t, db, 106)
	if issue.Status != models.StatusValid {
		t.Errorf("locked issue status changed to %q", issue.Status)
	}
}

func TestSetStatus_CreatesReporterRecord(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	// Reporter has never logged in: no user row yet.
	seedIssue(t, db, &models.Issue{GitHubIssueID: 107, Reporter: "ghost"})

	_, reporter, err := svc.SetStatus(107, models.StatusValid, "rev1")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if reporter.Role != models.RoleReporter {
		t.Errorf("implicit reporter role = %q, expected %q", reporter.Role, models.RoleReporter)
	}
	if reporter.TotalPoints != 10 {
		t.Errorf("implicit reporter points = %d, expected 10", reporter.TotalPoints)
	}
}

func TestSetStatus_ExistingReporterAccumulates(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedUser(t, db, &models.User{Username: "alice", TotalPoints: 30})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 108, Reporter: "alice"})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 109, Reporter: "alice"})

	if _, _, err := svc.SetStatus(108, models.StatusValid, "rev1"); err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	_, reporter, err := svc.SetStatus(109, models.StatusInvalid, "rev1")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if reporter.TotalPoints != 35 {
		t.Errorf("reporter points = %d, expected 35 (30 +10 -5)", reporter.TotalPoints)
	}
}

func TestSetStatus_ReviewingClosedIssue(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{
		GitHubIssueID: 110,
		Reporter:      "alice",
		Status:        models.StatusClosed,
	})

	// Closed is not immutable: a reviewer may still classify the report.
	_, reporter, err := svc.SetStatus(110, models.StatusValid, "rev1")
	if err != nil {
		t.Fatalf("SetStatus on closed issue failed: %v", err)
	}
	if reporter.TotalPoints != 10 {
		t.Errorf("reporter points = %d, expected 10", reporter.TotalPoints)
	}
}

func TestValidReviewStatus(t *testing.T) {
	testCases := []struct {
		status   string
		expected bool
	}{
		{models.StatusValid, true},
		{models.StatusInvalid, true},
		{models.StatusUnreviewed, false},
		{models.StatusClosed, false},
		{"", false},
	}

	for _, tc := range testCases {
		if got := models.ValidReviewStatus(tc.status); got != tc.expected {
			t.Errorf("ValidReviewStatus(%q) = %v, expected %v", tc.status, got, tc.expected)
		}
	}
}

func TestSetStatus_ConcurrentReviewsConvergeOnOneDelta(t *testing.T) {
	for i := 0; i < 5; i++ {
		db := newTestDB(t)
		sqlDB, err := db.DB()
		if err != nil {
			t.Fatalf("failed to get sql.DB: %v", err)
		}
		// A single connection keeps both goroutines on the same in-memory
		// database; the race happens in the service layer.
		sqlDB.SetMaxOpenConns(1)

		svc := NewReviewService(db)
		id := int64(600 + i)
		seedIssue(t, db, &models.Issue{GitHubIssueID: id, Reporter: "alice"})
		seedUser(t, db, &models.User{Username: "alice"})

		verdicts := []string{models.StatusValid, models.StatusInvalid}
		errs := make([]error, len(verdicts))
		var wg sync.WaitGroup
		for j, verdict := range verdicts {
			wg.Add(1)
			go func(j int, verdict string) {
				defer wg.Done()
				_, _, errs[j] = svc.SetStatus(id, verdict, "rev"+strconv.Itoa(j+1))
			}(j, verdict)
		}
		wg.Wait()

		// A reviewer that loses the race past the retry budget gets a
		// conflict; anything else is a real failure.
		for j, err := range errs {
			if err != nil && !errors.Is(err, ErrReviewConflict) {
				t.Fatalf("reviewer %d: unexpected error: %v", j+1, err)
			}
		}

		issue := loadIssue(t, db, id)
		user := loadUser(t, db, "alice")
		if user.TotalPoints != PointsForStatus(issue.Status) {
			t.Errorf("iteration %d: total = %d, expected %d for final status %q (no lost or doubled delta)",
				i, user.TotalPoints, PointsForStatus(issue.Status), issue.Status)
		}
	}
}

func TestSetStatus_MarkedAtRecent(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 111, Reporter: "alice"})

	before := time.Now().Add(-time.Second)
	issue, _, err := svc.SetStatus(111, models.StatusValid, "rev1")
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if issue.MarkedAt == nil || issue.MarkedAt.Before(before) {
		t.Error("MarkedAt should be set to the review time")
	}
}
