package services

import (
	"testing"
	"time"

	"github.com/bountydesk/bountydesk/internal/models"
)

func TestDashboardStats_Counts(t *testing.T) {
	db := newTestDB(t)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 1, Reporter: "alice", Repo: "bugtracker", Status: models.StatusValid})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 2, Reporter: "alice", Repo: "bugtracker", Status: models.StatusValid})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 3, Reporter: "bob", Repo: "portal", Status: models.StatusInvalid})
	seedUser(t, db, &models.User{Username: "alice"})
	seedUser(t, db, &models.User{Username: "bob"})
	seedUser(t, db, &models.User{Username: "rev", Role: models.RoleReviewer})

	stats, err := NewDashboardService(db).GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}

	if stats.TotalIssues != 3 {
		t.Errorf("TotalIssues = %d, expected 3", stats.TotalIssues)
	}
	if stats.Reporters != 2 {
		t.Errorf("Reporters = %d, expected 2", stats.Reporters)
	}
	if stats.Reviewers != 1 {
		t.Errorf("Reviewers = %d, expected 1", stats.Reviewers)
	}
	if stats.TrackedRepos != 2 {
		t.Errorf("TrackedRepos = %d, expected 2", stats.TrackedRepos)
	}

	byStatus := make(map[string]int64)
	for _, sc := range stats.ByStatus {
		byStatus[sc.Status] = sc.Count
	}
	if byStatus[models.StatusValid] != 2 {
		t.Errorf("valid count = %d, expected 2", byStatus[models.StatusValid])
	}
	if byStatus[models.StatusInvalid] != 1 {
		t.Errorf("invalid count = %d, expected 1", byStatus[models.StatusInvalid])
	}
}

func TestDashboardStats_LastSyncIgnoresRunning(t *testing.T) {
	db := newTestDB(t)
	now := time.Now()

	finished := now.Add(-time.Hour)
	db.Create(&models.SyncRun{RunID: "old", Status: models.SyncRunCompleted, StartedAt: now.Add(-2 * time.Hour), FinishedAt: &finished})
	db.Create(&models.SyncRun{RunID: "running", Status: models.SyncRunRunning, StartedAt: now})

	stats, err := NewDashboardService(db).GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.LastSync == nil {
		t.Fatal("LastSync should be set")
	}
	if stats.LastSync.RunID != "old" {
		t.Errorf("LastSync = %q, expected the completed run", stats.LastSync.RunID)
	}
}

func TestDashboardStats_NoSyncYet(t *testing.T) {
	stats, err := NewDashboardService(newTestDB(t)).GetStats()
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if stats.LastSync != nil {
		t.Error("LastSync should be nil before any pass has finished")
	}
}

func TestRecentSyncRuns_NewestFirstAndLimited(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		db.Create(&models.SyncRun{
			RunID:     string(rune('a' + i)),
			Status:    models.SyncRunCompleted,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	runs, err := NewDashboardService(db).RecentSyncRuns(&SyncRunListRequest{Limit: 3})
	if err != nil {
		t.Fatalf("RecentSyncRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("got %d runs, expected 3", len(runs))
	}
	if runs[0].RunID != "e" {
		t.Errorf("first run = %q, expected the newest", runs[0].RunID)
	}
}
