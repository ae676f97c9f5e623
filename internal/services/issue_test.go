package services

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/bountydesk/bountydesk/internal/models"
)

func TestIssueList_FiltersByStatus(t *testing.T) {
	db := newTestDB(t)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 1, Reporter: "alice", Status: models.StatusValid})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 2, Reporter: "alice", Status: models.StatusInvalid})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 3, Reporter: "bob", Status: models.StatusValid})

	resp, err := NewIssueService(db).List(&IssueListRequest{Status: models.StatusValid})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if resp.Total != 2 {
		t.Errorf("Total = %d, expected 2", resp.Total)
	}
	for _, issue := range resp.Items {
		if issue.Status != models.StatusValid {
			t.Errorf("filter leaked status %q", issue.Status)
		}
	}
}

func TestIssueList_FiltersByReporterAndRepo(t *testing.T) {
	db := newTestDB(t)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 1, Reporter: "alice", Repo: "bugtracker"})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 2, Reporter: "alice", Repo: "portal"})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 3, Reporter: "bob", Repo: "bugtracker"})

	resp, err := NewIssueService(db).List(&IssueListRequest{Reporter: "alice", Repo: "bugtracker"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, expected 1", resp.Total)
	}
	if len(resp.Items) == 1 && resp.Items[0].GitHubIssueID != 1 {
		t.Errorf("got issue %d, expected 1", resp.Items[0].GitHubIssueID)
	}
}

func TestIssueList_OrdersByUpstreamActivity(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-24 * time.Hour)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 1, Reporter: "a", GitHubUpdatedAt: base})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 2, Reporter: "a", GitHubUpdatedAt: base.Add(2 * time.Hour)})
	seedIssue(t, db, &models.Issue{GitHubIssueID: 3, Reporter: "a", GitHubUpdatedAt: base.Add(time.Hour)})

	resp, err := NewIssueService(db).List(&IssueListRequest{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if len(resp.Items) != 3 {
		t.Fatalf("got %d items, expected 3", len(resp.Items))
	}
	if resp.Items[0].GitHubIssueID != 2 || resp.Items[1].GitHubIssueID != 3 || resp.Items[2].GitHubIssueID != 1 {
		t.Errorf("order = %d, %d, %d; expected newest upstream activity first",
			resp.Items[0].GitHubIssueID, resp.Items[1].GitHubIssueID, resp.Items[2].GitHubIssueID)
	}
}

func TestIssueList_Pagination(t *testing.T) {
	db := newTestDB(t)
	base := time.Now().Add(-24 * time.Hour)

	for i := 1; i <= 7; i++ {
		seedIssue(t, db, &models.Issue{
			GitHubIssueID:   int64(i),
			Reporter:        "a",
			GitHubUpdatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	resp, err := NewIssueService(db).List(&IssueListRequest{Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if resp.Total != 7 {
		t.Errorf("Total = %d, expected 7", resp.Total)
	}
	if len(resp.Items) != 3 {
		t.Errorf("page 2 size = %d, expected 3", len(resp.Items))
	}
	if resp.Page != 2 || resp.PageSize != 3 {
		t.Errorf("echo: page=%d size=%d", resp.Page, resp.PageSize)
	}
}

func TestIssueList_PageSizeCapped(t *testing.T) {
	db := newTestDB(t)

	resp, err := NewIssueService(db).List(&IssueListRequest{PageSize: 5000})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.PageSize != 50 {
		t.Errorf("oversize PageSize fell back to %d, expected default 50", resp.PageSize)
	}
}

func TestIssueGetByGitHubID(t *testing.T) {
	db := newTestDB(t)
	svc := NewIssueService(db)

	seedIssue(t, db, &models.Issue{GitHubIssueID: 42, Reporter: "alice", Title: "the answer"})

	issue, err := svc.GetByGitHubID(42)
	if err != nil {
		t.Fatalf("GetByGitHubID failed: %v", err)
	}
	if issue.Title != "the answer" {
		t.Errorf("Title = %q", issue.Title)
	}

	_, err = svc.GetByGitHubID(43)
	if !errors.Is(err, ErrIssueNotFound) {
		t.Errorf("error = %v, expected ErrIssueNotFound", err)
	}
}

func TestIssueLabels_RoundTrip(t *testing.T) {
	issue := &models.Issue{}

	issue.SetLabelNames([]string{"bug", "severity:high"})
	got := issue.LabelNames()
	if len(got) != 2 || got[0] != "bug" || got[1] != "severity:high" {
		t.Errorf("LabelNames = %v", got)
	}

	issue.SetLabelNames(nil)
	if issue.Labels != "" {
		t.Errorf("empty label list should store as empty string, got %q", issue.Labels)
	}
	if issue.LabelNames() != nil {
		t.Error("LabelNames of empty store should be nil")
	}

	issue.Labels = "{not json"
	if issue.LabelNames() != nil {
		t.Error("corrupt label store should decode to nil")
	}
}

func TestIssueList_ManyReporters(t *testing.T) {
	db := newTestDB(t)

	for i := 0; i < 3; i++ {
		seedIssue(t, db, &models.Issue{
			GitHubIssueID: int64(i + 1),
			Reporter:      fmt.Sprintf("user%d", i),
		})
	}

	resp, err := NewIssueService(db).List(&IssueListRequest{Reporter: "user1"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("Total = %d, expected 1", resp.Total)
	}
}
