package services

import (
	"testing"
	"time"

	"github.com/bountydesk/bountydesk/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Issue{},
		&models.SyncRun{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// seedIssue inserts an issue record directly, bypassing the sync engine.
func seedIssue(t *testing.T, db *gorm.DB, issue *models.Issue) {
	t.Helper()

	if issue.GitHubUpdatedAt.IsZero() {
		issue.GitHubUpdatedAt = time.Now().Add(-time.Hour)
	}
	if issue.Status == "" {
		issue.Status = models.StatusUnreviewed
	}
	if err := db.Create(issue).Error; err != nil {
		t.Fatalf("failed to seed issue: %v", err)
	}
}

// seedUser inserts a user record directly.
func seedUser(t *testing.T, db *gorm.DB, user *models.User) {
	t.Helper()

	if user.Role == "" {
		user.Role = models.RoleReporter
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
}

// loadIssue rereads an issue by its external id.
func loadIssue(t *testing.T, db *gorm.DB, githubIssueID int64) *models.Issue {
	t.Helper()

	var issue models.Issue
	if err := db.Where("github_issue_id = ?", githubIssueID).First(&issue).Error; err != nil {
		t.Fatalf("failed to load issue %d: %v", githubIssueID, err)
	}
	return &issue
}

// loadUser rereads a user by username.
func loadUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()

	var user models.User
	if err := db.Where("username = ?", username).First(&user).Error; err != nil {
		t.Fatalf("failed to load user %q: %v", username, err)
	}
	return &user
}
