package models

import "time"

// Sync run statuses
const (
	SyncRunRunning   = "running"
	SyncRunCompleted = "completed"
	SyncRunFailed    = "failed"
)

// SyncRun records one full pass of the sync engine over all configured
// repositories, for the dashboard and for debugging partial upstream outages.
type SyncRun struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	RunID         string     `gorm:"size:36;uniqueIndex;not null" json:"run_id"`
	Trigger       string     `gorm:"size:20" json:"trigger"` // scheduled, manual, startup
	Status        string     `gorm:"size:20;default:running" json:"status"`
	ReposTotal    int        `json:"repos_total"`
	ReposFailed   int        `json:"repos_failed"`
	IssuesCreated int        `json:"issues_created"`
	IssuesUpdated int        `json:"issues_updated"`
	IssuesSkipped int        `json:"issues_skipped"`
	PRsSkipped    int        `json:"prs_skipped"`
	Error         string     `gorm:"type:text" json:"error,omitempty"`
	StartedAt     time.Time  `gorm:"index" json:"started_at"`
	FinishedAt    *time.Time `json:"finished_at"`
}

func (SyncRun) TableName() string { return "sync_runs" }
