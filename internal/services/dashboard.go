package services

import (
	"github.com/bountydesk/bountydesk/internal/models"
	"gorm.io/gorm"
)

type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DashboardStats struct {
	TotalIssues  int64           `json:"total_issues"`
	ByStatus     []StatusCount   `json:"by_status"`
	Reporters    int64           `json:"reporters"`
	Reviewers    int64           `json:"reviewers"`
	LastSync     *models.SyncRun `json:"last_sync,omitempty"`
	TrackedRepos int64           `json:"tracked_repos"`
}

// GetStats aggregates the numbers the portal dashboard shows: issue counts by
// status, population counts and the most recent completed sync pass.
func (s *DashboardService) GetStats() (*DashboardStats, error) {
	stats := &DashboardStats{}

	if err := s.db.Model(&models.Issue{}).Count(&stats.TotalIssues).Error; err != nil {
		return nil, err
	}

	err := s.db.Model(&models.Issue{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&stats.ByStatus).Error
	if err != nil {
		return nil, err
	}

	s.db.Model(&models.User{}).Where("role = ?", models.RoleReporter).Count(&stats.Reporters)
	s.db.Model(&models.User{}).Where("role = ?", models.RoleReviewer).Count(&stats.Reviewers)
	s.db.Model(&models.Issue{}).Distinct("repo").Count(&stats.TrackedRepos)

	var lastRun models.SyncRun
	err = s.db.Where("status <> ?", models.SyncRunRunning).
		Order("started_at DESC").
		First(&lastRun).Error
	if err == nil {
		stats.LastSync = &lastRun
	}

	return stats, nil
}

type SyncRunListRequest struct {
	Limit int `form:"limit"`
}

// RecentSyncRuns lists the latest sync passes, newest first.
func (s *DashboardService) RecentSyncRuns(req *SyncRunListRequest) ([]models.SyncRun, error) {
	limit := req.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var runs []models.SyncRun
	err := s.db.Order("started_at DESC").Limit(limit).Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
