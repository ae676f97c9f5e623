package services

import (
	"github.com/bountydesk/bountydesk/internal/models"
	"gorm.io/gorm"
)

const (
	leaderboardDefaultLimit = 50
	leaderboardMaxLimit     = 200
)

// LeaderboardService ranks reporters by their aggregate point totals.
type LeaderboardService struct {
	db *gorm.DB
}

func NewLeaderboardService(db *gorm.DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

type LeaderboardRequest struct {
	Limit            int  `form:"limit"`
	ExcludeReviewers bool `form:"exclude_reviewers"`
}

type LeaderboardEntry struct {
	Username    string `json:"username"`
	TotalPoints int    `json:"total_points"`
	Role        string `json:"role"`
}

// Top returns reporters ordered by total points descending. The result count
// is capped at 200 (default 50); reviewer and admin identities can be
// filtered out for public boards.
func (s *LeaderboardService) Top(req *LeaderboardRequest) ([]LeaderboardEntry, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = leaderboardDefaultLimit
	}
	if limit > leaderboardMaxLimit {
		limit = leaderboardMaxLimit
	}

	query := s.db.Model(&models.User{})
	if req.ExcludeReviewers {
		query = query.Where("role = ?", models.RoleReporter)
	}

	var entries []LeaderboardEntry
	err := query.Select("username, total_points, role").
		Order("total_points DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
