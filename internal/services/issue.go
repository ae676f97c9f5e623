package services

import (
	"errors"

	"github.com/bountydesk/bountydesk/internal/models"
	"gorm.io/gorm"
)

// IssueService serves read access to the local issue store.
type IssueService struct {
	db *gorm.DB
}

func NewIssueService(db *gorm.DB) *IssueService {
	return &IssueService{db: db}
}

type IssueListRequest struct {
	Status   string `form:"status"`
	Reporter string `form:"reporter"`
	Repo     string `form:"repo"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

type IssueListResponse struct {
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
	Items    []models.Issue `json:"items"`
}

// List returns issues optionally filtered by status, reporter and repo,
// newest upstream activity first.
func (s *IssueService) List(req *IssueListRequest) (*IssueListResponse, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 200 {
		req.PageSize = 50
	}

	query := s.db.Model(&models.Issue{})
	if req.Status != "" {
		query = query.Where("status = ?", req.Status)
	}
	if req.Reporter != "" {
		query = query.Where("reporter = ?", req.Reporter)
	}
	if req.Repo != "" {
		query = query.Where("repo = ?", req.Repo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	var items []models.Issue
	err := query.Order("github_updated_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	return &IssueListResponse{
		Total:    total,
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    items,
	}, nil
}

// GetByGitHubID looks one issue up by its external identifier.
func (s *IssueService) GetByGitHubID(githubIssueID int64) (*models.Issue, error) {
	var issue models.Issue
	if err := s.db.Where("github_issue_id = ?", githubIssueID).First(&issue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIssueNotFound
		}
		return nil, err
	}
	return &issue, nil
}
