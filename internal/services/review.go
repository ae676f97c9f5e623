package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// reviewRetryLimit bounds the optimistic-concurrency retry loop when two
// reviewers race on the same issue.
const reviewRetryLimit = 3

var errStaleReview = errors.New("issue status changed since read")

// ReviewService applies reviewer decisions to issues and keeps the reporter's
// point total consistent with them. The status write and the score increment
// are one transaction: either both land or neither does.
type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// SetStatus marks the issue identified by its external GitHub issue id as
// valid or invalid on behalf of reviewer, and moves the reporter's total by
// the resulting delta. Re-reviewing (valid to invalid or back) applies only
// the incremental delta. Returns the updated issue and reporter records.
func (s *ReviewService) SetStatus(githubIssueID int64, newStatus, reviewer string) (*models.Issue, *models.User, error) {
	if !models.ValidReviewStatus(newStatus) {
		return nil, nil, ErrInvalidStatus
	}

	for attempt := 0; attempt < reviewRetryLimit; attempt++ {
		issue, user, err := s.trySetStatus(githubIssueID, newStatus, reviewer)
		if errors.Is(err, errStaleReview) {
			// Another reviewer got there first; reread and recompute the delta
			// against the status they wrote.
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return issue, user, nil
	}
	return nil, nil, ErrReviewConflict
}

func (s *ReviewService) trySetStatus(githubIssueID int64, newStatus, reviewer string) (*models.Issue, *models.User, error) {
	var issue models.Issue
	if err := s.db.Where("github_issue_id = ?", githubIssueID).First(&issue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrIssueNotFound
		}
		return nil, nil, err
	}
	if issue.Immutable {
		return nil, nil, ErrIssueLocked
	}

	oldStatus := issue.Status
	delta := PointsForStatus(newStatus) - PointsForStatus(oldStatus)
	now := time.Now()

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// Guarded on the status we read: if a concurrent review already moved
		// it, zero rows match and we retry with a fresh read instead of
		// applying a stale delta.
		res := tx.Model(&models.Issue{}).
			Where("github_issue_id = ? AND status = ? AND immutable = ?",
				githubIssueID, oldStatus, false).
			Updates(map[string]interface{}{
				"status":    newStatus,
				"marked_by": reviewer,
				"marked_at": now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errStaleReview
		}

		if err := incrementReporterPoints(tx, issue.Reporter, delta); err != nil {
			return fmt.Errorf("%w: %v", ErrScoreUpdate, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	issue.Status = newStatus
	issue.MarkedBy = reviewer
	issue.MarkedAt = &now

	var user models.User
	if err := s.db.Where("username = ?", issue.Reporter).First(&user).Error; err != nil {
		return nil, nil, err
	}

	logger.Info().
		Int64("github_issue_id", githubIssueID).
		Str("old_status", oldStatus).
		Str("new_status", newStatus).
		Str("reviewer", reviewer).
		Str("reporter", issue.Reporter).
		Int("delta", delta).
		Msg("review decision applied")

	return &issue, &user, nil
}

// incrementReporterPoints applies an atomic score delta, creating the reporter
// record with the default role if it does not exist yet. The increment is a
// SQL expression, never a read-modify-write, so concurrent deltas from
// different issues of the same reporter cannot lose updates.
func incrementReporterPoints(tx *gorm.DB, reporter string, delta int) error {
	user := models.User{
		Username:    reporter,
		Role:        models.RoleReporter,
		TotalPoints: delta,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "username"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"total_points": gorm.Expr("total_points + ?", delta),
		}),
	}).Create(&user).Error
}
