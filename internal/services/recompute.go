package services

import (
	"time"

	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const recomputeBatchSize = 500

// RecomputeService rebuilds every reporter total from the issue store. It is
// the repair path for any drift left behind by partial review failures or
// manual data edits.
type RecomputeService struct {
	db *gorm.DB
}

func NewRecomputeService(db *gorm.DB) *RecomputeService {
	return &RecomputeService{db: db}
}

// RecomputeAllScores zeroes every existing total, streams the issue store in
// batches, and upserts the accumulated totals. Roles and identities are
// preserved; reporters with no record and zero accumulated points are not
// created. Idempotent for a fixed issue-store state.
//
// Reviews applied while this job runs may be overwritten with a total that
// predates them; run it during a quiet window or simply run it again — it
// converges.
func (s *RecomputeService) RecomputeAllScores() error {
	start := time.Now()

	// The one deliberate bulk write in the system.
	err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).
		Model(&models.User{}).
		Update("total_points", 0).Error
	if err != nil {
		return err
	}

	totals := make(map[string]int)
	var issues []models.Issue
	err = s.db.FindInBatches(&issues, recomputeBatchSize, func(tx *gorm.DB, batch int) error {
		for _, issue := range issues {
			if issue.Reporter == "" {
				continue
			}
			totals[issue.Reporter] += PointsForStatus(issue.Status)
		}
		return nil
	}).Error
	if err != nil {
		return err
	}

	for reporter, total := range totals {
		user := models.User{
			Username:    reporter,
			Role:        models.RoleReporter,
			TotalPoints: total,
		}
		err := s.db.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "username"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"total_points": total,
			}),
		}).Create(&user).Error
		if err != nil {
			return err
		}
	}

	logger.Info().
		Int("reporters", len(totals)).
		Dur("elapsed", time.Since(start)).
		Msg("score recomputation finished")

	return nil
}
