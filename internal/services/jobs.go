package services

import (
	"context"
	"fmt"

	"github.com/bountydesk/bountydesk/pkg/logger"
)

// JobProcessor dispatches queued jobs to the owning service. It is handed to
// whichever queue implementation is active.
type JobProcessor struct {
	syncService      *SyncService
	recomputeService *RecomputeService
}

func NewJobProcessor(syncService *SyncService, recomputeService *RecomputeService) *JobProcessor {
	return &JobProcessor{
		syncService:      syncService,
		recomputeService: recomputeService,
	}
}

func (p *JobProcessor) Process(ctx context.Context, task *JobTask) error {
	logger.Info().Str("type", task.Type).Str("requested_by", task.RequestedBy).Msg("job started")

	switch task.Type {
	case TaskTypeSync:
		trigger := task.Trigger
		if trigger == "" {
			trigger = "manual"
		}
		_, err := p.syncService.SyncAll(ctx, trigger)
		return err
	case TaskTypeRecompute:
		return p.recomputeService.RecomputeAllScores()
	default:
		return fmt.Errorf("unknown job type: %s", task.Type)
	}
}
