package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bountydesk/bountydesk/pkg/logger"
	"github.com/robfig/cron/v3"
)

// SyncScheduler runs the sync engine on a fixed interval. Overlap policy is
// skip-if-running: the merge-upsert is idempotent, so a skipped tick loses
// nothing, and skipping keeps a slow upstream from stacking passes.
type SyncScheduler struct {
	syncService *SyncService
	interval    time.Duration
	cron        *cron.Cron
	entryID     cron.EntryID

	mu      sync.Mutex
	running bool
}

func NewSyncScheduler(syncService *SyncService, intervalMin int) *SyncScheduler {
	return &SyncScheduler{
		syncService: syncService,
		interval:    time.Duration(intervalMin) * time.Minute,
	}
}

// Start schedules recurring sync passes. If runNow is true an initial pass is
// kicked off immediately in the background, mirroring the startup fetch.
func (s *SyncScheduler) Start(runNow bool) error {
	s.cron = cron.New()

	spec := fmt.Sprintf("@every %s", s.interval)
	entryID, err := s.cron.AddFunc(spec, func() {
		s.runPass("scheduled")
	})
	if err != nil {
		return err
	}
	s.entryID = entryID
	s.cron.Start()
	logger.Info().Str("interval", s.interval.String()).Msg("sync scheduler started")

	if runNow {
		go s.runPass("startup")
	}
	return nil
}

// Stop halts the schedule. An in-flight pass finishes on its own.
func (s *SyncScheduler) Stop() {
	if s.cron != nil {
		s.cron.Remove(s.entryID)
		s.cron.Stop()
		logger.Info().Msg("sync scheduler stopped")
	}
}

func (s *SyncScheduler) runPass(trigger string) {
	if !s.tryAcquire() {
		logger.Debug().Str("trigger", trigger).Msg("sync pass already running, skipping tick")
		return
	}
	defer s.release()

	if _, err := s.syncService.SyncAll(context.Background(), trigger); err != nil {
		logger.Error().Err(err).Str("trigger", trigger).Msg("sync pass failed")
	}
}

func (s *SyncScheduler) tryAcquire() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *SyncScheduler) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}
