package main

import (
	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/internal/handlers"
	"github.com/bountydesk/bountydesk/internal/models"
	"github.com/bountydesk/bountydesk/internal/services"
	"github.com/bountydesk/bountydesk/internal/utils"
	"github.com/bountydesk/bountydesk/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	cfg           *config.Config
	syncScheduler *services.SyncScheduler
	taskQueue     services.TaskQueue
	worker        *services.Worker
	authHandler   *handlers.AuthHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	utils.SetJWTSecret(cfg.JWT.Secret)

	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	// Initialize audit logger
	services.InitSystemLogger(models.GetDB())

	// Start audit log cleanup scheduler
	services.StartLogCleanupScheduler(models.GetDB())

	// Sync engine against the upstream GitHub org
	source := services.NewGitHubSource(cfg.GitHub.Token)
	syncService := services.NewSyncService(models.GetDB(), source, &cfg.GitHub)
	recomputeService := services.NewRecomputeService(models.GetDB())
	processor := services.NewJobProcessor(syncService, recomputeService)

	// Task queue for manual sync/recompute triggers (Redis if enabled,
	// otherwise jobs run in-process)
	taskQueue := services.NewTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(processor.Process)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.NewWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(processor.Process)
			worker.Start()
		}
	}

	// Recurring sync passes
	syncScheduler := services.NewSyncScheduler(syncService, cfg.GitHub.SyncIntervalMin)
	if err := syncScheduler.Start(cfg.GitHub.SyncOnStartup); err != nil {
		logger.Fatalf("Failed to start sync scheduler: %v", err)
	}

	// Create default admin user
	authHandler := handlers.NewAuthHandler(models.GetDB(), cfg)
	if err := authHandler.CreateAdminIfNotExists(); err != nil {
		logger.Warn().Err(err).Msg("Failed to create admin user")
	}

	return &appServices{
		cfg:           cfg,
		syncScheduler: syncScheduler,
		taskQueue:     taskQueue,
		worker:        worker,
		authHandler:   authHandler,
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.syncScheduler.Stop()
	logger.Info().Msg("All schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
