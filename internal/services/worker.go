package services

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/pkg/logger"
	"github.com/hibiken/asynq"
)

// Worker consumes jobs from the Redis-backed queue and hands them to the job
// processor. Only started when Redis is enabled.
type Worker struct {
	server    *asynq.Server
	mux       *asynq.ServeMux
	processor func(context.Context, *JobTask) error
	wg        sync.WaitGroup
	running   bool
	mu        sync.Mutex
}

func NewWorker(cfg *config.RedisConfig) *Worker {
	if !cfg.Enabled {
		return nil
	}

	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			// Sync passes serialize the heavy work per repository already;
			// two concurrent jobs are plenty.
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error().Err(err).Str("type", task.Type()).Msg("job processing error")
			}),
		},
	)

	return &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
	}
}

// SetProcessor sets the function jobs are handed to.
func (w *Worker) SetProcessor(processor func(context.Context, *JobTask) error) {
	w.processor = processor
}

// Start begins consuming jobs.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	w.mux.HandleFunc(TaskTypeSync, w.handleJob)
	w.mux.HandleFunc(TaskTypeRecompute, w.handleJob)

	w.running = true
	w.wg.Add(1)

	go func() {
		defer w.wg.Done()
		logger.Info().Msg("job worker starting")
		if err := w.server.Run(w.mux); err != nil {
			logger.Error().Err(err).Msg("job worker stopped with error")
		}
	}()

	return nil
}

// Stop gracefully shuts the worker down.
func (w *Worker) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}

	w.server.Shutdown()
	w.running = false
	w.wg.Wait()
	logger.Info().Msg("job worker stopped")
}

func (w *Worker) handleJob(ctx context.Context, t *asynq.Task) error {
	var task JobTask
	if err := json.Unmarshal(t.Payload(), &task); err != nil {
		logger.Error().Err(err).Msg("failed to unmarshal job payload")
		return err
	}
	if task.Type == "" {
		task.Type = t.Type()
	}

	if w.processor == nil {
		logger.Warn().Str("type", task.Type).Msg("no job processor set")
		return nil
	}

	return w.processor(ctx, &task)
}
