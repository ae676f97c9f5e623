package services

import (
	"context"
	"encoding/json"

	"github.com/bountydesk/bountydesk/internal/config"
	"github.com/bountydesk/bountydesk/pkg/logger"
	"github.com/hibiken/asynq"
)

const (
	TaskTypeSync      = "sync:all"
	TaskTypeRecompute = "scores:recompute"
)

// JobTask is an administrative job queued from the API: a full sync pass or a
// score recomputation.
type JobTask struct {
	Type        string `json:"type"`
	Trigger     string `json:"trigger"`
	RequestedBy string `json:"requested_by"`
}

// TaskQueue decouples job submission from execution. Backed by Redis when
// enabled, otherwise jobs run in-process.
type TaskQueue interface {
	// Enqueue submits a job for execution.
	Enqueue(task *JobTask) error
	// IsAsync returns true if jobs are processed out of process.
	IsAsync() bool
	// Close gracefully shuts down the queue.
	Close() error
}

// NewTaskQueue builds the queue implementation matching the config, falling
// back to in-process execution when Redis is unreachable.
func NewTaskQueue(cfg *config.Config) TaskQueue {
	if cfg.Redis.Enabled {
		queue, err := NewAsyncQueue(&cfg.Redis)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, falling back to in-process job queue")
			return NewSyncQueue()
		}
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("async job queue initialized")
		return queue
	}
	logger.Info().Msg("in-process job queue initialized (redis disabled)")
	return NewSyncQueue()
}

// AsyncQueue implements TaskQueue using asynq (Redis-based).
type AsyncQueue struct {
	client *asynq.Client
}

func NewAsyncQueue(cfg *config.RedisConfig) (*AsyncQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	client := asynq.NewClient(redisOpt)

	// Verify the connection before committing to async mode.
	inspector := asynq.NewInspector(redisOpt)
	defer inspector.Close()
	if _, err := inspector.Queues(); err != nil {
		client.Close()
		return nil, err
	}

	return &AsyncQueue{client: client}, nil
}

func (q *AsyncQueue) Enqueue(task *JobTask) error {
	payload, err := json.Marshal(task)
	if err != nil {
		return err
	}

	t := asynq.NewTask(task.Type, payload)
	info, err := q.client.Enqueue(t,
		asynq.Queue("default"),
		asynq.MaxRetry(3),
	)
	if err != nil {
		return err
	}

	logger.Info().Str("task_id", info.ID).Str("type", task.Type).Msg("job enqueued")
	return nil
}

func (q *AsyncQueue) IsAsync() bool { return true }

func (q *AsyncQueue) Close() error { return q.client.Close() }

// SyncQueue runs jobs in-process without Redis.
type SyncQueue struct {
	processor func(context.Context, *JobTask) error
}

func NewSyncQueue() *SyncQueue {
	return &SyncQueue{}
}

// SetProcessor sets the function jobs are handed to.
func (q *SyncQueue) SetProcessor(processor func(context.Context, *JobTask) error) {
	q.processor = processor
}

// Enqueue runs the job in a background goroutine so the HTTP trigger returns
// immediately, same as the async path.
func (q *SyncQueue) Enqueue(task *JobTask) error {
	if q.processor == nil {
		logger.Warn().Str("type", task.Type).Msg("no job processor set, dropping job")
		return nil
	}

	go func() {
		if err := q.processor(context.Background(), task); err != nil {
			logger.Error().Err(err).Str("type", task.Type).Msg("job failed")
		}
	}()

	return nil
}

func (q *SyncQueue) IsAsync() bool { return false }

func (q *SyncQueue) Close() error { return nil }
