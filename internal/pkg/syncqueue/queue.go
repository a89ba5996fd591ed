package syncqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/DennisVerbeek/TravelDesk/internal/pkg/compositor"
)

const (
	// Redis key prefixes
	JobKeyPrefix     = "sync_job:"
	JobQueueKey      = "sync_job_queue"
	JobProcessingKey = "sync_job_processing"
	JobStatsKey      = "sync_job_stats"

	// Job settings
	DefaultMaxRetries = 3
	JobTTL            = 24 * time.Hour // Jobs expire after 24 hours
)

// SyncRunner executes one microsite sync. Satisfied by bookingstore.SyncService.
type SyncRunner interface {
	SyncMicrosite(ctx context.Context, configNumber int) ([]compositor.Booking, error)
}

// Queue manages background resync jobs using Redis
type Queue struct {
	client  *redis.Client
	runner  SyncRunner
	workers int
	stopCh  chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
}

// NewQueue creates a new sync job queue
func NewQueue(client *redis.Client, runner SyncRunner, workers int) *Queue {
	if workers <= 0 {
		workers = 2 // Resyncs are heavy upstream calls, keep concurrency low
	}

	return &Queue{
		client:  client,
		runner:  runner,
		workers: workers,
		stopCh:  make(chan struct{}),
	}
}

// Start starts the queue workers
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.running {
		return
	}

	q.stopCh = make(chan struct{})
	q.running = true
	log.Infof("[SyncQueue] Starting %d workers", q.workers)

	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
}

// Stop stops the queue workers and waits for them to drain
func (q *Queue) Stop() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.running {
		return
	}

	log.Info("[SyncQueue] Stopping workers...")
	close(q.stopCh)
	q.running = false
	q.wg.Wait()
	log.Info("[SyncQueue] All workers stopped")
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	log.Infof("[SyncQueue] Worker %d started", id)

	ctx := context.Background()

	for {
		select {
		case <-q.stopCh:
			log.Infof("[SyncQueue] Worker %d stopping", id)
			return
		default:
			job, err := q.dequeueJob(ctx)
			if err != nil {
				if err != redis.Nil {
					log.Errorf("[SyncQueue] Worker %d: Error dequeuing job: %v", id, err)
					time.Sleep(time.Second)
				}
				continue
			}
			if job != nil {
				log.Infof("[SyncQueue] Worker %d processing job %s (config %d)", id, job.ID, job.ConfigNumber)
				q.processJob(ctx, job)
			}
		}
	}
}

// EnqueueResync adds a resync job for one configuration to the queue
func (q *Queue) EnqueueResync(configNumber int) (*Job, error) {
	ctx := context.Background()

	job := &Job{
		ID:           uuid.New().String(),
		Type:         JobTypeMicrositeResync,
		Status:       JobStatusPending,
		ConfigNumber: configNumber,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
		RetryCount:   0,
		MaxRetries:   DefaultMaxRetries,
	}

	jobData, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job: %w", err)
	}

	// Use a pipeline so the job record and the queue entry land together
	pipe := q.client.Pipeline()
	pipe.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL)
	pipe.LPush(ctx, JobQueueKey, job.ID)
	pipe.HIncrBy(ctx, JobStatsKey, string(JobStatusPending), 1)

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to enqueue job: %w", err)
	}

	log.Infof("[SyncQueue] Enqueued resync job %s for config %d", job.ID, configNumber)
	return job, nil
}

// dequeueJob moves the next job id from pending to processing and loads it
func (q *Queue) dequeueJob(ctx context.Context) (*Job, error) {
	jobID, err := q.client.BRPopLPush(ctx, JobQueueKey, JobProcessingKey, time.Second).Result()
	if err != nil {
		return nil, err
	}

	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		// Job data not found, remove from processing queue
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("job data not found for ID %s", jobID)
	}

	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		q.client.LRem(ctx, JobProcessingKey, 1, jobID)
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", jobID, err)
	}

	return &job, nil
}

func (q *Queue) processJob(ctx context.Context, job *Job) {
	job.MarkAsProcessing()
	q.updateJob(ctx, job)

	var err error
	switch job.Type {
	case JobTypeMicrositeResync:
		_, err = q.runner.SyncMicrosite(ctx, job.ConfigNumber)
	default:
		err = fmt.Errorf("unknown job type: %s", job.Type)
	}

	if err != nil {
		log.Errorf("[SyncQueue] Job %s failed: %v", job.ID, err)
		job.MarkAsFailed(err.Error())

		if job.IsRetryable() {
			log.Infof("[SyncQueue] Retrying job %s (Attempt %d/%d)", job.ID, job.RetryCount, job.MaxRetries)
			job.MarkAsRetrying()
			q.updateJob(ctx, job)
			q.client.LRem(ctx, JobProcessingKey, 1, job.ID)
			q.client.RPush(ctx, JobQueueKey, job.ID)
			return
		}

		q.updateJob(ctx, job)
		q.client.LRem(ctx, JobProcessingKey, 1, job.ID)
		q.client.HIncrBy(ctx, JobStatsKey, string(JobStatusFailed), 1)
		return
	}

	job.MarkAsCompleted()
	q.updateJob(ctx, job)
	q.client.LRem(ctx, JobProcessingKey, 1, job.ID)
	q.client.HIncrBy(ctx, JobStatsKey, string(JobStatusCompleted), 1)
}

func (q *Queue) updateJob(ctx context.Context, job *Job) {
	jobData, err := json.Marshal(job)
	if err != nil {
		log.Errorf("[SyncQueue] Failed to marshal job %s: %v", job.ID, err)
		return
	}
	if err := q.client.Set(ctx, JobKeyPrefix+job.ID, jobData, JobTTL).Err(); err != nil {
		log.Errorf("[SyncQueue] Failed to update job %s: %v", job.ID, err)
	}
}

// ErrJobNotFound is returned by GetJob for unknown or expired job ids.
var ErrJobNotFound = errors.New("sync job not found")

// GetJob loads one job record by id
func (q *Queue) GetJob(ctx context.Context, jobID string) (*Job, error) {
	jobData, err := q.client.Get(ctx, JobKeyPrefix+jobID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	var job Job
	if err := json.Unmarshal([]byte(jobData), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Stats returns the per-status job counters
func (q *Queue) Stats(ctx context.Context) (map[string]int64, error) {
	raw, err := q.client.HGetAll(ctx, JobStatsKey).Result()
	if err != nil {
		return nil, err
	}
	stats := make(map[string]int64, len(raw))
	for status, count := range raw {
		var n int64
		_, _ = fmt.Sscan(count, &n)
		stats[status] = n
	}
	return stats, nil
}
