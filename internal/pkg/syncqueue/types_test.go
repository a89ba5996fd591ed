package syncqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestJobStateTransitions(t *testing.T) {
	job := &Job{
		ID:           "job-1",
		Type:         JobTypeMicrositeResync,
		Status:       JobStatusPending,
		ConfigNumber: 2,
		MaxRetries:   DefaultMaxRetries,
	}

	job.MarkAsProcessing()
	assert.Equal(t, JobStatusProcessing, job.Status)
	assert.NotNil(t, job.ProcessedAt)

	job.MarkAsCompleted()
	assert.Equal(t, JobStatusCompleted, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.Empty(t, job.ErrorMsg)
}

func TestJobRetryBudget(t *testing.T) {
	job := &Job{MaxRetries: 2}

	job.MarkAsFailed("upstream timeout")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "upstream timeout", job.ErrorMsg)
	assert.Equal(t, 1, job.RetryCount)
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("still broken")
	assert.True(t, job.IsRetryable())

	job.MarkAsFailed("gave up")
	assert.False(t, job.IsRetryable())
}

func TestConstants(t *testing.T) {
	assert.Equal(t, "sync_job:", JobKeyPrefix)
	assert.Equal(t, "sync_job_queue", JobQueueKey)
	assert.Equal(t, "sync_job_processing", JobProcessingKey)
	assert.Equal(t, 3, DefaultMaxRetries)
	assert.Equal(t, 24*time.Hour, JobTTL)
}

func TestNewQueueDefaults(t *testing.T) {
	queue := NewQueue(nil, nil, 0)
	assert.Equal(t, 2, queue.workers)
	assert.NotNil(t, queue.stopCh)
	assert.False(t, queue.running)

	queue = NewQueue(nil, nil, 5)
	assert.Equal(t, 5, queue.workers)
}
