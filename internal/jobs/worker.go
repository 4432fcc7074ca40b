// Package jobs runs background ingestion work on an in-memory queue with a
// fixed worker pool. Job state is kept in process memory so callers can
// observe progress; nothing survives a restart.
package jobs

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/cloo-solutions/tenantex/internal/domain"
	"github.com/google/uuid"
)

// JobProcessor performs the actual ingestion work for one job.
type JobProcessor interface {
	ProcessJob(ctx context.Context, job domain.IngestionJob) error
}

// JobRecord is the observable state of one queued or finished job.
type JobRecord struct {
	Job       domain.IngestionJob
	Status    domain.JobStatus
	Error     string
	UpdatedAt time.Time
}

// Queue accepts ingestion jobs and hands them to a pool of workers. Each
// worker owns its own execution context and I/O; jobs for the same tenant
// are not serialized against each other or against queries.
type Queue struct {
	processor JobProcessor
	workers   int

	jobs     chan domain.IngestionJob
	stopOnce sync.Once
	stopped  chan struct{}
	wg       sync.WaitGroup

	mu      sync.RWMutex
	records map[string]*JobRecord
}

// NewQueue creates a queue with the given worker count and buffer size.
func NewQueue(processor JobProcessor, workers, buffer int) *Queue {
	if workers <= 0 {
		workers = 4
	}
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{
		processor: processor,
		workers:   workers,
		jobs:      make(chan domain.IngestionJob, buffer),
		stopped:   make(chan struct{}),
		records:   make(map[string]*JobRecord),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled or the
// queue is stopped.
func (q *Queue) Start(ctx context.Context) {
	log.Printf("ingestion queue started with %d workers", q.workers)
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
}

// Stop prevents new enqueues and waits for in-flight jobs to finish.
// Buffered jobs that have not started yet are abandoned; they remain
// visible as pending records.
func (q *Queue) Stop() {
	q.stopOnce.Do(func() {
		close(q.stopped)
	})
	q.wg.Wait()
	log.Println("ingestion queue shutdown complete")
}

// Enqueue registers a new job and returns its id immediately; processing
// happens on a worker, detached from the caller.
func (q *Queue) Enqueue(tenantID, objectKey string) (string, error) {
	job := domain.IngestionJob{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		ObjectKey:  objectKey,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := domain.ValidateIngestionJob(&job); err != nil {
		return "", err
	}

	select {
	case <-q.stopped:
		return "", domain.ErrQueueStopped
	default:
	}

	q.setRecord(job, domain.JobStatusPending, "")

	select {
	case q.jobs <- job:
		return job.ID, nil
	default:
		q.dropRecord(job.ID)
		return "", domain.ErrQueueFull
	}
}

// Status returns the record for a job id.
func (q *Queue) Status(jobID string) (*JobRecord, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	rec, ok := q.records[jobID]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	copied := *rec
	return &copied, nil
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopped:
			return
		case job := <-q.jobs:
			q.setRecord(job, domain.JobStatusProcessing, "")
			if err := q.processor.ProcessJob(ctx, job); err != nil {
				log.Printf("ingestion job %s failed: %v", job.ID, err)
				q.setRecord(job, domain.JobStatusFailed, err.Error())
				continue
			}
			q.setRecord(job, domain.JobStatusDone, "")
		}
	}
}

func (q *Queue) setRecord(job domain.IngestionJob, status domain.JobStatus, errMsg string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records[job.ID] = &JobRecord{
		Job:       job,
		Status:    status,
		Error:     errMsg,
		UpdatedAt: time.Now().UTC(),
	}
}

func (q *Queue) dropRecord(jobID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.records, jobID)
}
