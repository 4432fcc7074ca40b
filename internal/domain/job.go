package domain

import "time"

// JobStatus is the lifecycle state of a background ingestion job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusDone       JobStatus = "done"
	JobStatusFailed     JobStatus = "failed"
)

// IngestionJob identifies one (tenant, object key) pair queued for
// background ingestion. Jobs are ephemeral: they live in process memory
// only and are lost on restart; re-enqueueing is the caller's concern.
type IngestionJob struct {
	ID         string
	TenantID   string
	ObjectKey  string
	EnqueuedAt time.Time
}

// ValidateIngestionJob checks required job fields.
func ValidateIngestionJob(j *IngestionJob) error {
	if j == nil {
		return NewDomainError(ErrCodeValidation, "ingestion job cannot be nil")
	}
	if j.TenantID == "" {
		return ErrTenantIDRequired
	}
	if j.ObjectKey == "" {
		return ErrObjectKeyRequired
	}
	return nil
}
