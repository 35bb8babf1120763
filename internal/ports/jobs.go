package ports

import "context"

// AuditJob is one queued background audit.
type AuditJob struct {
	ID      string
	AuditID string
	URL     string
}

// JobRepository supports claiming and completing background audit jobs.
type JobRepository interface {
	EnqueueJob(ctx context.Context, auditID string) (jobID string, err error)
	ClaimNext(ctx context.Context) (job AuditJob, found bool, err error)
	MarkCompleted(ctx context.Context, jobID string) error
	MarkFailed(ctx context.Context, jobID string, reason string) error
}
