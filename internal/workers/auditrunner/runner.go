// Package auditrunner drains the background audit queue.
package auditrunner

import (
	"context"
	"log"
	"time"

	"weblser/internal/ports"
)

// Processor performs the audit work for one claimed job.
type Processor interface {
	Process(ctx context.Context, job ports.AuditJob) error
}

// Run starts worker goroutines that claim queued audits and process them.
// Returns immediately; workers stop when ctx is cancelled.
func Run(ctx context.Context, repo ports.JobRepository, processor Processor, concurrency int, pollInterval time.Duration) {
	if concurrency < 1 {
		return
	}
	jobsCh := make(chan ports.AuditJob, concurrency)

	// dispatcher loop
	go func() {
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(jobsCh)
				return
			case <-ticker.C:
				for {
					job, found, err := repo.ClaimNext(ctx)
					if err != nil {
						log.Printf("auditrunner: claim error: %v", err)
						break
					}
					if !found {
						break
					}
					jobsCh <- job
				}
			}
		}
	}()

	for i := 0; i < concurrency; i++ {
		go func(idx int) {
			for job := range jobsCh {
				// The terminal status write must land even when the run
				// context died mid-job, or the claimed job is stranded in
				// running and never reclaimed.
				done := context.WithoutCancel(ctx)
				if err := processor.Process(ctx, job); err != nil {
					_ = repo.MarkFailed(done, job.ID, err.Error())
					log.Printf("auditrunner: worker %d: job %s failed: %v", idx, job.ID, err)
					continue
				}
				if err := repo.MarkCompleted(done, job.ID); err != nil {
					log.Printf("auditrunner: worker %d: complete err: %v", idx, err)
				}
			}
		}(i)
	}
}
