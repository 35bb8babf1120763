// Package audits orchestrates full evaluation runs, synchronous and queued.
package audits

import (
	"context"
	"time"

	"github.com/google/uuid"

	"weblser/internal/aggregator"
	"weblser/internal/domain"
	"weblser/internal/ports"
)

type Service struct {
	agg  *aggregator.Aggregator
	repo ports.AuditRepository
	jobs ports.JobRepository
}

func New(agg *aggregator.Aggregator, repo ports.AuditRepository, jobs ports.JobRepository) *Service {
	return &Service{agg: agg, repo: repo, jobs: jobs}
}

// Run performs a synchronous audit and persists the completed record. A
// failed run is also persisted, with the failure reason on the record.
func (s *Service) Run(ctx context.Context, rawurl string, deep bool) (domain.StoredAudit, error) {
	stored := domain.StoredAudit{
		ID:        uuid.NewString(),
		URL:       rawurl,
		Status:    domain.AuditRunning,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateAudit(ctx, stored.ID, rawurl, stored.Status, stored.CreatedAt); err != nil {
		return stored, err
	}

	report, err := s.agg.Run(ctx, rawurl, deep)
	if err != nil {
		stored.Status = domain.AuditFailed
		stored.Error = err.Error()
		_ = s.repo.MarkAuditFailed(ctx, stored.ID, err.Error())
		return stored, err
	}

	if err := s.repo.SaveAuditReport(ctx, stored.ID, report); err != nil {
		return stored, err
	}
	stored.Status = domain.AuditCompleted
	stored.Report = report
	return stored, nil
}

// Enqueue records a queued audit and hands it to the background runner.
func (s *Service) Enqueue(ctx context.Context, rawurl string) (domain.StoredAudit, error) {
	stored := domain.StoredAudit{
		ID:        uuid.NewString(),
		URL:       rawurl,
		Status:    domain.AuditQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateAudit(ctx, stored.ID, rawurl, stored.Status, stored.CreatedAt); err != nil {
		return stored, err
	}
	if _, err := s.jobs.EnqueueJob(ctx, stored.ID); err != nil {
		return stored, err
	}
	return stored, nil
}

// Process runs the audit for one claimed job; used by the background runner.
func (s *Service) Process(ctx context.Context, job ports.AuditJob) error {
	report, err := s.agg.Run(ctx, job.URL, false)
	if err != nil {
		_ = s.repo.MarkAuditFailed(ctx, job.AuditID, err.Error())
		return err
	}
	return s.repo.SaveAuditReport(ctx, job.AuditID, report)
}

func (s *Service) Get(ctx context.Context, id string) (domain.StoredAudit, error) {
	return s.repo.GetAudit(ctx, id)
}

func (s *Service) History(ctx context.Context, limit int) ([]domain.StoredAudit, int, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListAudits(ctx, limit)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteAudit(ctx, id)
}

func (s *Service) Clear(ctx context.Context) error {
	return s.repo.ClearAudits(ctx)
}
