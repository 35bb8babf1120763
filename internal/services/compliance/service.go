// Package compliance runs multi-jurisdiction compliance evaluations.
package compliance

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
	repo ports.ComplianceRepository
}

func New(agg *aggregator.Aggregator, repo ports.ComplianceRepository) *Service {
	return &Service{agg: agg, repo: repo}
}

// Run evaluates every supported jurisdiction and persists the report.
func (s *Service) Run(ctx context.Context, rawurl string) (domain.StoredAudit, error) {
	stored := domain.StoredAudit{
		ID:        uuid.NewString(),
		URL:       rawurl,
		Status:    domain.AuditRunning,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateComplianceReport(ctx, stored.ID, rawurl, stored.Status, stored.CreatedAt); err != nil {
		return stored, err
	}

	report, err := s.agg.Run(ctx, rawurl, false)
	if err != nil {
		stored.Status = domain.AuditFailed
		stored.Error = err.Error()
		_ = s.repo.MarkComplianceFailed(ctx, stored.ID, err.Error())
		return stored, err
	}

	if err := s.repo.SaveComplianceReport(ctx, stored.ID, report); err != nil {
		return stored, err
	}
	stored.Status = domain.AuditCompleted
	stored.Report = report
	return stored, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.StoredAudit, error) {
	return s.repo.GetComplianceReport(ctx, id)
}

func (s *Service) History(ctx context.Context, limit int) ([]domain.StoredAudit, int, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListComplianceReports(ctx, limit)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteComplianceReport(ctx, id)
}
