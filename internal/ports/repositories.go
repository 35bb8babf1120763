package ports

import (
	"context"
	"errors"
	"time"

	"weblser/internal/domain"
)

// ErrNotFound is returned by repositories for unknown IDs.
var ErrNotFound = errors.New("not found")

// AnalysisRepository stores summary-analysis history.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, id string, res domain.AnalysisResult, createdAt time.Time) error
	GetAnalysis(ctx context.Context, id string) (domain.StoredAnalysis, error)
	ListAnalyses(ctx context.Context, limit int) (items []domain.StoredAnalysis, total int, err error)
	DeleteAnalysis(ctx context.Context, id string) error
	ClearAnalyses(ctx context.Context) error
}

// AuditRepository stores audit records and their reports.
type AuditRepository interface {
	CreateAudit(ctx context.Context, id, url string, status domain.AuditStatus, createdAt time.Time) error
	SaveAuditReport(ctx context.Context, id string, report *domain.EvaluationReport) error
	MarkAuditFailed(ctx context.Context, id, reason string) error
	GetAudit(ctx context.Context, id string) (domain.StoredAudit, error)
	ListAudits(ctx context.Context, limit int) (items []domain.StoredAudit, total int, err error)
	DeleteAudit(ctx context.Context, id string) error
	ClearAudits(ctx context.Context) error
}

// ComplianceRepository stores compliance reports; same lifecycle as audits.
type ComplianceRepository interface {
	CreateComplianceReport(ctx context.Context, id, url string, status domain.AuditStatus, createdAt time.Time) error
	SaveComplianceReport(ctx context.Context, id string, report *domain.EvaluationReport) error
	MarkComplianceFailed(ctx context.Context, id, reason string) error
	GetComplianceReport(ctx context.Context, id string) (domain.StoredAudit, error)
	ListComplianceReports(ctx context.Context, limit int) (items []domain.StoredAudit, total int, err error)
	DeleteComplianceReport(ctx context.Context, id string) error
}
