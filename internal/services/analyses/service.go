// Package analyses runs summary analyses and persists their history.
package analyses

import (
	"context"
	"time"

	"github.com/google/uuid"

	"weblser/internal/analyzer"
	"weblser/internal/domain"
	"weblser/internal/ports"
)

type Service struct {
	analyzer *analyzer.Analyzer
	repo     ports.AnalysisRepository
}

func New(a *analyzer.Analyzer, repo ports.AnalysisRepository) *Service {
	return &Service{analyzer: a, repo: repo}
}

// Analyze summarizes one page and records the result. The analysis is
// returned even when persistence fails, so the caller still sees the outcome.
func (s *Service) Analyze(ctx context.Context, rawurl string) (domain.StoredAnalysis, error) {
	res := s.analyzer.Analyze(ctx, rawurl)
	stored := domain.StoredAnalysis{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Analysis:  res,
	}
	if err := s.repo.SaveAnalysis(ctx, stored.ID, res, stored.CreatedAt); err != nil {
		return stored, err
	}
	return stored, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.StoredAnalysis, error) {
	return s.repo.GetAnalysis(ctx, id)
}

func (s *Service) History(ctx context.Context, limit int) ([]domain.StoredAnalysis, int, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListAnalyses(ctx, limit)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.DeleteAnalysis(ctx, id)
}

func (s *Service) Clear(ctx context.Context) error {
	return s.repo.ClearAnalyses(ctx)
}
