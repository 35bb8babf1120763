// Package aggregator runs the full multi-criterion evaluation for one URL:
// fetch once, evaluate every criterion against that single snapshot, then
// combine the results into an EvaluationReport.
package aggregator

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"weblser/internal/criteria"
	"weblser/internal/domain"
	"weblser/internal/ports"
)

const defaultConcurrency = 4

// CriterionEvaluator produces one result per criterion; implementations must
// always return a usable result (degraded at worst), never fail.
type CriterionEvaluator interface {
	Evaluate(ctx context.Context, set criteria.Set, desc criteria.Descriptor, sig *domain.PageSignals, deep bool) domain.CriterionResult
}

// AggregationError marks an invariant violation after dispatch/join: a
// criterion missing or duplicated in the joined results. It indicates a
// programming fault, not an external failure, and is never retried.
type AggregationError struct {
	Reason string
}

func (e *AggregationError) Error() string { return "aggregation invariant violated: " + e.Reason }

// Aggregator combines per-criterion evaluations into reports. Safe for
// concurrent use across independent runs; a run shares no mutable state with
// any other.
type Aggregator struct {
	fetcher     ports.Fetcher
	eval        CriterionEvaluator
	gen         ports.Generator // compliance consolidation only
	set         criteria.Set
	concurrency int
	now         func() time.Time
}

type Option func(*Aggregator)

// WithConcurrency bounds the number of criterion evaluations in flight for
// one report.
func WithConcurrency(n int) Option {
	return func(a *Aggregator) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) { a.now = now }
}

// WithConsolidator supplies the generator used for the compliance
// consolidated overall score.
func WithConsolidator(gen ports.Generator) Option {
	return func(a *Aggregator) { a.gen = gen }
}

func New(fetcher ports.Fetcher, eval CriterionEvaluator, set criteria.Set, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:     fetcher,
		eval:        eval,
		set:         set,
		concurrency: defaultConcurrency,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run produces one report for the URL. A fetch failure aborts the whole run;
// per-criterion failures degrade gracefully inside the evaluator. The report
// is all-or-nothing: cancellation mid-run returns an error, never a partial
// report.
func (a *Aggregator) Run(ctx context.Context, rawurl string, deep bool) (*domain.EvaluationReport, error) {
	sig, err := a.fetcher.Fetch(ctx, rawurl)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawurl, err)
	}
	return a.RunWithSignals(ctx, sig, deep)
}

// RunWithSignals evaluates against pre-fetched signals. All criteria see the
// same snapshot, so one report is internally consistent even if the live page
// changes mid-evaluation.
func (a *Aggregator) RunWithSignals(ctx context.Context, sig *domain.PageSignals, deep bool) (*domain.EvaluationReport, error) {
	results := make([]domain.CriterionResult, len(a.set.Items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, desc := range a.set.Items {
		i, desc := i, desc
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = a.eval.Evaluate(gctx, a.set, desc, sig, deep)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// Cancellation that lands while evaluations are in flight surfaces inside
	// the evaluator as a degraded result, not as a goroutine error. A
	// cancelled run must abort with no report, never return an all-degraded
	// one, so re-check the caller's context after the join.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := a.checkInvariants(results); err != nil {
		return nil, err
	}

	report := &domain.EvaluationReport{
		URL:             sig.URL,
		SiteName:        sig.SiteName,
		GeneratedAt:     a.now().UTC(),
		Scores:          make(map[string]float64, len(results)),
		Criteria:        make(map[string]domain.CriterionResult, len(results)),
		KeyStrengths:    a.extractStrengths(results),
		CriticalIssues:  a.extractIssues(results),
		Recommendations: a.rankRecommendations(results),
	}
	for _, r := range results {
		report.Scores[r.Name] = round1(r.Score)
		report.Criteria[r.Name] = r
	}
	report.OverallScore = a.overallScore(ctx, results)

	return report, nil
}

// checkInvariants verifies every configured criterion produced exactly one
// result in position.
func (a *Aggregator) checkInvariants(results []domain.CriterionResult) error {
	seen := make(map[string]bool, len(results))
	for i, r := range results {
		if r.Name != a.set.Items[i].Name {
			return &AggregationError{Reason: fmt.Sprintf("result %d is %q, expected %q", i, r.Name, a.set.Items[i].Name)}
		}
		if seen[r.Name] {
			return &AggregationError{Reason: fmt.Sprintf("duplicate result for %q", r.Name)}
		}
		seen[r.Name] = true
	}
	return nil
}

// overallScore is the mean of criterion scores for audits, rounded to one
// decimal place. Compliance reports ask the consolidator for a single figure
// and fall back to the mean when that call fails; either way the result is
// clamped to the set's range.
func (a *Aggregator) overallScore(ctx context.Context, results []domain.CriterionResult) float64 {
	var sum float64
	for _, r := range results {
		sum += r.Score
	}
	mean := sum / float64(len(results))

	if a.set.Mode == criteria.ModeCompliance && a.gen != nil {
		if v, ok := a.consolidatedScore(ctx, results); ok {
			return clampRange(round1(v), a.set.RangeMax)
		}
	}
	return clampRange(round1(mean), a.set.RangeMax)
}

// rankedIndices returns criterion positions ordered by score; ties keep the
// configured enumeration order, never map iteration order.
func rankedIndices(results []domain.CriterionResult, descending bool) []int {
	idx := make([]int, len(results))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(x, y int) bool {
		a, b := results[idx[x]], results[idx[y]]
		if a.Score != b.Score {
			if descending {
				return a.Score > b.Score
			}
			return a.Score < b.Score
		}
		return idx[x] < idx[y]
	})
	return idx
}

// extractStrengths takes the first observation of each of the three
// highest-scoring criteria. By convention the first observation is the
// primary strength; that is a heuristic of the prompt contract, not a
// guaranteed semantic split.
func (a *Aggregator) extractStrengths(results []domain.CriterionResult) []string {
	var strengths []string
	for _, i := range rankedIndices(results, true)[:min(3, len(results))] {
		if obs := results[i].Observations; len(obs) > 0 {
			strengths = append(strengths, obs[0])
		}
	}
	if len(strengths) > 5 {
		strengths = strengths[:5]
	}
	return strengths
}

// extractIssues takes the observations after the first from each of the three
// lowest-scoring criteria (the secondary observations, conventionally the
// negative ones).
func (a *Aggregator) extractIssues(results []domain.CriterionResult) []string {
	var issues []string
	for _, i := range rankedIndices(results, false)[:min(3, len(results))] {
		if obs := results[i].Observations; len(obs) > 1 {
			issues = append(issues, obs[1:]...)
		}
	}
	if len(issues) > 5 {
		issues = issues[:5]
	}
	return issues
}

// rankRecommendations flattens every criterion's recommendations and orders
// them by (priority bucket, impact descending, emission order), truncated to
// the top 10. The sort is stable, so identical inputs always produce an
// identical order.
func (a *Aggregator) rankRecommendations(results []domain.CriterionResult) []domain.RankedRecommendation {
	var recs []domain.RankedRecommendation
	for _, r := range results {
		bucket := a.bucketFor(r)
		impact := a.set.RangeMax - r.Score
		if impact < 0 {
			impact = 0
		}
		for i, text := range r.Recommendations {
			recs = append(recs, domain.RankedRecommendation{
				Criterion: r.Name,
				Text:      text,
				Priority:  bucket,
				Impact:    impact,
				Order:     i,
			})
		}
	}
	sort.SliceStable(recs, func(x, y int) bool {
		a, b := recs[x], recs[y]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.Impact != b.Impact {
			return a.Impact > b.Impact
		}
		return a.Order < b.Order
	})
	if len(recs) > 10 {
		recs = recs[:10]
	}
	return recs
}

// bucketFor derives the priority bucket from score thresholds in audit mode;
// compliance results carry an evaluator-supplied priority instead.
func (a *Aggregator) bucketFor(r domain.CriterionResult) domain.PriorityBucket {
	if a.set.Mode == criteria.ModeCompliance {
		switch r.Priority {
		case domain.PriorityImmediate:
			return domain.BucketHigh
		case domain.PriorityLongTerm:
			return domain.BucketLow
		default:
			return domain.BucketMedium
		}
	}
	return a.set.BucketFor(r.Score)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampRange(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
