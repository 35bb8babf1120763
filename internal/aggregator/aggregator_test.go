package aggregator

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"testing"
	"time"

	"weblser/internal/criteria"
	"weblser/internal/domain"
)

type stubFetcher struct {
	sig *domain.PageSignals
	err error
}

func (f *stubFetcher) Fetch(context.Context, string) (*domain.PageSignals, error) {
	return f.sig, f.err
}

// stubEvaluator returns canned results keyed by criterion name.
type stubEvaluator struct {
	results map[string]domain.CriterionResult

	mu    sync.Mutex
	calls int
}

func (e *stubEvaluator) Evaluate(_ context.Context, set criteria.Set, desc criteria.Descriptor, _ *domain.PageSignals, _ bool) domain.CriterionResult {
	e.mu.Lock()
	e.calls++
	e.mu.Unlock()
	if r, ok := e.results[desc.Name]; ok {
		r.Name = desc.Name
		return r
	}
	return domain.CriterionResult{Name: desc.Name, Score: set.Midpoint()}
}

type stubGen struct {
	text string
	err  error
}

func (g *stubGen) Complete(context.Context, string, int) (string, error) {
	return g.text, g.err
}

func testSignals() *domain.PageSignals {
	return &domain.PageSignals{URL: "https://example.com", SiteName: "Example"}
}

func auditSet3() criteria.Set {
	return criteria.Set{
		Mode:     criteria.ModeAudit,
		RangeMax: 10,
		Items: []criteria.Descriptor{
			{Name: "A"}, {Name: "B"}, {Name: "C"},
		},
	}
}

func TestRunProducesOneResultPerCriterion(t *testing.T) {
	set := criteria.Audit()
	eval := &stubEvaluator{results: map[string]domain.CriterionResult{}}
	agg := New(&stubFetcher{sig: testSignals()}, eval, set)

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Criteria) != len(set.Items) {
		t.Fatalf("criteria count = %d, want %d", len(report.Criteria), len(set.Items))
	}
	for _, d := range set.Items {
		if _, ok := report.Criteria[d.Name]; !ok {
			t.Errorf("missing criterion %q", d.Name)
		}
	}
	if eval.calls != len(set.Items) {
		t.Errorf("evaluator called %d times, want %d", eval.calls, len(set.Items))
	}
}

func TestOverallScoreIsRoundedMean(t *testing.T) {
	set := criteria.Audit()
	scores := []float64{8.0, 6.0, 7.0, 5.0, 9.0, 4.0, 7.0, 6.0, 8.0, 5.0}
	results := map[string]domain.CriterionResult{}
	for i, d := range set.Items {
		results[d.Name] = domain.CriterionResult{Score: scores[i]}
	}
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set)

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.OverallScore != 6.5 {
		t.Errorf("overall = %v, want 6.5", report.OverallScore)
	}
}

func TestStrengthsAndIssuesOrdering(t *testing.T) {
	set := auditSet3()
	results := map[string]domain.CriterionResult{
		"A": {Score: 3, Observations: []string{"A-first", "A-neg1", "A-neg2"}},
		"B": {Score: 9, Observations: []string{"B-first", "B-neg1"}},
		"C": {Score: 5, Observations: []string{"C-first", "C-neg1"}},
	}
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set)

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	wantStrengths := []string{"B-first", "C-first", "A-first"}
	if !reflect.DeepEqual(report.KeyStrengths, wantStrengths) {
		t.Errorf("strengths = %v, want %v", report.KeyStrengths, wantStrengths)
	}
	wantIssues := []string{"A-neg1", "A-neg2", "C-neg1", "B-neg1"}
	if !reflect.DeepEqual(report.CriticalIssues, wantIssues) {
		t.Errorf("issues = %v, want %v", report.CriticalIssues, wantIssues)
	}
}

func TestScoreTiesBreakOnEnumerationOrder(t *testing.T) {
	set := auditSet3()
	results := map[string]domain.CriterionResult{
		"A": {Score: 7, Observations: []string{"A-first"}},
		"B": {Score: 7, Observations: []string{"B-first"}},
		"C": {Score: 7, Observations: []string{"C-first"}},
	}
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set)

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []string{"A-first", "B-first", "C-first"}
	if !reflect.DeepEqual(report.KeyStrengths, want) {
		t.Errorf("tied strengths = %v, want enumeration order %v", report.KeyStrengths, want)
	}
}

func TestRecommendationRanking(t *testing.T) {
	set := auditSet3()
	results := map[string]domain.CriterionResult{
		// A: score 3 -> High bucket, impact 7
		"A": {Score: 3, Recommendations: []string{"a1", "a2"}},
		// B: score 8 -> Low bucket, impact 2
		"B": {Score: 8, Recommendations: []string{"b1"}},
		// C: score 6 -> Medium bucket, impact 4
		"C": {Score: 6, Recommendations: []string{"c1"}},
	}
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set)

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got []string
	for _, r := range report.Recommendations {
		got = append(got, r.Text)
	}
	want := []string{"a1", "a2", "c1", "b1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ranking = %v, want %v", got, want)
	}

	first := report.Recommendations[0]
	if first.Criterion != "A" || first.Priority != domain.BucketHigh || first.Impact != 7 || first.Order != 0 {
		t.Errorf("first rec = %+v", first)
	}
}

func TestRecommendationRankingIsDeterministic(t *testing.T) {
	set := criteria.Audit()
	results := map[string]domain.CriterionResult{}
	for i, d := range set.Items {
		results[d.Name] = domain.CriterionResult{
			Score:           float64(i%5) + 3,
			Recommendations: []string{fmt.Sprintf("%s-r0", d.Name), fmt.Sprintf("%s-r1", d.Name)},
		}
	}
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set)

	base, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(base.Recommendations) != 10 {
		t.Fatalf("recommendations truncated to %d, want 10", len(base.Recommendations))
	}
	for i := 0; i < 5; i++ {
		report, err := agg.Run(context.Background(), "https://example.com", false)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if !reflect.DeepEqual(report.Recommendations, base.Recommendations) {
			t.Fatalf("run %d produced a different order", i)
		}
	}
}

func TestFetchFailureAbortsWholeReport(t *testing.T) {
	eval := &stubEvaluator{}
	agg := New(&stubFetcher{err: errors.New("connect timeout")}, eval, criteria.Audit())

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err == nil {
		t.Fatal("expected error")
	}
	if report != nil {
		t.Error("expected no partial report")
	}
	if eval.calls != 0 {
		t.Errorf("evaluator invoked %d times after fetch failure", eval.calls)
	}
}

func TestDegradedCriterionDoesNotAffectOthers(t *testing.T) {
	set := auditSet3()
	results := map[string]domain.CriterionResult{
		"A": {Score: 8, Observations: []string{"fine"}},
		"B": {Score: 5, Degraded: true, Observations: []string{"Evaluation encountered an issue: timeout"}},
		"C": {Score: 7, Observations: []string{"fine"}},
	}
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set)

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Criteria["B"].Degraded {
		t.Error("B should be degraded")
	}
	if report.Criteria["A"].Degraded || report.Criteria["C"].Degraded {
		t.Error("A/C must be unaffected")
	}
	if report.Criteria["B"].Score != 5 {
		t.Errorf("degraded score = %v, want midpoint 5", report.Criteria["B"].Score)
	}
}

func TestCancellationAbortsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{}, criteria.Audit())
	if _, err := agg.RunWithSignals(ctx, testSignals(), false); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

// degradingCancelEvaluator waits until every criterion is in flight, cancels
// the run, then hands back degraded results the way the real evaluator does
// when its generation call dies mid-run.
type degradingCancelEvaluator struct {
	started *sync.WaitGroup
	cancel  context.CancelFunc
	once    sync.Once
}

func (e *degradingCancelEvaluator) Evaluate(_ context.Context, set criteria.Set, desc criteria.Descriptor, _ *domain.PageSignals, _ bool) domain.CriterionResult {
	e.started.Done()
	e.started.Wait()
	e.once.Do(e.cancel)
	return domain.CriterionResult{
		Name:         desc.Name,
		Score:        set.Midpoint(),
		Observations: []string{"Evaluation encountered an issue: generation call failed: context canceled"},
		Degraded:     true,
	}
}

func TestCancellationMidRunAbortsWithoutReport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	set := auditSet3()
	var started sync.WaitGroup
	started.Add(len(set.Items))
	eval := &degradingCancelEvaluator{started: &started, cancel: cancel}

	// Concurrency covers the whole set so every evaluation is dispatched
	// before the cancel fires; the results all come back degraded-but-usable.
	agg := New(&stubFetcher{sig: testSignals()}, eval, set, WithConcurrency(len(set.Items)))
	report, err := agg.RunWithSignals(ctx, testSignals(), false)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if report != nil {
		t.Fatal("cancelled run returned a report")
	}
}

type misbehavingEvaluator struct{}

func (misbehavingEvaluator) Evaluate(_ context.Context, _ criteria.Set, _ criteria.Descriptor, _ *domain.PageSignals, _ bool) domain.CriterionResult {
	return domain.CriterionResult{Name: "bogus", Score: 1}
}

func TestInvariantViolationIsAggregationError(t *testing.T) {
	agg := New(&stubFetcher{sig: testSignals()}, misbehavingEvaluator{}, auditSet3())

	_, err := agg.Run(context.Background(), "https://example.com", false)
	var ae *AggregationError
	if !errors.As(err, &ae) {
		t.Fatalf("err = %v, want *AggregationError", err)
	}
}

func TestComplianceConsolidatedScore(t *testing.T) {
	set := criteria.Compliance()
	results := map[string]domain.CriterionResult{}
	for _, d := range set.Items {
		results[d.Name] = domain.CriterionResult{Score: 60, Status: domain.StatusPartiallyCompliant}
	}

	t.Run("consolidated figure wins", func(t *testing.T) {
		agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set,
			WithConsolidator(&stubGen{text: `{"overall_score": 71}`}))
		report, err := agg.Run(context.Background(), "https://example.com", false)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.OverallScore != 71 {
			t.Errorf("overall = %v, want 71", report.OverallScore)
		}
	})

	t.Run("clamped to range", func(t *testing.T) {
		agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set,
			WithConsolidator(&stubGen{text: `{"overall_score": 140}`}))
		report, err := agg.Run(context.Background(), "https://example.com", false)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.OverallScore != 100 {
			t.Errorf("overall = %v, want clamped 100", report.OverallScore)
		}
	})

	t.Run("falls back to mean on failure", func(t *testing.T) {
		agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{results: results}, set,
			WithConsolidator(&stubGen{err: errors.New("quota exceeded")}))
		report, err := agg.Run(context.Background(), "https://example.com", false)
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		if report.OverallScore != 60 {
			t.Errorf("overall = %v, want mean 60", report.OverallScore)
		}
	})
}

func TestReportTimestampUsesClock(t *testing.T) {
	fixed := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	agg := New(&stubFetcher{sig: testSignals()}, &stubEvaluator{}, auditSet3(),
		WithClock(func() time.Time { return fixed }))

	report, err := agg.Run(context.Background(), "https://example.com", false)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.GeneratedAt.Equal(fixed) {
		t.Errorf("timestamp = %v, want %v", report.GeneratedAt, fixed)
	}
}
