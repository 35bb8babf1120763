package aggregator

import (
	"context"
	"fmt"
	"log"
	"strings"

	"weblser/internal/domain"
	"weblser/internal/llmjson"
)

// consolidatedScore asks the generation collaborator for a single overall
// compliance figure across all jurisdiction results. Failure is not fatal:
// the caller falls back to the mean.
func (a *Aggregator) consolidatedScore(ctx context.Context, results []domain.CriterionResult) (float64, bool) {
	var b strings.Builder
	b.WriteString("You are consolidating a multi-jurisdiction website compliance assessment into one overall score.\n\n")
	b.WriteString("Jurisdiction results:\n")
	for _, r := range results {
		fmt.Fprintf(&b, "- %s: score %.0f, status %s, risk %s\n", r.Name, r.Score, r.Status, r.RiskLevel)
	}
	fmt.Fprintf(&b, "\nProvide one consolidated compliance score from 0-%d weighing the severity of each jurisdiction's findings.\n\n", int(a.set.RangeMax))
	b.WriteString("Format your response as JSON:\n{\"overall_score\": X}\n")

	text, err := a.gen.Complete(ctx, b.String(), 100)
	if err != nil {
		log.Printf("aggregator: consolidation call failed, using mean: %v", err)
		return 0, false
	}
	var r struct {
		OverallScore float64 `json:"overall_score"`
	}
	if err := llmjson.Decode(text, &r); err != nil {
		log.Printf("aggregator: consolidation response unparseable, using mean: %v", err)
		return 0, false
	}
	return r.OverallScore, true
}
