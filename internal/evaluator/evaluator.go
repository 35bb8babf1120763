// Package evaluator turns page signals into one scored CriterionResult per
// criterion by prompting the text-generation collaborator and defensively
// parsing its reply.
package evaluator

import (
	"context"
	"fmt"
	"log"

	"weblser/internal/criteria"
	"weblser/internal/domain"
	"weblser/internal/llmjson"
	"weblser/internal/ports"
)

const defaultMaxTokens = 500

// listCap bounds observation/recommendation lists regardless of how chatty
// the model response is.
const listCap = 5

// Evaluator produces exactly one CriterionResult per invocation. External
// failures never propagate: a generation or parse failure yields a neutral
// fallback result so partial evaluation cannot abort a whole report.
type Evaluator struct {
	gen       ports.Generator
	maxTokens int
}

func New(gen ports.Generator) *Evaluator {
	return &Evaluator{gen: gen, maxTokens: defaultMaxTokens}
}

// response is the JSON shape requested from the generation call. Compliance
// fields are absent in audit mode.
type response struct {
	Score           float64  `json:"score"`
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`
	Status          string   `json:"status"`
	RiskLevel       string   `json:"risk_level"`
	Priority        string   `json:"priority"`
}

// Evaluate scores one criterion of the configured set against the page
// signals. The deep flag widens the evaluation context; it never changes the
// response shape.
func (e *Evaluator) Evaluate(ctx context.Context, set criteria.Set, desc criteria.Descriptor, sig *domain.PageSignals, deep bool) domain.CriterionResult {
	prompt := buildPrompt(set, desc, sig, deep)

	text, err := e.gen.Complete(ctx, prompt, e.maxTokens)
	if err != nil {
		log.Printf("evaluator: %s: generation failed: %v", desc.Name, err)
		return fallback(set, desc, fmt.Sprintf("generation call failed: %v", err))
	}

	var r response
	if err := llmjson.Decode(text, &r); err != nil {
		log.Printf("evaluator: %s: unparseable response: %v", desc.Name, err)
		return fallback(set, desc, fmt.Sprintf("response could not be parsed: %v", err))
	}

	res := domain.CriterionResult{
		Name:            desc.Name,
		Score:           clamp(r.Score, 0, set.RangeMax),
		Observations:    capList(r.Observations),
		Recommendations: capList(r.Recommendations),
	}
	if set.Mode == criteria.ModeCompliance {
		res.Status = parseStatus(r.Status)
		res.RiskLevel = parseRisk(r.RiskLevel)
		res.Priority = parsePriority(r.Priority)
	}
	return res
}

// fallback is the documented neutral result: midpoint score, one observation
// stating the evaluation was degraded, one generic recommendation.
func fallback(set criteria.Set, desc criteria.Descriptor, reason string) domain.CriterionResult {
	res := domain.CriterionResult{
		Name:            desc.Name,
		Score:           set.Midpoint(),
		Observations:    []string{"Evaluation encountered an issue: " + reason},
		Recommendations: []string{"Manual review recommended"},
		Degraded:        true,
	}
	if set.Mode == criteria.ModeCompliance {
		res.Status = domain.StatusPartiallyCompliant
		res.RiskLevel = domain.RiskMedium
		res.Priority = domain.PriorityShortTerm
	}
	return res
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func capList(items []string) []string {
	if len(items) > listCap {
		return items[:listCap]
	}
	return items
}

// Enum parsing is forgiving: the generation call is asked for exact values
// but unexpected strings degrade to the middle of each scale rather than
// failing the jurisdiction.

func parseStatus(s string) domain.ComplianceStatus {
	switch domain.ComplianceStatus(s) {
	case domain.StatusCompliant, domain.StatusPartiallyCompliant, domain.StatusNonCompliant:
		return domain.ComplianceStatus(s)
	}
	return domain.StatusPartiallyCompliant
}

func parseRisk(s string) domain.RiskLevel {
	switch domain.RiskLevel(s) {
	case domain.RiskCritical, domain.RiskHigh, domain.RiskMedium, domain.RiskLow:
		return domain.RiskLevel(s)
	}
	return domain.RiskMedium
}

func parsePriority(s string) domain.RemediationPriority {
	switch domain.RemediationPriority(s) {
	case domain.PriorityImmediate, domain.PriorityShortTerm, domain.PriorityLongTerm:
		return domain.RemediationPriority(s)
	}
	return domain.PriorityShortTerm
}
