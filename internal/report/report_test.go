package report

import (
	"strings"
	"testing"
	"time"

	"weblser/internal/domain"
)

func sampleReport() *domain.EvaluationReport {
	return &domain.EvaluationReport{
		URL:          "https://example.com",
		SiteName:     "Example Co",
		GeneratedAt:  time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC),
		OverallScore: 6.5,
		Scores: map[string]float64{
			"Performance": 8.5,
			"Security":    6.0,
			"SEO":         4.0,
		},
		KeyStrengths:   []string{"Fast page loads"},
		CriticalIssues: []string{"Missing meta descriptions"},
		Recommendations: []domain.RankedRecommendation{
			{Criterion: "SEO", Text: "Add meta descriptions", Priority: domain.BucketHigh, Impact: 6, Order: 0},
		},
	}
}

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}

func TestParseDocumentType(t *testing.T) {
	for _, valid := range []string{"audit-report", "improvement-plan", "partnership-proposal"} {
		if _, err := ParseDocumentType(valid); err != nil {
			t.Errorf("ParseDocumentType(%q): %v", valid, err)
		}
	}
	if _, err := ParseDocumentType("invoice"); err == nil {
		t.Error("ParseDocumentType accepted unknown type")
	}
}

func TestRenderAuditReport(t *testing.T) {
	out, err := newRenderer(t).RenderAudit(DocAuditReport, sampleReport(), Options{})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}
	html := string(out)

	for _, want := range []string{
		"Website Audit Report",
		"Example Co",
		"https://example.com",
		"March 14, 2026",
		"6.5",
		"Fast page loads",
		"Missing meta descriptions",
		"WebAudit Pro", // default branding
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestRenderScoreStatuses(t *testing.T) {
	out, err := newRenderer(t).RenderAudit(DocAuditReport, sampleReport(), Options{})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Excellent", "Good", "Needs Work"} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing status %q", want)
		}
	}
}

func TestRenderImprovementPlanBranding(t *testing.T) {
	out, err := newRenderer(t).RenderAudit(DocImprovementPlan, sampleReport(), Options{
		ClientName:     "Acme",
		CompanyName:    "Studio North",
		CompanyDetails: "hello@studionorth.test",
	})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}
	html := string(out)
	for _, want := range []string{
		"Website Improvement Plan - Acme",
		"Studio North",
		"hello@studionorth.test",
		"Add meta descriptions",
		"Priority: High",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("document missing %q", want)
		}
	}
}

func TestRenderPartnershipProposalDefaultsClientToSite(t *testing.T) {
	out, err := newRenderer(t).RenderAudit(DocPartnershipProposal, sampleReport(), Options{})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}
	if !strings.Contains(string(out), "Digital Partnership Proposal - Example Co") {
		t.Error("client name did not default to site name")
	}
}

func TestRenderDarkTheme(t *testing.T) {
	r := newRenderer(t)

	light, err := r.RenderAudit(DocAuditReport, sampleReport(), Options{})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}
	dark, err := r.RenderAudit(DocAuditReport, sampleReport(), Options{DarkTheme: true})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}

	if strings.Contains(string(light), `class="dark"`) {
		t.Error("light theme rendered with dark class")
	}
	if !strings.Contains(string(dark), `class="dark"`) {
		t.Error("dark theme missing dark class")
	}
}

func TestRenderSummary(t *testing.T) {
	out, err := newRenderer(t).RenderSummary(&domain.AnalysisResult{
		URL:     "https://example.com",
		Title:   "Example",
		Summary: "A site about examples.",
		Success: true,
	}, Options{})
	if err != nil {
		t.Fatalf("RenderSummary: %v", err)
	}
	html := string(out)
	for _, want := range []string{"Website Summary Report", "A site about examples."} {
		if !strings.Contains(html, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}

func TestRenderEscapesUntrustedText(t *testing.T) {
	rep := sampleReport()
	rep.KeyStrengths = []string{`<script>alert("x")</script>`}

	out, err := newRenderer(t).RenderAudit(DocAuditReport, rep, Options{})
	if err != nil {
		t.Fatalf("RenderAudit: %v", err)
	}
	if strings.Contains(string(out), "<script>alert") {
		t.Error("untrusted text not escaped")
	}
}
