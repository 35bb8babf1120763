// Package report renders stored evaluation results into branded, print-ready
// HTML documents.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"sort"
	"time"

	"weblser/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

// DocumentType selects which branded document to render from an audit.
type DocumentType string

const (
	DocAuditReport         DocumentType = "audit-report"
	DocImprovementPlan     DocumentType = "improvement-plan"
	DocPartnershipProposal DocumentType = "partnership-proposal"
)

// ParseDocumentType validates a document type from the request path.
func ParseDocumentType(s string) (DocumentType, error) {
	switch DocumentType(s) {
	case DocAuditReport, DocImprovementPlan, DocPartnershipProposal:
		return DocumentType(s), nil
	}
	return "", fmt.Errorf("invalid document type %q: must be one of %s, %s, %s",
		s, DocAuditReport, DocImprovementPlan, DocPartnershipProposal)
}

// Options carries branding and presentation choices for a rendered document.
type Options struct {
	ClientName     string
	CompanyName    string
	CompanyDetails string
	DarkTheme      bool
}

func (o Options) withDefaults(rep *domain.EvaluationReport) Options {
	if o.CompanyName == "" {
		o.CompanyName = "WebAudit Pro"
	}
	if o.ClientName == "" && rep != nil {
		o.ClientName = rep.SiteName
	}
	return o
}

type scoreRow struct {
	Criterion string
	Score     float64
	Status    string
	Class     string
}

type documentData struct {
	Title    string
	Opts     Options
	Report   *domain.EvaluationReport
	Analysis *domain.AnalysisResult
	Scores   []scoreRow
	Year     int
}

type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"score1": func(v float64) string { return fmt.Sprintf("%.1f", v) },
		"date":   func(t time.Time) string { return t.Format("January 2, 2006") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse report templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// RenderAudit renders one of the branded audit documents.
func (r *Renderer) RenderAudit(doc DocumentType, rep *domain.EvaluationReport, opts Options) ([]byte, error) {
	opts = opts.withDefaults(rep)
	data := &documentData{
		Opts:   opts,
		Report: rep,
		Scores: scoreRows(rep.Scores),
		Year:   time.Now().Year(),
	}

	var name string
	switch doc {
	case DocAuditReport:
		name = "audit_report.html"
		data.Title = "Website Audit Report"
	case DocImprovementPlan:
		name = "improvement_plan.html"
		data.Title = "Website Improvement Plan - " + opts.ClientName
	case DocPartnershipProposal:
		name = "partnership_proposal.html"
		data.Title = "Digital Partnership Proposal - " + opts.ClientName
	default:
		return nil, fmt.Errorf("invalid document type %q", doc)
	}
	return r.render(name, data)
}

// RenderSummary renders a single-page summary document for an analysis.
func (r *Renderer) RenderSummary(res *domain.AnalysisResult, opts Options) ([]byte, error) {
	data := &documentData{
		Title:    "Website Summary Report",
		Opts:     opts.withDefaults(nil),
		Analysis: res,
		Year:     time.Now().Year(),
	}
	return r.render("summary_report.html", data)
}

func (r *Renderer) render(name string, data *documentData) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// scoreRows flattens the score map into a stable, alphabetical table.
func scoreRows(scores map[string]float64) []scoreRow {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]scoreRow, 0, len(names))
	for _, name := range names {
		score := scores[name]
		row := scoreRow{Criterion: name, Score: score}
		switch {
		case score >= 8:
			row.Status, row.Class = "Excellent", "excellent"
		case score >= 6:
			row.Status, row.Class = "Good", "good"
		default:
			row.Status, row.Class = "Needs Work", "needs-work"
		}
		rows = append(rows, row)
	}
	return rows
}
