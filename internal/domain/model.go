package domain

import "time"

// Core domain models used internally and on the wire. Field names are stable:
// downstream report rendering and stored history both depend on them.

// PageSignals holds normalized facts about one fetched page snapshot.
// Computed once per evaluation run and treated as immutable afterwards.
type PageSignals struct {
	URL             string `json:"url"`
	FinalURL        string `json:"final_url"`
	Title           string `json:"title"`
	MetaDescription string `json:"meta_description"`
	OGTitle         string `json:"og_title"`
	OGDescription   string `json:"og_description"`
	Viewport        string `json:"viewport"`
	HasCharset      bool   `json:"charset"`
	HTTPS           bool   `json:"https"`
	StatusCode      int    `json:"status_code"`

	HasH1       bool `json:"has_h1"`
	H1Count     int  `json:"h1_count"`
	HasNav      bool `json:"has_nav"`
	HasFooter   bool `json:"has_footer"`
	HasMain     bool `json:"has_main"`
	ImgCount    int  `json:"img_count"`
	ImgWithAlt  int  `json:"img_with_alt"`
	FormCount   int  `json:"form_count"`
	ButtonCount int  `json:"button_count"`
	LinkCount   int  `json:"link_count"`
	BrokenLinks int  `json:"broken_links"`
	HasSitemap  bool `json:"has_sitemap"`
	HasRobots   bool `json:"has_robots"`
	WordCount   int  `json:"word_count"`
	TitleLength int  `json:"title_length"`

	// Extracted body text, capped, for summary generation and deep scans.
	Content string `json:"-"`

	// SiteName is derived from the title (text before the first "|") or, when
	// the title is empty, from the registrable domain.
	SiteName string `json:"website_name"`
}

// ComplianceStatus classifies a jurisdiction result.
type ComplianceStatus string

const (
	StatusCompliant          ComplianceStatus = "Compliant"
	StatusPartiallyCompliant ComplianceStatus = "Partially Compliant"
	StatusNonCompliant       ComplianceStatus = "Non-Compliant"
)

// RiskLevel grades the exposure associated with a compliance result.
type RiskLevel string

const (
	RiskCritical RiskLevel = "Critical"
	RiskHigh     RiskLevel = "High"
	RiskMedium   RiskLevel = "Medium"
	RiskLow      RiskLevel = "Low"
)

// RemediationPriority is the urgency attached to a compliance result.
type RemediationPriority string

const (
	PriorityImmediate RemediationPriority = "Immediate"
	PriorityShortTerm RemediationPriority = "Short-term"
	PriorityLongTerm  RemediationPriority = "Long-term"
)

// PriorityBucket groups recommendations by urgency.
type PriorityBucket string

const (
	BucketHigh   PriorityBucket = "High"
	BucketMedium PriorityBucket = "Medium"
	BucketLow    PriorityBucket = "Low"
)

// Rank returns the sort rank of a bucket; High sorts first.
func (b PriorityBucket) Rank() int {
	switch b {
	case BucketHigh:
		return 0
	case BucketMedium:
		return 1
	default:
		return 2
	}
}

// CriterionResult is the outcome of evaluating one criterion (audit mode) or
// one jurisdiction (compliance mode). Immutable once created.
type CriterionResult struct {
	Name            string   `json:"name"`
	Score           float64  `json:"score"`
	Observations    []string `json:"observations"`
	Recommendations []string `json:"recommendations"`

	// Degraded is set when the result came from the neutral fallback policy
	// rather than a successful evaluation.
	Degraded bool `json:"degraded,omitempty"`

	// Compliance-only fields.
	Status    ComplianceStatus    `json:"status,omitempty"`
	RiskLevel RiskLevel           `json:"risk_level,omitempty"`
	Priority  RemediationPriority `json:"priority,omitempty"`
}

// RankedRecommendation is one entry of the prioritized action list.
type RankedRecommendation struct {
	Criterion string         `json:"criterion"`
	Text      string         `json:"recommendation"`
	Priority  PriorityBucket `json:"priority"`
	Impact    float64        `json:"impact_score"`
	Order     int            `json:"order"`
}

// EvaluationReport is the aggregate result of one full evaluation run.
// Never mutated after construction; callers may read but must not modify.
type EvaluationReport struct {
	URL             string                     `json:"url"`
	SiteName        string                     `json:"website_name"`
	GeneratedAt     time.Time                  `json:"audit_timestamp"`
	OverallScore    float64                    `json:"overall_score"`
	Scores          map[string]float64         `json:"scores"`
	Criteria        map[string]CriterionResult `json:"criteria_details"`
	KeyStrengths    []string                   `json:"key_strengths"`
	CriticalIssues  []string                   `json:"critical_issues"`
	Recommendations []RankedRecommendation     `json:"priority_recommendations"`
}

// AnalysisResult is the summary-mode output: one fetched page, one generated
// summary. A failed fetch yields Success=false with the error in Summary.
type AnalysisResult struct {
	URL              string `json:"url"`
	Title            string `json:"title"`
	MetaDescription  string `json:"meta_description"`
	ExtractedContent string `json:"extracted_content,omitempty"`
	Summary          string `json:"summary"`
	Success          bool   `json:"success"`
}

// StoredAnalysis is an analysis history row.
type StoredAnalysis struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Analysis  AnalysisResult `json:"analysis"`
}

// AuditStatus tracks the lifecycle of an audit record.
type AuditStatus string

const (
	AuditQueued    AuditStatus = "queued"
	AuditRunning   AuditStatus = "running"
	AuditCompleted AuditStatus = "completed"
	AuditFailed    AuditStatus = "failed"
)

// StoredAudit is an audit history row; Report is nil until completed.
type StoredAudit struct {
	ID        string            `json:"id"`
	URL       string            `json:"url"`
	Status    AuditStatus       `json:"status"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Report    *EvaluationReport `json:"report,omitempty"`
}
