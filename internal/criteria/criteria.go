// Package criteria defines the ordered evaluation sets the aggregator runs
// over. A Set is plain configuration: swapping it changes evaluation scope
// without touching aggregation logic.
package criteria

import "weblser/internal/domain"

// Mode selects how scores and priorities are interpreted.
type Mode string

const (
	// ModeAudit is the 10-criterion website audit on a 0-10 scale.
	ModeAudit Mode = "audit"
	// ModeCompliance evaluates legal jurisdictions on a 0-100 scale, with
	// status/risk/priority supplied by the evaluator response.
	ModeCompliance Mode = "compliance"
)

// Descriptor names one criterion. Compliance descriptors carry the ordered
// category list cited in the evaluation prompt.
type Descriptor struct {
	Name       string
	Categories []string
}

// Set is a fixed, ordered criterion list plus its scoring scale.
type Set struct {
	Mode     Mode
	RangeMax float64
	Items    []Descriptor
}

// Midpoint is the neutral fallback score for degraded results.
func (s Set) Midpoint() float64 { return s.RangeMax / 2 }

// Names returns the criterion names in configured order.
func (s Set) Names() []string {
	names := make([]string, len(s.Items))
	for i, d := range s.Items {
		names[i] = d.Name
	}
	return names
}

// Contains reports whether name is a member of the set.
func (s Set) Contains(name string) bool {
	for _, d := range s.Items {
		if d.Name == name {
			return true
		}
	}
	return false
}

// BucketFor maps a score to its recommendation priority bucket. Thresholds
// are defined on the 0-10 scale (score < 5 is High, < 7 Medium) and scaled
// proportionally for other ranges.
func (s Set) BucketFor(score float64) domain.PriorityBucket {
	scale := s.RangeMax / 10
	switch {
	case score < 5*scale:
		return domain.BucketHigh
	case score < 7*scale:
		return domain.BucketMedium
	default:
		return domain.BucketLow
	}
}

// Audit returns the 10-point website audit set.
func Audit() Set {
	return Set{
		Mode:     ModeAudit,
		RangeMax: 10,
		Items: []Descriptor{
			{Name: "User Experience"},
			{Name: "Performance"},
			{Name: "Responsiveness"},
			{Name: "Visual Design"},
			{Name: "Content Quality"},
			{Name: "Accessibility"},
			{Name: "SEO & Discovery"},
			{Name: "Security"},
			{Name: "Conversion Goals"},
			{Name: "Technical Quality"},
		},
	}
}

// complianceCategories is shared across jurisdictions; the regimes differ in
// legal text, not in the shape of what a website must disclose.
var complianceCategories = []string{
	"Consent Mechanisms",
	"Privacy Policy",
	"Data Collection Disclosure",
	"Cookie Usage",
	"User Rights",
	"Security Measures",
}

// Compliance returns the multi-jurisdiction legal compliance set.
func Compliance() Set {
	return Set{
		Mode:     ModeCompliance,
		RangeMax: 100,
		Items: []Descriptor{
			{Name: "GDPR (EU)", Categories: complianceCategories},
			{Name: "CCPA (California)", Categories: complianceCategories},
			{Name: "PIPEDA (Canada)", Categories: complianceCategories},
			{Name: "UK GDPR", Categories: complianceCategories},
			{Name: "LGPD (Brazil)", Categories: complianceCategories},
		},
	}
}
