package evaluator

import (
	"fmt"
	"strings"

	"weblser/internal/criteria"
	"weblser/internal/domain"
)

// buildPrompt assembles the full instruction for one criterion evaluation.
// The context block is a deterministic function of the page signals; identical
// signals always produce an identical prompt.
func buildPrompt(set criteria.Set, desc criteria.Descriptor, sig *domain.PageSignals, deep bool) string {
	var b strings.Builder

	if set.Mode == criteria.ModeCompliance {
		fmt.Fprintf(&b, "You are a legal compliance analyst assessing a website against %s.\n\n", desc.Name)
	} else {
		fmt.Fprintf(&b, "You are a professional website auditor evaluating a website's %s.\n\n", desc.Name)
	}

	fmt.Fprintf(&b, "Website: %s\n", sig.URL)
	fmt.Fprintf(&b, "Title: %s\n", orNA(sig.Title))
	fmt.Fprintf(&b, "Meta Description: %s\n\n", orNA(sig.MetaDescription))

	b.WriteString("Analysis Data:\n")
	b.WriteString(evaluationContext(set, desc, sig))
	if deep {
		b.WriteString(deepContext(sig))
	}

	if set.Mode == criteria.ModeCompliance {
		fmt.Fprintf(&b, "\nAssess the website's compliance posture under %s across these categories: %s.\n\n",
			desc.Name, strings.Join(desc.Categories, ", "))
		b.WriteString("Provide:\n")
		fmt.Fprintf(&b, "1. A compliance score from 0-%d\n", int(set.RangeMax))
		b.WriteString("2. A status: exactly one of \"Compliant\", \"Partially Compliant\", \"Non-Compliant\"\n")
		b.WriteString("3. A risk_level: exactly one of \"Critical\", \"High\", \"Medium\", \"Low\"\n")
		b.WriteString("4. A priority: exactly one of \"Immediate\", \"Short-term\", \"Long-term\"\n")
		b.WriteString("5. 2-3 specific observations per the categories above\n")
		b.WriteString("6. 2-3 concrete remediation recommendations\n\n")
		b.WriteString("Format your response as JSON:\n")
		b.WriteString(`{
    "score": X,
    "status": "...",
    "risk_level": "...",
    "priority": "...",
    "observations": ["obs1", "obs2", "obs3"],
    "recommendations": ["rec1", "rec2", "rec3"]
}
`)
		return b.String()
	}

	b.WriteString("\nBased on this analysis, provide:\n")
	fmt.Fprintf(&b, "1. A score from 0-%d for %s\n", int(set.RangeMax), desc.Name)
	b.WriteString("2. 2-3 specific observations (strengths and weaknesses)\n")
	b.WriteString("3. 2-3 concrete recommendations for improvement\n\n")
	b.WriteString("Format your response as JSON:\n")
	b.WriteString(`{
    "score": X,
    "observations": ["obs1", "obs2", "obs3"],
    "recommendations": ["rec1", "rec2", "rec3"]
}
`)
	return b.String()
}

// evaluationContext selects the signals relevant to one criterion. Each
// audit criterion has its own fixed template; compliance jurisdictions share
// a disclosure-oriented one.
func evaluationContext(set criteria.Set, desc criteria.Descriptor, sig *domain.PageSignals) string {
	if set.Mode == criteria.ModeCompliance {
		return fmt.Sprintf(`- HTTPS enabled: %t
- Forms collecting data: %d
- Links sampled/broken: %d/%d
- Privacy-relevant pages reachable from markup: %d links total
- Meta description present: %t
`, sig.HTTPS, sig.FormCount, sig.BrokenLinks, min(sig.LinkCount, 10), sig.LinkCount, sig.MetaDescription != "")
	}

	switch desc.Name {
	case "User Experience":
		return fmt.Sprintf(`- Has navigation menu: %t
- Has clear main content: %t
- Button count: %d
- Meta viewport: %t
- Broken links (sample): %d
`, sig.HasNav, sig.HasMain, sig.ButtonCount, sig.Viewport != "", sig.BrokenLinks)
	case "Performance":
		return fmt.Sprintf(`- Image count: %d
- Form complexity: %d forms
- Link count: %d
- Page word count: %d
`, sig.ImgCount, sig.FormCount, sig.LinkCount, sig.WordCount)
	case "Responsiveness":
		return fmt.Sprintf(`- Has viewport meta tag: %t
- Viewport value: %s
- Touch-friendly button count: %d
`, sig.Viewport != "", orNA(sig.Viewport), sig.ButtonCount)
	case "Visual Design":
		return fmt.Sprintf(`- Title present: %t
- Image usage: %d images
- Structural landmarks: nav=%t footer=%t main=%t
`, sig.Title != "", sig.ImgCount, sig.HasNav, sig.HasFooter, sig.HasMain)
	case "Content Quality":
		return fmt.Sprintf(`- Title length: %d chars
- Meta description present: %t
- Word count: %d words
- Heading structure: H1 count = %d
`, sig.TitleLength, sig.MetaDescription != "", sig.WordCount, sig.H1Count)
	case "Accessibility":
		return fmt.Sprintf(`- Images with alt text: %d/%d
- Has heading hierarchy: %t
- Form fields count: %d
- Charset defined: %t
`, sig.ImgWithAlt, sig.ImgCount, sig.HasH1, sig.FormCount, sig.HasCharset)
	case "SEO & Discovery":
		return fmt.Sprintf(`- Sitemap.xml exists: %t
- Robots.txt exists: %t
- Meta description present: %t
- Open Graph tags: %t
`, sig.HasSitemap, sig.HasRobots, sig.MetaDescription != "", sig.OGTitle != "")
	case "Security":
		return fmt.Sprintf(`- HTTPS enabled: %t
- HTTP status: %d
- Charset defined: %t
`, sig.HTTPS, sig.StatusCode, sig.HasCharset)
	case "Conversion Goals":
		return fmt.Sprintf(`- Has forms: %d forms
- CTA buttons: %d buttons
- Meta description clarity: %d chars
`, sig.FormCount, sig.ButtonCount, len(sig.MetaDescription))
	case "Technical Quality":
		return fmt.Sprintf(`- HTTP status: %d
- Link integrity: %d broken (sample)
- Navigation structure: %t
- H1 count: %d
`, sig.StatusCode, sig.BrokenLinks, sig.HasNav, sig.H1Count)
	}
	return "General analysis data available\n"
}

// deepContext widens the prompt with extracted page text and social metadata.
func deepContext(sig *domain.PageSignals) string {
	var b strings.Builder
	b.WriteString("\nExtended signals:\n")
	fmt.Fprintf(&b, "- OG title: %s\n", orNA(sig.OGTitle))
	fmt.Fprintf(&b, "- OG description: %s\n", orNA(sig.OGDescription))
	if sig.Content != "" {
		content := sig.Content
		if len(content) > 1500 {
			content = content[:1500]
		}
		fmt.Fprintf(&b, "- Page content excerpt:\n%s\n", content)
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
