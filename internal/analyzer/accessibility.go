package analyzer

import (
	"fmt"
	"strings"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

var landmarks = []string{"header", "nav", "main", "footer"}

type AccessibilityAnalyzer struct{}

func NewAccessibilityAnalyzer() *AccessibilityAnalyzer {
	return &AccessibilityAnalyzer{}
}

func (a *AccessibilityAnalyzer) Category() report.Category {
	return report.CategoryAccessibility
}

func (a *AccessibilityAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	s := page.Accessibility
	if s == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategoryAccessibility)

	if s.ImageCount > 0 {
		if s.ImagesMissingAlt > 0 {
			f.issue("img-alt", report.SeverityMedium, "Images Missing Alt Text",
				fmt.Sprintf("%d of %d images are missing alt text", s.ImagesMissingAlt, s.ImageCount),
				"Add alt text to informative images and alt=\"\" to decorative ones")
		} else {
			f.good("All images have alt text")
		}
	}

	if strings.TrimSpace(s.Lang) == "" {
		f.issue("html-lang", report.SeverityMedium, "Missing Language Attribute",
			"The <html> element has no lang attribute, so screen readers cannot pick a pronunciation",
			"Set <html lang=\"...\"> to the page language")
	} else {
		f.good(fmt.Sprintf("Document language declared (%s)", s.Lang))
	}

	var missing []string
	for _, l := range landmarks {
		if !s.Landmarks[l] {
			missing = append(missing, l)
		}
	}
	if len(missing) == 0 {
		f.good("All main landmarks present")
	} else {
		f.warn("Missing Landmarks", fmt.Sprintf("No %s landmark found; screen-reader users navigate by landmarks", strings.Join(missing, ", ")))
	}

	if s.UnlabeledFields > 0 {
		f.issue("form-label", report.SeverityHigh, "Unlabeled Form Fields",
			fmt.Sprintf("%d of %d form fields have no associated label", s.UnlabeledFields, s.FormFieldCount),
			"Associate a <label>, aria-label or aria-labelledby with every field")
	} else if s.FormFieldCount > 0 {
		f.good("All form fields are labeled")
	}

	if s.UnlabeledButtons > 0 {
		f.issue("button-name", report.SeverityMedium, "Buttons Without Accessible Names",
			fmt.Sprintf("%s have no text or aria-label", plural(s.UnlabeledButtons, "button")),
			"Give icon-only buttons an aria-label")
	}

	if s.EmptyLinks > 0 {
		f.issue("link-name", report.SeverityMedium, "Empty Links",
			fmt.Sprintf("%s have no discernible text", plural(s.EmptyLinks, "link")),
			"Add link text or an aria-label describing the destination")
	}

	if s.TablesWithoutHeaders > 0 {
		f.issue("table-headers", report.SeverityLow, "Tables Without Headers",
			fmt.Sprintf("%d of %d tables have no <th> cells", s.TablesWithoutHeaders, s.TableCount),
			"Mark header cells with <th> and a scope")
	}

	if s.IframesWithoutTitle > 0 {
		f.issue("frame-title", report.SeverityLow, "Iframes Without Titles",
			fmt.Sprintf("%d of %d iframes have no title attribute", s.IframesWithoutTitle, s.IframeCount),
			"Give each iframe a title describing its content")
	}

	return f.result, nil
}
