package analyzer

import (
	"fmt"
	"strings"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

type MobileAnalyzer struct {
	config   *config.MobileConfig
	keywords *Keywords
}

func NewMobileAnalyzer(cfg *config.MobileConfig, keywords *Keywords) *MobileAnalyzer {
	return &MobileAnalyzer{config: cfg, keywords: keywords}
}

func (a *MobileAnalyzer) Category() report.Category {
	return report.CategoryMobile
}

func (a *MobileAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	m := page.Mobile
	if m == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategoryMobile)

	a.checkViewport(f, m)

	if m.ViewportWidth > 0 && m.ScrollWidth > m.ViewportWidth+1 {
		f.issue("horizontal-scroll", report.SeverityMedium, "Horizontal Scrolling",
			fmt.Sprintf("Content is %dpx wide on a %dpx screen (%s overflow)", m.ScrollWidth, m.ViewportWidth, plural(m.OverflowElements, "element")),
			"Constrain wide elements with max-width: 100% and responsive layouts")
	} else if m.ViewportWidth > 0 {
		f.good("No horizontal scrolling on small screens")
	}

	a.checkTouchTargets(f, m)

	minFont := float64(a.config.MinFontSizePx)
	switch {
	case m.BodyFontSizePx > 0 && m.BodyFontSizePx < minFont:
		f.issue("font-size", report.SeverityMedium, "Small Body Text",
			fmt.Sprintf("Body text is %.0fpx; text under %.0fpx is hard to read on phones", m.BodyFontSizePx, minFont),
			"Use at least 16px for body text")
	case m.BodyFontSizePx > 0:
		f.good(fmt.Sprintf("Readable body text (%.0fpx)", m.BodyFontSizePx))
	}

	if a.keywords.MatchesAny(KeywordMobileMenu, m.MenuHints) {
		f.good("Mobile menu toggle detected")
	} else {
		f.warn("No Mobile Menu Detected", "No hamburger-style navigation toggle was found at the mobile viewport")
	}

	small := 0
	for _, h := range m.InputHeights {
		if h > 0 && h < float64(a.config.MinInputHeightPx) {
			small++
		}
	}
	if small > 0 {
		f.issue("input-size", report.SeverityLow, "Small Form Inputs",
			fmt.Sprintf("%s shorter than %dpx", plural(small, "input"), a.config.MinInputHeightPx),
			"Increase input padding so fields are easy to tap")
	}

	return f.result, nil
}

func (a *MobileAnalyzer) checkViewport(f *findings, m *signals.Mobile) {
	if !m.HasViewportMeta {
		f.issue("viewport", report.SeverityHigh, "Missing Viewport Meta Tag",
			"Without a viewport meta tag mobile browsers render the desktop layout zoomed out",
			"Add <meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">")
		return
	}

	content := strings.ToLower(strings.ReplaceAll(m.ViewportContent, " ", ""))
	if !strings.Contains(content, "width=device-width") {
		f.issue("viewport", report.SeverityMedium, "Viewport Not Device Width",
			fmt.Sprintf("Viewport is %q; the layout will not adapt to the screen", m.ViewportContent),
			"Include width=device-width in the viewport meta tag")
	} else {
		f.good("Responsive viewport configured")
	}
	if strings.Contains(content, "user-scalable=no") || strings.Contains(content, "user-scalable=0") || strings.Contains(content, "maximum-scale=1,") || strings.HasSuffix(content, "maximum-scale=1") {
		f.warn("Zoom Disabled", "The viewport prevents pinch zoom, which hurts low-vision users")
	}
}

func (a *MobileAnalyzer) checkTouchTargets(f *findings, m *signals.Mobile) {
	if len(m.TouchTargets) == 0 {
		return
	}
	minSize := float64(a.config.MinTouchTargetPx)
	small := 0
	for _, t := range m.TouchTargets {
		if t.Width < minSize || t.Height < minSize {
			small++
		}
	}

	switch {
	case small > a.config.MaxSmallTouchTargets:
		f.issue("touch-target", report.SeverityMedium, "Small Touch Targets",
			fmt.Sprintf("%d of %d interactive elements are smaller than %dx%dpx", small, len(m.TouchTargets), a.config.MinTouchTargetPx, a.config.MinTouchTargetPx),
			"Increase padding on links and buttons so each target is at least 44x44px")
	case small > 0:
		f.warn("Some Small Touch Targets", fmt.Sprintf("%s smaller than %dx%dpx", plural(small, "element"), a.config.MinTouchTargetPx, a.config.MinTouchTargetPx))
	default:
		f.good("Touch targets are adequately sized")
	}
}
