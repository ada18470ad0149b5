package analyzer

import (
	"fmt"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

type UIAnalyzer struct {
	config *config.UIConfig
}

func NewUIAnalyzer(cfg *config.UIConfig) *UIAnalyzer {
	return &UIAnalyzer{config: cfg}
}

func (a *UIAnalyzer) Category() report.Category {
	return report.CategoryUI
}

func (a *UIAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	u := page.UI
	if u == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategoryUI)

	if n := len(u.FontFamilies); n > a.config.MaxFontFamilies {
		f.issue("font-families", report.SeverityMedium, "Too Many Fonts",
			fmt.Sprintf("%d font families in use; more than %d looks inconsistent", n, a.config.MaxFontFamilies),
			"Settle on one or two font families")
	} else if n > 0 {
		f.good(fmt.Sprintf("Consistent typography (%s)", plural(n, "font family")))
	}

	if n := len(u.BrokenImages); n > 0 {
		f.issue("broken-images", report.SeverityHigh, "Broken Images",
			fmt.Sprintf("%d of %d images failed to load (e.g. %s)", n, u.ImageCount, truncateString(u.BrokenImages[0], 80)),
			"Fix or remove the missing image sources")
	} else if u.ImageCount > 0 {
		f.good("All images load")
	}

	if u.FlexGridCount > 0 || u.ResponsiveClassCount > 0 || u.MediaQueryCount > 0 {
		f.good("Responsive layout techniques in use")
	} else {
		f.issue("responsive-layout", report.SeverityMedium, "No Responsive Layout Detected",
			"No flexbox, grid, media queries or responsive framework classes were found",
			"Use flexbox or grid with media queries so the layout adapts to screen size")
	}

	if u.DarkModeQuery || u.ColorSchemeMeta {
		f.good("Dark mode supported")
	} else {
		f.warn("No Dark Mode", "No prefers-color-scheme media query or color-scheme meta tag found")
	}

	return f.result, nil
}
