package analyzer

import (
	"fmt"
	"strings"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

// intrusiveOverlayRatio is the share of the viewport a fixed overlay may
// cover before it is treated as a popup.
const intrusiveOverlayRatio = 0.3

type UXAnalyzer struct {
	keywords *Keywords
}

func NewUXAnalyzer(keywords *Keywords) *UXAnalyzer {
	return &UXAnalyzer{keywords: keywords}
}

func (a *UXAnalyzer) Category() report.Category {
	return report.CategoryUX
}

func (a *UXAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	u := page.UX
	if u == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategoryUX)

	if u.NavCount == 0 {
		f.issue("navigation", report.SeverityMedium, "No Navigation",
			"No <nav> or role=\"navigation\" element found",
			"Wrap primary links in a <nav> element")
	} else {
		f.good(fmt.Sprintf("Navigation present (%s)", plural(u.NavLinkCount, "link")))
	}

	a.checkCTA(f, u.Controls)

	if u.DeadLinks > 0 {
		f.issue("dead-links", report.SeverityMedium, "Dead Links",
			fmt.Sprintf("%s point nowhere (empty href, \"#\" or javascript:void)", plural(u.DeadLinks, "link")),
			"Link to a real destination or use a <button> for in-page actions")
	}

	if u.H1AboveFold || a.keywords.MatchesAny(KeywordHero, u.HeroHints) {
		f.good("Hero section above the fold")
	} else {
		f.warn("No Hero Section", "Nothing above the fold states what the site offers")
	}

	a.checkForms(f, u.Forms)
	a.checkOverlays(f, u.Overlays)

	return f.result, nil
}

func (a *UXAnalyzer) checkCTA(f *findings, controls []signals.Control) {
	found, aboveFold := 0, 0
	for _, c := range controls {
		if a.keywords.Matches(KeywordCTA, c.Text) {
			found++
			if c.AboveFold {
				aboveFold++
			}
		}
	}

	switch {
	case found == 0:
		f.issue("cta", report.SeverityMedium, "No Clear Call-To-Action",
			"No visible button or link invites the visitor to act",
			"Add a prominent call-to-action such as \"Get started\" or \"Contact us\"")
	case aboveFold == 0:
		f.issue("cta", report.SeverityLow, "Call-To-Action Below the Fold",
			fmt.Sprintf("%s found, none visible without scrolling", plural(found, "call-to-action")),
			"Move the primary call-to-action into the first screen")
	default:
		f.good(fmt.Sprintf("Call-to-action above the fold (%d found)", found))
	}
}

func (a *UXAnalyzer) checkForms(f *findings, forms []signals.Form) {
	contact, newsletter := false, false
	for _, form := range forms {
		text := strings.Join(append([]string{form.Text, form.Action}, form.InputNames...), " ")
		hasTextarea := false
		for _, t := range form.InputTypes {
			if t == "textarea" {
				hasTextarea = true
			}
		}
		switch {
		case hasTextarea || a.keywords.Matches(KeywordContact, text):
			contact = true
		case a.keywords.Matches(KeywordNewsletter, text):
			newsletter = true
		}
	}

	if contact {
		f.good("Contact form available")
	}
	if newsletter {
		f.good("Newsletter signup available")
	}
	if !contact && !newsletter {
		f.warn("No Contact Form", "Visitors have no on-page way to get in touch")
	}
}

func (a *UXAnalyzer) checkOverlays(f *findings, overlays []signals.Overlay) {
	for _, o := range overlays {
		if a.keywords.Matches(KeywordCookieBanner, o.Text) {
			f.good("Cookie consent banner present")
			continue
		}
		if o.AreaRatio > intrusiveOverlayRatio {
			f.issue("popup", report.SeverityLow, "Intrusive Popup",
				fmt.Sprintf("A fixed overlay covers %.0f%% of the screen: %q", o.AreaRatio*100, truncateString(o.Text, 60)),
				"Delay popups or make them smaller and easy to dismiss")
			return
		}
	}
}
