package analyzer

import (
	"fmt"
	"strings"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

type FunctionalityAnalyzer struct {
	keywords *Keywords
}

func NewFunctionalityAnalyzer(keywords *Keywords) *FunctionalityAnalyzer {
	return &FunctionalityAnalyzer{keywords: keywords}
}

func (a *FunctionalityAnalyzer) Category() report.Category {
	return report.CategoryFunctionality
}

func (a *FunctionalityAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	fn := page.Functionality
	if fn == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategoryFunctionality)

	a.checkStatus(f, page.Status, fn)

	switch {
	case fn.FormsWithoutValidation > 0:
		f.issue("form-validation", report.SeverityMedium, "Forms Without Validation",
			fmt.Sprintf("%d of %d forms have no validation attributes", fn.FormsWithoutValidation, fn.FormCount),
			"Add required, type and pattern attributes so bad input is caught before submit")
	case fn.FormCount > 0:
		f.good("Forms use input validation")
	}

	if fn.MediaWithoutControls > 0 {
		f.issue("media-controls", report.SeverityLow, "Media Without Controls",
			fmt.Sprintf("%d of %d video/audio elements cannot be paused", fn.MediaWithoutControls, fn.MediaCount),
			"Add the controls attribute or your own play/pause UI")
	}
	if fn.UnlabeledMedia > 0 {
		f.issue("media-label", report.SeverityLow, "Unlabeled Media",
			fmt.Sprintf("%d of %d video/audio elements have no label or captions", fn.UnlabeledMedia, fn.MediaCount),
			"Add a title or aria-label and caption tracks")
	}

	if broken := fn.EmptyLinks + fn.JavascriptLinks; broken > 0 {
		f.issue("non-functional-links", report.SeverityMedium, "Non-Functional Links",
			fmt.Sprintf("%d empty and %d javascript: links", fn.EmptyLinks, fn.JavascriptLinks),
			"Give every link a real href or replace it with a button")
	}

	if fn.LazyElements > 0 {
		f.good(fmt.Sprintf("%s lazy loaded", plural(fn.LazyElements, "element")))
	}

	checkConsoleErrors(f, page.ConsoleErrors)
	checkLinks(f, page.LinkChecks)

	return f.result, nil
}

func (a *FunctionalityAnalyzer) checkStatus(f *findings, status int, fn *signals.Functionality) {
	switch {
	case status >= 500:
		f.issue("http-status", report.SeverityHigh, "Server Error",
			fmt.Sprintf("The page responded with HTTP %d", status),
			"Check the server logs for this route")
	case status == 404 || a.looksLikeNotFound(fn):
		f.issue("not-found", report.SeverityHigh, "Page Not Found",
			"The page responds as a 404 or its content reads like an error page",
			"Restore the page or remove links pointing to it")
	case status >= 400:
		f.issue("http-status", report.SeverityMedium, "HTTP Error Status",
			fmt.Sprintf("The page responded with HTTP %d", status),
			"Make sure the route is publicly reachable")
	}
}

// looksLikeNotFound catches soft 404s that respond 200 with an error page.
// Body text is only consulted when it is short, so long pages that merely
// mention "not found" are left alone.
func (a *FunctionalityAnalyzer) looksLikeNotFound(fn *signals.Functionality) bool {
	if a.keywords.Matches(KeywordNotFound, fn.Title) || a.keywords.Matches(KeywordNotFound, fn.Heading) {
		return true
	}
	body := strings.TrimSpace(fn.BodyText)
	return len(body) < 500 && a.keywords.Matches(KeywordNotFound, body)
}

func checkLinks(f *findings, checks []report.LinkCheck) {
	if len(checks) == 0 {
		return
	}

	var broken, unreachable []string
	for _, c := range checks {
		switch {
		case c.OK:
		case c.Status >= 400:
			broken = append(broken, fmt.Sprintf("%s (%d)", c.URL, c.Status))
		default:
			unreachable = append(unreachable, c.URL)
		}
	}

	if len(broken) > 0 {
		f.issue("broken-links", report.SeverityHigh, "Broken Links",
			fmt.Sprintf("%d of %d sampled links are broken: %s", len(broken), len(checks), truncateString(strings.Join(broken, ", "), 200)),
			"Update or remove links to missing pages")
	}
	if len(unreachable) > 0 {
		f.warn("Unreachable Links", fmt.Sprintf("%s could not be checked: %s", plural(len(unreachable), "link"), truncateString(strings.Join(unreachable, ", "), 200)))
	}
	if len(broken) == 0 && len(unreachable) == 0 {
		f.good(fmt.Sprintf("All %d sampled links work", len(checks)))
	}
}
