package audit

import (
	"context"
	"net/url"

	"github.com/siteauditor/site-auditor/internal/analyzer"
	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/linkcheck"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/sirupsen/logrus"
)

// PageAnalyzer loads one page in a browser session, captures its signals
// and runs the category suite over them.
type PageAnalyzer struct {
	cfg    *config.Config
	suite  *analyzer.Suite
	links  *linkcheck.Checker
	policy report.RatingPolicy
	log    logrus.FieldLogger
}

func NewPageAnalyzer(cfg *config.Config, suite *analyzer.Suite, links *linkcheck.Checker, log logrus.FieldLogger) *PageAnalyzer {
	return &PageAnalyzer{
		cfg:    cfg,
		suite:  suite,
		links:  links,
		policy: cfg.Rating.Policy(),
		log:    log,
	}
}

// Analyze navigates session to pageURL and audits it. A navigation failure
// yields a PageAudit with Loaded false and the raw error; it is never
// returned as an error.
func (a *PageAnalyzer) Analyze(ctx context.Context, session browser.Session, path, pageURL string) report.PageAudit {
	log := a.log.WithField("page", path)
	audit := report.PageAudit{Path: path, URL: pageURL}

	nav, err := session.Navigate(ctx, pageURL)
	if err != nil {
		log.WithError(err).Warn("Page failed to load")
		audit.Error = err.Error()
		audit.Rating = report.MinRating
		return audit
	}

	page := a.capture(ctx, session, path, pageURL, nav)

	audit.Loaded = true
	audit.Status = page.Status
	audit.LoadTimeMs = page.LoadTimeMs
	audit.ConsoleErrors = page.ConsoleErrors
	audit.LinkChecks = page.LinkChecks
	audit.Analysis = a.suite.Run(page)
	audit.Rating = a.policy.PageRating(audit.Analysis)
	for _, result := range audit.Analysis {
		audit.TotalIssues += len(result.Issues)
	}
	if page.Performance != nil {
		audit.Resources = analyzer.ResourceStats(page.Performance.Resources)
	}
	if page.Interactive != nil {
		audit.Interactive = analyzer.ClassifyControls(page.Interactive.Controls, a.cfg.Audit.DetailLimit)
	}

	log.WithFields(logrus.Fields{"rating": audit.Rating, "issues": audit.TotalIssues}).Info("Page analyzed")
	return audit
}

// capture runs every extractor against the loaded document. Extraction
// failures are recorded on the page per category.
func (a *PageAnalyzer) capture(ctx context.Context, session browser.Session, path, pageURL string, nav *browser.NavigationResult) *signals.Page {
	page := &signals.Page{
		URL:        pageURL,
		Path:       path,
		Status:     nav.Status,
		LoadTimeMs: nav.Elapsed.Milliseconds(),
	}
	final := nav.FinalURL
	if final == "" {
		final = pageURL
	}
	if u, err := url.Parse(final); err == nil {
		page.Scheme = u.Scheme
		page.Host = u.Hostname()
	}

	page.SEO = extract[signals.SEO](ctx, session, signals.SEOExtractor, report.CategorySEO, page)
	page.Security = extract[signals.Security](ctx, session, signals.SecurityExtractor, report.CategorySecurity, page)
	page.Performance = extract[signals.Performance](ctx, session, signals.PerformanceExtractor, report.CategoryPerformance, page)
	page.Accessibility = extract[signals.Accessibility](ctx, session, signals.AccessibilityExtractor, report.CategoryAccessibility, page)
	page.UX = extract[signals.UX](ctx, session, signals.UXExtractor, report.CategoryUX, page)
	page.UI = extract[signals.UI](ctx, session, signals.UIExtractor, report.CategoryUI, page)
	page.Functionality = extract[signals.Functionality](ctx, session, signals.FunctionalityExtractor, report.CategoryFunctionality, page)

	if a.cfg.Audit.ProbeInteractive {
		var interactive signals.Interactive
		extractor := signals.InteractiveExtractor.With(map[string]any{"limit": interactiveSampleSize})
		if err := session.Evaluate(ctx, extractor, &interactive); err != nil {
			a.log.WithError(err).WithField("page", path).Debug("Interactive probe failed")
		} else {
			page.Interactive = &interactive
		}
	}

	page.ConsoleErrors = session.ConsoleErrors()
	page.Mobile = a.captureMobile(ctx, session, page)

	if a.links != nil && page.Functionality != nil {
		page.LinkChecks = a.links.Check(ctx, page.Functionality.Links)
	}
	return page
}

// captureMobile re-lays the page out at the mobile viewport, reads the
// mobile signals and restores the desktop viewport.
func (a *PageAnalyzer) captureMobile(ctx context.Context, session browser.Session, page *signals.Page) *signals.Mobile {
	if err := session.SetViewport(ctx, browser.MobileViewport(&a.cfg.Browser)); err != nil {
		page.SetError(report.CategoryMobile, err)
		return nil
	}
	defer func() {
		if err := session.SetViewport(ctx, browser.DesktopViewport(&a.cfg.Browser)); err != nil {
			a.log.WithError(err).Warn("Failed to restore desktop viewport")
		}
	}()
	return extract[signals.Mobile](ctx, session, signals.MobileExtractor, report.CategoryMobile, page)
}

const interactiveSampleSize = 50

func extract[T any](ctx context.Context, session browser.Session, extractor signals.Extractor, category report.Category, page *signals.Page) *T {
	var out T
	if err := session.Evaluate(ctx, extractor, &out); err != nil {
		page.SetError(category, err)
		return nil
	}
	return &out
}
