// Package audit runs end-to-end website audits: it owns the browser session,
// discovers pages, analyzes each one, probes the auth flow and merges
// everything into a report.
package audit

import (
	"context"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siteauditor/site-auditor/internal/analyzer"
	"github.com/siteauditor/site-auditor/internal/authprobe"
	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/discovery"
	"github.com/siteauditor/site-auditor/internal/linkcheck"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/scanner"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/siteauditor/site-auditor/internal/target"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Version is stamped on every report.
const Version = "1.0.0"

// Request is one audit submission.
type Request struct {
	URL         string                 `json:"url"`
	Credentials *authprobe.Credentials `json:"credentials,omitempty"`
	MaxPages    int                    `json:"maxPages,omitempty"`
}

type Orchestrator struct {
	cfg        *config.Config
	provider   browser.Provider
	pages      *PageAnalyzer
	discoverer *discovery.Discoverer
	prober     *authprobe.Prober
	techStack  *analyzer.TechStackDetector
	aggregator *Aggregator
	log        logrus.FieldLogger
	now        func() time.Time
}

// New wires an orchestrator with the default keyword and fingerprint
// tables.
func New(cfg *config.Config, provider browser.Provider, log logrus.FieldLogger) *Orchestrator {
	keywords := analyzer.DefaultKeywords()
	contentScanner := scanner.NewContentScanner(cfg.Security.AllowedSecrets)
	suite := analyzer.NewSuite(cfg, keywords, contentScanner, log)

	var links *linkcheck.Checker
	if cfg.LinkCheck.Enabled {
		links = linkcheck.NewChecker(&cfg.LinkCheck, log)
	}

	return &Orchestrator{
		cfg:        cfg,
		provider:   provider,
		pages:      NewPageAnalyzer(cfg, suite, links, log),
		discoverer: discovery.NewDiscoverer(&cfg.Discovery, log),
		prober:     authprobe.NewProber(keywords, authprobe.Options{ExerciseCredentials: cfg.Audit.ExerciseCredentials}, log),
		techStack:  analyzer.DefaultTechStackDetector(),
		aggregator: NewAggregator(cfg.Rating.Policy(), cfg.Audit.DetailLimit),
		log:        log,
		now:        time.Now,
	}
}

// Run audits req.URL. The only error it returns is for input that cannot be
// normalized; every other failure is folded into the returned report.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*report.AuditReport, error) {
	siteURL, err := target.Normalize(req.URL)
	if err != nil {
		return nil, err
	}

	start := o.now()
	log := o.log.WithField("url", siteURL)
	log.Info("Starting audit")

	if o.cfg.Audit.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.Audit.Timeout)
		defer cancel()
	}

	session, err := o.provider.Open(ctx, browser.DesktopViewport(&o.cfg.Browser))
	if err != nil {
		log.WithError(err).Error("Could not open browser session")
		return o.failedReport(siteURL, start, err), nil
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.WithError(err).Warn("Failed to close browser session")
		}
	}()

	r := o.newReport(siteURL, start)
	run := &auditRun{Orchestrator: o, report: r, session: session, siteURL: siteURL, log: log}

	steps := []auditStep{
		{name: "homepage", enabled: true, run: run.homepage},
		{name: "tech-stack", enabled: o.cfg.Audit.DetectTechStack, run: run.detectTechStack},
		{name: "screenshots", enabled: o.cfg.Audit.Screenshots, run: run.screenshots},
		{name: "discovery", enabled: true, run: func(ctx context.Context) { run.discover(ctx, req.MaxPages) }},
		{name: "pages", enabled: true, run: run.analyzePages},
		{name: "auth", enabled: o.cfg.Audit.ProbeAuth, run: func(ctx context.Context) { run.probeAuth(ctx, req.Credentials) }},
	}
	for _, step := range steps {
		if !step.execute(ctx, run) {
			break
		}
	}
	if len(r.PageAudits) == 0 && run.home.Path != "" {
		r.PageAudits = []report.PageAudit{run.home}
		if len(r.Pages) == 0 {
			r.Pages = []string{discovery.RootPath}
		}
	}

	o.aggregator.Aggregate(r)
	o.finish(r)
	log.WithFields(logrus.Fields{
		"rating":  r.Rating,
		"pages":   len(r.PageAudits),
		"issues":  len(r.Issues),
		"partial": r.Partial,
	}).Info("Audit complete")
	return r, nil
}

// auditStep is one stage of an audit. Stages run in order on the shared
// session; once the context is done no further stage starts.
type auditStep struct {
	name    string
	enabled bool
	run     func(ctx context.Context)
}

func (s auditStep) execute(ctx context.Context, run *auditRun) bool {
	if ctx.Err() != nil {
		run.report.Partial = true
		run.log.WithField("step", s.name).Warn("Audit stopped early; returning partial report")
		return false
	}
	if !s.enabled {
		return true
	}
	run.log.WithField("step", s.name).Debug("Running audit step")
	s.run(ctx)
	return true
}

// auditRun is the mutable state of one Run call.
type auditRun struct {
	*Orchestrator
	report  *report.AuditReport
	session browser.Session
	siteURL string
	log     logrus.FieldLogger
	home    report.PageAudit
	html    string
	paths   []string
	targets []string
}

func (run *auditRun) homepage(ctx context.Context) {
	homeURL, err := discovery.Resolve(run.siteURL, discovery.RootPath)
	if err != nil {
		homeURL = run.siteURL
	}
	run.home = run.pages.Analyze(ctx, run.session, discovery.RootPath, homeURL)
	if !run.home.Loaded {
		return
	}
	html, err := run.session.HTML(ctx)
	if err != nil {
		run.log.WithError(err).Warn("Could not read homepage HTML")
		return
	}
	run.html = html
}

func (run *auditRun) detectTechStack(ctx context.Context) {
	if !run.home.Loaded {
		return
	}
	var ts signals.TechStack
	extractor := signals.TechStackExtractor.With(map[string]any{"globals": run.techStack.Globals()})
	if err := run.session.Evaluate(ctx, extractor, &ts); err != nil {
		run.log.WithError(err).Warn("Tech stack detection failed")
		return
	}
	run.report.TechStack = run.techStack.Detect(&ts)
}

func (run *auditRun) screenshots(ctx context.Context) {
	if !run.home.Loaded {
		return
	}
	shots := &report.Screenshots{}
	if png, err := run.session.Screenshot(ctx); err == nil {
		shots.Desktop = base64.StdEncoding.EncodeToString(png)
	} else {
		run.log.WithError(err).Warn("Desktop screenshot failed")
	}

	if err := run.session.SetViewport(ctx, browser.MobileViewport(&run.cfg.Browser)); err == nil {
		if png, err := run.session.Screenshot(ctx); err == nil {
			shots.Mobile = base64.StdEncoding.EncodeToString(png)
		} else {
			run.log.WithError(err).Warn("Mobile screenshot failed")
		}
		if err := run.session.SetViewport(ctx, browser.DesktopViewport(&run.cfg.Browser)); err != nil {
			run.log.WithError(err).Warn("Failed to restore desktop viewport")
		}
	}

	if shots.Desktop != "" || shots.Mobile != "" {
		run.report.Screenshots = shots
	}
}

// pageBounds returns how many pages to discover and how many of those to
// analyze. A positive requested count can only lower the configured limits.
func (o *Orchestrator) pageBounds(requested int) (discover, analyze int) {
	discover, analyze = o.cfg.Discovery.MaxPages, o.cfg.Audit.PageLimit
	if requested > 0 {
		discover = min(discover, requested)
		analyze = min(analyze, requested)
	}
	return max(discover, 1), max(min(analyze, discover), 1)
}

// discover lists the site's pages and picks the ones to audit. Any failure
// falls back to the homepage alone.
func (run *auditRun) discover(ctx context.Context, requested int) {
	discoverLimit, analyzeLimit := run.pageBounds(requested)
	run.paths = []string{discovery.RootPath}
	if run.html != "" {
		paths, err := run.discoverer.Discover(run.html, run.siteURL, discoverLimit)
		if err != nil {
			run.log.WithError(err).Warn("Page discovery failed; auditing homepage only")
		} else {
			run.paths = paths
		}
	}
	run.report.Pages = run.paths
	run.targets = run.paths[:min(len(run.paths), analyzeLimit)]
}

// analyzePages audits the selected pages. The homepage result is reused.
// With one worker the shared session is used sequentially; with more, each
// page gets its own session.
func (run *auditRun) analyzePages(ctx context.Context) {
	audits := make([]*report.PageAudit, len(run.targets))
	audits[0] = &run.home

	if run.cfg.Audit.Workers <= 1 {
		for i := 1; i < len(run.targets); i++ {
			if ctx.Err() != nil {
				run.report.Partial = true
				break
			}
			audit := run.analyzePath(ctx, run.session, run.targets[i])
			audits[i] = &audit
		}
	} else {
		run.analyzeParallel(ctx, audits)
	}

	run.report.PageAudits = []report.PageAudit{}
	for _, audit := range audits {
		if audit != nil {
			run.report.PageAudits = append(run.report.PageAudits, *audit)
		}
	}
	if len(run.report.PageAudits) < len(run.targets) {
		run.report.Partial = true
	}
}

func (run *auditRun) analyzeParallel(ctx context.Context, audits []*report.PageAudit) {
	var mu sync.Mutex
	g := new(errgroup.Group)
	g.SetLimit(run.cfg.Audit.Workers)

	for i := 1; i < len(run.targets); i++ {
		path := run.targets[i]
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			audit := run.analyzeInNewSession(ctx, path)
			mu.Lock()
			audits[i] = &audit
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
}

func (run *auditRun) analyzeInNewSession(ctx context.Context, path string) report.PageAudit {
	session, err := run.provider.Open(ctx, browser.DesktopViewport(&run.cfg.Browser))
	if err != nil {
		pageURL, _ := discovery.Resolve(run.siteURL, path)
		return report.PageAudit{Path: path, URL: pageURL, Rating: report.MinRating, Error: err.Error()}
	}
	defer func() {
		if err := session.Close(); err != nil {
			run.log.WithError(err).Warn("Failed to close page session")
		}
	}()
	return run.analyzePath(ctx, session, path)
}

func (run *auditRun) analyzePath(ctx context.Context, session browser.Session, path string) report.PageAudit {
	pageURL, err := discovery.Resolve(run.siteURL, path)
	if err != nil {
		return report.PageAudit{Path: path, Rating: report.MinRating, Error: err.Error()}
	}
	return run.pages.Analyze(ctx, session, path, pageURL)
}

func (run *auditRun) probeAuth(ctx context.Context, creds *authprobe.Credentials) {
	if run.html == "" {
		if !creds.Empty() {
			run.report.AuthTests = &report.AuthProbeResult{
				Issues:  []report.Issue{},
				Details: []string{"Credentials were supplied but the homepage could not be loaded"},
			}
		}
		return
	}
	run.report.AuthTests = run.prober.Probe(ctx, run.session, run.html, run.siteURL, creds)
}

func (o *Orchestrator) newReport(siteURL string, start time.Time) *report.AuditReport {
	return &report.AuditReport{
		ID:         uuid.NewString(),
		URL:        siteURL,
		StartTime:  start,
		Pages:      []string{},
		PageAudits: []report.PageAudit{},
		Issues:     []report.Issue{},
		Warnings:   []report.Warning{},
		GoodPoints: []report.GoodPoint{},
		Version:    Version,
	}
}

func (o *Orchestrator) finish(r *report.AuditReport) {
	r.EndTime = o.now()
	r.TotalTimeMs = r.EndTime.Sub(r.StartTime).Milliseconds()
}

// failedReport is returned when no browser session could be opened.
func (o *Orchestrator) failedReport(siteURL string, start time.Time, err error) *report.AuditReport {
	r := o.newReport(siteURL, start)
	r.Issues = []report.Issue{{
		Title:       "Audit Failed",
		Description: fmt.Sprintf("The audit could not start a browser session: %v", err),
		Severity:    report.SeverityCritical,
		Category:    report.CategoryFunctionality,
		Rule:        "audit-session",
		Fix:         "Check that a Chrome or Chromium binary is installed and can be launched",
	}}
	r.Rating = report.MinRating
	r.Error = err.Error()
	r.Summary = report.Summarize(r)
	r.Advice = "The audit could not run. Retry once the browser is available."
	o.finish(r)
	return r
}
