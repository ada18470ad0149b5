// Package analyzer turns captured page signals into categorized findings.
// Every analyzer is a pure function of a signals.Page; none of them touch
// the browser.
package analyzer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/scanner"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/sirupsen/logrus"
)

var errNoSignals = errors.New("no signals captured")

// CategoryAnalyzer produces the findings of one category for one page.
type CategoryAnalyzer interface {
	Category() report.Category
	Analyze(page *signals.Page) (report.AnalysisResult, error)
}

// Suite runs every category analyzer against a page, isolating failures so
// one broken check never aborts the page.
type Suite struct {
	analyzers []CategoryAnalyzer
	log       logrus.FieldLogger
}

func NewSuite(cfg *config.Config, keywords *Keywords, contentScanner *scanner.ContentScanner, log logrus.FieldLogger) *Suite {
	return &Suite{
		analyzers: []CategoryAnalyzer{
			NewSEOAnalyzer(&cfg.SEO),
			NewSecurityAnalyzer(&cfg.Security, contentScanner),
			NewPerformanceAnalyzer(&cfg.Performance),
			NewAccessibilityAnalyzer(),
			NewMobileAnalyzer(&cfg.Mobile, keywords),
			NewUXAnalyzer(keywords),
			NewUIAnalyzer(&cfg.UI),
			NewFunctionalityAnalyzer(keywords),
		},
		log: log,
	}
}

// Run returns one result per category. The map always holds all eight.
func (s *Suite) Run(page *signals.Page) map[report.Category]report.AnalysisResult {
	results := make(map[report.Category]report.AnalysisResult, len(s.analyzers))
	for _, a := range s.analyzers {
		results[a.Category()] = s.runOne(a, page)
	}
	return results
}

func (s *Suite) runOne(a CategoryAnalyzer, page *signals.Page) (result report.AnalysisResult) {
	category := a.Category()
	defer func() {
		if r := recover(); r != nil {
			s.log.WithFields(logrus.Fields{"category": category, "page": page.Path}).Errorf("Analyzer panicked: %v", r)
			result = analysisError(category, fmt.Errorf("%v", r))
		}
	}()

	if err := page.Errors[category]; err != nil {
		s.log.WithFields(logrus.Fields{"category": category, "page": page.Path}).WithError(err).Warn("Signals unavailable")
		return analysisError(category, err)
	}

	result, err := a.Analyze(page)
	if err != nil {
		s.log.WithFields(logrus.Fields{"category": category, "page": page.Path}).WithError(err).Warn("Analysis failed")
		return analysisError(category, err)
	}
	return result
}

func analysisError(category report.Category, err error) report.AnalysisResult {
	f := newFindings(category)
	f.issue("analysis-error", report.SeverityLow, "Category Analysis Error",
		fmt.Sprintf("%s checks could not complete: %v", category, err),
		"Re-run the audit; if this persists the page may block script evaluation")
	return f.result
}

// findings accumulates the result of one category check.
type findings struct {
	category report.Category
	result   report.AnalysisResult
}

func newFindings(category report.Category) *findings {
	return &findings{category: category, result: report.NewAnalysisResult()}
}

func (f *findings) issue(rule string, severity report.Severity, title, description, fix string) {
	f.result.Issues = append(f.result.Issues, report.Issue{
		Title:       title,
		Description: description,
		Severity:    severity,
		Category:    f.category,
		Rule:        rule,
		Fix:         fix,
	})
}

func (f *findings) warn(title, description string) {
	f.result.Warnings = append(f.result.Warnings, report.Warning{
		Title:       title,
		Description: description,
		Category:    f.category,
	})
}

func (f *findings) good(point string) {
	f.result.GoodPoints = append(f.result.GoodPoints, point)
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	if strings.HasSuffix(word, "y") {
		return fmt.Sprintf("%d %sies", n, strings.TrimSuffix(word, "y"))
	}
	return fmt.Sprintf("%d %ss", n, word)
}
