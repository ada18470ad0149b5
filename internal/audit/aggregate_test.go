package audit

import (
	"strings"
	"testing"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pageWith(path string, rating float64, issues ...report.Issue) report.PageAudit {
	seo := report.NewAnalysisResult()
	seo.Issues = issues
	seo.GoodPoints = []string{"Single H1 heading"}
	seo.Warnings = []report.Warning{{Title: "Missing Canonical URL", Category: report.CategorySEO}}
	return report.PageAudit{
		Path:     path,
		URL:      site + path,
		Loaded:   true,
		Rating:   rating,
		Analysis: map[report.Category]report.AnalysisResult{report.CategorySEO: seo},
	}
}

func TestAggregator_Aggregate(t *testing.T) {
	r := &report.AuditReport{PageAudits: []report.PageAudit{
		pageWith("/", 4.0, report.Issue{Title: "Missing Meta Description", Severity: report.SeverityMedium, Category: report.CategorySEO}),
		pageWith("/about", 3.0),
		{Path: "/broken", URL: site + "/broken", Error: "net::ERR_NAME_NOT_RESOLVED"},
	}}

	NewAggregator(report.DefaultRatingPolicy(), 10).Aggregate(r)

	require.Len(t, r.Issues, 2)
	assert.Equal(t, "[/] Missing Meta Description", r.Issues[0].Title)
	assert.Equal(t, "/", r.Issues[0].Page)
	assert.Equal(t, "[/broken] Page Failed to Load", r.Issues[1].Title)
	assert.Equal(t, report.SeverityHigh, r.Issues[1].Severity)
	assert.Contains(t, r.Issues[1].Description, "ERR_NAME_NOT_RESOLVED")

	assert.Equal(t, "[/about] Missing Canonical URL", r.Warnings[1].Title)
	assert.Equal(t, report.GoodPoint{Title: "[/about] Single H1 heading", Category: report.CategorySEO, Page: "/about"}, r.GoodPoints[1])

	assert.Equal(t, 3.5, r.Rating, "mean over loaded pages only")
	assert.Equal(t, 2, r.Summary.PagesAnalyzed)
	assert.Equal(t, 1, r.Summary.PagesFailed)
	assert.NotEmpty(t, r.Advice)
}

func TestAggregator_NoLoadedPages(t *testing.T) {
	r := &report.AuditReport{PageAudits: []report.PageAudit{{Path: "/", Error: "timeout"}}}
	NewAggregator(report.DefaultRatingPolicy(), 10).Aggregate(r)

	assert.Equal(t, 3.0, r.Rating)
	assert.Len(t, r.Issues, 1)
	assert.NotNil(t, r.Warnings)
	assert.NotNil(t, r.GoodPoints)
}

func TestAdvice_Priorities(t *testing.T) {
	issues := []report.Issue{
		{Title: "[/] Missing Meta Description", Severity: report.SeverityMedium},
		{Title: "[/about] Missing Meta Description", Severity: report.SeverityMedium},
		{Title: "[/] No HTTPS", Severity: report.SeverityCritical, Fix: "Redirect all traffic to HTTPS"},
		{Title: "[/] Images Missing Alt Text", Severity: report.SeverityMedium},
		{Title: "[/] Small Touch Targets", Severity: report.SeverityLow},
	}

	advice := Advice(issues, 2.4)

	assert.True(t, strings.HasPrefix(advice, "Overall rating 2.4/5"))
	https := strings.Index(advice, "1. No HTTPS (critical): Redirect all traffic to HTTPS")
	meta := strings.Index(advice, "2. Missing Meta Description (medium, 2 occurrences)")
	alt := strings.Index(advice, "3. Images Missing Alt Text (medium)")
	require.NotEqual(t, -1, https)
	require.NotEqual(t, -1, meta)
	require.NotEqual(t, -1, alt)
	assert.Contains(t, advice, "Serve every page and asset over HTTPS")
	assert.Contains(t, advice, "Label every image")
	assert.Contains(t, advice, "phone-sized viewport")
	assert.NotContains(t, advice, "Reduce page weight")
}

func TestAdvice_Capped(t *testing.T) {
	var issues []report.Issue
	for _, title := range []string{"A", "B", "C", "D", "E", "F", "G"} {
		issues = append(issues, report.Issue{Title: title, Severity: report.SeverityLow})
	}
	advice := Advice(issues, 4.0)
	assert.Contains(t, advice, "5. E (low)")
	assert.NotContains(t, advice, "6. F")
}

func TestAdvice_NoIssues(t *testing.T) {
	advice := Advice(nil, 5.0)
	assert.Contains(t, advice, "excellent shape")
	assert.Contains(t, advice, "No issues were found")
}
