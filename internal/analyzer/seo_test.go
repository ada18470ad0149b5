package analyzer

import (
	"strings"
	"testing"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSEOAnalyzer() *SEOAnalyzer {
	cfg := config.DefaultConfig().SEO
	return NewSEOAnalyzer(&cfg)
}

func TestSEOAnalyzer_WellFormedPage(t *testing.T) {
	page := healthyPage()
	require.Len(t, page.SEO.Title, 55)
	require.Len(t, page.SEO.MetaDescription, 155)

	result, err := newTestSEOAnalyzer().Analyze(page)
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.GreaterOrEqual(t, len(result.GoodPoints), 3)
	assert.Contains(t, result.GoodPoints, "Title length is optimal (55 characters)")
	assert.Contains(t, result.GoodPoints, "Meta description length is optimal (155 characters)")
	assert.Contains(t, result.GoodPoints, "Single H1 heading")
}

func TestSEOAnalyzer_H1Rule(t *testing.T) {
	tests := []struct {
		name     string
		h1Count  int
		severity report.Severity
		title    string
	}{
		{"no h1", 0, report.SeverityHigh, "Missing H1 Heading"},
		{"two h1", 2, report.SeverityMedium, "Multiple H1 Headings"},
		{"five h1", 5, report.SeverityMedium, "Multiple H1 Headings"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			page := healthyPage()
			page.SEO.H1Count = test.h1Count

			result, err := newTestSEOAnalyzer().Analyze(page)
			require.NoError(t, err)
			require.Len(t, result.Issues, 1)
			if result.Issues[0].Title != test.title {
				t.Errorf("Expected title %q, got %q", test.title, result.Issues[0].Title)
			}
			if result.Issues[0].Severity != test.severity {
				t.Errorf("Expected severity %s, got %s", test.severity, result.Issues[0].Severity)
			}
		})
	}
}

func TestSEOAnalyzer_MissingTitleAndDescription(t *testing.T) {
	page := healthyPage()
	page.SEO.Title = "   "
	page.SEO.MetaDescription = ""
	page.SEO.HasMetaDescription = false

	result, err := newTestSEOAnalyzer().Analyze(page)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"Missing Page Title", "Missing Meta Description"}, issueTitles(result))
}

func TestSEOAnalyzer_LengthWarnings(t *testing.T) {
	page := healthyPage()
	page.SEO.Title = "Acme"
	page.SEO.MetaDescription = strings.Repeat("x", 200)

	result, err := newTestSEOAnalyzer().Analyze(page)
	require.NoError(t, err)

	assert.Empty(t, result.Issues, "length problems are warnings, not issues")
	var titles []string
	for _, w := range result.Warnings {
		titles = append(titles, w.Title)
	}
	assert.Contains(t, titles, "Title Too Short")
	assert.Contains(t, titles, "Meta Description Too Long")
}

func TestSEOAnalyzer_ContentAndSocial(t *testing.T) {
	page := healthyPage()
	page.SEO.WordCount = 120
	page.SEO.TextLength = 100
	page.SEO.OpenGraph = nil
	page.SEO.StructuredData = nil
	page.SEO.Canonical = ""

	result, err := newTestSEOAnalyzer().Analyze(page)
	require.NoError(t, err)

	var titles []string
	for _, w := range result.Warnings {
		titles = append(titles, w.Title)
	}
	for _, expected := range []string{"Thin Content", "Low Text-to-HTML Ratio", "Missing Open Graph Tags", "No Structured Data", "Missing Canonical URL"} {
		assert.Contains(t, titles, expected)
	}
}

func TestSEOAnalyzer_ImagesMissingAlt(t *testing.T) {
	page := healthyPage()
	page.SEO.ImagesMissingAlt = 2

	result, err := newTestSEOAnalyzer().Analyze(page)
	require.NoError(t, err)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, report.SeverityLow, result.Issues[0].Severity)
	assert.Contains(t, result.Issues[0].Description, "2 of 4 images")
}
