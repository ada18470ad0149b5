package analyzer

import (
	"testing"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUIAnalyzer() *UIAnalyzer {
	return NewUIAnalyzer(&config.DefaultConfig().UI)
}

func TestUIAnalyzer_Healthy(t *testing.T) {
	result, err := newUIAnalyzer().Analyze(healthyPage())
	require.NoError(t, err)

	assert.Empty(t, result.Issues)
	assert.Empty(t, result.Warnings)
	assert.Contains(t, result.GoodPoints, "Consistent typography (2 font families)")
	assert.Contains(t, result.GoodPoints, "All images load")
	assert.Contains(t, result.GoodPoints, "Dark mode supported")
}

func TestUIAnalyzer_Problems(t *testing.T) {
	page := healthyPage()
	page.UI.FontFamilies = []string{"a", "b", "c", "d", "e", "f"}
	page.UI.BrokenImages = []string{"https://example.com/missing.png"}
	page.UI.FlexGridCount = 0
	page.UI.DarkModeQuery = false

	result, err := newUIAnalyzer().Analyze(page)
	require.NoError(t, err)

	titles := make(map[string]report.Severity)
	for _, issue := range result.Issues {
		assert.Equal(t, report.CategoryUI, issue.Category)
		titles[issue.Title] = issue.Severity
	}
	assert.Equal(t, map[string]report.Severity{
		"Too Many Fonts":                report.SeverityMedium,
		"Broken Images":                 report.SeverityHigh,
		"No Responsive Layout Detected": report.SeverityMedium,
	}, titles)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, "No Dark Mode", result.Warnings[0].Title)
}

func TestUIAnalyzer_NoSignals(t *testing.T) {
	page := healthyPage()
	page.UI = nil
	_, err := newUIAnalyzer().Analyze(page)
	assert.Error(t, err)
}
