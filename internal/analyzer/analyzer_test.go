package analyzer

import (
	"errors"
	"testing"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuite_HealthyPageHasNoIssues(t *testing.T) {
	results := testSuite().Run(healthyPage())

	require.Len(t, results, len(report.Categories))
	for _, category := range report.Categories {
		result, ok := results[category]
		require.True(t, ok, "missing result for %s", category)
		assert.Empty(t, result.Issues, "%s raised %v", category, issueTitles(result))
		assert.NotEmpty(t, result.GoodPoints, "%s should report good points", category)
		for _, w := range result.Warnings {
			assert.Equal(t, category, w.Category)
		}
	}
}

func TestSuite_ExtractionErrorBecomesLowIssue(t *testing.T) {
	page := healthyPage()
	page.Mobile = nil
	page.SetError(report.CategoryMobile, errors.New("evaluation timed out"))

	results := testSuite().Run(page)

	mobile := results[report.CategoryMobile]
	require.Len(t, mobile.Issues, 1)
	assert.Equal(t, "Category Analysis Error", mobile.Issues[0].Title)
	assert.Equal(t, report.SeverityLow, mobile.Issues[0].Severity)
	assert.Equal(t, report.CategoryMobile, mobile.Issues[0].Category)
	assert.Contains(t, mobile.Issues[0].Description, "evaluation timed out")

	assert.Empty(t, results[report.CategorySEO].Issues, "other categories must be unaffected")
}

func TestSuite_MissingSignalsBecomeLowIssue(t *testing.T) {
	page := healthyPage()
	page.UI = nil

	ui := testSuite().Run(page)[report.CategoryUI]
	require.Len(t, ui.Issues, 1)
	assert.Equal(t, "Category Analysis Error", ui.Issues[0].Title)
}

type panickingAnalyzer struct{}

func (panickingAnalyzer) Category() report.Category { return report.CategoryUX }

func (panickingAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	var controls []signals.Control
	_ = controls[3]
	return report.AnalysisResult{}, nil
}

func TestSuite_RecoversFromPanic(t *testing.T) {
	s := &Suite{analyzers: []CategoryAnalyzer{panickingAnalyzer{}}, log: logrus.New()}

	results := s.Run(healthyPage())

	ux := results[report.CategoryUX]
	require.Len(t, ux.Issues, 1)
	assert.Equal(t, "Category Analysis Error", ux.Issues[0].Title)
	assert.Equal(t, report.SeverityLow, ux.Issues[0].Severity)
}

func TestTruncateString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a long string", 10, "this is..."},
	}

	for _, test := range tests {
		if got := truncateString(test.input, test.maxLen); got != test.expected {
			t.Errorf("truncateString(%q, %d) = %q, expected %q", test.input, test.maxLen, got, test.expected)
		}
	}
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "1 image", plural(1, "image"))
	assert.Equal(t, "3 images", plural(3, "image"))
	assert.Equal(t, "2 font families", plural(2, "font family"))
}
