package audit

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/siteauditor/site-auditor/internal/authprobe"
	"github.com/siteauditor/site-auditor/internal/browser/browsertest"
	"github.com/siteauditor/site-auditor/internal/errs"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrchestrator_Run(t *testing.T) {
	provider := newSite()
	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: "example.com"})
	require.NoError(t, err)

	assert.Equal(t, site, result.URL)
	assert.NotEmpty(t, result.ID)
	assert.Equal(t, Version, result.Version)
	assert.Equal(t, []string{"/", "/about", "/pricing"}, result.Pages)
	require.Len(t, result.PageAudits, 3)
	for _, page := range result.PageAudits {
		assert.True(t, page.Loaded, page.Path)
		assert.Len(t, page.Analysis, len(report.Categories))
		assert.Zero(t, page.TotalIssues, page.Path)
	}
	assert.Empty(t, result.Issues)
	assert.NotEmpty(t, result.GoodPoints)
	assert.Contains(t, result.GoodPoints, report.GoodPoint{Title: "[/] Single H1 heading", Category: report.CategorySEO, Page: "/"})
	assert.Equal(t, report.MaxRating, result.Rating)
	assert.Equal(t, 3, result.Summary.PagesAnalyzed)
	assert.Equal(t, "A", result.Summary.Grade)
	assert.False(t, result.Partial)

	assert.False(t, result.StartTime.IsZero())
	assert.False(t, result.EndTime.Before(result.StartTime))

	require.NotNil(t, result.Screenshots)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("desktop-png")), result.Screenshots.Desktop)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("mobile-png")), result.Screenshots.Mobile)

	require.NotNil(t, result.TechStack)
	assert.Equal(t, []string{"jQuery"}, result.TechStack.Libraries)

	require.NotNil(t, result.AuthTests)
	assert.False(t, result.AuthTests.HasLogin)
	assert.False(t, result.AuthTests.HasSignup)

	require.NotNil(t, result.InteractiveTests)
	assert.Equal(t, 3, result.InteractiveTests.Buttons.Total)
	assert.Equal(t, 3, result.InteractiveTests.Links.Broken)
	require.NotNil(t, result.Resources)
	assert.Equal(t, int64(450000), result.Resources.TotalBytes)

	assert.Equal(t, 1, provider.Opened, "pages share one session")
	assert.True(t, provider.AllClosed())
	assert.Equal(t, []string{site + "/", site + "/about", site + "/pricing"}, provider.Visited())
}

func TestOrchestrator_InvalidInput(t *testing.T) {
	provider := newSite()
	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: "   "})

	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidInput))
	assert.Nil(t, result)
	assert.Zero(t, provider.Opened, "no browser work for invalid input")
}

func TestOrchestrator_SessionFailure(t *testing.T) {
	provider := newSite()
	provider.OpenErr = errors.New("chrome not found")

	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: site})
	require.NoError(t, err)

	assert.Equal(t, report.MinRating, result.Rating)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "Audit Failed", result.Issues[0].Title)
	assert.Equal(t, report.SeverityCritical, result.Issues[0].Severity)
	assert.Contains(t, result.Error, "chrome not found")
	assert.False(t, result.StartTime.IsZero())
	assert.False(t, result.EndTime.IsZero())
	assert.False(t, result.EndTime.Before(result.StartTime))
	assert.Equal(t, 1, result.Summary.IssuesBySeverity[report.SeverityCritical])
}

func TestOrchestrator_FailedPageExcludedFromRating(t *testing.T) {
	provider := newSite()
	provider.Add(site+"/about", &browsertest.Page{NavigateErr: errors.New("net::ERR_CONNECTION_REFUSED")})
	results := healthyResults()
	results["seo"] = map[string]any{"title": "", "h1Count": 0}
	provider.Add(site+"/pricing", &browsertest.Page{Results: results})

	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: site})
	require.NoError(t, err)

	require.Len(t, result.PageAudits, 3)
	about := result.PageAudits[1]
	assert.False(t, about.Loaded)
	assert.Contains(t, about.Error, "ERR_CONNECTION_REFUSED")
	assert.Equal(t, report.MinRating, about.Rating, "failed pages still carry an in-range rating")

	home, pricing := result.PageAudits[0], result.PageAudits[2]
	assert.Less(t, pricing.Rating, home.Rating)
	expected := report.DefaultRatingPolicy().OverallRating([]report.PageAudit{home, pricing})
	assert.Equal(t, expected, result.Rating)

	var failed *report.Issue
	for i := range result.Issues {
		if result.Issues[i].Title == "[/about] Page Failed to Load" {
			failed = &result.Issues[i]
		}
	}
	require.NotNil(t, failed)
	assert.Equal(t, report.SeverityHigh, failed.Severity)
	assert.Equal(t, 1, result.Summary.PagesFailed)
	assert.Equal(t, 2, result.Summary.PagesAnalyzed)
}

func TestOrchestrator_HomepageUnreachable(t *testing.T) {
	provider := browsertest.NewProvider()

	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: site})
	require.NoError(t, err)

	assert.Equal(t, []string{"/"}, result.Pages)
	require.Len(t, result.PageAudits, 1)
	assert.False(t, result.PageAudits[0].Loaded)
	assert.Equal(t, 3.0, result.Rating)
	assert.Nil(t, result.Screenshots)
	assert.Nil(t, result.AuthTests)
	assert.True(t, provider.AllClosed())
}

func TestOrchestrator_ExtractorFailureIsolated(t *testing.T) {
	provider := newSite()
	provider.Pages[site+"/pricing"].EvalErrors = map[string]error{"seo": errors.New("document detached")}

	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: site})
	require.NoError(t, err)

	pricing := result.PageAudits[2]
	assert.True(t, pricing.Loaded)
	seo := pricing.Analysis[report.CategorySEO]
	require.Len(t, seo.Issues, 1)
	assert.Equal(t, "Category Analysis Error", seo.Issues[0].Title)
	assert.Equal(t, report.SeverityLow, seo.Issues[0].Severity)
	assert.Empty(t, pricing.Analysis[report.CategorySecurity].Issues)
}

func TestOrchestrator_MaxPages(t *testing.T) {
	provider := newSite()
	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: site, MaxPages: 2})
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/about"}, result.Pages)
	assert.Len(t, result.PageAudits, 2)
}

// largeSite scripts a homepage linking to n other pages, all reachable.
func largeSite(n int) *browsertest.Provider {
	var links strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&links, `<a href="/page-%d">Page %d</a>`, i, i)
	}
	provider := browsertest.NewProvider()
	provider.Add(site+"/", &browsertest.Page{HTML: "<html><body>" + links.String() + "</body></html>", Results: healthyResults()})
	for i := 1; i <= n; i++ {
		provider.Add(fmt.Sprintf("%s/page-%d", site, i), &browsertest.Page{Results: healthyResults()})
	}
	return provider
}

func TestOrchestrator_PageBounds(t *testing.T) {
	cfg := testConfig()
	require.Equal(t, 15, cfg.Discovery.MaxPages)
	require.Equal(t, 8, cfg.Audit.PageLimit)

	tests := []struct {
		name       string
		maxPages   int
		discovered int
		audited    int
	}{
		{name: "configured defaults", maxPages: 0, discovered: 15, audited: 8},
		{name: "request cannot raise the limits", maxPages: 1000, discovered: 15, audited: 8},
		{name: "request lowers both", maxPages: 5, discovered: 5, audited: 5},
		{name: "request between the limits", maxPages: 10, discovered: 10, audited: 8},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			provider := largeSite(40)
			result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{URL: site, MaxPages: test.maxPages})
			require.NoError(t, err)

			assert.Len(t, result.Pages, test.discovered)
			assert.Len(t, result.PageAudits, test.audited)
			assert.Len(t, provider.Visited(), test.audited)
			assert.Equal(t, result.Pages[:test.audited], pagePaths(result.PageAudits))
			assert.False(t, result.Partial)
		})
	}
}

func pagePaths(pages []report.PageAudit) []string {
	paths := make([]string, len(pages))
	for i, page := range pages {
		paths[i] = page.Path
	}
	return paths
}

func TestOrchestrator_ParallelWorkers(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Workers = 3
	provider := newSite()

	result, err := newTestOrchestrator(cfg, provider).Run(context.Background(), Request{URL: site})
	require.NoError(t, err)

	require.Len(t, result.PageAudits, 3)
	assert.Equal(t, "/about", result.PageAudits[1].Path)
	assert.Equal(t, "/pricing", result.PageAudits[2].Path)
	assert.Equal(t, 3, provider.Opened, "one shared session plus one per extra page")
	assert.True(t, provider.AllClosed())
}

func TestOrchestrator_CancelledContext(t *testing.T) {
	provider := newSite()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestOrchestrator(testConfig(), provider).Run(ctx, Request{URL: site})
	require.NoError(t, err)

	assert.True(t, result.Partial)
	assert.Empty(t, result.PageAudits)
	assert.Equal(t, 3.0, result.Rating)
	assert.True(t, provider.AllClosed())
}

func TestOrchestrator_OuterTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.Audit.Timeout = time.Nanosecond
	provider := newSite()

	result, err := newTestOrchestrator(cfg, provider).Run(context.Background(), Request{URL: site})
	require.NoError(t, err)
	assert.True(t, result.Partial)
	assert.True(t, provider.AllClosed())
}

func TestOrchestrator_CredentialsWithoutLoginPage(t *testing.T) {
	provider := newSite()
	result, err := newTestOrchestrator(testConfig(), provider).Run(context.Background(), Request{
		URL:         site,
		Credentials: &authprobe.Credentials{Username: "ada", Password: "secret"},
	})
	require.NoError(t, err)

	require.NotNil(t, result.AuthTests)
	assert.Nil(t, result.AuthTests.CredentialTest)
	assert.Contains(t, result.AuthTests.Details, "Credentials were supplied but no login page was found")
	assert.Empty(t, result.AuthTests.Issues)
}
