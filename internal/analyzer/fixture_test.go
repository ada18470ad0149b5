package analyzer

import (
	"strings"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/scanner"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/sirupsen/logrus"
)

const (
	healthyTitle       = "Acme Widgets | Handcrafted widgets for modern web teams"
	healthyDescription = "Acme builds handcrafted, accessible widgets for modern web teams. Browse the catalogue, compare plans, and start a free trial in minutes, no card required."
)

// healthyPage returns signals for a page that passes every check.
func healthyPage() *signals.Page {
	return &signals.Page{
		URL:    "https://example.com/",
		Path:   "/",
		Scheme: "https",
		Host:   "example.com",
		Status: 200,
		SEO: &signals.SEO{
			Title:              healthyTitle,
			TitleCount:         1,
			MetaDescription:    healthyDescription,
			HasMetaDescription: true,
			H1Count:            1,
			ImageCount:         4,
			Canonical:          "https://example.com/",
			OpenGraph:          map[string]string{"og:title": "Acme Widgets"},
			TwitterCard:        map[string]string{"twitter:card": "summary"},
			StructuredData:     []string{"Organization"},
			WordCount:          640,
			TextLength:         3200,
			HTMLLength:         16000,
			HasFavicon:         true,
		},
		Security: &signals.Security{
			Protocol:      "https:",
			FormActions:   []string{"https://example.com/contact"},
			InlineScripts: []string{"window.dataLayer = window.dataLayer || [];"},
			ScriptSources: []string{"https://example.com/app.js", "https://cdn.example.com/vendor.js"},
			HasCSPMeta:    true,
		},
		Performance: &signals.Performance{
			DOMContentLoadedMs:     820,
			LoadEventMs:            1400,
			FirstPaintMs:           500,
			FirstContentfulPaintMs: 610,
			TimingAvailable:        true,
			Resources: []signals.Resource{
				{Name: "https://example.com/app.js", Type: "script", TransferSize: 120000},
				{Name: "https://example.com/site.css", Type: "link", TransferSize: 30000},
				{Name: "https://example.com/hero.webp", Type: "img", TransferSize: 90000},
			},
			DOMNodeCount:        900,
			ImagesBelowFold:     2,
			LazyImagesBelowFold: 2,
		},
		Accessibility: &signals.Accessibility{
			Lang:           "en",
			ImageCount:     4,
			Landmarks:      map[string]bool{"header": true, "nav": true, "main": true, "footer": true},
			FormFieldCount: 2,
		},
		Mobile: &signals.Mobile{
			HasViewportMeta: true,
			ViewportContent: "width=device-width, initial-scale=1",
			ViewportWidth:   375,
			ScrollWidth:     375,
			TouchTargets:    []signals.Size{{Width: 48, Height: 48}, {Width: 120, Height: 44}},
			BodyFontSizePx:  16,
			MenuHints:       []string{"navbar-toggler collapsed"},
			InputHeights:    []float64{44},
		},
		UX: &signals.UX{
			NavCount:     1,
			NavLinkCount: 5,
			Controls: []signals.Control{
				{Tag: "a", Text: "Get started", Href: "/signup", AboveFold: true},
				{Tag: "a", Text: "Pricing", Href: "/pricing", AboveFold: true},
			},
			H1AboveFold: true,
			Forms: []signals.Form{
				{Action: "/contact", Method: "post", InputTypes: []string{"email", "textarea"}, Text: "Contact us"},
			},
		},
		UI: &signals.UI{
			FontFamilies:  []string{"inter", "georgia"},
			ImageCount:    4,
			FlexGridCount: 12,
			DarkModeQuery: true,
		},
		Functionality: &signals.Functionality{
			FormCount:    1,
			LazyElements: 2,
			Title:        healthyTitle,
			Heading:      "Build better widgets",
			BodyText:     strings.Repeat("Acme widgets are built to last. ", 30),
		},
		LinkChecks: []report.LinkCheck{
			{URL: "https://example.com/pricing", Status: 200, OK: true},
		},
	}
}

func testSuite() *Suite {
	cfg := config.DefaultConfig()
	return NewSuite(cfg, DefaultKeywords(), scanner.NewContentScanner(cfg.Security.AllowedSecrets), logrus.New())
}

func issueTitles(result report.AnalysisResult) []string {
	titles := make([]string, 0, len(result.Issues))
	for _, issue := range result.Issues {
		titles = append(titles, issue.Title)
	}
	return titles
}
