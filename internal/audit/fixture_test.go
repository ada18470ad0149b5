package audit

import (
	"strings"

	"github.com/siteauditor/site-auditor/internal/browser/browsertest"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/logger"
	"github.com/siteauditor/site-auditor/internal/signals"
)

const site = "https://example.com"

const homepageHTML = `<html><body>
<nav><a href="/about">About</a><a href="/pricing?plan=pro">Pricing</a><a href="https://twitter.com/acme">Twitter</a></nav>
<main><h1>Build better widgets</h1><a class="btn" href="/pricing">Get started</a></main>
</body></html>`

// healthyResults scripts every extractor with signals that raise no issues.
func healthyResults() map[string]any {
	title := "Acme Widgets | Handcrafted widgets for modern web teams"
	description := "Acme builds handcrafted, accessible widgets for modern web teams. Browse the catalogue, compare plans, and start a free trial in minutes, no card required."

	return map[string]any{
		"seo": signals.SEO{
			Title:              title,
			TitleCount:         1,
			MetaDescription:    description,
			HasMetaDescription: true,
			H1Count:            1,
			ImageCount:         2,
			Canonical:          site + "/",
			OpenGraph:          map[string]string{"og:title": "Acme"},
			TwitterCard:        map[string]string{"twitter:card": "summary"},
			StructuredData:     []string{"Organization"},
			WordCount:          640,
			TextLength:         3200,
			HTMLLength:         16000,
			HasFavicon:         true,
		},
		"security": signals.Security{
			Protocol:      "https:",
			ScriptSources: []string{site + "/app.js"},
			HasCSPMeta:    true,
		},
		"performance": signals.Performance{
			DOMContentLoadedMs:     800,
			FirstContentfulPaintMs: 600,
			TimingAvailable:        true,
			Resources: []signals.Resource{
				{Name: site + "/app.js", Type: "script", TransferSize: 100000},
				{Name: site + "/hero.webp", Type: "img", TransferSize: 50000},
			},
			DOMNodeCount: 800,
		},
		"accessibility": signals.Accessibility{
			Lang:       "en",
			ImageCount: 2,
			Landmarks:  map[string]bool{"header": true, "nav": true, "main": true, "footer": true},
		},
		"mobile": signals.Mobile{
			HasViewportMeta: true,
			ViewportContent: "width=device-width, initial-scale=1",
			ViewportWidth:   375,
			ScrollWidth:     375,
			TouchTargets:    []signals.Size{{Width: 48, Height: 48}},
			BodyFontSizePx:  16,
			MenuHints:       []string{"navbar-toggler"},
		},
		"ux": signals.UX{
			NavCount:     1,
			NavLinkCount: 3,
			Controls:     []signals.Control{{Tag: "a", Text: "Get started", Href: "/pricing", AboveFold: true}},
			H1AboveFold:  true,
			Forms:        []signals.Form{{InputTypes: []string{"email", "textarea"}, Text: "Contact us"}},
		},
		"ui": signals.UI{
			FontFamilies:  []string{"inter"},
			ImageCount:    2,
			FlexGridCount: 10,
			DarkModeQuery: true,
		},
		"functionality": signals.Functionality{
			Title:    title,
			Heading:  "Build better widgets",
			BodyText: strings.Repeat("Acme widgets are built to last. ", 30),
		},
		"interactive": signals.Interactive{Controls: []signals.InteractiveControl{
			{Kind: "button", Label: "Buy", Width: 80, Height: 40},
			{Kind: "link", Label: "Hidden", Hidden: true},
		}},
		"techstack": signals.TechStack{
			ScriptSources: []string{"https://code.jquery.com/jquery-3.7.1.min.js"},
		},
	}
}

// newSite scripts a three-page site.
func newSite() *browsertest.Provider {
	provider := browsertest.NewProvider()
	provider.Add(site+"/", &browsertest.Page{HTML: homepageHTML, Results: healthyResults()})
	provider.Add(site+"/about", &browsertest.Page{Results: healthyResults()})
	provider.Add(site+"/pricing", &browsertest.Page{Results: healthyResults()})
	return provider
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.LinkCheck.Enabled = false
	cfg.Audit.Timeout = 0
	return cfg
}

func newTestOrchestrator(cfg *config.Config, provider *browsertest.Provider) *Orchestrator {
	return New(cfg, provider, logger.Discard())
}
