package analyzer

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/scanner"
	"github.com/siteauditor/site-auditor/internal/signals"
	"golang.org/x/net/publicsuffix"
)

type SecurityAnalyzer struct {
	config  *config.SecurityConfig
	scanner *scanner.ContentScanner
}

func NewSecurityAnalyzer(cfg *config.SecurityConfig, contentScanner *scanner.ContentScanner) *SecurityAnalyzer {
	return &SecurityAnalyzer{
		config:  cfg,
		scanner: contentScanner,
	}
}

func (a *SecurityAnalyzer) Category() report.Category {
	return report.CategorySecurity
}

func (a *SecurityAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	s := page.Security
	if s == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategorySecurity)

	scheme := strings.ToLower(page.Scheme)
	if scheme == "" {
		scheme = strings.TrimSuffix(strings.ToLower(s.Protocol), ":")
	}

	if scheme != "https" {
		f.issue("https", report.SeverityCritical, "No HTTPS",
			"The page is served over an unencrypted connection; traffic and form data can be read or altered in transit",
			"Serve the site over HTTPS and redirect HTTP requests")
	} else {
		f.good("Served over HTTPS")
		a.checkInsecureForms(f, s)
		a.checkMixedContent(f, s)
	}

	if err := a.checkSecrets(f, s); err != nil {
		return report.AnalysisResult{}, fmt.Errorf("failed to scan for secrets: %w", err)
	}

	if s.HasCSPMeta {
		f.good("Content-Security-Policy declared")
	} else {
		f.warn("No Content-Security-Policy", "No CSP meta tag found; a policy limits the impact of injected scripts")
	}

	if s.UnsafeBlankTargets > 0 {
		f.warn("Unsafe target=\"_blank\" Links", fmt.Sprintf("%s open a new tab without rel=\"noopener\"", plural(s.UnsafeBlankTargets, "link")))
	}

	a.checkThirdPartyScripts(f, page.Host, s.ScriptSources)
	return f.result, nil
}

func (a *SecurityAnalyzer) checkInsecureForms(f *findings, s *signals.Security) {
	var insecure []string
	for _, action := range s.FormActions {
		if strings.HasPrefix(strings.ToLower(action), "http://") {
			insecure = append(insecure, action)
		}
	}
	if len(insecure) == 0 {
		return
	}
	f.issue("insecure-form", report.SeverityCritical, "Insecure Form Submission",
		fmt.Sprintf("%s submit over plain HTTP from a secure page (e.g. %s)", plural(len(insecure), "form"), truncateString(insecure[0], 80)),
		"Point form actions at HTTPS endpoints")
}

func (a *SecurityAnalyzer) checkMixedContent(f *findings, s *signals.Security) {
	if len(s.MixedContent) == 0 {
		f.good("No mixed content")
		return
	}
	f.issue("mixed-content", report.SeverityHigh, "Mixed Content",
		fmt.Sprintf("%s loaded over HTTP on a secure page (e.g. %s)", plural(len(s.MixedContent), "resource"), truncateString(s.MixedContent[0], 80)),
		"Load every script, stylesheet and image over HTTPS")
}

func (a *SecurityAnalyzer) checkSecrets(f *findings, s *signals.Security) error {
	if a.scanner == nil || len(a.config.SecretPatterns) == 0 || len(s.InlineScripts) == 0 {
		return nil
	}

	docs := make([]scanner.Document, 0, len(s.InlineScripts))
	for i, body := range s.InlineScripts {
		docs = append(docs, scanner.Document{Source: fmt.Sprintf("inline-script-%d", i+1), Body: body})
	}

	matches, err := a.scanner.SearchAll(a.config.SecretPatterns, docs)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	f.issue("secret-detection", report.SeverityCritical, "Exposed API Key",
		fmt.Sprintf("%s in inline scripts look like credentials (first: %s, line %d: %s)",
			plural(len(matches), "value"), matches[0].Source, matches[0].Line, matches[0].Content),
		"Move secrets server-side and rotate any key that was exposed")
	return nil
}

func (a *SecurityAnalyzer) checkThirdPartyScripts(f *findings, host string, sources []string) {
	site := registrableDomain(host)
	thirdParty := 0
	for _, src := range sources {
		u, err := url.Parse(src)
		if err != nil || u.Host == "" {
			continue
		}
		if registrableDomain(u.Hostname()) != site {
			thirdParty++
		}
	}

	switch {
	case thirdParty > a.config.MaxThirdPartyScripts:
		f.issue("third-party-scripts", report.SeverityLow, "Many Third-Party Scripts",
			fmt.Sprintf("%d scripts load from other domains; each one runs with full page privileges", thirdParty),
			"Audit third-party scripts and remove the ones you do not need")
	case thirdParty > 0:
		f.warn("Third-Party Scripts", fmt.Sprintf("%s load from other domains", plural(thirdParty, "script")))
	}
}

// registrableDomain reduces a host to its eTLD+1 so that cdn.example.com and
// www.example.com count as the same site.
func registrableDomain(host string) string {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if h, _, found := strings.Cut(host, ":"); found {
		host = h
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}
