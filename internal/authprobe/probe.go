// Package authprobe locates a site's login and signup flows from its
// homepage, checks that their forms are usable and optionally signs in with
// caller-supplied credentials.
package authprobe

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/siteauditor/site-auditor/internal/analyzer"
	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/sirupsen/logrus"
)

// Credentials are used only to fill the discovered login form. They are
// never logged or echoed into the report.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (c *Credentials) Empty() bool {
	return c == nil || (c.Username == "" && c.Password == "")
}

type Options struct {
	ExerciseCredentials bool
}

type Prober struct {
	keywords *analyzer.Keywords
	options  Options
	log      logrus.FieldLogger
}

func NewProber(keywords *analyzer.Keywords, options Options, log logrus.FieldLogger) *Prober {
	return &Prober{keywords: keywords, options: options, log: log}
}

// Probe inspects the homepage HTML for auth affordances and visits the
// login and signup pages it finds with session. Navigation and extraction
// failures become probe issues; Probe itself never fails.
func (p *Prober) Probe(ctx context.Context, session browser.Session, homepageHTML, baseURL string, creds *Credentials) *report.AuthProbeResult {
	result := &report.AuthProbeResult{
		Issues:  []report.Issue{},
		Details: []string{},
	}

	found := p.scan(homepageHTML, baseURL)
	result.HasLogin = found.hasLogin
	result.HasSignup = found.hasSignup
	result.LoginURL = found.loginURL
	result.SignupURL = found.signupURL
	result.InlineLoginForm = found.inlineLogin
	result.SocialProviders = found.providers
	result.SocialLoginAvailable = found.social

	if !found.hasLogin && !found.hasSignup {
		result.Details = append(result.Details, "No login or signup links found on the homepage")
	}
	if found.hasLogin && found.loginURL == "" {
		result.Details = append(result.Details, "Login control does not link to a separate page")
	}
	if found.social {
		result.Details = append(result.Details, fmt.Sprintf("Social login detected: %s", strings.Join(found.providers, ", ")))
	}

	var loginForm *signals.AuthForm
	if found.loginURL != "" {
		loginForm = p.checkPage(ctx, session, found.loginURL, flowLogin, result)
		result.LoginPageAccessible = loginForm != nil
	}

	if !creds.Empty() {
		switch {
		case found.loginURL == "" && !found.inlineLogin:
			result.Details = append(result.Details, detailNoLoginPage)
		case p.options.ExerciseCredentials:
			p.exerciseCredentials(ctx, session, found, loginForm, baseURL, creds, result)
		default:
			result.Details = append(result.Details, detailCredentialsDisabled)
		}
	}

	if found.signupURL != "" {
		signupForm := p.checkPage(ctx, session, found.signupURL, flowSignup, result)
		result.SignupPageAccessible = signupForm != nil
	}

	p.log.WithFields(logrus.Fields{
		"login":  result.HasLogin,
		"signup": result.HasSignup,
		"issues": len(result.Issues),
	}).Debug("Auth probe complete")
	return result
}

type flow string

const (
	flowLogin  flow = "Login"
	flowSignup flow = "Signup"
)

// checkPage loads the page of one auth flow and validates its form. It
// returns nil when the page could not be loaded.
func (p *Prober) checkPage(ctx context.Context, session browser.Session, pageURL string, kind flow, result *report.AuthProbeResult) *signals.AuthForm {
	nav, err := session.Navigate(ctx, pageURL)
	if err != nil {
		p.log.WithError(err).WithField("url", pageURL).Debug("Auth page navigation failed")
		result.Issues = append(result.Issues, probeIssue(report.SeverityHigh,
			fmt.Sprintf("%s Page Unreachable", kind),
			fmt.Sprintf("The %s page at %s could not be loaded: %v", strings.ToLower(string(kind)), pageURL, err),
			pageURL))
		return nil
	}
	if !nav.OK {
		result.Issues = append(result.Issues, probeIssue(report.SeverityHigh,
			fmt.Sprintf("%s Page Returned an Error", kind),
			fmt.Sprintf("The %s page at %s responded with status %d", strings.ToLower(string(kind)), pageURL, nav.Status),
			pageURL))
		return nil
	}

	var form signals.AuthForm
	if err := session.Evaluate(ctx, signals.AuthFormExtractor, &form); err != nil {
		result.Issues = append(result.Issues, probeIssue(report.SeverityLow,
			fmt.Sprintf("%s Form Not Inspectable", kind),
			fmt.Sprintf("The %s form could not be inspected: %v", strings.ToLower(string(kind)), err),
			pageURL))
		return &form
	}

	for _, missing := range missingFields(&form, kind) {
		result.Issues = append(result.Issues, probeIssue(missing.severity,
			fmt.Sprintf("%s Form Missing %s", kind, missing.field),
			fmt.Sprintf("The %s page has no %s", strings.ToLower(string(kind)), strings.ToLower(missing.field)),
			pageURL))
	}
	if form.Complete() {
		result.Details = append(result.Details, fmt.Sprintf("%s form has all required fields", kind))
	}
	return &form
}

type missingField struct {
	field    string
	severity report.Severity
}

func missingFields(form *signals.AuthForm, kind flow) []missingField {
	var missing []missingField
	if !form.HasIdentifierField {
		missing = append(missing, missingField{"Email or Username Field", report.SeverityHigh})
	}
	if !form.HasPasswordField {
		missing = append(missing, missingField{"Password Field", report.SeverityHigh})
	}
	if !form.HasSubmit {
		missing = append(missing, missingField{"Submit Button", report.SeverityMedium})
	}
	if kind == flowSignup {
		if !form.HasNameField {
			missing = append(missing, missingField{"Name Field", report.SeverityLow})
		}
		if !form.HasConfirmField {
			missing = append(missing, missingField{"Password Confirmation", report.SeverityLow})
		}
	}
	return missing
}

func probeIssue(severity report.Severity, title, description, page string) report.Issue {
	return report.Issue{
		Title:       title,
		Description: description,
		Severity:    severity,
		Category:    report.CategoryFunctionality,
		Page:        pagePath(page),
		Rule:        "auth-flow",
	}
}

func pagePath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return "/"
	}
	return u.Path
}

// scanResult holds what the homepage markup says about auth.
type scanResult struct {
	hasLogin    bool
	hasSignup   bool
	loginURL    string
	signupURL   string
	inlineLogin bool
	social      bool
	providers   []string
}

func (p *Prober) scan(html, baseURL string) scanResult {
	var found scanResult
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		p.log.WithError(err).Debug("Failed to parse homepage for auth probe")
		return found
	}
	base, _ := url.Parse(baseURL)

	found.inlineLogin = doc.Find(`input[type="password"]`).Length() > 0

	providers := make(map[string]bool)
	doc.Find(`a, button, [role="button"], input[type="submit"], input[type="button"]`).Each(func(_ int, s *goquery.Selection) {
		text := controlText(s)
		href, _ := s.Attr("href")

		social := p.keywords.Matches(analyzer.KeywordSocialPhrases, text) ||
			(href != "" && p.keywords.Contains(analyzer.KeywordSocialHrefs, href) != "")
		if social {
			found.social = true
			if provider := p.keywords.Match(analyzer.KeywordSocialProviders, text+" "+href); provider != "" {
				providers[provider] = true
			}
		}

		login := p.keywords.Matches(analyzer.KeywordLogin, text) || p.keywords.Matches(analyzer.KeywordLogin, hrefPath(href))
		signup := p.keywords.Matches(analyzer.KeywordSignup, text) || p.keywords.Matches(analyzer.KeywordSignup, hrefPath(href))
		if !login && !signup {
			return
		}

		target := ""
		if !social {
			target = resolve(base, href)
		}
		if login {
			found.hasLogin = true
			if found.loginURL == "" {
				found.loginURL = target
			}
		}
		if signup {
			found.hasSignup = true
			if found.signupURL == "" && target != found.loginURL {
				found.signupURL = target
			}
		}
	})

	for provider := range providers {
		found.providers = append(found.providers, titleCase(provider))
	}
	sort.Strings(found.providers)
	return found
}

func controlText(s *goquery.Selection) string {
	parts := []string{strings.TrimSpace(s.Text())}
	for _, attr := range []string{"aria-label", "title", "value"} {
		if v, ok := s.Attr(attr); ok {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// hrefPath exposes the path of a link to keyword matching so "/login"
// counts even when the anchor text is an icon.
func hrefPath(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return u.Path
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil || href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	u := base.ResolveReference(ref)
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
