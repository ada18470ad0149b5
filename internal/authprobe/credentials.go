package authprobe

import (
	"context"
	"fmt"

	"github.com/siteauditor/site-auditor/internal/analyzer"
	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

const (
	detailNoLoginPage         = "Credentials were supplied but no login page was found"
	detailCredentialsDisabled = "Credentials were supplied but not submitted; credential testing is disabled"
)

// exerciseCredentials submits creds through the login form loaded in
// session and records whether the site appears to have signed the user in.
// The caller has already found a login page or an inline login form.
func (p *Prober) exerciseCredentials(ctx context.Context, session browser.Session, found scanResult, form *signals.AuthForm, baseURL string, creds *Credentials, result *report.AuthProbeResult) {
	if found.loginURL == "" {
		var err error
		form, err = p.loadInlineForm(ctx, session, baseURL)
		if err != nil {
			result.CredentialTest = &report.CredentialTest{Detail: fmt.Sprintf("Could not inspect the homepage login form: %v", err)}
			return
		}
	}

	if form == nil {
		result.CredentialTest = &report.CredentialTest{Detail: "Login page could not be loaded; credentials were not submitted"}
		return
	}
	if !form.Complete() {
		result.CredentialTest = &report.CredentialTest{Detail: "Login form is incomplete; credentials were not submitted"}
		return
	}

	fields := map[string]string{
		form.IdentifierSelector: creds.Username,
		form.PasswordSelector:   creds.Password,
	}
	test := &report.CredentialTest{Attempted: true}
	result.CredentialTest = test

	if _, err := session.SubmitForm(ctx, fields, form.SubmitSelector); err != nil {
		test.Detail = fmt.Sprintf("Login form submission failed: %v", err)
		return
	}

	var state signals.SessionState
	extractor := signals.SessionExtractor.With(map[string]any{
		"logoutWords": p.keywords.Set(analyzer.KeywordLogout),
	})
	if err := session.Evaluate(ctx, extractor, &state); err != nil {
		test.Detail = fmt.Sprintf("Submitted credentials but could not read the resulting page: %v", err)
		return
	}

	switch {
	case state.ErrorText != "":
		test.Detail = fmt.Sprintf("Login rejected: %s", state.ErrorText)
	case state.HasLogoutAffordance:
		test.Succeeded = true
		test.Detail = fmt.Sprintf("Signed in; logout control visible at %s", pagePath(state.URL))
	case !state.HasPasswordField:
		test.Succeeded = true
		test.Detail = fmt.Sprintf("Signed in; redirected to %s", pagePath(state.URL))
	default:
		test.Detail = "Login form is still shown after submitting credentials"
	}
	p.log.WithField("succeeded", test.Succeeded).Debug("Exercised login credentials")
}

func (p *Prober) loadInlineForm(ctx context.Context, session browser.Session, baseURL string) (*signals.AuthForm, error) {
	if _, err := session.Navigate(ctx, baseURL); err != nil {
		return nil, err
	}
	var form signals.AuthForm
	if err := session.Evaluate(ctx, signals.AuthFormExtractor, &form); err != nil {
		return nil, err
	}
	return &form, nil
}
