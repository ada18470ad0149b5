// Package browsertest provides an in-memory browser.Provider for tests. Pages
// are scripted up front with the HTML and extractor results they should
// return; navigation history is recorded for assertions.
package browsertest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/siteauditor/site-auditor/internal/browser"
	"github.com/siteauditor/site-auditor/internal/errs"
	"github.com/siteauditor/site-auditor/internal/signals"
)

// Page is the scripted behaviour of one URL.
type Page struct {
	Status        int
	HTML          string
	NavigateErr   error
	ConsoleErrors []string
	// Results maps extractor names to the values Evaluate decodes into out.
	Results map[string]any
	// EvalErrors maps extractor names to the error Evaluate returns.
	EvalErrors map[string]error
	// MobileResults overrides Results while a mobile viewport is active.
	MobileResults map[string]any
}

// Provider serves scripted pages to every session it opens.
type Provider struct {
	mu       sync.Mutex
	Pages    map[string]*Page
	OpenErr  error
	Opened   int
	sessions []*Session

	// SubmitResult is returned by SubmitForm; when nil the form stays on
	// the current URL.
	SubmitResult func(fields map[string]string) (string, error)
}

func NewProvider() *Provider {
	return &Provider{Pages: make(map[string]*Page)}
}

// Add registers a page and returns it for further scripting.
func (p *Provider) Add(url string, page *Page) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Pages[url] = page
	return page
}

func (p *Provider) Open(ctx context.Context, viewport browser.Viewport) (browser.Session, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.OpenErr != nil {
		return nil, errs.New(errs.Session, "could not start browser session", p.OpenErr)
	}
	p.Opened++
	s := &Session{provider: p, viewport: viewport}
	p.sessions = append(p.sessions, s)
	return s, nil
}

// Visited returns every URL navigated to, across sessions, in order.
func (p *Provider) Visited() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var urls []string
	for _, s := range p.sessions {
		urls = append(urls, s.history...)
	}
	return urls
}

// AllClosed reports whether every opened session has been closed.
func (p *Provider) AllClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range p.sessions {
		if !s.closed {
			return false
		}
	}
	return true
}

func (p *Provider) page(url string) (*Page, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	page, ok := p.Pages[url]
	return page, ok
}

type Session struct {
	provider *Provider
	viewport browser.Viewport
	current  *Page
	url      string
	history  []string
	closed   bool
	// Submitted holds the fields of every SubmitForm call.
	Submitted []map[string]string
}

func (s *Session) Navigate(ctx context.Context, url string) (*browser.NavigationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, errs.New(errs.Timeout, "navigation cancelled", err)
	}
	s.provider.mu.Lock()
	s.history = append(s.history, url)
	s.provider.mu.Unlock()

	page, ok := s.provider.page(url)
	if !ok {
		s.current = nil
		return nil, errs.New(errs.Navigation, fmt.Sprintf("failed to load %s", url), errors.New("net::ERR_NAME_NOT_RESOLVED"))
	}
	if page.NavigateErr != nil {
		s.current = nil
		return nil, errs.New(errs.Navigation, fmt.Sprintf("failed to load %s", url), page.NavigateErr)
	}

	s.current = page
	s.url = url
	status := page.Status
	if status == 0 {
		status = 200
	}
	return &browser.NavigationResult{Status: status, OK: status < 400, FinalURL: url}, nil
}

func (s *Session) Evaluate(ctx context.Context, extractor signals.Extractor, out any) error {
	if s.current == nil {
		return errs.New(errs.Extraction, extractor.Name, errors.New("no document loaded"))
	}
	if err := s.current.EvalErrors[extractor.Name]; err != nil {
		return errs.New(errs.Extraction, fmt.Sprintf("%s extractor failed", extractor.Name), err)
	}

	value, ok := s.current.Results[extractor.Name]
	if s.viewport.Mobile {
		if mobile, found := s.current.MobileResults[extractor.Name]; found {
			value, ok = mobile, true
		}
	}
	if !ok {
		return errs.New(errs.Extraction, fmt.Sprintf("%s extractor failed", extractor.Name), errors.New("no scripted result"))
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	if s.current == nil {
		return "", errs.New(errs.Extraction, "failed to read document HTML", errors.New("no document loaded"))
	}
	return s.current.HTML, nil
}

func (s *Session) SetViewport(ctx context.Context, viewport browser.Viewport) error {
	s.viewport = viewport
	return nil
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if s.current == nil {
		return nil, errs.New(errs.Extraction, "failed to capture screenshot", errors.New("no document loaded"))
	}
	if s.viewport.Mobile {
		return []byte("mobile-png"), nil
	}
	return []byte("desktop-png"), nil
}

func (s *Session) ConsoleErrors() []string {
	if s.current == nil {
		return nil
	}
	return s.current.ConsoleErrors
}

func (s *Session) SubmitForm(ctx context.Context, fields map[string]string, submitSelector string) (*browser.NavigationResult, error) {
	s.Submitted = append(s.Submitted, fields)

	target := s.url
	if s.provider.SubmitResult != nil {
		next, err := s.provider.SubmitResult(fields)
		if err != nil {
			return nil, errs.New(errs.Navigation, "form submission failed", err)
		}
		target = next
	}

	if page, ok := s.provider.page(target); ok {
		s.current = page
		s.url = target
	}
	return &browser.NavigationResult{OK: true, FinalURL: s.url}, nil
}

func (s *Session) Close() error {
	s.provider.mu.Lock()
	defer s.provider.mu.Unlock()
	s.closed = true
	return nil
}
