// Package browser defines the browsing-context contract the audit engine
// drives, and a Chrome DevTools implementation of it.
package browser

import (
	"context"
	"time"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/signals"
)

type Viewport struct {
	Width  int64
	Height int64
	Mobile bool
}

func DesktopViewport(cfg *config.BrowserConfig) Viewport {
	return Viewport{Width: int64(cfg.DesktopViewport.Width), Height: int64(cfg.DesktopViewport.Height)}
}

func MobileViewport(cfg *config.BrowserConfig) Viewport {
	return Viewport{Width: int64(cfg.MobileViewport.Width), Height: int64(cfg.MobileViewport.Height), Mobile: true}
}

// NavigationResult describes the main-document response of a navigation.
// Status is zero when the browser did not surface one.
type NavigationResult struct {
	Status   int
	OK       bool
	FinalURL string
	Elapsed  time.Duration
}

// Session is one isolated, stateful browsing context. It is not safe for
// concurrent navigation; callers own it exclusively until Close.
type Session interface {
	Navigate(ctx context.Context, url string) (*NavigationResult, error)
	Evaluate(ctx context.Context, extractor signals.Extractor, out any) error
	HTML(ctx context.Context) (string, error)
	SetViewport(ctx context.Context, viewport Viewport) error
	Screenshot(ctx context.Context) ([]byte, error)
	// ConsoleErrors returns the runtime and console errors seen since the
	// last navigation.
	ConsoleErrors() []string
	SubmitForm(ctx context.Context, fields map[string]string, submitSelector string) (*NavigationResult, error)
	Close() error
}

type Provider interface {
	Open(ctx context.Context, viewport Viewport) (Session, error)
}

func statusOK(status int) bool {
	return status == 0 || (status >= 200 && status < 400)
}
