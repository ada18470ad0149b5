package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/errs"
	"github.com/siteauditor/site-auditor/internal/signals"
	"github.com/sirupsen/logrus"
)

const maxConsoleErrors = 50

// ChromeProvider launches one headless Chrome process per session.
type ChromeProvider struct {
	cfg *config.BrowserConfig
	log logrus.FieldLogger
}

func NewChromeProvider(cfg *config.BrowserConfig, log logrus.FieldLogger) *ChromeProvider {
	return &ChromeProvider{cfg: cfg, log: log}
}

func (p *ChromeProvider) Open(ctx context.Context, viewport Viewport) (Session, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.WindowSize(int(viewport.Width), int(viewport.Height)),
	)
	if p.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(p.cfg.UserAgent))
	}
	if p.cfg.NoSandbox {
		opts = append(opts, chromedp.NoSandbox)
	}
	if p.cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(p.cfg.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromeSession{
		tab:         tabCtx,
		cancelTab:   tabCancel,
		cancelAlloc: allocCancel,
		navTimeout:  p.cfg.NavigationTimeout,
		settle:      p.cfg.SettleDelay,
		log:         p.log,
	}
	chromedp.ListenTarget(tabCtx, s.onEvent)

	// The first Run allocates the browser and must use the tab context
	// itself; a deadline on it would kill the browser when it fires.
	// Cancelling ctx during launch still tears the tab down.
	stopLaunch := context.AfterFunc(ctx, tabCancel)
	err := chromedp.Run(tabCtx)
	if !stopLaunch() && err == nil {
		err = ctx.Err()
	}
	if err != nil {
		_ = s.Close()
		return nil, errs.New(errs.Session, "could not start browser", err)
	}

	runCtx, cancel := s.bind(ctx, p.cfg.NavigationTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, network.Enable(), runtime.Enable(), emulate(viewport)); err != nil {
		_ = s.Close()
		return nil, errs.New(errs.Session, "could not start browser session", err)
	}

	p.log.WithFields(logrus.Fields{"width": viewport.Width, "height": viewport.Height}).Debug("Browser session opened")
	return s, nil
}

type chromeSession struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	navTimeout  time.Duration
	settle      time.Duration
	log         logrus.FieldLogger

	mu      sync.Mutex
	errors  []string
	closeMu sync.Once
}

// bind derives a context that runs on the tab but also ends when the
// caller's context does or when timeout elapses.
func (s *chromeSession) bind(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(s.tab, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (s *chromeSession) onEvent(ev interface{}) {
	switch e := ev.(type) {
	case *runtime.EventExceptionThrown:
		if e.ExceptionDetails == nil {
			return
		}
		msg := e.ExceptionDetails.Text
		if e.ExceptionDetails.Exception != nil && e.ExceptionDetails.Exception.Description != "" {
			msg = e.ExceptionDetails.Exception.Description
		}
		s.recordError(msg)
	case *runtime.EventConsoleAPICalled:
		if e.Type != runtime.APITypeError {
			return
		}
		parts := make([]string, 0, len(e.Args))
		for _, arg := range e.Args {
			switch {
			case arg.Description != "":
				parts = append(parts, arg.Description)
			case len(arg.Value) > 0:
				parts = append(parts, strings.Trim(string(arg.Value), `"`))
			}
		}
		s.recordError(strings.Join(parts, " "))
	}
}

func (s *chromeSession) recordError(msg string) {
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return
	}
	if idx := strings.IndexByte(msg, '\n'); idx > 0 {
		msg = msg[:idx]
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errors) < maxConsoleErrors {
		s.errors = append(s.errors, msg)
	}
}

func (s *chromeSession) ConsoleErrors() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.errors...)
}

func (s *chromeSession) resetErrors() {
	s.mu.Lock()
	s.errors = nil
	s.mu.Unlock()
}

func (s *chromeSession) Navigate(ctx context.Context, url string) (*NavigationResult, error) {
	s.resetErrors()

	runCtx, cancel := s.bind(ctx, s.navTimeout+s.settle)
	defer cancel()

	start := time.Now()
	resp, err := chromedp.RunResponse(runCtx, chromedp.Navigate(url))
	if err != nil {
		if ctx.Err() != nil {
			return nil, errs.New(errs.Timeout, fmt.Sprintf("navigation to %s cancelled", url), ctx.Err())
		}
		return nil, errs.New(errs.Navigation, fmt.Sprintf("failed to load %s", url), err)
	}
	elapsed := time.Since(start)

	var finalURL string
	if err := chromedp.Run(runCtx,
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(s.settle),
		chromedp.Location(&finalURL),
	); err != nil {
		return nil, errs.New(errs.Navigation, fmt.Sprintf("page %s did not settle", url), err)
	}

	result := &NavigationResult{FinalURL: finalURL, Elapsed: elapsed}
	if resp != nil {
		result.Status = int(resp.Status)
	}
	result.OK = statusOK(result.Status)
	return result, nil
}

func (s *chromeSession) Evaluate(ctx context.Context, extractor signals.Extractor, out any) error {
	expr, err := extractor.Expression()
	if err != nil {
		return errs.New(errs.Extraction, extractor.Name, err)
	}

	runCtx, cancel := s.bind(ctx, s.navTimeout)
	defer cancel()

	var raw []byte
	if err := chromedp.Run(runCtx, chromedp.Evaluate(expr, &raw)); err != nil {
		return errs.New(errs.Extraction, fmt.Sprintf("%s extractor failed", extractor.Name), err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errs.New(errs.Extraction, fmt.Sprintf("%s extractor returned malformed data", extractor.Name), err)
	}
	return nil
}

func (s *chromeSession) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := s.bind(ctx, s.navTimeout)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", errs.New(errs.Extraction, "failed to read document HTML", err)
	}
	return html, nil
}

func (s *chromeSession) SetViewport(ctx context.Context, viewport Viewport) error {
	runCtx, cancel := s.bind(ctx, s.navTimeout)
	defer cancel()

	if err := chromedp.Run(runCtx, emulate(viewport), chromedp.Sleep(s.settle/2)); err != nil {
		return errs.New(errs.Extraction, "failed to resize viewport", err)
	}
	return nil
}

func (s *chromeSession) Screenshot(ctx context.Context) ([]byte, error) {
	runCtx, cancel := s.bind(ctx, s.navTimeout)
	defer cancel()

	var buf []byte
	if err := chromedp.Run(runCtx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return nil, errs.New(errs.Extraction, "failed to capture screenshot", err)
	}
	return buf, nil
}

func (s *chromeSession) SubmitForm(ctx context.Context, fields map[string]string, submitSelector string) (*NavigationResult, error) {
	s.resetErrors()

	runCtx, cancel := s.bind(ctx, s.navTimeout+s.settle)
	defer cancel()

	var actions []chromedp.Action
	for selector, value := range fields {
		actions = append(actions,
			chromedp.WaitVisible(selector, chromedp.ByQuery),
			chromedp.SetValue(selector, "", chromedp.ByQuery),
			chromedp.SendKeys(selector, value, chromedp.ByQuery),
		)
	}

	start := time.Now()
	var finalURL string
	actions = append(actions,
		chromedp.Click(submitSelector, chromedp.ByQuery),
		chromedp.Sleep(s.settle),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
	)

	if err := chromedp.Run(runCtx, actions...); err != nil {
		return nil, errs.New(errs.Navigation, "form submission failed", err)
	}
	return &NavigationResult{FinalURL: finalURL, OK: true, Elapsed: time.Since(start)}, nil
}

func (s *chromeSession) Close() error {
	s.closeMu.Do(func() {
		s.cancelTab()
		s.cancelAlloc()
		s.log.Debug("Browser session closed")
	})
	return nil
}

func emulate(viewport Viewport) chromedp.Action {
	if viewport.Mobile {
		return chromedp.EmulateViewport(viewport.Width, viewport.Height, chromedp.EmulateMobile, chromedp.EmulateScale(2))
	}
	return chromedp.EmulateViewport(viewport.Width, viewport.Height)
}
