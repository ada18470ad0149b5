package browser

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ Provider = (*ChromeProvider)(nil)
var _ Session = (*chromeSession)(nil)

func TestViewportsFromConfig(t *testing.T) {
	cfg := config.DefaultConfig().Browser

	desktop := DesktopViewport(&cfg)
	assert.Equal(t, Viewport{Width: 1920, Height: 1080}, desktop)

	mobile := MobileViewport(&cfg)
	assert.Equal(t, Viewport{Width: 375, Height: 667, Mobile: true}, mobile)
}

func TestStatusOK(t *testing.T) {
	tests := []struct {
		status   int
		expected bool
	}{
		{0, true},
		{200, true},
		{301, true},
		{404, false},
		{500, false},
	}

	for _, test := range tests {
		if got := statusOK(test.status); got != test.expected {
			t.Errorf("For status %d, expected %v, got %v", test.status, test.expected, got)
		}
	}
}

func TestRecordError(t *testing.T) {
	s := &chromeSession{log: logrus.New()}

	s.recordError("  ")
	s.recordError("TypeError: x is undefined\n    at main.js:1:1")
	for i := 0; i < maxConsoleErrors+5; i++ {
		s.recordError("boom")
	}

	errors := s.ConsoleErrors()
	assert.Len(t, errors, maxConsoleErrors)
	assert.Equal(t, "TypeError: x is undefined", errors[0])

	s.resetErrors()
	assert.Empty(t, s.ConsoleErrors())
}

func TestChromeProvider_OpenStopsWhenContextCancelled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a shell script as the browser binary")
	}

	// A browser that starts but never reports its DevTools address.
	fake := filepath.Join(t.TempDir(), "chrome")
	require.NoError(t, os.WriteFile(fake, []byte("#!/bin/sh\nsleep 60\n"), 0755))

	cfg := config.DefaultConfig().Browser
	cfg.ExecPath = fake
	provider := NewChromeProvider(&cfg, logrus.New())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	session, err := provider.Open(ctx, DesktopViewport(&cfg))
	assert.Error(t, err)
	assert.Nil(t, session)
	assert.Less(t, time.Since(start), 5*time.Second, "Open should return soon after the context ends")
}
