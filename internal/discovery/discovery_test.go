package discovery

import (
	"fmt"
	"strings"
	"testing"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/errs"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDiscoverer() *Discoverer {
	cfg := config.DefaultConfig().Discovery
	return NewDiscoverer(&cfg, logrus.New())
}

const homepage = `<html><body>
<nav>
  <a href="/about">About</a>
  <a href="pricing?plan=pro#faq">Pricing</a>
  <a href="/about#team">Team</a>
  <a href="https://example.com/blog/">Blog</a>
  <a href="HTTPS://EXAMPLE.COM/contact">Contact</a>
  <a href="http://example.com/legacy">Legacy</a>
</nav>
<a href="#top">Top</a>
<a href="mailto:hi@example.com">Mail</a>
<a href="tel:+123">Call</a>
<a href="javascript:void(0)">Menu</a>
<a href="https://twitter.com/acme">Twitter</a>
<a href="//cdn.example.com/page">CDN</a>
<a href="/brochure.PDF">Brochure</a>
<a href="/images/logo.png">Logo</a>
<a href="/">Home</a>
<a>No href</a>
</body></html>`

func TestDiscoverer_Discover(t *testing.T) {
	paths, err := newTestDiscoverer().Discover(homepage, "https://example.com", 0)
	require.NoError(t, err)

	assert.Equal(t, []string{"/", "/about", "/pricing", "/blog/", "/contact", "/legacy"}, paths)
}

func TestDiscoverer_RespectsMaximum(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&b, `<a href="/page-%d">Page</a><a href="/page-%d?dup=1">Again</a>`, i, i)
	}

	for _, limit := range []int{1, 3, 15} {
		paths, err := newTestDiscoverer().Discover(b.String(), "https://example.com/", limit)
		require.NoError(t, err)

		assert.Len(t, paths, limit)
		assert.Equal(t, "/", paths[0])
		seen := map[string]bool{}
		for _, p := range paths {
			if seen[p] {
				t.Errorf("Duplicate path %s", p)
			}
			seen[p] = true
		}
	}
}

func TestDiscoverer_NoLinks(t *testing.T) {
	paths, err := newTestDiscoverer().Discover("<html><body><p>Hello</p></body></html>", "https://example.com", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"/"}, paths)
}

func TestDiscoverer_RelativeToSubpath(t *testing.T) {
	html := `<a href="team">Team</a><a href="../jobs">Jobs</a>`
	paths, err := newTestDiscoverer().Discover(html, "https://example.com/company/", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"/", "/company/team", "/jobs"}, paths)
}

func TestDiscoverer_InvalidBase(t *testing.T) {
	_, err := newTestDiscoverer().Discover(homepage, "not a url", 5)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.InvalidInput))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		base     string
		path     string
		expected string
	}{
		{"https://example.com", "/", "https://example.com/"},
		{"https://example.com/", "/about", "https://example.com/about"},
		{"http://example.com:8080", "/a/b", "http://example.com:8080/a/b"},
	}

	for _, test := range tests {
		got, err := Resolve(test.base, test.path)
		if err != nil {
			t.Fatalf("Resolve(%q, %q) failed: %v", test.base, test.path, err)
		}
		if got != test.expected {
			t.Errorf("Resolve(%q, %q) = %q, expected %q", test.base, test.path, got, test.expected)
		}
	}
}
