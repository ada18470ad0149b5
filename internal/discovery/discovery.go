// Package discovery finds the pages of a site worth auditing from the links
// on its homepage.
package discovery

import (
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/errs"
	"github.com/sirupsen/logrus"
)

// RootPath is always the first discovered page.
const RootPath = "/"

var skippedSchemes = []string{"mailto:", "tel:", "javascript:", "data:", "sms:", "ftp:"}

type Discoverer struct {
	config *config.DiscoveryConfig
	log    logrus.FieldLogger
	assets map[string]bool
}

func NewDiscoverer(cfg *config.DiscoveryConfig, log logrus.FieldLogger) *Discoverer {
	assets := make(map[string]bool, len(cfg.AssetExtensions))
	for _, ext := range cfg.AssetExtensions {
		assets[strings.ToLower(ext)] = true
	}
	return &Discoverer{config: cfg, log: log, assets: assets}
}

// Discover returns the deduplicated same-origin paths linked from the
// homepage HTML, in document order with "/" first. At most maxPages paths
// are returned; a non-positive maxPages uses the configured default.
func (d *Discoverer) Discover(html, baseURL string, maxPages int) ([]string, error) {
	if maxPages <= 0 {
		maxPages = d.config.MaxPages
	}
	if maxPages <= 0 {
		maxPages = 1
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, errs.New(errs.InvalidInput, "invalid base URL for discovery", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, errs.New(errs.Extraction, "failed to parse homepage HTML", err)
	}

	paths := []string{RootPath}
	seen := map[string]bool{RootPath: true}

	doc.Find("a[href]").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if len(paths) >= maxPages {
			return false
		}
		href, _ := s.Attr("href")
		p, ok := d.pathFor(base, href)
		if !ok || seen[p] {
			return true
		}
		seen[p] = true
		paths = append(paths, p)
		return true
	})

	d.log.WithFields(logrus.Fields{"base": baseURL, "pages": len(paths)}).Debug("Discovered pages")
	return paths, nil
}

// pathFor resolves href against base and returns its path when the link
// points at an auditable same-origin page.
func (d *Discoverer) pathFor(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, scheme := range skippedSchemes {
		if strings.HasPrefix(lower, scheme) {
			return "", false
		}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", false
	}
	if !strings.EqualFold(resolved.Host, base.Host) {
		return "", false
	}

	p := resolved.Path
	if p == "" {
		p = RootPath
	}
	if d.assets[strings.ToLower(path.Ext(p))] {
		return "", false
	}
	return p, true
}

// Resolve returns the absolute URL of path on the site at baseURL.
func Resolve(baseURL, p string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", errs.New(errs.InvalidInput, "invalid base URL", err)
	}
	ref, err := url.Parse(p)
	if err != nil {
		return "", errs.New(errs.InvalidInput, "invalid page path", err)
	}
	return base.ResolveReference(ref).String(), nil
}
