// Package linkcheck samples the outbound links of a page and checks that
// they still resolve.
package linkcheck

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/gocolly/colly/v2"
	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/sirupsen/logrus"
)

const userAgent = "SiteAuditor-LinkCheck/1.0"

const ctxIndex = "index"

type Checker struct {
	config *config.LinkCheckConfig
	log    logrus.FieldLogger
	// transport overrides the dialing policy; tests use it to reach
	// loopback servers.
	transport http.RoundTripper
}

func NewChecker(cfg *config.LinkCheckConfig, log logrus.FieldLogger) *Checker {
	c := &Checker{config: cfg, log: log}
	if cfg.BlockPrivate {
		c.transport = safeTransport(cfg.Timeout)
	} else {
		c.transport = plainTransport(cfg.Timeout)
	}
	return c
}

// Sample picks up to the configured number of distinct http(s) links, in
// the order given.
func (c *Checker) Sample(links []string) []string {
	var sample []string
	seen := make(map[string]bool)
	for _, link := range links {
		if len(sample) >= c.config.SampleSize {
			break
		}
		u, err := url.Parse(strings.TrimSpace(link))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			continue
		}
		u.Fragment = ""
		key := u.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		sample = append(sample, key)
	}
	return sample
}

// Check requests a sample of links and returns one result per sampled
// link, in sample order. Links are requested with HEAD; servers that refuse
// HEAD are retried with GET.
func (c *Checker) Check(ctx context.Context, links []string) []report.LinkCheck {
	sample := c.Sample(links)
	if !c.config.Enabled || len(sample) == 0 {
		return nil
	}

	results := make([]report.LinkCheck, len(sample))
	for i, link := range sample {
		results[i] = report.LinkCheck{URL: link}
	}
	var mu sync.Mutex

	parallelism := c.config.Parallelism
	if parallelism <= 0 {
		parallelism = 1
	}

	collector := colly.NewCollector(
		colly.Async(true),
		colly.UserAgent(userAgent),
		colly.AllowURLRevisit(),
		colly.StdlibContext(ctx),
	)
	collector.ParseHTTPErrorResponse = true
	collector.SetRequestTimeout(c.config.Timeout)
	collector.WithTransport(c.transport)
	collector.SetRedirectHandler(redirectPolicy)
	if err := collector.Limit(&colly.LimitRule{DomainGlob: "*", Parallelism: parallelism}); err != nil {
		c.log.WithError(err).Warn("Failed to apply link check limits")
	}

	collector.OnResponse(func(r *colly.Response) {
		i, ok := indexOf(r.Ctx, len(results))
		if !ok {
			return
		}
		if r.Request.Method == http.MethodHead && refusesHead(r.StatusCode) {
			if err := collector.Request(http.MethodGet, sample[i], nil, r.Ctx, nil); err == nil {
				return
			}
		}
		mu.Lock()
		results[i].Status = r.StatusCode
		results[i].OK = r.StatusCode < 400
		results[i].Error = ""
		mu.Unlock()
	})

	collector.OnError(func(r *colly.Response, err error) {
		i, ok := indexOf(r.Ctx, len(results))
		if !ok {
			return
		}
		mu.Lock()
		results[i].Status = r.StatusCode
		results[i].OK = false
		results[i].Error = err.Error()
		mu.Unlock()
	})

	for i, link := range sample {
		reqCtx := colly.NewContext()
		reqCtx.Put(ctxIndex, strconv.Itoa(i))
		if err := collector.Request(http.MethodHead, link, nil, reqCtx, nil); err != nil {
			mu.Lock()
			results[i].Error = err.Error()
			mu.Unlock()
		}
	}
	collector.Wait()

	broken := 0
	for _, r := range results {
		if !r.OK {
			broken++
		}
	}
	c.log.WithFields(logrus.Fields{"checked": len(results), "failing": broken}).Debug("Checked links")
	return results
}

func indexOf(ctx *colly.Context, n int) (int, bool) {
	if ctx == nil {
		return 0, false
	}
	i, err := strconv.Atoi(ctx.Get(ctxIndex))
	if err != nil || i < 0 || i >= n {
		return 0, false
	}
	return i, true
}

func refusesHead(status int) bool {
	return status == http.StatusMethodNotAllowed || status == http.StatusNotImplemented
}
