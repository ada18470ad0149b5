package analyzer

import (
	"fmt"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

// minBelowFoldImages is the count from which missing lazy loading is flagged.
const minBelowFoldImages = 3

type PerformanceAnalyzer struct {
	config *config.PerformanceConfig
}

func NewPerformanceAnalyzer(cfg *config.PerformanceConfig) *PerformanceAnalyzer {
	return &PerformanceAnalyzer{config: cfg}
}

func (a *PerformanceAnalyzer) Category() report.Category {
	return report.CategoryPerformance
}

func (a *PerformanceAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	p := page.Performance
	if p == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategoryPerformance)

	a.checkTiming(f, p, page.LoadTimeMs)
	a.checkWeight(f, p)
	a.checkDOM(f, p)

	switch {
	case p.RenderBlockingScripts > a.config.MaxRenderBlockingScripts:
		f.issue("render-blocking", report.SeverityMedium, "Render-Blocking Scripts",
			fmt.Sprintf("%d synchronous scripts in <head> delay first paint", p.RenderBlockingScripts),
			"Add defer or async to scripts that do not need to run before render")
	case p.RenderBlockingScripts > 0:
		f.warn("Render-Blocking Scripts", fmt.Sprintf("%s in <head> without defer or async", plural(p.RenderBlockingScripts, "script")))
	default:
		f.good("No render-blocking scripts in <head>")
	}

	if p.LazyImagesBelowFold > 0 {
		f.good(fmt.Sprintf("%d below-the-fold images are lazy loaded", p.LazyImagesBelowFold))
	} else if p.ImagesBelowFold >= minBelowFoldImages {
		f.issue("lazy-loading", report.SeverityLow, "Images Not Lazy Loaded",
			fmt.Sprintf("%d images below the fold load eagerly", p.ImagesBelowFold),
			"Add loading=\"lazy\" to images outside the first viewport")
	}

	return f.result, nil
}

func (a *PerformanceAnalyzer) checkTiming(f *findings, p *signals.Performance, loadTimeMs int64) {
	loadMs := float64(loadTimeMs)
	if p.TimingAvailable && p.DOMContentLoadedMs > 0 {
		loadMs = p.DOMContentLoadedMs
	} else if !p.TimingAvailable {
		f.warn("Navigation Timing Unavailable", "The browser did not expose navigation timing; load time is measured externally")
	}

	slow := float64(a.config.SlowLoadMs)
	switch {
	case loadMs > 2*slow:
		f.issue("load-time", report.SeverityHigh, "Very Slow Page Load",
			fmt.Sprintf("DOM content loaded after %.0fms", loadMs),
			"Reduce blocking resources and server response time")
	case loadMs > slow:
		f.issue("load-time", report.SeverityMedium, "Slow Page Load",
			fmt.Sprintf("DOM content loaded after %.0fms; target is under %.0fms", loadMs, slow),
			"Reduce blocking resources and server response time")
	case loadMs > 0:
		f.good(fmt.Sprintf("Fast load (%.0fms)", loadMs))
	}

	if p.FirstContentfulPaintMs > 0 {
		if p.FirstContentfulPaintMs > float64(a.config.SlowPaintMs) {
			f.issue("paint-time", report.SeverityMedium, "Slow First Contentful Paint",
				fmt.Sprintf("First content painted after %.0fms", p.FirstContentfulPaintMs),
				"Inline critical CSS and defer non-essential work")
		} else {
			f.good(fmt.Sprintf("First contentful paint in %.0fms", p.FirstContentfulPaintMs))
		}
	}
}

func (a *PerformanceAnalyzer) checkWeight(f *findings, p *signals.Performance) {
	stats := ResourceStats(p.Resources)
	if stats.TotalBytes > int64(a.config.MaxPageWeightKB)*1024 {
		f.issue("page-weight", report.SeverityMedium, "Heavy Page",
			fmt.Sprintf("The page transferred %s across %d requests", formatBytes(stats.TotalBytes), stats.TotalRequests),
			"Compress assets and drop unused resources")
	}

	limit := int64(a.config.LargeImageKB) * 1024
	var large []string
	for _, r := range p.Resources {
		if isImageResource(r) && r.Bytes() > limit {
			large = append(large, r.Name)
		}
	}
	if len(large) > 0 {
		f.issue("large-images", report.SeverityMedium, "Large Images",
			fmt.Sprintf("%s exceed %dKB (e.g. %s)", plural(len(large), "image"), a.config.LargeImageKB, truncateString(large[0], 80)),
			"Resize and compress images, or serve WebP/AVIF")
	}
}

func (a *PerformanceAnalyzer) checkDOM(f *findings, p *signals.Performance) {
	switch {
	case p.DOMNodeCount > a.config.DOMNodesHigh:
		f.issue("dom-size", report.SeverityHigh, "Excessive DOM Size",
			fmt.Sprintf("The document has %d elements", p.DOMNodeCount),
			"Simplify markup and paginate or virtualise long lists")
	case p.DOMNodeCount > a.config.DOMNodesMedium:
		f.issue("dom-size", report.SeverityMedium, "Large DOM Size",
			fmt.Sprintf("The document has %d elements", p.DOMNodeCount),
			"Simplify markup and remove hidden duplicate content")
	case p.DOMNodeCount > 0:
		f.good(fmt.Sprintf("Reasonable DOM size (%d elements)", p.DOMNodeCount))
	}
}
