package analyzer

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

// Resource type buckets used in ResourceStats.
const (
	ResourceScript     = "script"
	ResourceStylesheet = "stylesheet"
	ResourceImage      = "image"
	ResourceFont       = "font"
	ResourceMedia      = "media"
	ResourceFetch      = "fetch"
	ResourceDocument   = "document"
	ResourceOther      = "other"
)

var resourceExtensions = map[string]string{
	".js":    ResourceScript,
	".mjs":   ResourceScript,
	".css":   ResourceStylesheet,
	".png":   ResourceImage,
	".jpg":   ResourceImage,
	".jpeg":  ResourceImage,
	".gif":   ResourceImage,
	".webp":  ResourceImage,
	".avif":  ResourceImage,
	".svg":   ResourceImage,
	".ico":   ResourceImage,
	".bmp":   ResourceImage,
	".woff":  ResourceFont,
	".woff2": ResourceFont,
	".ttf":   ResourceFont,
	".otf":   ResourceFont,
	".eot":   ResourceFont,
	".mp4":   ResourceMedia,
	".webm":  ResourceMedia,
	".mp3":   ResourceMedia,
	".ogg":   ResourceMedia,
	".json":  ResourceFetch,
	".html":  ResourceDocument,
	".htm":   ResourceDocument,
}

var initiatorTypes = map[string]string{
	"script":         ResourceScript,
	"img":            ResourceImage,
	"image":          ResourceImage,
	"video":          ResourceMedia,
	"audio":          ResourceMedia,
	"fetch":          ResourceFetch,
	"xmlhttprequest": ResourceFetch,
	"beacon":         ResourceFetch,
	"iframe":         ResourceDocument,
	"navigation":     ResourceDocument,
}

// ResourceType buckets a resource by file extension, falling back to the
// initiator type the browser reported.
func ResourceType(r signals.Resource) string {
	if u, err := url.Parse(r.Name); err == nil {
		if kind, ok := resourceExtensions[strings.ToLower(path.Ext(u.Path))]; ok {
			return kind
		}
	}
	if kind, ok := initiatorTypes[strings.ToLower(r.Type)]; ok {
		return kind
	}
	if strings.EqualFold(r.Type, "css") || strings.EqualFold(r.Type, "link") {
		return ResourceStylesheet
	}
	return ResourceOther
}

func isImageResource(r signals.Resource) bool {
	return ResourceType(r) == ResourceImage
}

// ResourceStats totals transferred bytes and request counts per type.
func ResourceStats(resources []signals.Resource) *report.ResourceStats {
	stats := newResourceStats()
	for _, r := range resources {
		kind := ResourceType(r)
		bytes := r.Bytes()
		stats.TotalRequests++
		stats.TotalBytes += bytes
		stats.BytesByType[kind] += bytes
		stats.CountByType[kind]++
	}
	calculatePercentages(stats)
	return stats
}

// MergeResourceStats sums per-page statistics into a site-wide view. Nil
// entries are skipped.
func MergeResourceStats(all ...*report.ResourceStats) *report.ResourceStats {
	stats := newResourceStats()
	for _, s := range all {
		if s == nil {
			continue
		}
		stats.TotalBytes += s.TotalBytes
		stats.TotalRequests += s.TotalRequests
		for kind, bytes := range s.BytesByType {
			stats.BytesByType[kind] += bytes
		}
		for kind, count := range s.CountByType {
			stats.CountByType[kind] += count
		}
	}
	calculatePercentages(stats)
	return stats
}

func newResourceStats() *report.ResourceStats {
	return &report.ResourceStats{
		BytesByType:   make(map[string]int64),
		CountByType:   make(map[string]int),
		PercentByType: make(map[string]float64),
	}
}

func calculatePercentages(stats *report.ResourceStats) {
	if stats.TotalBytes == 0 {
		return
	}
	for kind, bytes := range stats.BytesByType {
		stats.PercentByType[kind] = float64(bytes) / float64(stats.TotalBytes) * 100
	}
}

func formatBytes(n int64) string {
	switch {
	case n >= 1024*1024:
		return fmt.Sprintf("%.1fMB", float64(n)/(1024*1024))
	case n >= 1024:
		return fmt.Sprintf("%.0fKB", float64(n)/1024)
	default:
		return fmt.Sprintf("%dB", n)
	}
}
