package analyzer

import (
	"fmt"
	"strings"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

// ClassifyControls sorts sampled controls into working and broken. A control
// is broken when it is disabled, hidden, or has no layout size. At most
// detailLimit labeled details are kept per kind.
func ClassifyControls(controls []signals.InteractiveControl, detailLimit int) *report.InteractiveResult {
	result := &report.InteractiveResult{
		Buttons: newControlStats(),
		Links:   newControlStats(),
		Forms:   newControlStats(),
	}

	for _, c := range controls {
		var stats *report.ControlStats
		switch c.Kind {
		case "button":
			stats = &result.Buttons
		case "link":
			stats = &result.Links
		case "form":
			stats = &result.Forms
		default:
			continue
		}

		stats.Total++
		reason := brokenReason(c)
		if reason == "" {
			stats.Working++
			continue
		}
		stats.Broken++
		if len(stats.Details) < detailLimit {
			stats.Details = append(stats.Details, fmt.Sprintf("%s %q: %s", c.Kind, controlLabel(c), reason))
		}
	}
	return result
}

// MergeInteractive sums per-page results. Details stay capped at
// detailLimit per kind.
func MergeInteractive(detailLimit int, results ...*report.InteractiveResult) *report.InteractiveResult {
	merged := &report.InteractiveResult{
		Buttons: newControlStats(),
		Links:   newControlStats(),
		Forms:   newControlStats(),
	}
	for _, r := range results {
		if r == nil {
			continue
		}
		mergeStats(&merged.Buttons, r.Buttons, detailLimit)
		mergeStats(&merged.Links, r.Links, detailLimit)
		mergeStats(&merged.Forms, r.Forms, detailLimit)
	}
	return merged
}

func mergeStats(dst *report.ControlStats, src report.ControlStats, detailLimit int) {
	dst.Total += src.Total
	dst.Working += src.Working
	dst.Broken += src.Broken
	for _, d := range src.Details {
		if len(dst.Details) >= detailLimit {
			break
		}
		dst.Details = append(dst.Details, d)
	}
}

func newControlStats() report.ControlStats {
	return report.ControlStats{Details: []string{}}
}

func brokenReason(c signals.InteractiveControl) string {
	switch {
	case c.Disabled:
		return "disabled"
	case c.Hidden:
		return "hidden"
	case c.Width <= 0 || c.Height <= 0:
		return "zero size"
	}
	return ""
}

func controlLabel(c signals.InteractiveControl) string {
	label := strings.TrimSpace(c.Label)
	if label == "" {
		return "(unlabeled)"
	}
	return truncateString(label, 60)
}
