package audit

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/siteauditor/site-auditor/internal/analyzer"
	"github.com/siteauditor/site-auditor/internal/report"
)

const maxAdvicePriorities = 5

// Aggregator merges page audits into report-level findings, rating, summary
// and advice.
type Aggregator struct {
	policy      report.RatingPolicy
	detailLimit int
}

func NewAggregator(policy report.RatingPolicy, detailLimit int) *Aggregator {
	return &Aggregator{policy: policy, detailLimit: detailLimit}
}

// Aggregate fills the merged sections of r from r.PageAudits.
func (a *Aggregator) Aggregate(r *report.AuditReport) {
	r.Issues = []report.Issue{}
	r.Warnings = []report.Warning{}
	r.GoodPoints = []report.GoodPoint{}

	var resources []*report.ResourceStats
	var interactive []*report.InteractiveResult

	for _, page := range r.PageAudits {
		if !page.Loaded {
			r.Issues = append(r.Issues, report.Issue{
				Title:       prefixed(page.Path, "Page Failed to Load"),
				Description: fmt.Sprintf("%s could not be loaded: %s", page.URL, page.Error),
				Severity:    report.SeverityHigh,
				Category:    report.CategoryFunctionality,
				Page:        page.Path,
				Rule:        "page-load",
				Fix:         "Check that the page is reachable and responds within the navigation timeout",
			})
			continue
		}

		for _, category := range report.Categories {
			result, ok := page.Analysis[category]
			if !ok {
				continue
			}
			for _, issue := range result.Issues {
				issue.Title = prefixed(page.Path, issue.Title)
				issue.Page = page.Path
				r.Issues = append(r.Issues, issue)
			}
			for _, warning := range result.Warnings {
				warning.Title = prefixed(page.Path, warning.Title)
				warning.Page = page.Path
				r.Warnings = append(r.Warnings, warning)
			}
			for _, point := range result.GoodPoints {
				r.GoodPoints = append(r.GoodPoints, report.GoodPoint{
					Title:    prefixed(page.Path, point),
					Category: category,
					Page:     page.Path,
				})
			}
		}

		resources = append(resources, page.Resources)
		interactive = append(interactive, page.Interactive)
	}

	r.Rating = a.policy.OverallRating(r.PageAudits)
	r.Resources = analyzer.MergeResourceStats(resources...)
	r.InteractiveTests = analyzer.MergeInteractive(a.detailLimit, interactive...)
	r.Summary = report.Summarize(r)
	r.Advice = Advice(r.Issues, r.Rating)
}

func prefixed(path, title string) string {
	return fmt.Sprintf("[%s] %s", path, title)
}

var prefixPattern = regexp.MustCompile(`^\[[^\]]*\]\s*`)

func unprefixed(title string) string {
	return prefixPattern.ReplaceAllString(title, "")
}

// adviceTopic maps issue titles onto a piece of general guidance.
type adviceTopic struct {
	pattern *regexp.Regexp
	tip     string
}

var adviceTopics = []adviceTopic{
	{regexp.MustCompile(`(?i)https|mixed content|insecure form`), "Serve every page and asset over HTTPS and submit forms only to https:// endpoints."},
	{regexp.MustCompile(`(?i)api key|secret`), "Rotate any credential exposed in page source and move it behind a server-side proxy."},
	{regexp.MustCompile(`(?i)title|meta description|h1`), "Give every page a unique title, a meta description and exactly one H1."},
	{regexp.MustCompile(`(?i)slow|heavy|large images|dom size|render-blocking`), "Reduce page weight: compress images, defer non-critical scripts and trim the DOM."},
	{regexp.MustCompile(`(?i)alt text|label|accessible name|language attribute|empty links`), "Label every image, control and link so assistive technology can describe them."},
	{regexp.MustCompile(`(?i)viewport|touch target|horizontal scroll|body text`), "Test on a phone-sized viewport: set a device-width viewport and enlarge small text and targets."},
	{regexp.MustCompile(`(?i)call-to-action|navigation|dead links|popup`), "Make the primary action obvious above the fold and remove links that go nowhere."},
	{regexp.MustCompile(`(?i)broken images|fonts|responsive`), "Fix broken images and consolidate typography for a consistent look."},
	{regexp.MustCompile(`(?i)not found|server error|failed to load|javascript errors|broken links`), "Fix pages and links that error before polishing anything else."},
}

type adviceItem struct {
	title    string
	severity report.Severity
	pages    int
	fix      string
}

// Advice turns merged issues into short prioritized guidance: the most
// severe and most repeated issues first, then general tips for the areas
// the issues touch.
func Advice(issues []report.Issue, rating float64) string {
	var b strings.Builder
	b.WriteString(ratingHeadline(rating))

	if len(issues) == 0 {
		b.WriteString(" No issues were found; keep monitoring after each release.")
		return b.String()
	}

	byTitle := make(map[string]*adviceItem)
	var items []*adviceItem
	for _, issue := range issues {
		title := unprefixed(issue.Title)
		item, ok := byTitle[title]
		if !ok {
			item = &adviceItem{title: title, severity: issue.Severity, fix: issue.Fix}
			byTitle[title] = item
			items = append(items, item)
		}
		item.pages++
		if issue.Severity.Rank() > item.severity.Rank() {
			item.severity = issue.Severity
		}
		if item.fix == "" {
			item.fix = issue.Fix
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].severity.Rank() != items[j].severity.Rank() {
			return items[i].severity.Rank() > items[j].severity.Rank()
		}
		if items[i].pages != items[j].pages {
			return items[i].pages > items[j].pages
		}
		return items[i].title < items[j].title
	})

	b.WriteString("\n\nFix first:\n")
	for i, item := range items {
		if i >= maxAdvicePriorities {
			break
		}
		fmt.Fprintf(&b, "%d. %s (%s", i+1, item.title, item.severity)
		if item.pages > 1 {
			fmt.Fprintf(&b, ", %d occurrences", item.pages)
		}
		b.WriteString(")")
		if item.fix != "" {
			fmt.Fprintf(&b, ": %s", item.fix)
		}
		b.WriteString("\n")
	}

	var tips []string
	for _, topic := range adviceTopics {
		for _, item := range items {
			if topic.pattern.MatchString(item.title) {
				tips = append(tips, topic.tip)
				break
			}
		}
	}
	if len(tips) > 0 {
		b.WriteString("\nGeneral guidance:\n")
		for _, tip := range tips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func ratingHeadline(rating float64) string {
	switch {
	case rating >= 4.5:
		return fmt.Sprintf("Overall rating %.1f/5: the site is in excellent shape.", rating)
	case rating >= 3.5:
		return fmt.Sprintf("Overall rating %.1f/5: the site is in good shape with a few issues to address.", rating)
	case rating >= 2.5:
		return fmt.Sprintf("Overall rating %.1f/5: several areas need attention.", rating)
	default:
		return fmt.Sprintf("Overall rating %.1f/5: serious problems should be fixed before anything else.", rating)
	}
}
