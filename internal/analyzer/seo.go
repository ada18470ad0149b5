package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/siteauditor/site-auditor/internal/config"
	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/siteauditor/site-auditor/internal/signals"
)

type SEOAnalyzer struct {
	config *config.SEOConfig
}

func NewSEOAnalyzer(cfg *config.SEOConfig) *SEOAnalyzer {
	return &SEOAnalyzer{config: cfg}
}

func (a *SEOAnalyzer) Category() report.Category {
	return report.CategorySEO
}

func (a *SEOAnalyzer) Analyze(page *signals.Page) (report.AnalysisResult, error) {
	s := page.SEO
	if s == nil {
		return report.AnalysisResult{}, errNoSignals
	}
	f := newFindings(report.CategorySEO)

	a.checkTitle(f, s)
	a.checkDescription(f, s)
	a.checkHeadings(f, s)
	a.checkImages(f, s)
	a.checkSocial(f, s)
	a.checkContent(f, s)

	if s.Canonical != "" {
		f.good("Canonical URL specified")
	} else {
		f.warn("Missing Canonical URL", "No <link rel=\"canonical\"> found; duplicate URLs may split ranking")
	}
	if s.HasFavicon {
		f.good("Favicon present")
	} else {
		f.warn("Missing Favicon", "No favicon link found in the document head")
	}
	if s.RobotsNoIndex {
		f.warn("Page Excluded From Indexing", "A robots meta tag sets noindex on this page")
	}

	return f.result, nil
}

func (a *SEOAnalyzer) checkTitle(f *findings, s *signals.SEO) {
	title := strings.TrimSpace(s.Title)
	if title == "" {
		f.issue("seo-title", report.SeverityHigh, "Missing Page Title",
			"The page has no <title>, which search engines use as the result headline",
			"Add a unique, descriptive <title> element")
		return
	}

	n := utf8.RuneCountInString(title)
	switch {
	case n >= a.config.TitleMinLength && n <= a.config.TitleMaxLength:
		f.good(fmt.Sprintf("Title length is optimal (%d characters)", n))
	case n < a.config.TitleMinLength:
		f.warn("Title Too Short", fmt.Sprintf("Title is %d characters; aim for %d-%d", n, a.config.TitleMinLength, a.config.TitleMaxLength))
	default:
		f.warn("Title Too Long", fmt.Sprintf("Title is %d characters and may be truncated; aim for %d-%d", n, a.config.TitleMinLength, a.config.TitleMaxLength))
	}
	if s.TitleCount > 1 {
		f.warn("Multiple Title Tags", fmt.Sprintf("Found %d <title> elements; only the first is used", s.TitleCount))
	}
}

func (a *SEOAnalyzer) checkDescription(f *findings, s *signals.SEO) {
	desc := strings.TrimSpace(s.MetaDescription)
	if !s.HasMetaDescription || desc == "" {
		f.issue("seo-description", report.SeverityMedium, "Missing Meta Description",
			"No meta description found; search engines will pick arbitrary page text as the snippet",
			"Add <meta name=\"description\"> summarising the page")
		return
	}

	n := utf8.RuneCountInString(desc)
	switch {
	case n >= a.config.DescriptionMinLength && n <= a.config.DescriptionMaxLength:
		f.good(fmt.Sprintf("Meta description length is optimal (%d characters)", n))
	case n < a.config.DescriptionMinLength:
		f.warn("Meta Description Too Short", fmt.Sprintf("Meta description is %d characters; aim for %d-%d", n, a.config.DescriptionMinLength, a.config.DescriptionMaxLength))
	default:
		f.warn("Meta Description Too Long", fmt.Sprintf("Meta description is %d characters and may be truncated; aim for %d-%d", n, a.config.DescriptionMinLength, a.config.DescriptionMaxLength))
	}
}

func (a *SEOAnalyzer) checkHeadings(f *findings, s *signals.SEO) {
	switch {
	case s.H1Count == 0:
		f.issue("seo-h1", report.SeverityHigh, "Missing H1 Heading",
			"The page has no <h1>; search engines use it to understand the main topic",
			"Add exactly one <h1> describing the page")
	case s.H1Count > 1:
		f.issue("seo-h1", report.SeverityMedium, "Multiple H1 Headings",
			fmt.Sprintf("Found %d <h1> elements; use a single H1 per page", s.H1Count),
			"Demote secondary headings to <h2> or lower")
	default:
		f.good("Single H1 heading")
	}
}

func (a *SEOAnalyzer) checkImages(f *findings, s *signals.SEO) {
	if s.ImageCount == 0 {
		return
	}
	if s.ImagesMissingAlt > 0 {
		f.issue("seo-alt", report.SeverityLow, "Images Missing Alt Text",
			fmt.Sprintf("%d of %d images have no alt attribute, so search engines cannot index them", s.ImagesMissingAlt, s.ImageCount),
			"Describe each meaningful image with an alt attribute")
		return
	}
	f.good(fmt.Sprintf("All %s have alt text", plural(s.ImageCount, "image")))
}

func (a *SEOAnalyzer) checkSocial(f *findings, s *signals.SEO) {
	if s.OpenGraph["og:title"] != "" || s.OpenGraph["og:description"] != "" {
		f.good("Open Graph tags present")
	} else {
		f.warn("Missing Open Graph Tags", "No og:title or og:description; shared links will render without a preview")
	}
	if len(s.TwitterCard) > 0 {
		f.good("Twitter Card tags present")
	} else {
		f.warn("Missing Twitter Card Tags", "No twitter:* meta tags found")
	}

	if len(s.StructuredData) > 0 {
		f.good(fmt.Sprintf("Structured data found (%s)", strings.Join(s.StructuredData, ", ")))
	} else {
		f.warn("No Structured Data", "No application/ld+json blocks found; rich results are unavailable")
	}
	if s.StructuredDataErrors > 0 {
		f.warn("Invalid Structured Data", fmt.Sprintf("%s could not be parsed as JSON", plural(s.StructuredDataErrors, "ld+json block")))
	}
}

func (a *SEOAnalyzer) checkContent(f *findings, s *signals.SEO) {
	if s.WordCount < a.config.MinWordCount {
		f.warn("Thin Content", fmt.Sprintf("Page has %d words; pages under %d words rarely rank", s.WordCount, a.config.MinWordCount))
	} else {
		f.good(fmt.Sprintf("Substantial content (%d words)", s.WordCount))
	}

	if s.HTMLLength > 0 {
		ratio := float64(s.TextLength) / float64(s.HTMLLength) * 100
		if ratio < a.config.MinTextRatio {
			f.warn("Low Text-to-HTML Ratio", fmt.Sprintf("Visible text is %.1f%% of the markup; aim for at least %.0f%%", ratio, a.config.MinTextRatio))
		}
	}
}
