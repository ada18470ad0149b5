package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
)

type typeStat struct {
	name    string
	bytes   int64
	percent float64
}

type Formatter interface {
	Format(report *AuditReport) (string, error)
}

type TableFormatter struct {
	colorize bool
}

func NewTableFormatter(colorize bool) *TableFormatter {
	return &TableFormatter{colorize: colorize}
}

func (f *TableFormatter) Format(report *AuditReport) (string, error) {
	var output strings.Builder

	if f.colorize {
		color.Set(color.FgCyan, color.Bold)
	}
	output.WriteString(fmt.Sprintf("Site Audit Report - %s\n", report.URL))
	output.WriteString(fmt.Sprintf("Audit completed at: %s (took %s)\n",
		report.EndTime.Format("2006-01-02 15:04:05"), formatElapsed(report.TotalTimeMs)))
	if report.Partial {
		output.WriteString("Audit was cut short; results are partial\n")
	}
	output.WriteString("\n")
	if f.colorize {
		color.Unset()
	}

	f.writeSummary(&output, report)
	f.writePages(&output, report.PageAudits)
	f.writeResources(&output, report.Resources)
	f.writeTechStack(&output, report.TechStack)
	f.writeAuth(&output, report.AuthTests)

	if len(report.Issues) > 0 {
		output.WriteString("\nIssues Found:\n")
		f.writeIssuesTable(&output, report.Issues)
	} else {
		output.WriteString("\n")
		if f.colorize {
			color.Set(color.FgGreen, color.Bold)
		}
		output.WriteString("✅ No issues found! Site looks healthy.\n")
		if f.colorize {
			color.Unset()
		}
	}

	if len(report.Warnings) > 0 {
		output.WriteString(fmt.Sprintf("\nWarnings (%d):\n", len(report.Warnings)))
		for _, warning := range report.Warnings {
			output.WriteString(fmt.Sprintf("  - %s (%s)\n", warning.Title, warning.Category))
		}
	}

	if report.Advice != "" {
		f.writeHeading(&output, "\nAdvice:\n", color.FgYellow)
		for _, line := range strings.Split(report.Advice, "\n") {
			output.WriteString(fmt.Sprintf("  %s\n", line))
		}
	}

	return output.String(), nil
}

func (f *TableFormatter) writeHeading(output *strings.Builder, text string, attr color.Attribute) {
	if f.colorize {
		color.Set(attr, color.Bold)
	}
	output.WriteString(text)
	if f.colorize {
		color.Unset()
	}
}

func (f *TableFormatter) writeSummary(output *strings.Builder, report *AuditReport) {
	f.writeHeading(output, "Summary:\n", color.FgYellow)

	summary := report.Summary
	output.WriteString(fmt.Sprintf("  Rating: %.1f/5.0 (Grade: %s)\n", report.Rating, summary.Grade))
	output.WriteString(fmt.Sprintf("  Pages: %d analyzed, %d failed\n", summary.PagesAnalyzed, summary.PagesFailed))
	output.WriteString(fmt.Sprintf("  Total Issues: %d | Warnings: %d | Good Points: %d\n",
		summary.TotalIssues, summary.TotalWarnings, summary.TotalGoodPoints))

	if summary.TotalIssues > 0 {
		f.writeSeverityCounts(output, summary)
	}
}

func (f *TableFormatter) writeSeverityCounts(output *strings.Builder, summary Summary) {
	for _, severity := range severityOrder {
		if count := summary.IssuesBySeverity[severity]; count > 0 {
			f.writeSeverityCount(output, severity, count)
		}
	}
}

func (f *TableFormatter) writeSeverityCount(output *strings.Builder, severity Severity, count int) {
	line := fmt.Sprintf("    %s: %d\n", titleCase(string(severity)), count)
	severityColor := f.getSeverityColor(severity)
	if f.colorize && severityColor != nil {
		line = severityColor.Sprint(line)
	}
	output.WriteString(line)
}

func (f *TableFormatter) writePages(output *strings.Builder, pages []PageAudit) {
	if len(pages) == 0 {
		return
	}

	output.WriteString("\n")
	f.writeHeading(output, "Pages:\n", color.FgCyan)
	for _, page := range pages {
		if !page.Loaded {
			output.WriteString(fmt.Sprintf("  %-30s  FAILED  %s\n",
				f.truncateString(page.Path, 30), f.truncateString(page.Error, 60)))
			continue
		}
		output.WriteString(fmt.Sprintf("  %-30s  %.1f  %d issues  %dms\n",
			f.truncateString(page.Path, 30), page.Rating, page.TotalIssues, page.LoadTimeMs))
	}
}

func (f *TableFormatter) writeResources(output *strings.Builder, stats *ResourceStats) {
	if stats == nil || stats.TotalRequests == 0 {
		return
	}

	output.WriteString("\n")
	f.writeHeading(output, "Resources:\n", color.FgCyan)
	output.WriteString(fmt.Sprintf("  Total Transferred: %s bytes\n", formatNumber(stats.TotalBytes)))
	output.WriteString(fmt.Sprintf("  Total Requests: %s\n", formatNumber(int64(stats.TotalRequests))))

	types := sortTypesByPercentage(stats)
	maxDisplay := 8
	if len(types) < maxDisplay {
		maxDisplay = len(types)
	}
	for _, t := range types[:maxDisplay] {
		output.WriteString(fmt.Sprintf("    %s: %s bytes (%.1f%%)\n", t.name, formatNumber(t.bytes), t.percent))
	}
	if len(types) > maxDisplay {
		output.WriteString(fmt.Sprintf("    ... and %d more\n", len(types)-maxDisplay))
	}
}

func (f *TableFormatter) writeTechStack(output *strings.Builder, stack *TechStack) {
	if stack == nil || stack.Empty() {
		return
	}

	output.WriteString("\n")
	f.writeHeading(output, "Tech Stack:\n", color.FgCyan)
	for _, group := range stack.Groups() {
		output.WriteString(fmt.Sprintf("  %s: %s\n", group.Name, strings.Join(group.Items, ", ")))
	}
}

func (f *TableFormatter) writeAuth(output *strings.Builder, auth *AuthProbeResult) {
	if auth == nil {
		return
	}

	output.WriteString("\n")
	f.writeHeading(output, "Authentication:\n", color.FgCyan)
	output.WriteString(fmt.Sprintf("  Login: %s | Signup: %s | Social login: %s\n",
		yesNo(auth.HasLogin), yesNo(auth.HasSignup), yesNo(auth.SocialLoginAvailable)))
	for _, detail := range auth.Details {
		output.WriteString(fmt.Sprintf("  - %s\n", detail))
	}
}

func (f *TableFormatter) writeIssuesTable(output *strings.Builder, issues []Issue) {
	for i, issue := range issues {
		if i > 0 {
			output.WriteString("\n")
		}

		severity := strings.ToUpper(string(issue.Severity))
		if f.colorize {
			if severityColor := f.getSeverityColor(issue.Severity); severityColor != nil {
				severity = severityColor.Sprint(severity)
			}
		}

		output.WriteString(fmt.Sprintf("  [%s] %s (%s)\n", severity, issue.Title, issue.Category))
		output.WriteString(fmt.Sprintf("    Issue: %s\n", issue.Description))
		if issue.Fix != "" {
			output.WriteString(fmt.Sprintf("    Fix:   %s\n", issue.Fix))
		}
	}
}

func (f *TableFormatter) getSeverityColor(severity Severity) *color.Color {
	switch severity {
	case SeverityCritical:
		return color.New(color.FgRed, color.Bold)
	case SeverityHigh:
		return color.New(color.FgRed)
	case SeverityMedium:
		return color.New(color.FgYellow)
	case SeverityLow:
		return color.New(color.FgBlue)
	default:
		return nil
	}
}

func (f *TableFormatter) truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(report *AuditReport) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report to JSON: %w", err)
	}
	return string(data), nil
}

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (f *MarkdownFormatter) Format(report *AuditReport) (string, error) {
	var output strings.Builder

	output.WriteString(fmt.Sprintf("# Site Audit Report - %s\n\n", report.URL))
	output.WriteString(fmt.Sprintf("**Audit completed:** %s (took %s)\n\n",
		report.EndTime.Format("2006-01-02 15:04:05"), formatElapsed(report.TotalTimeMs)))

	output.WriteString("## Summary\n\n")
	output.WriteString(fmt.Sprintf("- **Rating:** %.1f/5.0 (Grade: %s)\n", report.Rating, report.Summary.Grade))
	output.WriteString(fmt.Sprintf("- **Pages:** %d analyzed, %d failed\n", report.Summary.PagesAnalyzed, report.Summary.PagesFailed))
	output.WriteString(fmt.Sprintf("- **Total Issues:** %d\n\n", report.Summary.TotalIssues))

	if report.Summary.TotalIssues > 0 {
		output.WriteString("### Issues by Severity\n\n")
		for _, severity := range severityOrder {
			if count := report.Summary.IssuesBySeverity[severity]; count > 0 {
				output.WriteString(fmt.Sprintf("- **%s:** %d\n", titleCase(string(severity)), count))
			}
		}
		output.WriteString("\n")
	}

	f.writePagesMarkdown(&output, report.PageAudits)

	if report.TechStack != nil && !report.TechStack.Empty() {
		output.WriteString("## Tech Stack\n\n")
		for _, group := range report.TechStack.Groups() {
			output.WriteString(fmt.Sprintf("- **%s:** %s\n", group.Name, strings.Join(group.Items, ", ")))
		}
		output.WriteString("\n")
	}

	if len(report.Issues) > 0 {
		output.WriteString("## Issues Found\n\n")
		f.writeIssuesMarkdown(&output, report.Issues)
	} else {
		output.WriteString("## ✅ No Issues Found\n\nSite looks healthy!\n\n")
	}

	if report.Advice != "" {
		output.WriteString("## Advice\n\n")
		output.WriteString(report.Advice)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (f *MarkdownFormatter) writePagesMarkdown(output *strings.Builder, pages []PageAudit) {
	if len(pages) == 0 {
		return
	}

	output.WriteString("## Pages\n\n")
	output.WriteString("| Path | Loaded | Rating | Issues | Load time |\n")
	output.WriteString("|---|---|---|---|---|\n")
	for _, page := range pages {
		output.WriteString(fmt.Sprintf("| `%s` | %s | %.1f | %d | %dms |\n",
			page.Path, yesNo(page.Loaded), page.Rating, page.TotalIssues, page.LoadTimeMs))
	}
	output.WriteString("\n")
}

func (f *MarkdownFormatter) writeIssuesMarkdown(output *strings.Builder, issues []Issue) {
	categorizedIssues := make(map[Category][]Issue)
	for _, issue := range issues {
		categorizedIssues[issue.Category] = append(categorizedIssues[issue.Category], issue)
	}

	for _, category := range Categories {
		categoryIssues := categorizedIssues[category]
		if len(categoryIssues) == 0 {
			continue
		}
		output.WriteString(fmt.Sprintf("### %s Issues\n\n", category))

		for _, issue := range categoryIssues {
			output.WriteString(fmt.Sprintf("#### %s %s\n\n", f.getSeverityBadge(issue.Severity), issue.Title))
			output.WriteString(fmt.Sprintf("**Description:** %s\n\n", issue.Description))

			if issue.Page != "" {
				output.WriteString(fmt.Sprintf("**Page:** `%s`\n\n", issue.Page))
			}

			if issue.Fix != "" {
				output.WriteString(fmt.Sprintf("**Suggested Fix:** %s\n\n", issue.Fix))
			}

			output.WriteString("---\n\n")
		}
	}
}

func (f *MarkdownFormatter) getSeverityBadge(severity Severity) string {
	switch severity {
	case SeverityCritical:
		return "🔴 **CRITICAL**"
	case SeverityHigh:
		return "🟠 **HIGH**"
	case SeverityMedium:
		return "🟡 **MEDIUM**"
	case SeverityLow:
		return "🔵 **LOW**"
	default:
		return "⚪ **UNKNOWN**"
	}
}

func GetFormatter(format string) Formatter {
	switch strings.ToLower(format) {
	case "json":
		return NewJSONFormatter()
	case "markdown", "md":
		return NewMarkdownFormatter()
	case "table":
		fallthrough
	default:
		return NewTableFormatter(isTerminal())
	}
}

var severityOrder = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// TechGroup is one named, non-empty slice of a TechStack.
type TechGroup struct {
	Name  string
	Items []string
}

func (s *TechStack) Groups() []TechGroup {
	all := []TechGroup{
		{"Frameworks", s.Frameworks},
		{"Libraries", s.Libraries},
		{"Analytics", s.Analytics},
		{"CMS", s.CMS},
		{"E-commerce", s.Ecommerce},
		{"Fonts", s.Fonts},
		{"Other", s.Other},
	}

	var groups []TechGroup
	for _, g := range all {
		if len(g.Items) > 0 {
			groups = append(groups, g)
		}
	}
	return groups
}

func (s *TechStack) Empty() bool {
	return len(s.Groups()) == 0
}

func sortTypesByPercentage(stats *ResourceStats) []typeStat {
	var types []typeStat
	for name, bytes := range stats.BytesByType {
		types = append(types, typeStat{name: name, bytes: bytes, percent: stats.PercentByType[name]})
	}

	sort.Slice(types, func(i, j int) bool {
		if types[i].percent == types[j].percent {
			return types[i].name < types[j].name
		}
		return types[i].percent > types[j].percent
	})
	return types
}

func titleCase(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func formatElapsed(ms int64) string {
	return (time.Duration(ms) * time.Millisecond).String()
}

func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return fileInfo.Mode()&os.ModeCharDevice != 0
}

func formatNumber(n int64) string {
	str := fmt.Sprintf("%d", n)
	if n < 1000 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(char)
	}
	return result.String()
}
