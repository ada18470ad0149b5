package report

import "math"

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// RatingPolicy holds the penalty and bonus weights used to turn findings
// into a 1.0-5.0 rating.
type RatingPolicy struct {
	Critical       float64
	High           float64
	Medium         float64
	Low            float64
	GoodPointBonus float64
	GoodPointCap   float64
	WarningWeight  float64
	WarningCap     float64
	Neutral        float64
}

func DefaultRatingPolicy() RatingPolicy {
	return RatingPolicy{
		Critical:       2.0,
		High:           1.5,
		Medium:         1.0,
		Low:            0.5,
		GoodPointBonus: 0.05,
		GoodPointCap:   0.5,
		WarningWeight:  0.05,
		WarningCap:     0.25,
		Neutral:        3.0,
	}
}

func (p RatingPolicy) weight(severity Severity) float64 {
	switch severity {
	case SeverityCritical:
		return p.Critical
	case SeverityHigh:
		return p.High
	case SeverityMedium:
		return p.Medium
	case SeverityLow:
		return p.Low
	default:
		return 0
	}
}

// PageRating starts at MaxRating, subtracts a weight per issue and a capped
// deduction for warnings, adds a capped good-point bonus, then clamps and
// rounds to one decimal.
func (p RatingPolicy) PageRating(analysis map[Category]AnalysisResult) float64 {
	rating := MaxRating
	goodPoints := 0
	warnings := 0

	for _, result := range analysis {
		for _, issue := range result.Issues {
			rating -= p.weight(issue.Severity)
		}
		goodPoints += len(result.GoodPoints)
		warnings += len(result.Warnings)
	}

	rating -= math.Min(p.WarningCap, float64(warnings)*p.WarningWeight)
	rating += math.Min(p.GoodPointCap, float64(goodPoints)*p.GoodPointBonus)

	return roundRating(clampRating(rating))
}

// OverallRating is the mean of the ratings of pages that loaded. With no
// loaded page it falls back to the neutral rating.
func (p RatingPolicy) OverallRating(pages []PageAudit) float64 {
	total := 0.0
	count := 0
	for _, page := range pages {
		if !page.Loaded || page.Rating <= 0 {
			continue
		}
		total += page.Rating
		count++
	}

	if count == 0 {
		return roundRating(clampRating(p.Neutral))
	}
	return roundRating(clampRating(total / float64(count)))
}

func clampRating(r float64) float64 {
	if math.IsNaN(r) {
		return MinRating
	}
	return math.Max(MinRating, math.Min(MaxRating, r))
}

func roundRating(r float64) float64 {
	return math.Round(r*10) / 10
}

// Grade maps a rating onto an A-F letter.
func Grade(rating float64) string {
	switch {
	case rating >= 4.5:
		return "A"
	case rating >= 3.5:
		return "B"
	case rating >= 2.5:
		return "C"
	case rating >= 1.5:
		return "D"
	default:
		return "F"
	}
}

// Summarize counts the merged findings of a report.
func Summarize(r *AuditReport) Summary {
	summary := Summary{
		TotalIssues:      len(r.Issues),
		TotalWarnings:    len(r.Warnings),
		TotalGoodPoints:  len(r.GoodPoints),
		IssuesBySeverity: make(map[Severity]int),
		IssuesByCategory: make(map[Category]int),
		Grade:            Grade(r.Rating),
	}

	for _, issue := range r.Issues {
		summary.IssuesBySeverity[issue.Severity]++
		summary.IssuesByCategory[issue.Category]++
	}

	for _, page := range r.PageAudits {
		if page.Loaded {
			summary.PagesAnalyzed++
		} else {
			summary.PagesFailed++
		}
	}

	return summary
}

// FilterBySeverity keeps issues at or above threshold. An unknown threshold
// keeps everything.
func FilterBySeverity(issues []Issue, threshold Severity) []Issue {
	level := threshold.Rank()
	if level == 0 {
		level = SeverityLow.Rank()
	}

	var filtered []Issue
	for _, issue := range issues {
		if issue.Severity.Rank() >= level {
			filtered = append(filtered, issue)
		}
	}
	return filtered
}
