package store

import (
	"context"
	"math"
	"regexp"
	"sort"
)

const topIssueCount = 10

type RatingDistribution struct {
	Excellent int `json:"excellent"`
	Good      int `json:"good"`
	Average   int `json:"average"`
	Poor      int `json:"poor"`
}

type IssueCount struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}

type Stats struct {
	TotalAudits        int                `json:"totalAudits"`
	TotalFeedback      int                `json:"totalFeedback"`
	AverageRating      float64            `json:"averageRating"`
	RatingDistribution RatingDistribution `json:"ratingDistribution"`
	TopIssues          []IssueCount       `json:"topIssues"`
}

var pagePrefix = regexp.MustCompile(`^\[[^\]]*\]\s*`)

// ComputeStats summarizes every stored audit. Issue titles are counted
// without their page prefix so the same problem on several pages groups
// together.
func ComputeStats(ctx context.Context, audits AuditRepository, feedback FeedbackRepository) (Stats, error) {
	all, total, err := audits.List(ctx, 0, 0)
	if err != nil {
		return Stats{}, err
	}
	feedbackCount, err := feedback.Count(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{TotalAudits: total, TotalFeedback: feedbackCount, TopIssues: []IssueCount{}}

	sum := 0.0
	counts := make(map[string]int)
	for _, r := range all {
		sum += r.Rating
		switch {
		case r.Rating >= 4.5:
			stats.RatingDistribution.Excellent++
		case r.Rating >= 3.5:
			stats.RatingDistribution.Good++
		case r.Rating >= 2.5:
			stats.RatingDistribution.Average++
		default:
			stats.RatingDistribution.Poor++
		}
		for _, issue := range r.Issues {
			counts[pagePrefix.ReplaceAllString(issue.Title, "")]++
		}
	}
	if len(all) > 0 {
		stats.AverageRating = math.Round(sum/float64(len(all))*100) / 100
	}

	for title, count := range counts {
		stats.TopIssues = append(stats.TopIssues, IssueCount{Title: title, Count: count})
	}
	sort.Slice(stats.TopIssues, func(i, j int) bool {
		if stats.TopIssues[i].Count != stats.TopIssues[j].Count {
			return stats.TopIssues[i].Count > stats.TopIssues[j].Count
		}
		return stats.TopIssues[i].Title < stats.TopIssues[j].Title
	})
	if len(stats.TopIssues) > topIssueCount {
		stats.TopIssues = stats.TopIssues[:topIssueCount]
	}
	return stats, nil
}
