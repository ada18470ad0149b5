package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/siteauditor/site-auditor/internal/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditWith(rating float64, titles ...string) *report.AuditReport {
	r := &report.AuditReport{URL: "https://example.com", Rating: rating}
	for _, title := range titles {
		r.Issues = append(r.Issues, report.Issue{Title: title, Severity: report.SeverityMedium})
	}
	return r
}

func TestMemoryAuditRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAuditRepository(3)

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.Save(ctx, &report.AuditReport{ID: fmt.Sprintf("a%d", i)}))
	}

	all, total, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, all, 3)
	assert.Equal(t, "a3", all[0].ID, "newest first")
	assert.Equal(t, "a1", all[2].ID)

	_, err = repo.Get(ctx, "a0")
	assert.ErrorIs(t, err, ErrNotFound, "oldest evicted")

	got, err := repo.Get(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, "a2", got.ID)

	page, total, err := repo.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, page, 1)
	assert.Equal(t, "a2", page[0].ID)

	page, _, err = repo.List(ctx, 10, 5)
	require.NoError(t, err)
	assert.Empty(t, page)
	assert.NotNil(t, page)
}

func TestMemoryAuditRepository_AssignsID(t *testing.T) {
	repo := NewMemoryAuditRepository(0)
	r := &report.AuditReport{}
	require.NoError(t, repo.Save(context.Background(), r))
	assert.NotEmpty(t, r.ID)

	assert.Error(t, repo.Save(context.Background(), nil))
}

func TestMemoryFeedbackRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryFeedbackRepository(0)
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	rating := 4.0
	added, err := repo.Add(ctx, Feedback{AuditID: "a1", Feedback: "Spot on", Rating: &rating})
	require.NoError(t, err)
	assert.NotEmpty(t, added.ID)
	assert.Equal(t, fixed, added.Timestamp)
	assert.Equal(t, FeedbackPending, added.Status)
	assert.Equal(t, FeedbackCategoryGeneral, added.Category)

	_, err = repo.Add(ctx, Feedback{AuditID: "a1", Feedback: "Missed the footer", Category: "accuracy"})
	require.NoError(t, err)
	_, err = repo.Add(ctx, Feedback{AuditID: "a2", Feedback: "Too slow"})
	require.NoError(t, err)

	forA1, total, err := repo.ForAudit(ctx, "a1", 50)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, forA1, 2)
	assert.Equal(t, "accuracy", forA1[0].Category)

	limited, total, err := repo.List(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, limited, 1)
	assert.Equal(t, "a2", limited[0].AuditID)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestMemoryFeedbackRepository_RequiresFields(t *testing.T) {
	repo := NewMemoryFeedbackRepository(0)
	_, err := repo.Add(context.Background(), Feedback{AuditID: "a1"})
	assert.Error(t, err)
	_, err = repo.Add(context.Background(), Feedback{Feedback: "orphan"})
	assert.Error(t, err)
}

func TestComputeStats(t *testing.T) {
	ctx := context.Background()
	audits := NewMemoryAuditRepository(0)
	feedback := NewMemoryFeedbackRepository(0)

	require.NoError(t, audits.Save(ctx, auditWith(5.0, "[/] Missing Meta Description", "[/about] Missing Meta Description")))
	require.NoError(t, audits.Save(ctx, auditWith(4.0, "[/] No HTTPS")))
	require.NoError(t, audits.Save(ctx, auditWith(3.0, "[/] Missing Meta Description")))
	require.NoError(t, audits.Save(ctx, auditWith(1.0, "Audit Failed")))
	_, err := feedback.Add(ctx, Feedback{AuditID: "x", Feedback: "ok"})
	require.NoError(t, err)

	stats, err := ComputeStats(ctx, audits, feedback)
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalAudits)
	assert.Equal(t, 1, stats.TotalFeedback)
	assert.Equal(t, 3.25, stats.AverageRating)
	assert.Equal(t, RatingDistribution{Excellent: 1, Good: 1, Average: 1, Poor: 1}, stats.RatingDistribution)
	require.Len(t, stats.TopIssues, 3)
	assert.Equal(t, IssueCount{Title: "Missing Meta Description", Count: 3}, stats.TopIssues[0])
	assert.Equal(t, IssueCount{Title: "Audit Failed", Count: 1}, stats.TopIssues[1])
}

func TestComputeStats_Empty(t *testing.T) {
	stats, err := ComputeStats(context.Background(), NewMemoryAuditRepository(0), NewMemoryFeedbackRepository(0))
	require.NoError(t, err)
	assert.Zero(t, stats.AverageRating)
	assert.NotNil(t, stats.TopIssues)
}

func TestComputeStats_TopIssuesCapped(t *testing.T) {
	audits := NewMemoryAuditRepository(0)
	var titles []string
	for i := 0; i < 15; i++ {
		titles = append(titles, fmt.Sprintf("Issue %02d", i))
	}
	require.NoError(t, audits.Save(context.Background(), auditWith(3.0, titles...)))

	stats, err := ComputeStats(context.Background(), audits, NewMemoryFeedbackRepository(0))
	require.NoError(t, err)
	assert.Len(t, stats.TopIssues, 10)
}
