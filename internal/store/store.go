// Package store keeps audit history and user feedback behind repository
// interfaces. The in-memory implementations are bounded and newest-first.
package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/siteauditor/site-auditor/internal/report"
)

var ErrNotFound = errors.New("not found")

type AuditRepository interface {
	Save(ctx context.Context, r *report.AuditReport) error
	Get(ctx context.Context, id string) (*report.AuditReport, error)
	// List returns a page of audits, newest first, and the total stored.
	List(ctx context.Context, skip, limit int) ([]*report.AuditReport, int, error)
}

type FeedbackRepository interface {
	Add(ctx context.Context, f Feedback) (Feedback, error)
	ForAudit(ctx context.Context, auditID string, limit int) ([]Feedback, int, error)
	List(ctx context.Context, limit int) ([]Feedback, int, error)
	Count(ctx context.Context) (int, error)
}

const (
	FeedbackPending         = "pending"
	FeedbackCategoryGeneral = "general"
)

type Feedback struct {
	ID        string    `json:"id"`
	AuditID   string    `json:"auditId"`
	URL       string    `json:"url,omitempty"`
	Rating    *float64  `json:"rating"`
	Feedback  string    `json:"feedback"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}

type MemoryAuditRepository struct {
	mu     sync.RWMutex
	limit  int
	audits []*report.AuditReport
}

func NewMemoryAuditRepository(limit int) *MemoryAuditRepository {
	return &MemoryAuditRepository{limit: limit}
}

// Save stores r, assigning an ID when it has none, and evicts the oldest
// audit once the limit is reached.
func (m *MemoryAuditRepository) Save(ctx context.Context, r *report.AuditReport) error {
	if r == nil {
		return errors.New("cannot save a nil report")
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.audits = append([]*report.AuditReport{r}, m.audits...)
	if m.limit > 0 && len(m.audits) > m.limit {
		m.audits = m.audits[:m.limit]
	}
	return nil
}

func (m *MemoryAuditRepository) Get(ctx context.Context, id string) (*report.AuditReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.audits {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryAuditRepository) List(ctx context.Context, skip, limit int) ([]*report.AuditReport, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := len(m.audits)
	return window(m.audits, skip, limit), total, nil
}

type MemoryFeedbackRepository struct {
	mu       sync.RWMutex
	limit    int
	feedback []Feedback
	now      func() time.Time
}

func NewMemoryFeedbackRepository(limit int) *MemoryFeedbackRepository {
	return &MemoryFeedbackRepository{limit: limit, now: time.Now}
}

// Add stores f with a fresh ID, timestamp and pending status.
func (m *MemoryFeedbackRepository) Add(ctx context.Context, f Feedback) (Feedback, error) {
	if f.AuditID == "" || f.Feedback == "" {
		return Feedback{}, errors.New("auditId and feedback are required")
	}
	f.ID = uuid.NewString()
	f.Timestamp = m.now()
	f.Status = FeedbackPending
	if f.Category == "" {
		f.Category = FeedbackCategoryGeneral
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.feedback = append([]Feedback{f}, m.feedback...)
	if m.limit > 0 && len(m.feedback) > m.limit {
		m.feedback = m.feedback[:m.limit]
	}
	return f, nil
}

func (m *MemoryFeedbackRepository) ForAudit(ctx context.Context, auditID string, limit int) ([]Feedback, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var matched []Feedback
	for _, f := range m.feedback {
		if f.AuditID == auditID {
			matched = append(matched, f)
		}
	}
	return window(matched, 0, limit), len(matched), nil
}

func (m *MemoryFeedbackRepository) List(ctx context.Context, limit int) ([]Feedback, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return window(m.feedback, 0, limit), len(m.feedback), nil
}

func (m *MemoryFeedbackRepository) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.feedback), nil
}

// window returns a copy of items[skip:skip+limit], clamped to bounds. A
// non-positive limit means no limit.
func window[T any](items []T, skip, limit int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(items) {
		return []T{}
	}
	end := len(items)
	if limit > 0 && skip+limit < end {
		end = skip + limit
	}
	out := make([]T, end-skip)
	copy(out, items[skip:end])
	return out
}
