package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps audit entries in memory for tests.
type MemoryRepository struct {
	mu      sync.RWMutex
	entries []*models.AuditEntry
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Insert(ctx context.Context, e *models.AuditEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	cp := *e
	r.entries = append(r.entries, &cp)
	return nil
}

func (r *MemoryRepository) Find(ctx context.Context, q Query) ([]*models.AuditEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.AuditEntry{}
	for _, e := range r.entries {
		if q.TargetUserID != "" && e.TargetUserID != q.TargetUserID {
			continue
		}
		if q.AdminEmail != "" && e.AdminEmail != q.AdminEmail {
			continue
		}
		if q.ActionType != "" && e.ActionType != q.ActionType {
			continue
		}
		if q.From != nil && e.Timestamp.Before(*q.From) {
			continue
		}
		if q.To != nil && e.Timestamp.After(*q.To) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.entries[:0]
	var deleted int64
	for _, e := range r.entries {
		if e.Timestamp.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.entries = kept
	return deleted, nil
}
