package audit

import (
	"context"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
)

// Query filters audit log retrieval. Zero-valued fields are ignored.
type Query struct {
	TargetUserID string
	AdminEmail   string
	ActionType   string
	From         *time.Time
	To           *time.Time
	Limit        int
}

// Repository is the persistence surface for audit entries.
type Repository interface {
	Insert(ctx context.Context, e *models.AuditEntry) error
	Find(ctx context.Context, q Query) ([]*models.AuditEntry, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
