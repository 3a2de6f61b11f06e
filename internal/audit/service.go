package audit

import (
	"context"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/civicreg/citizen-admin/pkg/logger"
	"github.com/civicreg/citizen-admin/pkg/metrics"
)

// Service writes and reads admin-action audit entries. Writes are
// best-effort: a failure is logged and counted but never propagated, so
// the primary operation is never rolled back over a missing audit row.
type Service struct {
	repo          Repository
	retentionDays int
}

func NewService(repo Repository, retentionDays int) *Service {
	if retentionDays <= 0 {
		retentionDays = 365
	}
	return &Service{repo: repo, retentionDays: retentionDays}
}

// safeLog inserts an entry, swallowing any error. Returns whether the
// write succeeded.
func (s *Service) safeLog(ctx context.Context, e *models.AuditEntry) bool {
	if err := s.repo.Insert(ctx, e); err != nil {
		logger.Errorf("audit write failed (action=%s target=%s): %v", e.ActionType, e.TargetUserID, err)
		metrics.AuditWriteFailures.Inc()
		return false
	}
	return true
}

// LogCreation records a user creation, noting which secondary records
// were written alongside the profile.
func (s *Service) LogCreation(ctx context.Context, adminEmail, uid, name string, cardCreated, residenceCreated bool, memberCount int, ip string) bool {
	return s.safeLog(ctx, &models.AuditEntry{
		Timestamp:      time.Now().UTC(),
		AdminEmail:     adminEmail,
		ActionType:     models.AuditActionCreate,
		TargetUserID:   uid,
		TargetUserName: name,
		Details: map[string]interface{}{
			"citizen_card_created": cardCreated,
			"residence_created":    residenceCreated,
			"household_members":    memberCount,
		},
		IPAddress: ip,
	})
}

// LogUpdate records a field update against one collection.
func (s *Service) LogUpdate(ctx context.Context, adminEmail, uid, name, collection string, fields []string, ip string) bool {
	return s.safeLog(ctx, &models.AuditEntry{
		Timestamp:      time.Now().UTC(),
		AdminEmail:     adminEmail,
		ActionType:     models.AuditActionUpdate,
		TargetUserID:   uid,
		TargetUserName: name,
		Details: map[string]interface{}{
			"updated_collection": collection,
			"fields_modified":    fields,
		},
		IPAddress: ip,
	})
}

// LogDeletion records a cascade deletion and what it removed.
func (s *Service) LogDeletion(ctx context.Context, adminEmail, uid, name string, deletedCollections []string, ip string) bool {
	return s.safeLog(ctx, &models.AuditEntry{
		Timestamp:      time.Now().UTC(),
		AdminEmail:     adminEmail,
		ActionType:     models.AuditActionDelete,
		TargetUserID:   uid,
		TargetUserName: name,
		Details: map[string]interface{}{
			"deleted_collections": deletedCollections,
			"cascade_deletion":    len(deletedCollections) > 0,
		},
		IPAddress: ip,
	})
}

// LogAction records a soft delete, restore or other simple action.
func (s *Service) LogAction(ctx context.Context, action, adminEmail, uid, name string, ip string) bool {
	return s.safeLog(ctx, &models.AuditEntry{
		Timestamp:      time.Now().UTC(),
		AdminEmail:     adminEmail,
		ActionType:     action,
		TargetUserID:   uid,
		TargetUserName: name,
		IPAddress:      ip,
	})
}

// Logs returns audit entries matching the query, newest first.
func (s *Service) Logs(ctx context.Context, q Query) ([]*models.AuditEntry, error) {
	return s.repo.Find(ctx, q)
}

// Cleanup deletes entries older than the retention period. A zero
// retentionDays uses the configured default.
func (s *Service) Cleanup(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		retentionDays = s.retentionDays
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -retentionDays)
	deleted, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	logger.Infof("audit cleanup removed %d entries older than %d days", deleted, retentionDays)
	return deleted, nil
}
