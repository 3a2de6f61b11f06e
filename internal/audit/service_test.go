package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/stretchr/testify/require"
)

// failingRepo rejects every insert
type failingRepo struct {
	MemoryRepository
}

func (f *failingRepo) Insert(ctx context.Context, e *models.AuditEntry) error {
	return errors.New("write refused")
}

func TestServiceLogsActions(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 30)
	ctx := context.Background()

	require.True(t, svc.LogCreation(ctx, "admin@system.local", "012345678901", "Nguyễn Văn A", true, true, 2, "10.0.0.1"))
	require.True(t, svc.LogUpdate(ctx, "admin@system.local", "012345678901", "Nguyễn Văn A", "users", []string{"full_name"}, ""))
	require.True(t, svc.LogDeletion(ctx, "admin@system.local", "012345678901", "Nguyễn Văn A", []string{"users", "citizen_cards"}, ""))
	require.True(t, svc.LogAction(ctx, models.AuditActionSoftDelete, "admin@system.local", "012345678901", "Nguyễn Văn A", ""))

	logs, err := svc.Logs(ctx, Query{TargetUserID: "012345678901"})
	require.NoError(t, err)
	require.Len(t, logs, 4)

	creates, err := svc.Logs(ctx, Query{ActionType: models.AuditActionCreate})
	require.NoError(t, err)
	require.Len(t, creates, 1)
	require.Equal(t, "Nguyễn Văn A", creates[0].TargetUserName)
	require.NotEmpty(t, creates[0].ID)
}

func TestServiceWriteFailureIsSwallowed(t *testing.T) {
	svc := NewService(&failingRepo{}, 30)
	// failure reported as false, never as an error/panic
	ok := svc.LogCreation(context.Background(), "admin@system.local", "012345678901", "Nguyễn Văn A", false, false, 0, "")
	require.False(t, ok)
}

func TestServiceCleanup(t *testing.T) {
	repo := NewMemoryRepository()
	svc := NewService(repo, 30)
	ctx := context.Background()

	old := &models.AuditEntry{Timestamp: time.Now().UTC().AddDate(0, 0, -60), ActionType: models.AuditActionCreate}
	fresh := &models.AuditEntry{Timestamp: time.Now().UTC(), ActionType: models.AuditActionCreate}
	require.NoError(t, repo.Insert(ctx, old))
	require.NoError(t, repo.Insert(ctx, fresh))

	deleted, err := svc.Cleanup(ctx, 0) // uses configured 30 days
	require.NoError(t, err)
	require.Equal(t, int64(1), deleted)

	rest, err := svc.Logs(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, rest, 1)
}

func TestMemoryRepositoryFilters(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now().UTC()

	require.NoError(t, repo.Insert(ctx, &models.AuditEntry{Timestamp: base.Add(-2 * time.Hour), AdminEmail: "a@x", ActionType: "create", TargetUserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &models.AuditEntry{Timestamp: base.Add(-1 * time.Hour), AdminEmail: "b@x", ActionType: "update", TargetUserID: "u1"}))
	require.NoError(t, repo.Insert(ctx, &models.AuditEntry{Timestamp: base, AdminEmail: "a@x", ActionType: "delete", TargetUserID: "u2"}))

	from := base.Add(-90 * time.Minute)
	got, err := repo.Find(ctx, Query{From: &from})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest first
	require.Equal(t, "delete", got[0].ActionType)

	got, err = repo.Find(ctx, Query{AdminEmail: "a@x"})
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = repo.Find(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
}
