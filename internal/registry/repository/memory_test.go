package repository

import (
	"context"
	"testing"
	"time"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/stretchr/testify/require"
)

func newProfile(uid, name, email string) *models.UserProfile {
	return &models.UserProfile{
		UID:         uid,
		FullName:    name,
		Email:       email,
		PhoneNumber: "0912345678",
		CitizenID:   uid,
		Passcode:    models.DefaultPasscode,
	}
}

func TestMemoryRepo_ProfileCRUD(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	p := newProfile("012345678901", "Nguyễn Văn A", "a@example.com")
	require.NoError(t, repo.CreateProfile(ctx, p))
	require.False(t, p.CreatedAt.IsZero())

	// duplicate uid and duplicate citizen_id both rejected
	err := repo.CreateProfile(ctx, newProfile("012345678901", "Other", "o@example.com"))
	require.Equal(t, apperr.Duplicate, apperr.CategoryOf(err))

	got, err := repo.GetProfile(ctx, "012345678901")
	require.NoError(t, err)
	require.Equal(t, "Nguyễn Văn A", got.FullName)

	require.NoError(t, repo.UpdateProfile(ctx, "012345678901", map[string]interface{}{"full_name": "Nguyễn Văn B"}))
	got, _ = repo.GetProfile(ctx, "012345678901")
	require.Equal(t, "Nguyễn Văn B", got.FullName)

	_, err = repo.GetProfile(ctx, "999999999999")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_ListProfiles(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678901", "Nguyễn Văn A", "a@example.com")))
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678902", "Trần Thị B", "b@other.org")))
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678903", "Lê Văn C", "c@example.com")))

	all, total, err := repo.ListProfiles(ctx, ListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, all, 3)

	byName, total, err := repo.ListProfiles(ctx, ListQuery{SearchTerm: "trần", SearchField: SearchFieldName})
	require.NoError(t, err)
	require.Equal(t, int64(1), total)
	require.Equal(t, "012345678902", byName[0].UID)

	byID, _, err := repo.ListProfiles(ctx, ListQuery{SearchTerm: "678903", SearchField: SearchFieldCitizenID})
	require.NoError(t, err)
	require.Len(t, byID, 1)

	paged, total, err := repo.ListProfiles(ctx, ListQuery{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Equal(t, int64(3), total)
	require.Len(t, paged, 1)

	// soft-deleted excluded unless asked for
	require.NoError(t, repo.UpdateProfile(ctx, "012345678901", map[string]interface{}{"deleted": true, "deleted_at": time.Now()}))
	visible, total, err := repo.ListProfiles(ctx, ListQuery{})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, visible, 2)
	withDeleted, _, err := repo.ListProfiles(ctx, ListQuery{IncludeDeleted: true})
	require.NoError(t, err)
	require.Len(t, withDeleted, 3)
}

func TestMemoryRepo_CitizenIDExists(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678901", "Nguyễn Văn A", "a@example.com")))

	exists, err := repo.CitizenIDExists(ctx, "012345678901", "")
	require.NoError(t, err)
	require.True(t, exists)

	// excluding the owner itself
	exists, err = repo.CitizenIDExists(ctx, "012345678901", "012345678901")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestMemoryRepo_MembersAndCascade(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	uid := "012345678901"

	p := newProfile(uid, "Nguyễn Văn A", "a@example.com")
	card := &models.CitizenCard{CitizenID: uid, FullName: p.FullName}
	res := &models.Residence{IDNumber: uid, FullName: p.FullName}
	members := []models.HouseholdMember{
		{FullName: "Trần Thị B", RelationToHead: "Spouse"},
		{FullName: "Nguyễn Văn C", RelationToHead: "Child"},
	}
	require.NoError(t, repo.CreateUserRecords(ctx, p, card, res, members))

	got, err := repo.ListMembers(ctx, uid)
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NotEmpty(t, got[0].MemberID)

	require.NoError(t, repo.DeleteMember(ctx, uid, got[0].MemberID))
	n, _ := repo.CountMembers(ctx, uid)
	require.Equal(t, int64(1), n)

	require.NoError(t, repo.ReplaceMembers(ctx, uid, []models.HouseholdMember{
		{FullName: "Phạm Thị D", RelationToHead: "Parent"},
	}))
	got, _ = repo.ListMembers(ctx, uid)
	require.Len(t, got, 1)
	require.Equal(t, "Phạm Thị D", got[0].FullName)

	counts, err := repo.DeleteUserRecords(ctx, uid)
	require.NoError(t, err)
	require.Equal(t, int64(1), counts.Profile)
	require.Equal(t, int64(1), counts.Card)
	require.Equal(t, int64(1), counts.Residence)
	require.Equal(t, int64(1), counts.Members)

	_, err = repo.DeleteUserRecords(ctx, uid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRepo_SoftDeletedBefore(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678901", "Nguyễn Văn A", "a@example.com")))

	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, repo.UpdateProfile(ctx, "012345678901", map[string]interface{}{"deleted": true, "deleted_at": old}))

	aged, err := repo.ListSoftDeletedBefore(ctx, time.Now().Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, aged, 1)

	aged, err = repo.ListSoftDeletedBefore(ctx, time.Now().Add(-72*time.Hour))
	require.NoError(t, err)
	require.Empty(t, aged)
}

func TestMemoryRepo_ListRecentWindow(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678901", "Nguyễn Văn A", "a@example.com")))
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678902", "Trần Thị B", "b@example.com")))

	// no window
	got, err := repo.ListRecent(ctx, 10, nil)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// window starting in the past includes both
	past := time.Now().Add(-time.Hour)
	got, err = repo.ListRecent(ctx, 10, &past)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// window starting in the future excludes both
	future := time.Now().Add(time.Hour)
	got, err = repo.ListRecent(ctx, 10, &future)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestMemoryRepo_ListByEmailDomain(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()

	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678901", "Nguyễn Văn A", "a@company.com")))
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678902", "Trần Thị B", "b@COMPANY.com")))
	require.NoError(t, repo.CreateProfile(ctx, newProfile("012345678903", "Lê Văn C", "c@other.org")))

	got, err := repo.ListByEmailDomain(ctx, "company.com", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	// soft-deleted profiles are excluded
	require.NoError(t, repo.UpdateProfile(ctx, "012345678901", map[string]interface{}{"deleted": true}))
	got, err = repo.ListByEmailDomain(ctx, "company.com", 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "012345678902", got[0].UID)

	// the match is anchored at the @ boundary
	got, err = repo.ListByEmailDomain(ctx, "ompany.com", 0)
	require.NoError(t, err)
	require.Empty(t, got)
}
