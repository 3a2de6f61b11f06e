package repository

import (
	"context"
	"errors"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Search field selectors for ListProfiles.
const (
	SearchFieldAll       = "all"
	SearchFieldName      = "name"
	SearchFieldEmail     = "email"
	SearchFieldCitizenID = "citizen_id"
)

// ListQuery selects and pages profile listings.
type ListQuery struct {
	SearchTerm     string
	SearchField    string // all|name|email|citizen_id
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	Limit          int
	Offset         int
	IncludeDeleted bool
}

// DeletedCounts reports what a cascade delete removed.
type DeletedCounts struct {
	Profile   int64 `json:"profile"`
	Card      int64 `json:"citizen_card"`
	Residence int64 `json:"residence"`
	Members   int64 `json:"household_members"`
}

// Repository is the persistence surface for citizen records. All four
// record types share the citizen's UID as key; household members carry an
// additional member_id within their owning residence.
type Repository interface {
	// profiles
	CreateProfile(ctx context.Context, p *models.UserProfile) error
	GetProfile(ctx context.Context, uid string) (*models.UserProfile, error)
	GetProfiles(ctx context.Context, uids []string) ([]*models.UserProfile, error)
	UpdateProfile(ctx context.Context, uid string, set map[string]interface{}) error
	ListProfiles(ctx context.Context, q ListQuery) ([]*models.UserProfile, int64, error)
	ListRecent(ctx context.Context, limit int, since *time.Time) ([]*models.UserProfile, error)
	ListByEmailDomain(ctx context.Context, domain string, limit int) ([]*models.UserProfile, error)
	ListSoftDeletedBefore(ctx context.Context, cutoff time.Time) ([]*models.UserProfile, error)
	CitizenIDExists(ctx context.Context, citizenID, excludeUID string) (bool, error)

	// citizen cards
	GetCard(ctx context.Context, uid string) (*models.CitizenCard, error)
	UpsertCard(ctx context.Context, c *models.CitizenCard) error
	UpdateCard(ctx context.Context, uid string, set map[string]interface{}) error

	// residence
	GetResidence(ctx context.Context, uid string) (*models.Residence, error)
	UpsertResidence(ctx context.Context, r *models.Residence) error
	UpdateResidence(ctx context.Context, uid string, set map[string]interface{}) error

	// household members
	ListMembers(ctx context.Context, uid string) ([]models.HouseholdMember, error)
	UpsertMember(ctx context.Context, m *models.HouseholdMember) error
	DeleteMember(ctx context.Context, uid, memberID string) error
	ReplaceMembers(ctx context.Context, uid string, members []models.HouseholdMember) error
	CountMembers(ctx context.Context, uid string) (int64, error)

	// cross-collection
	CreateUserRecords(ctx context.Context, p *models.UserProfile, c *models.CitizenCard, r *models.Residence, members []models.HouseholdMember) error
	DeleteUserRecords(ctx context.Context, uid string) (DeletedCounts, error)
}
