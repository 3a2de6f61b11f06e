package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/audit"
	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/civicreg/citizen-admin/internal/registry/repository"
	"github.com/civicreg/citizen-admin/internal/validate"
	"github.com/civicreg/citizen-admin/pkg/logger"
	"github.com/civicreg/citizen-admin/pkg/metrics"
	"github.com/google/uuid"
)

// Actor identifies the admin behind a mutating call, for audit attribution.
type Actor struct {
	Email string
	IP    string
}

// UserRecord is the complete record set for one citizen.
type UserRecord struct {
	Profile   *models.UserProfile `json:"profile"`
	Card      *models.CitizenCard `json:"citizen_card,omitempty"`
	Residence *models.Residence   `json:"residence,omitempty"`
}

// CreateUserInput bundles the records written together on creation.
type CreateUserInput struct {
	Profile   models.UserProfile       `json:"profile"`
	Card      *models.CitizenCard      `json:"citizen_card,omitempty"`
	Residence *models.Residence        `json:"residence,omitempty"`
	Members   []models.HouseholdMember `json:"household_members,omitempty"`
}

// ProfileUpdate carries partial profile changes; nil fields stay untouched.
type ProfileUpdate struct {
	FullName         *string `json:"full_name,omitempty"`
	Email            *string `json:"email,omitempty"`
	PhoneNumber      *string `json:"phone_number,omitempty"`
	CitizenID        *string `json:"citizen_id,omitempty"`
	Passcode         *string `json:"passcode,omitempty"`
	IdentityLevel    *int    `json:"identity_level,omitempty"`
	DateOfBirth      *string `json:"date_of_birth,omitempty"`
	Gender           *string `json:"gender,omitempty"`
	Nationality      *string `json:"nationality,omitempty"`
	PermanentAddress *string `json:"permanent_address,omitempty"`
	CurrentAddress   *string `json:"current_address,omitempty"`
	TemporaryAddress *string `json:"temporary_address,omitempty"`
	AvatarAsset      *string `json:"avatar_asset,omitempty"`
	BadgeAsset       *string `json:"badge_asset,omitempty"`
}

// Confirmation guards cascade deletion: the caller must restate the
// citizen's name or citizen ID.
type Confirmation struct {
	Name      string `json:"name"`
	CitizenID string `json:"citizen_id"`
}

// DeletionImpact previews what a cascade delete would remove.
type DeletionImpact struct {
	Profile        map[string]string        `json:"user_profile"`
	CardExists     bool                     `json:"citizen_card_exists"`
	ResidenceExist bool                     `json:"residence_exists"`
	MemberCount    int64                    `json:"household_members_count"`
	Members        []models.HouseholdMember `json:"household_members,omitempty"`
	TotalDocuments int64                    `json:"total_documents"`
	Warnings       []string                 `json:"warning_messages,omitempty"`
}

// BatchItemResult reports one item of a batch create.
type BatchItemResult struct {
	Index int    `json:"index"`
	UID   string `json:"uid,omitempty"`
	Email string `json:"email,omitempty"`
	Error string `json:"error,omitempty"`
}

// BatchResult aggregates a batch create.
type BatchResult struct {
	Successful []BatchItemResult `json:"successful"`
	Failed     []BatchItemResult `json:"failed"`
}

// PurgeResult reports a purge of aged soft-deleted users.
type PurgeResult struct {
	DeletedCount int      `json:"deleted_count"`
	FailedCount  int      `json:"failed_count"`
	Errors       []string `json:"errors,omitempty"`
}

// Service implements the registry business operations over a Repository,
// writing audit entries for every mutation.
type Service struct {
	repo             repository.Repository
	audit            *audit.Service
	pageSize         int
	maxSearchResults int
}

func NewService(repo repository.Repository, auditSvc *audit.Service, pageSize, maxSearchResults int) *Service {
	if pageSize <= 0 {
		pageSize = 20
	}
	if maxSearchResults <= 0 {
		maxSearchResults = 100
	}
	return &Service{repo: repo, audit: auditSvc, pageSize: pageSize, maxSearchResults: maxSearchResults}
}

func track(action string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.RegistryOperations.WithLabelValues(action, outcome).Inc()
}

// ListUsers returns a page of profiles plus the total match count. The
// limit is clamped to the configured search ceiling.
func (s *Service) ListUsers(ctx context.Context, q repository.ListQuery) ([]*models.UserProfile, int64, error) {
	if q.Limit <= 0 {
		q.Limit = s.pageSize
	}
	if q.Limit > s.maxSearchResults {
		q.Limit = s.maxSearchResults
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	users, total, err := s.repo.ListProfiles(ctx, q)
	track("list", err)
	return users, total, err
}

// GetUser returns the full record set for one citizen. Card and residence
// are optional; household members are attached to the residence.
func (s *Service) GetUser(ctx context.Context, uid string) (*UserRecord, error) {
	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	rec := &UserRecord{Profile: p}
	if card, err := s.repo.GetCard(ctx, uid); err == nil {
		rec.Card = card
	} else if err != repository.ErrNotFound {
		return nil, err
	}
	if res, err := s.repo.GetResidence(ctx, uid); err == nil {
		members, merr := s.repo.ListMembers(ctx, uid)
		if merr != nil {
			return nil, merr
		}
		res.HouseholdMembers = members
		rec.Residence = res
	} else if err != repository.ErrNotFound {
		return nil, err
	}
	return rec, nil
}

// BatchGetUsers returns the profiles that exist for the given uids.
func (s *Service) BatchGetUsers(ctx context.Context, uids []string) ([]*models.UserProfile, error) {
	return s.repo.GetProfiles(ctx, uids)
}

// RecentUsers returns profiles created within the last days, newest
// first. A non-positive days disables the window.
func (s *Service) RecentUsers(ctx context.Context, limit, days int) ([]*models.UserProfile, error) {
	if limit <= 0 || limit > s.maxSearchResults {
		limit = 50
	}
	var since *time.Time
	if days > 0 {
		cutoff := time.Now().AddDate(0, 0, -days)
		since = &cutoff
	}
	return s.repo.ListRecent(ctx, limit, since)
}

// UsersByEmailDomain returns non-deleted profiles whose email belongs to
// the given domain, for organization-based filtering.
func (s *Service) UsersByEmailDomain(ctx context.Context, domain string) ([]*models.UserProfile, error) {
	domain = strings.TrimPrefix(strings.TrimSpace(domain), "@")
	if domain == "" {
		return nil, apperr.New(apperr.Validation, "email domain is required")
	}
	users, err := s.repo.ListByEmailDomain(ctx, domain, s.maxSearchResults)
	track("list_by_domain", err)
	return users, err
}

// CreateUser writes a citizen's profile plus any supplied card, residence
// and household members in one batch. The citizen ID becomes the document
// ID everywhere; empty QR payloads and passcode get defaults.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput, actor Actor) (uid string, err error) {
	defer func() { track("create", err) }()

	p := in.Profile
	if p.Passcode == "" {
		p.Passcode = models.DefaultPasscode
	}
	if errs := validate.UserProfile(&p); len(errs) > 0 {
		return "", apperr.New(apperr.Validation, strings.Join(errs, "; "))
	}
	if in.Card != nil {
		if in.Card.CitizenID == "" {
			in.Card.CitizenID = p.CitizenID
		}
		if in.Card.FullName == "" {
			in.Card.FullName = p.FullName
		}
		if errs := validate.CitizenCard(in.Card); len(errs) > 0 {
			return "", apperr.New(apperr.Validation, strings.Join(errs, "; "))
		}
		if in.Card.CitizenID != p.CitizenID {
			return "", apperr.New(apperr.Validation, "citizen card ID must match user profile")
		}
	}
	if in.Residence != nil {
		if in.Residence.IDNumber == "" {
			in.Residence.IDNumber = p.CitizenID
		}
		if in.Residence.FullName == "" {
			in.Residence.FullName = p.FullName
		}
		if errs := validate.Residence(in.Residence); len(errs) > 0 {
			return "", apperr.New(apperr.Validation, strings.Join(errs, "; "))
		}
		if in.Residence.IDNumber != p.CitizenID {
			return "", apperr.New(apperr.Validation, "residence ID number must match user profile")
		}
	}
	// members live under a residence; without one they would be written
	// but unreachable through every read path
	if len(in.Members) > 0 && in.Residence == nil {
		return "", apperr.New(apperr.Validation, "household members require a residence record")
	}
	for i := range in.Members {
		if errs := validate.HouseholdMember(&in.Members[i]); len(errs) > 0 {
			return "", apperr.Newf(apperr.Validation, "household member %d: %s", i, strings.Join(errs, "; "))
		}
	}
	if issues := validate.HouseholdMemberUniqueness(in.Members); len(issues) > 0 {
		return "", apperr.New(apperr.Validation, strings.Join(issues, "; "))
	}

	exists, err := s.repo.CitizenIDExists(ctx, p.CitizenID, "")
	if err != nil {
		return "", err
	}
	if exists {
		return "", apperr.Newf(apperr.Duplicate, "citizen ID %s already exists in the system", p.CitizenID)
	}

	p.UID = p.CitizenID
	p.ApplyQRDefaults()

	if err = s.repo.CreateUserRecords(ctx, &p, in.Card, in.Residence, in.Members); err != nil {
		return "", err
	}
	logger.Infof("created user %s (%s)", p.UID, p.Email)
	s.audit.LogCreation(ctx, actor.Email, p.UID, p.FullName, in.Card != nil, in.Residence != nil, len(in.Members), actor.IP)
	return p.UID, nil
}

// CreateUserBatch creates users one by one and reports per-item results;
// a failed item never aborts the rest.
func (s *Service) CreateUserBatch(ctx context.Context, items []CreateUserInput, actor Actor) BatchResult {
	out := BatchResult{Successful: []BatchItemResult{}, Failed: []BatchItemResult{}}
	for i, item := range items {
		uid, err := s.CreateUser(ctx, item, actor)
		if err != nil {
			out.Failed = append(out.Failed, BatchItemResult{Index: i, Email: item.Profile.Email, Error: apperr.MessageOf(err)})
			continue
		}
		out.Successful = append(out.Successful, BatchItemResult{Index: i, UID: uid, Email: item.Profile.Email})
	}
	logger.Infof("batch creation completed: %d successful, %d failed", len(out.Successful), len(out.Failed))
	return out
}

// GenerateUniqueCitizenID returns an unused citizen ID. A supplied base is
// used when free; otherwise IDs of the form YYYYMMDD + 5 random digits are
// tried, with a UUID-derived fallback after too many collisions.
func (s *Service) GenerateUniqueCitizenID(ctx context.Context, base string) (string, error) {
	if base != "" {
		exists, err := s.repo.CitizenIDExists(ctx, base, "")
		if err != nil {
			return "", err
		}
		if !exists {
			return base, nil
		}
	}
	datePart := time.Now().Format("20060102")
	for attempt := 0; attempt < 100; attempt++ {
		candidate := fmt.Sprintf("%s%05d", datePart, rand.Intn(100000))
		exists, err := s.repo.CitizenIDExists(ctx, candidate, "")
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	fallback := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:13]
	logger.Warnf("using fallback citizen ID: %s", fallback)
	return fallback, nil
}

// UpdateProfile merges partial changes into the profile, re-validates the
// result and re-synchronizes the denormalized identity fields on the card
// and residence documents when name or citizen ID changed.
func (s *Service) UpdateProfile(ctx context.Context, uid string, upd ProfileUpdate, actor Actor) (err error) {
	defer func() { track("update", err) }()

	current, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}

	merged := *current
	set := map[string]interface{}{}
	apply := func(field string, dst *string, v *string) {
		if v != nil {
			*dst = *v
			set[field] = *v
		}
	}
	apply("full_name", &merged.FullName, upd.FullName)
	apply("email", &merged.Email, upd.Email)
	apply("phone_number", &merged.PhoneNumber, upd.PhoneNumber)
	apply("citizen_id", &merged.CitizenID, upd.CitizenID)
	apply("passcode", &merged.Passcode, upd.Passcode)
	apply("date_of_birth", &merged.DateOfBirth, upd.DateOfBirth)
	apply("gender", &merged.Gender, upd.Gender)
	apply("nationality", &merged.Nationality, upd.Nationality)
	apply("permanent_address", &merged.PermanentAddress, upd.PermanentAddress)
	apply("current_address", &merged.CurrentAddress, upd.CurrentAddress)
	apply("temporary_address", &merged.TemporaryAddress, upd.TemporaryAddress)
	apply("avatar_asset", &merged.AvatarAsset, upd.AvatarAsset)
	apply("badge_asset", &merged.BadgeAsset, upd.BadgeAsset)
	if upd.IdentityLevel != nil {
		merged.IdentityLevel = *upd.IdentityLevel
		set["identity_level"] = *upd.IdentityLevel
	}
	if len(set) == 0 {
		return apperr.New(apperr.Validation, "no changes provided")
	}

	if errs := validate.UserProfile(&merged); len(errs) > 0 {
		return apperr.New(apperr.Validation, strings.Join(errs, "; "))
	}
	if merged.CitizenID != current.CitizenID {
		exists, err := s.repo.CitizenIDExists(ctx, merged.CitizenID, uid)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Newf(apperr.Duplicate, "citizen ID %s already exists", merged.CitizenID)
		}
	}

	if err = s.repo.UpdateProfile(ctx, uid, set); err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}

	if merged.CitizenID != current.CitizenID || merged.FullName != current.FullName {
		s.syncRelatedRecords(ctx, uid, merged.CitizenID, merged.FullName)
	}

	fields := make([]string, 0, len(set))
	for k := range set {
		fields = append(fields, k)
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, merged.FullName, "users", fields, actor.IP)
	return nil
}

// syncRelatedRecords pushes the profile's identity fields onto the card
// and residence documents. Missing documents are skipped; failures are
// logged but never fail the profile update.
func (s *Service) syncRelatedRecords(ctx context.Context, uid, citizenID, fullName string) {
	err := s.repo.UpdateCard(ctx, uid, map[string]interface{}{
		"citizen_id": citizenID,
		"full_name":  fullName,
	})
	if err != nil && err != repository.ErrNotFound {
		logger.Warnf("consistency sync on citizen card %s failed: %v", uid, err)
	}
	err = s.repo.UpdateResidence(ctx, uid, map[string]interface{}{
		"id_number": citizenID,
		"full_name": fullName,
	})
	if err != nil && err != repository.ErrNotFound {
		logger.Warnf("consistency sync on residence %s failed: %v", uid, err)
	}
}

// UpdateCard creates or replaces the citizen card. The card's citizen ID
// must match the profile.
func (s *Service) UpdateCard(ctx context.Context, uid string, card *models.CitizenCard, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}
	card.UID = uid
	if card.CitizenID == "" {
		card.CitizenID = p.CitizenID
	}
	if card.FullName == "" {
		card.FullName = p.FullName
	}
	if errs := validate.CitizenCard(card); len(errs) > 0 {
		return apperr.New(apperr.Validation, strings.Join(errs, "; "))
	}
	if card.CitizenID != p.CitizenID {
		return apperr.New(apperr.Validation, "citizen ID must match user profile")
	}
	if err = s.repo.UpsertCard(ctx, card); err != nil {
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "citizen_cards", []string{"citizen_card"}, actor.IP)
	return nil
}

// UpdateResidence creates or replaces the residence document. Household
// members are managed through the member operations, not here.
func (s *Service) UpdateResidence(ctx context.Context, uid string, res *models.Residence, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}
	res.UID = uid
	if res.IDNumber == "" {
		res.IDNumber = p.CitizenID
	}
	if res.FullName == "" {
		res.FullName = p.FullName
	}
	if errs := validate.Residence(res); len(errs) > 0 {
		return apperr.New(apperr.Validation, strings.Join(errs, "; "))
	}
	if res.IDNumber != p.CitizenID {
		return apperr.Newf(apperr.Validation, "citizen ID (%s) must match user profile (%s)", res.IDNumber, p.CitizenID)
	}
	res.HouseholdMembers = nil
	if err = s.repo.UpsertResidence(ctx, res); err != nil {
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "residence", []string{"residence"}, actor.IP)
	return nil
}

var qrFieldNames = map[string]bool{
	"qr_home": true, "qr_card": true, "qr_id_detail": true, "qr_residence": true,
}

// UpdateQRPayloads updates the profile's QR payload fields. Unknown keys
// are ignored; empty values fall back to the uid.
func (s *Service) UpdateQRPayloads(ctx context.Context, uid string, payloads map[string]string, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}
	set := map[string]interface{}{}
	fields := []string{}
	for field, value := range payloads {
		if !qrFieldNames[field] {
			continue
		}
		if err := validate.QRPayload(value); err != nil {
			return apperr.Newf(apperr.Validation, "%s: %v", field, err)
		}
		if strings.TrimSpace(value) == "" {
			value = uid
		}
		set[field] = value
		fields = append(fields, field)
	}
	if len(set) == 0 {
		return apperr.New(apperr.Validation, "no valid QR payload fields provided")
	}
	if err = s.repo.UpdateProfile(ctx, uid, set); err != nil {
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "users", fields, actor.IP)
	return nil
}

// DeleteUser performs a cascade hard delete. A non-nil confirmation must
// restate the citizen's name or citizen ID; nil skips the check (used by
// the purge path).
func (s *Service) DeleteUser(ctx context.Context, uid string, confirm *Confirmation, actor Actor) (counts repository.DeletedCounts, err error) {
	defer func() { track("delete", err) }()

	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return counts, apperr.New(apperr.NotFound, "user not found")
		}
		return counts, err
	}
	if confirm != nil {
		nameMatch := strings.EqualFold(strings.TrimSpace(confirm.Name), p.FullName)
		idMatch := strings.TrimSpace(confirm.CitizenID) == p.CitizenID
		if !nameMatch && !idMatch {
			return counts, apperr.New(apperr.Validation, "confirmation failed: provide the correct name or citizen ID")
		}
	}

	counts, err = s.repo.DeleteUserRecords(ctx, uid)
	if err != nil {
		return counts, err
	}
	deleted := []string{"users"}
	if counts.Card > 0 {
		deleted = append(deleted, "citizen_cards")
	}
	if counts.Residence > 0 {
		deleted = append(deleted, "residence")
	}
	if counts.Members > 0 {
		deleted = append(deleted, "household_members")
	}
	logger.Infof("deleted user %s: %+v", uid, counts)
	s.audit.LogDeletion(ctx, actor.Email, uid, p.FullName, deleted, actor.IP)
	return counts, nil
}

// GetDeletionImpact previews a cascade delete without performing it.
func (s *Service) GetDeletionImpact(ctx context.Context, uid string) (*DeletionImpact, error) {
	rec, err := s.GetUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	impact := &DeletionImpact{
		Profile: map[string]string{
			"name":       rec.Profile.FullName,
			"email":      rec.Profile.Email,
			"citizen_id": rec.Profile.CitizenID,
		},
		CardExists:     rec.Card != nil,
		ResidenceExist: rec.Residence != nil,
		TotalDocuments: 1,
	}
	if impact.CardExists {
		impact.TotalDocuments++
	}
	if rec.Residence != nil {
		impact.MemberCount = int64(len(rec.Residence.HouseholdMembers))
		impact.Members = rec.Residence.HouseholdMembers
		impact.TotalDocuments += 1 + impact.MemberCount
	}
	if impact.MemberCount > 0 {
		impact.Warnings = append(impact.Warnings, fmt.Sprintf("This will also delete %d household members", impact.MemberCount))
	}
	if impact.TotalDocuments > 3 {
		impact.Warnings = append(impact.Warnings, fmt.Sprintf("This operation will delete %d total documents", impact.TotalDocuments))
	}
	return impact, nil
}

// SoftDelete marks a profile deleted without removing any records.
func (s *Service) SoftDelete(ctx context.Context, uid string, actor Actor) (err error) {
	defer func() { track("soft_delete", err) }()

	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}
	now := time.Now().UTC()
	err = s.repo.UpdateProfile(ctx, uid, map[string]interface{}{
		"deleted":    true,
		"deleted_at": now,
		"deleted_by": actor.Email,
	})
	if err != nil {
		return err
	}
	s.audit.LogAction(ctx, models.AuditActionSoftDelete, actor.Email, uid, p.FullName, actor.IP)
	return nil
}

// Restore clears the soft-delete markers on a profile.
func (s *Service) Restore(ctx context.Context, uid string, actor Actor) (err error) {
	defer func() { track("restore", err) }()

	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "user not found")
		}
		return err
	}
	if !p.Deleted {
		return apperr.Newf(apperr.Validation, "user %s is not soft deleted", uid)
	}
	now := time.Now().UTC()
	err = s.repo.UpdateProfile(ctx, uid, map[string]interface{}{
		"deleted":     false,
		"deleted_at":  nil,
		"deleted_by":  "",
		"restored_at": now,
		"restored_by": actor.Email,
	})
	if err != nil {
		return err
	}
	s.audit.LogAction(ctx, models.AuditActionRestore, actor.Email, uid, p.FullName, actor.IP)
	return nil
}

// PurgeSoftDeleted permanently deletes users soft-deleted longer than the
// threshold. Confirmation is skipped; the soft delete already was the
// guarded step.
func (s *Service) PurgeSoftDeleted(ctx context.Context, daysThreshold int, actor Actor) (PurgeResult, error) {
	if daysThreshold <= 0 {
		daysThreshold = 30
	}
	cutoff := time.Now().UTC().AddDate(0, 0, -daysThreshold)
	aged, err := s.repo.ListSoftDeletedBefore(ctx, cutoff)
	if err != nil {
		return PurgeResult{}, err
	}
	result := PurgeResult{}
	for _, p := range aged {
		if _, err := s.DeleteUser(ctx, p.UID, nil, actor); err != nil {
			result.FailedCount++
			result.Errors = append(result.Errors, fmt.Sprintf("user %s: %s", p.UID, apperr.MessageOf(err)))
			continue
		}
		result.DeletedCount++
	}
	logger.Infof("purge removed %d users soft deleted before %s", result.DeletedCount, cutoff.Format(time.RFC3339))
	return result, nil
}
