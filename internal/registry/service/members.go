package service

import (
	"context"
	"strings"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/civicreg/citizen-admin/internal/registry/repository"
	"github.com/civicreg/citizen-admin/internal/validate"
)

// Household member operations. Members belong to a citizen's residence;
// within one household no two members may share an id_number or the same
// (name, relationship) pair.

func (s *Service) requireResidence(ctx context.Context, uid string) (*models.UserProfile, error) {
	p, err := s.repo.GetProfile(ctx, uid)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.New(apperr.NotFound, "user not found")
		}
		return nil, err
	}
	if _, err := s.repo.GetResidence(ctx, uid); err != nil {
		if err == repository.ErrNotFound {
			return nil, apperr.New(apperr.NotFound, "residence record not found for user")
		}
		return nil, err
	}
	return p, nil
}

// ListMembers returns the household members of a citizen's residence.
func (s *Service) ListMembers(ctx context.Context, uid string) ([]models.HouseholdMember, error) {
	if _, err := s.requireResidence(ctx, uid); err != nil {
		return nil, err
	}
	return s.repo.ListMembers(ctx, uid)
}

func (s *Service) checkMemberUniqueness(ctx context.Context, uid string, m *models.HouseholdMember, excludeMemberID string) error {
	existing, err := s.repo.ListMembers(ctx, uid)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.MemberID == excludeMemberID {
			continue
		}
		if m.IDNumber != "" && e.IDNumber == m.IDNumber {
			return apperr.Newf(apperr.Duplicate, "a household member with citizen ID %s already exists", m.IDNumber)
		}
		if strings.EqualFold(e.FullName, m.FullName) && strings.EqualFold(e.RelationToHead, m.RelationToHead) {
			return apperr.Newf(apperr.Duplicate, "household member %s (%s) already exists", m.FullName, m.RelationToHead)
		}
	}
	return nil
}

// AddMember adds one household member.
func (s *Service) AddMember(ctx context.Context, uid string, m *models.HouseholdMember, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.requireResidence(ctx, uid)
	if err != nil {
		return err
	}
	if errs := validate.HouseholdMember(m); len(errs) > 0 {
		return apperr.New(apperr.Validation, strings.Join(errs, "; "))
	}
	if err = s.checkMemberUniqueness(ctx, uid, m, ""); err != nil {
		return err
	}
	m.UID = uid
	m.EnsureMemberID()
	if err = s.repo.UpsertMember(ctx, m); err != nil {
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "household_members", []string{"member_added"}, actor.IP)
	return nil
}

// UpdateMember replaces one household member by member ID.
func (s *Service) UpdateMember(ctx context.Context, uid, memberID string, m *models.HouseholdMember, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.requireResidence(ctx, uid)
	if err != nil {
		return err
	}
	existing, err := s.repo.ListMembers(ctx, uid)
	if err != nil {
		return err
	}
	found := false
	for _, e := range existing {
		if e.MemberID == memberID {
			found = true
			break
		}
	}
	if !found {
		return apperr.New(apperr.NotFound, "household member not found")
	}
	if errs := validate.HouseholdMember(m); len(errs) > 0 {
		return apperr.New(apperr.Validation, strings.Join(errs, "; "))
	}
	if err = s.checkMemberUniqueness(ctx, uid, m, memberID); err != nil {
		return err
	}
	m.UID = uid
	m.MemberID = memberID
	if err = s.repo.UpsertMember(ctx, m); err != nil {
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "household_members", []string{"member_updated"}, actor.IP)
	return nil
}

// DeleteMember removes one household member by member ID.
func (s *Service) DeleteMember(ctx context.Context, uid, memberID string, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.requireResidence(ctx, uid)
	if err != nil {
		return err
	}
	if err = s.repo.DeleteMember(ctx, uid, memberID); err != nil {
		if err == repository.ErrNotFound {
			return apperr.New(apperr.NotFound, "household member not found")
		}
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "household_members", []string{"member_deleted"}, actor.IP)
	return nil
}

// SyncMembers replaces the full member set of a residence in one bulk
// write, enforcing in-set uniqueness first.
func (s *Service) SyncMembers(ctx context.Context, uid string, members []models.HouseholdMember, actor Actor) (err error) {
	defer func() { track("update", err) }()

	p, err := s.requireResidence(ctx, uid)
	if err != nil {
		return err
	}
	for i := range members {
		if errs := validate.HouseholdMember(&members[i]); len(errs) > 0 {
			return apperr.Newf(apperr.Validation, "member %d: %s", i, strings.Join(errs, "; "))
		}
	}
	if issues := validate.HouseholdMemberUniqueness(members); len(issues) > 0 {
		return apperr.New(apperr.Validation, strings.Join(issues, "; "))
	}
	if err = s.repo.ReplaceMembers(ctx, uid, members); err != nil {
		return err
	}
	s.audit.LogUpdate(ctx, actor.Email, uid, p.FullName, "household_members", []string{"members_synced"}, actor.IP)
	return nil
}
