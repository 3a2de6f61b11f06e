package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/models"
)

// MemoryRepo is an in-memory Repository used by tests and local runs
// without a database.
type MemoryRepo struct {
	mu        sync.RWMutex
	profiles  map[string]*models.UserProfile
	cards     map[string]*models.CitizenCard
	residence map[string]*models.Residence
	members   map[string][]models.HouseholdMember // keyed by uid
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		profiles:  map[string]*models.UserProfile{},
		cards:     map[string]*models.CitizenCard{},
		residence: map[string]*models.Residence{},
		members:   map[string][]models.HouseholdMember{},
	}
}

func (m *MemoryRepo) CreateProfile(ctx context.Context, p *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UID]; ok {
		return apperr.New(apperr.Duplicate, "a record with this ID already exists")
	}
	for _, existing := range m.profiles {
		if existing.CitizenID == p.CitizenID {
			return apperr.New(apperr.Duplicate, "a record with this ID already exists")
		}
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.profiles[p.UID] = &cp
	return nil
}

func (m *MemoryRepo) GetProfile(ctx context.Context, uid string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.profiles[uid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryRepo) GetProfiles(ctx context.Context, uids []string) ([]*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.UserProfile{}
	for _, uid := range uids {
		if p, ok := m.profiles[uid]; ok {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepo) UpdateProfile(ctx context.Context, uid string, set map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[uid]
	if !ok {
		return ErrNotFound
	}
	applyProfileSet(p, set)
	p.UpdatedAt = time.Now()
	return nil
}

func applyProfileSet(p *models.UserProfile, set map[string]interface{}) {
	for k, v := range set {
		switch k {
		case "full_name":
			p.FullName, _ = v.(string)
		case "email":
			p.Email, _ = v.(string)
		case "phone_number":
			p.PhoneNumber, _ = v.(string)
		case "citizen_id":
			p.CitizenID, _ = v.(string)
		case "passcode":
			p.Passcode, _ = v.(string)
		case "identity_level":
			if n, ok := v.(int); ok {
				p.IdentityLevel = n
			}
		case "date_of_birth":
			p.DateOfBirth, _ = v.(string)
		case "gender":
			p.Gender, _ = v.(string)
		case "nationality":
			p.Nationality, _ = v.(string)
		case "permanent_address":
			p.PermanentAddress, _ = v.(string)
		case "current_address":
			p.CurrentAddress, _ = v.(string)
		case "temporary_address":
			p.TemporaryAddress, _ = v.(string)
		case "avatar_asset":
			p.AvatarAsset, _ = v.(string)
		case "badge_asset":
			p.BadgeAsset, _ = v.(string)
		case "qr_home":
			p.QRHome, _ = v.(string)
		case "qr_card":
			p.QRCard, _ = v.(string)
		case "qr_id_detail":
			p.QRIDDetail, _ = v.(string)
		case "qr_residence":
			p.QRResidence, _ = v.(string)
		case "deleted":
			p.Deleted, _ = v.(bool)
		case "deleted_at":
			if t, ok := v.(time.Time); ok {
				p.DeletedAt = &t
			} else {
				p.DeletedAt = nil
			}
		case "deleted_by":
			p.DeletedBy, _ = v.(string)
		case "restored_at":
			if t, ok := v.(time.Time); ok {
				p.RestoredAt = &t
			}
		case "restored_by":
			p.RestoredBy, _ = v.(string)
		}
	}
}

func matchesQuery(p *models.UserProfile, q ListQuery) bool {
	if !q.IncludeDeleted && p.Deleted {
		return false
	}
	if q.CreatedFrom != nil && p.CreatedAt.Before(*q.CreatedFrom) {
		return false
	}
	if q.CreatedTo != nil && p.CreatedAt.After(*q.CreatedTo) {
		return false
	}
	if q.SearchTerm == "" {
		return true
	}
	term := strings.ToLower(q.SearchTerm)
	name := strings.Contains(strings.ToLower(p.FullName), term)
	email := strings.Contains(strings.ToLower(p.Email), term)
	cid := strings.Contains(p.CitizenID, q.SearchTerm)
	switch q.SearchField {
	case SearchFieldName:
		return name
	case SearchFieldEmail:
		return email
	case SearchFieldCitizenID:
		return cid
	}
	return name || email || cid
}

func (m *MemoryRepo) ListProfiles(ctx context.Context, q ListQuery) ([]*models.UserProfile, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := []*models.UserProfile{}
	for _, p := range m.profiles {
		if matchesQuery(p, q) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].UID < matched[j].UID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if q.Offset > 0 {
		if q.Offset >= len(matched) {
			return []*models.UserProfile{}, total, nil
		}
		matched = matched[q.Offset:]
	}
	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched, total, nil
}

func (m *MemoryRepo) ListRecent(ctx context.Context, limit int, since *time.Time) ([]*models.UserProfile, error) {
	out, _, err := m.ListProfiles(ctx, ListQuery{Limit: limit, CreatedFrom: since})
	return out, err
}

func (m *MemoryRepo) ListByEmailDomain(ctx context.Context, domain string, limit int) ([]*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	suffix := "@" + strings.ToLower(domain)
	matched := []*models.UserProfile{}
	for _, p := range m.profiles {
		if p.Deleted {
			continue
		}
		if strings.HasSuffix(strings.ToLower(p.Email), suffix) {
			cp := *p
			matched = append(matched, &cp)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].UID < matched[j].UID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (m *MemoryRepo) ListSoftDeletedBefore(ctx context.Context, cutoff time.Time) ([]*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []*models.UserProfile{}
	for _, p := range m.profiles {
		if p.Deleted && p.DeletedAt != nil && !p.DeletedAt.After(cutoff) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MemoryRepo) CitizenIDExists(ctx context.Context, citizenID, excludeUID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for uid, p := range m.profiles {
		if uid == excludeUID {
			continue
		}
		if p.CitizenID == citizenID {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemoryRepo) GetCard(ctx context.Context, uid string) (*models.CitizenCard, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cards[uid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryRepo) UpsertCard(ctx context.Context, c *models.CitizenCard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.UpdatedAt = time.Now()
	cp := *c
	m.cards[c.UID] = &cp
	return nil
}

func (m *MemoryRepo) UpdateCard(ctx context.Context, uid string, set map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cards[uid]
	if !ok {
		return ErrNotFound
	}
	for k, v := range set {
		s, _ := v.(string)
		switch k {
		case "citizen_id":
			c.CitizenID = s
		case "full_name":
			c.FullName = s
		case "date_of_birth":
			c.DateOfBirth = s
		case "gender":
			c.Gender = s
		case "nationality":
			c.Nationality = s
		case "birthplace":
			c.Birthplace = s
		case "birth_registration_place":
			c.BirthRegistrationPlace = s
		case "hometown":
			c.Hometown = s
		case "permanent_address":
			c.PermanentAddress = s
		case "permanent_address_2":
			c.PermanentAddress2 = s
		case "temporary_address":
			c.TemporaryAddress = s
		case "current_address":
			c.CurrentAddress = s
		case "ethnicity":
			c.Ethnicity = s
		case "religion":
			c.Religion = s
		case "identifying_marks":
			c.IdentifyingMarks = s
		case "blood_type":
			c.BloodType = s
		case "profession":
			c.Profession = s
		case "other_info":
			c.OtherInfo = s
		case "issue_date":
			c.IssueDate = s
		case "issue_place":
			c.IssuePlace = s
		case "qr_code_data":
			c.QRCodeData = s
		}
	}
	c.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) GetResidence(ctx context.Context, uid string) (*models.Residence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.residence[uid]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryRepo) UpsertResidence(ctx context.Context, r *models.Residence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.UpdatedAt = time.Now()
	cp := *r
	cp.HouseholdMembers = nil
	m.residence[r.UID] = &cp
	return nil
}

func (m *MemoryRepo) UpdateResidence(ctx context.Context, uid string, set map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.residence[uid]
	if !ok {
		return ErrNotFound
	}
	for k, v := range set {
		s, _ := v.(string)
		switch k {
		case "full_name":
			r.FullName = s
		case "id_number":
			r.IDNumber = s
		case "birth_date":
			r.BirthDate = s
		case "gender":
			r.Gender = s
		case "permanent_address":
			r.PermanentAddress = s
		case "current_address":
			r.CurrentAddress = s
		case "temporary_address":
			r.TemporaryAddress = s
		case "temporary_start":
			r.TemporaryStart = s
		case "temporary_end":
			r.TemporaryEnd = s
		case "ethnicity":
			r.Ethnicity = s
		case "religion":
			r.Religion = s
		case "nationality":
			r.Nationality = s
		case "hometown":
			r.Hometown = s
		case "citizen_status":
			r.CitizenStatus = s
		case "household_head_name":
			r.HouseholdHeadName = s
		case "household_head_id":
			r.HouseholdHeadID = s
		case "relation_to_head":
			r.RelationToHead = s
		case "qr_payload":
			r.QRPayload = s
		}
	}
	r.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepo) ListMembers(ctx context.Context, uid string) ([]models.HouseholdMember, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := append([]models.HouseholdMember{}, m.members[uid]...)
	sort.Slice(out, func(i, j int) bool { return out[i].MemberID < out[j].MemberID })
	return out, nil
}

func (m *MemoryRepo) UpsertMember(ctx context.Context, member *models.HouseholdMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	member.EnsureMemberID()
	list := m.members[member.UID]
	for i := range list {
		if list[i].MemberID == member.MemberID {
			list[i] = *member
			return nil
		}
	}
	m.members[member.UID] = append(list, *member)
	return nil
}

func (m *MemoryRepo) DeleteMember(ctx context.Context, uid, memberID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.members[uid]
	for i := range list {
		if list[i].MemberID == memberID {
			m.members[uid] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryRepo) ReplaceMembers(ctx context.Context, uid string, members []models.HouseholdMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.HouseholdMember, 0, len(members))
	for i := range members {
		members[i].UID = uid
		members[i].EnsureMemberID()
		out = append(out, members[i])
	}
	m.members[uid] = out
	return nil
}

func (m *MemoryRepo) CountMembers(ctx context.Context, uid string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.members[uid])), nil
}

func (m *MemoryRepo) CreateUserRecords(ctx context.Context, p *models.UserProfile, c *models.CitizenCard, r *models.Residence, members []models.HouseholdMember) error {
	if err := m.CreateProfile(ctx, p); err != nil {
		return err
	}
	if c != nil {
		c.UID = p.UID
		if err := m.UpsertCard(ctx, c); err != nil {
			return err
		}
	}
	if r != nil {
		r.UID = p.UID
		if err := m.UpsertResidence(ctx, r); err != nil {
			return err
		}
	}
	if len(members) > 0 {
		if err := m.ReplaceMembers(ctx, p.UID, members); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryRepo) DeleteUserRecords(ctx context.Context, uid string) (DeletedCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var counts DeletedCounts
	if _, ok := m.profiles[uid]; ok {
		delete(m.profiles, uid)
		counts.Profile = 1
	}
	if _, ok := m.cards[uid]; ok {
		delete(m.cards, uid)
		counts.Card = 1
	}
	if _, ok := m.residence[uid]; ok {
		delete(m.residence, uid)
		counts.Residence = 1
	}
	counts.Members = int64(len(m.members[uid]))
	delete(m.members, uid)
	if counts.Profile == 0 {
		return counts, ErrNotFound
	}
	return counts, nil
}
