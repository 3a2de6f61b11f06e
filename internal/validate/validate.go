package validate

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
)

// Field validators for citizen registry records. Each predicate returns a
// nil error when the value is acceptable; record-level validators collect
// every failure into a list so the caller can report them all at once.

var (
	citizenIDRe = regexp.MustCompile(`^\d{12}$`)
	passcodeRe  = regexp.MustCompile(`^\d{4,6}$`)
	// letters (including Vietnamese diacritics), spaces, dots, hyphens, apostrophes
	nameRe  = regexp.MustCompile(`^[a-zA-ZÀ-ỹ\s.\-']+$`)
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// DateLayout is the display/storage layout for date-of-birth strings.
const DateLayout = "02/01/2006"

// MaxQRPayloadLen caps QR payload text at a length that still scans reliably.
const MaxQRPayloadLen = 500

var validGenders = []string{"Male", "Female", "Other", "Nam", "Nữ", "Khác"}

var validRelationships = []string{
	"Head", "Spouse", "Child", "Parent", "Sibling", "Grandparent",
	"Grandchild", "Other", "Chủ hộ", "Vợ/Chồng", "Con", "Cha/Mẹ",
	"Anh/Chị/Em", "Ông/Bà", "Cháu", "Khác",
}

func Required(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

func CitizenID(id string) error {
	clean := strings.TrimSpace(id)
	if clean == "" {
		return fmt.Errorf("citizen ID is required")
	}
	if !citizenIDRe.MatchString(clean) {
		return fmt.Errorf("citizen ID must be exactly 12 digits")
	}
	return nil
}

func Passcode(passcode string) error {
	clean := strings.TrimSpace(passcode)
	if clean == "" {
		return fmt.Errorf("passcode is required")
	}
	if !passcodeRe.MatchString(clean) {
		return fmt.Errorf("passcode must be 4-6 digits")
	}
	return nil
}

func PersonName(name string) error {
	clean := strings.TrimSpace(name)
	if clean == "" {
		return fmt.Errorf("name is required")
	}
	if len([]rune(clean)) < 2 {
		return fmt.Errorf("name must be at least 2 characters")
	}
	if !nameRe.MatchString(clean) {
		return fmt.Errorf("name contains invalid characters")
	}
	return nil
}

func Email(email string) error {
	clean := strings.TrimSpace(email)
	if clean == "" {
		return fmt.Errorf("email is required")
	}
	if !emailRe.MatchString(clean) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

func Phone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return fmt.Errorf("phone number is required")
	}
	return nil
}

func Address(address string) error {
	clean := strings.TrimSpace(address)
	if clean == "" {
		return fmt.Errorf("address is required")
	}
	if len([]rune(clean)) < 5 {
		return fmt.Errorf("address must be at least 5 characters")
	}
	return nil
}

// Gender accepts the empty string (optional field).
func Gender(gender string) error {
	if gender == "" {
		return nil
	}
	for _, g := range validGenders {
		if gender == g {
			return nil
		}
	}
	return fmt.Errorf("gender must be one of: %s", strings.Join(validGenders, ", "))
}

func Relationship(relationship string) error {
	if strings.TrimSpace(relationship) == "" {
		return fmt.Errorf("relationship is required")
	}
	for _, r := range validRelationships {
		if relationship == r {
			return nil
		}
	}
	return fmt.Errorf("relationship must be one of: %s", strings.Join(validRelationships, ", "))
}

// QRPayload accepts the empty string: an empty payload falls back to the UID.
func QRPayload(payload string) error {
	clean := strings.TrimSpace(payload)
	if clean == "" {
		return nil
	}
	if len([]rune(clean)) > MaxQRPayloadLen {
		return fmt.Errorf("QR payload is too long (max %d characters)", MaxQRPayloadLen)
	}
	return nil
}

// DateOfBirth checks a DD/MM/YYYY string: parseable, not in the future and
// no more than 150 years back.
func DateOfBirth(dob string) error {
	clean := strings.TrimSpace(dob)
	if clean == "" {
		return fmt.Errorf("date of birth is required")
	}
	t, err := time.Parse(DateLayout, clean)
	if err != nil {
		return fmt.Errorf("date of birth must be in DD/MM/YYYY format")
	}
	now := time.Now()
	if t.After(now) {
		return fmt.Errorf("date of birth cannot be in the future")
	}
	if now.Sub(t).Hours() > 150*365.25*24 {
		return fmt.Errorf("date of birth is too far in the past")
	}
	return nil
}

// UserProfile validates a complete profile record and returns every failure.
func UserProfile(p *models.UserProfile) []string {
	var errs []string
	append1 := func(err error) {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	append1(PersonName(p.FullName))
	append1(Email(p.Email))
	append1(Phone(p.PhoneNumber))
	append1(CitizenID(p.CitizenID))
	append1(Passcode(p.Passcode))
	if p.DateOfBirth != "" {
		append1(DateOfBirth(p.DateOfBirth))
	}
	append1(Gender(p.Gender))
	for field, payload := range p.QRFields() {
		if payload == "" {
			continue
		}
		if err := QRPayload(payload); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", field, err))
		}
	}
	return errs
}

// CitizenCard validates an ID-card record.
func CitizenCard(c *models.CitizenCard) []string {
	var errs []string
	prefixed := func(prefix string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
		}
	}

	prefixed("full name", PersonName(c.FullName))
	prefixed("citizen ID", CitizenID(c.CitizenID))
	prefixed("date of birth", DateOfBirth(c.DateOfBirth))
	if err := Required(c.Birthplace, "birthplace"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := Required(c.BirthRegistrationPlace, "birth registration place"); err != nil {
		errs = append(errs, err.Error())
	}
	if err := Required(c.Hometown, "hometown"); err != nil {
		errs = append(errs, err.Error())
	}
	prefixed("permanent address", Address(c.PermanentAddress))
	prefixed("QR payload", QRPayload(c.QRCodeData))
	return errs
}

// Residence validates a residence record.
func Residence(r *models.Residence) []string {
	var errs []string
	prefixed := func(prefix string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
		}
	}

	prefixed("full name", PersonName(r.FullName))
	prefixed("ID number", CitizenID(r.IDNumber))
	prefixed("permanent address", Address(r.PermanentAddress))
	prefixed("current address", Address(r.CurrentAddress))
	if r.RelationToHead != "" {
		prefixed("relation to head", Relationship(r.RelationToHead))
	}
	prefixed("QR payload", QRPayload(r.QRPayload))
	return errs
}

// HouseholdMember validates one household member entry.
func HouseholdMember(m *models.HouseholdMember) []string {
	var errs []string
	prefixed := func(prefix string, err error) {
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", prefix, err))
		}
	}

	prefixed("name", PersonName(m.FullName))
	prefixed("relationship", Relationship(m.RelationToHead))
	if m.IDNumber != "" {
		prefixed("citizen ID", CitizenID(m.IDNumber))
	}
	if m.BirthDate != "" {
		prefixed("date of birth", DateOfBirth(m.BirthDate))
	}
	return errs
}

// RecordConsistency reports mismatches between the denormalized identity
// fields of a citizen's card/residence documents and the profile. Every
// mismatch is returned so the caller can surface or repair them together.
func RecordConsistency(p *models.UserProfile, c *models.CitizenCard, r *models.Residence) []string {
	var issues []string
	if p == nil {
		return issues
	}
	if c != nil {
		if c.CitizenID != p.CitizenID {
			issues = append(issues, fmt.Sprintf("card citizen_id %q does not match profile %q", c.CitizenID, p.CitizenID))
		}
		if c.FullName != p.FullName {
			issues = append(issues, fmt.Sprintf("card full_name %q does not match profile %q", c.FullName, p.FullName))
		}
	}
	if r != nil {
		if r.IDNumber != p.CitizenID {
			issues = append(issues, fmt.Sprintf("residence id_number %q does not match profile citizen_id %q", r.IDNumber, p.CitizenID))
		}
		if r.FullName != p.FullName {
			issues = append(issues, fmt.Sprintf("residence full_name %q does not match profile %q", r.FullName, p.FullName))
		}
	}
	return issues
}

// HouseholdMemberUniqueness checks that no two members share an id_number
// and no two members share the same (name, relationship) pair.
func HouseholdMemberUniqueness(members []models.HouseholdMember) []string {
	var issues []string
	seenID := map[string]bool{}
	seenPair := map[string]bool{}
	for _, m := range members {
		if m.IDNumber != "" {
			if seenID[m.IDNumber] {
				issues = append(issues, fmt.Sprintf("duplicate household member citizen ID %s", m.IDNumber))
			}
			seenID[m.IDNumber] = true
		}
		pair := strings.ToLower(strings.TrimSpace(m.FullName)) + "|" + strings.ToLower(strings.TrimSpace(m.RelationToHead))
		if seenPair[pair] {
			issues = append(issues, fmt.Sprintf("duplicate household member %s (%s)", m.FullName, m.RelationToHead))
		}
		seenPair[pair] = true
	}
	return issues
}
