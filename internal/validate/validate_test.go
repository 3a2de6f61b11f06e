package validate

import (
	"testing"
	"time"

	"github.com/civicreg/citizen-admin/internal/models"
	"github.com/stretchr/testify/require"
)

func TestCitizenID(t *testing.T) {
	require.NoError(t, CitizenID("012345678901"))
	require.NoError(t, CitizenID(" 012345678901 "))
	require.Error(t, CitizenID(""))
	require.Error(t, CitizenID("12345"))
	require.Error(t, CitizenID("0123456789012"))
	require.Error(t, CitizenID("01234567890a"))
}

func TestPasscode(t *testing.T) {
	require.NoError(t, Passcode("789789"))
	require.NoError(t, Passcode("1234"))
	require.Error(t, Passcode(""))
	require.Error(t, Passcode("123"))
	require.Error(t, Passcode("1234567"))
	require.Error(t, Passcode("12ab"))
}

func TestPersonName(t *testing.T) {
	require.NoError(t, PersonName("Nguyễn Văn A"))
	require.NoError(t, PersonName("O'Brien-Smith Jr."))
	require.Error(t, PersonName(""))
	require.Error(t, PersonName("A"))
	require.Error(t, PersonName("Name123"))
}

func TestDateOfBirth(t *testing.T) {
	require.NoError(t, DateOfBirth("15/08/1990"))
	require.Error(t, DateOfBirth(""))
	require.Error(t, DateOfBirth("1990-08-15"))
	require.Error(t, DateOfBirth("32/01/1990"))

	future := time.Now().AddDate(1, 0, 0).Format(DateLayout)
	require.Error(t, DateOfBirth(future))
	require.Error(t, DateOfBirth("01/01/1800"))
}

func TestGenderAndRelationship(t *testing.T) {
	require.NoError(t, Gender(""))
	require.NoError(t, Gender("Male"))
	require.NoError(t, Gender("Nữ"))
	require.Error(t, Gender("unknown"))

	require.NoError(t, Relationship("Spouse"))
	require.NoError(t, Relationship("Chủ hộ"))
	require.Error(t, Relationship(""))
	require.Error(t, Relationship("Friend"))
}

func TestQRPayload(t *testing.T) {
	require.NoError(t, QRPayload(""))
	require.NoError(t, QRPayload("012345678901"))
	long := make([]byte, MaxQRPayloadLen+1)
	for i := range long {
		long[i] = 'x'
	}
	require.Error(t, QRPayload(string(long)))
}

func TestUserProfileCollectsAllErrors(t *testing.T) {
	p := &models.UserProfile{
		FullName:    "",
		Email:       "not-an-email",
		PhoneNumber: "",
		CitizenID:   "123",
		Passcode:    "1",
	}
	errs := UserProfile(p)
	require.GreaterOrEqual(t, len(errs), 5)

	ok := &models.UserProfile{
		UID:         "012345678901",
		FullName:    "Nguyễn Văn A",
		Email:       "a@example.com",
		PhoneNumber: "0912345678",
		CitizenID:   "012345678901",
		Passcode:    "789789",
		DateOfBirth: "15/08/1990",
		Gender:      "Nam",
	}
	require.Empty(t, UserProfile(ok))
}

func TestRecordConsistency(t *testing.T) {
	p := &models.UserProfile{UID: "012345678901", CitizenID: "012345678901", FullName: "Nguyễn Văn A"}
	c := &models.CitizenCard{UID: p.UID, CitizenID: p.CitizenID, FullName: p.FullName}
	r := &models.Residence{UID: p.UID, IDNumber: p.CitizenID, FullName: p.FullName}
	require.Empty(t, RecordConsistency(p, c, r))

	c.FullName = "Someone Else"
	r.IDNumber = "999999999999"
	issues := RecordConsistency(p, c, r)
	require.Len(t, issues, 2)
}

func TestHouseholdMemberUniqueness(t *testing.T) {
	members := []models.HouseholdMember{
		{FullName: "Nguyễn Văn B", RelationToHead: "Child", IDNumber: "012345678902"},
		{FullName: "Nguyễn Văn C", RelationToHead: "Child", IDNumber: "012345678903"},
	}
	require.Empty(t, HouseholdMemberUniqueness(members))

	members = append(members, models.HouseholdMember{FullName: "nguyễn văn b", RelationToHead: "Child", IDNumber: "012345678902"})
	issues := HouseholdMemberUniqueness(members)
	require.Len(t, issues, 2)
}
