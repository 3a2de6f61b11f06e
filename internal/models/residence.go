package models

import (
	"time"

	"github.com/google/uuid"
)

// Residence holds address and household-head linkage for a citizen, stored
// in the residence collection under the same UID as the profile. Household
// members live in their own collection keyed by (uid, member_id).
type Residence struct {
	UID       string `bson:"_id" json:"uid"`
	FullName  string `bson:"full_name" json:"full_name"`
	IDNumber  string `bson:"id_number" json:"id_number"`
	BirthDate string `bson:"birth_date" json:"birth_date"`
	Gender    string `bson:"gender" json:"gender"`

	PermanentAddress string `bson:"permanent_address" json:"permanent_address"`
	CurrentAddress   string `bson:"current_address" json:"current_address"`
	TemporaryAddress string `bson:"temporary_address,omitempty" json:"temporary_address,omitempty"`
	TemporaryStart   string `bson:"temporary_start,omitempty" json:"temporary_start,omitempty"`
	TemporaryEnd     string `bson:"temporary_end,omitempty" json:"temporary_end,omitempty"`

	Ethnicity     string `bson:"ethnicity,omitempty" json:"ethnicity,omitempty"`
	Religion      string `bson:"religion,omitempty" json:"religion,omitempty"`
	Nationality   string `bson:"nationality,omitempty" json:"nationality,omitempty"`
	Hometown      string `bson:"hometown,omitempty" json:"hometown,omitempty"`
	CitizenStatus string `bson:"citizen_status,omitempty" json:"citizen_status,omitempty"`

	HouseholdHeadName string `bson:"household_head_name" json:"household_head_name"`
	HouseholdHeadID   string `bson:"household_head_id" json:"household_head_id"`
	RelationToHead    string `bson:"relation_to_head" json:"relation_to_head"`

	QRPayload string    `bson:"qr_payload,omitempty" json:"qr_payload,omitempty"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`

	// Populated on read; members are persisted separately.
	HouseholdMembers []HouseholdMember `bson:"-" json:"household_members,omitempty"`
}

// HouseholdMember is one member of a residence's household.
type HouseholdMember struct {
	MemberID       string `bson:"member_id" json:"member_id"`
	UID            string `bson:"uid" json:"uid"` // owning residence UID
	FullName       string `bson:"full_name" json:"full_name"`
	IDNumber       string `bson:"id_number,omitempty" json:"id_number,omitempty"`
	BirthDate      string `bson:"birth_date,omitempty" json:"birth_date,omitempty"`
	Gender         string `bson:"gender,omitempty" json:"gender,omitempty"`
	RelationToHead string `bson:"relation_to_head" json:"relation_to_head"`
	CitizenStatus  string `bson:"citizen_status,omitempty" json:"citizen_status,omitempty"`
}

// EnsureMemberID assigns a fresh member ID when none is set.
func (m *HouseholdMember) EnsureMemberID() {
	if m.MemberID == "" {
		m.MemberID = uuid.NewString()
	}
}
