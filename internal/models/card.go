package models

import "time"

// CitizenCard holds the ID-card data for a citizen, stored in the
// citizen_cards collection under the same UID as the profile.
type CitizenCard struct {
	UID         string `bson:"_id" json:"uid"`
	CitizenID   string `bson:"citizen_id" json:"citizen_id"`
	FullName    string `bson:"full_name" json:"full_name"`
	DateOfBirth string `bson:"date_of_birth" json:"date_of_birth"` // DD/MM/YYYY
	Gender      string `bson:"gender" json:"gender"`
	Nationality string `bson:"nationality" json:"nationality"`

	Birthplace             string `bson:"birthplace" json:"birthplace"`
	BirthRegistrationPlace string `bson:"birth_registration_place" json:"birth_registration_place"`
	Hometown               string `bson:"hometown" json:"hometown"`
	PermanentAddress       string `bson:"permanent_address" json:"permanent_address"`
	PermanentAddress2      string `bson:"permanent_address_2,omitempty" json:"permanent_address_2,omitempty"`
	TemporaryAddress       string `bson:"temporary_address,omitempty" json:"temporary_address,omitempty"`
	CurrentAddress         string `bson:"current_address,omitempty" json:"current_address,omitempty"`

	Ethnicity        string `bson:"ethnicity,omitempty" json:"ethnicity,omitempty"`
	Religion         string `bson:"religion,omitempty" json:"religion,omitempty"`
	IdentifyingMarks string `bson:"identifying_marks,omitempty" json:"identifying_marks,omitempty"`
	BloodType        string `bson:"blood_type,omitempty" json:"blood_type,omitempty"`
	Profession       string `bson:"profession,omitempty" json:"profession,omitempty"`
	OtherInfo        string `bson:"other_info,omitempty" json:"other_info,omitempty"`

	IssueDate  string `bson:"issue_date" json:"issue_date"` // DD/MM/YYYY
	IssuePlace string `bson:"issue_place" json:"issue_place"`

	QRCodeData string    `bson:"qr_code_data,omitempty" json:"qr_code_data,omitempty"`
	UpdatedAt  time.Time `bson:"updated_at" json:"updated_at"`
}
