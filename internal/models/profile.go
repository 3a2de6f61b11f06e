package models

import "time"

// DefaultPasscode is assigned when a profile is created without one.
const DefaultPasscode = "789789"

// UserProfile is the primary citizen record, stored in the users collection.
// The document ID (UID) is the citizen ID itself; citizen_id and full_name
// are denormalized into the card and residence documents and must be kept
// in sync on update.
type UserProfile struct {
	UID         string `bson:"_id" json:"uid"`
	FullName    string `bson:"full_name" json:"full_name"`
	Email       string `bson:"email" json:"email"`
	PhoneNumber string `bson:"phone_number" json:"phone_number"`
	CitizenID   string `bson:"citizen_id" json:"citizen_id"`
	Passcode    string `bson:"passcode" json:"passcode"`

	IdentityLevel int    `bson:"identity_level" json:"identity_level"`
	DateOfBirth   string `bson:"date_of_birth" json:"date_of_birth"` // DD/MM/YYYY
	Gender        string `bson:"gender" json:"gender"`
	Nationality   string `bson:"nationality" json:"nationality"`

	PermanentAddress string `bson:"permanent_address" json:"permanent_address"`
	CurrentAddress   string `bson:"current_address" json:"current_address"`
	TemporaryAddress string `bson:"temporary_address,omitempty" json:"temporary_address,omitempty"`

	AvatarAsset string `bson:"avatar_asset,omitempty" json:"avatar_asset,omitempty"`
	BadgeAsset  string `bson:"badge_asset,omitempty" json:"badge_asset,omitempty"`

	// QR payloads default to the UID when left empty at creation.
	QRHome      string `bson:"qr_home" json:"qr_home"`
	QRCard      string `bson:"qr_card" json:"qr_card"`
	QRIDDetail  string `bson:"qr_id_detail" json:"qr_id_detail"`
	QRResidence string `bson:"qr_residence" json:"qr_residence"`

	// Soft-delete markers. A soft-deleted profile stays in the collection
	// until restored or purged.
	Deleted    bool       `bson:"deleted,omitempty" json:"deleted,omitempty"`
	DeletedAt  *time.Time `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	DeletedBy  string     `bson:"deleted_by,omitempty" json:"deleted_by,omitempty"`
	RestoredAt *time.Time `bson:"restored_at,omitempty" json:"restored_at,omitempty"`
	RestoredBy string     `bson:"restored_by,omitempty" json:"restored_by,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// QRFields returns the QR payload fields keyed by their document field name.
func (p *UserProfile) QRFields() map[string]string {
	return map[string]string{
		"qr_home":      p.QRHome,
		"qr_card":      p.QRCard,
		"qr_id_detail": p.QRIDDetail,
		"qr_residence": p.QRResidence,
	}
}

// ApplyQRDefaults fills empty QR payloads with the profile UID.
func (p *UserProfile) ApplyQRDefaults() {
	if p.QRHome == "" {
		p.QRHome = p.UID
	}
	if p.QRCard == "" {
		p.QRCard = p.UID
	}
	if p.QRIDDetail == "" {
		p.QRIDDetail = p.UID
	}
	if p.QRResidence == "" {
		p.QRResidence = p.UID
	}
}
