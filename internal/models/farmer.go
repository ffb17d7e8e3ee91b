package models

import "time"

// Farmer represents a registered farmer account.
// The phone number is the primary login identifier.
type Farmer struct {
	BaseModel
	PhoneNumber  string `json:"phone_number" gorm:"uniqueIndex;not null;size:15"`
	PasswordHash string `json:"-" gorm:"not null"`
	FirstName    string `json:"first_name" gorm:"not null"`
	LastName     string `json:"last_name" gorm:"not null"`
	Email        string `json:"email,omitempty"`
	NationalID   string `json:"national_id,omitempty" gorm:"size:20"`

	// Location details
	County    string `json:"county,omitempty" gorm:"size:50"`
	SubCounty string `json:"sub_county,omitempty" gorm:"size:50"`
	Village   string `json:"village,omitempty" gorm:"size:100"`

	// Farm information
	FarmSizeAcres float64 `json:"farm_size_acres,omitempty"`
	FarmingType   string  `json:"farming_type,omitempty" gorm:"size:20"` // subsistence, commercial, mixed
	PrimaryCrops  string  `json:"primary_crops,omitempty" gorm:"type:text"`

	// Payment preferences
	PreferredPaymentMethod string `json:"preferred_payment_method" gorm:"size:20;default:'mpesa'"`
	MpesaNumber            string `json:"mpesa_number,omitempty" gorm:"size:15"`

	// System fields
	IsVerified          bool       `json:"is_verified" gorm:"default:false"`
	RegistrationChannel string     `json:"registration_channel" gorm:"size:10;default:'app'"`
	LastLoginAt         *time.Time `json:"last_login_at,omitempty"`
}

// FullName returns the farmer's display name
func (f *Farmer) FullName() string {
	return f.FirstName + " " + f.LastName
}
