package models

import "time"

// Subscription statuses
const (
	SubscriptionPending   = "pending"
	SubscriptionActive    = "active"
	SubscriptionExpired   = "expired"
	SubscriptionCancelled = "cancelled"
	SubscriptionSuspended = "suspended"
)

// Subscription ties a farmer to a policy for a coverage period
type Subscription struct {
	BaseModel
	SubscriptionNumber string `json:"subscription_number" gorm:"uniqueIndex;not null;size:20"`

	FarmerID uint   `json:"farmer_id" gorm:"not null;index"`
	Farmer   Farmer `json:"-" gorm:"foreignKey:FarmerID"`
	PolicyID uint   `json:"policy_id" gorm:"not null;index"`
	Policy   Policy `json:"policy" gorm:"foreignKey:PolicyID"`

	// Coverage details
	SumInsured    float64 `json:"sum_insured" gorm:"not null"`
	PremiumAmount float64 `json:"premium_amount" gorm:"not null"`

	// Insured asset details
	InsuredCrop      string  `json:"insured_crop,omitempty" gorm:"size:100"`
	InsuredAreaAcres float64 `json:"insured_area_acres,omitempty"`

	// Coverage window
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`

	Status string `json:"status" gorm:"size:20;default:'pending';index"`

	// Payment tracking
	IsPaid bool       `json:"is_paid" gorm:"default:false"`
	PaidAt *time.Time `json:"paid_at,omitempty"`
}

// IsCurrentlyActive reports whether coverage is in force today
func (s *Subscription) IsCurrentlyActive() bool {
	now := time.Now()
	return s.Status == SubscriptionActive && s.IsPaid &&
		!now.Before(s.StartDate) && !now.After(s.EndDate)
}
