package models

import "time"

// Claim statuses
const (
	ClaimSubmitted      = "submitted"
	ClaimUnderReview    = "under_review"
	ClaimSiteInspection = "site_inspection"
	ClaimProcessing     = "processing"
	ClaimApproved       = "approved"
	ClaimRejected       = "rejected"
	ClaimPaid           = "paid"
	ClaimClosed         = "closed"
)

// Claim types
const (
	ClaimTypeCropLoss        = "crop_loss"
	ClaimTypeLivestockDeath  = "livestock_death"
	ClaimTypeWeatherDamage   = "weather_damage"
	ClaimTypeDisease         = "disease"
	ClaimTypeTheft           = "theft"
	ClaimTypeFire            = "fire"
	ClaimTypeFlood           = "flood"
	ClaimTypeEquipmentDamage = "equipment_damage"
	ClaimTypeOther           = "other"
)

// Claim represents a loss claim filed against a subscription
type Claim struct {
	BaseModel
	ClaimNumber string `json:"claim_number" gorm:"uniqueIndex;not null;size:20"`

	SubscriptionID uint         `json:"subscription_id" gorm:"not null;index"`
	Subscription   Subscription `json:"-" gorm:"foreignKey:SubscriptionID"`
	FarmerID       uint         `json:"farmer_id" gorm:"not null;index"`

	// Claim details
	ClaimType    string    `json:"claim_type" gorm:"not null;size:20"`
	IncidentDate time.Time `json:"incident_date"`
	Description  string    `json:"description" gorm:"type:text"`
	LossAmount   float64   `json:"loss_amount" gorm:"not null"`

	// Assessment
	AssessedAmount  *float64 `json:"assessed_amount,omitempty"`
	ApprovedAmount  *float64 `json:"approved_amount,omitempty"`
	AssessmentNotes string   `json:"assessment_notes,omitempty" gorm:"type:text"`

	Status          string     `json:"status" gorm:"size:20;default:'submitted';index"`
	RejectionReason string     `json:"rejection_reason,omitempty" gorm:"type:text"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
	PaidAt          *time.Time `json:"paid_at,omitempty"`
}
