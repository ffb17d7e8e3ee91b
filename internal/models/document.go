package models

// Document types
const (
	DocumentIDCard           = "id_card"
	DocumentFarmPhoto        = "farm_photo"
	DocumentOwnershipDoc     = "ownership_doc"
	DocumentLossEvidence     = "loss_evidence"
	DocumentAssessmentReport = "assessment_report"
	DocumentReceipt          = "receipt"
	DocumentOther            = "other"
)

// Document represents an uploaded supporting file for a
// subscription or claim
type Document struct {
	BaseModel
	FarmerID       uint  `json:"farmer_id" gorm:"not null;index"`
	SubscriptionID *uint `json:"subscription_id,omitempty" gorm:"index"`
	ClaimID        *uint `json:"claim_id,omitempty" gorm:"index"`

	DocumentType string `json:"document_type" gorm:"not null;size:20"`
	FileName     string `json:"file_name" gorm:"not null"`
	FilePath     string `json:"file_path" gorm:"not null"`
	ContentType  string `json:"content_type,omitempty" gorm:"size:100"`
	SizeBytes    int64  `json:"size_bytes,omitempty"`
	Description  string `json:"description,omitempty" gorm:"size:255"`
}
