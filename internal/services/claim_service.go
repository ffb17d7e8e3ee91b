package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kc-allan/at-insurance/internal/database"
	"github.com/kc-allan/at-insurance/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// claimTransitions lists the allowed status moves for a claim
var claimTransitions = map[string][]string{
	models.ClaimSubmitted:      {models.ClaimUnderReview, models.ClaimRejected},
	models.ClaimUnderReview:    {models.ClaimSiteInspection, models.ClaimProcessing, models.ClaimApproved, models.ClaimRejected},
	models.ClaimSiteInspection: {models.ClaimProcessing, models.ClaimApproved, models.ClaimRejected},
	models.ClaimProcessing:     {models.ClaimApproved, models.ClaimRejected},
	models.ClaimApproved:       {models.ClaimPaid},
	models.ClaimRejected:       {models.ClaimClosed},
	models.ClaimPaid:           {models.ClaimClosed},
}

// ClaimService provides claim filing and review operations
type ClaimService struct {
	db *gorm.DB
}

// NewClaimService creates a new claim service
func NewClaimService() *ClaimService {
	return &ClaimService{db: database.GetDB()}
}

// NewClaimServiceWithDB creates a claim service with an explicit database
func NewClaimServiceWithDB(db *gorm.DB) *ClaimService {
	return &ClaimService{db: db}
}

// newClaimNumber builds a CLM<yyyymmdd><6 hex> reference
func newClaimNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "CLM" + time.Now().Format("20060102") + suffix
}

// CreateClaimRequest carries the caller's input for a new claim
type CreateClaimRequest struct {
	FarmerID       uint
	SubscriptionID uint
	ClaimType      string
	IncidentDate   time.Time
	Description    string
	LossAmount     float64
}

// Create files a claim against one of the farmer's subscriptions.
// The subscription must belong to the farmer and have coverage in force.
func (s *ClaimService) Create(req CreateClaimRequest) (*models.Claim, error) {
	var subscription models.Subscription
	if err := s.db.First(&subscription, req.SubscriptionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if subscription.FarmerID != req.FarmerID {
		return nil, ErrNotFound
	}
	if !subscription.IsCurrentlyActive() {
		return nil, &ValidationError{Field: "subscription_id", Message: "subscription has no active coverage"}
	}
	if req.LossAmount <= 0 {
		return nil, &ValidationError{Field: "loss_amount", Message: "must be positive"}
	}
	if req.LossAmount > subscription.SumInsured {
		return nil, &ValidationError{Field: "loss_amount", Message: "cannot exceed the sum insured"}
	}

	claim := &models.Claim{
		ClaimNumber:    newClaimNumber(),
		SubscriptionID: req.SubscriptionID,
		FarmerID:       req.FarmerID,
		ClaimType:      req.ClaimType,
		IncidentDate:   req.IncidentDate,
		Description:    req.Description,
		LossAmount:     req.LossAmount,
		Status:         models.ClaimSubmitted,
	}

	if err := s.db.Create(claim).Error; err != nil {
		return nil, fmt.Errorf("failed to create claim: %w", err)
	}
	return claim, nil
}

// ListByFarmer returns the farmer's claims, newest first
func (s *ClaimService) ListByFarmer(farmerID uint) ([]models.Claim, error) {
	var claims []models.Claim
	err := s.db.Where("farmer_id = ?", farmerID).
		Order("created_at desc").
		Find(&claims).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list claims: %w", err)
	}
	return claims, nil
}

// GetByID returns one claim
func (s *ClaimService) GetByID(id uint) (*models.Claim, error) {
	var claim models.Claim
	if err := s.db.First(&claim, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &claim, nil
}

// UpdateStatusRequest carries a reviewer's status decision
type UpdateStatusRequest struct {
	Status          string
	AssessedAmount  *float64
	ApprovedAmount  *float64
	AssessmentNotes string
	RejectionReason string
}

// UpdateStatus moves a claim along its review lifecycle. Only the
// transitions in claimTransitions are allowed.
func (s *ClaimService) UpdateStatus(id uint, req UpdateStatusRequest) (*models.Claim, error) {
	claim, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !transitionAllowed(claim.Status, req.Status) {
		return nil, &ValidationError{
			Field:   "status",
			Message: fmt.Sprintf("cannot move claim from %s to %s", claim.Status, req.Status),
		}
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      req.Status,
		"reviewed_at": &now,
	}
	if req.AssessedAmount != nil {
		updates["assessed_amount"] = req.AssessedAmount
	}
	if req.ApprovedAmount != nil {
		updates["approved_amount"] = req.ApprovedAmount
	}
	if req.AssessmentNotes != "" {
		updates["assessment_notes"] = req.AssessmentNotes
	}
	if req.Status == models.ClaimRejected {
		updates["rejection_reason"] = req.RejectionReason
	}
	if req.Status == models.ClaimPaid {
		updates["paid_at"] = &now
	}

	if err := s.db.Model(&models.Claim{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update claim: %w", err)
	}

	return s.GetByID(id)
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range claimTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
