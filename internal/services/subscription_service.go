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

// SubscriptionService provides policy subscription operations
type SubscriptionService struct {
	db *gorm.DB
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService() *SubscriptionService {
	return &SubscriptionService{db: database.GetDB()}
}

// NewSubscriptionServiceWithDB creates a subscription service with an
// explicit database
func NewSubscriptionServiceWithDB(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{db: db}
}

// newSubscriptionNumber builds a SUB<yyyymmdd><6 hex> reference
func newSubscriptionNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return "SUB" + time.Now().Format("20060102") + suffix
}

// CreateSubscriptionRequest carries the caller's input for a new subscription
type CreateSubscriptionRequest struct {
	FarmerID         uint
	PolicyID         uint
	SumInsured       float64
	InsuredCrop      string
	InsuredAreaAcres float64
}

// Create subscribes a farmer to a policy. The premium is computed from
// the policy's base premium plus its rate applied to the sum insured.
// Coverage starts after the policy's waiting period and the subscription
// stays pending until the premium payment completes.
func (s *SubscriptionService) Create(req CreateSubscriptionRequest) (*models.Subscription, error) {
	var policy models.Policy
	if err := s.db.First(&policy, req.PolicyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if !policy.IsActive {
		return nil, &ValidationError{Field: "policy_id", Message: "policy is not available for subscription"}
	}

	if req.SumInsured < policy.MinSumInsured || req.SumInsured > policy.MaxSumInsured {
		return nil, &ValidationError{
			Field: "sum_insured",
			Message: fmt.Sprintf("must be between %.0f and %.0f for this policy",
				policy.MinSumInsured, policy.MaxSumInsured),
		}
	}

	premium := policy.BasePremium + req.SumInsured*policy.PremiumRate/100

	startDate := time.Now().AddDate(0, 0, policy.WaitingPeriodDays)
	endDate := startDate.AddDate(0, policy.DurationMonths, 0)

	subscription := &models.Subscription{
		SubscriptionNumber: newSubscriptionNumber(),
		FarmerID:           req.FarmerID,
		PolicyID:           req.PolicyID,
		SumInsured:         req.SumInsured,
		PremiumAmount:      premium,
		InsuredCrop:        req.InsuredCrop,
		InsuredAreaAcres:   req.InsuredAreaAcres,
		StartDate:          startDate,
		EndDate:            endDate,
		Status:             models.SubscriptionPending,
	}

	if err := s.db.Create(subscription).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}

	subscription.Policy = policy
	return subscription, nil
}

// ListByFarmer returns the farmer's subscriptions, newest first
func (s *SubscriptionService) ListByFarmer(farmerID uint) ([]models.Subscription, error) {
	var subscriptions []models.Subscription
	err := s.db.Preload("Policy").
		Where("farmer_id = ?", farmerID).
		Order("created_at desc").
		Find(&subscriptions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subscriptions, nil
}

// GetByID returns one subscription with its policy
func (s *SubscriptionService) GetByID(id uint) (*models.Subscription, error) {
	var subscription models.Subscription
	if err := s.db.Preload("Policy").First(&subscription, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &subscription, nil
}

// MarkPaid records a completed premium payment and activates the
// subscription if it was pending. Already-settled subscriptions are left
// untouched so a duplicate payment callback cannot re-activate a
// cancelled or expired one.
func (s *SubscriptionService) MarkPaid(id uint) error {
	var subscription models.Subscription
	if err := s.db.First(&subscription, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}

	if subscription.IsPaid {
		return nil
	}

	now := time.Now()
	updates := map[string]interface{}{
		"is_paid": true,
		"paid_at": &now,
	}
	if subscription.Status == models.SubscriptionPending {
		updates["status"] = models.SubscriptionActive
	}

	return s.db.Model(&subscription).Updates(updates).Error
}
