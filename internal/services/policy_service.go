package services

import (
	"errors"
	"fmt"

	"github.com/kc-allan/at-insurance/internal/database"
	"github.com/kc-allan/at-insurance/internal/models"

	"gorm.io/gorm"
)

// PolicyService provides policy catalog operations
type PolicyService struct {
	db *gorm.DB
}

// NewPolicyService creates a new policy service
func NewPolicyService() *PolicyService {
	return &PolicyService{db: database.GetDB()}
}

// NewPolicyServiceWithDB creates a policy service with an explicit database
func NewPolicyServiceWithDB(db *gorm.DB) *PolicyService {
	return &PolicyService{db: db}
}

// List returns policies, optionally filtered to active ones and by type
func (s *PolicyService) List(activeOnly bool, policyType string) ([]models.Policy, error) {
	query := s.db.Order("policy_type, name")
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if policyType != "" {
		query = query.Where("policy_type = ?", policyType)
	}

	var policies []models.Policy
	if err := query.Find(&policies).Error; err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", err)
	}
	return policies, nil
}

// GetByID returns one policy
func (s *PolicyService) GetByID(id uint) (*models.Policy, error) {
	var policy models.Policy
	if err := s.db.First(&policy, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &policy, nil
}

// Create adds a new policy to the catalog
func (s *PolicyService) Create(policy *models.Policy) error {
	if policy.MinSumInsured > policy.MaxSumInsured {
		return &ValidationError{Field: "min_sum_insured", Message: "cannot exceed max_sum_insured"}
	}
	if policy.PremiumRate < 0 || policy.PremiumRate > 100 {
		return &ValidationError{Field: "premium_rate", Message: "must be between 0 and 100"}
	}

	if err := s.db.Create(policy).Error; err != nil {
		return fmt.Errorf("failed to create policy: %w", err)
	}
	return nil
}

// Update applies a partial update to a policy
func (s *PolicyService) Update(id uint, updates map[string]interface{}) (*models.Policy, error) {
	result := s.db.Model(&models.Policy{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update policy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetByID(id)
}

// Delete soft-deletes a policy from the catalog
func (s *PolicyService) Delete(id uint) error {
	result := s.db.Delete(&models.Policy{}, id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete policy: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
