package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

// ListPolicies returns the policy catalog
func ListPolicies(c *gin.Context) {
	activeOnly := c.DefaultQuery("active", "true") != "false"
	policyType := c.Query("type")

	policies, err := services.NewPolicyService().List(activeOnly, policyType)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list policies")
		return
	}

	response.SuccessJSON(c, policies)
}

// GetPolicy returns one policy by ID
func GetPolicy(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid policy ID")
		return
	}

	policy, err := services.NewPolicyService().GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Policy not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get policy")
		return
	}

	response.SuccessJSON(c, policy)
}

// CreatePolicyRequest represents the create policy request
type CreatePolicyRequest struct {
	Name              string  `json:"name" binding:"required"`
	PolicyType        string  `json:"policy_type" binding:"required"`
	Description       string  `json:"description"`
	Coverage          string  `json:"coverage" binding:"required"`
	Exclusions        string  `json:"exclusions"`
	BasePremium       float64 `json:"base_premium"`
	PremiumRate       float64 `json:"premium_rate"`
	MinSumInsured     float64 `json:"min_sum_insured"`
	MaxSumInsured     float64 `json:"max_sum_insured"`
	DurationMonths    int     `json:"duration_months"`
	WaitingPeriodDays int     `json:"waiting_period_days"`
}

// CreatePolicy adds a policy to the catalog (admin)
func CreatePolicy(c *gin.Context) {
	var req CreatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	// Catalog defaults for omitted numeric fields
	if req.BasePremium == 0 {
		req.BasePremium = 1000
	}
	if req.PremiumRate == 0 {
		req.PremiumRate = 5
	}
	if req.MinSumInsured == 0 {
		req.MinSumInsured = 10000
	}
	if req.MaxSumInsured == 0 {
		req.MaxSumInsured = 10000000
	}
	if req.DurationMonths == 0 {
		req.DurationMonths = 12
	}
	if req.WaitingPeriodDays == 0 {
		req.WaitingPeriodDays = 14
	}

	policy := &models.Policy{
		Name:              req.Name,
		PolicyType:        req.PolicyType,
		Description:       req.Description,
		Coverage:          req.Coverage,
		Exclusions:        req.Exclusions,
		BasePremium:       req.BasePremium,
		PremiumRate:       req.PremiumRate,
		MinSumInsured:     req.MinSumInsured,
		MaxSumInsured:     req.MaxSumInsured,
		DurationMonths:    req.DurationMonths,
		WaitingPeriodDays: req.WaitingPeriodDays,
		IsActive:          true,
	}

	if err := services.NewPolicyService().Create(policy); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			response.ErrorJSON(c, http.StatusBadRequest, validationErr.Error())
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to create policy")
		return
	}

	response.CreatedJSON(c, "Policy created successfully", policy)
}

// UpdatePolicyRequest represents a partial policy update
type UpdatePolicyRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Coverage    string   `json:"coverage"`
	Exclusions  string   `json:"exclusions"`
	BasePremium *float64 `json:"base_premium"`
	PremiumRate *float64 `json:"premium_rate"`
	IsActive    *bool    `json:"is_active"`
}

// UpdatePolicy updates an existing policy (admin)
func UpdatePolicy(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid policy ID")
		return
	}

	var req UpdatePolicyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	// Build update map
	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Coverage != "" {
		updates["coverage"] = req.Coverage
	}
	if req.Exclusions != "" {
		updates["exclusions"] = req.Exclusions
	}
	if req.BasePremium != nil {
		updates["base_premium"] = *req.BasePremium
	}
	if req.PremiumRate != nil {
		updates["premium_rate"] = *req.PremiumRate
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}

	policy, err := services.NewPolicyService().Update(id, updates)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Policy not found")
			return
		}
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to update policy: "+err.Error())
		return
	}

	response.SuccessJSON(c, policy)
}

// DeletePolicy removes a policy from the catalog (admin)
func DeletePolicy(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid policy ID")
		return
	}

	if err := services.NewPolicyService().Delete(id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Policy not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to delete policy")
		return
	}

	response.SuccessJSON(c, gin.H{"message": "Policy deleted successfully"})
}

func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
