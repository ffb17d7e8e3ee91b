package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/kc-allan/at-insurance/internal/middleware"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateClaimRequest represents the file-claim request
type CreateClaimRequest struct {
	SubscriptionID uint    `json:"subscription_id" binding:"required"`
	ClaimType      string  `json:"claim_type" binding:"required"`
	IncidentDate   string  `json:"incident_date" binding:"required"` // YYYY-MM-DD
	Description    string  `json:"description" binding:"required"`
	LossAmount     float64 `json:"loss_amount" binding:"required"`
}

// CreateClaim files a claim against one of the farmer's subscriptions
func CreateClaim(c *gin.Context) {
	var req CreateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	incidentDate, err := time.Parse("2006-01-02", req.IncidentDate)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "incident_date must be in YYYY-MM-DD format")
		return
	}

	claim, err := services.NewClaimService().Create(services.CreateClaimRequest{
		FarmerID:       middleware.FarmerID(c),
		SubscriptionID: req.SubscriptionID,
		ClaimType:      req.ClaimType,
		IncidentDate:   incidentDate,
		Description:    req.Description,
		LossAmount:     req.LossAmount,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Subscription not found")
			return
		}
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			response.ErrorJSON(c, http.StatusBadRequest, validationErr.Error())
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to file claim")
		return
	}

	response.CreatedJSON(c, "Claim submitted successfully", claim)
}

// ListMyClaims returns the authenticated farmer's claims
func ListMyClaims(c *gin.Context) {
	claims, err := services.NewClaimService().ListByFarmer(middleware.FarmerID(c))
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list claims")
		return
	}
	response.SuccessJSON(c, claims)
}

// GetClaim returns one of the farmer's claims
func GetClaim(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid claim ID")
		return
	}

	claim, err := services.NewClaimService().GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Claim not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get claim")
		return
	}

	if claim.FarmerID != middleware.FarmerID(c) {
		response.ErrorJSON(c, http.StatusNotFound, "Claim not found")
		return
	}

	response.SuccessJSON(c, claim)
}

// UpdateClaimStatusRequest represents a reviewer's status decision
type UpdateClaimStatusRequest struct {
	Status          string   `json:"status" binding:"required"`
	AssessedAmount  *float64 `json:"assessed_amount"`
	ApprovedAmount  *float64 `json:"approved_amount"`
	AssessmentNotes string   `json:"assessment_notes"`
	RejectionReason string   `json:"rejection_reason"`
}

// UpdateClaimStatus moves a claim along its review lifecycle (admin)
func UpdateClaimStatus(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid claim ID")
		return
	}

	var req UpdateClaimStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	claim, err := services.NewClaimService().UpdateStatus(id, services.UpdateStatusRequest{
		Status:          req.Status,
		AssessedAmount:  req.AssessedAmount,
		ApprovedAmount:  req.ApprovedAmount,
		AssessmentNotes: req.AssessmentNotes,
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Claim not found")
			return
		}
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			response.ErrorJSON(c, http.StatusBadRequest, validationErr.Error())
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to update claim")
		return
	}

	response.SuccessJSON(c, claim)
}
