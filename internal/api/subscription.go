package api

import (
	"errors"
	"net/http"

	"github.com/kc-allan/at-insurance/internal/middleware"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

// CreateSubscriptionRequest represents the subscribe request
type CreateSubscriptionRequest struct {
	PolicyID         uint    `json:"policy_id" binding:"required"`
	SumInsured       float64 `json:"sum_insured" binding:"required"`
	InsuredCrop      string  `json:"insured_crop"`
	InsuredAreaAcres float64 `json:"insured_area_acres"`
}

// CreateSubscription subscribes the farmer to a policy. The returned
// subscription is pending until its premium payment completes.
func CreateSubscription(c *gin.Context) {
	var req CreateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	subscription, err := services.NewSubscriptionService().Create(services.CreateSubscriptionRequest{
		FarmerID:         middleware.FarmerID(c),
		PolicyID:         req.PolicyID,
		SumInsured:       req.SumInsured,
		InsuredCrop:      req.InsuredCrop,
		InsuredAreaAcres: req.InsuredAreaAcres,
	})
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Policy not found")
			return
		}
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			response.ErrorJSON(c, http.StatusBadRequest, validationErr.Error())
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to create subscription")
		return
	}

	response.CreatedJSON(c, "Subscription created. Complete the premium payment to activate cover.", subscription)
}

// ListMySubscriptions returns the authenticated farmer's subscriptions
func ListMySubscriptions(c *gin.Context) {
	subscriptions, err := services.NewSubscriptionService().ListByFarmer(middleware.FarmerID(c))
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list subscriptions")
		return
	}
	response.SuccessJSON(c, subscriptions)
}

// GetSubscription returns one of the farmer's subscriptions
func GetSubscription(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid subscription ID")
		return
	}

	subscription, err := services.NewSubscriptionService().GetByID(id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			response.ErrorJSON(c, http.StatusNotFound, "Subscription not found")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to get subscription")
		return
	}

	// Farmers can only see their own subscriptions
	if subscription.FarmerID != middleware.FarmerID(c) {
		response.ErrorJSON(c, http.StatusNotFound, "Subscription not found")
		return
	}

	response.SuccessJSON(c, subscription)
}
