package api

import (
	"errors"
	"net/http"

	"github.com/kc-allan/at-insurance/internal/middleware"
	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

// RegisterRequest represents the farmer registration request
type RegisterRequest struct {
	PhoneNumber     string  `json:"phone_number" binding:"required"`
	FirstName       string  `json:"first_name" binding:"required"`
	LastName        string  `json:"last_name" binding:"required"`
	Password        string  `json:"password" binding:"required,min=6"`
	PasswordConfirm string  `json:"password_confirm" binding:"required"`
	Email           string  `json:"email"`
	County          string  `json:"county"`
	SubCounty       string  `json:"sub_county"`
	FarmingType     string  `json:"farming_type"`
	FarmSizeAcres   float64 `json:"farm_size_acres"`
	PrimaryCrops    string  `json:"primary_crops"`
}

// AuthResponse is returned on successful registration or login
type AuthResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    *models.Farmer `json:"user"`
	Message string         `json:"message"`
}

// Register creates a new farmer account and returns a token pair
func Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	if req.Password != req.PasswordConfirm {
		response.ErrorJSON(c, http.StatusBadRequest, "Passwords do not match")
		return
	}

	farmer := &models.Farmer{
		PhoneNumber:   req.PhoneNumber,
		FirstName:     req.FirstName,
		LastName:      req.LastName,
		Email:         req.Email,
		County:        req.County,
		SubCounty:     req.SubCounty,
		FarmingType:   req.FarmingType,
		FarmSizeAcres: req.FarmSizeAcres,
		PrimaryCrops:  req.PrimaryCrops,
	}

	farmerService := services.NewFarmerService()
	if err := farmerService.Register(farmer, req.Password); err != nil {
		if errors.Is(err, services.ErrPhoneAlreadyRegistered) {
			response.ErrorJSON(c, http.StatusBadRequest, "Phone number already registered")
			return
		}
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			response.ErrorJSON(c, http.StatusBadRequest, validationErr.Error())
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Registration failed")
		return
	}

	tokens, err := services.NewTokenService().IssueTokens(farmer.ID, farmer.PhoneNumber)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Access:  tokens.AccessToken,
		Refresh: tokens.RefreshToken,
		User:    farmer,
		Message: "Registration successful",
	})
}

// LoginRequest represents the login request
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Password    string `json:"password" binding:"required"`
}

// Login authenticates a farmer and returns a token pair
func Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	farmerService := services.NewFarmerService()
	farmer, err := farmerService.Authenticate(req.PhoneNumber, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			response.ErrorJSON(c, http.StatusBadRequest, "Invalid phone number or password")
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Login failed")
		return
	}

	tokens, err := services.NewTokenService().IssueTokens(farmer.ID, farmer.PhoneNumber)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to issue tokens")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Access:  tokens.AccessToken,
		Refresh: tokens.RefreshToken,
		User:    farmer,
		Message: "Login successful",
	})
}

// GetProfile returns the authenticated farmer's profile
func GetProfile(c *gin.Context) {
	farmer, err := services.NewFarmerService().GetByID(middleware.FarmerID(c))
	if err != nil {
		response.ErrorJSON(c, http.StatusNotFound, "Farmer not found")
		return
	}
	response.SuccessJSON(c, farmer)
}

// UpdateProfileRequest represents a partial profile update
type UpdateProfileRequest struct {
	FirstName     string   `json:"first_name"`
	LastName      string   `json:"last_name"`
	Email         string   `json:"email"`
	NationalID    string   `json:"national_id"`
	County        string   `json:"county"`
	SubCounty     string   `json:"sub_county"`
	Village       string   `json:"village"`
	FarmingType   string   `json:"farming_type"`
	FarmSizeAcres *float64 `json:"farm_size_acres"`
	PrimaryCrops  string   `json:"primary_crops"`
	MpesaNumber   string   `json:"mpesa_number"`
}

// UpdateProfile applies a partial update to the farmer's profile
func UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	// Build update map
	updates := make(map[string]interface{})
	if req.FirstName != "" {
		updates["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		updates["last_name"] = req.LastName
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.NationalID != "" {
		updates["national_id"] = req.NationalID
	}
	if req.County != "" {
		updates["county"] = req.County
	}
	if req.SubCounty != "" {
		updates["sub_county"] = req.SubCounty
	}
	if req.Village != "" {
		updates["village"] = req.Village
	}
	if req.FarmingType != "" {
		updates["farming_type"] = req.FarmingType
	}
	if req.FarmSizeAcres != nil {
		updates["farm_size_acres"] = *req.FarmSizeAcres
	}
	if req.PrimaryCrops != "" {
		updates["primary_crops"] = req.PrimaryCrops
	}
	if req.MpesaNumber != "" {
		updates["mpesa_number"] = req.MpesaNumber
	}

	farmer, err := services.NewFarmerService().UpdateProfile(middleware.FarmerID(c), updates)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Failed to update profile: "+err.Error())
		return
	}

	response.SuccessJSON(c, farmer)
}

// RefreshTokenRequest represents the token refresh request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken rotates a refresh token into a new token pair
func RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Refresh token required")
		return
	}

	tokens, err := services.NewTokenService().RefreshTokens(req.RefreshToken)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid or expired refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access":  tokens.AccessToken,
		"refresh": tokens.RefreshToken,
	})
}

// Logout revokes the presented refresh token
func Logout(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Refresh token required")
		return
	}

	if err := services.NewTokenService().RevokeRefreshToken(req.RefreshToken); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid refresh token")
		return
	}

	response.SuccessJSON(c, gin.H{"message": "Successfully logged out"})
}
