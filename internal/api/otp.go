package api

import (
	"net/http"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"
	"github.com/kc-allan/at-insurance/pkg/logging"

	"github.com/gin-gonic/gin"
)

// SendOTPRequest represents the send verification code request
type SendOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// VerifyOTPRequest represents the verify code request
type VerifyOTPRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required"`
	Code        string `json:"code" binding:"required,len=6"`
}

// SendOTP generates a verification code and sends it by SMS
func SendOTP(c *gin.Context) {
	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	phone, err := services.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	otpService := services.NewOTPService()

	rateLimited, err := otpService.CheckRateLimit(phone)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Service error")
		return
	}
	if rateLimited {
		response.ErrorJSON(c, http.StatusTooManyRequests, "Please wait before requesting another verification code")
		return
	}

	code, err := otpService.GenerateCode()
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to generate verification code")
		return
	}

	if err := otpService.StoreCode(phone, code, config.AppConfig.OTPExpireMinutes); err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to store verification code")
		return
	}

	if err := otpService.SetRateLimit(phone, config.AppConfig.OTPRateLimitMins); err != nil {
		logging.Errorf("Failed to set OTP rate limit for %s: %v", phone, err)
	}

	if err := services.NewSMSService().SendOTPSMS(phone, code); err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to send verification SMS")
		return
	}

	response.SuccessJSON(c, gin.H{"message": "Verification code sent successfully"})
}

// VerifyOTP checks the submitted code and marks the farmer verified
func VerifyOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid request format: "+err.Error())
		return
	}

	phone, err := services.NormalizePhoneNumber(req.PhoneNumber)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, err.Error())
		return
	}

	otpService := services.NewOTPService()

	storedCode, err := otpService.GetCode(phone)
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Verification code not found or expired")
		return
	}

	if storedCode != req.Code {
		response.ErrorJSON(c, http.StatusBadRequest, "Invalid verification code")
		return
	}

	// Consume the code
	otpService.DeleteCode(phone)

	// Flag the account if one exists; verification may also happen
	// before registration completes.
	if err := services.NewFarmerService().MarkVerified(phone); err != nil {
		logging.Errorf("Failed to mark %s verified: %v", phone, err)
	}

	response.SuccessJSON(c, gin.H{"message": "Phone number verified successfully"})
}
