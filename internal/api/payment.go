package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/services"
	"github.com/kc-allan/at-insurance/pkg/logging"

	"github.com/gin-gonic/gin"
)

var paymentService *services.PaymentService

// SetPaymentService wires the payment orchestrator used by the handlers.
// A single instance must be shared so per-checkout serialization holds
// across requests.
func SetPaymentService(ps *services.PaymentService) {
	paymentService = ps
}

// InitiatePaymentRequest represents the initiate payment request body
type InitiatePaymentRequest struct {
	PhoneNumber    string  `json:"phone_number" binding:"required"`
	Amount         float64 `json:"amount" binding:"required"`
	Reference      string  `json:"reference" binding:"required"`
	Description    string  `json:"description"`
	PolicyID       string  `json:"policy_id"`
	SubscriptionID *uint   `json:"subscription_id"`
}

// PaymentResponse represents the initiate payment response body
type PaymentResponse struct {
	Success           bool      `json:"success"`
	TransactionID     string    `json:"transaction_id,omitempty"`
	CheckoutRequestID string    `json:"checkout_request_id,omitempty"`
	Message           string    `json:"message"`
	Timestamp         time.Time `json:"timestamp"`
}

// PaymentStatusRequest represents the status query request body
type PaymentStatusRequest struct {
	TransactionID string `json:"transaction_id" binding:"required"`
}

// StatusResponse represents the status query response body
type StatusResponse struct {
	Success       bool      `json:"success"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	TransactionID string    `json:"transaction_id"`
	Amount        int64     `json:"amount,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// InitiatePayment triggers an M-Pesa STK push
func InitiatePayment(c *gin.Context) {
	var req InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PaymentResponse{
			Success:   false,
			Message:   "Invalid request format: " + err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	// The gateway only accepts whole KES amounts
	tx, err := paymentService.InitiatePayment(c.Request.Context(), services.InitiatePaymentRequest{
		PhoneNumber:    req.PhoneNumber,
		Amount:         int64(req.Amount),
		Reference:      req.Reference,
		Description:    paymentDescription(req.Description),
		PolicyID:       req.PolicyID,
		SubscriptionID: req.SubscriptionID,
	})
	if err != nil {
		status, message := paymentErrorResponse(err, "Payment initiation failed")
		c.JSON(status, PaymentResponse{
			Success:   false,
			Message:   message,
			Timestamp: time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, PaymentResponse{
		Success:           true,
		TransactionID:     tx.TransactionID,
		CheckoutRequestID: tx.CheckoutRequestID,
		Message:           "Payment initiated successfully. Please check your phone for the M-Pesa prompt.",
		Timestamp:         time.Now(),
	})
}

// CheckPaymentStatus answers a client's status query for a transaction
func CheckPaymentStatus(c *gin.Context) {
	var req PaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StatusResponse{
			Success:   false,
			Message:   "Invalid request format: " + err.Error(),
			Timestamp: time.Now(),
		})
		return
	}

	result, err := paymentService.QueryPaymentStatus(c.Request.Context(), req.TransactionID)
	if err != nil {
		status, message := paymentErrorResponse(err, "Status check failed")
		c.JSON(status, StatusResponse{
			Success:       false,
			Message:       message,
			TransactionID: req.TransactionID,
			Timestamp:     time.Now(),
		})
		return
	}

	c.JSON(http.StatusOK, StatusResponse{
		Success:       true,
		Status:        result.Status,
		Message:       result.Message,
		TransactionID: result.TransactionID,
		Amount:        result.Amount,
		PhoneNumber:   result.PhoneNumber,
		Timestamp:     time.Now(),
	})
}

// stkCallbackEnvelope is the provider's nested notification format
type stkCallbackEnvelope struct {
	Body struct {
		StkCallback struct {
			MerchantRequestID string      `json:"MerchantRequestID"`
			CheckoutRequestID string      `json:"CheckoutRequestID"`
			ResultCode        interface{} `json:"ResultCode"`
			ResultDesc        string      `json:"ResultDesc"`
			CallbackMetadata  struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// PaymentCallback receives the asynchronous gateway notification. Per
// the transport contract it acknowledges receipt whenever the envelope
// parses, regardless of whether any state changed.
func PaymentCallback(c *gin.Context) {
	var envelope stkCallbackEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "rejected",
			"message": "Invalid callback format",
		})
		return
	}

	cb := envelope.Body.StkCallback
	logging.Infof("Received callback for %s: %v - %s", cb.CheckoutRequestID, cb.ResultCode, cb.ResultDesc)

	metadata := make([]services.CallbackItem, 0, len(cb.CallbackMetadata.Item))
	for _, item := range cb.CallbackMetadata.Item {
		metadata = append(metadata, services.CallbackItem{Name: item.Name, Value: item.Value})
	}

	paymentService.HandleCallback(c.Request.Context(), cb.CheckoutRequestID,
		resultCodeString(cb.ResultCode), cb.ResultDesc, metadata)

	c.JSON(http.StatusOK, gin.H{
		"status":  "received",
		"message": "Callback processed successfully",
	})
}

// ListTransactions returns all payment transactions (admin/debugging)
func ListTransactions(c *gin.Context) {
	txs, err := paymentService.ListTransactions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to list transactions",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"transactions": txs,
		"count":        len(txs),
	})
}

// GetPaymentConfig echoes the non-sensitive gateway configuration
func GetPaymentConfig(c *gin.Context) {
	cfg := config.AppConfig
	c.JSON(http.StatusOK, gin.H{
		"environment":        cfg.MpesaEnvironment,
		"business_shortcode": cfg.MpesaShortcode,
		"callback_url":       cfg.MpesaCallbackURL,
		"timeout_url":        cfg.MpesaTimeoutURL,
	})
}

func paymentDescription(desc string) string {
	if desc == "" {
		return "Insurance Payment"
	}
	return desc
}

// resultCodeString normalizes the provider's result code, which arrives
// as a JSON number in live traffic but as a string in some sandboxes
func resultCodeString(v interface{}) string {
	switch code := v.(type) {
	case string:
		return code
	case float64:
		return fmt.Sprintf("%.0f", code)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", code)
	}
}

// paymentErrorResponse maps service errors to HTTP status and message
func paymentErrorResponse(err error, prefix string) (int, string) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, validationErr.Error()
	}
	if errors.Is(err, services.ErrTransactionNotFound) {
		return http.StatusNotFound, "Transaction not found"
	}

	var authErr *services.UpstreamAuthError
	var reqErr *services.UpstreamRequestError
	if errors.As(err, &authErr) || errors.As(err, &reqErr) {
		return http.StatusBadGateway, prefix + ": " + err.Error()
	}

	return http.StatusInternalServerError, prefix + ": " + err.Error()
}
