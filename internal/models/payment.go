package models

// Payment transaction statuses. Completed, failed and cancelled are
// terminal: once reached they are never overwritten.
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentCancelled = "cancelled"
	PaymentUnknown   = "unknown"
)

// IsTerminalPaymentStatus reports whether a status admits no further
// transitions
func IsTerminalPaymentStatus(status string) bool {
	switch status {
	case PaymentCompleted, PaymentFailed, PaymentCancelled:
		return true
	}
	return false
}

// PaymentTransaction tracks one M-Pesa STK push attempt from initiation
// through its terminal outcome. CheckoutRequestID is the gateway-assigned
// key that callbacks and status queries are reconciled against.
type PaymentTransaction struct {
	BaseModel
	TransactionID     string `json:"transaction_id" gorm:"uniqueIndex;not null;size:50"`
	CheckoutRequestID string `json:"checkout_request_id" gorm:"index;size:100"`

	PhoneNumber string `json:"phone_number" gorm:"not null;size:15"`
	Amount      int64  `json:"amount" gorm:"not null"`
	Reference   string `json:"reference" gorm:"size:100"`
	Description string `json:"description" gorm:"size:255"`
	PolicyID    string `json:"policy_id,omitempty" gorm:"size:50"`

	// Optional link to the subscription being paid for; activated
	// when the payment completes.
	SubscriptionID *uint `json:"subscription_id,omitempty" gorm:"index"`

	Status string `json:"status" gorm:"size:20;default:'pending';index"`

	// Populated from callback metadata on completion
	ReceiptNumber   string `json:"receipt_number,omitempty" gorm:"size:50"`
	PaidAmount      int64  `json:"paid_amount,omitempty"`
	TransactionDate string `json:"transaction_date,omitempty" gorm:"size:20"`

	// Populated on failure
	FailureReason string `json:"failure_reason,omitempty" gorm:"size:255"`
}
