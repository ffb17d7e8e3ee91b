package services

import (
	"fmt"
	"time"

	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/pkg/logging"
)

// PaymentNotifier sends the payer a confirmation SMS once a payment
// settles. Called in a goroutine from the orchestrator so callback
// handling is never blocked on the SMS provider.
type PaymentNotifier struct {
	sms *SMSService
}

// NewPaymentNotifier creates a new payment notifier
func NewPaymentNotifier(sms *SMSService) *PaymentNotifier {
	return &PaymentNotifier{sms: sms}
}

// NotifyPaymentReceipt sends the receipt message with retry
func (n *PaymentNotifier) NotifyPaymentReceipt(tx *models.PaymentTransaction) {
	message := fmt.Sprintf("Payment of KES %d received for %s.", tx.Amount, tx.Reference)
	if tx.ReceiptNumber != "" {
		message += " M-Pesa receipt: " + tx.ReceiptNumber
	}

	n.sendWithRetry(tx.PhoneNumber, tx.TransactionID, message)
}

// sendWithRetry sends the SMS with a short retry schedule: 1s, 5s, 30s
func (n *PaymentNotifier) sendWithRetry(phoneNumber, transactionID, message string) {
	retryDelays := []time.Duration{1 * time.Second, 5 * time.Second, 30 * time.Second}
	maxRetries := len(retryDelays)

	for attempt := 0; attempt < maxRetries; attempt++ {
		err := n.sms.Send(phoneNumber, message)
		if err == nil {
			logging.Infof("Receipt SMS sent - transaction: %s, attempt: %d", transactionID, attempt+1)
			return
		}

		logging.Errorf("Receipt SMS failed - transaction: %s, attempt: %d, error: %v",
			transactionID, attempt+1, err)

		if attempt < maxRetries-1 {
			time.Sleep(retryDelays[attempt])
		}
	}

	logging.Errorf("Receipt SMS failed after %d attempts - transaction: %s", maxRetries, transactionID)
}
