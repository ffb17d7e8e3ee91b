package services

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/pkg/logging"

	"github.com/google/uuid"
)

// phone numbers must be country-code prefixed, digits only: 254 + 9 digits
var phonePattern = regexp.MustCompile(`^254\d{9}$`)

// InitiatePaymentRequest carries the caller's input for a new push payment
type InitiatePaymentRequest struct {
	PhoneNumber    string
	Amount         int64
	Reference      string
	Description    string
	PolicyID       string
	SubscriptionID *uint
}

// PaymentStatusResult is the orchestrator's answer to a status query
type PaymentStatusResult struct {
	TransactionID string
	Status        string
	Message       string
	Amount        int64
	PhoneNumber   string
}

// CallbackItem is one entry of the gateway's callback metadata
type CallbackItem struct {
	Name  string
	Value interface{}
}

// PaymentService owns the payment transaction state machine:
// pending -> completed | failed | cancelled, all three terminal.
// Concurrent status queries and callbacks for the same checkout ID are
// serialized so the first terminal write always wins.
type PaymentService struct {
	store         TransactionStore
	gateway       MpesaGateway
	subscriptions *SubscriptionService
	notifier      *PaymentNotifier

	mu       sync.Mutex
	keyLocks map[string]*sync.Mutex
}

// NewPaymentService creates the payment orchestrator. subscriptions and
// notifier may be nil; completion side effects are skipped when they are.
func NewPaymentService(store TransactionStore, gateway MpesaGateway, subscriptions *SubscriptionService, notifier *PaymentNotifier) *PaymentService {
	return &PaymentService{
		store:         store,
		gateway:       gateway,
		subscriptions: subscriptions,
		notifier:      notifier,
		keyLocks:      make(map[string]*sync.Mutex),
	}
}

// lockCheckout serializes access per checkout ID. Returns the unlock func.
func (s *PaymentService) lockCheckout(checkoutRequestID string) func() {
	s.mu.Lock()
	l, ok := s.keyLocks[checkoutRequestID]
	if !ok {
		l = &sync.Mutex{}
		s.keyLocks[checkoutRequestID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// newTransactionID builds a locally unique transaction ID. The random
// suffix breaks collisions between same-second requests for the same
// reference.
func newTransactionID(reference string) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("TXN_%s_%s_%s", time.Now().Format("20060102150405"), reference, suffix)
}

// InitiatePayment validates the request, triggers the STK push and stores
// a pending transaction. On gateway failure nothing is stored.
func (s *PaymentService) InitiatePayment(ctx context.Context, req InitiatePaymentRequest) (*models.PaymentTransaction, error) {
	if !phonePattern.MatchString(req.PhoneNumber) {
		return nil, &ValidationError{Field: "phone_number", Message: "must be in format 254700000000"}
	}
	if req.Amount < 1 {
		return nil, &ValidationError{Field: "amount", Message: "must be at least 1 KES"}
	}

	resp, err := s.gateway.InitiateSTKPush(ctx, req.PhoneNumber, req.Amount, req.Reference, req.Description)
	if err != nil {
		return nil, err
	}

	tx := &models.PaymentTransaction{
		TransactionID:     newTransactionID(req.Reference),
		CheckoutRequestID: resp.CheckoutRequestID,
		PhoneNumber:       req.PhoneNumber,
		Amount:            req.Amount,
		Reference:         req.Reference,
		Description:       req.Description,
		PolicyID:          req.PolicyID,
		SubscriptionID:    req.SubscriptionID,
		Status:            models.PaymentPending,
	}

	if err := s.store.Put(ctx, tx); err != nil {
		return nil, fmt.Errorf("failed to store transaction: %w", err)
	}

	logging.Infof("Initiated payment %s (checkout %s) for %s, %d KES",
		tx.TransactionID, tx.CheckoutRequestID, tx.PhoneNumber, tx.Amount)
	return tx, nil
}

// QueryPaymentStatus looks up a transaction and re-derives its status from
// a live gateway query. A stored terminal status is never downgraded by
// the query result; the gateway answer is authoritative only for the
// pending -> terminal transition.
func (s *PaymentService) QueryPaymentStatus(ctx context.Context, transactionID string) (*PaymentStatusResult, error) {
	tx, err := s.store.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	// Initiation never reached the gateway; nothing to ask it about.
	if tx.CheckoutRequestID == "" {
		return &PaymentStatusResult{
			TransactionID: tx.TransactionID,
			Status:        models.PaymentUnknown,
			Message:       "Transaction status unknown",
			Amount:        tx.Amount,
			PhoneNumber:   tx.PhoneNumber,
		}, nil
	}

	unlock := s.lockCheckout(tx.CheckoutRequestID)
	defer unlock()

	// Re-read under the lock; a callback may have settled it meanwhile.
	tx, err = s.store.GetByCheckoutID(ctx, tx.CheckoutRequestID)
	if err != nil {
		return nil, err
	}

	query, err := s.gateway.QueryStatus(ctx, tx.CheckoutRequestID)
	if err != nil {
		return nil, err
	}

	mapped := mapQueryResult(query)
	if !models.IsTerminalPaymentStatus(tx.Status) && mapped != tx.Status {
		tx.Status = mapped
		if mapped == models.PaymentFailed {
			tx.FailureReason = query.ResultDesc
		}
		if err := s.store.Put(ctx, tx); err != nil {
			return nil, fmt.Errorf("failed to update transaction: %w", err)
		}
		if mapped == models.PaymentCompleted {
			s.settle(tx)
		}
	}

	return &PaymentStatusResult{
		TransactionID: tx.TransactionID,
		Status:        tx.Status,
		Message:       statusMessage(tx.Status, tx.FailureReason),
		Amount:        tx.Amount,
		PhoneNumber:   tx.PhoneNumber,
	}, nil
}

// HandleCallback reconciles an asynchronous gateway notification against
// the stored transaction. It never returns an error: the transport
// contract requires acknowledgment regardless of outcome, so problems are
// logged and absorbed. Duplicate or late callbacks for an already settled
// transaction are discarded; the first terminal write wins.
func (s *PaymentService) HandleCallback(ctx context.Context, checkoutRequestID, resultCode, resultDesc string, metadata []CallbackItem) {
	unlock := s.lockCheckout(checkoutRequestID)
	defer unlock()

	tx, err := s.store.GetByCheckoutID(ctx, checkoutRequestID)
	if err != nil {
		// Unknown checkout IDs can happen after a restart that lost
		// in-memory state; the provider does not redeliver, so all we
		// can do is log the discard.
		logging.Warnf("Callback for unknown checkout %s discarded: %v", checkoutRequestID, err)
		return
	}

	if models.IsTerminalPaymentStatus(tx.Status) {
		logging.Infof("Callback for settled transaction %s (status %s) discarded", tx.TransactionID, tx.Status)
		return
	}

	if resultCode == "0" {
		tx.Status = models.PaymentCompleted
		applyCallbackMetadata(tx, metadata)
	} else {
		tx.Status = models.PaymentFailed
		tx.FailureReason = resultDesc
	}

	if err := s.store.Put(ctx, tx); err != nil {
		logging.Errorf("Failed to persist callback result for %s: %v", tx.TransactionID, err)
		return
	}

	logging.Infof("Updated transaction %s status to %s", tx.TransactionID, tx.Status)

	if tx.Status == models.PaymentCompleted {
		s.settle(tx)
	}
}

// ListTransactions returns every stored transaction, newest first.
// Backed by the database store only; used by the admin surface.
func (s *PaymentService) ListTransactions() ([]models.PaymentTransaction, error) {
	gs, ok := s.store.(*GormTransactionStore)
	if !ok {
		return nil, fmt.Errorf("transaction listing requires the database store")
	}

	var txs []models.PaymentTransaction
	if err := gs.db.Order("created_at desc").Find(&txs).Error; err != nil {
		return nil, err
	}
	return txs, nil
}

// settle applies completion side effects: subscription activation and the
// receipt SMS. Failures here must not affect the payment outcome.
func (s *PaymentService) settle(tx *models.PaymentTransaction) {
	if tx.SubscriptionID != nil && s.subscriptions != nil {
		if err := s.subscriptions.MarkPaid(*tx.SubscriptionID); err != nil {
			logging.Errorf("Failed to activate subscription %d for %s: %v", *tx.SubscriptionID, tx.TransactionID, err)
		}
	}
	if s.notifier != nil {
		receipt := *tx
		go s.notifier.NotifyPaymentReceipt(&receipt)
	}
}

// mapQueryResult translates a gateway result code into a local status.
// An absent result code means the gateway has not settled the push yet,
// which must be treated as still pending, not as a failure.
func mapQueryResult(q *STKQueryResponse) string {
	switch q.ResultCode {
	case "0":
		return models.PaymentCompleted
	case "1032":
		return models.PaymentCancelled
	case "":
		return models.PaymentPending
	default:
		return models.PaymentFailed
	}
}

func statusMessage(status, failureReason string) string {
	switch status {
	case models.PaymentCompleted:
		return "Payment completed successfully"
	case models.PaymentPending:
		return "Payment is being processed"
	case models.PaymentCancelled:
		return "Payment was cancelled by user"
	case models.PaymentFailed:
		if failureReason == "" {
			failureReason = "Unknown error"
		}
		return "Payment failed: " + failureReason
	default:
		return "Transaction status unknown"
	}
}

// applyCallbackMetadata copies the well-known callback metadata entries
// onto the transaction. Missing or unmatched entries are left absent.
func applyCallbackMetadata(tx *models.PaymentTransaction, metadata []CallbackItem) {
	for _, item := range metadata {
		switch item.Name {
		case "Amount":
			if v, ok := metadataInt64(item.Value); ok {
				tx.PaidAmount = v
			}
		case "MpesaReceiptNumber":
			tx.ReceiptNumber = metadataString(item.Value)
		case "TransactionDate":
			tx.TransactionDate = metadataString(item.Value)
		}
	}
}

func metadataInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	case string:
		if parsed, err := strconv.ParseFloat(n, 64); err == nil {
			return int64(parsed), true
		}
	}
	return 0, false
}

func metadataString(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(s, 10)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}
