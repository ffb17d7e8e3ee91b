package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/kc-allan/at-insurance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGateway is a controllable MpesaGateway for orchestrator tests
type stubGateway struct {
	mu         sync.Mutex
	pushResp   *STKPushResponse
	pushErr    error
	queryResp  *STKQueryResponse
	queryErr   error
	pushCalls  int
	queryCalls int
}

func (g *stubGateway) InitiateSTKPush(ctx context.Context, phoneNumber string, amount int64, reference, description string) (*STKPushResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushCalls++
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return g.pushResp, nil
}

func (g *stubGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queryCalls++
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return g.queryResp, nil
}

func (g *stubGateway) calls() (int, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pushCalls, g.queryCalls
}

func newTestPaymentService(gateway *stubGateway) (*PaymentService, *MemoryTransactionStore) {
	store := NewMemoryTransactionStore()
	return NewPaymentService(store, gateway, nil, nil), store
}

func TestInitiatePaymentStoresPendingTransaction(t *testing.T) {
	gateway := &stubGateway{
		pushResp: &STKPushResponse{
			MerchantRequestID: "merch-1",
			CheckoutRequestID: "ws_CO_123",
			ResponseCode:      "0",
			CustomerMessage:   "Success. Request accepted for processing",
		},
	}
	svc, store := newTestPaymentService(gateway)

	tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      1500,
		Reference:   "SUB20260830ABC123",
		Description: "Premium payment",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, tx.Status)
	assert.Equal(t, "ws_CO_123", tx.CheckoutRequestID)
	assert.Contains(t, tx.TransactionID, "TXN_")
	assert.Contains(t, tx.TransactionID, "SUB20260830ABC123")

	stored, err := store.GetByCheckoutID(context.Background(), "ws_CO_123")
	require.NoError(t, err)
	assert.Equal(t, tx.TransactionID, stored.TransactionID)
	assert.Equal(t, int64(1500), stored.Amount)
}

func TestInitiatePaymentValidation(t *testing.T) {
	gateway := &stubGateway{pushResp: &STKPushResponse{CheckoutRequestID: "ws_CO_1"}}
	svc, _ := newTestPaymentService(gateway)

	tests := []struct {
		name  string
		req   InitiatePaymentRequest
		field string
	}{
		{"phone with plus prefix", InitiatePaymentRequest{PhoneNumber: "+254712345678", Amount: 100, Reference: "R"}, "phone_number"},
		{"phone with leading zero", InitiatePaymentRequest{PhoneNumber: "0712345678", Amount: 100, Reference: "R"}, "phone_number"},
		{"phone too short", InitiatePaymentRequest{PhoneNumber: "25471234567", Amount: 100, Reference: "R"}, "phone_number"},
		{"zero amount", InitiatePaymentRequest{PhoneNumber: "254712345678", Amount: 0, Reference: "R"}, "amount"},
		{"negative amount", InitiatePaymentRequest{PhoneNumber: "254712345678", Amount: -5, Reference: "R"}, "amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.InitiatePayment(context.Background(), tt.req)
			var validationErr *ValidationError
			require.ErrorAs(t, err, &validationErr)
			assert.Equal(t, tt.field, validationErr.Field)
		})
	}

	// Validation failures never reach the gateway
	pushCalls, _ := gateway.calls()
	assert.Zero(t, pushCalls)
}

func TestInitiatePaymentGatewayFailureStoresNothing(t *testing.T) {
	gateway := &stubGateway{pushErr: &UpstreamRequestError{Op: "stk push", StatusCode: 503}}
	svc, store := newTestPaymentService(gateway)

	_, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      100,
		Reference:   "REF",
	})
	var reqErr *UpstreamRequestError
	require.ErrorAs(t, err, &reqErr)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.byTxnID)
	assert.Empty(t, store.byCheckout)
}

func TestQueryPaymentStatusMapsGatewayResults(t *testing.T) {
	tests := []struct {
		name       string
		resultCode string
		resultDesc string
		want       string
	}{
		{"paid", "0", "The service request is processed successfully.", models.PaymentCompleted},
		{"cancelled by user", "1032", "Request cancelled by user", models.PaymentCancelled},
		{"still processing", "", "", models.PaymentPending},
		{"insufficient funds", "1", "The balance is insufficient for the transaction", models.PaymentFailed},
		{"timeout", "1037", "DS timeout user cannot be reached", models.PaymentFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &stubGateway{
				pushResp:  &STKPushResponse{CheckoutRequestID: "ws_CO_9"},
				queryResp: &STKQueryResponse{ResultCode: tt.resultCode, ResultDesc: tt.resultDesc},
			}
			svc, _ := newTestPaymentService(gateway)

			tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
				PhoneNumber: "254712345678",
				Amount:      100,
				Reference:   "REF",
			})
			require.NoError(t, err)

			result, err := svc.QueryPaymentStatus(context.Background(), tx.TransactionID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.Status)
			if tt.want == models.PaymentFailed {
				assert.Contains(t, result.Message, tt.resultDesc)
			}
		})
	}
}

func TestQueryPaymentStatusNeverDowngradesTerminal(t *testing.T) {
	gateway := &stubGateway{
		pushResp:  &STKPushResponse{CheckoutRequestID: "ws_CO_77"},
		queryResp: &STKQueryResponse{ResultCode: "0"},
	}
	svc, _ := newTestPaymentService(gateway)

	tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      100,
		Reference:   "REF",
	})
	require.NoError(t, err)

	result, err := svc.QueryPaymentStatus(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	require.Equal(t, models.PaymentCompleted, result.Status)

	// A late, contradictory gateway answer must not rewrite history
	gateway.queryResp = &STKQueryResponse{ResultCode: "1032", ResultDesc: "Request cancelled by user"}
	result, err = svc.QueryPaymentStatus(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, result.Status)
	assert.Equal(t, "Payment completed successfully", result.Message)
}

func TestQueryPaymentStatusUnknownWithoutCheckoutID(t *testing.T) {
	gateway := &stubGateway{}
	svc, store := newTestPaymentService(gateway)

	tx := &models.PaymentTransaction{
		TransactionID: "TXN_20260830120000_REF_AB12CD",
		PhoneNumber:   "254712345678",
		Amount:        250,
		Reference:     "REF",
		Status:        models.PaymentPending,
	}
	require.NoError(t, store.Put(context.Background(), tx))

	result, err := svc.QueryPaymentStatus(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentUnknown, result.Status)
	assert.Equal(t, "Transaction status unknown", result.Message)

	// No checkout ID means there is nothing to ask the gateway about
	_, queryCalls := gateway.calls()
	assert.Zero(t, queryCalls)
}

func TestQueryPaymentStatusUnknownTransaction(t *testing.T) {
	svc, _ := newTestPaymentService(&stubGateway{})

	_, err := svc.QueryPaymentStatus(context.Background(), "TXN_MISSING")
	assert.True(t, errors.Is(err, ErrTransactionNotFound))
}

func TestHandleCallbackSuccessAppliesMetadata(t *testing.T) {
	gateway := &stubGateway{pushResp: &STKPushResponse{CheckoutRequestID: "ws_CO_500"}}
	svc, store := newTestPaymentService(gateway)

	tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      500,
		Reference:   "REF",
	})
	require.NoError(t, err)

	svc.HandleCallback(context.Background(), "ws_CO_500", "0", "The service request is processed successfully.", []CallbackItem{
		{Name: "Amount", Value: float64(500)},
		{Name: "MpesaReceiptNumber", Value: "QAX123"},
		{Name: "TransactionDate", Value: float64(20260830143000)},
		{Name: "PhoneNumber", Value: float64(254712345678)},
	})

	stored, err := store.GetByTransactionID(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.Equal(t, int64(500), stored.PaidAmount)
	assert.Equal(t, "QAX123", stored.ReceiptNumber)
	assert.Equal(t, "20260830143000", stored.TransactionDate)
}

func TestHandleCallbackFailureRecordsReason(t *testing.T) {
	gateway := &stubGateway{pushResp: &STKPushResponse{CheckoutRequestID: "ws_CO_501"}}
	svc, store := newTestPaymentService(gateway)

	tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      500,
		Reference:   "REF",
	})
	require.NoError(t, err)

	svc.HandleCallback(context.Background(), "ws_CO_501", "1032", "Request cancelled by user", nil)

	stored, err := store.GetByTransactionID(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, stored.Status)
	assert.Equal(t, "Request cancelled by user", stored.FailureReason)
}

func TestHandleCallbackDuplicateDiscarded(t *testing.T) {
	gateway := &stubGateway{pushResp: &STKPushResponse{CheckoutRequestID: "ws_CO_502"}}
	svc, store := newTestPaymentService(gateway)

	tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      500,
		Reference:   "REF",
	})
	require.NoError(t, err)

	svc.HandleCallback(context.Background(), "ws_CO_502", "0", "", []CallbackItem{
		{Name: "MpesaReceiptNumber", Value: "QAX900"},
	})
	// A late failure for the same checkout must lose to the first write
	svc.HandleCallback(context.Background(), "ws_CO_502", "1", "The balance is insufficient", nil)

	stored, err := store.GetByTransactionID(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, stored.Status)
	assert.Equal(t, "QAX900", stored.ReceiptNumber)
	assert.Empty(t, stored.FailureReason)
}

func TestHandleCallbackUnknownCheckoutDiscarded(t *testing.T) {
	svc, store := newTestPaymentService(&stubGateway{})

	// Must not panic or create a record
	svc.HandleCallback(context.Background(), "ws_CO_GHOST", "0", "", nil)

	store.mu.RLock()
	defer store.mu.RUnlock()
	assert.Empty(t, store.byCheckout)
}

func TestConcurrentCallbacksFirstTerminalWins(t *testing.T) {
	gateway := &stubGateway{pushResp: &STKPushResponse{CheckoutRequestID: "ws_CO_RACE"}}
	svc, store := newTestPaymentService(gateway)

	tx, err := svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber: "254712345678",
		Amount:      500,
		Reference:   "REF",
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.HandleCallback(context.Background(), "ws_CO_RACE", "0", "", nil)
		}()
		go func() {
			defer wg.Done()
			svc.HandleCallback(context.Background(), "ws_CO_RACE", "1", "failed", nil)
		}()
	}
	wg.Wait()

	stored, err := store.GetByTransactionID(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	require.True(t, models.IsTerminalPaymentStatus(stored.Status))
	settled := stored.Status

	// Whatever landed first must hold against all later traffic
	svc.HandleCallback(context.Background(), "ws_CO_RACE", "0", "", nil)
	svc.HandleCallback(context.Background(), "ws_CO_RACE", "1", "failed", nil)

	stored, err = store.GetByTransactionID(context.Background(), tx.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, settled, stored.Status)
}

func TestSettleActivatesSubscription(t *testing.T) {
	db := newTestDB(t)

	policy := &models.Policy{
		Name:           "Maize Cover Basic",
		PolicyType:     models.PolicyTypeCrop,
		Coverage:       "Drought, flood",
		BasePremium:    500,
		PremiumRate:    5,
		MinSumInsured:  1000,
		MaxSumInsured:  100000,
		DurationMonths: 12,
		IsActive:       true,
	}
	require.NoError(t, db.Create(policy).Error)

	subscriptions := NewSubscriptionServiceWithDB(db)
	sub, err := subscriptions.Create(CreateSubscriptionRequest{
		FarmerID:   1,
		PolicyID:   policy.ID,
		SumInsured: 50000,
	})
	require.NoError(t, err)
	require.Equal(t, models.SubscriptionPending, sub.Status)

	gateway := &stubGateway{pushResp: &STKPushResponse{CheckoutRequestID: "ws_CO_SETTLE"}}
	svc := NewPaymentService(NewMemoryTransactionStore(), gateway, subscriptions, nil)

	_, err = svc.InitiatePayment(context.Background(), InitiatePaymentRequest{
		PhoneNumber:    "254712345678",
		Amount:         int64(sub.PremiumAmount),
		Reference:      sub.SubscriptionNumber,
		SubscriptionID: &sub.ID,
	})
	require.NoError(t, err)

	svc.HandleCallback(context.Background(), "ws_CO_SETTLE", "0", "", nil)

	activated, err := subscriptions.GetByID(sub.ID)
	require.NoError(t, err)
	assert.True(t, activated.IsPaid)
	assert.NotNil(t, activated.PaidAt)
	assert.Equal(t, models.SubscriptionActive, activated.Status)
}

func TestTransactionIDFormat(t *testing.T) {
	id := newTransactionID("SUB123")
	assert.Regexp(t, `^TXN_\d{14}_SUB123_[0-9A-F]{6}$`, id)
}
