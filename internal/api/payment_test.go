package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway is a canned MpesaGateway for handler tests
type fakeGateway struct {
	pushResp  *services.STKPushResponse
	pushErr   error
	queryResp *services.STKQueryResponse
	queryErr  error
}

func (g *fakeGateway) InitiateSTKPush(ctx context.Context, phoneNumber string, amount int64, reference, description string) (*services.STKPushResponse, error) {
	if g.pushErr != nil {
		return nil, g.pushErr
	}
	return g.pushResp, nil
}

func (g *fakeGateway) QueryStatus(ctx context.Context, checkoutRequestID string) (*services.STKQueryResponse, error) {
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return g.queryResp, nil
}

func setupPaymentRouter(gateway services.MpesaGateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	SetPaymentService(services.NewPaymentService(
		services.NewMemoryTransactionStore(), gateway, nil, nil))

	r := gin.New()
	r.POST("/api/payments/initiate", InitiatePayment)
	r.POST("/api/payments/status", CheckPaymentStatus)
	r.POST("/api/payments/callback", PaymentCallback)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestInitiatePaymentEndpoint(t *testing.T) {
	r := setupPaymentRouter(&fakeGateway{
		pushResp: &services.STKPushResponse{
			CheckoutRequestID: "ws_CO_555",
			ResponseCode:      "0",
		},
	})

	w := postJSON(t, r, "/api/payments/initiate", gin.H{
		"phone_number": "254712345678",
		"amount":       1500.75,
		"reference":    "SUB20260830ABC123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ws_CO_555", resp.CheckoutRequestID)
	assert.Regexp(t, `^TXN_`, resp.TransactionID)
}

func TestInitiatePaymentEndpointValidation(t *testing.T) {
	r := setupPaymentRouter(&fakeGateway{})

	// Missing required fields
	w := postJSON(t, r, "/api/payments/initiate", gin.H{"amount": 100})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Phone format rejected by the orchestrator
	w = postJSON(t, r, "/api/payments/initiate", gin.H{
		"phone_number": "0712345678",
		"amount":       100,
		"reference":    "REF",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "phone_number")
}

func TestInitiatePaymentEndpointUpstreamFailure(t *testing.T) {
	r := setupPaymentRouter(&fakeGateway{
		pushErr: &services.UpstreamAuthError{StatusCode: 401},
	})

	w := postJSON(t, r, "/api/payments/initiate", gin.H{
		"phone_number": "254712345678",
		"amount":       100,
		"reference":    "REF",
	})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestPaymentCallbackFlow(t *testing.T) {
	gateway := &fakeGateway{
		pushResp:  &services.STKPushResponse{CheckoutRequestID: "ws_CO_700"},
		queryResp: &services.STKQueryResponse{ResultCode: "1", ResultDesc: "insufficient balance"},
	}
	r := setupPaymentRouter(gateway)

	w := postJSON(t, r, "/api/payments/initiate", gin.H{
		"phone_number": "254712345678",
		"amount":       500,
		"reference":    "REF",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var initResp PaymentResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &initResp))

	// Gateway notifies completion, ResultCode as a JSON number
	w = postJSON(t, r, "/api/payments/callback", gin.H{
		"Body": gin.H{
			"stkCallback": gin.H{
				"MerchantRequestID": "merch-1",
				"CheckoutRequestID": "ws_CO_700",
				"ResultCode":        0,
				"ResultDesc":        "The service request is processed successfully.",
				"CallbackMetadata": gin.H{
					"Item": []gin.H{
						{"Name": "Amount", "Value": 500},
						{"Name": "MpesaReceiptNumber", "Value": "QAX123"},
					},
				},
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received"`)

	// A contradictory later gateway answer must not shake the settled state
	w = postJSON(t, r, "/api/payments/status", gin.H{"transaction_id": initResp.TransactionID})
	require.Equal(t, http.StatusOK, w.Code)

	var statusResp StatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &statusResp))
	assert.Equal(t, "completed", statusResp.Status)
	assert.Equal(t, "Payment completed successfully", statusResp.Message)
}

func TestPaymentCallbackMalformedEnvelope(t *testing.T) {
	r := setupPaymentRouter(&fakeGateway{})

	req := httptest.NewRequest(http.MethodPost, "/api/payments/callback", bytes.NewBufferString("not-json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"rejected"`)
}

func TestPaymentCallbackUnknownCheckoutStillAcknowledged(t *testing.T) {
	r := setupPaymentRouter(&fakeGateway{})

	w := postJSON(t, r, "/api/payments/callback", gin.H{
		"Body": gin.H{
			"stkCallback": gin.H{
				"CheckoutRequestID": "ws_CO_GHOST",
				"ResultCode":        "0",
				"ResultDesc":        "ok",
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"received"`)
}

func TestCheckPaymentStatusUnknownTransaction(t *testing.T) {
	r := setupPaymentRouter(&fakeGateway{})

	w := postJSON(t, r, "/api/payments/status", gin.H{"transaction_id": "TXN_MISSING"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestResultCodeString(t *testing.T) {
	assert.Equal(t, "0", resultCodeString(float64(0)))
	assert.Equal(t, "1032", resultCodeString(float64(1032)))
	assert.Equal(t, "0", resultCodeString("0"))
	assert.Equal(t, "", resultCodeString(nil))
}
