package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kc-allan/at-insurance/internal/config"
)

const (
	mpesaSandboxURL    = "https://sandbox.safaricom.co.ke"
	mpesaProductionURL = "https://api.safaricom.co.ke"
)

// MpesaGateway is the interface the payment orchestrator talks to.
// QueryStatus and AcquireToken are safe to retry; InitiateSTKPush is not,
// since every call triggers a real prompt on the customer's phone.
type MpesaGateway interface {
	InitiateSTKPush(ctx context.Context, phoneNumber string, amount int64, reference, description string) (*STKPushResponse, error)
	QueryStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error)
}

// STKPushResponse is the gateway acknowledgment for an initiated push payment
type STKPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
}

// STKQueryResponse is the gateway's answer to a status query. ResultCode
// "0" means paid, "1032" means the user cancelled the prompt, any other
// non-empty code is a failure. An empty ResultCode means the push is
// still being processed.
type STKQueryResponse struct {
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	ResultCode          string `json:"ResultCode"`
	ResultDesc          string `json:"ResultDesc"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   string `json:"expires_in"`
}

// MpesaClient talks to the Safaricom Daraja API
type MpesaClient struct {
	httpClient *http.Client

	consumerKey    string
	consumerSecret string
	passkey        string
	shortcode      string
	callbackURL    string
	baseURL        string
}

// NewMpesaClient creates a client from the application configuration
func NewMpesaClient() *MpesaClient {
	cfg := config.AppConfig
	baseURL := mpesaSandboxURL
	if cfg.MpesaEnvironment == "production" {
		baseURL = mpesaProductionURL
	}

	return &MpesaClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		consumerKey:    cfg.MpesaConsumerKey,
		consumerSecret: cfg.MpesaConsumerSecret,
		passkey:        cfg.MpesaPasskey,
		shortcode:      cfg.MpesaShortcode,
		callbackURL:    cfg.MpesaCallbackURL,
		baseURL:        baseURL,
	}
}

// AcquireToken fetches a short-lived bearer token. Daraja does not
// document token expiry, so a fresh token is acquired for every call
// rather than cached.
func (c *MpesaClient) AcquireToken(ctx context.Context) (string, error) {
	url := c.baseURL + "/oauth/v1/generate?grant_type=client_credentials"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &UpstreamAuthError{Err: err}
	}
	req.SetBasicAuth(c.consumerKey, c.consumerSecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &UpstreamAuthError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &UpstreamAuthError{StatusCode: resp.StatusCode}
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", &UpstreamAuthError{Err: fmt.Errorf("malformed token response: %w", err)}
	}
	if token.AccessToken == "" {
		return "", &UpstreamAuthError{Err: fmt.Errorf("empty access token in response")}
	}

	return token.AccessToken, nil
}

// password derives the Daraja request password for the given timestamp
func (c *MpesaClient) password() (string, string) {
	timestamp := time.Now().Format("20060102150405")
	raw := c.shortcode + c.passkey + timestamp
	return base64.StdEncoding.EncodeToString([]byte(raw)), timestamp
}

// InitiateSTKPush triggers a payment prompt on the customer's phone
func (c *MpesaClient) InitiateSTKPush(ctx context.Context, phoneNumber string, amount int64, reference, description string) (*STKPushResponse, error) {
	token, err := c.AcquireToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.password()
	payload := map[string]interface{}{
		"BusinessShortCode": c.shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"TransactionType":   "CustomerPayBillOnline",
		"Amount":            amount,
		"PartyA":            phoneNumber,
		"PartyB":            c.shortcode,
		"PhoneNumber":       phoneNumber,
		"CallBackURL":       c.callbackURL,
		"AccountReference":  reference,
		"TransactionDesc":   description,
	}

	var out STKPushResponse
	if err := c.postJSON(ctx, "/mpesa/stkpush/v1/processrequest", token, payload, &out, "stk push"); err != nil {
		return nil, err
	}
	return &out, nil
}

// QueryStatus asks the gateway for the outcome of a previously initiated
// push payment
func (c *MpesaClient) QueryStatus(ctx context.Context, checkoutRequestID string) (*STKQueryResponse, error) {
	token, err := c.AcquireToken(ctx)
	if err != nil {
		return nil, err
	}

	password, timestamp := c.password()
	payload := map[string]interface{}{
		"BusinessShortCode": c.shortcode,
		"Password":          password,
		"Timestamp":         timestamp,
		"CheckoutRequestID": checkoutRequestID,
	}

	var out STKQueryResponse
	if err := c.postJSON(ctx, "/mpesa/stkpushquery/v1/query", token, payload, &out, "status query"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *MpesaClient) postJSON(ctx context.Context, path, token string, payload interface{}, out interface{}, op string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &UpstreamRequestError{Op: op, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewBuffer(body))
	if err != nil {
		return &UpstreamRequestError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &UpstreamRequestError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &UpstreamRequestError{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &UpstreamRequestError{Op: op, Err: fmt.Errorf("malformed response: %w", err)}
	}
	return nil
}
