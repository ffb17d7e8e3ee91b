package services

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kc-allan/at-insurance/internal/config"
)

// SMSService sends text messages through the Africa's Talking API
type SMSService struct {
	httpClient *http.Client

	username string
	apiKey   string
	senderID string
	baseURL  string
}

// NewSMSService creates a new SMS service instance
func NewSMSService() *SMSService {
	cfg := config.AppConfig
	return &SMSService{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		username: cfg.ATUsername,
		apiKey:   cfg.ATAPIKey,
		senderID: cfg.ATSenderID,
		baseURL:  cfg.ATBaseURL,
	}
}

// SendOTPSMS sends a verification code to the given phone number
func (s *SMSService) SendOTPSMS(phoneNumber, code string) error {
	message := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
		code, config.AppConfig.OTPExpireMinutes)
	return s.Send(phoneNumber, message)
}

// Send delivers one message via the Africa's Talking messaging endpoint
func (s *SMSService) Send(phoneNumber, message string) error {
	form := url.Values{}
	form.Set("username", s.username)
	form.Set("to", "+"+strings.TrimPrefix(phoneNumber, "+"))
	form.Set("message", message)
	if s.senderID != "" {
		form.Set("from", s.senderID)
	}

	req, err := http.NewRequest(http.MethodPost, s.baseURL+"/version1/messaging", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create SMS request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("apiKey", s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sms API error: status %d", resp.StatusCode)
	}

	return nil
}
