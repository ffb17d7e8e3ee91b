package services

import (
	"context"
	"crypto/rand"
	"fmt"
	"time"

	"github.com/kc-allan/at-insurance/internal/database"

	"github.com/redis/go-redis/v9"
)

// OTPService manages phone verification codes in Redis
type OTPService struct {
	client *redis.Client
}

// NewOTPService creates an OTP service backed by the shared Redis client
func NewOTPService() *OTPService {
	return &OTPService{client: database.GetRedis()}
}

// NewOTPServiceWithClient creates an OTP service with an explicit client
func NewOTPServiceWithClient(client *redis.Client) *OTPService {
	return &OTPService{client: client}
}

// GenerateCode generates a 6-digit verification code
func (s *OTPService) GenerateCode() (string, error) {
	bytes := make([]byte, 3)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	code := (int(bytes[0])<<16 | int(bytes[1])<<8 | int(bytes[2])) % 1000000
	return fmt.Sprintf("%06d", code), nil
}

// StoreCode stores a verification code for the phone number with a TTL
func (s *OTPService) StoreCode(phoneNumber, code string, expireMinutes int) error {
	ctx := context.Background()
	key := fmt.Sprintf("otp:%s", phoneNumber)

	data := map[string]interface{}{
		"code":       code,
		"created_at": time.Now().Unix(),
	}

	expire := time.Duration(expireMinutes) * time.Minute
	if err := s.client.HSet(ctx, key, data).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, expire).Err()
}

// GetCode returns the stored verification code for the phone number
func (s *OTPService) GetCode(phoneNumber string) (string, error) {
	ctx := context.Background()
	key := fmt.Sprintf("otp:%s", phoneNumber)

	code, err := s.client.HGet(ctx, key, "code").Result()
	if err != nil {
		if err == redis.Nil {
			return "", fmt.Errorf("verification code not found or expired")
		}
		return "", err
	}

	return code, nil
}

// DeleteCode consumes the verification code
func (s *OTPService) DeleteCode(phoneNumber string) error {
	ctx := context.Background()
	return s.client.Del(ctx, fmt.Sprintf("otp:%s", phoneNumber)).Err()
}

// SetRateLimit blocks further code requests for the phone number
func (s *OTPService) SetRateLimit(phoneNumber string, limitMinutes int) error {
	ctx := context.Background()
	key := fmt.Sprintf("otp_rate_limit:%s", phoneNumber)
	expire := time.Duration(limitMinutes) * time.Minute
	return s.client.Set(ctx, key, "1", expire).Err()
}

// CheckRateLimit reports whether the phone number is rate limited
func (s *OTPService) CheckRateLimit(phoneNumber string) (bool, error) {
	ctx := context.Background()
	key := fmt.Sprintf("otp_rate_limit:%s", phoneNumber)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return exists > 0, nil
}
