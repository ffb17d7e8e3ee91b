package services

import (
	"context"
	"fmt"
	"time"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/database"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenPair is an access/refresh token set issued at login
type TokenPair struct {
	AccessToken  string `json:"access"`
	RefreshToken string `json:"refresh"`
}

// AuthClaims are the JWT claims carried by both token types
type AuthClaims struct {
	FarmerID    uint   `json:"farmer_id"`
	PhoneNumber string `json:"phone_number"`
	TokenType   string `json:"token_type"` // access or refresh
	jwt.RegisteredClaims
}

// TokenService issues and validates JWTs. Revoked refresh tokens are
// tracked in Redis until their natural expiry.
type TokenService struct {
	secret []byte
	client *redis.Client
}

// NewTokenService creates a token service from the application config
func NewTokenService() *TokenService {
	return &TokenService{
		secret: []byte(config.AppConfig.JWTSecret),
		client: database.GetRedis(),
	}
}

// NewTokenServiceWithClient creates a token service with an explicit
// Redis client
func NewTokenServiceWithClient(secret string, client *redis.Client) *TokenService {
	return &TokenService{secret: []byte(secret), client: client}
}

// IssueTokens returns a fresh access/refresh pair for the farmer
func (s *TokenService) IssueTokens(farmerID uint, phoneNumber string) (*TokenPair, error) {
	access, err := s.sign(farmerID, phoneNumber, "access",
		time.Duration(config.AppConfig.AccessTokenMinutes)*time.Minute)
	if err != nil {
		return nil, err
	}

	refresh, err := s.sign(farmerID, phoneNumber, "refresh",
		time.Duration(config.AppConfig.RefreshTokenHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *TokenService) sign(farmerID uint, phoneNumber, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AuthClaims{
		FarmerID:    farmerID,
		PhoneNumber: phoneNumber,
		TokenType:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a token and checks its type and revocation state
func (s *TokenService) VerifyToken(tokenString, expectedType string) (*AuthClaims, error) {
	claims := &AuthClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("expected %s token, got %s", expectedType, claims.TokenType)
	}

	if expectedType == "refresh" {
		revoked, err := s.isRevoked(claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, fmt.Errorf("token has been revoked")
		}
	}

	return claims, nil
}

// RefreshTokens validates a refresh token, revokes it and issues a new pair
func (s *TokenService) RefreshTokens(refreshToken string) (*TokenPair, error) {
	claims, err := s.VerifyToken(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	// Rotate: the old refresh token cannot be used again.
	if err := s.RevokeRefreshToken(refreshToken); err != nil {
		return nil, err
	}

	return s.IssueTokens(claims.FarmerID, claims.PhoneNumber)
}

// RevokeRefreshToken blacklists a refresh token until its expiry
func (s *TokenService) RevokeRefreshToken(refreshToken string) error {
	claims := &AuthClaims{}
	_, err := jwt.ParseWithClaims(refreshToken, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return fmt.Errorf("invalid token: %w", err)
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil
	}

	ctx := context.Background()
	key := fmt.Sprintf("token_blacklist:%s", claims.ID)
	return s.client.Set(ctx, key, "1", ttl).Err()
}

func (s *TokenService) isRevoked(tokenID string) (bool, error) {
	ctx := context.Background()
	key := fmt.Sprintf("token_blacklist:%s", tokenID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return exists > 0, nil
}
