package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kc-allan/at-insurance/internal/database"
	"github.com/kc-allan/at-insurance/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrPhoneAlreadyRegistered is returned when registering a phone number
// that already has an account.
var ErrPhoneAlreadyRegistered = errors.New("phone number already registered")

// ErrInvalidCredentials is returned on a failed login attempt.
var ErrInvalidCredentials = errors.New("invalid phone number or password")

var rawPhonePattern = regexp.MustCompile(`^(\+?254|0)?\d{9}$`)

// NormalizePhoneNumber converts accepted input formats (+254712345678,
// 0712345678, 254712345678) to the canonical digits-only 254 form.
func NormalizePhoneNumber(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	phone = strings.ReplaceAll(phone, " ", "")
	if !rawPhonePattern.MatchString(phone) {
		return "", &ValidationError{Field: "phone_number", Message: "must be in format +254712345678 or 0712345678"}
	}

	phone = strings.TrimPrefix(phone, "+")
	if strings.HasPrefix(phone, "0") {
		phone = "254" + phone[1:]
	}
	if !strings.HasPrefix(phone, "254") {
		phone = "254" + phone
	}
	return phone, nil
}

// FarmerService provides farmer account operations
type FarmerService struct {
	db *gorm.DB
}

// NewFarmerService creates a new farmer service
func NewFarmerService() *FarmerService {
	return &FarmerService{db: database.GetDB()}
}

// NewFarmerServiceWithDB creates a farmer service with an explicit database
func NewFarmerServiceWithDB(db *gorm.DB) *FarmerService {
	return &FarmerService{db: db}
}

// Register creates a new farmer account with a hashed password
func (s *FarmerService) Register(farmer *models.Farmer, password string) error {
	phone, err := NormalizePhoneNumber(farmer.PhoneNumber)
	if err != nil {
		return err
	}
	farmer.PhoneNumber = phone

	if len(password) < 6 {
		return &ValidationError{Field: "password", Message: "must be at least 6 characters"}
	}

	var count int64
	if err := s.db.Model(&models.Farmer{}).Where("phone_number = ?", phone).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrPhoneAlreadyRegistered
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	farmer.PasswordHash = string(hash)

	if err := s.db.Create(farmer).Error; err != nil {
		return fmt.Errorf("failed to create farmer: %w", err)
	}
	return nil
}

// Authenticate checks credentials and records the login time
func (s *FarmerService) Authenticate(phoneNumber, password string) (*models.Farmer, error) {
	phone, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	var farmer models.Farmer
	if err := s.db.Where("phone_number = ?", phone).First(&farmer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(farmer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	farmer.LastLoginAt = &now
	if err := s.db.Model(&farmer).Update("last_login_at", &now).Error; err != nil {
		return nil, err
	}

	return &farmer, nil
}

// GetByID returns a farmer by primary key
func (s *FarmerService) GetByID(id uint) (*models.Farmer, error) {
	var farmer models.Farmer
	if err := s.db.First(&farmer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &farmer, nil
}

// GetByPhone returns a farmer by normalized phone number
func (s *FarmerService) GetByPhone(phoneNumber string) (*models.Farmer, error) {
	phone, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return nil, err
	}

	var farmer models.Farmer
	if err := s.db.Where("phone_number = ?", phone).First(&farmer).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &farmer, nil
}

// UpdateProfile applies a partial update to the farmer's profile fields
func (s *FarmerService) UpdateProfile(id uint, updates map[string]interface{}) (*models.Farmer, error) {
	// Password and identity fields are changed through dedicated flows only
	delete(updates, "password_hash")
	delete(updates, "phone_number")
	delete(updates, "is_verified")

	result := s.db.Model(&models.Farmer{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update profile: %w", result.Error)
	}

	return s.GetByID(id)
}

// MarkVerified flags the account as phone-verified after OTP confirmation
func (s *FarmerService) MarkVerified(phoneNumber string) error {
	phone, err := NormalizePhoneNumber(phoneNumber)
	if err != nil {
		return err
	}

	return s.db.Model(&models.Farmer{}).
		Where("phone_number = ?", phone).
		Update("is_verified", true).Error
}
