package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kc-allan/at-insurance/internal/config"
	"github.com/kc-allan/at-insurance/internal/database"
	"github.com/kc-allan/at-insurance/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var validDocumentTypes = map[string]bool{
	models.DocumentIDCard:           true,
	models.DocumentFarmPhoto:        true,
	models.DocumentOwnershipDoc:     true,
	models.DocumentLossEvidence:     true,
	models.DocumentAssessmentReport: true,
	models.DocumentReceipt:          true,
	models.DocumentOther:            true,
}

// DocumentService provides document metadata operations. File contents
// are written by the handler; this service owns paths and records.
type DocumentService struct {
	db *gorm.DB
}

// NewDocumentService creates a new document service
func NewDocumentService() *DocumentService {
	return &DocumentService{db: database.GetDB()}
}

// NewDocumentServiceWithDB creates a document service with an explicit
// database
func NewDocumentServiceWithDB(db *gorm.DB) *DocumentService {
	return &DocumentService{db: db}
}

// BuildStoragePath returns a unique path under the upload directory,
// partitioned by date, and ensures the directory exists.
func (s *DocumentService) BuildStoragePath(originalName string) (string, error) {
	dir := filepath.Join(config.AppConfig.UploadDir, time.Now().Format("2006/01/02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	name := uuid.NewString() + filepath.Ext(originalName)
	return filepath.Join(dir, name), nil
}

// Create validates and records an uploaded document
func (s *DocumentService) Create(doc *models.Document) error {
	if !validDocumentTypes[doc.DocumentType] {
		return &ValidationError{Field: "document_type", Message: "unknown document type"}
	}

	if err := s.db.Create(doc).Error; err != nil {
		return fmt.Errorf("failed to record document: %w", err)
	}
	return nil
}

// ListByFarmer returns the farmer's documents, newest first
func (s *DocumentService) ListByFarmer(farmerID uint) ([]models.Document, error) {
	var docs []models.Document
	err := s.db.Where("farmer_id = ?", farmerID).
		Order("created_at desc").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	return docs, nil
}

// GetByID returns one document record
func (s *DocumentService) GetByID(id uint) (*models.Document, error) {
	var doc models.Document
	if err := s.db.First(&doc, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}
