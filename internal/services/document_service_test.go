package services

import (
	"testing"

	"github.com/kc-allan/at-insurance/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildStoragePath(t *testing.T) {
	setTestConfig(t)
	svc := NewDocumentServiceWithDB(newTestDB(t))

	path, err := svc.BuildStoragePath("evidence.jpg")
	require.NoError(t, err)
	assert.Contains(t, path, ".jpg")
	// Stored names are generated; the original name must not leak
	assert.NotContains(t, path, "evidence")

	other, err := svc.BuildStoragePath("evidence.jpg")
	require.NoError(t, err)
	assert.NotEqual(t, path, other)
}

func TestCreateDocumentValidatesType(t *testing.T) {
	setTestConfig(t)
	db := newTestDB(t)
	svc := NewDocumentServiceWithDB(db)

	err := svc.Create(&models.Document{
		FarmerID:     1,
		DocumentType: "passport_scan",
		FileName:     "x.pdf",
		FilePath:     "/tmp/x.pdf",
	})
	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "document_type", validationErr.Field)

	require.NoError(t, svc.Create(&models.Document{
		FarmerID:     1,
		DocumentType: models.DocumentLossEvidence,
		FileName:     "x.pdf",
		FilePath:     "/tmp/x.pdf",
	}))

	docs, err := svc.ListByFarmer(1)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}
