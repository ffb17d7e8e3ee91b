package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kc-allan/at-insurance/internal/middleware"
	"github.com/kc-allan/at-insurance/internal/models"
	"github.com/kc-allan/at-insurance/internal/response"
	"github.com/kc-allan/at-insurance/internal/services"

	"github.com/gin-gonic/gin"
)

// UploadDocument stores an uploaded file and records its metadata.
// Multipart form fields: file (required), document_type (required),
// description, subscription_id, claim_id.
func UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.ErrorJSON(c, http.StatusBadRequest, "Missing file upload")
		return
	}

	documentType := c.PostForm("document_type")
	if documentType == "" {
		response.ErrorJSON(c, http.StatusBadRequest, "document_type is required")
		return
	}

	documentService := services.NewDocumentService()

	path, err := documentService.BuildStoragePath(fileHeader.Filename)
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to prepare storage")
		return
	}

	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to save file")
		return
	}

	doc := &models.Document{
		FarmerID:       middleware.FarmerID(c),
		SubscriptionID: optionalUintForm(c, "subscription_id"),
		ClaimID:        optionalUintForm(c, "claim_id"),
		DocumentType:   documentType,
		FileName:       fileHeader.Filename,
		FilePath:       path,
		ContentType:    fileHeader.Header.Get("Content-Type"),
		SizeBytes:      fileHeader.Size,
		Description:    c.PostForm("description"),
	}

	if err := documentService.Create(doc); err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			response.ErrorJSON(c, http.StatusBadRequest, validationErr.Error())
			return
		}
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to record document")
		return
	}

	response.CreatedJSON(c, "Document uploaded successfully", doc)
}

// ListMyDocuments returns the authenticated farmer's documents
func ListMyDocuments(c *gin.Context) {
	docs, err := services.NewDocumentService().ListByFarmer(middleware.FarmerID(c))
	if err != nil {
		response.ErrorJSON(c, http.StatusInternalServerError, "Failed to list documents")
		return
	}
	response.SuccessJSON(c, docs)
}

func optionalUintForm(c *gin.Context, field string) *uint {
	value := c.PostForm(field)
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return nil
	}
	id := uint(parsed)
	return &id
}
