// Package kyc uploads identity documents and reports verification status.
package kyc

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/coinvest/coinvest/internal/apiclient"
	"github.com/coinvest/coinvest/internal/forms"
)

// Document types accepted by /kyc/upload.
const (
	TypePassport       = "passport"
	TypeNationalID     = "national_id"
	TypeDriversLicense = "drivers_license"
	TypeProofOfAddress = "proof_of_address"
)

// Verification states, per document and overall.
const (
	StatusNotSubmitted = "not_submitted"
	StatusPending      = "pending"
	StatusApproved     = "approved"
	StatusRejected     = "rejected"
)

// MaxFileSize is the largest document accepted for upload.
const MaxFileSize = 5 << 20

var (
	documentTypes = map[string]bool{
		TypePassport:       true,
		TypeNationalID:     true,
		TypeDriversLicense: true,
		TypeProofOfAddress: true,
	}
	allowedExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".pdf": true}
)

// Document is an uploaded file and its review state.
type Document struct {
	ID              int64     `json:"id"`
	DocumentType    string    `json:"document_type"`
	Status          string    `json:"status"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// OverallStatus folds document states into one: any approval verifies the
// account, otherwise a pending review wins over rejections.
func OverallStatus(docs []Document) string {
	if len(docs) == 0 {
		return StatusNotSubmitted
	}
	pending := false
	for _, d := range docs {
		switch d.Status {
		case StatusApproved:
			return StatusApproved
		case StatusPending:
			pending = true
		}
	}
	if pending {
		return StatusPending
	}
	return StatusRejected
}

// API is the subset of the HTTP client the service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	PostMultipart(ctx context.Context, path string, fields map[string]string, file apiclient.FilePart, out any) error
}

type Service struct {
	api    API
	logger *slog.Logger
}

func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger}
}

// Upload sends one document. size is the file length when known, or -1.
func (s *Service) Upload(ctx context.Context, documentType, filename string, size int64, content io.Reader) (Document, error) {
	fields := map[string]string{}
	if !documentTypes[documentType] {
		fields["document_type"] = "must be one of passport, national_id, drivers_license, proof_of_address"
	}
	if !allowedExtensions[strings.ToLower(filepath.Ext(filename))] {
		fields["file"] = "must be a jpg, png or pdf file"
	} else if size > MaxFileSize {
		fields["file"] = "must be at most 5 MB"
	}
	if len(fields) > 0 {
		return Document{}, &forms.ValidationError{Fields: fields}
	}

	var doc Document
	err := s.api.PostMultipart(ctx, "/kyc/upload",
		map[string]string{"document_type": documentType},
		apiclient.FilePart{Field: "file", Filename: filepath.Base(filename), Content: io.LimitReader(content, MaxFileSize+1)},
		&doc)
	if err != nil {
		return Document{}, fmt.Errorf("upload kyc document: %w", err)
	}
	return doc, nil
}

// Documents lists uploaded documents. Failures are logged and yield an
// empty list so the KYC screen still renders.
func (s *Service) Documents(ctx context.Context) []Document {
	var docs []Document
	if err := s.api.Get(ctx, "/kyc/documents", &docs); err != nil {
		s.logger.Warn("list kyc documents", "error", err)
		return []Document{}
	}
	return docs
}
