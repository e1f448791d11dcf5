package models

import (
	"path"
	"strings"
	"time"
)

// DocumentType is the file format of an imported document.
type DocumentType string

const (
	DocumentTypePDF  DocumentType = "pdf"
	DocumentTypeEPUB DocumentType = "epub"
)

const (
	MIMEPDF  = "application/pdf"
	MIMEEPUB = "application/epub+zip"
)

// Valid reports whether t is one of the supported formats.
func (t DocumentType) Valid() bool {
	return t == DocumentTypePDF || t == DocumentTypeEPUB
}

// DefaultMIME returns the canonical MIME type for t.
func (t DocumentType) DefaultMIME() string {
	switch t {
	case DocumentTypePDF:
		return MIMEPDF
	case DocumentTypeEPUB:
		return MIMEEPUB
	}
	return "application/octet-stream"
}

// DetectType guesses the document type from a MIME type first and the file
// extension second. It returns "" when neither is recognized.
func DetectType(fileName, mime string) DocumentType {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case MIMEPDF:
		return DocumentTypePDF
	case MIMEEPUB:
		return DocumentTypeEPUB
	}
	switch strings.ToLower(path.Ext(fileName)) {
	case ".pdf":
		return DocumentTypePDF
	case ".epub":
		return DocumentTypeEPUB
	}
	return ""
}

// Document is one imported file. The raw bytes live in the blob store under
// BlobPath.
type Document struct {
	ID       string       `json:"id"`
	FolderID string       `json:"folderId"`
	Title    string       `json:"title"`
	Type     DocumentType `json:"type"`
	MIME     string       `json:"mime"`
	Size     int64        `json:"size"`
	BlobPath string       `json:"blobPath"`

	// LastLocation is the reading position: the page number for PDF, the
	// opaque renderer token for EPUB. Empty until the document is opened.
	LastLocation string `json:"lastLocation,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
