package models

import "time"

// Folder groups documents under a user-chosen title.
type Folder struct {
	ID    string `json:"id"`
	Title string `json:"title"`

	// CoverDocumentID points at a document of this folder used as the cover.
	CoverDocumentID string `json:"coverDocumentId,omitempty"`
	// CoverImage is a data:image/... URI. Independent of CoverDocumentID.
	CoverImage string `json:"coverImage,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
