package models

import "time"

// Note is rich-text content attached to a document at an anchor
// ("doc", "pdf:N" or "epub:<token>"). HTML is stored as-is.
type Note struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"documentId"`
	Anchor     string    `json:"anchor"`
	Title      string    `json:"title"`
	HTML       string    `json:"html"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
