// Package notes persists Note records. The store does not enforce one note
// per (document, anchor); the library keeps that invariant by
// find-or-create on save.
package notes

import (
	"context"

	"github.com/dmitrijs2005/booknook/internal/models"
)

type Repository interface {
	Put(ctx context.Context, n *models.Note) error
	Get(ctx context.Context, id string) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	// ListByDocument returns a document's notes, most recently updated first.
	ListByDocument(ctx context.Context, documentID string) ([]models.Note, error)
	// GetByAnchor returns the most recently updated note at anchor.
	GetByAnchor(ctx context.Context, documentID, anchor string) (*models.Note, error)
	DeleteByDocument(ctx context.Context, documentID string) error
	// ListAll returns every note ordered by id.
	ListAll(ctx context.Context) ([]models.Note, error)
}
