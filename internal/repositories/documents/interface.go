// Package documents persists Document records.
package documents

import (
	"context"

	"github.com/dmitrijs2005/booknook/internal/models"
)

type Repository interface {
	Put(ctx context.Context, d *models.Document) error
	Get(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) error
	// ListByFolder returns a folder's documents, most recently updated first.
	ListByFolder(ctx context.Context, folderID string) ([]models.Document, error)
	// ListAll returns every document ordered by id.
	ListAll(ctx context.Context) ([]models.Document, error)
	// BlobPaths returns the set of blob paths referenced by any document.
	BlobPaths(ctx context.Context) (map[string]struct{}, error)
}
