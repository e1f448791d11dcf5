// Package folders persists Folder records.
package folders

import (
	"context"

	"github.com/dmitrijs2005/booknook/internal/models"
)

type Repository interface {
	Put(ctx context.Context, f *models.Folder) error
	Get(ctx context.Context, id string) (*models.Folder, error)
	Delete(ctx context.Context, id string) error
	// List returns folders, most recently updated first.
	List(ctx context.Context) ([]models.Folder, error)
	// ListAll returns every folder ordered by id.
	ListAll(ctx context.Context) ([]models.Folder, error)
}
