// Package metadata stores library-level key/value facts such as the time of
// the last backup export or import.
package metadata

import (
	"context"
)

const (
	KeyLastExportAt = "last_export_at"
	KeyLastImportAt = "last_import_at"
)

type Repository interface {
	// Get returns "" and no error when key is absent.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	List(ctx context.Context) (map[string]string, error)
}
