// Package blobstore keeps raw document files addressed by relative,
// "/"-separated paths. The library writes a blob before the record that
// points at it, so a blob without a record is possible (an orphan) while a
// record without a blob is not.
package blobstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/common"
)

// Store is durable storage for opaque byte payloads.
type Store interface {
	// Put writes data at path, replacing any previous content. Missing
	// intermediate segments are created.
	Put(ctx context.Context, path string, data []byte) error
	// Get returns the payload at path or common.ErrorNotFound.
	Get(ctx context.Context, path string) ([]byte, error)
	// Delete removes path. Removing an absent path is not an error.
	Delete(ctx context.Context, path string) error
	// List returns every stored path starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// ValidatePath checks that p is relative, "/"-separated and free of empty,
// "." and ".." segments.
func ValidatePath(p string) error {
	if p == "" {
		return fmt.Errorf("%w: empty blob path", common.ErrorValidation)
	}
	if strings.ContainsRune(p, '\\') {
		return fmt.Errorf("%w: blob path %q must use '/'", common.ErrorValidation, p)
	}
	for _, seg := range strings.Split(p, "/") {
		switch seg {
		case "", ".", "..":
			return fmt.Errorf("%w: bad segment in blob path %q", common.ErrorValidation, p)
		}
	}
	return nil
}
