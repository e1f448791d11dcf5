// Package library implements the aggregate operations of a BookNook
// library: folders, document import and deletion, reading positions, notes,
// backups and blob maintenance. Each operation keeps the metadata store and
// the blob store consistent in a fixed order: blobs are written before the
// records that reference them and removed after the records are gone.
package library

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/booknook/internal/blobstore"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/logging"
	"github.com/dmitrijs2005/booknook/internal/metastore"
	"github.com/google/uuid"
)

// DocsPrefix is the blob namespace of imported documents.
const DocsPrefix = "docs/"

type Service struct {
	blobs blobstore.Store
	meta  *metastore.Manager
	log   logging.Logger
	clock func() time.Time
	newID func() string
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) { s.clock = fn }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

func New(blobs blobstore.Store, meta *metastore.Manager, log logging.Logger, opts ...Option) *Service {
	s := &Service{
		blobs: blobs,
		meta:  meta,
		log:   log.With("component", "library"),
		clock: time.Now,
		newID: uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Round(0)
}

// touch returns the current time, or just after prev when the clock has not
// moved past it, so UpdatedAt never goes backwards.
func (s *Service) touch(prev time.Time) time.Time {
	t := s.now()
	if !t.After(prev) {
		t = prev.Add(time.Nanosecond)
	}
	return t
}

// fail adds context to err. Errors that are not already classified as
// not-found or validation failures are marked as storage errors.
func fail(msg string, err error) error {
	if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorValidation) || errors.Is(err, common.ErrorStorage) {
		return fmt.Errorf("%s: %w", msg, err)
	}
	return fmt.Errorf("%s: %w: %w", msg, common.ErrorStorage, err)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrorValidation, fmt.Sprintf(format, args...))
}

// Cleanup is the outcome of a best-effort blob removal performed after a
// delete was committed. A non-nil Err leaves an orphan blob behind; the
// operation itself still succeeded.
type Cleanup struct {
	DocumentID string
	BlobPath   string
	Err        error
}

func (c Cleanup) Failed() bool {
	return c.Err != nil
}

// Failures returns the failed cleanups in cs.
func Failures(cs []Cleanup) []Cleanup {
	var out []Cleanup
	for _, c := range cs {
		if c.Failed() {
			out = append(out, c)
		}
	}
	return out
}
