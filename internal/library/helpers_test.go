package library

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/blobstore"
	"github.com/dmitrijs2005/booknook/internal/logging"
	"github.com/dmitrijs2005/booknook/internal/metastore"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// faultyStore wraps a Store and injects failures.
type faultyStore struct {
	blobstore.Store
	putErr    error
	getErr    error
	deleteErr error
	afterPut  func()
}

func (f *faultyStore) Put(ctx context.Context, p string, data []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	if err := f.Store.Put(ctx, p, data); err != nil {
		return err
	}
	if f.afterPut != nil {
		f.afterPut()
	}
	return nil
}

func (f *faultyStore) Get(ctx context.Context, p string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Store.Get(ctx, p)
}

func (f *faultyStore) Delete(ctx context.Context, p string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Store.Delete(ctx, p)
}

type fixture struct {
	svc   *Service
	meta  *metastore.Manager
	blobs *faultyStore
	clock *fakeClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	meta := metastore.New(filepath.Join(t.TempDir(), "library.db"), logging.Discard())
	t.Cleanup(func() { _ = meta.Close() })

	blobs := &faultyStore{Store: blobstore.NewMemory()}
	clock := newFakeClock()
	svc := New(blobs, meta, logging.Discard(), WithClock(clock.Now))

	return &fixture{svc: svc, meta: meta, blobs: blobs, clock: clock}
}

func (fx *fixture) folder(t *testing.T, title string) *models.Folder {
	t.Helper()
	f, err := fx.svc.CreateFolder(context.Background(), title)
	require.NoError(t, err)
	return f
}

func (fx *fixture) pdf(t *testing.T, folderID, name string, size int) *models.Document {
	t.Helper()
	d, err := fx.svc.ImportDocument(context.Background(), ImportRequest{
		FolderID: folderID,
		FileName: name,
		Data:     make([]byte, size),
	})
	require.NoError(t, err)
	return d
}

func (fx *fixture) epub(t *testing.T, folderID, name string) *models.Document {
	t.Helper()
	d, err := fx.svc.ImportDocument(context.Background(), ImportRequest{
		FolderID: folderID,
		FileName: name,
		Type:     models.DocumentTypeEPUB,
		Data:     []byte("PK\x03\x04"),
	})
	require.NoError(t, err)
	return d
}

func page(t *testing.T, n int) anchor.Anchor {
	t.Helper()
	a, err := anchor.Page(n)
	require.NoError(t, err)
	return a
}
