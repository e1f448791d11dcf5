package metastore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/logging"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T) *Manager {
	t.Helper()
	m := New(filepath.Join(t.TempDir(), "data", "library.db"), logging.Discard())
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func sample(ts time.Time) ([]models.Folder, []models.Document, []models.Note) {
	fs := []models.Folder{{ID: "f1", Title: "Textbooks", CreatedAt: ts, UpdatedAt: ts}}
	ds := []models.Document{{
		ID: "d1", FolderID: "f1", Title: "Ch1", Type: models.DocumentTypePDF,
		MIME: models.MIMEPDF, Size: 3, BlobPath: "docs/d1-Ch1.pdf", CreatedAt: ts, UpdatedAt: ts,
	}}
	ns := []models.Note{{
		ID: "n1", DocumentID: "d1", Anchor: "pdf:12", Title: "t", HTML: "<p>x</p>",
		CreatedAt: ts, UpdatedAt: ts,
	}}
	return fs, ds, ns
}

func TestDB_OpensLazilyAndCreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "library.db")
	m := New(path, logging.Discard())
	defer m.Close()

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err), "nothing must be created before first use")

	db, err := m.DB(context.Background())
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	again, err := m.DB(context.Background())
	require.NoError(t, err)
	assert.Same(t, db, again)

	_, err = os.Stat(path)
	require.NoError(t, err)
}

func TestDB_ReopensAfterClose(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()

	r, err := m.Repos(ctx)
	require.NoError(t, err)
	require.NoError(t, r.Metadata.Set(ctx, "k", "v"))
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	r, err = m.Repos(ctx)
	require.NoError(t, err)
	v, err := r.Metadata.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)
}

func TestDB_OpenFailureIsRetried(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocked")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

	m := New(filepath.Join(blocker, "library.db"), logging.Discard())
	_, err := m.DB(context.Background())
	require.Error(t, err)

	require.NoError(t, os.Remove(blocker))
	db, err := m.DB(context.Background())
	require.NoError(t, err)
	require.NotNil(t, db)
	require.NoError(t, m.Close())
}

func TestMemoryPath(t *testing.T) {
	m := New(MemoryPath, logging.Discard())
	defer m.Close()
	ctx := context.Background()

	fs, ds, ns := sample(time.Now().UTC().Round(0))
	require.NoError(t, m.PutAll(ctx, fs, ds, ns))

	s, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Len(t, s.Notes, 1)
}

func TestPutAllAndSnapshot(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	ts := time.Date(2025, 1, 2, 3, 4, 5, 6, time.UTC)

	fs, ds, ns := sample(ts)
	require.NoError(t, m.PutAll(ctx, fs, ds, ns))

	s, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, fs, s.Folders)
	assert.Equal(t, ds, s.Documents)
	assert.Equal(t, ns, s.Notes)
}

func TestPutAll_IsAllOrNothing(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	ts := time.Now().UTC().Round(0)

	fs, ds, ns := sample(ts)
	// second document reuses the blob path, violating the unique constraint
	dup := ds[0]
	dup.ID = "d2"
	ds = append(ds, dup)

	err := m.PutAll(ctx, fs, ds, ns)
	require.Error(t, err)
	require.Contains(t, err.Error(), "put documents")

	s, err := m.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, s.Folders, "folders from the failed batch must not be visible")
	assert.Empty(t, s.Documents)
	assert.Empty(t, s.Notes)
}

func TestInTx_RollsBack(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	ts := time.Now().UTC().Round(0)

	err := m.InTx(ctx, func(ctx context.Context, r *Repositories) error {
		fs, _, _ := sample(ts)
		require.NoError(t, r.Folders.Put(ctx, &fs[0]))
		return common.ErrorValidation
	})
	require.ErrorIs(t, err, common.ErrorValidation)

	r, err := m.Repos(ctx)
	require.NoError(t, err)
	_, err = r.Folders.Get(ctx, "f1")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSnapshot_EmptyStore(t *testing.T) {
	m := newManager(t)

	s, err := m.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, s.Folders)
	assert.Empty(t, s.Documents)
	assert.Empty(t, s.Notes)
}
