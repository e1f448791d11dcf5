package library

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/backup"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populate(t *testing.T, fx *fixture) {
	t.Helper()
	ctx := context.Background()

	f := fx.folder(t, "Textbooks")
	p := fx.pdf(t, f.ID, "ch1.pdf", 16)
	e := fx.epub(t, f.ID, "novel.epub")
	_, err := fx.svc.SetReadingPosition(ctx, p.ID, page(t, 7))
	require.NoError(t, err)
	_, err = fx.svc.SaveNote(ctx, p.ID, page(t, 7), "Seven", "<b>7</b>")
	require.NoError(t, err)
	_, err = fx.svc.SaveNote(ctx, e.ID, anchor.MustParse("epub:cfi-1"), "", "<i>x</i>")
	require.NoError(t, err)
	_, err = fx.svc.SetFolderCoverDocument(ctx, f.ID, p.ID)
	require.NoError(t, err)
}

func TestExportImport_RoundTrip(t *testing.T) {
	for _, format := range []backup.Format{backup.FormatJSON, backup.FormatCBOR} {
		t.Run(string(format), func(t *testing.T) {
			ctx := context.Background()
			src := newFixture(t)
			populate(t, src)

			var buf bytes.Buffer
			exported, err := src.svc.ExportBackupTo(ctx, &buf, format)
			require.NoError(t, err)
			assert.Len(t, exported.Folders, 1)
			assert.Len(t, exported.Documents, 2)
			assert.Len(t, exported.Notes, 2)
			assert.Equal(t, src.clock.Now(), exported.ExportedAt)

			dst := newFixture(t)
			stats, err := dst.svc.RestoreBackup(ctx, &buf, format)
			require.NoError(t, err)
			assert.Equal(t, ImportStats{Folders: 1, Documents: 2, Notes: 2}, stats)

			again, err := dst.svc.ExportBackup(ctx)
			require.NoError(t, err)
			assert.Equal(t, exported.Folders, again.Folders)
			assert.Equal(t, exported.Documents, again.Documents)
			assert.Equal(t, exported.Notes, again.Notes)
		})
	}
}

func TestImportBackup_MissingNotesLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	populate(t, fx)

	before, err := fx.svc.ExportBackup(ctx)
	require.NoError(t, err)

	payload := `{"folders": [{"id": "new-folder", "title": "X", "createdAt": "2025-01-01T00:00:00Z", "updatedAt": "2025-01-01T00:00:00Z"}], "documents": []}`
	_, err = fx.svc.RestoreBackup(ctx, strings.NewReader(payload), backup.FormatJSON)
	require.ErrorIs(t, err, common.ErrorValidation)

	after, err := fx.svc.ExportBackup(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Folders, after.Folders)
	assert.Equal(t, before.Documents, after.Documents)
	assert.Equal(t, before.Notes, after.Notes)

	st, err := fx.svc.Status(ctx)
	require.NoError(t, err)
	assert.True(t, st.LastImportAt.IsZero())
}

func TestImportBackup_InvalidRecordWritesNothing(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ts := fx.clock.Now()

	p := &backup.Payload{
		Folders: []models.Folder{{ID: "f1", Title: "F", CreatedAt: ts, UpdatedAt: ts}},
		Notes:   []models.Note{{ID: "n1", DocumentID: "d1", Anchor: "pdf:zero", CreatedAt: ts, UpdatedAt: ts}},
	}
	_, err := fx.svc.ImportBackup(ctx, p)
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = fx.svc.GetFolder(ctx, "f1")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	_, err = fx.svc.ImportBackup(ctx, nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestImportBackup_StoreFailureRollsBack(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	ts := fx.clock.Now()

	doc := func(id string) models.Document {
		return models.Document{
			ID: id, FolderID: "f1", Title: id, Type: models.DocumentTypePDF, MIME: models.MIMEPDF,
			BlobPath: "docs/shared.pdf", CreatedAt: ts, UpdatedAt: ts,
		}
	}
	p := &backup.Payload{
		Folders:   []models.Folder{{ID: "f1", Title: "F", CreatedAt: ts, UpdatedAt: ts}},
		Documents: []models.Document{doc("d1"), doc("d2")},
	}
	_, err := fx.svc.ImportBackup(ctx, p)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrorStorage)

	_, err = fx.svc.GetFolder(ctx, "f1")
	assert.ErrorIs(t, err, common.ErrorNotFound, "nothing from the failed import is visible")
}

func TestImportBackup_MergesById(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	existing := fx.folder(t, "Existing")
	replaced := fx.folder(t, "Before")

	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := &backup.Payload{
		Folders:   []models.Folder{{ID: replaced.ID, Title: "After", CreatedAt: ts, UpdatedAt: ts}},
		Documents: []models.Document{},
		Notes:     []models.Note{},
	}
	_, err := fx.svc.ImportBackup(ctx, p)
	require.NoError(t, err)

	got, err := fx.svc.GetFolder(ctx, replaced.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Title)
	assert.Equal(t, ts, got.UpdatedAt)

	_, err = fx.svc.GetFolder(ctx, existing.ID)
	assert.NoError(t, err, "records absent from the payload stay")
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)

	st, err := fx.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, &Status{}, st)

	populate(t, fx)
	_, err = fx.svc.ExportBackup(ctx)
	require.NoError(t, err)
	fx.clock.Advance(time.Hour)
	_, err = fx.svc.ImportBackup(ctx, &backup.Payload{})
	require.NoError(t, err)

	st, err = fx.svc.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, st.Folders)
	assert.Equal(t, 2, st.Documents)
	assert.Equal(t, 2, st.Notes)
	assert.EqualValues(t, 16+4, st.TotalBytes)
	assert.True(t, st.LastExportAt.Equal(fx.clock.Now().Add(-time.Hour)))
	assert.True(t, st.LastImportAt.Equal(fx.clock.Now()))
}
