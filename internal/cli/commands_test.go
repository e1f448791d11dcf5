package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dmitrijs2005/booknook/internal/buildinfo"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pdfBytes = []byte("%PDF-1.4 calculus")

func TestCommands_FolderDocumentNoteLifecycle(t *testing.T) {
	dir := isolateHome(t)

	folderID := firstField(t, mustNook(t, dir, "folder", "create", "Textbooks"))
	assert.Contains(t, mustNook(t, dir, "folder", "ls"), "Textbooks")

	out := mustNook(t, dir, "folder", "rename", folderID, "Math")
	assert.Contains(t, out, "Math")

	src := writeTemp(t, "Calculus.pdf", pdfBytes)
	out = mustNook(t, dir, "doc", "import", folderID, src)
	docID := firstField(t, out)
	assert.Contains(t, out, "Calculus")
	assert.Contains(t, out, "pdf")

	out = mustNook(t, dir, "doc", "ls", folderID)
	assert.Contains(t, out, docID)
	assert.Contains(t, out, "17 B")

	out = mustNook(t, dir, "doc", "show", docID)
	assert.Contains(t, out, "Type:      pdf (application/pdf)")

	exportDir := t.TempDir()
	mustNook(t, dir, "doc", "export", docID, exportDir)
	got, err := os.ReadFile(filepath.Join(exportDir, "Calculus.pdf"))
	require.NoError(t, err)
	assert.Equal(t, pdfBytes, got)

	noteOut := mustNook(t, dir, "note", "save", docID, "pdf:3", "--title", "Limits", "--html", "<p>epsilon</p>")
	noteID := firstField(t, noteOut)
	assert.Contains(t, noteOut, "pdf:3")

	out = mustNook(t, dir, "note", "ls", docID)
	assert.Contains(t, out, "Limits")

	out = mustNook(t, dir, "note", "show", noteID)
	assert.Contains(t, out, "# Limits")
	assert.Contains(t, out, "<p>epsilon</p>")

	mustNook(t, dir, "folder", "cover", folderID, docID)
	assert.Contains(t, mustNook(t, dir, "folder", "ls"), docID)

	// stdin is not a terminal, so no confirmation is asked
	mustNook(t, dir, "folder", "rm", folderID)
	assert.NotContains(t, mustNook(t, dir, "folder", "ls"), "Math")
	assert.NotContains(t, mustNook(t, dir, "doc", "ls", folderID), docID)

	entries, err := os.ReadDir(filepath.Join(dir, "blobs", "docs"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCommands_NoteBodyFromStdin(t *testing.T) {
	dir := isolateHome(t)
	folderID := firstField(t, mustNook(t, dir, "folder", "create", "Novels"))
	docID := firstField(t, mustNook(t, dir, "doc", "import", folderID, writeTemp(t, "dune.epub", []byte("PK epub"))))

	res, err := nook(t, dir, "<p>spice</p>\n.\n", "note", "save", docID, "epub:epubcfi(/6/4)")
	require.NoError(t, err, res.err)
	assert.Contains(t, res.out, "Note @ epub:epubcfi(/6/4)")

	out := mustNook(t, dir, "note", "show", firstField(t, res.out))
	assert.Contains(t, out, "<p>spice</p>")
}

func TestCommands_Errors(t *testing.T) {
	dir := isolateHome(t)

	_, err := nook(t, dir, "", "folder", "create", "   ")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = nook(t, dir, "", "doc", "import", "missing", writeTemp(t, "a.pdf", pdfBytes))
	assert.ErrorIs(t, err, common.ErrorNotFound)

	folderID := firstField(t, mustNook(t, dir, "folder", "create", "Misc"))
	_, err = nook(t, dir, "", "doc", "import", folderID, writeTemp(t, "notes.txt", []byte("plain")))
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = nook(t, dir, "", "note", "save", "nope", "pdf:0", "--html", "x")
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = nook(t, dir, "", "folder", "cover", folderID)
	assert.Error(t, err)
}

func TestCommands_DeleteAsksForConfirmation(t *testing.T) {
	dir := isolateHome(t)
	stubTerminal(t, true)

	folderID := firstField(t, mustNook(t, dir, "folder", "create", "Keep"))

	res, err := nook(t, dir, "n\n", "folder", "rm", folderID)
	assert.ErrorIs(t, err, errAborted)
	assert.Contains(t, res.out, "(y/N)")
	assert.Contains(t, mustNook(t, dir, "folder", "ls"), "Keep")

	_, err = nook(t, dir, "yes\n", "folder", "rm", folderID)
	require.NoError(t, err)
	assert.NotContains(t, mustNook(t, dir, "folder", "ls"), "Keep")

	folderID = firstField(t, mustNook(t, dir, "folder", "create", "Again"))
	_, err = nook(t, dir, "", "--yes", "folder", "rm", folderID)
	require.NoError(t, err)
}

func TestCommands_BackupRoundTrip(t *testing.T) {
	for _, ext := range []string{".json", ".cbor"} {
		t.Run(ext, func(t *testing.T) {
			src := isolateHome(t)
			folderID := firstField(t, mustNook(t, src, "folder", "create", "Textbooks"))
			docID := firstField(t, mustNook(t, src, "doc", "import", folderID, writeTemp(t, "calc.pdf", pdfBytes)))
			mustNook(t, src, "note", "save", docID, "doc", "--html", "<p>general</p>")

			file := filepath.Join(t.TempDir(), "backup"+ext)
			out := mustNook(t, src, "backup", "export", file)
			assert.Contains(t, out, "exported 1 folders, 1 documents, 1 notes")

			dst := t.TempDir()
			out = mustNook(t, dst, "backup", "import", file)
			assert.Contains(t, out, "imported 1 folders, 1 documents, 1 notes")

			status := mustNook(t, dst, "status")
			assert.Contains(t, status, "Folders:     1")
			assert.Contains(t, status, "Notes:       1")
			assert.NotContains(t, status, "Last import: never")

			assert.Contains(t, mustNook(t, src, "status"), "Documents:   1")
		})
	}
}

func TestCommands_BackupToStdoutAndExplicitFormat(t *testing.T) {
	dir := isolateHome(t)
	mustNook(t, dir, "folder", "create", "One")

	out := mustNook(t, dir, "backup", "export")
	assert.True(t, strings.HasPrefix(out, "{"), out)
	assert.Contains(t, out, `"folders"`)

	file := filepath.Join(t.TempDir(), "backup.bin")
	mustNook(t, dir, "backup", "export", "--format", "cbor", file)

	_, err := nook(t, t.TempDir(), "", "backup", "import", file)
	assert.ErrorIs(t, err, common.ErrorValidation, "json decoder should reject cbor bytes")

	out = mustNook(t, t.TempDir(), "backup", "import", "--format", "cbor", file)
	assert.Contains(t, out, "imported 1 folders")
}

func TestCommands_BackupImportRejectsIncompletePayload(t *testing.T) {
	dir := isolateHome(t)
	file := writeTemp(t, "partial.json", []byte(`{"folders": [], "documents": []}`))

	_, err := nook(t, dir, "", "backup", "import", file)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Contains(t, mustNook(t, dir, "status"), "Folders:     0")
}

func TestCommands_BlobOrphans(t *testing.T) {
	dir := isolateHome(t)
	folderID := firstField(t, mustNook(t, dir, "folder", "create", "F"))
	mustNook(t, dir, "doc", "import", folderID, writeTemp(t, "kept.pdf", pdfBytes))

	stray := filepath.Join(dir, "blobs", "docs", "stray.pdf")
	require.NoError(t, os.WriteFile(stray, []byte("x"), 0o600))

	out := mustNook(t, dir, "blobs", "orphans")
	assert.Equal(t, "docs/stray.pdf\n", out)

	out = mustNook(t, dir, "blobs", "orphans", "--prune")
	assert.Contains(t, out, "removed docs/stray.pdf")
	assert.NoFileExists(t, stray)
	assert.Empty(t, mustNook(t, dir, "blobs", "orphans"))
}

func TestCommands_ConfigGenerate(t *testing.T) {
	isolateHome(t)
	out := t.TempDir()

	res, err := nook(t, t.TempDir(), "", "config", "generate", "--output", out)
	require.NoError(t, err)
	assert.Contains(t, res.out, "Generated")

	data, err := os.ReadFile(filepath.Join(out, "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backup_format: json")

	_, err = nook(t, t.TempDir(), "", "config", "generate", "--output", out)
	assert.Error(t, err)

	_, err = nook(t, t.TempDir(), "", "config", "generate", "--output", out, "--overwrite")
	assert.NoError(t, err)
}

func TestCommands_Version(t *testing.T) {
	isolateHome(t)
	old := buildinfo.Version
	buildinfo.Version = "v9.9.9"
	t.Cleanup(func() { buildinfo.Version = old })

	res, err := nook(t, t.TempDir(), "", "version")
	require.NoError(t, err)
	assert.Contains(t, res.out, "Build version: v9.9.9")
}

func TestCommands_InvalidConfig(t *testing.T) {
	isolateHome(t)
	t.Setenv("NOOK_BACKUP_FORMAT", "xml")

	_, err := nook(t, t.TempDir(), "", "status")
	assert.ErrorIs(t, err, common.ErrorValidation)
}

func TestCommands_FailedBackupExportKeepsPreviousFile(t *testing.T) {
	dir := isolateHome(t)
	mustNook(t, dir, "folder", "create", "Textbooks")

	file := filepath.Join(t.TempDir(), "backup.json")
	mustNook(t, dir, "backup", "export", file)
	before, err := os.ReadFile(file)
	require.NoError(t, err)
	require.NotEmpty(t, before)

	garbage := []byte(strings.Repeat("not a database. ", 256))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "library.db"), garbage, 0o600))

	_, err = nook(t, dir, "", "backup", "export", file)
	require.Error(t, err)

	after, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestCommands_DocExportIgnoresPathsInTitle(t *testing.T) {
	dir := isolateHome(t)
	folderID := firstField(t, mustNook(t, dir, "folder", "create", "Textbooks"))
	docID := firstField(t, mustNook(t, dir, "doc", "import", folderID, writeTemp(t, "Calculus.pdf", pdfBytes)))

	file := filepath.Join(t.TempDir(), "backup.json")
	mustNook(t, dir, "backup", "export", file)
	data, err := os.ReadFile(file)
	require.NoError(t, err)
	edited := strings.Replace(string(data), `"title": "Calculus"`, `"title": "../../escape"`, 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(file, []byte(edited), 0o600))
	mustNook(t, dir, "backup", "import", file)

	parent := t.TempDir()
	exportDir := filepath.Join(parent, "a", "b")
	require.NoError(t, os.MkdirAll(exportDir, 0o755))
	mustNook(t, dir, "doc", "export", docID, exportDir)

	assert.FileExists(t, filepath.Join(exportDir, "escape.pdf"))
	assert.NoFileExists(t, filepath.Join(parent, "escape.pdf"))
}

func TestExportName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Calculus", "Calculus.pdf"},
		{"../../escape", "escape.pdf"},
		{`..\..\win`, "win.pdf"},
		{"..", "doc-1.pdf"},
		{"/", "doc-1.pdf"},
	}
	for _, tt := range tests {
		d := &models.Document{ID: "doc-1", Title: tt.title, Type: models.DocumentTypePDF}
		assert.Equal(t, tt.want, exportName(d), tt.title)
	}
}
