package library

import (
	"context"
	"errors"
	"path"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/dbx"
	"github.com/dmitrijs2005/booknook/internal/metastore"
	"github.com/dmitrijs2005/booknook/internal/models"
)

// ImportRequest describes a file to add to a folder. Type and MIME are
// optional; when Type is empty it is detected from MIME and FileName.
type ImportRequest struct {
	FolderID string
	FileName string
	Type     models.DocumentType
	MIME     string
	Data     []byte
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9._-]`)
var docExt = regexp.MustCompile(`(?i)\.(pdf|epub)$`)

// maxSafeName bounds the file-name part of a blob path so the id prefix and
// the temp suffix of atomic writes stay within NAME_MAX.
const maxSafeName = 100

func safeName(name string) string {
	if name == "" {
		return "file"
	}
	n := unsafeChars.ReplaceAllString(name, "_")
	if len(n) <= maxSafeName {
		return n
	}
	ext := path.Ext(n)
	if len(ext) > 16 {
		ext = ""
	}
	return n[:maxSafeName-len(ext)] + ext
}

// ImportDocument writes the file to the blob store and then records it.
// When the record cannot be written the blob stays behind as an orphan
// (see Orphans).
func (s *Service) ImportDocument(ctx context.Context, req ImportRequest) (*models.Document, error) {
	name := path.Base(strings.ReplaceAll(req.FileName, `\`, "/"))
	if name == "." || name == "/" {
		name = ""
	}

	typ := req.Type
	if typ == "" {
		typ = models.DetectType(name, req.MIME)
	}
	if !typ.Valid() {
		return nil, invalid("unsupported document type for %q", req.FileName)
	}

	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("import document", err)
	}
	if _, err := repos.Folders.Get(ctx, req.FolderID); err != nil {
		return nil, fail("import document", err)
	}

	id := s.newID()
	blobPath := DocsPrefix + id + "-" + safeName(name)
	if err := s.blobs.Put(ctx, blobPath, req.Data); err != nil {
		return nil, fail("import document: write file", err)
	}

	mime := req.MIME
	if mime == "" {
		mime = typ.DefaultMIME()
	}
	title := docExt.ReplaceAllString(name, "")
	if title == "" {
		title = id
	}

	now := s.now()
	doc := &models.Document{
		ID:        id,
		FolderID:  req.FolderID,
		Title:     title,
		Type:      typ,
		MIME:      mime,
		Size:      int64(len(req.Data)),
		BlobPath:  blobPath,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repos.Documents.Put(ctx, doc); err != nil {
		s.log.Warn(ctx, "document record not written, blob left orphaned", "blob", blobPath, "error", err)
		return nil, fail("import document: write record", err)
	}

	s.log.Info(ctx, "document imported", "id", id, "folder", req.FolderID, "type", typ, "size", doc.Size)
	return doc, nil
}

func (s *Service) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("get document", err)
	}
	d, err := repos.Documents.Get(ctx, id)
	if err != nil {
		return nil, fail("get document", err)
	}
	return d, nil
}

// ListDocuments returns a folder's documents, most recently updated first.
// An unknown folder has no documents.
func (s *Service) ListDocuments(ctx context.Context, folderID string) ([]models.Document, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("list documents", err)
	}
	ds, err := repos.Documents.ListByFolder(ctx, folderID)
	if err != nil {
		return nil, fail("list documents", err)
	}
	return ds, nil
}

// ReadDocumentFile returns the document record and its file contents.
func (s *Service) ReadDocumentFile(ctx context.Context, id string) (*models.Document, []byte, error) {
	d, err := s.GetDocument(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, d.BlobPath)
	if err != nil {
		return nil, nil, fail("read document file", err)
	}
	return d, data, nil
}

// DeleteDocument removes the document's notes and record in one
// transaction, then deletes its blob best-effort. A folder cover pointing at
// the document is cleared. Deleting a missing document succeeds with an
// empty Cleanup.
func (s *Service) DeleteDocument(ctx context.Context, id string) (Cleanup, error) {
	var doc *models.Document
	err := s.meta.InTx(ctx, func(ctx context.Context, r *metastore.Repositories) error {
		d, err := r.Documents.Get(ctx, id)
		if errors.Is(err, common.ErrorNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		doc = d

		var b dbx.Batch
		b.Add("delete notes", func(ctx context.Context, _ dbx.DBTX) error {
			return r.Notes.DeleteByDocument(ctx, id)
		})
		b.Add("delete document", func(ctx context.Context, _ dbx.DBTX) error {
			return r.Documents.Delete(ctx, id)
		})
		b.Add("clear folder cover", func(ctx context.Context, _ dbx.DBTX) error {
			f, err := r.Folders.Get(ctx, d.FolderID)
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			if err != nil || f.CoverDocumentID != id {
				return err
			}
			f.CoverDocumentID = ""
			f.UpdatedAt = s.touch(f.UpdatedAt)
			return r.Folders.Put(ctx, f)
		})
		return b.Apply(ctx, r.DB)
	})
	if err != nil {
		return Cleanup{}, fail("delete document", err)
	}
	if doc == nil {
		return Cleanup{DocumentID: id}, nil
	}

	c := s.removeBlob(ctx, *doc)
	s.log.Info(ctx, "document deleted", "id", id)
	return c, nil
}

func (s *Service) removeBlob(ctx context.Context, d models.Document) Cleanup {
	c := Cleanup{DocumentID: d.ID, BlobPath: d.BlobPath}
	if err := s.blobs.Delete(ctx, d.BlobPath); err != nil {
		c.Err = err
		s.log.Warn(ctx, "blob cleanup failed", "document", d.ID, "blob", d.BlobPath, "error", err)
	}
	return c
}

// SetReadingPosition records where the reader is in a document. The anchor
// must address a page (PDF) or flow position (EPUB); document-level anchors
// are not positions.
func (s *Service) SetReadingPosition(ctx context.Context, documentID string, a anchor.Anchor) (*models.Document, error) {
	if a.IsDocument() {
		return nil, invalid("document-level anchor is not a reading position")
	}

	var out *models.Document
	err := s.meta.InTx(ctx, func(ctx context.Context, r *metastore.Repositories) error {
		d, err := r.Documents.Get(ctx, documentID)
		if err != nil {
			return err
		}
		if !a.Fits(d.Type) {
			return invalid("anchor %s does not fit a %s document", a, d.Type)
		}
		d.LastLocation = a.Position()
		d.UpdatedAt = s.touch(d.UpdatedAt)
		if err := r.Documents.Put(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, fail("set reading position", err)
	}

	s.log.Debug(ctx, "reading position saved", "document", documentID, "anchor", a.String())
	return out, nil
}
