package library

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/dbx"
	"github.com/dmitrijs2005/booknook/internal/metastore"
	"github.com/dmitrijs2005/booknook/internal/models"
)

func cleanTitle(title string) (string, error) {
	t := strings.TrimSpace(title)
	if t == "" {
		return "", invalid("title must not be empty")
	}
	return t, nil
}

func (s *Service) CreateFolder(ctx context.Context, title string) (*models.Folder, error) {
	t, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}

	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("create folder", err)
	}

	now := s.now()
	f := &models.Folder{ID: s.newID(), Title: t, CreatedAt: now, UpdatedAt: now}
	if err := repos.Folders.Put(ctx, f); err != nil {
		return nil, fail("create folder", err)
	}

	s.log.Info(ctx, "folder created", "id", f.ID, "title", f.Title)
	return f, nil
}

func (s *Service) GetFolder(ctx context.Context, id string) (*models.Folder, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("get folder", err)
	}
	f, err := repos.Folders.Get(ctx, id)
	if err != nil {
		return nil, fail("get folder", err)
	}
	return f, nil
}

// ListFolders returns all folders, most recently updated first.
func (s *Service) ListFolders(ctx context.Context) ([]models.Folder, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("list folders", err)
	}
	fs, err := repos.Folders.List(ctx)
	if err != nil {
		return nil, fail("list folders", err)
	}
	return fs, nil
}

// updateFolder loads a folder, applies fn and stores it with a fresh
// UpdatedAt, all in one transaction.
func (s *Service) updateFolder(ctx context.Context, op, id string, fn func(ctx context.Context, r *metastore.Repositories, f *models.Folder) error) (*models.Folder, error) {
	var out *models.Folder
	err := s.meta.InTx(ctx, func(ctx context.Context, r *metastore.Repositories) error {
		f, err := r.Folders.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(ctx, r, f); err != nil {
			return err
		}
		f.UpdatedAt = s.touch(f.UpdatedAt)
		if err := r.Folders.Put(ctx, f); err != nil {
			return err
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, fail(op, err)
	}
	return out, nil
}

func (s *Service) RenameFolder(ctx context.Context, id, title string) (*models.Folder, error) {
	t, err := cleanTitle(title)
	if err != nil {
		return nil, err
	}
	f, err := s.updateFolder(ctx, "rename folder", id, func(_ context.Context, _ *metastore.Repositories, f *models.Folder) error {
		f.Title = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "folder renamed", "id", id, "title", t)
	return f, nil
}

// SetFolderCoverDocument points the folder cover at one of its documents.
// An empty documentID clears the pointer. No thumbnail is generated.
func (s *Service) SetFolderCoverDocument(ctx context.Context, folderID, documentID string) (*models.Folder, error) {
	return s.updateFolder(ctx, "set folder cover", folderID, func(ctx context.Context, r *metastore.Repositories, f *models.Folder) error {
		if documentID != "" {
			d, err := r.Documents.Get(ctx, documentID)
			if err != nil {
				return err
			}
			if d.FolderID != f.ID {
				return invalid("document %s does not belong to folder %s", d.ID, f.ID)
			}
		}
		f.CoverDocumentID = documentID
		return nil
	})
}

// SetFolderCoverImage stores a data:image/... URI as the folder cover.
// An empty uri clears it.
func (s *Service) SetFolderCoverImage(ctx context.Context, folderID, uri string) (*models.Folder, error) {
	if uri != "" && !isImageDataURI(uri) {
		return nil, invalid("cover image must be a data:image/ URI")
	}
	return s.updateFolder(ctx, "set folder cover image", folderID, func(_ context.Context, _ *metastore.Repositories, f *models.Folder) error {
		f.CoverImage = uri
		return nil
	})
}

func isImageDataURI(uri string) bool {
	head, data, ok := strings.Cut(uri, ",")
	return ok && data != "" && strings.HasPrefix(strings.ToLower(head), "data:image/")
}

// DeleteFolder removes the folder, its documents and their notes in one
// transaction, then deletes the document blobs best-effort. Deleting a
// missing folder succeeds.
func (s *Service) DeleteFolder(ctx context.Context, id string) ([]Cleanup, error) {
	var docs []models.Document
	err := s.meta.InTx(ctx, func(ctx context.Context, r *metastore.Repositories) error {
		var err error
		docs, err = r.Documents.ListByFolder(ctx, id)
		if err != nil {
			return err
		}

		var b dbx.Batch
		for _, d := range docs {
			b.Add("delete notes of "+d.ID, func(ctx context.Context, tx dbx.DBTX) error {
				return r.Notes.DeleteByDocument(ctx, d.ID)
			})
			b.Add("delete document "+d.ID, func(ctx context.Context, tx dbx.DBTX) error {
				return r.Documents.Delete(ctx, d.ID)
			})
		}
		b.Add("delete folder "+id, func(ctx context.Context, tx dbx.DBTX) error {
			return r.Folders.Delete(ctx, id)
		})
		return b.Apply(ctx, r.DB)
	})
	if err != nil {
		return nil, fail("delete folder", err)
	}

	cleanups := make([]Cleanup, 0, len(docs))
	for _, d := range docs {
		cleanups = append(cleanups, s.removeBlob(ctx, d))
	}

	s.log.Info(ctx, "folder deleted", "id", id, "documents", len(docs))
	return cleanups, nil
}
