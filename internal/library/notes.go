package library

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/metastore"
	"github.com/dmitrijs2005/booknook/internal/models"
)

// SaveNote creates the note at (documentID, a) or updates the existing one.
// A blank title is replaced by the anchor's default title.
func (s *Service) SaveNote(ctx context.Context, documentID string, a anchor.Anchor, title, html string) (*models.Note, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = a.DefaultTitle()
	}
	key := a.String()

	var out *models.Note
	created := false
	err := s.meta.InTx(ctx, func(ctx context.Context, r *metastore.Repositories) error {
		d, err := r.Documents.Get(ctx, documentID)
		if err != nil {
			return err
		}
		if !a.Fits(d.Type) {
			return invalid("anchor %s does not fit a %s document", key, d.Type)
		}

		n, err := r.Notes.GetByAnchor(ctx, documentID, key)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			now := s.now()
			n = &models.Note{
				ID:         s.newID(),
				DocumentID: documentID,
				Anchor:     key,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			created = true
		case err != nil:
			return err
		default:
			n.UpdatedAt = s.touch(n.UpdatedAt)
		}

		n.Title = title
		n.HTML = html
		if err := r.Notes.Put(ctx, n); err != nil {
			return err
		}
		out = n
		return nil
	})
	if err != nil {
		return nil, fail("save note", err)
	}

	s.log.Info(ctx, "note saved", "id", out.ID, "document", documentID, "anchor", key, "created", created)
	return out, nil
}

// ListNotes returns a document's notes, most recently updated first.
func (s *Service) ListNotes(ctx context.Context, documentID string) ([]models.Note, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("list notes", err)
	}
	ns, err := repos.Notes.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, fail("list notes", err)
	}
	return ns, nil
}

func (s *Service) GetNote(ctx context.Context, id string) (*models.Note, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("get note", err)
	}
	n, err := repos.Notes.Get(ctx, id)
	if err != nil {
		return nil, fail("get note", err)
	}
	return n, nil
}

// NoteAt returns the note saved at a, or common.ErrorNotFound.
func (s *Service) NoteAt(ctx context.Context, documentID string, a anchor.Anchor) (*models.Note, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("get note", err)
	}
	n, err := repos.Notes.GetByAnchor(ctx, documentID, a.String())
	if err != nil {
		return nil, fail("get note", err)
	}
	return n, nil
}
