package library

import (
	"context"
	"time"

	"github.com/dmitrijs2005/booknook/internal/repositories/metadata"
)

// Orphans lists document blobs that no document record references. They are
// left behind by imports whose record write failed and by blob deletes that
// failed after the record was removed.
func (s *Service) Orphans(ctx context.Context) ([]string, error) {
	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("list orphans", err)
	}
	used, err := repos.Documents.BlobPaths(ctx)
	if err != nil {
		return nil, fail("list orphans", err)
	}
	stored, err := s.blobs.List(ctx, DocsPrefix)
	if err != nil {
		return nil, fail("list orphans", err)
	}

	out := []string{}
	for _, p := range stored {
		if _, ok := used[p]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// PruneOrphans deletes every orphan blob and reports each removal.
func (s *Service) PruneOrphans(ctx context.Context) ([]Cleanup, error) {
	paths, err := s.Orphans(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Cleanup, 0, len(paths))
	for _, p := range paths {
		c := Cleanup{BlobPath: p}
		if err := s.blobs.Delete(ctx, p); err != nil {
			c.Err = err
			s.log.Warn(ctx, "orphan blob not removed", "blob", p, "error", err)
		}
		out = append(out, c)
	}

	s.log.Info(ctx, "orphan blobs pruned", "count", len(out))
	return out, nil
}

// Status summarizes the library.
type Status struct {
	Folders      int
	Documents    int
	Notes        int
	TotalBytes   int64
	LastExportAt time.Time
	LastImportAt time.Time
}

func (s *Service) Status(ctx context.Context) (*Status, error) {
	snap, err := s.meta.Snapshot(ctx)
	if err != nil {
		return nil, fail("status", err)
	}

	st := &Status{Folders: len(snap.Folders), Documents: len(snap.Documents), Notes: len(snap.Notes)}
	for _, d := range snap.Documents {
		st.TotalBytes += d.Size
	}

	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("status", err)
	}
	if st.LastExportAt, err = metadata.GetTime(ctx, repos.Metadata, metadata.KeyLastExportAt); err != nil {
		return nil, fail("status", err)
	}
	if st.LastImportAt, err = metadata.GetTime(ctx, repos.Metadata, metadata.KeyLastImportAt); err != nil {
		return nil, fail("status", err)
	}
	return st, nil
}
