package library

import (
	"context"
	"io"

	"github.com/dmitrijs2005/booknook/internal/backup"
	"github.com/dmitrijs2005/booknook/internal/repositories/metadata"
)

// ImportStats counts the records written by ImportBackup.
type ImportStats struct {
	Folders   int
	Documents int
	Notes     int
}

// ExportBackup captures every folder, document and note from one consistent
// snapshot. File contents are not included.
func (s *Service) ExportBackup(ctx context.Context) (*backup.Payload, error) {
	snap, err := s.meta.Snapshot(ctx)
	if err != nil {
		return nil, fail("export backup", err)
	}

	p := &backup.Payload{
		Folders:    snap.Folders,
		Documents:  snap.Documents,
		Notes:      snap.Notes,
		ExportedAt: s.now(),
	}

	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return nil, fail("export backup", err)
	}
	if err := metadata.SetTime(ctx, repos.Metadata, metadata.KeyLastExportAt, p.ExportedAt); err != nil {
		return nil, fail("export backup", err)
	}

	s.log.Info(ctx, "backup exported", "folders", len(p.Folders), "documents", len(p.Documents), "notes", len(p.Notes))
	return p, nil
}

// ExportBackupTo encodes ExportBackup's payload to w.
func (s *Service) ExportBackupTo(ctx context.Context, w io.Writer, f backup.Format) (*backup.Payload, error) {
	p, err := s.ExportBackup(ctx)
	if err != nil {
		return nil, err
	}
	if err := backup.Encode(w, f, p); err != nil {
		return nil, fail("export backup", err)
	}
	return p, nil
}

// ImportBackup validates every record and then writes them all in one
// transaction, replacing records with the same id. Records absent from the
// payload are left untouched. On any error nothing is written.
func (s *Service) ImportBackup(ctx context.Context, p *backup.Payload) (ImportStats, error) {
	if p == nil {
		return ImportStats{}, invalid("empty backup")
	}
	if err := p.Validate(); err != nil {
		return ImportStats{}, fail("import backup", err)
	}

	if err := s.meta.PutAll(ctx, p.Folders, p.Documents, p.Notes); err != nil {
		return ImportStats{}, fail("import backup", err)
	}

	repos, err := s.meta.Repos(ctx)
	if err != nil {
		return ImportStats{}, fail("import backup", err)
	}
	if err := metadata.SetTime(ctx, repos.Metadata, metadata.KeyLastImportAt, s.now()); err != nil {
		s.log.Warn(ctx, "failed to record import time", "error", err)
	}

	st := ImportStats{Folders: len(p.Folders), Documents: len(p.Documents), Notes: len(p.Notes)}
	s.log.Info(ctx, "backup imported", "folders", st.Folders, "documents", st.Documents, "notes", st.Notes)
	return st, nil
}

// RestoreBackup decodes a backup from r and imports it. A payload missing
// any of the three collections is rejected with common.ErrorValidation.
func (s *Service) RestoreBackup(ctx context.Context, r io.Reader, f backup.Format) (ImportStats, error) {
	p, err := backup.Decode(r, f)
	if err != nil {
		return ImportStats{}, fail("import backup", err)
	}
	return s.ImportBackup(ctx, p)
}
