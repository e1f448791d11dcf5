package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/dbx"
	"github.com/dmitrijs2005/booknook/internal/models"
)

const columns = `id, folder_id, title, type, mime, size, blob_path, last_location, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put upserts a document by id. A blob_path already used by another
// document violates the UNIQUE constraint and fails.
func (r *SQLiteRepository) Put(ctx context.Context, d *models.Document) error {
	query := `INSERT INTO documents (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET folder_id = excluded.folder_id,
			title = excluded.title,
			type = excluded.type,
			mime = excluded.mime,
			size = excluded.size,
			blob_path = excluded.blob_path,
			last_location = excluded.last_location,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		d.ID, d.FolderID, d.Title, string(d.Type), d.MIME, d.Size, d.BlobPath, d.LastLocation,
		d.CreatedAt.UnixNano(), d.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Document, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM documents WHERE id = ?`, id)

	d, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("document %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return d, nil
}

// Delete removes a document record; deleting a missing id is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByFolder(ctx context.Context, folderID string) ([]models.Document, error) {
	return r.query(ctx, `SELECT `+columns+` FROM documents WHERE folder_id = ? ORDER BY updated_at DESC, id`, folderID)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.Document, error) {
	return r.query(ctx, `SELECT `+columns+` FROM documents ORDER BY id`)
}

func (r *SQLiteRepository) BlobPaths(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT blob_path FROM documents`)
	if err != nil {
		return nil, fmt.Errorf("failed to select blob paths: %w", err)
	}
	defer rows.Close()

	result := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan blob path: %w", err)
		}
		result[p] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate blob paths: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select documents: %w", err)
	}
	defer rows.Close()

	result := []models.Document{}
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document row: %w", err)
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate document rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Document, error) {
	var (
		d                models.Document
		typ              string
		created, updated int64
	)
	err := s.Scan(&d.ID, &d.FolderID, &d.Title, &typ, &d.MIME, &d.Size, &d.BlobPath, &d.LastLocation, &created, &updated)
	if err != nil {
		return nil, err
	}
	d.Type = models.DocumentType(typ)
	d.CreatedAt = time.Unix(0, created).UTC()
	d.UpdatedAt = time.Unix(0, updated).UTC()
	return &d, nil
}
