package folders

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

const columns = `id, title, cover_document_id, cover_image, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put upserts a folder by id.
func (r *SQLiteRepository) Put(ctx context.Context, f *models.Folder) error {
	query := `INSERT INTO folders (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title,
			cover_document_id = excluded.cover_document_id,
			cover_image = excluded.cover_image,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.Title, f.CoverDocumentID, f.CoverImage,
		f.CreatedAt.UnixNano(), f.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert folder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Folder, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM folders WHERE id = ?`, id)

	f, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("folder %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get folder: %w", err)
	}
	return f, nil
}

// Delete removes a folder; deleting a missing id is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) List(ctx context.Context) ([]models.Folder, error) {
	return r.query(ctx, `SELECT `+columns+` FROM folders ORDER BY updated_at DESC, id`)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.Folder, error) {
	return r.query(ctx, `SELECT `+columns+` FROM folders ORDER BY id`)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Folder, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	result := []models.Folder{}
	for rows.Next() {
		f, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan folder row: %w", err)
		}
		result = append(result, *f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate folder rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Folder, error) {
	var (
		f                models.Folder
		created, updated int64
	)
	if err := s.Scan(&f.ID, &f.Title, &f.CoverDocumentID, &f.CoverImage, &created, &updated); err != nil {
		return nil, err
	}
	f.CreatedAt = time.Unix(0, created).UTC()
	f.UpdatedAt = time.Unix(0, updated).UTC()
	return &f, nil
}
