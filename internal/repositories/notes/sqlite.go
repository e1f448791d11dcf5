package notes

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

const columns = `id, document_id, anchor, title, html, created_at, updated_at`

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Put upserts a note by id.
func (r *SQLiteRepository) Put(ctx context.Context, n *models.Note) error {
	query := `INSERT INTO notes (` + columns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET document_id = excluded.document_id,
			anchor = excluded.anchor,
			title = excluded.title,
			html = excluded.html,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		n.ID, n.DocumentID, n.Anchor, n.Title, n.HTML,
		n.CreatedAt.UnixNano(), n.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM notes WHERE id = ?`, id)
	return r.one(row, "note "+id)
}

func (r *SQLiteRepository) GetByAnchor(ctx context.Context, documentID, anchor string) (*models.Note, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+columns+` FROM notes
		WHERE document_id = ? AND anchor = ?
		ORDER BY updated_at DESC, id LIMIT 1`, documentID, anchor)
	return r.one(row, "note at "+anchor)
}

func (r *SQLiteRepository) one(row *sql.Row, what string) (*models.Note, error) {
	n, err := scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", what, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get note: %w", err)
	}
	return n, nil
}

// Delete removes a note; deleting a missing id is a no-op.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByDocument(ctx context.Context, documentID string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE document_id = ?`, documentID); err != nil {
		return fmt.Errorf("failed to delete notes of document: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListByDocument(ctx context.Context, documentID string) ([]models.Note, error) {
	return r.query(ctx, `SELECT `+columns+` FROM notes WHERE document_id = ? ORDER BY updated_at DESC, id`, documentID)
}

func (r *SQLiteRepository) ListAll(ctx context.Context) ([]models.Note, error) {
	return r.query(ctx, `SELECT `+columns+` FROM notes ORDER BY id`)
}

func (r *SQLiteRepository) query(ctx context.Context, query string, args ...any) ([]models.Note, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select notes: %w", err)
	}
	defer rows.Close()

	result := []models.Note{}
	for rows.Next() {
		n, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note row: %w", err)
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate note rows: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scan(s scanner) (*models.Note, error) {
	var (
		n                models.Note
		created, updated int64
	)
	if err := s.Scan(&n.ID, &n.DocumentID, &n.Anchor, &n.Title, &n.HTML, &created, &updated); err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(0, created).UTC()
	n.UpdatedAt = time.Unix(0, updated).UTC()
	return &n, nil
}
