// Package metastore owns the SQLite database behind the metadata
// repositories. The database is opened and migrated lazily on first use;
// a failed open is retried by the next caller.
package metastore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/booknook/internal/dbx"
	"github.com/dmitrijs2005/booknook/internal/filex"
	"github.com/dmitrijs2005/booknook/internal/logging"
	"github.com/dmitrijs2005/booknook/internal/migrations"
	"github.com/dmitrijs2005/booknook/internal/models"
	"github.com/dmitrijs2005/booknook/internal/repositories/documents"
	"github.com/dmitrijs2005/booknook/internal/repositories/folders"
	"github.com/dmitrijs2005/booknook/internal/repositories/metadata"
	"github.com/dmitrijs2005/booknook/internal/repositories/notes"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// MemoryPath selects a private in-memory database.
const MemoryPath = ":memory:"

// Repositories groups the repositories bound to one DBTX.
type Repositories struct {
	// DB is the handle the repositories run on.
	DB dbx.DBTX

	Folders   folders.Repository
	Documents documents.Repository
	Notes     notes.Repository
	Metadata  metadata.Repository
}

// Bind returns repositories operating on db, which may be a transaction.
func Bind(db dbx.DBTX) *Repositories {
	return &Repositories{
		DB:        db,
		Folders:   folders.NewSQLiteRepository(db),
		Documents: documents.NewSQLiteRepository(db),
		Notes:     notes.NewSQLiteRepository(db),
		Metadata:  metadata.NewSQLiteRepository(db),
	}
}

// Snapshot is a consistent copy of every record collection.
type Snapshot struct {
	Folders   []models.Folder
	Documents []models.Document
	Notes     []models.Note
}

type Manager struct {
	path string
	log  logging.Logger

	mu sync.Mutex
	db *sql.DB
}

// New returns a Manager for the database file at path (or MemoryPath).
// Nothing is opened until the first call that needs the database.
func New(path string, log logging.Logger) *Manager {
	return &Manager{path: path, log: log}
}

func (m *Manager) Path() string {
	return m.path
}

func (m *Manager) dsn() string {
	if m.path == MemoryPath {
		return MemoryPath
	}
	return "file:" + m.path + "?_pragma=busy_timeout(5000)"
}

// DB returns the open, migrated pool.
func (m *Manager) DB(ctx context.Context) (*sql.DB, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db != nil {
		return m.db, nil
	}

	if m.path != MemoryPath {
		if err := filex.EnsureParent(m.path); err != nil {
			return nil, fmt.Errorf("failed to prepare database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", m.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; an in-memory database also lives only as long as its connection
	db.SetMaxOpenConns(1)

	if err := migrations.Up(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	m.log.Debug(ctx, "metadata store opened", "path", m.path)
	m.db = db
	return db, nil
}

// Repos returns repositories bound to the pool.
func (m *Manager) Repos(ctx context.Context) (*Repositories, error) {
	db, err := m.DB(ctx)
	if err != nil {
		return nil, err
	}
	return Bind(db), nil
}

// InTx runs fn with repositories bound to one transaction.
func (m *Manager) InTx(ctx context.Context, fn func(ctx context.Context, r *Repositories) error) error {
	db, err := m.DB(ctx)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, Bind(tx))
	})
}

// Run executes b atomically.
func (m *Manager) Run(ctx context.Context, b *dbx.Batch) error {
	db, err := m.DB(ctx)
	if err != nil {
		return err
	}
	return b.Run(ctx, db)
}

// Snapshot reads all three collections inside one transaction.
func (m *Manager) Snapshot(ctx context.Context) (*Snapshot, error) {
	var s Snapshot
	err := m.InTx(ctx, func(ctx context.Context, r *Repositories) error {
		var err error
		if s.Folders, err = r.Folders.ListAll(ctx); err != nil {
			return err
		}
		if s.Documents, err = r.Documents.ListAll(ctx); err != nil {
			return err
		}
		s.Notes, err = r.Notes.ListAll(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return &s, nil
}

// PutAll writes every record in one transaction: all become visible or none.
func (m *Manager) PutAll(ctx context.Context, fs []models.Folder, ds []models.Document, ns []models.Note) error {
	var b dbx.Batch

	b.Add("put folders", func(ctx context.Context, tx dbx.DBTX) error {
		repo := folders.NewSQLiteRepository(tx)
		for i := range fs {
			if err := repo.Put(ctx, &fs[i]); err != nil {
				return err
			}
		}
		return nil
	})
	b.Add("put documents", func(ctx context.Context, tx dbx.DBTX) error {
		repo := documents.NewSQLiteRepository(tx)
		for i := range ds {
			if err := repo.Put(ctx, &ds[i]); err != nil {
				return err
			}
		}
		return nil
	})
	b.Add("put notes", func(ctx context.Context, tx dbx.DBTX) error {
		repo := notes.NewSQLiteRepository(tx)
		for i := range ns {
			if err := repo.Put(ctx, &ns[i]); err != nil {
				return err
			}
		}
		return nil
	})

	return m.Run(ctx, &b)
}

// Close releases the pool. The Manager may be reopened by a later call.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.db == nil {
		return nil
	}
	err := m.db.Close()
	m.db = nil
	return err
}
