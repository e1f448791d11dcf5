// Package dbx provides the small database abstractions shared by the
// metadata repositories: a minimal interface (DBTX) implemented by both
// *sql.DB and *sql.Tx, a helper to run a function inside a transaction, and
// Batch, an ordered list of steps that commit or roll back together.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of database/sql used by our repos.
// Both *sql.DB and *sql.Tx satisfy this interface.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// TxBeginner starts transactions. *sql.DB satisfies it.
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// WithTx begins a transaction, runs fn with a transactional handle, and then
// commits on success or rolls back on error/panic. Panics are rethrown.
//
// Typical use:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//	    _, err := tx.ExecContext(ctx, "DELETE FROM notes WHERE document_id = ?", id)
//	    return err
//	})
func WithTx(ctx context.Context, db TxBeginner, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("failed to commit transaction: %w", cerr)
		}
	}()

	err = fn(ctx, tx)
	return err
}

// Step is one named unit of work inside a Batch.
type Step struct {
	Name string
	Run  func(ctx context.Context, tx DBTX) error
}

// Batch collects steps that must be applied atomically, in the order they
// were added. The zero value is ready to use.
type Batch struct {
	steps []Step
}

// Add appends a step to the batch.
func (b *Batch) Add(name string, fn func(ctx context.Context, tx DBTX) error) {
	b.steps = append(b.steps, Step{Name: name, Run: fn})
}

// Len returns the number of queued steps.
func (b *Batch) Len() int {
	return len(b.steps)
}

// Names returns the step names in execution order.
func (b *Batch) Names() []string {
	names := make([]string, len(b.steps))
	for i, s := range b.steps {
		names[i] = s.Name
	}
	return names
}

// Run executes all steps inside one transaction. The first failing step
// aborts the batch and nothing is committed. An empty batch is a no-op.
func (b *Batch) Run(ctx context.Context, db TxBeginner) error {
	if len(b.steps) == 0 {
		return nil
	}

	return WithTx(ctx, db, nil, b.Apply)
}

// Apply executes the steps on an existing handle, typically a transaction
// owned by the caller. It stops at the first failing step.
func (b *Batch) Apply(ctx context.Context, tx DBTX) error {
	for _, s := range b.steps {
		if err := s.Run(ctx, tx); err != nil {
			return fmt.Errorf("%s: %w", s.Name, err)
		}
	}
	return nil
}
