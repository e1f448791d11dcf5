// Package session keeps the projection shown while one document is open:
// the active anchor, the note saved there, every note of the document and
// the editor draft. The projection is recomputed from the library after
// each navigation or save.
//
// A Session is driven by one goroutine and is not safe for concurrent use.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/models"
)

var ErrSessionClosed = errors.New("session closed")

// Library is the part of library.Service a session needs.
type Library interface {
	ReadDocumentFile(ctx context.Context, id string) (*models.Document, []byte, error)
	ListNotes(ctx context.Context, documentID string) ([]models.Note, error)
	SetReadingPosition(ctx context.Context, documentID string, a anchor.Anchor) (*models.Document, error)
	SaveNote(ctx context.Context, documentID string, a anchor.Anchor, title, html string) (*models.Note, error)
}

// Draft is the editor working buffer.
type Draft struct {
	Title string
	HTML  string
	// Dirty is set by Edit and cleared by Save or an anchor switch.
	Dirty bool
}

type Session struct {
	lib Library

	doc    models.Document
	file   []byte
	closed bool

	active anchor.Anchor
	notes  []models.Note
	note   *models.Note
	draft  Draft
}

// Open loads the document, its file and its notes. The active anchor starts
// at the document level.
func Open(ctx context.Context, lib Library, documentID string) (*Session, error) {
	doc, data, err := lib.ReadDocumentFile(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("open document: %w", err)
	}

	s := &Session{lib: lib, doc: *doc, file: data, active: anchor.DocumentLevel()}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	s.resetDraft()
	return s, nil
}

func (s *Session) refresh(ctx context.Context) error {
	notes, err := s.lib.ListNotes(ctx, s.doc.ID)
	if err != nil {
		return fmt.Errorf("load notes: %w", err)
	}
	s.notes = notes
	s.note = nil

	key := s.active.String()
	for i := range notes {
		// notes are newest first; the first match is the current one
		if notes[i].Anchor == key {
			n := notes[i]
			s.note = &n
			break
		}
	}
	return nil
}

func (s *Session) resetDraft() {
	if s.note != nil {
		s.draft = Draft{Title: s.note.Title, HTML: s.note.HTML}
		return
	}
	s.draft = Draft{Title: s.active.DefaultTitle()}
}

// switchTo makes a the active anchor. The draft survives only when the
// anchor does not change.
func (s *Session) switchTo(ctx context.Context, a anchor.Anchor) error {
	changed := a != s.active
	s.active = a
	if err := s.refresh(ctx); err != nil {
		return err
	}
	if changed {
		s.resetDraft()
	}
	return nil
}

func (s *Session) navigate(ctx context.Context, a anchor.Anchor) error {
	doc, err := s.lib.SetReadingPosition(ctx, s.doc.ID, a)
	if err != nil {
		return err
	}
	s.doc = *doc
	return s.switchTo(ctx, a)
}

// PageChanged handles the paginated renderer's callback (1-based page).
func (s *Session) PageChanged(ctx context.Context, page int) error {
	if s.closed {
		return ErrSessionClosed
	}
	a, err := anchor.Page(page)
	if err != nil {
		return err
	}
	return s.navigate(ctx, a)
}

// Relocated handles the flow renderer's callback with its position token.
func (s *Session) Relocated(ctx context.Context, token string) error {
	if s.closed {
		return ErrSessionClosed
	}
	a, err := anchor.Flow(token)
	if err != nil {
		return err
	}
	return s.navigate(ctx, a)
}

// Select activates a (typically a saved note's anchor) without moving the
// reading position.
func (s *Session) Select(ctx context.Context, a anchor.Anchor) error {
	if s.closed {
		return ErrSessionClosed
	}
	if !a.Fits(s.doc.Type) {
		return fmt.Errorf("%w: anchor %s does not fit a %s document", common.ErrorValidation, a, s.doc.Type)
	}
	return s.switchTo(ctx, a)
}

// Edit replaces the draft contents.
func (s *Session) Edit(title, html string) {
	s.draft = Draft{Title: title, HTML: html, Dirty: true}
}

// Save stores the draft as the note at the active anchor.
func (s *Session) Save(ctx context.Context) (*models.Note, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	n, err := s.lib.SaveNote(ctx, s.doc.ID, s.active, s.draft.Title, s.draft.HTML)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx); err != nil {
		return nil, err
	}
	s.resetDraft()
	return n, nil
}

// Close drops the in-memory file. The session cannot be used afterwards.
func (s *Session) Close() {
	s.file = nil
	s.closed = true
}

// File returns the document bytes held by the session.
func (s *Session) File() ([]byte, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	return s.file, nil
}

func (s *Session) Document() models.Document { return s.doc }
func (s *Session) Active() anchor.Anchor     { return s.active }
func (s *Session) Notes() []models.Note      { return s.notes }
func (s *Session) Draft() Draft              { return s.draft }
func (s *Session) Closed() bool              { return s.closed }

// Note returns the note at the active anchor, or nil.
func (s *Session) Note() *models.Note { return s.note }

// ResumeAnchor returns the anchor of the stored reading position, or the
// document level when there is none or it cannot be read.
func (s *Session) ResumeAnchor() anchor.Anchor {
	a, err := anchor.FromPosition(s.doc.Type, s.doc.LastLocation)
	if err != nil {
		return anchor.DocumentLevel()
	}
	return a
}
