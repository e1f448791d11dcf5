// Package backup defines the metadata-and-notes backup payload and its
// JSON and CBOR encodings. Blob contents are not part of a backup.
package backup

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/booknook/internal/anchor"
	"github.com/dmitrijs2005/booknook/internal/blobstore"
	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/models"
)

// Payload is a full export of the metadata store.
type Payload struct {
	Folders    []models.Folder   `json:"folders"`
	Documents  []models.Document `json:"documents"`
	Notes      []models.Note     `json:"notes"`
	ExportedAt time.Time         `json:"exportedAt"`
}

// wire mirrors Payload with pointer slices so a missing collection can be
// told apart from an empty one.
type wire struct {
	Folders    *[]models.Folder   `json:"folders"`
	Documents  *[]models.Document `json:"documents"`
	Notes      *[]models.Note     `json:"notes"`
	ExportedAt time.Time          `json:"exportedAt"`
}

func (w *wire) payload() (*Payload, error) {
	var missing []string
	if w.Folders == nil {
		missing = append(missing, "folders")
	}
	if w.Documents == nil {
		missing = append(missing, "documents")
	}
	if w.Notes == nil {
		missing = append(missing, "notes")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: backup is missing %v", common.ErrorValidation, missing)
	}
	p := &Payload{
		Folders:    *w.Folders,
		Documents:  *w.Documents,
		Notes:      *w.Notes,
		ExportedAt: w.ExportedAt.UTC(),
	}
	for i := range p.Folders {
		p.Folders[i].CreatedAt = p.Folders[i].CreatedAt.UTC()
		p.Folders[i].UpdatedAt = p.Folders[i].UpdatedAt.UTC()
	}
	for i := range p.Documents {
		p.Documents[i].CreatedAt = p.Documents[i].CreatedAt.UTC()
		p.Documents[i].UpdatedAt = p.Documents[i].UpdatedAt.UTC()
	}
	for i := range p.Notes {
		p.Notes[i].CreatedAt = p.Notes[i].CreatedAt.UTC()
		p.Notes[i].UpdatedAt = p.Notes[i].UpdatedAt.UTC()
	}
	return p, nil
}

func toWire(p *Payload) *wire {
	w := &wire{
		Folders:    &p.Folders,
		Documents:  &p.Documents,
		Notes:      &p.Notes,
		ExportedAt: p.ExportedAt,
	}
	// always emit arrays, never null
	if p.Folders == nil {
		w.Folders = &[]models.Folder{}
	}
	if p.Documents == nil {
		w.Documents = &[]models.Document{}
	}
	if p.Notes == nil {
		w.Notes = &[]models.Note{}
	}
	return w
}

// Validate checks every record: ids must be set, document types known, blob
// paths well-formed and note anchors parsable. The first problem is reported.
func (p *Payload) Validate() error {
	for i, f := range p.Folders {
		if f.ID == "" {
			return fmt.Errorf("%w: folders[%d] has no id", common.ErrorValidation, i)
		}
	}
	for i, d := range p.Documents {
		if d.ID == "" {
			return fmt.Errorf("%w: documents[%d] has no id", common.ErrorValidation, i)
		}
		if !d.Type.Valid() {
			return fmt.Errorf("%w: document %s has unknown type %q", common.ErrorValidation, d.ID, d.Type)
		}
		if err := blobstore.ValidatePath(d.BlobPath); err != nil {
			return fmt.Errorf("document %s: %w", d.ID, err)
		}
	}
	for i, n := range p.Notes {
		if n.ID == "" {
			return fmt.Errorf("%w: notes[%d] has no id", common.ErrorValidation, i)
		}
		if _, err := anchor.Parse(n.Anchor); err != nil {
			return fmt.Errorf("note %s: %w", n.ID, err)
		}
	}
	return nil
}
