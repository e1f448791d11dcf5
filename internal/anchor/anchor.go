// Package anchor implements location anchors: the key that ties a note, or
// a reading position, to a place inside a document.
//
// Three forms exist:
//
//	doc            document-level, the default before any navigation
//	pdf:<page>     1-based page of a page-paginated document
//	epub:<token>   opaque position token of a flow-addressed document
//
// Flow tokens are produced by the renderer and are never parsed or ordered.
package anchor

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/booknook/internal/common"
	"github.com/dmitrijs2005/booknook/internal/models"
)

// Kind tells which variant an Anchor holds.
type Kind int

const (
	KindDocument Kind = iota
	KindPage
	KindFlow
)

func (k Kind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindFlow:
		return "flow"
	}
	return "document"
}

const (
	docForm    = "doc"
	pagePrefix = "pdf:"
	flowPrefix = "epub:"
)

// Anchor is an immutable tagged value. The zero value is DocumentLevel.
type Anchor struct {
	kind  Kind
	page  int
	token string
}

// DocumentLevel returns the anchor of a document-wide note.
func DocumentLevel() Anchor {
	return Anchor{}
}

// Page returns a page anchor. n must be >= 1.
func Page(n int) (Anchor, error) {
	if n < 1 {
		return Anchor{}, fmt.Errorf("%w: page must be >= 1, got %d", common.ErrorValidation, n)
	}
	return Anchor{kind: KindPage, page: n}, nil
}

// Flow returns a flow anchor for a renderer token. The token must be non-empty.
func Flow(token string) (Anchor, error) {
	if token == "" {
		return Anchor{}, fmt.Errorf("%w: empty flow token", common.ErrorValidation)
	}
	return Anchor{kind: KindFlow, token: token}, nil
}

func (a Anchor) Kind() Kind       { return a.kind }
func (a Anchor) PageNum() int     { return a.page }
func (a Anchor) Token() string    { return a.token }
func (a Anchor) IsDocument() bool { return a.kind == KindDocument }

// String returns the storage form of a.
func (a Anchor) String() string {
	switch a.kind {
	case KindPage:
		return pagePrefix + strconv.Itoa(a.page)
	case KindFlow:
		return flowPrefix + a.token
	}
	return docForm
}

// Parse accepts exactly the three storage forms. Page numbers must be written
// canonically ("pdf:7", not "pdf:07" or "pdf:+7").
func Parse(s string) (Anchor, error) {
	switch {
	case s == docForm:
		return DocumentLevel(), nil
	case strings.HasPrefix(s, pagePrefix):
		rest := s[len(pagePrefix):]
		n, err := strconv.Atoi(rest)
		if err != nil || strconv.Itoa(n) != rest {
			return Anchor{}, fmt.Errorf("%w: bad page anchor %q", common.ErrorValidation, s)
		}
		return Page(n)
	case strings.HasPrefix(s, flowPrefix):
		return Flow(s[len(flowPrefix):])
	}
	return Anchor{}, fmt.Errorf("%w: unknown anchor %q", common.ErrorValidation, s)
}

// MustParse is Parse for constant inputs; it panics on error.
func MustParse(s string) Anchor {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Position returns the reading-position string stored on a document:
// the page number, the flow token, or "" for the document level.
func (a Anchor) Position() string {
	switch a.kind {
	case KindPage:
		return strconv.Itoa(a.page)
	case KindFlow:
		return a.token
	}
	return ""
}

// FromPosition rebuilds an anchor from a stored reading position.
// An empty position is the document level.
func FromPosition(t models.DocumentType, pos string) (Anchor, error) {
	if pos == "" {
		return DocumentLevel(), nil
	}
	switch t {
	case models.DocumentTypePDF:
		n, err := strconv.Atoi(pos)
		if err != nil {
			return Anchor{}, fmt.Errorf("%w: bad page position %q", common.ErrorValidation, pos)
		}
		return Page(n)
	case models.DocumentTypeEPUB:
		return Flow(pos)
	}
	return Anchor{}, fmt.Errorf("%w: unknown document type %q", common.ErrorValidation, t)
}

// Fits reports whether a can address a document of type t. The document
// level fits every type.
func (a Anchor) Fits(t models.DocumentType) bool {
	switch a.kind {
	case KindPage:
		return t == models.DocumentTypePDF
	case KindFlow:
		return t == models.DocumentTypeEPUB
	}
	return t.Valid()
}

// DefaultTitle is the title given to a note saved without one.
func (a Anchor) DefaultTitle() string {
	if a.kind == KindDocument {
		return "General note"
	}
	return "Note @ " + a.String()
}
