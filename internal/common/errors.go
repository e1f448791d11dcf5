// Package common defines the sentinel errors shared by the storage, library
// and session layers of BookNook. Callers should use errors.Is to match these
// values; the original cause stays in the chain.
package common

import "errors"

var (
	// ErrorNotFound reports a missing folder, document, note or blob.
	ErrorNotFound = errors.New("not found")

	// ErrorValidation reports malformed input: an empty title, an unknown
	// document type, a bad anchor or an incomplete backup payload.
	ErrorValidation = errors.New("validation error")

	// ErrorStorage wraps failures of the underlying stores (I/O errors,
	// quota, driver errors) as seen by the aggregate operations.
	ErrorStorage = errors.New("storage error")
)
