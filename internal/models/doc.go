// Package models defines the records persisted by BookNook: folders
// (the user-facing "books"), the documents imported into them, and the notes
// anchored to reading positions inside documents.
//
// Timestamps are always UTC. The json tags double as the backup wire format;
// the CBOR codec reuses them.
package models
