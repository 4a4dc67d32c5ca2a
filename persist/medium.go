package persist

import (
	"context"
	"encoding/json"
)

// MediumType selects a persistence backend.
type MediumType string

const (
	MediumMemory MediumType = "memory"
	MediumFile   MediumType = "file"
	// MediumDocumentDB is a MongoDB-compatible document store.
	MediumDocumentDB MediumType = "document-db"
	MediumRedis      MediumType = "redis"
)

// Document is a single persisted record: an opaque JSON body addressed by ID
// within a collection.
type Document struct {
	ID   string          `json:"id"`
	Body json.RawMessage `json:"body"`
}

// Medium is the narrow port the sync manager writes through. Any document
// store satisfies it; the core has no dependency on a specific backend.
type Medium interface {
	// Write upserts docs into the collection.
	Write(ctx context.Context, collection string, docs []Document) error
	// Read returns every document in the collection, ordered by ID.
	Read(ctx context.Context, collection string) ([]Document, error)
	// Delete removes the identified documents. Missing IDs are not an error.
	Delete(ctx context.Context, collection string, ids []string) error
}
