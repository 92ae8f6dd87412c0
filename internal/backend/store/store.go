// Package store provides a generic document collection used by every backend entity.
package store

import (
	"context"
	"time"
)

// Record is a stored document with the metadata the store maintains for it.
type Record[T any] struct {
	ID        int64
	Version   int32
	Doc       T
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Filter matches documents whose body contains every key with an equal value.
// Keys are the JSON field names of the document. An empty filter matches everything.
type Filter map[string]any

// Collection is a named set of documents of type T keyed by a sequential int64 id.
// It abstracts the underlying data store (PostgreSQL JSONB or MongoDB).
type Collection[T any] interface {
	// NextID allocates the next id of the collection. Ids start at 1 and are never reused.
	NextID(ctx context.Context) (int64, error)

	// Insert stores doc under id with version 1.
	Insert(ctx context.Context, id int64, doc T) (*Record[T], error)

	// FindByID retrieves a single document.
	// Returns ErrDocumentNotFound if no document exists with the given ID.
	FindByID(ctx context.Context, id int64) (*Record[T], error)

	// Find returns matching documents ordered by id.
	// Returns an empty slice if nothing matches.
	Find(ctx context.Context, filter Filter, offset, limit int) ([]Record[T], error)

	// Count returns the number of documents in the collection.
	Count(ctx context.Context) (int64, error)

	// Replace overwrites the document if its current version equals version and bumps the version.
	// Returns ErrDocumentNotFound if the id is unknown and ErrOptimisticLock on a version mismatch.
	Replace(ctx context.Context, id int64, version int32, doc T) (*Record[T], error)

	// Delete removes the document.
	// Returns ErrDocumentNotFound if no document exists with the given ID.
	Delete(ctx context.Context, id int64) error
}
