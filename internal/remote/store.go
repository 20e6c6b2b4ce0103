package remote

import (
	"context"
	"errors"
)

// ErrNotFound reports an authoritative "document does not exist" answer from
// the remote store, as opposed to a transport failure.
var ErrNotFound = errors.New("remote: document not found")

// Document is a structured document held by the remote store.
type Document struct {
	ID   string
	Data map[string]any
}

// Filter is an equality constraint on a document field.
type Filter struct {
	Field string
	Value any
}

// Cursor marks the last document of a previously returned page. It is opaque
// to callers; only the store that produced it can interpret it.
type Cursor struct {
	id string
}

// Query describes an ordered, filtered page request against a collection.
// A Limit <= 0 means no limit.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
	StartAfter *Cursor
}

// Store is the consumed interface of the remote authoritative document store.
type Store interface {
	// Get returns the document by id, or ErrNotFound when the store
	// authoritatively reports absence.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Set overwrites the full document payload under the given id.
	Set(ctx context.Context, collection, id string, data map[string]any) error

	// Delete removes the document. Deleting an absent document is not an error.
	Delete(ctx context.Context, collection, id string) error

	// Query returns an ordered page of documents and the cursor of the last
	// returned document (nil when the page is empty).
	Query(ctx context.Context, q Query) ([]Document, *Cursor, error)
}
