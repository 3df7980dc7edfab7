// Package docstore defines the document database contract the rest of the
// system depends on: JSON documents addressed by (collection, id), with
// whole-collection listing as the only query primitive.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// ErrNotFound is returned by Get when no document exists under the id.
var ErrNotFound = errors.New("document not found")

// Document pairs a store-assigned id with the raw JSON body.
type Document struct {
	ID   string
	Data json.RawMessage
}

// Store is the document database adapter. Writes are unconditional
// overwrites of the whole document; there are no transactions.
type Store interface {
	Get(ctx context.Context, collection, id string) (json.RawMessage, error)
	Set(ctx context.Context, collection, id string, data json.RawMessage) error
	Delete(ctx context.Context, collection, id string) error
	Exists(ctx context.Context, collection, id string) (bool, error)
	List(ctx context.Context, collection string) ([]Document, error)

	// SupportsOrderedList reports whether ListOrdered can sort on the
	// backend. Callers must sort client-side when it returns false;
	// checking the capability up front replaces catching a backend-specific
	// missing-index error at query time.
	SupportsOrderedList() bool

	// ListOrdered returns the collection sorted descending by the named
	// RFC3339 timestamp field. Only valid when SupportsOrderedList is true.
	ListOrdered(ctx context.Context, collection, field string) ([]Document, error)
}
