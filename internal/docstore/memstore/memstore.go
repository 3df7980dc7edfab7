// Package memstore is an in-memory document store used by tests and local
// development. It supports ordered listing, which also exercises the
// server-side-sort path of the repository layer.
package memstore

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"github.com/promptsim/backend/internal/docstore"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]json.RawMessage
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]json.RawMessage)}
}

func (s *Store) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, docstore.ErrNotFound
	}
	return clone(doc), nil
}

func (s *Store) Set(ctx context.Context, collection, id string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]json.RawMessage)
	}
	s.collections[collection][id] = clone(data)
	return nil
}

func (s *Store) Delete(ctx context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.collections[collection], id)
	return nil
}

func (s *Store) Exists(ctx context.Context, collection, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.collections[collection][id]
	return ok, nil
}

func (s *Store) List(ctx context.Context, collection string) ([]docstore.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := make([]docstore.Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, docstore.Document{ID: id, Data: clone(data)})
	}
	return docs, nil
}

func (s *Store) SupportsOrderedList() bool {
	return true
}

func (s *Store) ListOrdered(ctx context.Context, collection, field string) ([]docstore.Document, error) {
	docs, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	// RFC3339 strings compare lexicographically in chronological order.
	sort.Slice(docs, func(i, j int) bool {
		return fieldValue(docs[i].Data, field) > fieldValue(docs[j].Data, field)
	})
	return docs, nil
}

func fieldValue(data json.RawMessage, field string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return ""
	}
	var v string
	if err := json.Unmarshal(m[field], &v); err != nil {
		return ""
	}
	return v
}

func clone(data json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(data))
	copy(out, data)
	return out
}
