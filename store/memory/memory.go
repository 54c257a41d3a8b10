// Package memory provides an in-process securebag.ItemStore.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/zoobzio/securebag"
)

// Store keeps raw items in memory, keyed by bag and id. Documents are
// copied on the way in and out.
type Store struct {
	mu   sync.RWMutex
	bags map[string]map[string]*securebag.Document
}

// New returns an empty store.
func New() *Store {
	return &Store{bags: make(map[string]map[string]*securebag.Document)}
}

// Load returns a copy of the stored item.
func (s *Store) Load(_ context.Context, bag, id string) (*securebag.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.bags[bag][id]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", securebag.ErrItemNotFound, bag, id)
	}
	return doc.Clone(), nil
}

// Save stores a copy of doc.
func (s *Store) Save(_ context.Context, bag, id string, doc *securebag.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, ok := s.bags[bag]
	if !ok {
		items = make(map[string]*securebag.Document)
		s.bags[bag] = items
	}
	items[id] = doc.Clone()
	return nil
}

// Delete removes an item. Deleting a missing item is not an error.
func (s *Store) Delete(_ context.Context, bag, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.bags[bag], id)
	return nil
}

// List returns the ids stored in bag, sorted.
func (s *Store) List(_ context.Context, bag string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.bags[bag]))
	for id := range s.bags[bag] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close drops every item.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bags = make(map[string]map[string]*securebag.Document)
	return nil
}

var _ securebag.ItemStore = (*Store)(nil)
