// Package content implements the shared content-document cache: the
// arena of patched documents keyed by content key, written only by the
// mod loader and read by everything downstream.
package content

import (
	"fmt"
	"sort"
	"sync"

	"github.com/starford/othala/internal/apperr"
	"github.com/starford/othala/internal/document"
)

// Store holds the session's content documents. The loader is the sole
// writer; the lock exists so watch-mode reloads and API readers do not
// race, not to support concurrent writers.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*document.Node
}

// NewStore creates an empty content store.
func NewStore() *Store {
	return &Store{docs: map[string]*document.Node{}}
}

// Get returns the document for key.
func (s *Store) Get(key string) (*document.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.docs[key]
	return d, ok
}

// Add inserts a document under a new key. Used when a mod contributes
// content rather than patching existing content.
func (s *Store) Add(key string, doc *document.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; ok {
		return fmt.Errorf("content: add %q: %w", key, apperr.ErrAlreadyExists)
	}
	s.docs[key] = doc
	return nil
}

// Replace swaps the document under an existing key.
func (s *Store) Replace(key string, doc *document.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[key]; !ok {
		return fmt.Errorf("content: replace %q: %w", key, apperr.ErrNotFound)
	}
	s.docs[key] = doc
	return nil
}

// Put inserts or replaces without caring whether key exists. Later mods
// that ship a raw document for an existing key override it this way.
func (s *Store) Put(key string, doc *document.Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = doc
}

// Keys returns all content keys, sorted.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.docs))
	for k := range s.docs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of documents in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Reset drops every document. Only the watch-mode full reload uses
// this; within a session content otherwise persists.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = map[string]*document.Node{}
}
