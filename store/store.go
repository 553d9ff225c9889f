// Package store keeps uploaded matrices in memory under random identifiers.
package store

import (
	"errors"
	"fmt"
	"sync"

	"distmul/matrix"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// ErrNotFound is returned when no matrix is stored under an identifier.
var ErrNotFound = errors.New("matrix not found")

// Store is a concurrency-safe in-memory matrix store.
type Store struct {
	mu    sync.RWMutex
	items map[uuid.UUID]*matrix.Matrix
}

// New returns an empty store.
func New() *Store {
	return &Store{items: make(map[uuid.UUID]*matrix.Matrix)}
}

// Save stores m and returns its new identifier.
func (s *Store) Save(m *matrix.Matrix) uuid.UUID {
	id := uuid.New()
	s.mu.Lock()
	s.items[id] = m
	s.mu.Unlock()
	return id
}

// Get returns the matrix stored under id.
func (s *Store) Get(id uuid.UUID) (*matrix.Matrix, error) {
	s.mu.RLock()
	m, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: the ID %s does not exist", ErrNotFound, id)
	}
	return m, nil
}

// List returns the side length of every stored matrix keyed by identifier.
func (s *Store) List() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.MapEntries(s.items, func(id uuid.UUID, m *matrix.Matrix) (string, int) {
		return id.String(), m.Size
	})
}

// Len returns the number of stored matrices.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
