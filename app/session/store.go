package session

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/shashiranjanraj/storeadmin/pkg/storage"
)

// Store keeps one editor per product.
type Store struct {
	deps Deps

	mu      sync.Mutex
	editors map[int64]*Editor
}

// NewStore creates a Store. A nil staging disk stages files under the
// system temp directory.
func NewStore(deps Deps) *Store {
	if deps.Staging == nil {
		deps.Staging = storage.NewLocal(filepath.Join(os.TempDir(), "storeadmin"))
	}
	return &Store{deps: deps, editors: map[int64]*Editor{}}
}

// Open returns the product's editor, opening it when it is idle. An editor
// that is already open, or whose last submit failed, is returned with its
// current snapshot. An editor that fails to open is forgotten.
func (s *Store) Open(ctx context.Context, productID int64) (*Editor, Snapshot, error) {
	s.mu.Lock()
	e, ok := s.editors[productID]
	if !ok {
		e = NewEditor(productID, s.deps)
		s.editors[productID] = e
	}
	s.mu.Unlock()

	snap, err := e.Join(ctx)
	if err != nil {
		s.mu.Lock()
		if s.editors[productID] == e && e.State() == StateIdle {
			delete(s.editors, productID)
		}
		s.mu.Unlock()
		return nil, Snapshot{}, err
	}
	return e, snap, nil
}

// Get returns the product's editor.
func (s *Store) Get(productID int64) (*Editor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.editors[productID]
	if !ok {
		return nil, ErrNotFound
	}
	return e, nil
}

// Close closes and forgets the product's editor.
func (s *Store) Close(productID int64) error {
	s.mu.Lock()
	e, ok := s.editors[productID]
	delete(s.editors, productID)
	s.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	e.Close()
	return nil
}

// CloseAll closes every editor.
func (s *Store) CloseAll() {
	s.mu.Lock()
	editors := s.editors
	s.editors = map[int64]*Editor{}
	s.mu.Unlock()
	for _, e := range editors {
		e.Close()
	}
}

// Len reports how many editors the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.editors)
}
