// Package memory is a SessionStore that keeps sessions in process memory.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/OFFIS-RIT/annograph/backend/pkg/common"
	"github.com/OFFIS-RIT/annograph/backend/pkg/store"
)

type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

var _ store.Lister = (*Store)(nil)

func New() *Store {
	return &Store{data: map[string][]byte{}}
}

// Load returns store.ErrNotFound for unknown handles.
func (s *Store) Load(ctx context.Context, handle string) ([]common.QuestionAndAnswer, error) {
	s.mu.RLock()
	data, ok := s.data[handle]
	s.mu.RUnlock()
	if !ok {
		return nil, store.ErrNotFound
	}
	return store.Decode(data)
}

func (s *Store) Save(ctx context.Context, handle string, items []common.QuestionAndAnswer) error {
	data, err := store.Encode(items)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data[handle] = data
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(ctx context.Context, handle string) error {
	s.mu.Lock()
	delete(s.data, handle)
	s.mu.Unlock()
	return nil
}

// Handles returns the stored handles in sorted order.
func (s *Store) Handles(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	handles := make([]string, 0, len(s.data))
	for h := range s.data {
		handles = append(handles, h)
	}
	slices.Sort(handles)
	return handles, nil
}
