package storage

import (
	"sync"

	"github.com/swiftex-io/lintex-legolas/pkg/identity"
)

// InMemoryStore keeps the session for the life of the process only.
type InMemoryStore struct {
	mu     sync.Mutex
	data   []byte
	closed bool
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) SaveGuest(u identity.User) error {
	data, err := encodeUser(u)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = data
	return nil
}

func (s *InMemoryStore) LoadGuest() (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if s.data == nil {
		return nil, nil
	}
	return decodeUser(s.data)
}

func (s *InMemoryStore) ClearGuest() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.data = nil
	return nil
}

func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ SessionStore = (*InMemoryStore)(nil)
