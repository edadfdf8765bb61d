package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/swiftex-io/lintex-legolas/pkg/identity"
)

type PebbleStore struct {
	db *pebble.DB
}

func NewPebbleStore(path string) (*PebbleStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create session dir: %w", err)
	}
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) Close() error { return s.db.Close() }

func kSession() []byte { return []byte(SessionKey) }

// SaveGuest persists the guest user
func (s *PebbleStore) SaveGuest(u identity.User) error {
	data, err := encodeUser(u)
	if err != nil {
		return err
	}
	if err := s.db.Set(kSession(), data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// LoadGuest returns the stored guest, or nil if there is none
func (s *PebbleStore) LoadGuest() (*identity.User, error) {
	val, closer, err := s.db.Get(kSession())
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	defer closer.Close()
	return decodeUser(val)
}

// ClearGuest deletes the stored guest; clearing an empty store is fine
func (s *PebbleStore) ClearGuest() error {
	if err := s.db.Delete(kSession(), pebble.Sync); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

var _ SessionStore = (*PebbleStore)(nil)
