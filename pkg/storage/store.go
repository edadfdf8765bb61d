package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/swiftex-io/lintex-legolas/pkg/identity"
)

// SessionKey is the single key the guest session lives under.
const SessionKey = "lintex_guest_session"

var ErrClosed = errors.New("session store closed")

// SessionStore persists the guest session across restarts. LoadGuest
// returns nil with no error when nothing is stored.
type SessionStore interface {
	SaveGuest(u identity.User) error
	LoadGuest() (*identity.User, error)
	ClearGuest() error
	Close() error
}

func encodeUser(u identity.User) ([]byte, error) {
	data, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session: %w", err)
	}
	return data, nil
}

func decodeUser(data []byte) (*identity.User, error) {
	var u identity.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &u, nil
}
