package identity

import (
	"context"
	"strings"
	"sync"

	"github.com/swiftex-io/lintex-legolas/pkg/util"
)

const (
	GuestEmail    = "guest@lintex.exchange"
	GuestNickname = "Guest_Trader"
)

// User is the signed-in trader, either authenticated or a local guest.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Guest    bool   `json:"isGuest"`
}

// Provider is the external authentication collaborator. Session returns
// nil with no error when nobody is signed in.
type Provider interface {
	Session(ctx context.Context) (*User, error)
	SignOut(ctx context.Context) error
}

// NewGuest mints a guest user with a fresh id
func NewGuest(ids util.IDGenerator) User {
	return User{
		ID:       "guest-" + ids.NextID(),
		Email:    GuestEmail,
		Nickname: GuestNickname,
		Guest:    true,
	}
}

// NicknameFromEmail uses the local part of an address as display name
func NicknameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}

// Anonymous never has a session. It stands in when no provider is configured.
type Anonymous struct{}

func (Anonymous) Session(context.Context) (*User, error) { return nil, nil }
func (Anonymous) SignOut(context.Context) error          { return nil }

// Static always reports the same user until signed out.
type Static struct {
	mu   sync.Mutex
	user *User
}

func NewStatic(u User) *Static {
	if u.Nickname == "" {
		u.Nickname = NicknameFromEmail(u.Email)
	}
	return &Static{user: &u}
}

func (s *Static) Session(context.Context) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, nil
	}
	u := *s.user
	return &u, nil
}

func (s *Static) SignOut(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	return nil
}
