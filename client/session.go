package client

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"familytree/domain"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
)

type Profile struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	IsPaid bool   `json:"isPaid"`
}

// SessionState is what survives between runs.
type SessionState struct {
	Token   string   `json:"token"`
	Profile *Profile `json:"profile,omitempty"`
}

type SessionStore interface {
	Load() (*SessionState, error)
	Save(state *SessionState) error
	Clear() error
}

// Session holds the bearer token and profile of the signed-in account. It is
// created once at the application root and handed to whoever needs it.
type Session struct {
	mu    sync.RWMutex
	store SessionStore
	state SessionState
}

// NewSession returns an empty session backed by store. A nil store keeps the
// session in memory only.
func NewSession(store SessionStore) *Session {
	return &Session{store: store}
}

// Init loads the persisted session, if any.
func (s *Session) Init() error {
	if s.store == nil {
		return nil
	}
	state, err := s.store.Load()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state == nil {
		s.state = SessionState{}
	} else {
		s.state = *state
	}
	return nil
}

func (s *Session) SignIn(token string, profile Profile) error {
	s.mu.Lock()
	s.state = SessionState{Token: token, Profile: &profile}
	state := s.state
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.Save(&state)
}

func (s *Session) SignOut() error {
	s.mu.Lock()
	s.state = SessionState{}
	s.mu.Unlock()

	if s.store == nil {
		return nil
	}
	return s.store.Clear()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

func (s *Session) Profile() (Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.Profile == nil {
		return Profile{}, false
	}
	return *s.state.Profile, true
}

// ProfileFromToken reads the account claims of a token issued by the
// identity service. The signature is not checked here; the store does that.
func ProfileFromToken(token string) (Profile, error) {
	claims := &domain.Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return Profile{}, fmt.Errorf("failed to read token: %w", err)
	}
	return Profile{
		ID:     claims.UserID,
		Name:   claims.Username,
		IsPaid: claims.IsPaid,
	}, nil
}

// FileSessionStore keeps the session as a JSON file.
type FileSessionStore struct {
	Path string
}

func (fs FileSessionStore) Load() (*SessionState, error) {
	data, err := os.ReadFile(fs.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var state SessionState
	if err := sonic.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &state, nil
}

func (fs FileSessionStore) Save(state *SessionState) error {
	data, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(fs.Path), 0o700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	if err := os.WriteFile(fs.Path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

func (fs FileSessionStore) Clear() error {
	if err := os.Remove(fs.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove session: %w", err)
	}
	return nil
}
