package app

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

const maxTokenAttempts = 8

type StoreOption func(*Store)

// WithClock replaces the store clock.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithTokenSource replaces the token generator. Used by tests to force collisions.
func WithTokenSource(next func() string) StoreOption {
	return func(s *Store) { s.newToken = next }
}

// Store keeps every live session in memory, keyed by token.
type Store struct {
	mu       sync.RWMutex
	sessions map[domain.Token]*domain.Session
	now      func() time.Time
	newToken func() string
}

func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		sessions: make(map[domain.Token]*domain.Session),
		now:      time.Now,
		newToken: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Now() time.Time { return s.now() }

// Create inserts a fresh session with both slots empty.
// It panics if the token source keeps returning tokens already in use.
func (s *Store) Create() domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for attempt := 0; attempt < maxTokenAttempts; attempt++ {
		token := domain.Token(s.newToken())
		if token == "" {
			continue
		}
		if _, taken := s.sessions[token]; taken {
			log.Warn().Str("module", "app.store").Str("token", string(token)).Msg("token collision, retrying")
			continue
		}
		sess := domain.NewSession(token, s.now())
		s.sessions[token] = sess
		log.Info().Str("module", "app.store").Str("token", string(token)).Msg("created session")
		return *sess
	}
	panic(fmt.Sprintf("app.store: no unique token after %d attempts", maxTokenAttempts))
}

func (s *Store) Get(token domain.Token) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, fmt.Errorf("get %q: %w", token, domain.ErrSessionNotFound)
	}
	return *sess, nil
}

func (s *Store) Remove(token domain.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[token]; !ok {
		return
	}
	delete(s.sessions, token)
	log.Info().Str("module", "app.store").Str("token", string(token)).Msg("removed session")
}

// Bind puts conn into the role slot and returns whatever occupied it before.
func (s *Store) Bind(token domain.Token, role domain.Role, conn domain.ConnID) (domain.ConnID, error) {
	if !role.Valid() {
		return "", fmt.Errorf("bind %q: %w", role, domain.ErrInvalidRole)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok {
		return "", fmt.Errorf("bind %q: %w", token, domain.ErrSessionNotFound)
	}
	prev := sess.Slot(role)
	sess.SetSlot(role, conn)
	return prev, nil
}

// Unbind clears the role slot only if it still holds conn.
func (s *Store) Unbind(token domain.Token, role domain.Role, conn domain.ConnID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[token]
	if !ok || sess.Slot(role) != conn || conn == "" {
		return false
	}
	sess.SetSlot(role, "")
	return true
}

// SweepExpired removes and returns every session older than ttl at now.
func (s *Store) SweepExpired(now time.Time, ttl time.Duration) []domain.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Session
	for token, sess := range s.sessions {
		if sess.Expired(now, ttl) {
			out = append(out, *sess)
			delete(s.sessions, token)
		}
	}
	return out
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// List returns a snapshot ordered by creation time.
func (s *Store) List() []domain.Session {
	s.mu.RLock()
	out := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
