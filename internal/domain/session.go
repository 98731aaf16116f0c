// Package domain contains entities without logic, just meta-data
package domain

import "time"

type (
	// Token is the opaque session identifier handed out in a descriptor.
	Token string
	// ConnID identifies one live signaling socket for the lifetime of the process.
	ConnID string
)

// Session pairs at most one source and one viewer connection.
// Empty slots hold the zero ConnID.
type Session struct {
	Token     Token     `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
	Source    ConnID    `json:"-"`
	Viewer    ConnID    `json:"-"`
}

func NewSession(token Token, createdAt time.Time) *Session {
	return &Session{Token: token, CreatedAt: createdAt}
}

// Slot returns the connection occupying role, or "" if the slot is empty.
func (s *Session) Slot(role Role) ConnID {
	switch role {
	case RoleSource:
		return s.Source
	case RoleViewer:
		return s.Viewer
	default:
		return ""
	}
}

func (s *Session) SetSlot(role Role, id ConnID) {
	switch role {
	case RoleSource:
		s.Source = id
	case RoleViewer:
		s.Viewer = id
	}
}

// Expired reports whether the session is strictly older than ttl at now.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.CreatedAt) > ttl
}

func (s *Session) Empty() bool {
	return s.Source == "" && s.Viewer == ""
}
