package domain

import (
	"fmt"
	"strings"
)

type Role string

const (
	RoleSource Role = "source"
	RoleViewer Role = "viewer"
)

// ParseRole accepts the protocol names and the legacy device names
// ("pc" for the source page, "mobile" for the scanning viewer).
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "source", "pc":
		return RoleSource, nil
	case "viewer", "mobile":
		return RoleViewer, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, raw)
	}
}

func (r Role) Valid() bool {
	return r == RoleSource || r == RoleViewer
}

// Counterpart returns the other role of a session.
func (r Role) Counterpart() Role {
	if r == RoleSource {
		return RoleViewer
	}
	return RoleSource
}
