package app

import (
	"fmt"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickMember
)

func (a BackpressureAction) String() string {
	if a == KickMember {
		return "kick"
	}
	return "drop"
}

// Policy decides what happens to a connection whose send queue is full.
type Policy interface {
	OnBackPressure(conn domain.ConnID) BackpressureAction
}

type SimplePolicy struct {
	Action BackpressureAction
}

func (p SimplePolicy) OnBackPressure(domain.ConnID) BackpressureAction {
	return p.Action
}

func ParseBackpressure(raw string) (BackpressureAction, error) {
	switch raw {
	case "drop":
		return DropFrame, nil
	case "kick", "":
		return KickMember, nil
	default:
		return DropFrame, fmt.Errorf("unknown backpressure action %q", raw)
	}
}
