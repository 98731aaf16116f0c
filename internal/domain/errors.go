package domain

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidRole       = errors.New("invalid role")
	ErrEmptyToken        = errors.New("empty session token")
	ErrUnknownConnection = errors.New("unknown connection")
	ErrNotBound          = errors.New("connection not bound to session")
)
