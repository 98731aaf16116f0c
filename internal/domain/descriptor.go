package domain

import "time"

// Descriptor is what a second endpoint needs to reach the relay and join a
// session. It is rendered out-of-band, typically as a QR code.
type Descriptor struct {
	Token     Token     `json:"token"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}
