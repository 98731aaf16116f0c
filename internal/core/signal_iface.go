package core

import "errors"

var (
	ErrBackpressure     = errors.New("backpressure")
	ErrConnectionClosed = errors.New("connection closed")
)

// Frame is one encoded text message on a signaling socket.
type Frame []byte

// SignalConnection is the send side of a signaling socket.
// Owned by the adapter; the adapter must Close() it. TrySend never blocks:
// it enqueues or fails with ErrBackpressure / ErrConnectionClosed.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
