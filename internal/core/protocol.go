package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

type MessageType string

// Inbound message types.
const (
	MsgJoin      MessageType = "join"
	MsgLeave     MessageType = "leave"
	MsgOffer     MessageType = "offer"
	MsgAnswer    MessageType = "answer"
	MsgCandidate MessageType = "ice-candidate"
	MsgPing      MessageType = "ping"
	MsgWhoAmI    MessageType = "whoami"
)

// Outbound event types. Offer, answer and ice-candidate reuse the inbound names.
const (
	EvtJoined       MessageType = "joined"
	EvtLeft         MessageType = "left"
	EvtPeerJoined   MessageType = "peer-joined"
	EvtPeerLeft     MessageType = "peer-left"
	EvtPeerReplaced MessageType = "peer-replaced"
	EvtError        MessageType = "error"
	EvtPong         MessageType = "pong"
)

// Error codes carried by EvtError.
const (
	CodeSessionNotFound = "session_not_found"
	CodeInvalidRole     = "invalid_role"
	CodeBadPayload      = "bad_payload"
	CodeNotJoined       = "not_joined"
	CodeReplaced        = "replaced"
	CodeRateLimited     = "rate_limited"
	CodeUnknownType     = "unknown_type"
)

// Reasons attached to EvtPeerLeft.
const (
	ReasonLeft         = "left"
	ReasonDisconnected = "disconnected"
	ReasonRejoined     = "rejoined"
	ReasonExpired      = "expired"
	ReasonClosed       = "closed"
)

var ErrMissingType = errors.New("message type missing")

// Normalize maps the legacy socket.io event names onto protocol names.
func (t MessageType) Normalize() MessageType {
	switch t {
	case "join-session":
		return MsgJoin
	case "leave-session":
		return MsgLeave
	case "candidate":
		return MsgCandidate
	default:
		return t
	}
}

// Inbound is a message received from a client. Negotiation bodies stay raw.
type Inbound struct {
	Type       MessageType     `json:"type"`
	Token      domain.Token    `json:"token,omitempty"`
	SessionID  domain.Token    `json:"sessionId,omitempty"`
	Role       string          `json:"role,omitempty"`
	DeviceType string          `json:"deviceType,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Offer      json.RawMessage `json:"offer,omitempty"`
	Answer     json.RawMessage `json:"answer,omitempty"`
	Candidate  json.RawMessage `json:"candidate,omitempty"`
	TargetRole string          `json:"targetRole,omitempty"`
	Target     string          `json:"target,omitempty"`
}

func ParseInbound(data []byte) (Inbound, error) {
	var m Inbound
	if err := json.Unmarshal(data, &m); err != nil {
		return Inbound{}, fmt.Errorf("decode message: %w", err)
	}
	if m.Type == "" {
		return Inbound{}, ErrMissingType
	}
	m.Type = m.Type.Normalize()
	return m, nil
}

// SessionToken prefers "token" and falls back to the legacy "sessionId".
func (m Inbound) SessionToken() domain.Token {
	if m.Token != "" {
		return m.Token
	}
	return m.SessionID
}

func (m Inbound) RoleName() string {
	if m.Role != "" {
		return m.Role
	}
	return m.DeviceType
}

func (m Inbound) TargetRoleName() string {
	if m.TargetRole != "" {
		return m.TargetRole
	}
	return m.Target
}

// Body returns the offer/answer payload, accepting the legacy field names.
func (m Inbound) Body() json.RawMessage {
	switch {
	case len(m.Payload) > 0:
		return m.Payload
	case len(m.Offer) > 0:
		return m.Offer
	default:
		return m.Answer
	}
}

// Outbound is an event pushed to a client.
type Outbound struct {
	Type        MessageType     `json:"type"`
	Token       domain.Token    `json:"token,omitempty"`
	Role        domain.Role     `json:"role,omitempty"`
	PeerPresent *bool           `json:"peerPresent,omitempty"`
	Code        string          `json:"code,omitempty"`
	Reason      string          `json:"reason,omitempty"`
	Payload     json.RawMessage `json:"-"`
	Candidate   json.RawMessage `json:"-"`
}

// Encode marshals the envelope and splices Payload and Candidate in unmodified,
// so negotiation bodies reach the peer byte-for-byte.
func (o Outbound) Encode() (Frame, error) {
	head, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	if len(o.Payload) == 0 && len(o.Candidate) == 0 {
		return head, nil
	}
	var buf bytes.Buffer
	buf.Grow(len(head) + len(o.Payload) + len(o.Candidate) + 32)
	buf.Write(head[:len(head)-1])
	if len(o.Payload) > 0 {
		buf.WriteString(`,"payload":`)
		buf.Write(o.Payload)
	}
	if len(o.Candidate) > 0 {
		buf.WriteString(`,"candidate":`)
		buf.Write(o.Candidate)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func ErrorEvent(token domain.Token, code, reason string) Outbound {
	return Outbound{Type: EvtError, Token: token, Code: code, Reason: reason}
}

func Bool(v bool) *bool { return &v }
