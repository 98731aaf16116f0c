package orch

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

type SessionStatus struct {
	Token          domain.Token `json:"token"`
	CreatedAt      time.Time    `json:"createdAt"`
	SourceAttached bool         `json:"sourceAttached"`
	ViewerAttached bool         `json:"viewerAttached"`
}

func (o *Orchestrator) Join(id domain.ConnID, token domain.Token, rawRole string) {
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		o.send(id, core.ErrorEvent(token, core.CodeInvalidRole, err.Error()))
		return
	}
	if token == "" {
		o.send(id, core.ErrorEvent(token, core.CodeSessionNotFound, domain.ErrEmptyToken.Error()))
		return
	}

	res, notices, err := o.Registry.Attach(id, token, role)
	if err != nil {
		o.deliver(notices)
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			o.send(id, core.ErrorEvent(token, core.CodeSessionNotFound, "session not found or expired, request a new code"))
		default:
			log.Warn().Err(err).Str("module", "orch").Str("conn", string(id)).Msg("join failed")
		}
		return
	}

	o.send(id, core.Outbound{
		Type:        core.EvtJoined,
		Token:       token,
		Role:        role,
		PeerPresent: core.Bool(res.PeerPresent),
	})
	o.deliver(notices)
}

// Leave drops the connection's binding whatever token the message names.
func (o *Orchestrator) Leave(id domain.ConnID, token domain.Token) {
	bound, notices := o.Registry.Detach(id, core.ReasonLeft)
	o.deliver(notices)
	if bound != "" {
		token = bound
	}
	o.send(id, core.Outbound{Type: core.EvtLeft, Token: token})
}

// EvictSession removes the session now; bound peers get peer-left "closed".
func (o *Orchestrator) EvictSession(token domain.Token) bool {
	ok, notices := o.Registry.Evict(token, core.ReasonClosed)
	o.deliver(notices)
	if ok {
		o.Metrics.SessionsEvicted(core.ReasonClosed, 1)
	}
	return ok
}

func (o *Orchestrator) Status(token domain.Token) (SessionStatus, error) {
	sess, err := o.Registry.Store().Get(token)
	if err != nil {
		return SessionStatus{}, err
	}
	_, source := o.Registry.Lookup(token, domain.RoleSource)
	_, viewer := o.Registry.Lookup(token, domain.RoleViewer)
	return SessionStatus{
		Token:          sess.Token,
		CreatedAt:      sess.CreatedAt,
		SourceAttached: source,
		ViewerAttached: viewer,
	}, nil
}
