package orch

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/metrics"
)

// Offer forwards an SDP offer to the sender's counterpart.
func (o *Orchestrator) Offer(from domain.ConnID, token domain.Token, payload json.RawMessage) {
	o.relayDescription(from, token, core.MsgOffer, payload)
}

// Answer forwards an SDP answer to the sender's counterpart.
func (o *Orchestrator) Answer(from domain.ConnID, token domain.Token, payload json.RawMessage) {
	o.relayDescription(from, token, core.MsgAnswer, payload)
}

func (o *Orchestrator) relayDescription(from domain.ConnID, token domain.Token, typ core.MessageType, payload json.RawMessage) {
	if len(payload) == 0 {
		o.send(from, core.ErrorEvent(token, core.CodeBadPayload, string(typ)+" without payload"))
		return
	}
	role, ok := o.sender(from, token, typ)
	if !ok {
		return
	}
	o.forward(from, token, role.Counterpart(), core.Outbound{Type: typ, Token: token, Role: role, Payload: payload})
}

// Candidate forwards an ICE candidate to the role the sender names.
// Nothing is buffered: with no target attached the candidate is dropped.
func (o *Orchestrator) Candidate(from domain.ConnID, token domain.Token, candidate json.RawMessage, targetRole string) {
	if len(candidate) == 0 {
		o.send(from, core.ErrorEvent(token, core.CodeBadPayload, "ice-candidate without candidate"))
		return
	}
	target, err := domain.ParseRole(targetRole)
	if err != nil {
		o.send(from, core.ErrorEvent(token, core.CodeInvalidRole, err.Error()))
		return
	}
	role, ok := o.sender(from, token, core.MsgCandidate)
	if !ok {
		return
	}
	o.forward(from, token, target, core.Outbound{Type: core.MsgCandidate, Token: token, Role: role, Candidate: candidate})
}

// sender returns the role the connection holds in token.
func (o *Orchestrator) sender(from domain.ConnID, token domain.Token, typ core.MessageType) (domain.Role, bool) {
	bound, role, ok := o.Registry.Binding(from)
	if ok && bound == token {
		return role, true
	}
	o.Metrics.Dropped(string(typ), metrics.DropNotBound)
	log.Debug().Str("module", "orch").Str("conn", string(from)).Str("token", string(token)).
		Str("type", string(typ)).Msg("sender not joined")
	o.send(from, core.ErrorEvent(token, core.CodeNotJoined, domain.ErrNotBound.Error()))
	return "", false
}

func (o *Orchestrator) forward(from domain.ConnID, token domain.Token, target domain.Role, ev core.Outbound) {
	to, ok := o.Registry.Lookup(token, target)
	if !ok {
		o.Metrics.Dropped(string(ev.Type), metrics.DropNoTarget)
		log.Debug().Str("module", "orch").Str("token", string(token)).Str("type", string(ev.Type)).
			Str("target", string(target)).Msg("no target, dropped")
		return
	}
	if o.send(to, ev) {
		o.Metrics.Forwarded(string(ev.Type))
		log.Debug().Str("module", "orch").Str("token", string(token)).Str("type", string(ev.Type)).
			Str("from", string(from)).Str("to", string(to)).Msg("forwarded")
	}
}
