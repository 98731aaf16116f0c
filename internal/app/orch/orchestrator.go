package orch

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/metrics"
)

// Orchestrator routes signaling messages between the two sides of a session.
type Orchestrator struct {
	Registry *app.Registry
	Policy   app.Policy
	Metrics  *metrics.Metrics
}

func (o *Orchestrator) OnConnect(id domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	o.Registry.Register(id, sig, cancel)
	o.Metrics.ConnOpened()
}

// OnDisconnect detaches and forgets the connection. Safe to call more than once.
func (o *Orchestrator) OnDisconnect(id domain.ConnID) {
	_, notices := o.Registry.Detach(id, core.ReasonDisconnected)
	o.deliver(notices)
	if o.Registry.Unregister(id) {
		o.Metrics.ConnClosed()
	}
}

// SweepExpired evicts sessions older than ttl. It satisfies app.Sweepable.
func (o *Orchestrator) SweepExpired(now time.Time, ttl time.Duration) int {
	start := time.Now()
	removed, notices := o.Registry.SweepExpired(now, ttl)
	o.deliver(notices)
	o.Metrics.SessionsEvicted(core.ReasonExpired, len(removed))
	o.Metrics.SweepDone(start)
	for _, sess := range removed {
		log.Debug().Str("module", "orch").Str("token", string(sess.Token)).Msg("session expired")
	}
	return len(removed)
}

func (o *Orchestrator) Ping(id domain.ConnID) {
	o.send(id, core.Outbound{Type: core.EvtPong})
}

func (o *Orchestrator) WhoAmI(id domain.ConnID) {
	token, role, _ := o.Registry.Binding(id)
	o.send(id, core.Outbound{Type: core.MsgWhoAmI, Token: token, Role: role})
}

// Reject answers a message the transport could not accept.
func (o *Orchestrator) Reject(id domain.ConnID, msgType core.MessageType, code, reason string) {
	if code == core.CodeRateLimited {
		o.Metrics.Dropped(string(msgType), metrics.DropRateLimited)
	}
	o.send(id, core.ErrorEvent("", code, reason))
}

func (o *Orchestrator) deliver(notices []app.Notice) {
	for _, n := range notices {
		o.send(n.To, n.Event)
	}
}

// send enqueues ev without blocking. A full queue is handled by the Policy.
func (o *Orchestrator) send(to domain.ConnID, ev core.Outbound) bool {
	sig, ok := o.Registry.Signal(to)
	if !ok {
		return false
	}
	frame, err := ev.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Str("type", string(ev.Type)).Msg("encode failed")
		return false
	}
	err = sig.TrySend(frame)
	switch {
	case err == nil:
		return true
	case errors.Is(err, core.ErrBackpressure):
		o.Metrics.Dropped(string(ev.Type), metrics.DropBackpressure)
		action := app.KickMember
		if o.Policy != nil {
			action = o.Policy.OnBackPressure(to)
		}
		log.Warn().Str("module", "orch").Str("conn", string(to)).Str("type", string(ev.Type)).
			Stringer("action", action).Msg("send queue full")
		if action == app.KickMember {
			o.Registry.Cancel(to)
		}
	default:
		log.Debug().Err(err).Str("module", "orch").Str("conn", string(to)).Msg("send failed")
	}
	return false
}
