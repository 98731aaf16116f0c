package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

// Notice is an event addressed to one connection. Registry methods build
// notices under the lock; callers deliver them after it is released.
type Notice struct {
	To    domain.ConnID
	Event core.Outbound
}

type connEntry struct {
	Signal core.SignalConnection
	Cancel context.CancelFunc
	Token  domain.Token
	Role   domain.Role
}

func (e *connEntry) bound() bool { return e.Token != "" }

type AttachResult struct {
	Session     domain.Session
	PeerPresent bool
	// Rejoined is set when the connection already held this exact binding.
	Rejoined bool
}

// Registry tracks live signaling connections and their (token, role) binding.
// Lock order is Registry then Store.
type Registry struct {
	mu    sync.Mutex
	store *Store
	conns map[domain.ConnID]*connEntry
}

func NewRegistry(store *Store) *Registry {
	return &Registry{
		store: store,
		conns: make(map[domain.ConnID]*connEntry),
	}
}

func (r *Registry) Store() *Store { return r.store }

func (r *Registry) Register(id domain.ConnID, sig core.SignalConnection, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Signal: sig, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("registered connection")
}

// Unregister forgets the connection. Callers detach it first.
func (r *Registry) Unregister(id domain.ConnID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conns[id]; !ok {
		return false
	}
	delete(r.conns, id)
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("unregistered connection")
	return true
}

func (r *Registry) Signal(id domain.ConnID) (core.SignalConnection, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[id]; ok {
		return e.Signal, true
	}
	return nil, false
}

// Cancel stops the connection's pumps. The transport then disconnects it.
func (r *Registry) Cancel(id domain.ConnID) bool {
	r.mu.Lock()
	e, ok := r.conns[id]
	r.mu.Unlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("conn", string(id)).Msg("canceled connection")
	return true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.conns)
}

// Attach binds the connection to (token, role). A connection bound elsewhere is
// detached first; a different occupant of the slot is displaced.
func (r *Registry) Attach(id domain.ConnID, token domain.Token, role domain.Role) (AttachResult, []Notice, error) {
	if !role.Valid() {
		return AttachResult{}, nil, fmt.Errorf("attach %q: %w", role, domain.ErrInvalidRole)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[id]
	if !ok {
		return AttachResult{}, nil, fmt.Errorf("attach %s: %w", id, domain.ErrUnknownConnection)
	}
	sess, err := r.store.Get(token)
	if err != nil {
		return AttachResult{}, nil, err
	}

	if e.Token == token && e.Role == role && sess.Slot(role) == id {
		return AttachResult{
			Session:     sess,
			PeerPresent: r.liveLocked(sess.Slot(role.Counterpart())),
			Rejoined:    true,
		}, nil, nil
	}

	var notices []Notice
	if e.bound() {
		notices = append(notices, r.detachLocked(id, e, core.ReasonRejoined)...)
	}

	prev, err := r.store.Bind(token, role, id)
	if err != nil {
		return AttachResult{}, notices, err
	}
	e.Token, e.Role = token, role

	displaced := prev != "" && prev != id
	if displaced {
		if pe, ok := r.conns[prev]; ok {
			pe.Token, pe.Role = "", ""
		}
		notices = append(notices, Notice{
			To:    prev,
			Event: core.ErrorEvent(token, core.CodeReplaced, "another connection joined as "+string(role)),
		})
		log.Info().Str("module", "app.registry").Str("token", string(token)).Str("role", string(role)).
			Str("conn", string(id)).Str("displaced", string(prev)).Msg("role slot replaced")
	}

	if sess, err = r.store.Get(token); err != nil {
		return AttachResult{}, notices, err
	}
	peer := sess.Slot(role.Counterpart())
	peerPresent := r.liveLocked(peer)
	if peerPresent {
		if displaced {
			notices = append(notices, Notice{
				To:    peer,
				Event: core.Outbound{Type: core.EvtPeerReplaced, Token: token, Role: role},
			})
		}
		source := id
		if role != domain.RoleSource {
			source = peer
		}
		notices = append(notices, Notice{
			To:    source,
			Event: core.Outbound{Type: core.EvtPeerJoined, Token: token, Role: domain.RoleViewer},
		})
	}

	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("role", string(role)).
		Str("conn", string(id)).Bool("peer", peerPresent).Msg("attached")
	return AttachResult{Session: sess, PeerPresent: peerPresent}, notices, nil
}

// Detach clears the connection's binding. Calling it on an unbound or unknown
// connection returns no notices.
func (r *Registry) Detach(id domain.ConnID, reason string) (domain.Token, []Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || !e.bound() {
		return "", nil
	}
	token := e.Token
	return token, r.detachLocked(id, e, reason)
}

func (r *Registry) detachLocked(id domain.ConnID, e *connEntry, reason string) []Notice {
	token, role := e.Token, e.Role
	e.Token, e.Role = "", ""
	if !r.store.Unbind(token, role, id) {
		return nil
	}
	log.Info().Str("module", "app.registry").Str("token", string(token)).Str("role", string(role)).
		Str("conn", string(id)).Str("reason", reason).Msg("detached")

	sess, err := r.store.Get(token)
	if err != nil {
		return nil
	}
	peer := sess.Slot(role.Counterpart())
	if !r.liveLocked(peer) {
		return nil
	}
	return []Notice{{
		To:    peer,
		Event: core.Outbound{Type: core.EvtPeerLeft, Token: token, Role: role, Reason: reason},
	}}
}

// Lookup resolves the live connection holding role in the session.
func (r *Registry) Lookup(token domain.Token, role domain.Role) (domain.ConnID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, err := r.store.Get(token)
	if err != nil {
		return "", false
	}
	id := sess.Slot(role)
	if !r.liveLocked(id) {
		return "", false
	}
	return id, true
}

func (r *Registry) Binding(id domain.ConnID) (domain.Token, domain.Role, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[id]
	if !ok || !e.bound() {
		return "", "", false
	}
	return e.Token, e.Role, true
}

// SweepExpired removes expired sessions and unbinds their connections.
// Every connection still bound to a removed session gets peer-left "expired".
func (r *Registry) SweepExpired(now time.Time, ttl time.Duration) ([]domain.Session, []Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := r.store.SweepExpired(now, ttl)
	var notices []Notice
	for _, sess := range removed {
		notices = append(notices, r.releaseLocked(sess, core.ReasonExpired)...)
	}
	return removed, notices
}

// Evict deletes the session immediately.
func (r *Registry) Evict(token domain.Token, reason string) (bool, []Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, err := r.store.Get(token)
	if err != nil {
		return false, nil
	}
	r.store.Remove(token)
	return true, r.releaseLocked(sess, reason)
}

func (r *Registry) releaseLocked(sess domain.Session, reason string) []Notice {
	var notices []Notice
	for _, role := range []domain.Role{domain.RoleSource, domain.RoleViewer} {
		id := sess.Slot(role)
		e, ok := r.conns[id]
		if !ok || e.Token != sess.Token || e.Role != role {
			continue
		}
		e.Token, e.Role = "", ""
		notices = append(notices, Notice{
			To:    id,
			Event: core.Outbound{Type: core.EvtPeerLeft, Token: sess.Token, Role: role.Counterpart(), Reason: reason},
		})
	}
	log.Info().Str("module", "app.registry").Str("token", string(sess.Token)).Str("reason", reason).
		Int("notified", len(notices)).Msg("released session")
	return notices
}

func (r *Registry) liveLocked(id domain.ConnID) bool {
	if id == "" {
		return false
	}
	_, ok := r.conns[id]
	return ok
}
