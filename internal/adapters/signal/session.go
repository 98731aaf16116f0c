package signal

import (
	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

func (ctl *SignalWSController) handleJoin(id domain.ConnID, msg core.Inbound) {
	token := msg.SessionToken()
	log.Info().Str("module", "signal").Str("conn", string(id)).Str("token", string(token)).
		Str("role", msg.RoleName()).Msg("join")
	ctl.Orch.Join(id, token, msg.RoleName())
}

// handleLeave detaches from the session; the socket stays open.
func (ctl *SignalWSController) handleLeave(id domain.ConnID, msg core.Inbound) {
	log.Info().Str("module", "signal").Str("conn", string(id)).Msg("leave")
	ctl.Orch.Leave(id, msg.SessionToken())
}
