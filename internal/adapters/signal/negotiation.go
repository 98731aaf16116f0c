package signal

import (
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

func (ctl *SignalWSController) handleOffer(id domain.ConnID, msg core.Inbound) {
	ctl.Orch.Offer(id, msg.SessionToken(), msg.Body())
}

func (ctl *SignalWSController) handleAnswer(id domain.ConnID, msg core.Inbound) {
	ctl.Orch.Answer(id, msg.SessionToken(), msg.Body())
}

func (ctl *SignalWSController) handleCandidate(id domain.ConnID, msg core.Inbound) {
	ctl.Orch.Candidate(id, msg.SessionToken(), msg.Candidate, msg.TargetRoleName())
}
