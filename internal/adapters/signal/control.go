package signal

import "github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"

func (ctl *SignalWSController) handlePing(id domain.ConnID) {
	ctl.Orch.Ping(id)
}

func (ctl *SignalWSController) handleWhoAmI(id domain.ConnID) {
	ctl.Orch.WhoAmI(id)
}
