package signal

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/core"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(ctl.opts.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("ping failed")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, cancel context.CancelFunc, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		cancel()
		ctl.Orch.OnDisconnect(c.id)
		c.Close()
	}()

	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
	})
	limiter := newRateLimiter(ctl.opts.RateLimit)

	for {
		if ctx.Err() != nil {
			return
		}
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(ctl.opts.PongWait))
		ctl.handleSignal(c.id, limiter, data)
	}
}

func (ctl *SignalWSController) handleSignal(id domain.ConnID, limiter *rate.Limiter, data []byte) {
	msg, err := core.ParseInbound(data)
	if err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(id)).Msg("bad json")
		ctl.Orch.Reject(id, "", core.CodeBadPayload, err.Error())
		return
	}
	if msg.Type != core.MsgPing && !limiter.Allow() {
		ctl.Orch.Reject(id, msg.Type, core.CodeRateLimited, "slow down")
		return
	}

	switch msg.Type {
	case core.MsgJoin:
		ctl.handleJoin(id, msg)
	case core.MsgLeave:
		ctl.handleLeave(id, msg)
	case core.MsgOffer:
		ctl.handleOffer(id, msg)
	case core.MsgAnswer:
		ctl.handleAnswer(id, msg)
	case core.MsgCandidate:
		ctl.handleCandidate(id, msg)
	case core.MsgPing:
		ctl.handlePing(id)
	case core.MsgWhoAmI:
		ctl.handleWhoAmI(id)
	default:
		log.Warn().Str("module", "signal").Str("type", string(msg.Type)).Msg("unknown signal")
		ctl.Orch.Reject(id, msg.Type, core.CodeUnknownType, "unknown message type "+string(msg.Type))
	}
}
