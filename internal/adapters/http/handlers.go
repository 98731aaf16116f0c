package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/adapters/rtc"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

const tokenKey = "token"

type handlers struct {
	deps Deps
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"sessions":    h.deps.Orch.Registry.Store().Len(),
		"connections": h.deps.Orch.Registry.Len(),
	})
}

// generateSession creates a session and remembers its token in the cookie.
func (h *handlers) generateSession(c *gin.Context) {
	d := h.deps.Generator.NewDescriptor()

	sess := sessions.Default(c)
	sess.Set(tokenKey, string(d.Token))
	if err := sess.Save(); err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("save cookie session")
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) currentSession(c *gin.Context) {
	raw, _ := sessions.Default(c).Get(tokenKey).(string)
	if raw == "" {
		c.JSON(http.StatusNotFound, errorResponse{Error: "no session issued to this client"})
		return
	}
	sess, err := h.deps.Orch.Registry.Store().Get(domain.Token(raw))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.deps.Generator.Describe(sess))
}

func (h *handlers) sessionStatus(c *gin.Context) {
	status, err := h.deps.Orch.Status(domain.Token(c.Param("token")))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *handlers) evictSession(c *gin.Context) {
	token := domain.Token(c.Param("token"))
	if !h.deps.Orch.EvictSession(token) {
		h.writeError(c, domain.ErrSessionNotFound)
		return
	}
	log.Info().Str("module", "adapters.http").Str("token", string(token)).Msg("session evicted")
	c.Status(http.StatusNoContent)
}

func (h *handlers) iceServers(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"iceServers": rtc.ToDTO(h.deps.ICE)})
}

func (h *handlers) writeError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrSessionNotFound) {
		c.JSON(http.StatusNotFound, errorResponse{Error: domain.ErrSessionNotFound.Error()})
		return
	}
	log.Error().Err(err).Str("module", "adapters.http").Msg("request failed")
	c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
}
