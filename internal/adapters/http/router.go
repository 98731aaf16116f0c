package http

import (
	"context"
	"net/http"
	"path/filepath"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/adapters/signal"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app/orch"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/metrics"
)

const cookieName = "MirrorSessions"

type Deps struct {
	Orch      *orch.Orchestrator
	Generator *app.Generator
	Metrics   *metrics.Metrics
	ICE       []webrtc.ICEServer
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
		MaxAge:       12 * time.Hour,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cors.New(cfg)
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.Metrics.Enabled && deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{Path: "/", MaxAge: int(cfg.SessionTTL.Seconds()), HttpOnly: true})
	r.Use(sessions.Sessions(cookieName, store))

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(filepath.Join(cfg.StaticPath, "index.html"))
	})

	h := &handlers{deps: deps}
	r.GET("/healthz", h.health)
	r.GET("/generate-session", h.generateSession)
	r.GET("/generate-qr", h.generateSession)

	api := r.Group("/api")
	api.GET("/sessions/current", h.currentSession)
	api.GET("/sessions/:token", h.sessionStatus)
	api.DELETE("/sessions/:token", h.evictSession)
	api.GET("/ice-servers", h.iceServers)

	ctrl := signal.NewSignalWSController(deps.Orch, signal.OptionsFromConfig(cfg))
	r.GET("/ws", func(c *gin.Context) {
		ctrl.HandleSignal(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")
	return r
}
