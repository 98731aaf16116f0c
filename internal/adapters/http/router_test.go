package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/adapters/rtc"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app/orch"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/metrics"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Mode:          "test",
		Port:          3000,
		StaticPath:    t.TempDir(),
		ReadLimit:     1 << 16,
		PingPeriod:    time.Second,
		PongWait:      2 * time.Second,
		WriteWait:     time.Second,
		SendBuffer:    16,
		Secret:        "test-secret",
		SessionTTL:    time.Hour,
		SweepInterval: time.Minute,
		Backpressure:  "kick",
		CORS:          config.CORSConfig{AllowedOrigins: []string{"*"}},
		Metrics:       config.MetricsConfig{Enabled: true, Namespace: "test"},
	}
}

func newRouter(t *testing.T) (*gin.Engine, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	m := metrics.New(cfg.Metrics)
	store := app.NewStore()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(store),
		Policy:   app.SimplePolicy{Action: app.KickMember},
		Metrics:  m,
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := SetupRouter(ctx, cfg, Deps{
		Orch:      o,
		Generator: &app.Generator{Store: store, Address: "http://10.0.0.2:3000", TTL: cfg.SessionTTL, Metrics: m},
		Metrics:   m,
		ICE:       rtc.DefaultICEServers(),
	})
	return r, o
}

func do(r http.Handler, method, path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func TestGenerateSessionAndCurrent(t *testing.T) {
	r, o := newRouter(t)

	rr := do(r, http.MethodGet, "/generate-session")
	require.Equal(t, http.StatusOK, rr.Code)
	var d domain.Descriptor
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &d))
	assert.NotEmpty(t, d.Token)
	assert.Equal(t, "http://10.0.0.2:3000", d.Address)
	assert.Equal(t, d.CreatedAt.Add(time.Hour), d.ExpiresAt)

	_, err := o.Registry.Store().Get(d.Token)
	require.NoError(t, err)

	cookies := rr.Result().Cookies()
	require.NotEmpty(t, cookies)
	rr = do(r, http.MethodGet, "/api/sessions/current", cookies...)
	require.Equal(t, http.StatusOK, rr.Code)
	var current domain.Descriptor
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &current))
	assert.Equal(t, d.Token, current.Token)

	rr = do(r, http.MethodGet, "/api/sessions/current")
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(r, http.MethodGet, "/generate-qr")
	require.Equal(t, http.StatusOK, rr.Code)
	var other domain.Descriptor
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &other))
	assert.NotEqual(t, d.Token, other.Token)
}

func TestSessionStatusAndEvict(t *testing.T) {
	r, o := newRouter(t)
	token := o.Registry.Store().Create().Token

	rr := do(r, http.MethodGet, "/api/sessions/"+string(token))
	require.Equal(t, http.StatusOK, rr.Code)
	var status orch.SessionStatus
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	assert.Equal(t, token, status.Token)
	assert.False(t, status.SourceAttached)
	assert.False(t, status.ViewerAttached)

	rr = do(r, http.MethodDelete, "/api/sessions/"+string(token))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = do(r, http.MethodDelete, "/api/sessions/"+string(token))
	assert.Equal(t, http.StatusNotFound, rr.Code)
	rr = do(r, http.MethodGet, "/api/sessions/"+string(token))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestICEServersHealthAndMetrics(t *testing.T) {
	r, _ := newRouter(t)

	rr := do(r, http.MethodGet, "/api/ice-servers")
	require.Equal(t, http.StatusOK, rr.Code)
	var body struct {
		ICEServers []rtc.ICEServerDTO `json:"iceServers"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.NotEmpty(t, body.ICEServers)
	assert.Equal(t, "stun:stun.l.google.com:19302", body.ICEServers[0].URLs[0])

	rr = do(r, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok","sessions":0,"connections":0}`, rr.Body.String())

	do(r, http.MethodGet, "/generate-session")
	rr = do(r, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "test_sessions_created_total 1")
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newRouter(t)
	req := httptest.NewRequest(http.MethodOptions, "/generate-session", nil)
	req.Header.Set("Origin", "http://192.168.1.9:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestWebSocketEndpoint(t *testing.T) {
	r, o := newRouter(t)
	ts := httptest.NewServer(r)
	defer ts.Close()

	token := o.Registry.Store().Create().Token
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, ws.WriteJSON(map[string]string{"type": "join", "token": string(token), "role": "source"}))
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var ev map[string]any
	require.NoError(t, ws.ReadJSON(&ev))
	assert.Equal(t, "joined", ev["type"])

	status, err := o.Status(token)
	require.NoError(t, err)
	assert.True(t, status.SourceAttached)
}
