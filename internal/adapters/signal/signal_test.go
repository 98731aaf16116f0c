package signal

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

	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/app/orch"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/config"
	"github.com/FawadHussainshah110/screen-sharing-flutter-app/internal/domain"
)

type event struct {
	Type        string          `json:"type"`
	Token       string          `json:"token"`
	Role        string          `json:"role"`
	PeerPresent *bool           `json:"peerPresent"`
	Code        string          `json:"code"`
	Reason      string          `json:"reason"`
	Payload     json.RawMessage `json:"payload"`
	Candidate   json.RawMessage `json:"candidate"`
}

func testOptions() Options {
	return Options{
		ReadLimit:  1 << 16,
		PingPeriod: time.Second,
		PongWait:   2 * time.Second,
		WriteWait:  time.Second,
		SendBuffer: 16,
	}
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, *app.Store, *orch.Orchestrator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := app.NewStore()
	o := &orch.Orchestrator{
		Registry: app.NewRegistry(store),
		Policy:   app.SimplePolicy{Action: app.KickMember},
	}
	ctl := NewSignalWSController(o, opts)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) { ctl.HandleSignal(ctx, c) })
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts, store, o
}

func dial(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })
	return ws
}

func send(t *testing.T, ws *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func recv(t *testing.T, ws *websocket.Conn) (event, []byte) {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := ws.ReadMessage()
	require.NoError(t, err)
	var ev event
	require.NoError(t, json.Unmarshal(data, &ev))
	return ev, data
}

func TestSignal_FullNegotiation(t *testing.T) {
	ts, store, _ := newTestServer(t, testOptions())
	token := string(store.Create().Token)

	viewer := dial(t, ts)
	source := dial(t, ts)

	send(t, viewer, `{"type":"join","token":"`+token+`","role":"viewer"}`)
	ev, _ := recv(t, viewer)
	assert.Equal(t, "joined", ev.Type)
	require.NotNil(t, ev.PeerPresent)
	assert.False(t, *ev.PeerPresent)

	send(t, source, `{"type":"join-session","sessionId":"`+token+`","deviceType":"pc"}`)
	ev, _ = recv(t, source)
	assert.Equal(t, "joined", ev.Type)
	assert.Equal(t, "source", ev.Role)
	ev, _ = recv(t, source)
	assert.Equal(t, "peer-joined", ev.Type)

	offer := `{"type":"offer","sdp":"v=0\r\na=<candidate>&"}`
	send(t, viewer, `{"type":"offer","token":"`+token+`","payload":`+offer+`}`)
	ev, raw := recv(t, source)
	assert.Equal(t, "offer", ev.Type)
	assert.Equal(t, offer, string(ev.Payload))
	assert.Contains(t, string(raw), offer, "payload bytes are forwarded unchanged")

	send(t, source, `{"type":"answer","sessionId":"`+token+`","answer":{"type":"answer","sdp":"a"}}`)
	ev, _ = recv(t, viewer)
	assert.Equal(t, "answer", ev.Type)
	assert.JSONEq(t, `{"type":"answer","sdp":"a"}`, string(ev.Payload))

	for _, c := range []string{"c1", "c2", "c3"} {
		send(t, source, `{"type":"ice-candidate","token":"`+token+`","targetRole":"viewer","candidate":{"candidate":"`+c+`"}}`)
	}
	for _, c := range []string{"c1", "c2", "c3"} {
		ev, _ = recv(t, viewer)
		assert.Equal(t, "ice-candidate", ev.Type)
		assert.JSONEq(t, `{"candidate":"`+c+`"}`, string(ev.Candidate))
	}

	require.NoError(t, source.Close())
	ev, _ = recv(t, viewer)
	assert.Equal(t, "peer-left", ev.Type)
	assert.Equal(t, "source", ev.Role)

	_, err := store.Get(domain.Token(token))
	assert.NoError(t, err)
}

func TestSignal_Errors(t *testing.T) {
	ts, _, _ := newTestServer(t, testOptions())
	ws := dial(t, ts)

	send(t, ws, `not json`)
	ev, _ := recv(t, ws)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "bad_payload", ev.Code)

	send(t, ws, `{"type":"join","token":"missing","role":"viewer"}`)
	ev, _ = recv(t, ws)
	assert.Equal(t, "session_not_found", ev.Code)

	send(t, ws, `{"type":"teleport"}`)
	ev, _ = recv(t, ws)
	assert.Equal(t, "unknown_type", ev.Code)

	send(t, ws, `{"type":"ping"}`)
	ev, _ = recv(t, ws)
	assert.Equal(t, "pong", ev.Type)
}

func TestSignal_RateLimited(t *testing.T) {
	opts := testOptions()
	opts.RateLimit = config.RateLimitConfig{PerSecond: 0.001, Burst: 2}
	ts, _, _ := newTestServer(t, opts)
	ws := dial(t, ts)

	for n := 0; n < 2; n++ {
		send(t, ws, `{"type":"whoami"}`)
		ev, _ := recv(t, ws)
		assert.Equal(t, "whoami", ev.Type)
	}
	send(t, ws, `{"type":"whoami"}`)
	ev, _ := recv(t, ws)
	assert.Equal(t, "rate_limited", ev.Code)

	send(t, ws, `{"type":"ping"}`)
	ev, _ = recv(t, ws)
	assert.Equal(t, "pong", ev.Type, "keepalive is never limited")
}

func TestSignal_DisconnectUnregisters(t *testing.T) {
	ts, _, o := newTestServer(t, testOptions())
	ws := dial(t, ts)
	send(t, ws, `{"type":"ping"}`)
	recv(t, ws)
	require.Equal(t, 1, o.Registry.Len())

	require.NoError(t, ws.Close())
	assert.Eventually(t, func() bool { return o.Registry.Len() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestOriginChecker(t *testing.T) {
	req := func(origin string) *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		if origin != "" {
			r.Header.Set("Origin", origin)
		}
		return r
	}
	open := originChecker([]string{"*"})
	assert.True(t, open(req("https://evil.example")))

	strict := originChecker([]string{"https://app.example"})
	assert.True(t, strict(req("https://app.example")))
	assert.True(t, strict(req("")))
	assert.False(t, strict(req("https://evil.example")))
}
