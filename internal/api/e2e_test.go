package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/agora-ai/agora/internal/engine"
	"github.com/agora-ai/agora/internal/provider"
	"github.com/agora-ai/agora/internal/realtime"
	"github.com/agora-ai/agora/pkg/ws"
)

type testEnv struct {
	engine     *engine.Manager
	registry   *realtime.Registry
	heartbeats *realtime.Monitor
	providers  *provider.Registry
	handler    *Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	registry := realtime.NewRegistry(nil)
	heartbeats := realtime.NewMonitor(time.Minute, time.Minute, nil)
	eng := engine.NewManager(engine.Config{
		Tick:          5 * time.Millisecond,
		PauseInterval: 2 * time.Millisecond,
		Announcer:     registry,
	})
	providers := provider.NewRegistry(nil)
	providers.Initialize([]provider.Config{
		{Provider: "deepseek", Model: "deepseek-chat", APIKey: "test"},
		{Provider: "qwen", Model: "qwen-turbo", APIKey: "test"},
	})
	env := &testEnv{
		engine:     eng,
		registry:   registry,
		heartbeats: heartbeats,
		providers:  providers,
		handler:    NewHandler(eng, registry, heartbeats, providers, nil),
	}
	t.Cleanup(func() {
		eng.CleanupAll()
		registry.CloseAll()
		providers.Close()
	})
	return env
}

func (e *testEnv) router() chi.Router {
	r := chi.NewRouter()
	e.handler.Mount(r)
	return r
}

func dialDebate(t *testing.T, baseURL, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readRaw(t *testing.T, conn *websocket.Conn) []byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read message: %v", err)
	}
	return raw
}

func readMessage(t *testing.T, conn *websocket.Conn) ws.Message {
	t.Helper()
	var msg ws.Message
	if err := json.Unmarshal(readRaw(t, conn), &msg); err != nil {
		t.Fatalf("decode message: %v", err)
	}
	return msg
}

func post(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", nil)
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestDebateLifecycle_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router())
	defer srv.Close()

	named := dialDebate(t, srv.URL, "/api/debates/7/ws?user_id=42")
	anon := dialDebate(t, srv.URL, "/api/debates/7/ws")

	ack := readMessage(t, named)
	if ack.Type != ws.MessageTypeConnected || ack.DebateID != 7 {
		t.Fatalf("ack = %+v", ack)
	}
	if ack.UserID == nil || *ack.UserID != 42 {
		t.Fatalf("named ack user id = %v, want 42", ack.UserID)
	}
	anonAck := readMessage(t, anon)
	if anonAck.UserID == nil || *anonAck.UserID >= 0 {
		t.Fatalf("anonymous ack user id = %v, want synthetic negative", anonAck.UserID)
	}

	if env.heartbeats.Len() != 2 {
		t.Fatalf("heartbeat records = %d, want 2", env.heartbeats.Len())
	}

	// Start the debate; both watchers get the running announcement with
	// byte-identical payloads.
	resp := post(t, srv.URL+"/api/debates/7/start")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status = %d", resp.StatusCode)
	}
	rawNamed := readRaw(t, named)
	rawAnon := readRaw(t, anon)
	if string(rawNamed) != string(rawAnon) {
		t.Fatalf("broadcast payloads differ:\n%s\n%s", rawNamed, rawAnon)
	}
	var status ws.Message
	if err := json.Unmarshal(rawNamed, &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Type != ws.MessageTypeStatus || status.Status != "running" {
		t.Fatalf("status message = %+v", status)
	}

	// A second start must conflict.
	if resp := post(t, srv.URL+"/api/debates/7/start"); resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate start status = %d, want 409", resp.StatusCode)
	}

	// Stop leaves the runtime finished with the loop gone, and announces it.
	if resp := post(t, srv.URL+"/api/debates/7/stop"); resp.StatusCode != http.StatusOK {
		t.Fatalf("stop status = %d", resp.StatusCode)
	}
	for _, conn := range []*websocket.Conn{named, anon} {
		msg := readMessage(t, conn)
		if msg.Status != "finished" {
			t.Fatalf("after stop got %+v, want finished status", msg)
		}
	}
	if got := debateStatusOf(t, srv.URL, 7); got != "finished" {
		t.Fatalf("status endpoint = %q, want finished", got)
	}

	// The same id can be started again afterward.
	if resp := post(t, srv.URL+"/api/debates/7/start"); resp.StatusCode != http.StatusOK {
		t.Fatalf("restart status = %d", resp.StatusCode)
	}
	if msg := readMessage(t, named); msg.Status != "running" {
		t.Fatalf("after restart got %+v, want running status", msg)
	}
	if got := debateStatusOf(t, srv.URL, 7); got != "running" {
		t.Fatalf("status endpoint = %q, want running", got)
	}
}

func debateStatusOf(t *testing.T, baseURL string, id int64) string {
	t.Helper()
	resp, err := http.Get(fmt.Sprintf("%s/api/debates/%d/status", baseURL, id))
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	return body.Data.Status
}

func TestDebateWebSocket_PingPongRefreshesHeartbeat(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router())
	defer srv.Close()

	conn := dialDebate(t, srv.URL, "/api/debates/3/ws")
	readMessage(t, conn) // ack

	if err := conn.WriteMessage(websocket.TextMessage, []byte(ws.PingLiteral)); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	raw := readRaw(t, conn)
	if string(raw) != ws.PongLiteral {
		t.Fatalf("ping reply = %q, want %q", raw, ws.PongLiteral)
	}
}

func TestDebateWebSocket_DisconnectRemovesFromRoom(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router())
	defer srv.Close()

	conn := dialDebate(t, srv.URL, "/api/debates/5/ws")
	readMessage(t, conn)
	if env.registry.RoomSize(5) != 1 {
		t.Fatalf("room size = %d, want 1", env.registry.RoomSize(5))
	}

	conn.Close()
	deadline := time.Now().Add(2 * time.Second)
	for env.registry.HasRoom(5) {
		if time.Now().After(deadline) {
			t.Fatal("room not removed after client disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestControlEndpoints_InvalidID(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router())
	defer srv.Close()

	for _, path := range []string{"/api/debates/abc/start", "/api/debates/0/stop"} {
		if resp := post(t, srv.URL+path); resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestListModels(t *testing.T) {
	env := newTestEnv(t)
	srv := httptest.NewServer(env.router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/models")
	if err != nil {
		t.Fatalf("get models: %v", err)
	}
	defer resp.Body.Close()
	var body struct {
		Data struct {
			Models []string `json:"models"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode models: %v", err)
	}
	if len(body.Data.Models) != 2 || body.Data.Models[0] != "deepseek-chat" {
		t.Fatalf("models = %v", body.Data.Models)
	}
}
