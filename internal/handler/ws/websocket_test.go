package ws

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/zhouzirui/luma/backend/internal/model/persona"
	chatservice "github.com/zhouzirui/luma/backend/internal/service/chat"
	emotionservice "github.com/zhouzirui/luma/backend/internal/service/emotion"
	"github.com/zhouzirui/luma/backend/internal/service/reply"
)

func boolPtr(v bool) *bool { return &v }

func TestApplyConfigUpdatesState(t *testing.T) {
	state := newConnectionState("session", "luma")

	applyConfig(state, ConfigMessage{StreamMode: boolPtr(false)})
	if state.streamMode {
		t.Fatalf("expected stream mode disabled")
	}
	if !state.showEmotion {
		t.Fatalf("showEmotion should be untouched")
	}

	applyConfig(state, ConfigMessage{ShowEmotion: boolPtr(false)})
	if state.showEmotion {
		t.Fatalf("expected emotion events disabled")
	}
}

func newServer(t *testing.T) (*httptest.Server, chatservice.Store) {
	t.Helper()
	store := chatservice.NewMemoryStore()
	personas := persona.NewMemoryStore(persona.Seed())
	emotions := emotionservice.NewService(nil, emotionservice.Config{}, store)
	replies := reply.NewService(store, personas, emotions, nil, reply.Options{})

	r := chi.NewRouter()
	New(replies, store).RegisterRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func readMessage(t *testing.T, conn *websocket.Conn) outgoingMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg outgoingMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("ReadJSON err: %v", err)
	}
	return msg
}

func dataType(msg outgoingMessage) string {
	data, _ := msg.Data.(map[string]any)
	kind, _ := data["type"].(string)
	return kind
}

func TestTextRoundTrip(t *testing.T) {
	srv, store := newServer(t)
	session, err := store.CreateSession(context.Background(), "luma")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/" + session.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial err: %v", err)
	}
	defer conn.Close()

	if got := dataType(readMessage(t, conn)); got != "connected" {
		t.Fatalf("expected connected, got %q", got)
	}

	if err := conn.WriteJSON(map[string]any{"type": "config", "data": map[string]any{"streamMode": false}}); err != nil {
		t.Fatalf("WriteJSON err: %v", err)
	}
	if got := dataType(readMessage(t, conn)); got != "config" {
		t.Fatalf("expected config ack, got %q", got)
	}

	if err := conn.WriteJSON(map[string]any{"type": "text", "data": map[string]any{"text": "hello"}}); err != nil {
		t.Fatalf("WriteJSON err: %v", err)
	}

	var kinds []string
	for len(kinds) < 3 {
		kinds = append(kinds, dataType(readMessage(t, conn)))
	}
	if got := strings.Join(kinds, ","); got != "user,emotion,ai" {
		t.Fatalf("unexpected message sequence %s", got)
	}

	if err := conn.WriteJSON(map[string]any{"type": "audio"}); err != nil {
		t.Fatalf("WriteJSON err: %v", err)
	}
	if msg := readMessage(t, conn); msg.Type != "error" {
		t.Fatalf("expected error envelope, got %+v", msg)
	}
}

func TestUnknownSessionRejected(t *testing.T) {
	srv, _ := newServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/missing"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != 404 {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}
