package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRespondError(t *testing.T) {
	resp := httptest.NewRecorder()
	RespondError(resp, http.StatusTeapot, "nope")

	if resp.Code != http.StatusTeapot {
		t.Fatalf("expected 418, got %d", resp.Code)
	}
	if got := resp.Body.String(); got != "{\"error\":\"nope\"}\n" {
		t.Fatalf("unexpected body %q", got)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
}

func TestSendSSEChunk(t *testing.T) {
	resp := httptest.NewRecorder()
	SetupSSEHeaders(resp)
	SendSSEChunk(resp, resp, map[string]string{"event": "end"})

	if got := resp.Body.String(); got != "data: {\"event\":\"end\"}\n\n" {
		t.Fatalf("unexpected frame %q", got)
	}
	if !resp.Flushed {
		t.Fatal("expected flush")
	}
	if resp.Header().Get("Content-Type") != "text/event-stream" {
		t.Fatal("missing SSE content type")
	}
}
