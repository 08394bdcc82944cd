package transport

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/anime-shed/live-text-overlay-go/pkg/models"
)

func TestStreamState(t *testing.T) {
	api := newTestAPI(t)
	server := httptest.NewServer(api.handler)
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/state/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	read := func() models.PublishedState {
		t.Helper()
		var snap models.PublishedState
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		if err := conn.ReadJSON(&snap); err != nil {
			t.Fatalf("ReadJSON: %v", err)
		}
		return snap
	}

	if first := read(); first.Version != 0 || first.Result != nil {
		t.Errorf("Expected the empty snapshot first, got %+v", first)
	}

	publishPortraitResult(api.store)

	// A slow reader may skip the geometry-only version, never the latest one.
	snap := read()
	if snap.Version == 1 {
		snap = read()
	}
	if snap.Version != 2 || snap.Result == nil || snap.Result.FullText != "EXIT" {
		t.Errorf("Expected the published result, got %+v", snap)
	}
}
