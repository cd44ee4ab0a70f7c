package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}

// serveSocketIO runs a minimal Engine.IO v4 endpoint: open handshake,
// namespace connect, then hands the connection to fn.
func serveSocketIO(t *testing.T, fn func(conn *websocket.Conn)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/socket.io/" {
			http.NotFound(w, r)
			return
		}
		if got := r.URL.Query().Get("EIO"); got != "4" {
			t.Errorf("EIO query = %q, want 4", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		open := `0{"sid":"test-sid","upgrades":[],"pingInterval":25000,"pingTimeout":20000}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(open)); err != nil {
			return
		}
		_, raw, err := conn.ReadMessage()
		if err != nil || string(raw) != "40" {
			t.Errorf("namespace connect = %q, err %v, want 40", raw, err)
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`40{"sid":"ns-sid"}`)); err != nil {
			return
		}
		fn(conn)
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	base, err := url.Parse(serverURL)
	if err != nil {
		t.Fatalf("parse server url: %v", err)
	}
	client, err := NewClient(base)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestNewClient_SchemeConversion(t *testing.T) {
	t.Parallel()

	base, _ := url.Parse("https://pi.local:8080")
	client, err := NewClient(base)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if !strings.HasPrefix(client.socketURL, "wss://pi.local:8080/socket.io/?") {
		t.Errorf("socketURL = %q", client.socketURL)
	}

	base, _ = url.Parse("ftp://pi.local")
	if _, err := NewClient(base); err == nil {
		t.Error("NewClient accepted an ftp url")
	}
}

func TestClient_ReceivesEventsAndAnswersPing(t *testing.T) {
	gotPong := make(chan struct{})
	server := serveSocketIO(t, func(conn *websocket.Conn) {
		event := `42["toast",{"message":"saved","type":"success"}]`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(event)); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte("2")); err != nil {
			return
		}
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if string(raw) == "3" {
				close(gotPong)
				return
			}
		}
	})

	client := newTestClient(t, server.URL)
	events, cancel := client.Subscribe()
	defer cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go client.Run(ctx)

	select {
	case ev := <-events:
		if ev.Name != "toast" {
			t.Fatalf("event name = %q, want toast", ev.Name)
		}
		var toast Toast
		if err := json.Unmarshal(ev.Payload, &toast); err != nil {
			t.Fatalf("decode toast: %v", err)
		}
		if toast.Message != "saved" || toast.Type != "success" {
			t.Fatalf("toast = %#v", toast)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
	}

	select {
	case <-gotPong:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pong")
	}

	state := client.State()
	if !state.Connected || state.SID != "test-sid" {
		t.Errorf("state = %#v, want connected with sid test-sid", state)
	}
}

func TestClient_EmitReachesServer(t *testing.T) {
	received := make(chan string, 1)
	server := serveSocketIO(t, func(conn *websocket.Conn) {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(raw)
		// Keep the connection open until the client goes away.
		_, _, _ = conn.ReadMessage()
	})

	client := newTestClient(t, server.URL)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go client.Run(ctx)

	deadline := time.Now().Add(5 * time.Second)
	for !client.State().Connected {
		if time.Now().After(deadline) {
			t.Fatal("client never connected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := client.Emit(EmitActionPause, PrinterAction{ID: "p1"}); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	select {
	case frame := <-received:
		if frame != `42["action_pause",{"id":"p1"}]` {
			t.Errorf("server received %s", frame)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for emitted event")
	}
}

func TestClient_EmitWhenDisconnected(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "http://127.0.0.1:9")
	if err := client.Emit(EmitPrinters, nil); err == nil {
		t.Error("Emit on a disconnected client returned nil error")
	}
}

func TestClient_EmitAfterReconnectUsesNewConnection(t *testing.T) {
	var mu sync.Mutex
	sessions := 0
	received := make(chan string, 1)
	server := serveSocketIO(t, func(conn *websocket.Conn) {
		mu.Lock()
		sessions++
		n := sessions
		mu.Unlock()
		if n == 1 {
			// Drop the first session; the emit below must reach the
			// replacement connection, not a leftover writer of this one.
			return
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(raw)
		_, _, _ = conn.ReadMessage()
	})

	client := newTestClient(t, server.URL)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go client.Run(ctx)

	deadline := time.Now().Add(10 * time.Second)
	for {
		mu.Lock()
		n := sessions
		mu.Unlock()
		if n >= 2 && client.State().Connected {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("client never reconnected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := client.Emit(EmitPrinters, struct{}{}); err != nil {
		t.Fatalf("Emit returned error: %v", err)
	}

	select {
	case frame := <-received:
		if frame != `42["printers",{}]` {
			t.Errorf("server received %s", frame)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the emitted event")
	}
}

func TestClient_ReconnectsAfterDrop(t *testing.T) {
	connects := make(chan struct{}, 4)
	server := serveSocketIO(t, func(conn *websocket.Conn) {
		connects <- struct{}{}
		// Drop immediately; the client should come back.
	})

	client := newTestClient(t, server.URL)
	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go client.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-connects:
		case <-time.After(10 * time.Second):
			t.Fatalf("timed out waiting for connection %d", i+1)
		}
	}
}
