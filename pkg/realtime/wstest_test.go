package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// fakeServer is an in-process realtime endpoint. It records every frame the
// client sends and lets tests push server events down the socket.
type fakeServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader

	mu       sync.Mutex
	conn     *websocket.Conn
	received chan map[string]any
}

func newFakeServer(t *testing.T) *fakeServer {
	t.Helper()
	fs := &fakeServer{t: t, received: make(chan map[string]any, 64)}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fs.mu.Lock()
		fs.conn = conn
		fs.mu.Unlock()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var event map[string]any
			if err := json.Unmarshal(data, &event); err != nil {
				continue
			}
			fs.received <- event
		}
	}))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeServer) url() string {
	return "ws" + strings.TrimPrefix(fs.srv.URL, "http")
}

// send pushes one server event to the connected client.
func (fs *fakeServer) send(event map[string]any) {
	fs.t.Helper()
	data, err := json.Marshal(event)
	if err != nil {
		fs.t.Fatal(err)
	}
	fs.mu.Lock()
	conn := fs.conn
	fs.mu.Unlock()
	if conn == nil {
		fs.t.Fatal("no client connected")
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		fs.t.Fatal(err)
	}
}

// closeConn drops the client connection from the server side.
func (fs *fakeServer) closeConn() {
	fs.mu.Lock()
	conn := fs.conn
	fs.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
}

// next returns the next frame the client sent, failing after a timeout.
func (fs *fakeServer) next() map[string]any {
	fs.t.Helper()
	select {
	case event := <-fs.received:
		return event
	case <-time.After(2 * time.Second):
		fs.t.Fatal("timed out waiting for a client frame")
		return nil
	}
}

// nextOfType skips frames until one of the given type arrives.
func (fs *fakeServer) nextOfType(eventType string) map[string]any {
	fs.t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-fs.received:
			if event["type"] == eventType {
				return event
			}
		case <-deadline:
			fs.t.Fatalf("timed out waiting for a %q frame", eventType)
			return nil
		}
	}
}

func timeoutAfter(t *testing.T) <-chan time.Time {
	t.Helper()
	return time.After(2 * time.Second)
}

func timeoutShort() <-chan time.Time {
	return time.After(100 * time.Millisecond)
}

// waitSignal waits on a channel used as a test checkpoint.
func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}
