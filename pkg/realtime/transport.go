package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tiwater/ticos-realtime-go/pkg/events"
)

// Provider selects the endpoint and handshake dialect.
type Provider string

const (
	// ProviderTicos targets the Ticos realtime endpoint.
	ProviderTicos Provider = "ticos"
	// ProviderOpenAI targets the OpenAI realtime endpoint.
	ProviderOpenAI Provider = "openai"
)

// Default WebSocket endpoints per provider.
const (
	DefaultTicosURL  = "wss://api.ticos.ai/v1/realtime"
	DefaultOpenAIURL = "wss://api.openai.com/v1/realtime"
)

// Lifecycle event names dispatched by the transport.
const (
	EventClientConnected    = "client.connected"
	EventClientDisconnected = "client.disconnected"
	EventClientError        = "client.error"
)

// TransportOptions configures a Transport.
type TransportOptions struct {
	// URL overrides the provider's default endpoint.
	URL string

	// APIKey authenticates the connection. It is attached as a subprotocol
	// token and, outside browser-like environments, as a bearer header.
	APIKey string

	// Provider selects the endpoint dialect. Default: ProviderTicos.
	Provider Provider

	// Model is appended as a query parameter when set.
	Model string

	// DangerouslyAllowAPIKeyInBrowser permits an API key under js/wasm,
	// where it is visible to the page.
	DangerouslyAllowAPIKeyInBrowser bool

	// Debug enables frame-level logging. Key-bearing fields are redacted.
	Debug bool
}

// Transport owns one WebSocket connection. It frames outbound commands,
// parses inbound events, and mirrors both on the event bus as
// "client.<type>" and "server.<type>".
type Transport struct {
	bus  *events.Bus
	opts TransportOptions

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	closing    bool
}

// NewTransport creates a transport bound to bus. It does not connect.
func NewTransport(bus *events.Bus, opts TransportOptions) *Transport {
	if opts.Provider == "" {
		opts.Provider = ProviderTicos
	}
	if opts.URL == "" {
		switch opts.Provider {
		case ProviderOpenAI:
			opts.URL = DefaultOpenAIURL
		default:
			opts.URL = DefaultTicosURL
		}
	}
	return &Transport{bus: bus, opts: opts}
}

// URL returns the endpoint the transport dials.
func (t *Transport) URL() string { return t.opts.URL }

// IsConnected reports whether the WebSocket is open.
func (t *Transport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// isBrowser reports a browser-like environment where an API key would be
// exposed to the page.
func isBrowser() bool {
	return runtime.GOOS == "js"
}

// Connect dials the endpoint and starts the read loop. On success it
// dispatches client.connected.
func (t *Transport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil || t.connecting {
		t.mu.Unlock()
		return ErrAlreadyConnected
	}
	t.connecting = true
	t.mu.Unlock()
	defer func() {
		t.mu.Lock()
		t.connecting = false
		t.mu.Unlock()
	}()

	if t.opts.APIKey != "" && isBrowser() && !t.opts.DangerouslyAllowAPIKeyInBrowser {
		return ErrAPIKeyInBrowser
	}

	url := t.opts.URL
	if t.opts.Model != "" {
		url = fmt.Sprintf("%s?model=%s", url, t.opts.Model)
	}

	dialer := websocket.Dialer{}
	headers := http.Header{}
	if t.opts.APIKey != "" {
		switch t.opts.Provider {
		case ProviderOpenAI:
			dialer.Subprotocols = []string{
				"realtime",
				"openai-insecure-api-key." + t.opts.APIKey,
				"openai-beta.realtime-v1",
			}
		default:
			dialer.Subprotocols = []string{
				"realtime",
				"api-key." + t.opts.APIKey,
				"realtime-v1",
			}
		}
		if !isBrowser() {
			headers.Set("Authorization", "Bearer "+t.opts.APIKey)
		}
	}

	conn, resp, err := dialer.DialContext(ctx, url, headers)
	if err != nil {
		connErr := &Error{
			Code:    "connection_failed",
			Message: fmt.Sprintf("failed to connect to %q: %v", t.opts.URL, err),
		}
		if resp != nil {
			connErr.HTTPStatus = resp.StatusCode
		}
		t.bus.Dispatch(EventClientError, connErr)
		return connErr
	}

	t.mu.Lock()
	t.conn = conn
	t.closing = false
	t.mu.Unlock()

	t.bus.Dispatch(EventClientConnected, nil)
	go t.readLoop(conn)
	return nil
}

// Disconnect closes the WebSocket and dispatches client.disconnected.
func (t *Transport) Disconnect() error {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.closing = true
	t.mu.Unlock()
	if conn == nil {
		return nil
	}
	err := conn.Close()
	t.bus.Dispatch(EventClientDisconnected, nil)
	return err
}

// generateEventID returns a fresh outbound event ID.
func generateEventID() string {
	return "evt_" + uuid.New().String()[:12]
}

// Send frames and writes one outbound command, then mirrors it locally as
// client.<eventType>. It fails without queuing when not connected.
func (t *Transport) Send(eventType string, payload map[string]any) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("%w: cannot send %q", ErrNotConnected, eventType)
	}

	event := make(map[string]any, len(payload)+2)
	for k, v := range payload {
		event[k] = v
	}
	event["event_id"] = generateEventID()
	event["type"] = eventType

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("realtime: marshal %q event: %w", eventType, err)
	}

	t.debugLog("sending event", sanitize(event))

	t.mu.Lock()
	err = conn.WriteMessage(websocket.TextMessage, data)
	t.mu.Unlock()
	if err != nil {
		return fmt.Errorf("realtime: write %q event: %w", eventType, err)
	}

	t.bus.Dispatch("client."+eventType, event)
	return nil
}

// readLoop parses inbound frames and dispatches them as server.<type>.
// Malformed frames are dropped with a warning; a socket error closes the
// connection and dispatches client.error and client.disconnected.
func (t *Transport) readLoop(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			t.mu.Lock()
			deliberate := t.closing
			if t.conn == conn {
				t.conn = nil
			}
			t.mu.Unlock()
			if !deliberate {
				conn.Close()
				t.bus.Dispatch(EventClientError, &Error{
					Code:    "read_failed",
					Message: err.Error(),
				})
				t.bus.Dispatch(EventClientDisconnected, nil)
			}
			return
		}

		t.debugLogFrame("received message", message)

		var event ServerEvent
		if err := json.Unmarshal(message, &event); err != nil {
			slog.Warn("realtime: dropping unparseable frame", "error", err, "len", len(message))
			continue
		}
		if event.Type == "" {
			slog.Warn("realtime: dropping frame without type", "len", len(message))
			continue
		}
		if event.EventID == "" {
			event.EventID = generateEventID()
		}
		event.Raw = message

		t.bus.Dispatch("server."+event.Type, &event)
	}
}

func (t *Transport) debugLog(msg string, v any) {
	if !t.opts.Debug || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	str, ok := v.(string)
	if !ok {
		data, err := json.Marshal(v)
		if err != nil {
			return
		}
		str = string(data)
	}
	if len(str) > 500 {
		str = str[:500] + "..."
	}
	slog.Debug(msg, "content", str)
}

// debugLogFrame logs an inbound frame with key-bearing fields redacted.
// Frames that do not parse as JSON objects are logged by length only.
func (t *Transport) debugLogFrame(msg string, frame []byte) {
	if !t.opts.Debug || !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	var v any
	if err := json.Unmarshal(frame, &v); err != nil {
		slog.Debug(msg, "len", len(frame))
		return
	}
	t.debugLog(msg, sanitize(v))
}

// sanitize deep-copies an event payload with key-bearing fields redacted so
// they never reach debug logs.
func sanitize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			switch strings.ToLower(k) {
			case "api_key", "apikey", "authorization", "access_token":
				out[k] = "***"
			default:
				out[k] = sanitize(item)
			}
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = sanitize(item)
		}
		return out
	default:
		return v
	}
}
