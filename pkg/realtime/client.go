package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/tiwater/ticos-realtime-go/pkg/events"
	"github.com/tiwater/ticos-realtime-go/pkg/pcm"
)

// Event names dispatched by the Client.
const (
	EventRealtime              = "realtime.event"
	EventConversationUpdated   = "conversation.updated"
	EventItemAppended          = "conversation.item.appended"
	EventItemCompleted         = "conversation.item.completed"
	EventConversationInterrupt = "conversation.interrupted"
)

// RealtimeEvent is the normalized envelope re-emitted under "realtime.event"
// for every mirrored client and server event.
type RealtimeEvent struct {
	Time   string `json:"time"`
	Source string `json:"source"` // "client" or "server"
	Type   string `json:"type"`   // always "realtime.event"
	Event  any    `json:"event"`
}

// ConversationUpdate is the payload of "conversation.updated". Delta is nil
// for events that affect an item without carrying incremental content.
type ConversationUpdate struct {
	Item  *Item
	Delta *Delta
}

// Options configures a Client.
type Options struct {
	// URL overrides the provider's default endpoint.
	URL string

	// APIKey authenticates the connection.
	APIKey string

	// Provider selects the endpoint dialect. Default: ProviderTicos.
	Provider Provider

	// Model is passed on the connection URL when set.
	Model string

	// DangerouslyAllowAPIKeyInBrowser permits an API key under js/wasm.
	DangerouslyAllowAPIKeyInBrowser bool

	// Debug enables frame-level logging with key redaction.
	Debug bool
}

// Client is the public façade of the realtime protocol engine. It composes
// the event bus, the transport, the conversation, the session configuration,
// and the tool registry, and closes the tool-call loop against the server.
type Client struct {
	bus          *events.Bus
	transport    *Transport
	conversation *Conversation

	mu             sync.Mutex
	config         SessionConfig
	tools          map[string]registeredTool
	inputAudio     []int16
	sessionCreated bool
}

// mirroredClientEvents is the curated set of outbound events re-emitted as
// realtime.event envelopes.
var mirroredClientEvents = []string{
	EventClientConnected,
	EventClientDisconnected,
	EventClientError,
	"client." + EventTypeSessionUpdate,
	"client." + EventTypeConversationItemCreate,
	"client." + EventTypeConversationItemTruncate,
	"client." + EventTypeConversationItemDelete,
	"client." + EventTypeInputAudioBufferAppend,
	"client." + EventTypeInputAudioBufferCommit,
	"client." + EventTypeInputAudioBufferClear,
	"client." + EventTypeResponseCreate,
	"client." + EventTypeResponseCancel,
}

// mirroredServerEvents is the curated set of inbound events re-emitted as
// realtime.event envelopes.
var mirroredServerEvents = []string{
	"server." + EventTypeError,
	"server." + EventTypeSessionCreated,
	"server." + EventTypeSessionUpdated,
	"server." + EventTypeConversationCreated,
	"server." + EventTypeConversationItemCreated,
	"server." + EventTypeConversationItemInputAudioTranscriptionCompleted,
	"server." + EventTypeConversationItemInputAudioTranscriptionFailed,
	"server." + EventTypeConversationItemTruncated,
	"server." + EventTypeConversationItemDeleted,
	"server." + EventTypeInputAudioBufferCommitted,
	"server." + EventTypeInputAudioBufferCleared,
	"server." + EventTypeInputAudioBufferSpeechStarted,
	"server." + EventTypeInputAudioBufferSpeechStopped,
	"server." + EventTypeResponseCreated,
	"server." + EventTypeResponseDone,
	"server." + EventTypeResponseOutputItemAdded,
	"server." + EventTypeResponseOutputItemDone,
	"server." + EventTypeResponseContentPartAdded,
	"server." + EventTypeResponseContentPartDone,
	"server." + EventTypeResponseTextDelta,
	"server." + EventTypeResponseTextDone,
	"server." + EventTypeResponseAudioDelta,
	"server." + EventTypeResponseAudioDone,
	"server." + EventTypeResponseAudioTranscriptDelta,
	"server." + EventTypeResponseAudioTranscriptDone,
	"server." + EventTypeResponseFunctionCallArgumentsDelta,
	"server." + EventTypeResponseFunctionCallArgumentsDone,
	"server." + EventTypeRateLimitsUpdated,
}

// conversationEvents is the set of server events routed into the
// Conversation state machine.
var conversationEvents = []string{
	EventTypeResponseCreated,
	EventTypeResponseOutputItemAdded,
	EventTypeResponseContentPartAdded,
	EventTypeConversationItemCreated,
	EventTypeConversationItemTruncated,
	EventTypeConversationItemDeleted,
	EventTypeConversationItemInputAudioTranscriptionCompleted,
	EventTypeResponseAudioTranscriptDelta,
	EventTypeResponseAudioDelta,
	EventTypeResponseTextDelta,
	EventTypeResponseFunctionCallArgumentsDelta,
	EventTypeResponseOutputItemDone,
	EventTypeInputAudioBufferSpeechStarted,
	EventTypeInputAudioBufferSpeechStopped,
}

// NewClient creates a client with default configuration. It fails when an API
// key is configured in a browser-like environment without the explicit
// override.
func NewClient(opts Options) (*Client, error) {
	if opts.APIKey != "" && isBrowser() && !opts.DangerouslyAllowAPIKeyInBrowser {
		return nil, ErrAPIKeyInBrowser
	}

	bus := events.NewBus()
	c := &Client{
		bus:          bus,
		conversation: NewConversation(),
		config:       DefaultSessionConfig(),
		tools:        make(map[string]registeredTool),
	}
	c.transport = NewTransport(bus, TransportOptions{
		URL:                             opts.URL,
		APIKey:                          opts.APIKey,
		Provider:                        opts.Provider,
		Model:                           opts.Model,
		DangerouslyAllowAPIKeyInBrowser: opts.DangerouslyAllowAPIKeyInBrowser,
		Debug:                           opts.Debug,
	})

	c.addEventMirrors()
	c.addConversationRouting()
	return c, nil
}

// Bus exposes the client's event bus for subscription.
func (c *Client) Bus() *events.Bus { return c.bus }

// On registers a persistent handler on the client's bus.
func (c *Client) On(pattern string, fn events.Handler) *events.Subscription {
	return c.bus.On(pattern, fn)
}

// OnNext registers a one-shot handler on the client's bus.
func (c *Client) OnNext(pattern string, fn events.Handler) *events.Subscription {
	return c.bus.OnNext(pattern, fn)
}

// Off removes persistent handlers from the client's bus.
func (c *Client) Off(pattern string, sub *events.Subscription) error {
	return c.bus.Off(pattern, sub)
}

// addEventMirrors re-emits the curated client.* and server.* events under the
// realtime.event envelope, and tracks session creation.
func (c *Client) addEventMirrors() {
	for _, name := range mirroredClientEvents {
		c.bus.On(name, func(_ string, payload any) {
			c.bus.Dispatch(EventRealtime, &RealtimeEvent{
				Time:   time.Now().UTC().Format(time.RFC3339Nano),
				Source: "client",
				Type:   EventRealtime,
				Event:  payload,
			})
		})
	}
	for _, name := range mirroredServerEvents {
		c.bus.On(name, func(_ string, payload any) {
			c.bus.Dispatch(EventRealtime, &RealtimeEvent{
				Time:   time.Now().UTC().Format(time.RFC3339Nano),
				Source: "server",
				Type:   EventRealtime,
				Event:  payload,
			})
		})
	}
	c.bus.On("server."+EventTypeSessionCreated, func(_ string, _ any) {
		c.mu.Lock()
		c.sessionCreated = true
		c.mu.Unlock()
	})
}

// addConversationRouting feeds the conversation-relevant server events into
// the state machine and fans out item updates.
func (c *Client) addConversationRouting() {
	for _, eventType := range conversationEvents {
		c.bus.On("server."+eventType, func(_ string, payload any) {
			ev, ok := payload.(*ServerEvent)
			if !ok {
				return
			}
			c.handleServerEvent(ev)
		})
	}
}

func (c *Client) handleServerEvent(ev *ServerEvent) {
	if ev.Type == EventTypeInputAudioBufferSpeechStarted {
		c.bus.Dispatch(EventConversationInterrupt, nil)
	}

	c.mu.Lock()
	var inputAudio []int16
	if ev.Type == EventTypeInputAudioBufferSpeechStopped {
		inputAudio = c.inputAudio
	}
	item, delta := c.conversation.ProcessEvent(ev, inputAudio)
	c.mu.Unlock()

	if item == nil {
		return
	}
	c.bus.Dispatch(EventConversationUpdated, &ConversationUpdate{Item: item, Delta: delta})
	if ev.Type == EventTypeConversationItemCreated {
		c.bus.Dispatch(EventItemAppended, item)
	}
	if item.Status == ItemStatusCompleted &&
		(ev.Type == EventTypeConversationItemCreated || ev.Type == EventTypeResponseOutputItemDone) {
		c.onItemCompleted(item)
	}
}

// onItemCompleted announces the completed item and, for function calls,
// closes the tool loop asynchronously.
func (c *Client) onItemCompleted(item *Item) {
	c.bus.Dispatch(EventItemCompleted, item)
	if item.Formatted != nil && item.Formatted.Tool != nil {
		tool := *item.Formatted.Tool
		go c.executeTool(tool)
	}
}

// executeTool parses the call arguments, runs the registered handler, and
// reports the result (or error) to the server as a function_call_output
// followed by response.create so the model reacts to it.
func (c *Client) executeTool(tool FormattedTool) {
	result := c.invokeToolHandler(tool)

	output, err := json.Marshal(result)
	if err != nil {
		output, _ = json.Marshal(map[string]string{"error": err.Error()})
	}

	if err := c.transport.Send(EventTypeConversationItemCreate, map[string]any{
		"item": map[string]any{
			"type":    ItemTypeFunctionCallOutput,
			"call_id": tool.CallID,
			"output":  string(output),
		},
	}); err != nil {
		slog.Warn("realtime: failed to send tool output", "tool", tool.Name, "error", err)
		return
	}
	if err := c.transport.Send(EventTypeResponseCreate, nil); err != nil {
		slog.Warn("realtime: failed to request response after tool output", "tool", tool.Name, "error", err)
	}
}

func (c *Client) invokeToolHandler(tool FormattedTool) (result any) {
	defer func() {
		if r := recover(); r != nil {
			result = map[string]string{"error": fmt.Sprint(r)}
		}
	}()

	var args map[string]any
	if err := unmarshalJSON([]byte(tool.Arguments), &args); err != nil {
		return map[string]string{"error": fmt.Sprintf("invalid arguments for tool %q: %v", tool.Name, err)}
	}

	c.mu.Lock()
	registered, ok := c.tools[tool.Name]
	c.mu.Unlock()
	if !ok {
		return map[string]string{"error": fmt.Sprintf("tool %q has not been registered", tool.Name)}
	}

	out, err := registered.handler(context.Background(), args)
	if err != nil {
		return map[string]string{"error": err.Error()}
	}
	return out
}

// Connect opens the transport and pushes the current session configuration.
func (c *Client) Connect(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}
	return c.sendSessionUpdate()
}

// Disconnect closes the transport and clears the conversation.
func (c *Client) Disconnect() error {
	err := c.transport.Disconnect()
	c.mu.Lock()
	c.conversation.Clear()
	c.inputAudio = nil
	c.sessionCreated = false
	c.mu.Unlock()
	return err
}

// IsConnected reports whether the transport is open.
func (c *Client) IsConnected() bool { return c.transport.IsConnected() }

// WaitForSessionCreated blocks until the server has acknowledged the session.
// The one-shot is registered before the flag is checked so an acknowledgement
// arriving in between cannot be missed.
func (c *Client) WaitForSessionCreated(ctx context.Context) error {
	ch := make(chan struct{}, 1)
	sub := c.bus.OnNext("server."+EventTypeSessionCreated, func(_ string, _ any) {
		ch <- struct{}{}
	})

	c.mu.Lock()
	created := c.sessionCreated
	c.mu.Unlock()
	if created {
		c.bus.OffNext("server."+EventTypeSessionCreated, sub)
		return nil
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UpdateConfig merges a partial configuration change and, when connected,
// re-synchronizes the server with a session.update.
func (c *Client) UpdateConfig(u *SessionUpdate) error {
	c.mu.Lock()
	c.config.Apply(u)
	c.mu.Unlock()
	if !c.IsConnected() {
		return nil
	}
	return c.sendSessionUpdate()
}

// GetConfig returns a snapshot of the current session configuration.
func (c *Client) GetConfig() SessionConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.config
}

// sendSessionUpdate pushes the full configuration, with the tool registry
// folded into model.tools.
func (c *Client) sendSessionUpdate() error {
	c.mu.Lock()
	cfg := c.config
	if len(c.tools) > 0 {
		defs := make([]ToolDefinition, 0, len(c.tools))
		for _, rt := range c.tools {
			defs = append(defs, rt.def)
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
		cfg.Model.Tools = defs
	}
	c.mu.Unlock()
	return c.transport.Send(EventTypeSessionUpdate, map[string]any{"session": cfg})
}

// RegisterTool couples a tool definition to a local handler and informs the
// server. The definition must carry a name.
func (c *Client) RegisterTool(def ToolDefinition, handler ToolHandler) error {
	if def.Name == "" {
		return fmt.Errorf("realtime: tool definition requires a name")
	}
	if handler == nil {
		return fmt.Errorf("realtime: tool %q requires a handler", def.Name)
	}
	if def.Type == "" {
		def.Type = "function"
	}
	c.mu.Lock()
	c.tools[def.Name] = registeredTool{def: def, handler: handler}
	c.mu.Unlock()
	if !c.IsConnected() {
		return nil
	}
	return c.sendSessionUpdate()
}

// UnregisterTool removes a tool from the registry and informs the server.
func (c *Client) UnregisterTool(name string) error {
	c.mu.Lock()
	if _, ok := c.tools[name]; !ok {
		c.mu.Unlock()
		return fmt.Errorf("realtime: tool %q is not registered", name)
	}
	delete(c.tools, name)
	c.mu.Unlock()
	if !c.IsConnected() {
		return nil
	}
	return c.sendSessionUpdate()
}

// GetTools returns the registered tool definitions sorted by name.
func (c *Client) GetTools() []ToolDefinition {
	c.mu.Lock()
	defer c.mu.Unlock()
	defs := make([]ToolDefinition, 0, len(c.tools))
	for _, rt := range c.tools {
		defs = append(defs, rt.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Reset clears the tool registry, restores the default configuration, drops
// the conversation, and re-synchronizes the server.
func (c *Client) Reset() error {
	c.mu.Lock()
	c.tools = make(map[string]registeredTool)
	c.config = DefaultSessionConfig()
	c.conversation.Clear()
	c.inputAudio = nil
	c.mu.Unlock()
	if !c.IsConnected() {
		return nil
	}
	return c.sendSessionUpdate()
}

// SendUserMessageContent sends a user message built from content parts and
// requests a response. Raw audio samples on a part are base64-encoded, and
// input_text/input_audio part types are normalized to text/audio.
func (c *Client) SendUserMessageContent(parts []ContentPart) error {
	normalized := make([]ContentPart, len(parts))
	copy(normalized, parts)
	for i := range normalized {
		switch normalized[i].Type {
		case ContentTypeInputText:
			normalized[i].Type = ContentTypeText
		case ContentTypeInputAudio:
			normalized[i].Type = ContentTypeAudio
		}
		if normalized[i].AudioData != nil {
			normalized[i].Audio = pcm.EncodeInt16(normalized[i].AudioData)
			normalized[i].AudioData = nil
		}
	}
	if err := c.transport.Send(EventTypeConversationItemCreate, map[string]any{
		"item": map[string]any{
			"type":    ItemTypeMessage,
			"role":    RoleUser,
			"content": normalized,
		},
	}); err != nil {
		return err
	}
	return c.CreateResponse()
}

// AppendInputAudio streams samples into the server-side input buffer and
// grows the local accumulator used for speech-boundary slicing.
func (c *Client) AppendInputAudio(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	if err := c.transport.Send(EventTypeInputAudioBufferAppend, map[string]any{
		"audio": pcm.EncodeInt16(samples),
	}); err != nil {
		return err
	}
	c.mu.Lock()
	c.inputAudio = pcm.MergeInt16(c.inputAudio, samples)
	c.mu.Unlock()
	return nil
}

// ClearInputAudio clears the server-side input buffer and the local
// accumulator.
func (c *Client) ClearInputAudio() error {
	if err := c.transport.Send(EventTypeInputAudioBufferClear, nil); err != nil {
		return err
	}
	c.mu.Lock()
	c.inputAudio = nil
	c.mu.Unlock()
	return nil
}

// CreateResponse forces a model turn. Without server-side turn detection, a
// non-empty input accumulator is committed first and staged for adoption by
// the next user message.
func (c *Client) CreateResponse() error {
	c.mu.Lock()
	manual := c.config.Hearing.TurnDetection == nil
	pending := c.inputAudio
	c.mu.Unlock()

	if manual && len(pending) > 0 {
		if err := c.transport.Send(EventTypeInputAudioBufferCommit, nil); err != nil {
			return err
		}
		c.mu.Lock()
		c.conversation.QueueInputAudio(pending)
		c.inputAudio = nil
		c.mu.Unlock()
	}
	return c.transport.Send(EventTypeResponseCreate, nil)
}

// CancelResponse cancels the in-flight response. With an item ID it also
// truncates the addressed assistant audio message at sampleCount samples; the
// local item is left untouched until the server confirms the truncation.
func (c *Client) CancelResponse(id string, sampleCount int) (*Item, error) {
	if id == "" {
		if err := c.transport.Send(EventTypeResponseCancel, nil); err != nil {
			return nil, err
		}
		return nil, nil
	}

	c.mu.Lock()
	item := c.conversation.GetItem(id)
	c.mu.Unlock()
	if item == nil {
		return nil, fmt.Errorf("realtime: could not find item %q to cancel", id)
	}
	if item.Type != ItemTypeMessage {
		return nil, fmt.Errorf("realtime: can only cancel message items, %q is %q", id, item.Type)
	}
	if item.Role != RoleAssistant {
		return nil, fmt.Errorf("realtime: can only cancel assistant messages, %q has role %q", id, item.Role)
	}
	audioIndex := -1
	for i := range item.Content {
		if item.Content[i].Type == ContentTypeAudio {
			audioIndex = i
			break
		}
	}
	if audioIndex == -1 {
		return nil, fmt.Errorf("realtime: item %q has no audio content to truncate", id)
	}

	if err := c.transport.Send(EventTypeResponseCancel, nil); err != nil {
		return nil, err
	}
	if err := c.transport.Send(EventTypeConversationItemTruncate, map[string]any{
		"item_id":       id,
		"content_index": audioIndex,
		"audio_end_ms":  pcm.SamplesToMs(sampleCount),
	}); err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteItem asks the server to delete a conversation item. The local item is
// removed when the server confirms with conversation.item.deleted.
func (c *Client) DeleteItem(id string) error {
	return c.transport.Send(EventTypeConversationItemDelete, map[string]any{"item_id": id})
}

// WaitForNextItem blocks until the next item is appended to the conversation.
func (c *Client) WaitForNextItem(ctx context.Context) (*Item, error) {
	payload, ok := c.bus.WaitForNext(ctx, EventItemAppended, 0)
	if !ok {
		return nil, ctx.Err()
	}
	return payload.(*Item), nil
}

// WaitForNextCompletedItem blocks until the next item reaches a terminal
// status.
func (c *Client) WaitForNextCompletedItem(ctx context.Context) (*Item, error) {
	payload, ok := c.bus.WaitForNext(ctx, EventItemCompleted, 0)
	if !ok {
		return nil, ctx.Err()
	}
	return payload.(*Item), nil
}

// GetTurnDetectionType returns the configured turn detection type, or the
// empty string in manual mode.
func (c *Client) GetTurnDetectionType() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.config.Hearing.TurnDetection == nil {
		return ""
	}
	return c.config.Hearing.TurnDetection.Type
}

// GetItem returns a conversation item by ID, or nil.
func (c *Client) GetItem(id string) *Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation.GetItem(id)
}

// GetItems returns the ordered conversation items.
func (c *Client) GetItems() []*Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversation.GetItems()
}
