package realtime

// Client event types (sent from client to server).
const (
	EventTypeSessionUpdate = "session.update"

	EventTypeInputAudioBufferAppend = "input_audio_buffer.append"
	EventTypeInputAudioBufferCommit = "input_audio_buffer.commit"
	EventTypeInputAudioBufferClear  = "input_audio_buffer.clear"

	EventTypeConversationItemCreate   = "conversation.item.create"
	EventTypeConversationItemTruncate = "conversation.item.truncate"
	EventTypeConversationItemDelete   = "conversation.item.delete"

	EventTypeResponseCreate = "response.create"
	EventTypeResponseCancel = "response.cancel"
)

// Server event types (sent from server to client).
const (
	EventTypeError = "error"

	EventTypeSessionCreated = "session.created"
	EventTypeSessionUpdated = "session.updated"

	EventTypeConversationCreated                              = "conversation.created"
	EventTypeConversationItemCreated                          = "conversation.item.created"
	EventTypeConversationItemInputAudioTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTypeConversationItemInputAudioTranscriptionFailed    = "conversation.item.input_audio_transcription.failed"
	EventTypeConversationItemTruncated                        = "conversation.item.truncated"
	EventTypeConversationItemDeleted                          = "conversation.item.deleted"

	EventTypeInputAudioBufferCommitted     = "input_audio_buffer.committed"
	EventTypeInputAudioBufferCleared       = "input_audio_buffer.cleared"
	EventTypeInputAudioBufferSpeechStarted = "input_audio_buffer.speech_started"
	EventTypeInputAudioBufferSpeechStopped = "input_audio_buffer.speech_stopped"

	EventTypeResponseCreated          = "response.created"
	EventTypeResponseDone             = "response.done"
	EventTypeResponseOutputItemAdded  = "response.output_item.added"
	EventTypeResponseOutputItemDone   = "response.output_item.done"
	EventTypeResponseContentPartAdded = "response.content_part.added"
	EventTypeResponseContentPartDone  = "response.content_part.done"

	EventTypeResponseTextDelta = "response.text.delta"
	EventTypeResponseTextDone  = "response.text.done"

	EventTypeResponseAudioDelta = "response.audio.delta"
	EventTypeResponseAudioDone  = "response.audio.done"

	EventTypeResponseAudioTranscriptDelta = "response.audio_transcript.delta"
	EventTypeResponseAudioTranscriptDone  = "response.audio_transcript.done"

	EventTypeResponseFunctionCallArgumentsDelta = "response.function_call_arguments.delta"
	EventTypeResponseFunctionCallArgumentsDone  = "response.function_call_arguments.done"

	EventTypeRateLimitsUpdated = "rate_limits.updated"
)

// ServerEvent is a tagged union over every inbound event type. Only the
// fields relevant to the Type are populated; Raw always carries the original
// frame for forward compatibility with event types the client does not model.
type ServerEvent struct {
	// Type is the event type.
	Type string `json:"type"`

	// EventID is the unique identifier for this event. The transport
	// generates one locally when the server omits it.
	EventID string `json:"event_id,omitempty"`

	// Session carries session state (session.created, session.updated).
	Session *SessionResource `json:"session,omitempty"`

	// Item carries a conversation item (conversation.item.*,
	// response.output_item.*).
	Item *Item `json:"item,omitempty"`

	// ItemID addresses an existing item (delta and boundary events).
	ItemID string `json:"item_id,omitempty"`

	// PreviousItemID is set on input_audio_buffer.committed.
	PreviousItemID string `json:"previous_item_id,omitempty"`

	// AudioStartMs is set on input_audio_buffer.speech_started.
	AudioStartMs int `json:"audio_start_ms,omitempty"`

	// AudioEndMs is set on speech_stopped and conversation.item.truncated.
	AudioEndMs int `json:"audio_end_ms,omitempty"`

	// Transcript is the completed input audio transcription.
	Transcript string `json:"transcript,omitempty"`

	// ContentIndex addresses a content part within an item.
	ContentIndex int `json:"content_index,omitempty"`

	// OutputIndex addresses an output item within a response.
	OutputIndex int `json:"output_index,omitempty"`

	// ResponseID identifies the response a delta belongs to.
	ResponseID string `json:"response_id,omitempty"`

	// Response carries response state (response.created, response.done).
	Response *ResponseResource `json:"response,omitempty"`

	// Part carries a content part (response.content_part.*).
	Part *ContentPart `json:"part,omitempty"`

	// Delta carries incremental text, transcript, arguments, or base64 audio
	// depending on the event type.
	Delta string `json:"delta,omitempty"`

	// CallID identifies a function call (function_call_arguments.*).
	CallID string `json:"call_id,omitempty"`

	// Name is the function name on function call events.
	Name string `json:"name,omitempty"`

	// Arguments is the complete argument string on
	// response.function_call_arguments.done.
	Arguments string `json:"arguments,omitempty"`

	// ErrorDetail carries error information on error events.
	ErrorDetail *EventError `json:"error,omitempty"`

	// RateLimits is set on rate_limits.updated.
	RateLimits []RateLimit `json:"rate_limits,omitempty"`

	// Raw is the original JSON frame.
	Raw []byte `json:"-"`
}

// RateLimit describes one rate limit bucket.
type RateLimit struct {
	Name         string  `json:"name"`
	Limit        int     `json:"limit"`
	Remaining    int     `json:"remaining"`
	ResetSeconds float64 `json:"reset_seconds"`
}
