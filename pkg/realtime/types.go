package realtime

// Item kinds.
const (
	ItemTypeMessage            = "message"
	ItemTypeFunctionCall       = "function_call"
	ItemTypeFunctionCallOutput = "function_call_output"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Item statuses.
const (
	ItemStatusInProgress = "in_progress"
	ItemStatusCompleted  = "completed"
	ItemStatusIncomplete = "incomplete"
)

// Content part types.
const (
	ContentTypeInputText  = "input_text"
	ContentTypeText       = "text"
	ContentTypeInputAudio = "input_audio"
	ContentTypeAudio      = "audio"
	ContentTypeImage      = "image"
)

// Item is one logical unit of the conversation: a message, a function call,
// or a function call output. Items are created by server events and addressed
// by their server-assigned ID.
type Item struct {
	ID     string `json:"id,omitempty"`
	Object string `json:"object,omitempty"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty"`

	// Role is set on message items only.
	Role string `json:"role,omitempty"`

	// Content is the ordered list of typed parts of a message.
	Content []ContentPart `json:"content,omitempty"`

	// CallID links a function_call to its function_call_output.
	CallID string `json:"call_id,omitempty"`

	// Name is the function name of a function_call.
	Name string `json:"name,omitempty"`

	// Arguments is the argument string of a function_call, grown by deltas
	// until the item reaches a terminal status.
	Arguments string `json:"arguments,omitempty"`

	// Output is the result string of a function_call_output.
	Output string `json:"output,omitempty"`

	// AudioData holds raw samples for locally constructed input audio parts.
	// It is encoded to base64 before the item is sent and never appears on
	// the wire.
	AudioData []int16 `json:"-"`

	// Formatted is the materialized, delta-merged view of the item. It is
	// populated by the Conversation and is never part of the wire format.
	Formatted *Formatted `json:"-"`
}

// ContentPart is one typed part of a message item.
type ContentPart struct {
	Type string `json:"type,omitempty"`

	// Text is set for text and input_text parts.
	Text string `json:"text,omitempty"`

	// Audio is base64 PCM16 for audio and input_audio parts.
	Audio string `json:"audio,omitempty"`

	// Transcript is set for audio parts once transcription completes.
	Transcript string `json:"transcript,omitempty"`

	// Image is base64 image data for image parts.
	Image string `json:"image,omitempty"`

	// Caption is an optional caption on image parts.
	Caption string `json:"caption,omitempty"`

	// AudioData holds raw samples for locally constructed parts; it is
	// normalized into Audio before sending.
	AudioData []int16 `json:"-"`
}

// Formatted is the delta-merged view of an item used by consumers that do not
// want to reassemble content parts themselves.
type Formatted struct {
	// Text accumulates text and input_text content.
	Text string

	// Transcript accumulates audio transcript fragments.
	Transcript string

	// Audio accumulates PCM16 samples at 24 kHz. Always non-nil.
	Audio []int16

	// Tool is set on function_call items.
	Tool *FormattedTool

	// Output is set on function_call_output items.
	Output string
}

// FormattedTool is the materialized view of a function call.
type FormattedTool struct {
	Type      string
	Name      string
	CallID    string
	Arguments string
}

// Delta carries only the fields of an item that changed in a single event.
// Absent fields are zero; transcript fragments are never empty because the
// Conversation normalizes empty transcripts to a single space.
type Delta struct {
	Text       string
	Transcript string
	Audio      []int16
	Arguments  string
	Output     string
}

// SessionResource is the session state returned by the server.
type SessionResource struct {
	ID        string `json:"id,omitempty"`
	Object    string `json:"object,omitempty"`
	Model     string `json:"model,omitempty"`
	ExpiresAt int64  `json:"expires_at,omitempty"`
}

// ResponseResource is a model response returned by the server.
type ResponseResource struct {
	ID            string `json:"id,omitempty"`
	Object        string `json:"object,omitempty"`
	Status        string `json:"status,omitempty"`
	StatusDetails any    `json:"status_details,omitempty"`
	Output        []Item `json:"output,omitempty"`
	Usage         *Usage `json:"usage,omitempty"`
}

// Usage is token accounting attached to a completed response.
type Usage struct {
	TotalTokens  int `json:"total_tokens,omitempty"`
	InputTokens  int `json:"input_tokens,omitempty"`
	OutputTokens int `json:"output_tokens,omitempty"`
}
