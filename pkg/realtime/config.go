package realtime

import "encoding/json"

// Turn detection modes.
const (
	VADServerVAD   = "server_vad"
	VADSemanticVAD = "semantic_vad"
)

// Modalities.
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// Audio formats.
const (
	AudioFormatPCM16    = "pcm16"
	AudioFormatG711ULaw = "g711_ulaw"
	AudioFormatG711ALaw = "g711_alaw"
)

// SessionConfig is the negotiated configuration in force on a connection. It
// is sent wholesale as the session payload of every session.update command.
type SessionConfig struct {
	Model     ModelConfig      `json:"model"`
	Speech    SpeechConfig     `json:"speech"`
	Hearing   HearingConfig    `json:"hearing"`
	Vision    *VisionConfig    `json:"vision,omitempty"`
	Knowledge *KnowledgeConfig `json:"knowledge,omitempty"`
}

// ModelConfig selects the generative model and its generation parameters.
type ModelConfig struct {
	Provider     string   `json:"provider,omitempty"`
	Name         string   `json:"name,omitempty"`
	Modalities   []string `json:"modalities,omitempty"`
	Instructions string   `json:"instructions"`

	// Tools is populated from the client's tool registry at send time.
	Tools []ToolDefinition `json:"tools,omitempty"`

	// ToolChoice is "auto", "none", "required", or a function selector
	// object.
	ToolChoice any `json:"tool_choice,omitempty"`

	Temperature             *float64 `json:"temperature,omitempty"`
	MaxResponseOutputTokens *int     `json:"max_response_output_tokens,omitempty"`
}

// SpeechConfig controls audio output.
type SpeechConfig struct {
	Voice             string  `json:"voice,omitempty"`
	OutputAudioFormat string  `json:"output_audio_format,omitempty"`
	SpeedRatio        float64 `json:"speed_ratio,omitempty"`
	VolumeRatio       float64 `json:"volume_ratio,omitempty"`
	PitchRatio        float64 `json:"pitch_ratio,omitempty"`
}

// HearingConfig controls audio input: format, transcription, and server-side
// turn detection.
type HearingConfig struct {
	InputAudioFormat        string               `json:"input_audio_format,omitempty"`
	InputAudioTranscription *TranscriptionConfig `json:"input_audio_transcription,omitempty"`

	// TurnDetection configures server-side VAD. Leave nil to keep the
	// current setting; set TurnDetectionDisabled to send an explicit null
	// and switch to manual mode.
	TurnDetection *TurnDetection `json:"turn_detection,omitempty"`

	// TurnDetectionDisabled, when true, marshals "turn_detection": null.
	TurnDetectionDisabled bool `json:"-"`
}

// MarshalJSON emits an explicit "turn_detection": null when turn detection is
// disabled; omitting the key would leave the server-side setting unchanged.
func (h HearingConfig) MarshalJSON() ([]byte, error) {
	type alias HearingConfig
	if !h.TurnDetectionDisabled {
		return json.Marshal(alias(h))
	}
	m := map[string]any{"turn_detection": nil}
	if h.InputAudioFormat != "" {
		m["input_audio_format"] = h.InputAudioFormat
	}
	if h.InputAudioTranscription != nil {
		m["input_audio_transcription"] = h.InputAudioTranscription
	}
	return json.Marshal(m)
}

// TranscriptionConfig enables transcription of user audio.
type TranscriptionConfig struct {
	Model string `json:"model,omitempty"`
}

// TurnDetection configures server-side voice activity detection.
type TurnDetection struct {
	Type              string  `json:"type,omitempty"`
	Threshold         float64 `json:"threshold,omitempty"`
	PrefixPaddingMs   int     `json:"prefix_padding_ms,omitempty"`
	SilenceDurationMs int     `json:"silence_duration_ms,omitempty"`
	CreateResponse    *bool   `json:"create_response,omitempty"`
	InterruptResponse *bool   `json:"interrupt_response,omitempty"`
}

// VisionConfig controls visual perception features.
type VisionConfig struct {
	EnableFaceDetection      bool     `json:"enable_face_detection,omitempty"`
	EnableObjectDetection    bool     `json:"enable_object_detection,omitempty"`
	EnableFaceIdentification bool     `json:"enable_face_identification,omitempty"`
	ObjectTargetClasses      []string `json:"object_target_classes,omitempty"`
}

// KnowledgeConfig carries scripted dialogue knowledge.
type KnowledgeConfig struct {
	Scripts []Script `json:"scripts,omitempty"`
}

// Script is a named collection of scripted dialogues.
type Script struct {
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	Dialogues   []Dialogue `json:"dialogues,omitempty"`
}

// Dialogue maps a list of prompts to an ordered response sequence.
type Dialogue struct {
	ID        string             `json:"id,omitempty"`
	Prompts   []string           `json:"prompts"`
	Responses []DialogueResponse `json:"responses"`
}

// DialogueResponse is one step of a scripted response: either a literal
// message or a reference to a registered function.
type DialogueResponse struct {
	Type     string `json:"type"` // "message" or "function"
	Message  string `json:"message,omitempty"`
	Function string `json:"function,omitempty"`
}

// DefaultSessionConfig returns the configuration a fresh client starts with.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		Model: ModelConfig{
			Provider:   "ticos",
			Name:       "stardust-2.5-turbo",
			Modalities: []string{ModalityText, ModalityAudio},
		},
		Speech: SpeechConfig{
			Voice:             "verse",
			OutputAudioFormat: AudioFormatPCM16,
		},
		Hearing: HearingConfig{
			InputAudioFormat: AudioFormatPCM16,
			TurnDetection:    &TurnDetection{Type: VADServerVAD},
		},
	}
}

// SessionUpdate is a partial configuration change. Nil sections are left
// untouched; within a section, zero-valued fields keep their current value.
type SessionUpdate struct {
	Model     *ModelUpdate     `json:"model,omitempty"`
	Speech    *SpeechUpdate    `json:"speech,omitempty"`
	Hearing   *HearingUpdate   `json:"hearing,omitempty"`
	Vision    *VisionConfig    `json:"vision,omitempty"`
	Knowledge *KnowledgeConfig `json:"knowledge,omitempty"`
}

// ModelUpdate is a partial ModelConfig. Pointer fields distinguish "unset"
// from explicit zero values.
type ModelUpdate struct {
	Provider                string
	Name                    string
	Modalities              []string
	Instructions            *string
	ToolChoice              any
	Temperature             *float64
	MaxResponseOutputTokens *int
}

// SpeechUpdate is a partial SpeechConfig.
type SpeechUpdate struct {
	Voice             string
	OutputAudioFormat string
	SpeedRatio        float64
	VolumeRatio       float64
	PitchRatio        float64
}

// HearingUpdate is a partial HearingConfig. DisableTurnDetection switches to
// manual mode; setting TurnDetection switches it back on.
type HearingUpdate struct {
	InputAudioFormat        string
	InputAudioTranscription *TranscriptionConfig
	TurnDetection           *TurnDetection
	DisableTurnDetection    bool
}

// Apply merges a partial update into the configuration.
func (c *SessionConfig) Apply(u *SessionUpdate) {
	if u == nil {
		return
	}
	if m := u.Model; m != nil {
		if m.Provider != "" {
			c.Model.Provider = m.Provider
		}
		if m.Name != "" {
			c.Model.Name = m.Name
		}
		if m.Modalities != nil {
			c.Model.Modalities = m.Modalities
		}
		if m.Instructions != nil {
			c.Model.Instructions = *m.Instructions
		}
		if m.ToolChoice != nil {
			c.Model.ToolChoice = m.ToolChoice
		}
		if m.Temperature != nil {
			c.Model.Temperature = m.Temperature
		}
		if m.MaxResponseOutputTokens != nil {
			c.Model.MaxResponseOutputTokens = m.MaxResponseOutputTokens
		}
	}
	if s := u.Speech; s != nil {
		if s.Voice != "" {
			c.Speech.Voice = s.Voice
		}
		if s.OutputAudioFormat != "" {
			c.Speech.OutputAudioFormat = s.OutputAudioFormat
		}
		if s.SpeedRatio != 0 {
			c.Speech.SpeedRatio = s.SpeedRatio
		}
		if s.VolumeRatio != 0 {
			c.Speech.VolumeRatio = s.VolumeRatio
		}
		if s.PitchRatio != 0 {
			c.Speech.PitchRatio = s.PitchRatio
		}
	}
	if h := u.Hearing; h != nil {
		if h.InputAudioFormat != "" {
			c.Hearing.InputAudioFormat = h.InputAudioFormat
		}
		if h.InputAudioTranscription != nil {
			c.Hearing.InputAudioTranscription = h.InputAudioTranscription
		}
		if h.DisableTurnDetection {
			c.Hearing.TurnDetection = nil
			c.Hearing.TurnDetectionDisabled = true
		} else if h.TurnDetection != nil {
			c.Hearing.TurnDetection = h.TurnDetection
			c.Hearing.TurnDetectionDisabled = false
		}
	}
	if u.Vision != nil {
		c.Vision = u.Vision
	}
	if u.Knowledge != nil {
		c.Knowledge = u.Knowledge
	}
}
