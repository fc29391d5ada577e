package realtime

import (
	"log/slog"

	"github.com/tiwater/ticos-realtime-go/pkg/pcm"
)

// Conversation reconstructs structured items from the incremental server
// event stream. It keeps an ordered item list and a per-ID lookup that agree
// at all times, and tolerates out-of-order arrivals: speech boundaries and
// transcripts may precede the creation of the item they address.
//
// Conversation is not safe for concurrent use; the Client serializes access.
type Conversation struct {
	items  []*Item
	lookup map[string]*Item

	// queuedSpeech holds speech boundaries (and the input audio slice cut
	// from the client buffer) for items that have not been created yet.
	queuedSpeech map[string]*queuedSpeech

	// queuedTranscripts holds transcripts that arrived before their item.
	queuedTranscripts map[string]string

	// queuedInputAudio is the committed input buffer awaiting adoption by
	// the next user message.
	queuedInputAudio []int16
}

type queuedSpeech struct {
	audioStartMs int
	audioEndMs   int
	audio        []int16
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	c := &Conversation{}
	c.Clear()
	return c
}

// Clear drops all items and queued state.
func (c *Conversation) Clear() {
	c.items = nil
	c.lookup = make(map[string]*Item)
	c.queuedSpeech = make(map[string]*queuedSpeech)
	c.queuedTranscripts = make(map[string]string)
	c.queuedInputAudio = nil
}

// QueueInputAudio stages a committed input audio buffer for adoption by the
// next user message item.
func (c *Conversation) QueueInputAudio(audio []int16) {
	c.queuedInputAudio = audio
}

// GetItem returns the item with the given ID, or nil.
func (c *Conversation) GetItem(id string) *Item {
	return c.lookup[id]
}

// GetItems returns the ordered item list. The slice is a copy; the items are
// shared.
func (c *Conversation) GetItems() []*Item {
	out := make([]*Item, len(c.items))
	copy(out, c.items)
	return out
}

// ProcessEvent applies one server event to the conversation and returns the
// affected item together with a delta holding only the changed fields. Both
// are nil when the event does not affect any item. inputAudio is the client's
// input accumulator, consulted only for speech_stopped events.
func (c *Conversation) ProcessEvent(ev *ServerEvent, inputAudio []int16) (*Item, *Delta) {
	switch ev.Type {
	case EventTypeConversationItemCreated:
		return c.processItemCreated(ev)
	case EventTypeConversationItemInputAudioTranscriptionCompleted:
		return c.processTranscriptionCompleted(ev)
	case EventTypeResponseAudioTranscriptDelta:
		return c.processAudioTranscriptDelta(ev)
	case EventTypeResponseAudioDelta:
		return c.processAudioDelta(ev)
	case EventTypeResponseTextDelta:
		return c.processTextDelta(ev)
	case EventTypeResponseFunctionCallArgumentsDelta:
		return c.processArgumentsDelta(ev)
	case EventTypeInputAudioBufferSpeechStarted:
		return c.processSpeechStarted(ev)
	case EventTypeInputAudioBufferSpeechStopped:
		return c.processSpeechStopped(ev, inputAudio)
	case EventTypeResponseOutputItemDone:
		return c.processOutputItemDone(ev)
	case EventTypeConversationItemTruncated:
		return c.processItemTruncated(ev)
	case EventTypeConversationItemDeleted:
		return c.processItemDeleted(ev)
	default:
		return nil, nil
	}
}

func (c *Conversation) processItemCreated(ev *ServerEvent) (*Item, *Delta) {
	if ev.Item == nil {
		slog.Warn("realtime: item.created without item")
		return nil, nil
	}
	if existing, ok := c.lookup[ev.Item.ID]; ok {
		return existing, nil
	}

	item := copyItem(ev.Item)
	item.Formatted = &Formatted{Audio: []int16{}}
	c.items = append(c.items, item)
	c.lookup[item.ID] = item

	// Speech boundaries may have arrived before the item.
	if qs, ok := c.queuedSpeech[item.ID]; ok {
		item.Formatted.Audio = pcm.MergeInt16(item.Formatted.Audio, qs.audio)
		delete(c.queuedSpeech, item.ID)
	}

	// So may the input audio transcription.
	if transcript, ok := c.queuedTranscripts[item.ID]; ok {
		stampTranscript(item, -1, transcript)
		delete(c.queuedTranscripts, item.ID)
	}

	for i := range item.Content {
		switch item.Content[i].Type {
		case ContentTypeText, ContentTypeInputText:
			item.Formatted.Text += item.Content[i].Text
		}
	}

	switch item.Type {
	case ItemTypeMessage:
		if item.Role == RoleUser {
			item.Status = ItemStatusCompleted
			if c.queuedInputAudio != nil {
				item.Formatted.Audio = c.queuedInputAudio
				c.queuedInputAudio = nil
			}
		} else if item.Status == "" {
			item.Status = ItemStatusInProgress
		}
	case ItemTypeFunctionCall:
		item.Formatted.Tool = &FormattedTool{
			Type:      "function",
			Name:      item.Name,
			CallID:    item.CallID,
			Arguments: item.Arguments,
		}
		item.Status = ItemStatusInProgress
	case ItemTypeFunctionCallOutput:
		item.Status = ItemStatusCompleted
		item.Formatted.Output = item.Output
	}

	return item, nil
}

func (c *Conversation) processTranscriptionCompleted(ev *ServerEvent) (*Item, *Delta) {
	// Empty transcripts become a single space so "transcribed as nothing"
	// stays distinguishable from "not transcribed yet".
	transcript := ev.Transcript
	if transcript == "" {
		transcript = " "
	}

	item, ok := c.lookup[ev.ItemID]
	if !ok {
		c.queuedTranscripts[ev.ItemID] = transcript
		return nil, nil
	}
	stampTranscript(item, ev.ContentIndex, transcript)
	return item, &Delta{Transcript: transcript}
}

func (c *Conversation) processAudioTranscriptDelta(ev *ServerEvent) (*Item, *Delta) {
	item, ok := c.lookup[ev.ItemID]
	if !ok {
		slog.Warn("realtime: audio_transcript.delta for unknown item", "item_id", ev.ItemID)
		return nil, nil
	}
	item.Formatted.Transcript += ev.Delta
	return item, &Delta{Transcript: ev.Delta}
}

func (c *Conversation) processAudioDelta(ev *ServerEvent) (*Item, *Delta) {
	item, ok := c.lookup[ev.ItemID]
	if !ok {
		slog.Warn("realtime: audio.delta for unknown item", "item_id", ev.ItemID)
		return nil, nil
	}
	appended, err := pcm.DecodeInt16(ev.Delta)
	if err != nil {
		slog.Warn("realtime: undecodable audio delta", "item_id", ev.ItemID, "error", err)
		return nil, nil
	}
	item.Formatted.Audio = pcm.MergeInt16(item.Formatted.Audio, appended)
	return item, &Delta{Audio: appended}
}

func (c *Conversation) processTextDelta(ev *ServerEvent) (*Item, *Delta) {
	item, ok := c.lookup[ev.ItemID]
	if !ok {
		slog.Warn("realtime: text.delta for unknown item", "item_id", ev.ItemID)
		return nil, nil
	}
	if ev.ContentIndex >= 0 && ev.ContentIndex < len(item.Content) {
		item.Content[ev.ContentIndex].Text += ev.Delta
	}
	item.Formatted.Text += ev.Delta
	return item, &Delta{Text: ev.Delta}
}

func (c *Conversation) processArgumentsDelta(ev *ServerEvent) (*Item, *Delta) {
	item, ok := c.lookup[ev.ItemID]
	if !ok {
		slog.Warn("realtime: function_call_arguments.delta for unknown item", "item_id", ev.ItemID)
		return nil, nil
	}
	item.Arguments += ev.Delta
	if item.Formatted.Tool != nil {
		item.Formatted.Tool.Arguments += ev.Delta
	}
	return item, &Delta{Arguments: ev.Delta}
}

func (c *Conversation) processSpeechStarted(ev *ServerEvent) (*Item, *Delta) {
	qs, ok := c.queuedSpeech[ev.ItemID]
	if !ok {
		qs = &queuedSpeech{}
		c.queuedSpeech[ev.ItemID] = qs
	}
	qs.audioStartMs = ev.AudioStartMs
	return nil, nil
}

func (c *Conversation) processSpeechStopped(ev *ServerEvent, inputAudio []int16) (*Item, *Delta) {
	qs, ok := c.queuedSpeech[ev.ItemID]
	if !ok {
		qs = &queuedSpeech{}
		c.queuedSpeech[ev.ItemID] = qs
	}
	qs.audioEndMs = ev.AudioEndMs

	start := pcm.MsToSamples(qs.audioStartMs)
	end := pcm.MsToSamples(qs.audioEndMs)
	if start < 0 || end < start || end > len(inputAudio) {
		slog.Warn("realtime: speech range outside input buffer",
			"item_id", ev.ItemID, "start", start, "end", end, "buffer", len(inputAudio))
		qs.audio = []int16{}
		return nil, nil
	}
	qs.audio = append([]int16(nil), inputAudio[start:end]...)

	// If the item already exists, adopt the slice immediately.
	if item, ok := c.lookup[ev.ItemID]; ok {
		item.Formatted.Audio = pcm.MergeInt16(item.Formatted.Audio, qs.audio)
		delete(c.queuedSpeech, ev.ItemID)
		return item, &Delta{Audio: qs.audio}
	}
	return nil, nil
}

func (c *Conversation) processOutputItemDone(ev *ServerEvent) (*Item, *Delta) {
	if ev.Item == nil {
		slog.Warn("realtime: output_item.done without item")
		return nil, nil
	}
	item, ok := c.lookup[ev.Item.ID]
	if !ok {
		slog.Warn("realtime: output_item.done for unknown item", "item_id", ev.Item.ID)
		return nil, nil
	}
	item.Status = ev.Item.Status
	return item, nil
}

func (c *Conversation) processItemTruncated(ev *ServerEvent) (*Item, *Delta) {
	item, ok := c.lookup[ev.ItemID]
	if !ok {
		slog.Warn("realtime: item.truncated for unknown item", "item_id", ev.ItemID)
		return nil, nil
	}
	endSamples := pcm.MsToSamples(ev.AudioEndMs)
	if endSamples < len(item.Formatted.Audio) {
		item.Formatted.Audio = item.Formatted.Audio[:endSamples]
	}
	item.Formatted.Transcript = ""
	return item, nil
}

func (c *Conversation) processItemDeleted(ev *ServerEvent) (*Item, *Delta) {
	item, ok := c.lookup[ev.ItemID]
	if !ok {
		slog.Warn("realtime: item.deleted for unknown item", "item_id", ev.ItemID)
		return nil, nil
	}
	delete(c.lookup, ev.ItemID)
	for i, it := range c.items {
		if it == item {
			c.items = append(c.items[:i:i], c.items[i+1:]...)
			break
		}
	}
	return item, nil
}

// stampTranscript writes a completed transcript onto the audio content part
// at index and onto the formatted view. A negative index targets the first
// audio part, used when applying a transcript queued before item creation.
func stampTranscript(item *Item, index int, transcript string) {
	if index < 0 {
		for i := range item.Content {
			if item.Content[i].Type == ContentTypeAudio || item.Content[i].Type == ContentTypeInputAudio {
				index = i
				break
			}
		}
	}
	if index >= 0 && index < len(item.Content) {
		part := &item.Content[index]
		if part.Type == ContentTypeAudio || part.Type == ContentTypeInputAudio {
			part.Transcript = transcript
		}
	}
	item.Formatted.Transcript = transcript
}

// copyItem deep-copies a server-provided item so later mutations never alias
// the decoded event.
func copyItem(src *Item) *Item {
	item := *src
	item.Content = append([]ContentPart(nil), src.Content...)
	return &item
}
