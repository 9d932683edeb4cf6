package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Turn roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one entry of the conversation transcript.
type Turn struct {
	ID        string
	Role      string
	Text      string
	Agent     string
	StreamID  string
	Streaming bool
	Timestamp time.Time

	// SuggestedActions are follow-ups offered with an assistant reply.
	SuggestedActions []SuggestedAction
}

// HistoryPair is one stored request/response exchange as returned by the
// history endpoint.
type HistoryPair struct {
	ID            string
	UserText      string
	AssistantText string
	Agent         string
	Timestamp     time.Time
}

// Transcript reconciles the ordered turn sequence from history loads,
// complete replies, and streamed deltas. It is not safe for concurrent use;
// the owner serializes access.
type Transcript struct {
	turns  []Turn
	typing bool
	actor  string
}

// NewTranscript returns an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Turns returns a copy of the current turn sequence.
func (t *Transcript) Turns() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}

// Typing reports whether an actor is currently typing, and which one.
func (t *Transcript) Typing() (string, bool) {
	return t.actor, t.typing
}

// SetTyping records the typing indicator state.
func (t *Transcript) SetTyping(actor string, typing bool) {
	t.actor = actor
	t.typing = typing
}

// Clear drops all turns and the typing state.
func (t *Transcript) Clear() {
	t.turns = nil
	t.typing = false
	t.actor = ""
}

// ApplyHistory replaces the transcript wholesale from stored exchanges.
// Each pair expands to up to two turns; empty sides are skipped.
func (t *Transcript) ApplyHistory(pairs []HistoryPair) {
	turns := make([]Turn, 0, len(pairs)*2)
	for _, p := range pairs {
		if p.UserText != "" {
			turns = append(turns, Turn{
				ID:        p.ID + ":user",
				Role:      RoleUser,
				Text:      p.UserText,
				Timestamp: p.Timestamp,
			})
		}
		if p.AssistantText != "" {
			turns = append(turns, Turn{
				ID:        p.ID + ":assistant",
				Role:      RoleAssistant,
				Text:      p.AssistantText,
				Agent:     p.Agent,
				Timestamp: p.Timestamp,
			})
		}
	}
	t.turns = turns
}

// AppendUserTurn echoes a sent message locally. The echo is optimistic and
// never rolled back; a failed send surfaces as an error, not a retraction.
func (t *Transcript) AppendUserTurn(text string) Turn {
	turn := Turn{
		ID:        uuid.NewString(),
		Role:      RoleUser,
		Text:      text,
		Timestamp: time.Now(),
	}
	t.turns = append(t.turns, turn)
	return turn
}

// ApplyResponse records a complete assistant reply. A reply carrying the
// stream id of an existing turn replaces that turn's text in place, so a
// duplicate delivery after a stream is idempotent. Any reply clears the
// typing indicator.
func (t *Transcript) ApplyResponse(payload ResponsePayload, streamID string) {
	t.typing = false
	t.actor = ""

	if streamID != "" {
		if i := t.indexOfStream(streamID); i >= 0 {
			t.turns[i].Text = payload.Message
			t.turns[i].Agent = payload.Agent
			t.turns[i].Streaming = false
			t.turns[i].SuggestedActions = payload.SuggestedActions
			return
		}
	}

	id := streamID
	if id == "" {
		id = uuid.NewString()
	}
	t.turns = append(t.turns, Turn{
		ID:               id,
		Role:             RoleAssistant,
		Text:             payload.Message,
		Agent:            payload.Agent,
		StreamID:         streamID,
		Timestamp:        time.Now(),
		SuggestedActions: payload.SuggestedActions,
	})
}

// ApplyStreamStart opens a streamed assistant turn. A repeated start for a
// known stream id is a no-op.
func (t *Transcript) ApplyStreamStart(streamID, agent string) {
	if t.indexOfStream(streamID) >= 0 {
		return
	}
	t.turns = append(t.turns, Turn{
		ID:        streamID,
		Role:      RoleAssistant,
		Agent:     agent,
		StreamID:  streamID,
		Streaming: true,
		Timestamp: time.Now(),
	})
}

// ApplyStreamDelta appends a text increment to an open streamed turn.
// Deltas for unknown stream ids are dropped; a start frame must precede.
func (t *Transcript) ApplyStreamDelta(streamID, delta string) {
	if i := t.indexOfStream(streamID); i >= 0 {
		t.turns[i].Text += delta
	}
}

// ApplyStreamEnd finalizes a streamed turn, trimming trailing whitespace.
func (t *Transcript) ApplyStreamEnd(streamID string) {
	if i := t.indexOfStream(streamID); i >= 0 {
		t.turns[i].Text = strings.TrimRight(t.turns[i].Text, " \t\r\n")
		t.turns[i].Streaming = false
	}
}

func (t *Transcript) indexOfStream(streamID string) int {
	for i := range t.turns {
		if t.turns[i].StreamID == streamID && t.turns[i].StreamID != "" {
			return i
		}
	}
	return -1
}
