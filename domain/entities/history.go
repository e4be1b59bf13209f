package entities

// MaxHistoryMessages bounds the conversation history passed to the language
// model. The system prompt is prepended at generation time and never counts
// toward this limit.
const MaxHistoryMessages = 8

// History is the ordered conversation history of a single session, excluding
// the system prompt. It is owned by exactly one session and mutated only by
// the turn controller.
type History struct {
	messages []Message
}

// NewHistory creates an empty conversation history.
func NewHistory() *History {
	return &History{messages: make([]Message, 0, MaxHistoryMessages)}
}

// AppendUser appends a user message at the end of the history.
func (h *History) AppendUser(content string) {
	h.messages = append(h.messages, Message{Role: RoleUser, Content: content})
}

// AppendAssistant appends an assistant message at the end of the history and
// trims to the bounded window. Every assistant append is followed by a trim,
// so the history never exceeds MaxHistoryMessages between turns.
func (h *History) AppendAssistant(content string) {
	h.messages = append(h.messages, Message{Role: RoleAssistant, Content: content})
	h.Trim()
}

// Trim drops the oldest messages until at most MaxHistoryMessages remain,
// preserving the relative order of the survivors. Trimming an already bounded
// history is a no-op.
func (h *History) Trim() {
	if len(h.messages) <= MaxHistoryMessages {
		return
	}
	kept := h.messages[len(h.messages)-MaxHistoryMessages:]
	h.messages = append(make([]Message, 0, MaxHistoryMessages), kept...)
}

// Len returns the number of messages currently retained.
func (h *History) Len() int {
	return len(h.messages)
}

// Snapshot returns a read-only ordered copy of the history for display or for
// building a generation request. Mutating the returned slice does not affect
// the history.
func (h *History) Snapshot() []Message {
	out := make([]Message, len(h.messages))
	copy(out, h.messages)
	return out
}
