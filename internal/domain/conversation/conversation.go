// Package conversation defines agent transcripts and their message variants.
//
// A transcript message is one of four variants (user message, assistant
// message, tool call, tool result), modeled as a closed interface so each
// variant carries only its own fields. The wire shape is the flat
// {id, type, ...} object used by the external API; see message.go for the
// codec.
package conversation

// Conversation is the transcript for one agent. Its ID equals the owning
// agent's ID. Messages are in insertion order, which is chronological
// order; they are never reordered.
type Conversation struct {
	ID       string
	Messages []Message
}

// Clone returns a deep-enough copy: the message slice is copied so callers
// can hold the result without observing later appends. Message values are
// immutable by convention.
func (c *Conversation) Clone() *Conversation {
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	return &Conversation{ID: c.ID, Messages: msgs}
}
