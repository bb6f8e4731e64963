package conversation

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Wire values for the message "type" discriminator.
const (
	TypeUserMessage      = "user_message"
	TypeAssistantMessage = "assistant_message"
	TypeToolCall         = "tool_call"
	TypeToolResult       = "tool_result"
)

// Message is one transcript entry. The interface is closed: the only
// implementations are the four variant types in this package.
type Message interface {
	// MessageID returns the entry's unique id within its conversation.
	MessageID() string
	// Render returns the transcript line used for summarization, or an
	// empty string when the variant has no textual content.
	Render() string

	wireType() string
}

// UserMessage is an instruction from the user.
type UserMessage struct {
	ID   string
	Text string
}

// AssistantMessage is a reply from the agent.
type AssistantMessage struct {
	ID   string
	Text string
}

// ToolCall records the agent invoking a tool.
type ToolCall struct {
	ID       string
	ToolName string
	Input    map[string]any
}

// ToolResult records a tool's output.
type ToolResult struct {
	ID     string
	Result string
}

func (m UserMessage) MessageID() string      { return m.ID }
func (m AssistantMessage) MessageID() string { return m.ID }
func (m ToolCall) MessageID() string         { return m.ID }
func (m ToolResult) MessageID() string       { return m.ID }

func (m UserMessage) wireType() string      { return TypeUserMessage }
func (m AssistantMessage) wireType() string { return TypeAssistantMessage }
func (m ToolCall) wireType() string         { return TypeToolCall }
func (m ToolResult) wireType() string       { return TypeToolResult }

func (m UserMessage) Render() string {
	if strings.TrimSpace(m.Text) == "" {
		return ""
	}
	return "User: " + m.Text
}

func (m AssistantMessage) Render() string {
	if strings.TrimSpace(m.Text) == "" {
		return ""
	}
	return "Agent: " + m.Text
}

func (m ToolCall) Render() string {
	input := m.Input
	if input == nil {
		input = map[string]any{}
	}
	data, err := json.Marshal(input)
	if err != nil {
		data = []byte("{}")
	}
	return fmt.Sprintf("Tool Call: %s - %s", m.ToolName, data)
}

func (m ToolResult) Render() string { return "Tool Result: " + m.Result }

// wireMessage is the flat JSON shape shared by all variants.
type wireMessage struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Text       string         `json:"text,omitempty"`
	ToolName   string         `json:"toolName,omitempty"`
	ToolInput  map[string]any `json:"toolInput,omitempty"`
	ToolResult string         `json:"toolResult,omitempty"`
}

func toWire(m Message) wireMessage {
	w := wireMessage{ID: m.MessageID(), Type: m.wireType()}
	switch v := m.(type) {
	case UserMessage:
		w.Text = v.Text
	case AssistantMessage:
		w.Text = v.Text
	case ToolCall:
		w.ToolName = v.ToolName
		w.ToolInput = v.Input
	case ToolResult:
		w.ToolResult = v.Result
	}
	return w
}

func fromWire(w wireMessage) (Message, error) {
	switch w.Type {
	case TypeUserMessage:
		return UserMessage{ID: w.ID, Text: w.Text}, nil
	case TypeAssistantMessage:
		return AssistantMessage{ID: w.ID, Text: w.Text}, nil
	case TypeToolCall:
		return ToolCall{ID: w.ID, ToolName: w.ToolName, Input: w.ToolInput}, nil
	case TypeToolResult:
		return ToolResult{ID: w.ID, Result: w.ToolResult}, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", w.Type)
	}
}

// MarshalJSON encodes the conversation in the external API's wire shape.
func (c Conversation) MarshalJSON() ([]byte, error) {
	msgs := make([]wireMessage, len(c.Messages))
	for i, m := range c.Messages {
		msgs[i] = toWire(m)
	}
	return json.Marshal(struct {
		ID       string        `json:"id"`
		Messages []wireMessage `json:"messages"`
	}{ID: c.ID, Messages: msgs})
}

// UnmarshalJSON decodes a conversation from the wire shape. Messages with
// an unknown type are rejected.
func (c *Conversation) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID       string        `json:"id"`
		Messages []wireMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	msgs := make([]Message, 0, len(raw.Messages))
	for _, w := range raw.Messages {
		m, err := fromWire(w)
		if err != nil {
			return fmt.Errorf("message %s: %w", w.ID, err)
		}
		msgs = append(msgs, m)
	}

	c.ID = raw.ID
	c.Messages = msgs
	return nil
}

// Transcript flattens the conversation into the text block handed to the
// summarizer: one rendered line per message, blank-line separated, with
// content-free entries skipped.
func (c *Conversation) Transcript() string {
	lines := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		if line := m.Render(); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n\n")
}
