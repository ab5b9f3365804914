package chat

import (
	"strings"
	"sync"
)

// Role identifies the author of a message.
type Role string

const (
	// RoleUser marks a message written by the user.
	RoleUser Role = "user"
	// RoleAssistant marks a message written by the assistant.
	RoleAssistant Role = "assistant"
)

// Message is one entry in a conversation log. Immutable once appended.
type Message struct {
	Role    Role
	Content string
}

// DefaultSlideWindow is how many trailing messages are carried into prompts.
const DefaultSlideWindow = 7

// Conversation owns an ordered message log. A single turn handler appends;
// Reset may race an in-flight turn, which keeps reading the snapshot it took.
type Conversation struct {
	mu       sync.Mutex
	messages []Message
}

// NewConversation creates an empty conversation.
func NewConversation() *Conversation {
	return &Conversation{}
}

// Append adds a message to the end of the log.
func (c *Conversation) Append(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

// Len returns the number of messages in the log.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// Messages returns a snapshot copy of the full log in conversation order.
func (c *Conversation) Messages() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Window returns the last n messages, excluding the most recent message when
// it is a not-yet-answered user entry. The result is a snapshot; later
// appends or resets do not affect it.
func (c *Conversation) Window(n int) []Message {
	msgs := c.Messages()

	if len(msgs) > 0 && msgs[len(msgs)-1].Role == RoleUser {
		msgs = msgs[:len(msgs)-1]
	}
	if n >= 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	return msgs
}

// Reset atomically discards all messages.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = nil
}

// Export serializes the log as "{role}: {content}\n" per message, in
// conversation order. This format is stable; downloads depend on it.
func (c *Conversation) Export() string {
	msgs := c.Messages()

	var b strings.Builder
	for _, m := range msgs {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return b.String()
}
