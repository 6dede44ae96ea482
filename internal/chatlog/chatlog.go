package chatlog

import (
	"fmt"
	"time"
)

// Role identifies who authored a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether r is one of the known roles
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message represents a single chat message
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// WireMessage is a message as sent to the completion API (no timestamp)
type WireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Log is the ordered, append-only conversation log. Oldest entry first.
// The zero value is an empty log ready to use.
type Log struct {
	messages []Message
}

// Append adds a message to the end of the log
func (l *Log) Append(msg Message) error {
	if !msg.Role.Valid() {
		return fmt.Errorf("invalid role %q", msg.Role)
	}
	l.messages = append(l.messages, msg)
	return nil
}

// Len returns the number of messages in the log
func (l *Log) Len() int {
	return len(l.messages)
}

// Last returns the newest message, if any
func (l *Log) Last() (Message, bool) {
	if len(l.messages) == 0 {
		return Message{}, false
	}
	return l.messages[len(l.messages)-1], true
}

// Messages returns a copy of the log contents
func (l *Log) Messages() []Message {
	out := make([]Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// Wire returns the log as role/content pairs for the completion request
func (l *Log) Wire() []WireMessage {
	out := make([]WireMessage, len(l.messages))
	for i, msg := range l.messages {
		out[i] = WireMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
	}
	return out
}
