package widget

import (
	"strings"
	"time"

	"LLMChatbot/internal/chatlog"
)

// FallbackReply is emitted to the host when an attempt fails, so the host
// always receives some output for a completed attempt.
const FallbackReply = "Sorry, I encountered an error processing your request."

// Config is what the host hands to the widget on every update
type Config struct {
	Credential string
	Input      string
}

// Exchange is one outbound completion request
type Exchange struct {
	ID         uint64
	Credential string
	Messages   []chatlog.WireMessage
}

// Conversation is the message-exchange state machine. It performs no I/O:
// Observe decides whether a request must be issued and Complete applies
// its result. Not safe for concurrent use; the owner serializes calls.
type Conversation struct {
	log   chatlog.Log
	state State

	observed    Config
	hasObserved bool
	deferred    bool

	nextID   uint64
	inflight uint64

	now func() time.Time
}

// NewConversation creates an empty conversation in the Idle state
func NewConversation() *Conversation {
	return &Conversation{
		state: Idle{},
		now:   time.Now,
	}
}

// Observe records the latest host configuration. It returns an exchange to
// send when the configuration carries a new, sendable input.
func (c *Conversation) Observe(cfg Config) (Exchange, bool) {
	if c.hasObserved && cfg == c.observed {
		return Exchange{}, false
	}
	c.observed = cfg
	c.hasObserved = true
	return c.evaluate()
}

// Complete applies the result of the in-flight exchange and returns the text
// for the host output channel. Results for any other exchange are dropped.
func (c *Conversation) Complete(ex Exchange, reply string, err error) (string, bool) {
	if _, ok := c.state.(Sending); !ok || ex.ID != c.inflight {
		return "", false
	}
	c.inflight = 0

	if err != nil {
		c.state = Errored{Message: err.Error(), Err: err}
		return FallbackReply, true
	}

	// Roles are constants here, Append cannot fail.
	_ = c.log.Append(chatlog.Message{
		Role:      chatlog.RoleAssistant,
		Content:   reply,
		Timestamp: c.now(),
	})
	c.state = Idle{}
	return reply, true
}

// Resume re-evaluates an observation that arrived while a request was in
// flight. Call it after Complete.
func (c *Conversation) Resume() (Exchange, bool) {
	if !c.deferred {
		return Exchange{}, false
	}
	c.deferred = false
	return c.evaluate()
}

func (c *Conversation) evaluate() (Exchange, bool) {
	input := c.observed.Input
	if strings.TrimSpace(input) == "" {
		return Exchange{}, false
	}

	if _, ok := c.state.(Sending); ok {
		c.deferred = true
		return Exchange{}, false
	}

	if c.observed.Credential == "" {
		err := &ConfigurationError{}
		c.state = Errored{Message: err.Error(), Err: err}
		return Exchange{}, false
	}

	if last, ok := c.log.Last(); ok && last.Role == chatlog.RoleUser && last.Content == input {
		return Exchange{}, false
	}

	_ = c.log.Append(chatlog.Message{
		Role:      chatlog.RoleUser,
		Content:   input,
		Timestamp: c.now(),
	})
	c.nextID++
	c.inflight = c.nextID
	c.state = Sending{}

	return Exchange{
		ID:         c.inflight,
		Credential: c.observed.Credential,
		Messages:   c.log.Wire(),
	}, true
}

// State returns the current exchange state
func (c *Conversation) State() State {
	return c.state
}

// Pending reports whether a request is in flight
func (c *Conversation) Pending() bool {
	_, ok := c.state.(Sending)
	return ok
}

// LastError returns the failure text of the last attempt, or ""
func (c *Conversation) LastError() string {
	if e, ok := c.state.(Errored); ok {
		return e.Message
	}
	return ""
}

// Messages returns a copy of the conversation log
func (c *Conversation) Messages() []chatlog.Message {
	return c.log.Messages()
}

// Len returns the number of logged messages
func (c *Conversation) Len() int {
	return c.log.Len()
}
