// Package model defines the core conversation and calendar data types.
package model

import "time"

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ContextWindow is the number of prior turns sent with each completion call.
const ContextWindow = 6

// ValidRoles are the roles accepted in a stored conversation.
var ValidRoles = map[Role]bool{
	RoleUser:      true,
	RoleAssistant: true,
	RoleSystem:    true,
}

// Turn is a single message in a conversation.
type Turn struct {
	ID        string    `json:"id,omitempty"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Conversation is an ordered, append-only log of turns for one session.
// Append never touches the receiver, so a Conversation can be passed around
// by value and shared freely.
type Conversation struct {
	Session string
	turns   []Turn
}

// NewConversation builds a conversation from already-ordered turns.
func NewConversation(session string, turns []Turn) Conversation {
	cp := make([]Turn, len(turns))
	copy(cp, turns)
	return Conversation{Session: session, turns: cp}
}

// Append returns a new conversation with the given turns added at the end.
func (c Conversation) Append(turns ...Turn) Conversation {
	next := make([]Turn, 0, len(c.turns)+len(turns))
	next = append(next, c.turns...)
	next = append(next, turns...)
	return Conversation{Session: c.Session, turns: next}
}

// Turns returns a copy of every turn, oldest first.
func (c Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// Len returns the number of turns.
func (c Conversation) Len() int { return len(c.turns) }

// Window returns the last n turns, oldest first.
func (c Conversation) Window(n int) []Turn {
	return LastTurns(c.turns, n)
}

// LastTurns returns a copy of the last n entries of turns, oldest first.
func LastTurns(turns []Turn, n int) []Turn {
	if n <= 0 {
		return []Turn{}
	}
	start := len(turns) - n
	if start < 0 {
		start = 0
	}
	out := make([]Turn, len(turns)-start)
	copy(out, turns[start:])
	return out
}

// Message is the wire form of a turn in a completion request.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the body of a chat-completion call.
type CompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}
