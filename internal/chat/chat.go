// Package chat runs the conversational assistant: one session per user,
// persisted history, and Gemini-backed replies grounded in the user's
// transaction data.
package chat

import (
	"errors"
	"time"
)

var (
	ErrNotFound     = errors.New("session not found")
	ErrEmptyMessage = errors.New("message content is empty")
	ErrBadRole      = errors.New("unknown message role")
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

type Session struct {
	ID        string
	UserID    int64
	Name      string
	CreatedAt time.Time
}

type Message struct {
	ID        int64
	SessionID string
	Role      Role
	Content   string
	CreatedAt time.Time
}
