// Package session persists per-session conversation history for the agent.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Store persists conversation history keyed by session id. Session ids are
// caller supplied opaque strings.
type Store interface {
	// Append adds messages to the end of a session's history, creating the
	// session if needed.
	Append(ctx context.Context, sessionID string, msgs ...Message) error

	// History returns a session's messages in append order. Unknown
	// sessions return an empty history, not an error.
	History(ctx context.Context, sessionID string) ([]Message, error)

	// Clear drops a session's history.
	Clear(ctx context.Context, sessionID string) error

	// List returns the ids of all stored sessions.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// Backends supported by Open.
const (
	BackendFile   = "file"
	BackendBadger = "badger"
)

// Options configures a session store.
type Options struct {
	// Dir is the storage directory.
	Dir string

	// MaxSessions caps how many sessions the file backend keeps; the
	// oldest are evicted on open. Zero means unlimited.
	MaxSessions int

	// TTL expires sessions untouched for this long. Zero disables expiry.
	TTL time.Duration

	// GCInterval is how often the badger backend runs value log GC. Zero
	// disables the background GC.
	GCInterval time.Duration
}

// Open creates a store for the configured backend.
func Open(backend string, opts Options) (Store, error) {
	switch backend {
	case BackendFile, "":
		return NewFileStore(opts)
	case BackendBadger:
		return NewBadgerStore(opts)
	default:
		return nil, fmt.Errorf("unknown sessions backend: %s", backend)
	}
}

// NewSessionID returns a fresh random session id.
func NewSessionID() string {
	return uuid.New().String()
}
