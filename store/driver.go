package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// Session model related methods.
	CreateSession(ctx context.Context, create *Session) (*Session, error)
	ListSessions(ctx context.Context, find *FindSession) ([]*Session, error)
	UpdateSession(ctx context.Context, update *UpdateSession) (*Session, error)

	// Message model related methods.
	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)
	UpdateMessage(ctx context.Context, update *UpdateMessage) (*Message, error)

	// CreateTurn inserts the user message and then the assistant message
	// inside one transaction. The user row is inserted first so that
	// ordering-by-id preserves turn order. If either insert fails, neither
	// is committed.
	CreateTurn(ctx context.Context, userMsg *Message, assistantMsg *Message) (*Message, *Message, error)
}
