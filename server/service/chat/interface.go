package chat

import (
	"context"

	"github.com/hrygo/converse/store"
)

// TurnResult is the outcome of one chat turn: the persisted user message,
// its persisted assistant reply, and the reply text.
type TurnResult struct {
	UserMessage      *store.Message
	AssistantMessage *store.Message
	Reply            string
	CharacterName    string
}

// Service orchestrates chat turns against the completion API. It holds no
// persistent state between turns; each turn re-reads history from the store.
type Service interface {
	// SendMessage runs one chat turn: load history, call the completion
	// API, persist the user message and the reply atomically. On any
	// completion failure nothing is persisted.
	SendMessage(ctx context.Context, sessionID int32, userText string) (*TurnResult, error)
}
