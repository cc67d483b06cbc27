package store

import (
	"context"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/internal/errors"
)

// Store provides database access to all raw objects. It is the sole mutator
// of persisted rows and enforces the repository contract: active-only session
// listing, non-deleted message filtering, ascending-id ordering, idempotent
// soft deletes, and classification of store faults.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// CreateSession inserts a new active session.
func (s *Store) CreateSession(ctx context.Context, name string) (*Session, error) {
	session, err := s.driver.CreateSession(ctx, &Session{
		UID:       shortuuid.New(),
		Name:      name,
		Active:    true,
		CreatedTs: time.Now().Unix(),
	})
	if err != nil {
		return nil, errors.StoreFault("failed to create session", err)
	}
	return session, nil
}

// ListActiveSessions returns sessions with Active == true, in insertion order.
func (s *Store) ListActiveSessions(ctx context.Context) ([]*Session, error) {
	active := true
	sessions, err := s.driver.ListSessions(ctx, &FindSession{Active: &active})
	if err != nil {
		return nil, errors.StoreFault("failed to list sessions", err)
	}
	return sessions, nil
}

// GetSession returns the session with the given id regardless of its active
// flag, or NotFound.
func (s *Store) GetSession(ctx context.Context, id int32) (*Session, error) {
	sessions, err := s.driver.ListSessions(ctx, &FindSession{ID: &id})
	if err != nil {
		return nil, errors.StoreFault("failed to find session", err)
	}
	if len(sessions) == 0 {
		return nil, errors.NotFoundf("session %d not found", id)
	}
	return sessions[0], nil
}

// DeactivateSession soft-deletes a session. Deactivating an already-inactive
// session succeeds, matching message soft-delete semantics.
func (s *Store) DeactivateSession(ctx context.Context, id int32) error {
	session, err := s.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if !session.Active {
		return nil
	}

	active := false
	if _, err := s.driver.UpdateSession(ctx, &UpdateSession{ID: id, Active: &active}); err != nil {
		return errors.StoreFault("failed to deactivate session", err)
	}
	return nil
}

// ListMessages returns the non-deleted messages of a session in ascending id
// order. The session must exist; its active flag is not checked.
func (s *Store) ListMessages(ctx context.Context, sessionID int32) ([]*Message, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	messages, err := s.driver.ListMessages(ctx, &FindMessage{
		SessionID:      &sessionID,
		ExcludeDeleted: true,
	})
	if err != nil {
		return nil, errors.StoreFault("failed to list messages", err)
	}
	return messages, nil
}

// AppendTurn atomically persists a user message and its assistant reply.
// Both-or-neither: a partial persist is a correctness violation.
func (s *Store) AppendTurn(ctx context.Context, sessionID int32, userText, assistantText string) (*Message, *Message, error) {
	now := time.Now().Unix()
	userMsg := &Message{
		UID:           shortuuid.New(),
		SessionID:     sessionID,
		CharacterName: CharacterUser,
		Content:       userText,
		CreatedTs:     now,
	}
	assistantMsg := &Message{
		UID:           shortuuid.New(),
		SessionID:     sessionID,
		CharacterName: CharacterAssistant,
		Content:       assistantText,
		CreatedTs:     now,
	}

	userMsg, assistantMsg, err := s.driver.CreateTurn(ctx, userMsg, assistantMsg)
	if err != nil {
		return nil, nil, errors.StoreFault("failed to append turn", err)
	}
	return userMsg, assistantMsg, nil
}

// SoftDeleteMessage marks a message deleted. Deleting an already-deleted
// message is a no-op that reports success; an absent id is NotFound.
func (s *Store) SoftDeleteMessage(ctx context.Context, id int32) error {
	messages, err := s.driver.ListMessages(ctx, &FindMessage{ID: &id})
	if err != nil {
		return errors.StoreFault("failed to find message", err)
	}
	if len(messages) == 0 {
		return errors.NotFoundf("message %d not found", id)
	}
	if messages[0].IsDeleted {
		return nil
	}

	deleted := true
	if _, err := s.driver.UpdateMessage(ctx, &UpdateMessage{ID: id, IsDeleted: &deleted}); err != nil {
		return errors.StoreFault("failed to delete message", err)
	}
	return nil
}
