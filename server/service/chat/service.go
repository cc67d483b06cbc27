package chat

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hrygo/converse/plugin/ai"
	"github.com/hrygo/converse/internal/errors"
	"github.com/hrygo/converse/server/internal/observability"
	"github.com/hrygo/converse/store"
)

type service struct {
	store   *store.Store
	llm     ai.CompletionService
	timeout time.Duration

	// Per-session turn serialization. Two concurrent turns on one session
	// would otherwise interleave their history reads and race on the
	// completion call. Lock entries are retained for the life of the
	// process.
	mu           sync.Mutex
	sessionLocks map[int32]*sync.Mutex
}

// NewService creates a new chat service. The timeout bounds a single
// completion round-trip; everything else runs under the caller's context.
func NewService(store *store.Store, llm ai.CompletionService, timeout time.Duration) Service {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &service{
		store:        store,
		llm:          llm,
		timeout:      timeout,
		sessionLocks: make(map[int32]*sync.Mutex),
	}
}

func (s *service) lockSession(sessionID int32) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.sessionLocks[sessionID]
	if !ok {
		lock = &sync.Mutex{}
		s.sessionLocks[sessionID] = lock
	}
	return lock
}

func (s *service) SendMessage(ctx context.Context, sessionID int32, userText string) (*TurnResult, error) {
	if strings.TrimSpace(userText) == "" {
		return nil, errors.InvalidArgument("user message is required")
	}

	lock := s.lockSession(sessionID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()

	// The session must exist; its active flag is not re-checked here.
	if _, err := s.store.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	messages, err := s.store.ListMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	history := make([]ai.Message, 0, len(messages)+1)
	for _, msg := range messages {
		history = append(history, ai.Message{
			Role:    completionRole(msg.CharacterName),
			Content: msg.Content,
		})
	}
	// The pending user turn closes the history; it is not persisted until
	// the completion call succeeds.
	history = append(history, ai.Message{Role: ai.RoleUser, Content: userText})

	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	callStart := time.Now()
	reply, err := s.llm.Complete(cctx, history)
	observability.GlobalMetrics().RecordCompletion(time.Since(callStart), err)
	if err != nil {
		slog.Error("chat turn failed before persistence",
			slog.Int64("session_id", int64(sessionID)),
			slog.Int("history_count", len(history)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	userMsg, assistantMsg, err := s.store.AppendTurn(ctx, sessionID, userText, reply)
	if err != nil {
		return nil, err
	}

	slog.Info("chat turn completed",
		slog.Int64("session_id", int64(sessionID)),
		slog.Int64("user_message_id", int64(userMsg.ID)),
		slog.Int64("assistant_message_id", int64(assistantMsg.ID)),
		slog.Int64("duration_ms", time.Since(start).Milliseconds()),
	)

	return &TurnResult{
		UserMessage:      userMsg,
		AssistantMessage: assistantMsg,
		Reply:            reply,
		CharacterName:    store.CharacterAssistant,
	}, nil
}

// completionRole maps a persisted character name onto a completion API role.
// Assistant replies keep the assistant role; every other character name is
// treated as the user speaking.
func completionRole(characterName string) string {
	if characterName == store.CharacterAssistant {
		return ai.RoleAssistant
	}
	return ai.RoleUser
}
