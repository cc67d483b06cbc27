package ai

import (
	"context"
	"sync"
)

// MockCompletionService is a scripted CompletionService for tests.
type MockCompletionService struct {
	mu sync.Mutex

	// Reply is returned on success.
	Reply string
	// Err, when set, is returned instead of a reply.
	Err error
	// CompleteFunc, when set, overrides Reply/Err.
	CompleteFunc func(ctx context.Context, messages []Message) (string, error)

	// Calls records every history the mock was invoked with.
	Calls [][]Message
}

var _ CompletionService = (*MockCompletionService)(nil)

func (m *MockCompletionService) Complete(ctx context.Context, messages []Message) (string, error) {
	m.mu.Lock()
	history := make([]Message, len(messages))
	copy(history, messages)
	m.Calls = append(m.Calls, history)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, messages)
	}
	if m.Err != nil {
		return "", m.Err
	}
	return m.Reply, nil
}

// CallCount returns how many times Complete was invoked.
func (m *MockCompletionService) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// LastCall returns the most recent history, or nil when never called.
func (m *MockCompletionService) LastCall() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Calls) == 0 {
		return nil
	}
	return m.Calls[len(m.Calls)-1]
}
