package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/converse/internal/errors"
)

const completionBody = `{
	"id": "chatcmpl-test",
	"object": "chat.completion",
	"model": "test-model",
	"choices": [
		{"index": 0, "message": {"role": "assistant", "content": "world"}, "finish_reason": "stop"}
	]
}`

// fakeUpstream runs an OpenAI-compatible endpoint that captures the request
// payload and serves a canned completion.
func fakeUpstream(t *testing.T, handler http.HandlerFunc) (*httptest.Server, CompletionService, *Config) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := &Config{
		BaseURL:   server.URL + "/v1",
		APIKey:    "test-key",
		ChatModel: "test-model",
	}
	svc, err := NewCompletionService(cfg)
	require.NoError(t, err)
	return server, svc, cfg
}

func TestCompleteOmitsUnsetParameters(t *testing.T) {
	var payload map[string]any
	_, svc, _ := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})

	reply, err := svc.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)
	assert.Equal(t, "world", reply)

	assert.Equal(t, "test-model", payload["model"])
	assert.Len(t, payload["messages"], 1)
	for _, key := range []string{"temperature", "max_tokens", "top_p", "frequency_penalty", "presence_penalty"} {
		assert.NotContains(t, payload, key)
	}
}

func TestCompleteSendsConfiguredParameters(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	t.Cleanup(server.Close)

	temperature := float32(0.2)
	maxTokens := 128
	topP := float32(0.9)
	svc, err := NewCompletionService(&Config{
		BaseURL:     server.URL + "/v1",
		APIKey:      "test-key",
		ChatModel:   "test-model",
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
		TopP:        &topP,
	})
	require.NoError(t, err)

	_, err = svc.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.NoError(t, err)

	assert.InDelta(t, 0.2, payload["temperature"], 0.001)
	assert.EqualValues(t, 128, payload["max_tokens"])
	assert.InDelta(t, 0.9, payload["top_p"], 0.001)
	assert.NotContains(t, payload, "frequency_penalty")
	assert.NotContains(t, payload, "presence_penalty")
}

func TestCompleteProtocolError(t *testing.T) {
	_, svc, _ := fakeUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "rate limited", "type": "rate_limit_error"}}`))
	})

	_, err := svc.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUpstreamProtocol))
	assert.Contains(t, err.Error(), "429")
}

func TestCompleteDecodeError(t *testing.T) {
	_, svc, _ := fakeUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	})

	_, err := svc.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUpstreamDecode))
}

func TestCompleteTransportError(t *testing.T) {
	server, svc, _ := fakeUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})
	server.Close()

	_, err := svc.Complete(context.Background(), []Message{{Role: RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUpstreamTransport))
}

func TestCompleteTimeout(t *testing.T) {
	_, svc, _ := fakeUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := svc.Complete(ctx, []Message{{Role: RoleUser, Content: "hello"}})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeUpstreamTransport))
}

func TestNewCompletionServiceRequiresModel(t *testing.T) {
	_, err := NewCompletionService(&Config{APIKey: "test-key"})
	require.Error(t, err)
}
