package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/plugin/ai"
	"github.com/hrygo/converse/internal/errors"
	"github.com/hrygo/converse/server/service/chat"
	"github.com/hrygo/converse/store"
	storetest "github.com/hrygo/converse/store/test"
)

func newTestServer(ctx context.Context, t *testing.T, mock *ai.MockCompletionService) (*echo.Echo, *store.Store) {
	ts := storetest.NewTestingStore(ctx, t)
	chatService := chat.NewService(ts, mock, 5*time.Second)

	e := echo.New()
	NewAPIV1Service(&profile.Profile{Mode: "dev", Version: "test"}, ts, chatService).RegisterRoutes(e)
	return e, ts
}

func doJSON(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	e, _ := newTestServer(context.Background(), t, &ai.MockCompletionService{})

	rec := doJSON(e, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test", body["version"])
}

func TestSessionLifecycle(t *testing.T) {
	e, _ := newTestServer(context.Background(), t, &ai.MockCompletionService{})

	rec := doJSON(e, http.MethodPost, "/api/v1/sessions", `{"name": "my chat"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)
	assert.Equal(t, "my chat", created["session_name"])
	sessionID := int(created["session_id"].(float64))
	require.NotZero(t, sessionID)

	rec = doJSON(e, http.MethodGet, "/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decodeBody(t, rec)
	require.Len(t, listed["sessions"], 1)

	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/v1/sessions/%d", sessionID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodGet, "/api/v1/sessions", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed = decodeBody(t, rec)
	assert.Empty(t, listed["sessions"])

	// Deleting again is still a success.
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/v1/sessions/%d", sessionID), "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDeleteSessionNotFound(t *testing.T) {
	e, _ := newTestServer(context.Background(), t, &ai.MockCompletionService{})

	rec := doJSON(e, http.MethodDelete, "/api/v1/sessions/4242", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "resource not found", body["message"])
}

func TestDeleteSessionBadID(t *testing.T) {
	e, _ := newTestServer(context.Background(), t, &ai.MockCompletionService{})

	rec := doJSON(e, http.MethodDelete, "/api/v1/sessions/abc", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatTurn(t *testing.T) {
	ctx := context.Background()
	e, ts := newTestServer(ctx, t, &ai.MockCompletionService{Reply: "world"})

	session, err := ts.CreateSession(ctx, "chatting")
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/v1/chat",
		fmt.Sprintf(`{"session_id": %d, "user_message": "hello"}`, session.ID))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "world", body["response"])
	assert.Equal(t, store.CharacterAssistant, body["character_name"])
	assert.Less(t, body["user_message_id"].(float64), body["ai_message_id"].(float64))

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%d/messages", session.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeBody(t, rec)["messages"].([]any)
	require.Len(t, messages, 2)
	first := messages[0].(map[string]any)
	assert.Equal(t, store.CharacterUser, first["character_name"])
	assert.Equal(t, "hello", first["message"])
}

func TestChatValidation(t *testing.T) {
	ctx := context.Background()
	e, ts := newTestServer(ctx, t, &ai.MockCompletionService{Reply: "unused"})

	session, err := ts.CreateSession(ctx, "validating")
	require.NoError(t, err)

	rec := doJSON(e, http.MethodPost, "/api/v1/chat", `{"user_message": "hello"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/chat",
		fmt.Sprintf(`{"session_id": %d, "user_message": ""}`, session.ID))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/chat", `{"session_id": 4242, "user_message": "hello"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChatUpstreamStatusMapping(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"protocol", errors.UpstreamProtocol(500, "boom", nil), http.StatusBadGateway},
		{"decode", errors.UpstreamDecode("no choices"), http.StatusBadGateway},
		{"transport", errors.UpstreamTransport("unreachable", nil), http.StatusGatewayTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e, ts := newTestServer(ctx, t, &ai.MockCompletionService{Err: tc.err})
			session, err := ts.CreateSession(ctx, "failing")
			require.NoError(t, err)

			rec := doJSON(e, http.MethodPost, "/api/v1/chat",
				fmt.Sprintf(`{"session_id": %d, "user_message": "hello"}`, session.ID))
			assert.Equal(t, tc.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "completion API call failed", body["message"])
		})
	}
}

func TestDeleteMessage(t *testing.T) {
	ctx := context.Background()
	e, ts := newTestServer(ctx, t, &ai.MockCompletionService{})

	session, err := ts.CreateSession(ctx, "pruning")
	require.NoError(t, err)
	userMsg, _, err := ts.AppendTurn(ctx, session.ID, "hello", "world")
	require.NoError(t, err)

	rec := doJSON(e, http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d", userMsg.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	// Idempotent.
	rec = doJSON(e, http.MethodDelete, fmt.Sprintf("/api/v1/messages/%d", userMsg.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(e, http.MethodDelete, "/api/v1/messages/4242", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(e, http.MethodGet, fmt.Sprintf("/api/v1/sessions/%d/messages", session.ID), "")
	require.Equal(t, http.StatusOK, rec.Code)
	messages := decodeBody(t, rec)["messages"].([]any)
	assert.Len(t, messages, 1)
}

func TestListMessagesSessionNotFound(t *testing.T) {
	e, _ := newTestServer(context.Background(), t, &ai.MockCompletionService{})

	rec := doJSON(e, http.MethodGet, "/api/v1/sessions/4242/messages", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	e, _ := newTestServer(context.Background(), t, &ai.MockCompletionService{})

	rec := doJSON(e, http.MethodGet, "/api/v1/sessions", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil)
	req.Header.Set(echo.HeaderXRequestID, "fixed-id")
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(echo.HeaderXRequestID))
}
