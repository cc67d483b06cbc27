package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/converse/internal/errors"
	"github.com/hrygo/converse/server/internal/observability"
)

type chatRequest struct {
	SessionID   int32  `json:"session_id"`
	UserMessage string `json:"user_message"`
}

type messagePayload struct {
	ID            int32  `json:"id"`
	CharacterName string `json:"character_name"`
	Message       string `json:"message"`
}

// ListMessages returns the non-deleted messages of a session in id order.
// GET /api/v1/sessions/:id/messages
func (s *APIV1Service) ListMessages(c echo.Context) error {
	reqCtx := requestContext(c, "list_messages")

	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	messages, err := s.Store.ListMessages(c.Request().Context(), sessionID)
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	payload := make([]messagePayload, 0, len(messages))
	for _, message := range messages {
		payload = append(payload, messagePayload{
			ID:            message.ID,
			CharacterName: message.CharacterName,
			Message:       message.Content,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":  "messages listed",
		"messages": payload,
	})
}

// Chat runs one chat turn against the completion API.
// POST /api/v1/chat
func (s *APIV1Service) Chat(c echo.Context) error {
	reqCtx := requestContext(c, "chat")

	req := &chatRequest{}
	if err := c.Bind(req); err != nil {
		return respondError(c, reqCtx, errors.InvalidArgument("malformed request body"))
	}
	if req.SessionID == 0 {
		return respondError(c, reqCtx, errors.InvalidArgument("session_id is required"))
	}

	result, err := s.ChatService.SendMessage(c.Request().Context(), req.SessionID, req.UserMessage)
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	reqCtx.Info("chat turn served",
		slog.Int64(observability.LogFieldSessionID, int64(req.SessionID)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)

	return c.JSON(http.StatusOK, map[string]any{
		"message":         "completion succeeded",
		"user_message_id": result.UserMessage.ID,
		"ai_message_id":   result.AssistantMessage.ID,
		"response":        result.Reply,
		"character_name":  result.CharacterName,
	})
}

// DeleteMessage soft-deletes a message by id. Repeated deletes succeed.
// DELETE /api/v1/messages/:id
func (s *APIV1Service) DeleteMessage(c echo.Context) error {
	reqCtx := requestContext(c, "delete_message")

	messageID, err := parseID(c.Param("id"))
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	if err := s.Store.SoftDeleteMessage(c.Request().Context(), messageID); err != nil {
		return respondError(c, reqCtx, err)
	}

	reqCtx.Info("message deleted",
		slog.Int64(observability.LogFieldMessageID, int64(messageID)),
	)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "message deleted",
	})
}
