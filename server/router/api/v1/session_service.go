package v1

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/converse/internal/errors"
	"github.com/hrygo/converse/server/internal/observability"
)

type createSessionRequest struct {
	Name string `json:"name"`
}

type sessionPayload struct {
	SessionID   int32  `json:"session_id"`
	SessionName string `json:"session_name"`
}

// CreateSession creates a new session.
// POST /api/v1/sessions
func (s *APIV1Service) CreateSession(c echo.Context) error {
	reqCtx := requestContext(c, "create_session")

	req := &createSessionRequest{}
	if err := c.Bind(req); err != nil {
		return respondError(c, reqCtx, errors.InvalidArgument("malformed request body"))
	}

	session, err := s.Store.CreateSession(c.Request().Context(), req.Name)
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	reqCtx.Info("session created",
		slog.Int64(observability.LogFieldSessionID, int64(session.ID)),
		slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()),
	)

	return c.JSON(http.StatusCreated, map[string]any{
		"message":      "session created",
		"session_id":   session.ID,
		"session_name": session.Name,
	})
}

// ListSessions lists all active sessions.
// GET /api/v1/sessions
func (s *APIV1Service) ListSessions(c echo.Context) error {
	reqCtx := requestContext(c, "list_sessions")

	sessions, err := s.Store.ListActiveSessions(c.Request().Context())
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	payload := make([]sessionPayload, 0, len(sessions))
	for _, session := range sessions {
		payload = append(payload, sessionPayload{
			SessionID:   session.ID,
			SessionName: session.Name,
		})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message":  "sessions listed",
		"sessions": payload,
	})
}

// DeleteSession soft-deletes a session by id.
// DELETE /api/v1/sessions/:id
func (s *APIV1Service) DeleteSession(c echo.Context) error {
	reqCtx := requestContext(c, "delete_session")

	sessionID, err := parseID(c.Param("id"))
	if err != nil {
		return respondError(c, reqCtx, err)
	}

	if err := s.Store.DeactivateSession(c.Request().Context(), sessionID); err != nil {
		return respondError(c, reqCtx, err)
	}

	reqCtx.Info("session deleted",
		slog.Int64(observability.LogFieldSessionID, int64(sessionID)),
	)

	return c.JSON(http.StatusOK, map[string]any{
		"message": "session deleted",
	})
}

// parseID parses a path parameter into a row id.
func parseID(raw string) (int32, error) {
	id, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return 0, errors.InvalidArgument("id must be an integer")
	}
	return int32(id), nil
}
