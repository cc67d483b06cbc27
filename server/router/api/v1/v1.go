package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/converse/internal/profile"
	"github.com/hrygo/converse/server/internal/observability"
	"github.com/hrygo/converse/server/service/chat"
	"github.com/hrygo/converse/store"
)

// APIV1Service wires the HTTP surface onto the store and the chat service.
// Handlers translate requests 1:1 onto store/service operations and map
// outcomes to the response shape; they carry no business logic.
type APIV1Service struct {
	Profile     *profile.Profile
	Store       *store.Store
	ChatService chat.Service
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, chatService chat.Service) *APIV1Service {
	return &APIV1Service{
		Profile:     profile,
		Store:       store,
		ChatService: chatService,
	}
}

// RegisterRoutes registers all routes with the echo server.
func (s *APIV1Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", s.Health)

	g := e.Group("/api/v1", RequestIDMiddleware())
	g.POST("/sessions", s.CreateSession)
	g.GET("/sessions", s.ListSessions)
	g.DELETE("/sessions/:id", s.DeleteSession)
	g.GET("/sessions/:id/messages", s.ListMessages)
	g.POST("/chat", s.Chat)
	g.DELETE("/messages/:id", s.DeleteMessage)
}

// Health returns health status alongside the completion-call counters.
func (s *APIV1Service) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"version":     s.Profile.Version,
		"completions": observability.GlobalMetrics().Snapshot(),
	})
}
