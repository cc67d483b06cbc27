package v1

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/lithammer/shortuuid/v4"

	"github.com/hrygo/converse/server/internal/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestIDMiddleware tags every request with an id and stashes a
// RequestContext for handler logging. An incoming X-Request-ID is honored so
// callers can correlate across systems.
func RequestIDMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = shortuuid.New()
			}
			c.Response().Header().Set(requestIDHeader, requestID)

			reqCtx := observability.NewRequestContextWithID(slog.Default(), requestID, c.Request().Method+" "+c.Path())
			ctx := observability.WithRequestContext(c.Request().Context(), reqCtx)
			c.SetRequest(c.Request().WithContext(ctx))

			return next(c)
		}
	}
}

// requestContext returns the RequestContext stashed by the middleware,
// falling back to a fresh one for routes registered without it.
func requestContext(c echo.Context, operation string) *observability.RequestContext {
	if reqCtx, ok := observability.FromContext(c.Request().Context()); ok {
		return reqCtx
	}
	return observability.NewRequestContext(slog.Default(), operation)
}
