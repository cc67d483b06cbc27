package v1

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/converse/internal/errors"
	"github.com/hrygo/converse/server/internal/observability"
)

// errorResponse is the body every failure returns: a human-readable message
// plus optional diagnostic detail. Stack traces never leave the process.
type errorResponse struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps the error taxonomy onto HTTP statuses and logs the
// failure with enough context to diagnose.
func respondError(c echo.Context, reqCtx *observability.RequestContext, err error) error {
	code := errors.GetCodeFromError(err, errors.ErrCodeUnexpected)

	var status int
	switch code {
	case errors.ErrCodeNotFound:
		status = http.StatusNotFound
	case errors.ErrCodeInvalidArgument:
		status = http.StatusBadRequest
	case errors.ErrCodeUpstreamTransport:
		status = http.StatusGatewayTimeout
	case errors.ErrCodeUpstreamProtocol, errors.ErrCodeUpstreamDecode:
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}

	reqCtx.Error("request failed", err,
		slog.String(observability.LogFieldErrorCode, string(code)),
		slog.Int("status", status),
	)

	resp := errorResponse{Message: publicMessage(code)}
	var e *errors.Error
	if stderrors.As(err, &e) {
		resp.Detail = e.Message
	}

	return c.JSON(status, resp)
}

// publicMessage keeps the top-level message stable per error kind.
func publicMessage(code errors.ErrorCode) string {
	switch code {
	case errors.ErrCodeNotFound:
		return "resource not found"
	case errors.ErrCodeInvalidArgument:
		return "invalid request"
	case errors.ErrCodeUpstreamTransport, errors.ErrCodeUpstreamProtocol, errors.ErrCodeUpstreamDecode:
		return "completion API call failed"
	case errors.ErrCodeStoreFault:
		return "database operation failed"
	default:
		return "internal server error"
	}
}
