package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; clients only see the mapped user message.
// /api/* and JSON requests get ErrorResponse, pages are re-rendered with an
// alert above the grid.

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/logging"
	"github.com/JonMunkholm/tabedit/internal/web/templates"
)

var (
	errNoFile         = errors.New("no file provided")
	errInvalidRequest = errors.New("invalid request")
	errRateLimited    = errors.New("rate limit exceeded")
)

// ErrorResponse is the JSON body of an API error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	Detail  string `json:"detail,omitempty"`
}

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrColumnNotFound), errors.Is(err, core.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidTransition),
		errors.Is(err, core.ErrNothingToUndo),
		errors.Is(err, core.ErrNoSteps),
		errors.Is(err, core.ErrEmptyTable):
		return http.StatusConflict
	case errors.Is(err, core.ErrUnsupportedFileType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, core.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrInvalidExpression),
		errors.Is(err, core.ErrUnknownOperation),
		errors.Is(err, core.ErrInvalidRecipe),
		errors.Is(err, core.ErrInvalidCSV),
		errors.Is(err, core.ErrEmptyFile),
		errors.Is(err, core.ErrInvalidSpreadsheet),
		errors.Is(err, core.ErrEncoding),
		errors.Is(err, errNoFile),
		errors.Is(err, errInvalidRequest):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and renders it for the client.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logger := logging.FromContext(r.Context())
	attrs := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", attrs...)
	} else {
		logger.Warn("request error", attrs...)
	}

	alert := templates.Alert{
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		Detail:  core.Detail(err),
	}
	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
			Detail:  alert.Detail,
		})
		return
	}

	sess := sessionFrom(r.Context())
	if sess == nil {
		http.Error(w, msg.Message+" ("+msg.Code+")", status)
		return
	}
	s.renderPage(w, r, sess, &alert, status)
}

func writeErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	writeJSON(w, status, ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// wantsJSON reports whether the client expects a JSON response.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.Contains(r.Header.Get("Content-Type"), "application/json")
}
