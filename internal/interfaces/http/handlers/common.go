package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/turtacn/trademark-screening/internal/interfaces/http/middleware"
	"github.com/turtacn/trademark-screening/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if data != nil {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		_ = enc.Encode(data)
	}
}

// writeAppError maps an error to its status and code. Server-side failures
// are masked behind the code's default message.
func writeAppError(w http.ResponseWriter, err error) {
	appErr := errors.As(err, errors.ErrCodeInternal)
	status := errors.HTTPStatusForCode(appErr.Code)
	msg := appErr.Message
	if status >= http.StatusInternalServerError {
		msg = errors.DefaultMessageForCode(appErr.Code)
	}
	middleware.WriteError(w, status, appErr.Code, msg)
}
