package api

import (
	stderrors "errors"
	"net/http"

	"github.com/vytor/lingoprogress/internal/errors"
	"github.com/vytor/lingoprogress/internal/logger"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// handleError centralizes error handling for HTTP responses
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		// Wrap unknown errors as internal errors
		appErr = errors.NewInternalError(err)
	}

	if appErr.Status >= 500 {
		log.Error("server error: %v", appErr)
	} else {
		log.Debug("client error: %v", appErr)
	}

	if appErr.Retryable() {
		w.Header().Set("Retry-After", "1")
	}
	writeJSON(w, r, appErr.Status, map[string]errorBody{
		"error": {Code: appErr.Code, Message: appErr.Message},
	})
}
