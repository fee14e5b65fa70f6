package apierr

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rsheldon/quorum/internal/api/response"
	"github.com/rsheldon/quorum/internal/model"
	"github.com/rsheldon/quorum/internal/services/auth"
)

// TypeAuthError tags authentication failures; clients purge stored
// credentials and return to the entry screen when they see it.
const TypeAuthError = "authError"

// Error is the wire form of an API error
type Error struct {
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`

	status int
}

// ErrorResponse wraps an Error in the response envelope
type ErrorResponse struct {
	Error *Error `json:"error"`
}

// Status returns the HTTP status the error maps to
func (e *Error) Status() int {
	if e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

// NewBadRequest builds a 400 error with the given message
func NewBadRequest(message string) *Error {
	return &Error{Message: message, status: http.StatusBadRequest}
}

// NewInternalError builds the masked 500 error
func NewInternalError() *Error {
	return &Error{Message: "internal server error", status: http.StatusInternalServerError}
}

// Translator is the single point mapping service errors to wire errors.
// Domain errors travel verbatim with a stable status; anything unexpected is
// logged here and masked outside development.
type Translator struct {
	development bool
	logger      *slog.Logger
}

// NewTranslator creates a Translator
func NewTranslator(development bool, logger *slog.Logger) *Translator {
	return &Translator{
		development: development,
		logger:      logger.With(slog.String("component", "apierr")),
	}
}

var statusByError = []struct {
	err    error
	status int
}{
	{model.ErrSessionNotFound, http.StatusNotFound},
	{model.ErrPlayerNotFound, http.StatusNotFound},
	{model.ErrServerFull, http.StatusServiceUnavailable},
	{model.ErrSessionFull, http.StatusConflict},
	{model.ErrNameTaken, http.StatusConflict},
	{model.ErrGameInProgress, http.StatusConflict},
	{model.ErrSameName, http.StatusConflict},
	{model.ErrBlankName, http.StatusBadRequest},
	{model.ErrNameTooLong, http.StatusBadRequest},
}

// Translate maps a service error to its wire form
func (t *Translator) Translate(err error) *Error {
	if auth.IsAuthError(err) {
		return &Error{
			Message: err.Error(),
			Type:    TypeAuthError,
			status:  http.StatusUnauthorized,
		}
	}

	for _, m := range statusByError {
		if errors.Is(err, m.err) {
			return &Error{Message: err.Error(), status: m.status}
		}
	}

	t.logger.Error("unexpected error", slog.Any("error", err))
	if t.development {
		return &Error{Message: err.Error(), status: http.StatusInternalServerError}
	}
	return NewInternalError()
}

// WriteError writes an Error as the response body
func WriteError(w http.ResponseWriter, apiErr *Error) {
	response.JSON(w, apiErr.Status(), ErrorResponse{Error: apiErr})
}
