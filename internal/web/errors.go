package web

// errors.go provides unified error response handling for the API.
//
// Handlers call respondError with whatever error bubbled up; the sentinel
// errors from the importer, wizard, storage, and service packages map to
// their HTTP status codes here, in one place. Everything else is a 500 with
// a generic message so internals never leak to clients.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/internhub/bulkimport/internal/importer"
	"github.com/internhub/bulkimport/internal/service"
	"github.com/internhub/bulkimport/internal/spreadsheet"
	"github.com/internhub/bulkimport/internal/storage"
	"github.com/internhub/bulkimport/internal/wizard"
)

// errorResponse is the JSON body for every error the API returns.
type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps an error to its status code, logs it with the request
// id, and writes the JSON error body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := mapError(err)

	slog.Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"request_id", middleware.GetReqID(r.Context()),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// mapError resolves an error to an HTTP status and client-safe message.
func mapError(err error) (int, string) {
	switch {
	case errors.Is(err, importer.ErrEmptyFile),
		errors.Is(err, importer.ErrTooManyRows),
		errors.Is(err, spreadsheet.ErrNoHeader),
		errors.Is(err, spreadsheet.ErrUnsupportedFormat),
		errors.Is(err, service.ErrUnknownVariant):
		return http.StatusBadRequest, err.Error()

	case errors.Is(err, wizard.ErrNotFound),
		errors.Is(err, storage.ErrJobNotFound),
		errors.Is(err, storage.ErrRecordNotFound):
		return http.StatusNotFound, err.Error()

	case errors.Is(err, wizard.ErrInvalidTransition):
		return http.StatusConflict, err.Error()

	case errors.Is(err, service.ErrTooManyImports):
		return http.StatusTooManyRequests, err.Error()

	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

// writeError writes a JSON error response with an explicit status.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: message})
}

// writeJSON encodes v as JSON and writes it to w.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode", "error", err)
	}
}
