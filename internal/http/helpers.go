package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"expensebook/internal/core"
	"expensebook/internal/log"
	"expensebook/internal/store"
	"expensebook/internal/workbook"
)

var errNotLoaded = errors.New("state is still loading")

// errorStatus maps domain errors to HTTP status codes.
func errorStatus(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, store.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, core.ErrInvalidDay),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrUnknownPrimary),
		errors.Is(err, core.ErrUnknownSecondary):
		return http.StatusUnprocessableEntity
	case errors.Is(err, workbook.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, workbook.ErrUnreadableWorkbook), errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers {"error": "..."}. Internal errors are logged and their
// detail is not sent to the client.
func writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	status := errorStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Request failed", err, operation, nil)
		msg = "internal error"
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s))
}

// sanitizeText removes control characters from free text, keeping tabs,
// line breaks and surrounding whitespace.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if (r < 32 && r != '\t' && r != '\n' && r != '\r') || r == 127 {
			return -1
		}
		return r
	}, s)
}
