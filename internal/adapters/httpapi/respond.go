package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bnema/familiar-bridge/internal/domain"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidFamiliarID),
		errors.Is(err, domain.ErrFamiliarNotFound),
		errors.Is(err, domain.ErrUnknownCycleMode),
		errors.Is(err, domain.ErrNotUserTurn):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrTurnNotFound),
		errors.Is(err, domain.ErrActivityNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeBody reads an optional JSON object. An empty body leaves v as is.
func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := decoder.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return invalidBody(err)
	}
	return nil
}

func truthy(raw string) bool {
	switch raw {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func invalidBody(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
