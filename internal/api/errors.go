package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"provisioning-audit/internal/domain"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// httpStatusFromDomainError maps domain errors to HTTP status codes.
func httpStatusFromDomainError(err error) int {
	var (
		validation *domain.ValidationError
		missing    *domain.MissingRequiredFieldError
		filter     *domain.MissingFilterError
		pagination *domain.InvalidPaginationError
		extraction *domain.ExtractionError
		execution  *domain.ExecutionError
	)
	switch {
	case errors.As(err, &validation),
		errors.As(err, &missing),
		errors.As(err, &filter),
		errors.As(err, &pagination),
		errors.As(err, &extraction):
		return http.StatusBadRequest
	case errors.As(err, &execution) && execution.Unreachable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatusFromDomainError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: status, Message: msg})
}
