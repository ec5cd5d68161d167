package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"diamond-catalog-api/internal/catalog"
	"diamond-catalog-api/internal/leads"
	"diamond-catalog-api/internal/models"
	"diamond-catalog-api/internal/services"
	"diamond-catalog-api/internal/store"
)

// writeJSONResponse is a helper function to write JSON responses
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeErrorResponse is a helper function to write error responses
func writeErrorResponse(w http.ResponseWriter, statusCode int, code, message string, details []models.ErrorDetail) {
	writeJSONResponse(w, statusCode, models.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// decodeJSON reads the request body into v and answers 400 when it is not valid JSON
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}, what string) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		slog.Warn("Invalid JSON in "+what+" request", "error", err, "remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, "Invalid JSON", nil)
		return false
	}
	return true
}

// writeServiceError maps a service error to its HTTP status and error code
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *leads.ValidationError
	switch {
	case errors.As(err, &verr):
		details := make([]models.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, models.ErrorDetail{Field: f.Field, Issue: f.Issue})
		}
		writeErrorResponse(w, http.StatusUnprocessableEntity, models.CodeValidationError, "Validation failed", details)
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, catalog.ErrDiamondNotFound),
		errors.Is(err, catalog.ErrCertificateNotFound):
		writeErrorResponse(w, http.StatusNotFound, models.CodeNotFound, err.Error(), nil)
	case errors.Is(err, services.ErrInvalidQuery),
		errors.Is(err, store.ErrInvalidFilters),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrUnknownModal),
		errors.Is(err, services.ErrMissingReference),
		errors.Is(err, services.ErrNoCertificate),
		errors.Is(err, services.ErrNoCertificateOpen):
		writeErrorResponse(w, http.StatusBadRequest, models.CodeBadRequest, err.Error(), nil)
	default:
		slog.Error("Request failed", "error", err, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
		writeErrorResponse(w, http.StatusInternalServerError, models.CodeInternalError, "Internal server error", nil)
	}
}

func mutationResponse(res services.MutationResult) models.MutationResponse {
	return models.MutationResponse{
		Outcome:  res.Outcome.String(),
		Snapshot: models.NewSnapshotResponse(res.Snapshot),
	}
}
