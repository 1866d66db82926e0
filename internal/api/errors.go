package api

import (
	"encoding/json"
	"net/http"

	apperrors "github.com/crypto-dashboard/internal/errors"
	"github.com/crypto-dashboard/internal/logging"
	"github.com/crypto-dashboard/internal/types"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error types.ServiceError `json:"error"`
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, statusCode int, code, message string, details map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Error: types.ServiceError{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	json.NewEncoder(w).Encode(response)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// parseJSONBody parses JSON request body.
func parseJSONBody(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// respondInvalidBody sends the response for an unparsable request body.
func respondInvalidBody(w http.ResponseWriter, err error) {
	respondError(w, http.StatusBadRequest, apperrors.CodeInvalidParameter, "Invalid request body", map[string]interface{}{
		"reason": err.Error(),
	})
}

// publicError categorizes err into its status code and the error body a
// client sees. System error messages are not exposed.
func publicError(err error) (int, *types.ServiceError) {
	catErr := apperrors.Categorize(err)
	svcErr := catErr.ToServiceError()

	if catErr.StatusCode >= http.StatusInternalServerError && catErr.Code != apperrors.CodeServiceUnavailable {
		svcErr.Message = "An internal error occurred"
		svcErr.Details = nil
	}
	return catErr.StatusCode, svcErr
}

// respondServiceError maps a service error to its status code and error body.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, svcErr := publicError(err)
	if status >= http.StatusInternalServerError {
		logging.FromContext(r.Context()).WithError(err).WithField("code", svcErr.Code).Error("Request failed")
	}

	respondError(w, status, svcErr.Code, svcErr.Message, svcErr.Details)
}
