package ui

import (
	"encoding/json"
	"log"
	"net/http"

	"chartcraft/internal/errors"
)

// HTTPStatus maps an application error code to a response status.
func HTTPStatus(err error) int {
	switch errors.GetCode(err) {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeRenderFailed:
		return http.StatusUnprocessableEntity
	case errors.CodeExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal causes from responses.
func publicMessage(err error, status int) string {
	if status >= http.StatusInternalServerError {
		return http.StatusText(status)
	}
	return err.Error()
}

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func newErrorResponse(err error) (int, ErrorResponse) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Printf("[HTTP] ❌ %v", err)
	}
	return status, ErrorResponse{Error: publicMessage(err, status), Code: errors.GetCode(err)}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[HTTP] Failed to encode response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, err error) {
	status, body := newErrorResponse(err)
	writeJSON(w, status, body)
}
