package handlers

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in the "code" field
const (
	CodeInvalidQuery     = "invalid_query"
	CodeInvalidUpload    = "invalid_upload"
	CodeNoFiles          = "no_files"
	CodeNoData           = "no_data"
	CodeEmptySelection   = "empty_selection"
	CodeInvalidThreshold = "invalid_threshold"
	CodeNotFound         = "not_found"
	CodeRateLimited      = "rate_limited"
	CodeInternal         = "internal_error"
)

// ErrorResponse is the JSON body of every non-2xx response
type ErrorResponse struct {
	Code    string      `json:"code"`
	Error   string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Code: code, Error: message})
}

func respondErrorDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	respondJSON(w, status, ErrorResponse{Code: code, Error: message, Details: details})
}

// RespondError lets middleware outside this package share the error shape
func RespondError(w http.ResponseWriter, status int, code, message string) {
	respondError(w, status, code, message)
}
