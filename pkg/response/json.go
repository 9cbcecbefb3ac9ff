package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/quorumhq/notify/pkg/validator"
)

// Envelope is the standard JSON response structure.
type Envelope struct {
	Data  any            `json:"data,omitempty"`
	Meta  map[string]any `json:"meta,omitempty"`
	Error *ErrorDetail   `json:"error,omitempty"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string              `json:"code"`
	Message string              `json:"message,omitempty"`
	Details map[string][]string `json:"details,omitempty"`
}

// JSON writes a success envelope with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

// JSONMeta writes a success envelope carrying extra metadata.
func JSONMeta(w http.ResponseWriter, status int, data any, meta map[string]any) {
	write(w, status, Envelope{Data: data, Meta: meta})
}

// Error maps an error to the appropriate status code and writes an error
// envelope: validation errors become 400 with per-field details, HTTPError
// carries its own code, anything else is a 500.
func Error(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	detail := &ErrorDetail{
		Code:    "internal_error",
		Message: "internal server error",
	}

	var httpErr HTTPError
	if ve := validator.ExtractValidationErrors(err); ve != nil {
		status = http.StatusBadRequest
		detail.Code = "validation_error"
		detail.Message = "request validation failed"
		detail.Details = ve.Details()
	} else if errors.As(err, &httpErr) {
		status = httpErr.Code
		detail.Code = httpErr.Key
		detail.Message = http.StatusText(httpErr.Code)
	}

	write(w, status, Envelope{Error: detail})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
