// Package gemini speaks the generateContent wire format: building request
// bodies, sending them to the endpoint, and pulling the reply text back out.
package gemini

import "fmt"

// ErrorResponse is the error envelope returned by the endpoint on failure.
type ErrorResponse struct {
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes an endpoint failure.
type ErrorDetail struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"` // e.g. "INVALID_ARGUMENT", "PERMISSION_DENIED"
}

// StatusError is returned when the endpoint answers with a non-success status.
type StatusError struct {
	StatusCode int
	Message    string // From the error envelope, when one was returned
	Body       string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("endpoint returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("endpoint returned %d: %s", e.StatusCode, e.Body)
}
