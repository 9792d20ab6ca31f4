package dto

import "time"

// ErrorResponse is the JSON body returned by every failing endpoint.
//
// Only Message is guaranteed; ErrorDetails carries the underlying error when
// it is safe to expose (validation problems), and is left empty for
// persistence failures.
type ErrorResponse struct {
	Message      string    `json:"error" example:"missing required field: cryptoId"`
	ErrorDetails string    `json:"details,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Error implements the error interface.
func (e ErrorResponse) Error() string {
	if e.ErrorDetails == "" {
		return e.Message
	}
	return e.Message + ": " + e.ErrorDetails
}

// NewErrorResponse builds an ErrorResponse stamped with the current time.
func NewErrorResponse(message string, err error) ErrorResponse {
	resp := ErrorResponse{
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if err != nil {
		resp.ErrorDetails = err.Error()
	}
	return resp
}
