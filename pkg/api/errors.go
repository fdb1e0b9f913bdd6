package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound matches API errors reporting unknown ids.
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicated matches API errors reporting ids that already exist.
	ErrDuplicated = errors.New("resource already exists")
)

// Error is a failed API response.
type Error struct {
	StatusCode int
	Code       int
	Message    string
	RequestID  string
	Missing    []json.RawMessage
	Duplicated []json.RawMessage
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}

	s := fmt.Sprintf("%s | code: %d", msg, e.StatusCode)
	if e.RequestID != "" {
		s += " | X-Request-ID: " + e.RequestID
	}
	if len(e.Missing) > 0 {
		s += fmt.Sprintf(" | missing: %s", joinRaw(e.Missing))
	}
	if len(e.Duplicated) > 0 {
		s += fmt.Sprintf(" | duplicated: %s", joinRaw(e.Duplicated))
	}

	return s
}

// Is reports whether the error matches ErrNotFound or ErrDuplicated.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound || len(e.Missing) > 0
	case ErrDuplicated:
		return e.StatusCode == http.StatusConflict || len(e.Duplicated) > 0
	default:
		return false
	}
}

// Retryable reports whether the request may succeed when sent again.
func (e *Error) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= http.StatusInternalServerError
}

func decodeError(status int, requestID string, body []byte) *Error {
	apiErr := &Error{StatusCode: status, Code: status, RequestID: requestID}

	var envelope struct {
		Error struct {
			Code       int               `json:"code"`
			Message    string            `json:"message"`
			Missing    []json.RawMessage `json:"missing"`
			Duplicated []json.RawMessage `json:"duplicated"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		apiErr.Message = string(body)
		return apiErr
	}

	if envelope.Error.Code != 0 {
		apiErr.Code = envelope.Error.Code
	}
	apiErr.Message = envelope.Error.Message
	apiErr.Missing = envelope.Error.Missing
	apiErr.Duplicated = envelope.Error.Duplicated
	return apiErr
}

func joinRaw(items []json.RawMessage) string {
	data, _ := json.Marshal(items)
	return string(data)
}
