package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnexpectedResponse indicates a 2xx response whose body is not a movie list.
var ErrUnexpectedResponse = errors.New("unexpected response")

// StatusError is a non-2xx response from the backend.
type StatusError struct {
	Method string
	Path   string
	Code   int
	// Message is the backend's {"error": ...} text, or the raw body.
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the backend.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == 404
}

func newStatusError(method, path string, code int, body []byte) *StatusError {
	var payload struct {
		Error  string `json:"error"`
		Detail string `json:"detail"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.Detail != "":
			msg = payload.Detail
		}
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &StatusError{Method: method, Path: path, Code: code, Message: msg}
}
