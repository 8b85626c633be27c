package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"

	"github.com/tidwall/gjson"
)

// ErrNotAuthenticated is returned for operations that need a real session
var ErrNotAuthenticated = errors.New("not authenticated")

// APIError is a non-2xx response from the remote API
type APIError struct {
	Method string
	Path   string
	Status int
	Body   []byte
}

func (e *APIError) Error() string {
	if detail := e.Detail(); detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// Detail returns the server supplied explanation, checking the response,
// detail and message fields in that order
func (e *APIError) Detail() string {
	if !gjson.ValidBytes(e.Body) {
		return ""
	}
	for _, name := range []string{"response", "detail", "message"} {
		if field := gjson.GetBytes(e.Body, name); field.Type == gjson.String && field.Str != "" {
			return field.Str
		}
	}
	return ""
}

// IsUnauthorized reports whether err is a 401 from the remote API
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// UserMessage maps an error from the client to text suitable for the user
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if detail := apiErr.Detail(); detail != "" {
			return detail
		}
		switch {
		case apiErr.Status == http.StatusUnauthorized:
			return "Please log in to continue chatting."
		case apiErr.Status >= http.StatusInternalServerError:
			return "Server error. Please try again in a moment."
		}
		return "Sorry, I encountered an error. Please try again."
	}

	if errors.Is(err, ErrNotAuthenticated) {
		return "Please log in to sync your guest data."
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return "Request timed out. Please check your connection and try again."
	}

	var opErr *net.OpError
	if errors.Is(err, syscall.ECONNREFUSED) || errors.As(err, &opErr) {
		return "Cannot connect to server. Please make sure the backend is running."
	}

	return "Sorry, I encountered an error. Please try again."
}
