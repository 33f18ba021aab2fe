package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType categorizes a GitHub API failure.
type ErrorType int

const (
	// ErrTypeAuth covers 401 and 404 responses. GitHub answers 404 for
	// private repositories the token cannot see, so the two are
	// reported together with a token hint.
	ErrTypeAuth ErrorType = iota

	// ErrTypeRateLimit is a 403 carrying a rate-limit signal.
	ErrTypeRateLimit

	// ErrTypeHTTP is any other non-2xx response.
	ErrTypeHTTP
)

// String returns a human-readable description of the error type.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeAuth:
		return "authentication or not-found"
	case ErrTypeRateLimit:
		return "rate limited"
	default:
		return "http error"
	}
}

// Error is a typed GitHub API error. Every failure is fatal; there is
// no retry.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("github: %s: %s (status %d, GET %s)", e.Type.String(), e.Message, e.StatusCode, e.URL)
}

// Is implements error matching by type for errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// MapHTTPError maps a non-2xx GitHub response to a typed *Error.
func MapHTTPError(statusCode int, header http.Header, body []byte, url string) *Error {
	message := parseErrorMessage(statusCode, body)

	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusNotFound:
		return &Error{
			Type:       ErrTypeAuth,
			Message:    message + " (a token may be required; set --token, GITHUB_TOKEN, or GH_TOKEN)",
			StatusCode: statusCode,
			URL:        url,
		}

	case statusCode == http.StatusForbidden && isRateLimited(header, message):
		return &Error{
			Type:       ErrTypeRateLimit,
			Message:    message,
			StatusCode: statusCode,
			URL:        url,
		}

	default:
		return &Error{
			Type:       ErrTypeHTTP,
			Message:    message,
			StatusCode: statusCode,
			URL:        url,
		}
	}
}

func isRateLimited(header http.Header, message string) bool {
	if header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return strings.Contains(strings.ToLower(message), "rate limit")
}

type apiErrorResponse struct {
	Message string `json:"message"`
}

// parseErrorMessage extracts GitHub's message field, falling back to a
// body preview for non-JSON responses.
func parseErrorMessage(statusCode int, body []byte) string {
	var errResp apiErrorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return errResp.Message
	}

	preview := strings.TrimSpace(string(body))
	if len(preview) > 100 {
		preview = preview[:100] + "..."
	}
	if preview == "" {
		return fmt.Sprintf("HTTP %d", statusCode)
	}
	return fmt.Sprintf("HTTP %d: %s", statusCode, preview)
}
