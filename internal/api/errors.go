package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tOgg1/wirewave/internal/models"
)

// UnauthorizedText is shown whenever the server rejects the session.
const UnauthorizedText = "Unauthorized. Please login again."

// ErrUnauthorized matches 401/403 responses and missing or expired sessions.
var ErrUnauthorized = errors.New("unauthorized")

// ErrBadResponse marks a 2xx body that could not be decoded or was too
// large to read in full.
var ErrBadResponse = errors.New("malformed response")

// TransportError reports a request that never produced an HTTP response:
// no connectivity, DNS failure, or timeout.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError is a non-2xx response. Message holds the server's "error" or
// "message" field verbatim when present.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, http.StatusText(e.Status))
}

// Is makes 401 and 403 responses match ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized &&
		(e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden)
}

// IsNotFound reports whether err is a 404 response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// IsTransport reports whether err is a connectivity failure.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

func errorMessage(body []byte) string {
	var payload struct {
		Error   json.RawMessage `json:"error"`
		Message json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{payload.Error, payload.Message} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// UserMessage renders err for a toast or CLI message: the server's message
// when it sent one, the unauthorized text, validation text, else fallback.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnauthorized) {
		return UnauthorizedText
	}
	var validation *models.ValidationErrors
	if errors.As(err, &validation) {
		msgs := validation.Messages()
		if len(msgs) > 0 && msgs[0] != "" {
			first := msgs[0]
			r, size := utf8.DecodeRuneInString(first)
			return string(unicode.ToUpper(r)) + first[size:]
		}
	}
	return fallback
}
