package gateway

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Kind classifies a failed API call so callers can branch without inspecting messages.
type Kind int

const (
	KindOther         Kind = iota // Anything not covered below
	KindCredential                // Username or password rejected at login
	KindTransport                 // No response reached the client
	KindAuthExpired               // Authorization failed and could not be renewed
	KindRefreshFailed             // The refresh exchange itself failed; the session was ended
	KindHTTP                      // Any other non-2xx response, passed through
)

func (k Kind) String() string {
	switch k {
	case KindCredential:
		return "credential"
	case KindTransport:
		return "transport"
	case KindAuthExpired:
		return "auth_expired"
	case KindRefreshFailed:
		return "refresh_failed"
	case KindHTTP:
		return "http"
	}
	return "other"
}

// Error is returned for every failed call made through the gateway or the auth API.
type Error struct {
	Kind       Kind
	Method     string
	URL        string
	StatusCode int    // Zero when no response was received
	Body       []byte // Response body of the failing response, if any
	Err        error  // Underlying cause
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.URL, e.Kind)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " (status %d)", e.StatusCode)
	}
	if detail := e.Detail(); detail != "" {
		fmt.Fprintf(&b, ": %s", detail)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Detail returns the server's own explanation from a JSON error body, if it sent one.
func (e *Error) Detail() string {
	if len(e.Body) == 0 {
		return ""
	}
	var body map[string]any
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return ""
	}
	for _, key := range []string{"detail", "error", "message", "non_field_errors"} {
		switch v := body[key].(type) {
		case string:
			return v
		case []any:
			if len(v) > 0 {
				return fmt.Sprint(v[0])
			}
		}
	}
	return ""
}

// KindOf returns the Kind of err, or KindOther when err did not come from an API call.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// StatusOf returns the HTTP status carried by err, or zero.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// SessionEnded reports whether err ended the session, meaning the caller should
// send the user back to login.
func SessionEnded(err error) bool {
	k := KindOf(err)
	return k == KindAuthExpired || k == KindRefreshFailed
}
