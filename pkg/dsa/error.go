package dsa

import (
	"fmt"
	"net/http"
)

// HTTPError is returned when DSA answers with a failing HTTP status and a body
// that is not a DSA envelope.
type HTTPError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	msg := http.StatusText(e.StatusCode)
	if len(e.Body) > 0 && len(e.Body) <= 256 {
		msg = string(e.Body)
	}
	return fmt.Sprintf("dsa: %s %s: %d %s", e.Method, e.Endpoint, e.StatusCode, msg)
}

// Temporary reports whether the status is worth retrying.
func (e *HTTPError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	default:
		return false
	}
}
