// internal/common/errors/classify.go
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// ClassifyHTTPStatus maps a non-2xx response to a typed fetch error.
func ClassifyHTTPStatus(source string, status int) *FetchError {
	switch {
	case status == http.StatusTooManyRequests:
		return NewRateLimitedError(source, fmt.Sprintf("http %d", status))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewAuthFailedError(source, fmt.Sprintf("http %d", status))
	case status >= 500:
		return NewUnavailableError(source, fmt.Sprintf("http %d", status))
	default:
		return NewUnavailableError(source, fmt.Sprintf("unexpected http %d", status))
	}
}

// ClassifyTransportError maps a transport-level failure to a typed fetch error.
func ClassifyTransportError(source string, err error) *FetchError {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewFetchTimeoutError(source, err.Error())
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewFetchTimeoutError(source, err.Error())
	}
	return NewUnavailableError(source, err.Error())
}
