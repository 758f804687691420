package bitable

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors used with errors.Is.
var (
	// ErrRateLimited indicates the API answered HTTP 429.
	ErrRateLimited = errors.New("rate limited")

	// ErrServerError indicates the API answered with a 5xx status.
	ErrServerError = errors.New("server error")

	// ErrTransient indicates an API status code from the transient set.
	ErrTransient = errors.New("transient api failure")
)

// AuthError is returned when the credential exchange fails. It aborts the run.
type AuthError struct {
	Code    int
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("obtain tenant access token: %v", e.Err)
	}
	return fmt.Sprintf("obtain tenant access token: [%d] %s", e.Code, e.Message)
}

// Unwrap implements errors.Unwrap.
func (e *AuthError) Unwrap() error { return e.Err }

// EndpointNotFoundError is returned for HTTP 404. The response alone cannot
// tell which of the usual causes applies, so the error lists all of them.
type EndpointNotFoundError struct {
	Method string
	Path   string
}

// Error implements the error interface.
func (e *EndpointNotFoundError) Error() string {
	return fmt.Sprintf("endpoint not found: %s %s (check that the app has bitable permission, "+
		"that the app is installed in the tenant, and that the app token and table id are correct)",
		e.Method, e.Path)
}

// Hints lists the likely causes of a 404.
func (e *EndpointNotFoundError) Hints() []string {
	return []string{
		"the app lacks bitable permission",
		"the app is not installed in the tenant",
		"the app token or table id is wrong",
	}
}

// HTTPError is a non-2xx response that carried no usable API envelope.
type HTTPError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: http %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// Is maps 429 to ErrRateLimited and 5xx to ErrServerError.
func (e *HTTPError) Is(target error) bool {
	switch target {
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	case ErrServerError:
		return e.StatusCode >= 500 && e.StatusCode <= 599
	}
	return false
}

// APIError is a response whose envelope carried a non-zero code.
type APIError struct {
	Path      string
	Code      int
	Message   string
	transient bool
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api request %s failed: [%d] %s", e.Path, e.Code, e.Message)
}

// Is reports ErrTransient for codes in the client's transient set.
func (e *APIError) Is(target error) bool {
	return target == ErrTransient && e.transient
}

// RetryExhaustedError is returned when every attempt failed with a retryable error.
type RetryExhaustedError struct {
	Attempts int
	Last     error
}

// Error implements the error interface.
func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("request failed after %d attempts: %v", e.Attempts, e.Last)
}

// Unwrap implements errors.Unwrap.
func (e *RetryExhaustedError) Unwrap() error { return e.Last }

// transportError wraps a failure of the HTTP round trip itself.
type transportError struct {
	err error
}

func (e *transportError) Error() string { return fmt.Sprintf("request error: %v", e.err) }
func (e *transportError) Unwrap() error { return e.err }

// IsRetryable reports whether err is one of the transient conditions the
// request layer retries: 429, 5xx, transient API codes, transport failures.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var ae *AuthError
	if errors.As(err, &ae) {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrServerError) || errors.Is(err, ErrTransient) {
		return true
	}
	var te *transportError
	return errors.As(err, &te)
}
