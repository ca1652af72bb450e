package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"

	"google.golang.org/genai"
)

// ============================================================================
// ERRORS — Failure taxonomy
// ============================================================================
//   overloaded   429 / 503, RESOURCE_EXHAUSTED / UNAVAILABLE
//                → one retry with the fallback model
//   unavailable  dial, DNS, timeout, connection refused, no client
//                → local path, "AI unavailable" note
//   generic      anything else (bad request, empty response, bad key)
//                → local path
// ============================================================================

// Kind classifies a model failure.
type Kind string

const (
	KindOverloaded  Kind = "overloaded"
	KindUnavailable Kind = "unavailable"
	KindGeneric     Kind = "generic"
)

var (
	// ErrOverloaded matches any overloaded *Error via errors.Is.
	ErrOverloaded = errors.New("llm: model overloaded")
	// ErrUnavailable matches any unavailable *Error via errors.Is.
	ErrUnavailable = errors.New("llm: model unreachable")
	// ErrNoClient is returned when no client is configured.
	ErrNoClient = errors.New("llm: no client configured")
	// ErrEmptyResponse is returned when the model answered with no text.
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Error is a classified model failure.
type Error struct {
	Kind  Kind
	Model string
	Err   error
}

func (e *Error) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("llm %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("llm %s (%s): %v", e.Kind, e.Model, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrOverloaded) and errors.Is(err, ErrUnavailable)
// match on Kind.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrOverloaded:
		return e.Kind == KindOverloaded
	case ErrUnavailable:
		return e.Kind == KindUnavailable
	}
	return false
}

// Wrap classifies err and wraps it as an *Error. Already-classified errors
// are returned unchanged.
func Wrap(err error, model string) error {
	if err == nil {
		return nil
	}
	var le *Error
	if errors.As(err, &le) {
		return err
	}
	return &Error{Kind: Classify(err), Model: model, Err: err}
}

// KindOf returns the Kind of err, classifying it when needed.
func KindOf(err error) Kind {
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	return Classify(err)
}

// IsOverloaded reports whether err is an overload signal.
func IsOverloaded(err error) bool { return err != nil && KindOf(err) == KindOverloaded }

// IsUnavailable reports whether err means the model could not be reached.
func IsUnavailable(err error) bool { return err != nil && KindOf(err) == KindUnavailable }

// Classify inspects a raw error from a backend.
func Classify(err error) Kind {
	if err == nil {
		return KindGeneric
	}
	if errors.Is(err, ErrNoClient) {
		return KindUnavailable
	}

	if code, status, ok := apiStatus(err); ok {
		switch {
		case code == http.StatusTooManyRequests, code == http.StatusServiceUnavailable:
			return KindOverloaded
		case status == "RESOURCE_EXHAUSTED", status == "UNAVAILABLE":
			return KindOverloaded
		case code == http.StatusGatewayTimeout:
			return KindUnavailable
		}
		return KindGeneric
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ENETUNREACH) {
		return KindUnavailable
	}
	var dnsErr *net.DNSError
	var opErr *net.OpError
	var urlErr *url.Error
	if errors.As(err, &dnsErr) || errors.As(err, &opErr) || errors.As(err, &urlErr) {
		return KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindUnavailable
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "overloaded"),
		strings.Contains(msg, "rate limit"), strings.Contains(msg, "429"):
		return KindOverloaded
	case strings.Contains(msg, "no such host"), strings.Contains(msg, "connection refused"),
		strings.Contains(msg, "network is unreachable"), strings.Contains(msg, "i/o timeout"):
		return KindUnavailable
	}
	return KindGeneric
}

// apiStatus extracts the HTTP code and RPC status of a genai API error.
func apiStatus(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Status, true
	}
	return 0, "", false
}
