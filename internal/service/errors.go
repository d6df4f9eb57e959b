package service

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a publish failure so callers can map it to a response
// and an operator hint.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindConfiguration ErrorKind = "configuration"
	KindAuth          ErrorKind = "auth"
	KindNetwork       ErrorKind = "network"
	KindUpstream      ErrorKind = "upstream"
	KindInternal      ErrorKind = "internal"
)

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// maxErrorLength bounds the last_error column content, counted in runes.
const maxErrorLength = 1000

type PublishError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *PublishError) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *PublishError) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, op string, err error) *PublishError {
	return &PublishError{Kind: kind, Op: op, Err: err}
}

func validationf(format string, args ...any) *PublishError {
	return newError(KindValidation, "", fmt.Errorf(format, args...))
}

func configurationf(format string, args ...any) *PublishError {
	return newError(KindConfiguration, "", fmt.Errorf(format, args...))
}

// KindOf returns the kind of the first PublishError or PlatformError in the
// chain. Anything else is internal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	var platformErr *PlatformError
	if errors.As(err, &platformErr) {
		return platformErr.Kind()
	}
	return KindInternal
}

// IsNotFound reports whether err means the post does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPostNotFound)
}

// Guidance returns an operator facing hint for configuration and credential
// failures, or "" when there is nothing useful to add.
func Guidance(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindAuth:
		return "Generate a new long-lived access token, update INSTAGRAM_ACCESS_TOKEN (or reconnect the channel) and retry the publish."
	case KindConfiguration:
		return "Set INSTAGRAM_USER_ID and INSTAGRAM_ACCESS_TOKEN, or connect an Instagram channel, and make sure PUBLIC_BASE_URL or an upload host is configured."
	}
	if looksLikeTokenProblem(err.Error()) {
		return "The access token looks invalid or expired. Refresh INSTAGRAM_ACCESS_TOKEN and retry."
	}
	return ""
}

func looksLikeTokenProblem(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "expired") ||
		strings.Contains(msg, "session has expired") ||
		strings.Contains(msg, "access token")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// TruncateError bounds msg to what is stored in a post's last_error.
func TruncateError(msg string) string {
	return truncateRunes(msg, maxErrorLength)
}
