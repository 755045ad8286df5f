package util

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// Error carries a sentinel code next to the wrapped cause, so callers can
// branch with errors.Is(err, ErrEmptyRoute) while still reaching the cause
// (a *StatusError, *ExitError, ...) through errors.As.
type Error struct {
	orig error
	msg  string
	code error
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}

	return e.msg
}

func (e *Error) Unwrap() error {
	return e.orig
}

func (e *Error) Code() error {
	return e.code
}

func (e *Error) Is(target error) bool {
	if e.code == nil {
		return false
	}
	if e.code == target {
		return true
	}
	parent, ok := parentCodes[e.code]
	return ok && parent == target
}

func WrapErrorf(orig error, code error, format string, a ...interface{}) error {
	return &Error{
		code: code,
		orig: orig,
		msg:  fmt.Sprintf(format, a...),
	}
}

func NewErrorf(code error, format string, a ...interface{}) error {
	return WrapErrorf(nil, code, format, a...)
}

var (
	ErrInvalidProfile             = errors.New("invalid profile")
	ErrInvalidRequest             = errors.New("invalid request")
	ErrNetwork                    = errors.New("network error")
	ErrRemoteTimeout              = errors.New("remote timeout")
	ErrRemote                     = errors.New("remote error")
	ErrLocalEngineUnavailable     = errors.New("local engine unavailable")
	ErrLocalEngineExecutionFailed = errors.New("local engine execution failed")
	ErrLocalEngineTimeout         = errors.New("local engine timeout")
	ErrMalformedResponse          = errors.New("malformed response")
	ErrEmptyRoute                 = errors.New("empty route")

	// reported by the brouter engine itself, remote or local
	ErrMissingDataFile = errors.New("missing data file")
	ErrNoRouteFound    = errors.New("no route found")
	ErrEngineTimeout   = errors.New("engine pass timeout")
	ErrProfileUpload   = errors.New("profile upload failed")
)

// a remote timeout is still a network error for callers that only check the coarse kind.
var parentCodes = map[error]error{
	ErrRemoteTimeout: ErrNetwork,
}

var kinds = []error{
	ErrInvalidProfile, ErrInvalidRequest, ErrRemoteTimeout, ErrNetwork, ErrRemote,
	ErrLocalEngineUnavailable, ErrLocalEngineExecutionFailed, ErrLocalEngineTimeout,
	ErrMalformedResponse, ErrEmptyRoute, ErrMissingDataFile, ErrNoRouteFound,
	ErrEngineTimeout, ErrProfileUpload,
}

// KindOf returns the most specific sentinel code in err's chain, or nil.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// KindName is a label-friendly name for err's kind ("ok" for nil).
func KindName(err error) string {
	if err == nil {
		return "ok"
	}
	k := KindOf(err)
	if k == nil {
		return "internal"
	}
	return strings.ReplaceAll(k.Error(), " ", "_")
}

// IsTimeout reports whether err is any of the deadline failures.
func IsTimeout(err error) bool {
	if errors.Is(err, ErrRemoteTimeout) || errors.Is(err, ErrLocalEngineTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// StatusError is a non-2xx reply from a brouter server.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, Excerpt([]byte(strings.TrimSpace(e.Body)), 512))
}

// ExitError is a local engine process that exited non-zero.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d: %s", e.ExitCode, Excerpt([]byte(strings.TrimSpace(e.Stderr)), 512))
}
