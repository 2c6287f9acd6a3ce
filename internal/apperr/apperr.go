// Package apperr defines the error kinds handlers translate into HTTP
// responses. Lower layers wrap causes with fmt.Errorf; the boundary calls
// Status and Public to decide what the client sees.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies an error for the boundary.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuthentication
	KindAuthorization
	KindConflict
	KindStorage
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

// Generic messages for kinds whose details stay in the logs.
const (
	MsgInternal = "Something went wrong, please try again later."
	MsgUpstream = "The service is temporarily unavailable, please try again."
)

// Error is a classified error. Msg is safe to show to the client for the
// client-facing kinds; Err carries the cause for logging.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Msg
	}
	if e.Msg == "" {
		return e.Err.Error()
	}
	return e.Msg + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func Validation(msg string) error { return &Error{Kind: KindValidation, Msg: msg} }

func NotFound(msg string) error { return &Error{Kind: KindNotFound, Msg: msg} }

func Authentication(msg string) error { return &Error{Kind: KindAuthentication, Msg: msg} }

// Authorization wraps cause so callers can still match sentinels with errors.Is.
func Authorization(msg string, cause error) error {
	return &Error{Kind: KindAuthorization, Msg: msg, Err: cause}
}

func Conflict(msg string) error { return &Error{Kind: KindConflict, Msg: msg} }

func Storage(err error) error { return &Error{Kind: KindStorage, Err: err} }

func Upstream(err error) error { return &Error{Kind: KindUpstream, Err: err} }

// KindOf returns the kind of the first classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Status maps err to an HTTP status code.
func Status(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Public returns the message the client may see. Storage, upstream and
// unclassified errors collapse to a generic text.
func Public(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return MsgInternal
	}
	switch e.Kind {
	case KindStorage, KindUnknown:
		return MsgInternal
	case KindUpstream:
		return MsgUpstream
	default:
		return e.Msg
	}
}
