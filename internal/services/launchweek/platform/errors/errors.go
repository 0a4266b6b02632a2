// Package errors classifies launch week failures for HTTP responses.
//
// Handlers return either a typed Error or a domain sentinel from the
// storage, profile or auth packages; KindOf folds both into one Kind so
// status codes and localized copy stay consistent across modules.
package errors

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/louisbranch/launchweek/internal/services/launchweek/auth"
	"github.com/louisbranch/launchweek/internal/services/launchweek/profile"
	"github.com/louisbranch/launchweek/internal/services/launchweek/storage"
)

// Kind classifies a failure.
type Kind string

const (
	KindUnknown      Kind = "unknown"
	KindInvalidInput Kind = "invalid_input"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindUnavailable  Kind = "unavailable"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
)

var kindStatus = map[Kind]int{
	KindInvalidInput: http.StatusBadRequest,
	KindUnauthorized: http.StatusUnauthorized,
	KindForbidden:    http.StatusForbidden,
	KindUnavailable:  http.StatusServiceUnavailable,
	KindNotFound:     http.StatusNotFound,
	KindConflict:     http.StatusConflict,
}

// sentinelKinds maps domain sentinels, checked in order with errors.Is.
var sentinelKinds = []struct {
	err  error
	kind Kind
}{
	{storage.ErrNotFound, KindNotFound},
	{storage.ErrAlreadyExists, KindConflict},
	{profile.ErrMalformedParam, KindInvalidInput},
	{auth.ErrInvalidToken, KindUnauthorized},
}

// Error is a typed failure with an optional localization key and cause.
type Error struct {
	Kind    Kind
	Key     string
	Message string
	Err     error
}

func (e Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e Error) Unwrap() error {
	return e.Err
}

// E builds a typed Error.
func E(kind Kind, message string) error {
	return Error{Kind: kind, Message: message}
}

// EK builds a typed Error with a localization key.
func EK(kind Kind, key string, message string) error {
	return Error{Kind: kind, Key: strings.TrimSpace(key), Message: message}
}

// Wrap classifies cause as kind. A nil cause yields nil.
func Wrap(kind Kind, message string, cause error) error {
	if cause == nil {
		return nil
	}
	return Error{Kind: kind, Message: message, Err: cause}
}

// KindOf returns the kind of the outermost typed Error in err's chain, or
// the kind of a known domain sentinel, or KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr Error
	if stderrors.As(err, &appErr) && appErr.Kind != "" {
		return appErr.Kind
	}
	for _, s := range sentinelKinds {
		if stderrors.Is(err, s.err) {
			return s.kind
		}
	}
	return KindUnknown
}

// LocalizationKey returns the structured localization key when available.
func LocalizationKey(err error) string {
	var appErr Error
	if err == nil || !stderrors.As(err, &appErr) {
		return ""
	}
	return strings.TrimSpace(appErr.Key)
}

// HTTPStatus maps err to a response status; nil is 200.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := kindStatus[KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}
