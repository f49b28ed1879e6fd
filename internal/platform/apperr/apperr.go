// Package apperr defines the error taxonomy shared by the domain services and
// its mapping onto HTTP statuses at the handler layer.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	// Invalid marks malformed or out-of-range input.
	Invalid Kind = iota
	// Conflict marks a business-rule violation (duplicate unique field,
	// patient already queued, illegal status transition).
	Conflict
	// NotFound marks an entity id that does not resolve.
	NotFound
	// Unauthenticated marks bad credentials or an invalid/expired token.
	Unauthenticated
	// Forbidden marks insufficient privilege.
	Forbidden
	// Internal marks unexpected failures (storage errors and the like).
	Internal
)

// Error carries a kind and a human-readable message, optionally wrapping a
// cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New returns an error of the given kind.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap folds cause into an error of the given kind.
func Wrap(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: cause}
}

// KindOf returns the kind of err, or Internal for unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

// HTTP maps err to an *echo.HTTPError. Handlers return the result directly.
func HTTP(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	switch KindOf(err) {
	case Invalid, Conflict:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case NotFound:
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case Unauthenticated:
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case Forbidden:
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
}
