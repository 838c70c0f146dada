package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure for callers of the recommendation core.
type Kind string

const (
	KindInput       Kind = "invalid_input"
	KindNotFound    Kind = "not_found"
	KindConsistency Kind = "consistency_violation"
	KindExternal    Kind = "external_dependency"
)

var (
	ErrInput       = errors.New("invalid input")
	ErrNotFound    = errors.New("not found")
	ErrConsistency = errors.New("consistency violation")
	ErrExternal    = errors.New("external dependency unavailable")
)

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, apierr.ErrNotFound) match any *Error of that kind.
func (e *Error) Is(target error) bool {
	if e == nil {
		return false
	}
	return sentinel(e.Kind) == target
}

func sentinel(k Kind) error {
	switch k {
	case KindInput:
		return ErrInput
	case KindNotFound:
		return ErrNotFound
	case KindConsistency:
		return ErrConsistency
	case KindExternal:
		return ErrExternal
	default:
		return nil
	}
}

func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func Input(op, format string, args ...any) *Error {
	return New(KindInput, op, fmt.Errorf(format, args...))
}

func NotFound(op, format string, args ...any) *Error {
	return New(KindNotFound, op, fmt.Errorf(format, args...))
}

func Consistency(op, format string, args ...any) *Error {
	return New(KindConsistency, op, fmt.Errorf(format, args...))
}

func External(op string, err error) *Error {
	return New(KindExternal, op, err)
}

// KindOf returns the kind of the first *Error in err's chain, or "" when none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Status maps an error to the HTTP status the request layer should render.
func Status(err error) int {
	switch KindOf(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindExternal:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
