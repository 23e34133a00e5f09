package auth

import (
	"errors"

	"github.com/samber/oops"
)

// Sentinel failures. Every error returned by the Manager wraps exactly one of
// them (or none, for internal failures); use errors.Is or KindOf to branch.
var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid credential state")
)

// Kind classifies a failure for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindUnauthorized
	KindConflict
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindConflict:
		return "conflict"
	case KindInvalidState:
		return "invalid_state"
	default:
		return "internal"
	}
}

// KindOf returns the failure kind carried by err. A nil error has no kind and
// reports KindInternal; callers check for nil first.
func KindOf(err error) Kind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	default:
		return KindInternal
	}
}

// Code returns the oops error code attached to err, or "" when there is none.
func Code(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}
