// Package apperr is the error taxonomy shared by every rule and service.
//
// Errors carry a Kind, which decides how the UI reacts, and a Code, which is
// the message id of the human readable text returned by Message.
package apperr

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies an error by how it is presented and recovered from
type Kind int

const (
	// KindValidation is a local input problem. Nothing was sent.
	KindValidation Kind = iota + 1
	// KindForbidden is a denied capability or a rejected session
	KindForbidden
	// KindNetwork is a transport failure or a server fault. The user may retry.
	KindNetwork
	// KindNotFound means the entity no longer exists. Views render a terminal state.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindForbidden:
		return "forbidden"
	case KindNetwork:
		return "network"
	case KindNotFound:
		return "not_found"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is a classified error
type Error struct {
	Kind Kind
	Code string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error by code, and by kind when the target omits the code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Code == "" {
		return t.Kind == e.Kind
	}
	return t.Code == e.Code && (t.Kind == 0 || t.Kind == e.Kind)
}

// Invalid returns a validation error
func Invalid(code string) *Error {
	return &Error{Kind: KindValidation, Code: code}
}

// Forbidden returns an authorization error
func Forbidden(code string) *Error {
	return &Error{Kind: KindForbidden, Code: code}
}

// Network wraps a transport or server failure
func Network(code string, err error) *Error {
	return &Error{Kind: KindNetwork, Code: code, Err: err}
}

// NotFound returns a not-found error
func NotFound(code string) *Error {
	return &Error{Kind: KindNotFound, Code: code}
}

// KindOf classifies err. Errors that carry no kind are treated as network
// failures so the user is offered a retry. KindOf(nil) is 0.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNetwork
}

// CodeOf returns the message id for err
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) && e.Code != "" {
		return e.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeNetworkUnavailable
}

// IsKind reports whether err has kind k
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}
