package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Failure kinds. Every error leaving a client is tagged with exactly one.
var (
	ErrNetwork  = errors.New("network error")
	ErrParse    = errors.New("parse error")
	ErrNotFound = errors.New("not found")
	ErrIO       = errors.New("io error")
	ErrRemote   = errors.New("remote service error")
	ErrConfig   = errors.New("configuration error")
)

// Kind is the stable, printable code of a failure kind.
type Kind string

const (
	KindNone     Kind = ""
	KindNetwork  Kind = "network"
	KindParse    Kind = "parse"
	KindNotFound Kind = "not_found"
	KindIO       Kind = "io"
	KindRemote   Kind = "remote"
	KindConfig   Kind = "config"
	KindUnknown  Kind = "unknown"
)

// Error represents a failed operation with its kind
type Error struct {
	Kind error
	Op   string
	Err  error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Kind)
}

// Unwrap exposes both the kind sentinel and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Wrap tags err with kind and the operation name. A nil err still produces
// an error so callers can report "not found" without a cause.
func Wrap(kind error, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Common error constructors

func Network(op string, err error) *Error { return Wrap(ErrNetwork, op, err) }
func Parse(op string, err error) *Error { return Wrap(ErrParse, op, err) }
func IO(op string, err error) *Error { return Wrap(ErrIO, op, err) }
func Remote(op string, err error) *Error { return Wrap(ErrRemote, op, err) }
func Config(op string, err error) *Error { return Wrap(ErrConfig, op, err) }
func NotFound(op, what string) *Error { return Wrap(ErrNotFound, op, errors.New(what)) }

// StatusError describes a non-2xx HTTP response.
type StatusError struct {
	Operation  string
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if strings.TrimSpace(e.Body) == "" {
		return fmt.Sprintf("%s status: %s", e.Operation, e.Status)
	}
	return fmt.Sprintf("%s status: %s: %s", e.Operation, e.Status, strings.TrimSpace(e.Body))
}

// KindOf classifies err. Context cancellation counts as a network failure
// because it only ever interrupts a request in flight.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrParse):
		return KindParse
	case errors.Is(err, ErrIO):
		return KindIO
	case errors.Is(err, ErrRemote):
		return KindRemote
	case errors.Is(err, ErrConfig):
		return KindConfig
	case errors.Is(err, ErrNetwork),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return KindNetwork
	default:
		return KindUnknown
	}
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}

// New is errors.New, re-exported so callers need a single import.
func New(text string) error {
	return errors.New(text)
}
