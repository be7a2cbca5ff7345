// Package errors defines the error kinds surfaced by the webpress core.
//
// Every failure the core reports falls into one of four kinds: a name lookup
// that found nothing (NotFound), a registration that collided with an
// existing name (DuplicateName), an optional processor whose underlying tool
// is missing (ProcessorUnavailable), and an external processor invocation
// that failed (ProcessorExecution). The HTTP layer translates NotFound into
// 404 responses; every other kind propagates as a server error.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

const (
	// KindNotFound reports an unknown bundle, asset index, or processor name.
	KindNotFound Kind = iota
	// KindDuplicateName reports a registration without replace over an
	// existing name.
	KindDuplicateName
	// KindProcessorUnavailable reports a processor whose underlying tool is
	// not installed. Raised on first use, never at registration.
	KindProcessorUnavailable
	// KindProcessorExecution reports an external processor that launched but
	// failed, or could not be launched at all.
	KindProcessorExecution
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindDuplicateName:
		return "duplicate name"
	case KindProcessorUnavailable:
		return "processor unavailable"
	case KindProcessorExecution:
		return "processor execution failed"
	default:
		return "unknown"
	}
}

// Error is the concrete error type used throughout the core.
type Error struct {
	Kind   Kind
	Entity string // "bundle", "asset", "processor"
	Name   string // the offending name or index
	Detail string // diagnostic text, e.g. compiler stderr
	Err    error  // wrapped cause, may be nil
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s %q: %s", e.Entity, e.Name, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound reports an unknown name for the given entity kind.
func NotFound(entity, name string) error {
	return &Error{Kind: KindNotFound, Entity: entity, Name: name}
}

// DuplicateName reports a conflicting registration for the given entity kind.
func DuplicateName(entity, name string) error {
	return &Error{
		Kind:   KindDuplicateName,
		Entity: entity,
		Name:   name,
		Detail: "already registered, pass replace to overwrite",
	}
}

// ProcessorUnavailable reports a processor whose backing tool is missing.
func ProcessorUnavailable(name, detail string) error {
	return &Error{
		Kind:   KindProcessorUnavailable,
		Entity: "processor",
		Name:   name,
		Detail: detail,
	}
}

// ProcessorExecution reports a failed external processor invocation. The
// detail carries the external diagnostic output when there is any.
func ProcessorExecution(name, detail string, err error) error {
	return &Error{
		Kind:   KindProcessorExecution,
		Entity: "processor",
		Name:   name,
		Detail: detail,
		Err:    err,
	}
}

// IsNotFound reports whether err is a NotFound error.
func IsNotFound(err error) bool {
	return hasKind(err, KindNotFound)
}

// IsDuplicateName reports whether err is a DuplicateName error.
func IsDuplicateName(err error) bool {
	return hasKind(err, KindDuplicateName)
}

// IsProcessorUnavailable reports whether err is a ProcessorUnavailable error.
func IsProcessorUnavailable(err error) bool {
	return hasKind(err, KindProcessorUnavailable)
}

// IsProcessorExecution reports whether err is a ProcessorExecution error.
func IsProcessorExecution(err error) bool {
	return hasKind(err, KindProcessorExecution)
}

func hasKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}
