// Package apperr defines the failure kinds surfaced by request handling.
// The handler layer maps each kind onto the JSON error envelope.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
)

// ErrUnauthenticated is returned when a route needs a principal and none was resolved.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrRouteNotFound is returned for requests that match no route.
var ErrRouteNotFound = errors.New("route not found")

// ValidationError carries field-keyed validation messages.
type ValidationError struct {
	Fields map[string][]string
	origin
}

func NewValidation() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string), origin: capture()}
}

// Invalid builds a validation error for a single field.
func Invalid(field, message string) *ValidationError {
	return NewValidation().Add(field, message)
}

func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields[field] = append(e.Fields[field], message)
	return e
}

// OrNil returns nil when no field failed, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], ", "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Resource string
	ID       any
	origin
}

func NotFound(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id, origin: capture()}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// StatusError is a failure with a declared HTTP status.
type StatusError struct {
	Status  int
	Message string

	// Reason is a machine-readable subcode, set for forbidden denials.
	Reason string
	Err    error
	origin
}

func WithStatus(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message, origin: capture()}
}

func Forbidden(reason, message string) *StatusError {
	return &StatusError{Status: http.StatusForbidden, Message: message, Reason: reason, origin: capture()}
}

func Conflict(message string) *StatusError {
	return &StatusError{Status: http.StatusConflict, Message: message, origin: capture()}
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// origin records where an error value was constructed.
type origin struct {
	pcs []uintptr
}

func capture() origin {
	return callers(4)
}

func callers(skip int) origin {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(skip, pcs)
	return origin{pcs: pcs[:n]}
}

// Callers returns the stack of its caller's caller, skipping skip further frames.
func Callers(skip int) []Frame {
	return callers(skip + 4).StackTrace()
}

// Frame is one entry of a captured call stack.
type Frame struct {
	Function string `json:"function"`
	File     string `json:"file"`
	Line     int    `json:"line"`
}

func (o origin) StackTrace() []Frame {
	if len(o.pcs) == 0 {
		return nil
	}
	frames := runtime.CallersFrames(o.pcs)
	var out []Frame
	for {
		f, more := frames.Next()
		out = append(out, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return out
}

// StackTracer is implemented by errors that captured their origin.
type StackTracer interface {
	StackTrace() []Frame
}

// Trace returns the captured stack of the first error in err's chain that has one.
func Trace(err error) []Frame {
	var st StackTracer
	if errors.As(err, &st) {
		return st.StackTrace()
	}
	return nil
}
