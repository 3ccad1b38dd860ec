package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"fsanano/food-market/internal/apperr"
)

const (
	msgValidation    = "The given data was invalid."
	msgUnauthorized  = "Unauthenticated."
	msgNotFound      = "Resource not found."
	msgRouteNotFound = "Route not found."
	msgInternal      = "Internal server error."
)

type errorEnvelope struct {
	Success bool                `json:"success"`
	Message string              `json:"message"`
	Status  int                 `json:"status"`
	Reason  string              `json:"reason,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
	Debug   *debugInfo          `json:"debug,omitempty"`
}

type debugInfo struct {
	Exception string         `json:"exception"`
	File      string         `json:"file,omitempty"`
	Line      int            `json:"line,omitempty"`
	Trace     []apperr.Frame `json:"trace,omitempty"`
}

// ErrorResponder turns any handler failure into the error envelope.
type ErrorResponder struct {
	debug bool
	log   logrus.FieldLogger
}

func NewErrorResponder(debug bool, log logrus.FieldLogger) *ErrorResponder {
	return &ErrorResponder{debug: debug, log: log}
}

func (e *ErrorResponder) Respond(w http.ResponseWriter, r *http.Request, err error) {
	env := e.envelope(err)
	if env.Debug != nil && len(env.Debug.Trace) == 0 {
		// Errors built outside apperr carry no origin; locate them where they were reported.
		env.Debug.locate(apperr.Callers(0))
	}
	if env.Status >= http.StatusInternalServerError {
		e.log.WithError(err).WithFields(logrus.Fields{
			"method":     r.Method,
			"path":       r.URL.Path,
			"request_id": middleware.GetReqID(r.Context()),
		}).Error("request failed")
	}
	writeJSON(w, env.Status, env)
}

// envelope maps err by kind; the first matching kind wins.
func (e *ErrorResponder) envelope(err error) errorEnvelope {
	env := errorEnvelope{Success: false}

	var (
		validation *apperr.ValidationError
		notFound   *apperr.NotFoundError
		status     *apperr.StatusError
		matched    error = err
	)
	switch {
	case errors.As(err, &validation):
		env.Status, env.Message, env.Errors = http.StatusUnprocessableEntity, msgValidation, validation.Fields
		matched = validation
	case errors.Is(err, apperr.ErrUnauthenticated):
		env.Status, env.Message = http.StatusUnauthorized, msgUnauthorized
	case errors.As(err, &notFound):
		env.Status, env.Message = http.StatusNotFound, msgNotFound
		matched = notFound
	case errors.Is(err, apperr.ErrRouteNotFound):
		env.Status, env.Message = http.StatusNotFound, msgRouteNotFound
	case errors.As(err, &status):
		env.Status, env.Message, env.Reason = status.Status, status.Message, status.Reason
		matched = status
	default:
		env.Status, env.Message = http.StatusInternalServerError, msgInternal
	}

	if e.debug {
		env.Debug = describe(matched, err)
	}
	return env
}

func describe(matched, err error) *debugInfo {
	info := &debugInfo{Exception: fmt.Sprintf("%T", matched)}
	info.locate(apperr.Trace(err))
	return info
}

func (d *debugInfo) locate(trace []apperr.Frame) {
	d.Trace = trace
	if len(trace) > 0 {
		d.File, d.Line = trace[0].File, trace[0].Line
	}
}
