package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/repository"
)

const maxBodyBytes = 1 << 20

type successEnvelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data})
}

func created(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusCreated, successEnvelope{Success: true, Data: data})
}

func okWithMessage(w http.ResponseWriter, data any, message string) {
	writeJSON(w, http.StatusOK, successEnvelope{Success: true, Data: data, Message: message})
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		se := apperr.WithStatus(http.StatusBadRequest, "invalid request body")
		se.Err = err
		return se
	}
	return nil
}

// idParam parses a positive integer path parameter; anything else is a missing resource.
func idParam(r *http.Request, name, resource string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperr.NotFound(resource, raw)
	}
	return id, nil
}

func uuidParam(r *http.Request, name, resource string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.NotFound(resource, raw)
	}
	return id, nil
}

// optionalInt64 parses query parameter name, returning nil when it is absent.
func optionalInt64(r *http.Request, name string) (*int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, apperr.Invalid(name, "must be an integer")
	}
	return &v, nil
}

func optionalFloat(r *http.Request, name string, v *apperr.ValidationError) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		v.Add(name, "must be a number")
	}
	return f
}

func pageParams(r *http.Request) (repository.Page, error) {
	var page repository.Page
	v := apperr.NewValidation()
	for name, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			v.Add(name, "must be a non-negative integer")
			continue
		}
		*dst = n
	}
	return page, v.OrNil()
}
