package handler

import (
	"net/http"

	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/cart"
	"fsanano/food-market/internal/service"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.deps.Auth.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, res)
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.deps.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, res)
}

func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	rc := auth.FromContext(r.Context())
	ok(w, map[string]any{
		"user":           rc.Principal,
		"vendor_profile": rc.VendorProfile,
	})
}

type ThemeRequest struct {
	Theme cart.Theme `json:"theme"`
}

func (h *Handler) GetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := h.deps.Carts.Theme(r.Context(), auth.Principal(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, ThemeRequest{Theme: theme})
}

func (h *Handler) SetTheme(w http.ResponseWriter, r *http.Request) {
	var req ThemeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.deps.Carts.SetTheme(r.Context(), auth.Principal(r.Context()).ID, req.Theme); err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, req)
}
