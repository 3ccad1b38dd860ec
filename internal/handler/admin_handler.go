package handler

import (
	"net/http"

	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/model"
)

type UserStatusRequest struct {
	Status model.UserStatus `json:"status"`
}

func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	users, err := h.deps.Admin.Users(r.Context(), page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, users)
}

func (h *Handler) AdminSetUserStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "user")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req UserStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.deps.Admin.SetUserStatus(r.Context(), auth.Principal(r.Context()).ID, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, user)
}
