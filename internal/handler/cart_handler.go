package handler

import (
	"net/http"

	"fsanano/food-market/internal/auth"
)

type CartItemRequest struct {
	DishID   int64 `json:"dish_id"`
	Quantity int   `json:"quantity"`
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Carts.Get(r.Context(), auth.Principal(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, view)
}

func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	var req CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	// Default quantity to 1 if not provided
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	view, err := h.deps.Carts.Add(r.Context(), auth.Principal(r.Context()).ID, req.DishID, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, view, view.Message)
}

func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "cart item")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req CartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.deps.Carts.UpdateQuantity(r.Context(), auth.Principal(r.Context()).ID, id, req.Quantity)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, view, view.Message)
}

func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "cart item")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	view, err := h.deps.Carts.Remove(r.Context(), auth.Principal(r.Context()).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, view, view.Message)
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.deps.Carts.Clear(r.Context(), auth.Principal(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, view, view.Message)
}
