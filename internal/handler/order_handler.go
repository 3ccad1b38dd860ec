package handler

import (
	"net/http"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/service"
)

type StatusRequest struct {
	Status model.OrderStatus `json:"status"`
}

func customerScope(r *http.Request) service.OrderScope {
	return service.CustomerScope(auth.Principal(r.Context()).ID)
}

func vendorScope(r *http.Request) service.OrderScope {
	return service.VendorScope(auth.VendorProfile(r.Context()).ID)
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req service.PlaceOrderInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.deps.Orders.PlaceOrder(r.Context(), auth.Principal(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, order)
}

func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, customerScope(r))
}

func (h *Handler) ListVendorOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, vendorScope(r))
}

func (h *Handler) AdminListOrders(w http.ResponseWriter, r *http.Request) {
	h.listOrders(w, r, service.OrderScope{})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request, scope service.OrderScope) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	status := model.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		h.fail(w, r, apperr.Invalid("status", "is not a known order status"))
		return
	}

	orders, err := h.deps.Orders.Orders(r.Context(), scope, status, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, orders)
}

func (h *Handler) GetMyOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, customerScope(r))
}

func (h *Handler) GetVendorOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, vendorScope(r))
}

func (h *Handler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	h.getOrder(w, r, service.OrderScope{})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request, scope service.OrderScope) {
	id, err := idParam(r, "id", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.deps.Orders.Order(r.Context(), scope, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, order)
}

func (h *Handler) UpdateVendorOrderStatus(w http.ResponseWriter, r *http.Request) {
	h.updateOrderStatus(w, r, vendorScope(r))
}

func (h *Handler) AdminUpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	h.updateOrderStatus(w, r, service.OrderScope{})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request, scope service.OrderScope) {
	id, err := idParam(r, "id", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req StatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.deps.Orders.UpdateStatus(r.Context(), scope, id, req.Status)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, order)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	order, err := h.deps.Orders.Cancel(r.Context(), auth.Principal(r.Context()).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, order, "Order cancelled")
}

func (h *Handler) OrderRoute(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "order")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	estimate, err := h.deps.Orders.Route(r.Context(), customerScope(r), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, estimate)
}
