package handler

import (
	"net/http"

	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/service"
)

func (h *Handler) ListReviews(w http.ResponseWriter, r *http.Request) {
	vendorID, err := optionalInt64(r, "vendor_id")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	reviews, err := h.deps.Reviews.Reviews(r.Context(), vendorID, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, reviews)
}

func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req service.ReviewInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	review, err := h.deps.Reviews.Create(r.Context(), auth.Principal(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, review)
}

func (h *Handler) AdminDeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "review")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.deps.Reviews.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, nil, "Review deleted")
}

type MessageRequest struct {
	Body string `json:"body"`
}

func (h *Handler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	var req service.ConversationInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	conv, err := h.deps.Chat.Open(r.Context(), auth.Principal(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, conv)
}

func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	h.listConversations(w, r, false)
}

func (h *Handler) AdminListConversations(w http.ResponseWriter, r *http.Request) {
	h.listConversations(w, r, true)
}

func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	h.listMessages(w, r, false)
}

func (h *Handler) AdminListMessages(w http.ResponseWriter, r *http.Request) {
	h.listMessages(w, r, true)
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	h.postMessage(w, r, false)
}

func (h *Handler) AdminPostMessage(w http.ResponseWriter, r *http.Request) {
	h.postMessage(w, r, true)
}

// all is set only on routes behind the admin gate.
func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request, all bool) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	convs, err := h.deps.Chat.Conversations(r.Context(), auth.Principal(r.Context()), all, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, convs)
}

func (h *Handler) listMessages(w http.ResponseWriter, r *http.Request, all bool) {
	id, err := uuidParam(r, "id", "conversation")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	msgs, err := h.deps.Chat.Messages(r.Context(), auth.Principal(r.Context()), id, all, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, msgs)
}

func (h *Handler) postMessage(w http.ResponseWriter, r *http.Request, all bool) {
	id, err := uuidParam(r, "id", "conversation")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req MessageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	msg, err := h.deps.Chat.Post(r.Context(), auth.Principal(r.Context()), id, all, req.Body)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, msg)
}

func (h *Handler) AdminCloseConversation(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "conversation")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conv, err := h.deps.Chat.Close(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, conv, "Conversation closed")
}

func (h *Handler) ListLocations(w http.ResponseWriter, r *http.Request) {
	locations, err := h.deps.Locations.Locations(r.Context(), auth.Principal(r.Context()).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, locations)
}

func (h *Handler) SaveLocation(w http.ResponseWriter, r *http.Request) {
	var req service.LocationInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	loc, err := h.deps.Locations.Save(r.Context(), auth.Principal(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, loc)
}
