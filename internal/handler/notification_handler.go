package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/service"
)

const (
	streamWriteWait  = 10 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
)

// Tokens travel in the query string, so any origin may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	records, err := h.deps.Notifications.List(r.Context(), auth.Principal(r.Context()).ID, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, records)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuidParam(r, "id", "notification")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.deps.Notifications.MarkRead(r.Context(), auth.Principal(r.Context()).ID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, nil, "Notification marked as read")
}

type PreferencesRequest struct {
	Geolocation bool `json:"geolocation"`
}

func (h *Handler) SetNotificationPreferences(w http.ResponseWriter, r *http.Request) {
	var req PreferencesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.deps.Notifications.SetGeolocation(r.Context(), auth.Principal(r.Context()).ID, req.Geolocation); err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, req, "Preferences updated")
}

// NotificationStream relays the caller's pushes over a websocket until either side hangs up.
func (h *Handler) NotificationStream(w http.ResponseWriter, r *http.Request) {
	user := auth.Principal(r.Context())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	pushes, err := h.deps.Stream.Subscribe(ctx, user.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		h.log.WithError(err).WithField("user_id", user.ID).Debug("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The client sends nothing; reading only surfaces pongs and the close frame.
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(streamWriteWait))
			return
		case data, open := <-pushes:
			if !open {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) AdminBroadcast(w http.ResponseWriter, r *http.Request) {
	var req service.BroadcastInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	res, err := h.deps.Admin.Broadcast(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, successEnvelope{Success: true, Data: res, Message: "Notifications queued"})
}
