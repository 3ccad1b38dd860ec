package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fsanano/food-market/internal/model"
)

const (
	broadcastDelay = 5 * time.Second
	pushTTL        = time.Hour
	pushPriority   = "high"
)

// Push is the broadcast representation of an event.
type Push struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Data      map[string]any `json:"data,omitempty"`
	UserID    int64          `json:"user_id"`
	CreatedAt time.Time      `json:"created_at"`

	Channels     []string `json:"channels"`
	DelaySeconds int      `json:"delay_seconds"`
	Priority     string   `json:"priority"`
	TTLSeconds   int      `json:"ttl_seconds"`
}

type Email struct {
	To      string
	Subject string
	Body    string
}

// Rendered holds all three representations of one event.
type Rendered struct {
	Record *model.Notification
	Push   Push
	Email  Email
}

type emailTemplate struct {
	sentence string
	action   string
	path     string
	idKey    string
}

// One template per event type. EventType.Valid is defined by this table.
var emailContent = map[EventType]emailTemplate{
	VendorNearby: {
		sentence: "A vendor you may like is close to your current location.",
		action:   "View Vendor",
		path:     "/vendors",
		idKey:    "vendor_id",
	},
	DeliveryUpdate: {
		sentence: "There is an update on the delivery of your order.",
		action:   "Track Order",
		path:     "/orders",
		idKey:    "order_id",
	},
	PromotionalOffer: {
		sentence: "A limited-time offer is available near you.",
		action:   "View Offer",
		path:     "/vendors",
		idKey:    "vendor_id",
	},
	WeatherAlert: {
		sentence: "Weather conditions in your area may delay deliveries.",
		action:   "View Order",
		path:     "/orders",
		idKey:    "order_id",
	},
	TrafficAlert: {
		sentence: "Heavy traffic on the delivery route may delay your order.",
		action:   "Track Order",
		path:     "/orders",
		idKey:    "order_id",
	},
}

// UserChannel is the push channel addressed to a single user.
func UserChannel(userID int64) string {
	return fmt.Sprintf("user.%d", userID)
}

// TypeChannel is the push channel shared by all events of one type.
func TypeChannel(t EventType) string {
	return "geolocation." + string(t)
}

// Render builds the record, push and email representations of ev.
func Render(ev Event, appURL string, now time.Time) (Rendered, error) {
	if err := ev.validate(); err != nil {
		return Rendered{}, err
	}

	id := uuid.New()
	record := &model.Notification{
		ID:        id,
		UserID:    ev.Target.ID,
		Type:      string(ev.Type),
		Title:     ev.Title,
		Body:      ev.Body,
		Data:      ev.Payload,
		CreatedAt: now,
	}

	push := Push{
		ID:           id,
		Type:         ev.Type,
		Title:        ev.Title,
		Body:         ev.Body,
		Data:         ev.Payload,
		UserID:       ev.Target.ID,
		CreatedAt:    now,
		Channels:     []string{UserChannel(ev.Target.ID), TypeChannel(ev.Type)},
		DelaySeconds: int(broadcastDelay / time.Second),
		Priority:     pushPriority,
		TTLSeconds:   int(pushTTL / time.Second),
	}

	return Rendered{Record: record, Push: push, Email: renderEmail(ev, appURL)}, nil
}

func renderEmail(ev Event, appURL string) Email {
	tpl := emailContent[ev.Type]

	link := strings.TrimRight(appURL, "/") + tpl.path
	if id, ok := ev.Payload[tpl.idKey]; ok && id != nil {
		link += fmt.Sprintf("/%v", id)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", ev.Target.Name)
	fmt.Fprintf(&b, "%s\n\n", ev.Body)
	fmt.Fprintf(&b, "%s\n\n", tpl.sentence)
	fmt.Fprintf(&b, "%s: %s\n\n", tpl.action, link)
	b.WriteString("Thank you for using our app!\n")

	return Email{To: ev.Target.Email, Subject: ev.Title, Body: b.String()}
}
