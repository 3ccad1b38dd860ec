// Package notification decides whether a geolocation event reaches a user and
// renders it for the persisted, push and email channels.
package notification

import (
	"fmt"

	"fsanano/food-market/internal/model"
)

type EventType string

const (
	VendorNearby     EventType = "vendor_nearby"
	DeliveryUpdate   EventType = "delivery_update"
	PromotionalOffer EventType = "promotional_offer"
	WeatherAlert     EventType = "weather_alert"
	TrafficAlert     EventType = "traffic_alert"
)

// EventTypes lists every event type.
var EventTypes = []EventType{VendorNearby, DeliveryUpdate, PromotionalOffer, WeatherAlert, TrafficAlert}

func (t EventType) Valid() bool {
	_, ok := emailContent[t]
	return ok
}

// Event is produced by a geolocation trigger and consumed by Dispatch.
type Event struct {
	Type    EventType
	Title   string
	Body    string
	Payload map[string]any
	Target  *model.User
}

func (e Event) validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("unknown notification type %q", e.Type)
	}
	if e.Target == nil {
		return fmt.Errorf("notification %s has no target", e.Type)
	}
	return nil
}

// ShouldSend reports whether u may receive geolocation notifications:
// the account must be active and must not have opted out. No stored
// preference means opted in.
func ShouldSend(u *model.User) bool {
	if u == nil || !u.IsActive() {
		return false
	}
	if enabled, ok := u.Preferences[model.PrefGeolocation]; ok && !enabled {
		return false
	}
	return true
}
