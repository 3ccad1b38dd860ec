package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"fsanano/food-market/internal/geo"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/notification"
)

type LocationStore interface {
	CreateLocation(ctx context.Context, l *model.UserLocation) error
	ListLocations(ctx context.Context, userID int64) ([]model.UserLocation, error)
	ListVerifiedVendorsInBox(ctx context.Context, box geo.Box) ([]model.VendorProfile, error)
}

// LocationService keeps saved delivery locations and runs the vendor geofence
// whenever one is saved.
type LocationService struct {
	store    LocationStore
	notifier Notifier
	radiusKM float64
	log      logrus.FieldLogger
}

func NewLocationService(store LocationStore, notifier Notifier, radiusKM float64, log logrus.FieldLogger) *LocationService {
	return &LocationService{store: store, notifier: notifier, radiusKM: radiusKM, log: log}
}

type LocationInput struct {
	Label     string  `json:"label" validate:"notblank,max=100"`
	Address   string  `json:"address" validate:"notblank,max=500"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	IsDefault bool    `json:"is_default"`
}

func (s *LocationService) Locations(ctx context.Context, userID int64) ([]model.UserLocation, error) {
	return s.store.ListLocations(ctx, userID)
}

func (s *LocationService) Save(ctx context.Context, user *model.User, in LocationInput) (*model.UserLocation, error) {
	if err := check(in).OrNil(); err != nil {
		return nil, err
	}

	loc := &model.UserLocation{
		UserID:    user.ID,
		Label:     strings.TrimSpace(in.Label),
		Address:   in.Address,
		Latitude:  in.Latitude,
		Longitude: in.Longitude,
		IsDefault: in.IsDefault,
	}
	if err := s.store.CreateLocation(ctx, loc); err != nil {
		return nil, err
	}

	s.checkGeofence(ctx, user, loc)
	return loc, nil
}

// checkGeofence notifies user about the closest verified vendor around loc.
// Failures are logged; they never fail the save.
func (s *LocationService) checkGeofence(ctx context.Context, user *model.User, loc *model.UserLocation) {
	origin := geo.Point{Lat: loc.Latitude, Lng: loc.Longitude}

	candidates, err := s.store.ListVerifiedVendorsInBox(ctx, geo.BoundingBox(origin, s.radiusKM))
	if err != nil {
		s.log.WithError(err).WithField("location_id", loc.ID).Warn("geofence lookup failed")
		return
	}
	nearby := geo.Nearby(origin, candidates, s.radiusKM)
	if len(nearby) == 0 {
		return
	}

	closest := nearby[0]
	s.notifier.Notify(ctx, notification.Event{
		Type:  notification.VendorNearby,
		Title: fmt.Sprintf("%s is nearby", closest.BusinessName),
		Body:  fmt.Sprintf("%s is %.2f km from %s.", closest.BusinessName, closest.DistanceKM, loc.Label),
		Payload: map[string]any{
			"vendor_id":   closest.ID,
			"distance_km": closest.DistanceKM,
			"location_id": loc.ID,
		},
		Target: user,
	})
}
